package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/studioflow/studioflow-api/internal/dto"
	"github.com/studioflow/studioflow-api/internal/observability"
	"github.com/studioflow/studioflow-api/internal/repository"
)

// ErrScheduleRangeInvalid indicates a reversed or oversized schedule window.
var ErrScheduleRangeInvalid = errors.New("schedule range is invalid")

const maxScheduleDays = 31

// ScheduleService builds the per-day session view for a business over a
// date window, materializing template occurrences on the way. Results are
// cached in Redis with a short TTL; a missing or failing cache degrades to
// direct computation.
type ScheduleService interface {
	Range(ctx context.Context, businessID uint, from, to time.Time) (dto.ScheduleResponse, error)
}

type scheduleService struct {
	templates    repository.ClassTemplateRepository
	instances    repository.ClassInstanceRepository
	materializer InstanceService
	cache        *redis.Client
	ttl          time.Duration
	logger       zerolog.Logger
}

// NewScheduleService builds the schedule view service.
func NewScheduleService(
	templates repository.ClassTemplateRepository,
	instances repository.ClassInstanceRepository,
	materializer InstanceService,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) ScheduleService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &scheduleService{
		templates:    templates,
		instances:    instances,
		materializer: materializer,
		cache:        cache,
		ttl:          ttl,
		logger:       logger.With().Str("component", "schedule_service").Logger(),
	}
}

func (s *scheduleService) Range(ctx context.Context, businessID uint, from, to time.Time) (dto.ScheduleResponse, error) {
	fromDay := DayOf(from)
	toDay := DayOf(to)
	if toDay.Before(fromDay) {
		return dto.ScheduleResponse{}, ErrScheduleRangeInvalid
	}
	if toDay.Sub(fromDay) >= maxScheduleDays*24*time.Hour {
		return dto.ScheduleResponse{}, ErrScheduleRangeInvalid
	}

	cacheKey := fmt.Sprintf("schedule:%d:%s:%s", businessID, fromDay.Format(dto.DateLayout), toDay.Format(dto.DateLayout))
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var response dto.ScheduleResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				observability.ScheduleCacheRequests().WithLabelValues("hit").Inc()
				return response, nil
			}
		}
	}
	observability.ScheduleCacheRequests().WithLabelValues("miss").Inc()

	response, err := s.build(ctx, businessID, fromDay, toDay)
	if err != nil {
		return dto.ScheduleResponse{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				observability.ScheduleCacheRequests().WithLabelValues("error").Inc()
				s.logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache schedule view")
			}
		}
	}

	return response, nil
}

func (s *scheduleService) build(ctx context.Context, businessID uint, fromDay, toDay time.Time) (dto.ScheduleResponse, error) {
	templates, err := s.templates.List(ctx, businessID)
	if err != nil {
		return dto.ScheduleResponse{}, err
	}

	// Materialize every active template occurrence in the window, then read
	// the whole window back in one query so standalone sessions are included.
	for day := fromDay; !day.After(toDay); day = day.Add(24 * time.Hour) {
		for _, template := range templates {
			if !template.Active || !template.OccursOn(day) {
				continue
			}
			if _, err := s.materializer.GetOrCreate(ctx, template.ID, day); err != nil {
				return dto.ScheduleResponse{}, err
			}
		}
	}

	instances, err := s.instances.ListByBusinessBetween(ctx, businessID, fromDay, toDay.Add(24*time.Hour))
	if err != nil {
		return dto.ScheduleResponse{}, err
	}

	byDay := make(map[string][]dto.InstanceResponse)
	for _, instance := range instances {
		key := instance.Date.Format(dto.DateLayout)
		byDay[key] = append(byDay[key], dto.NewInstanceResponse(instance))
	}

	days := make([]dto.ScheduleDay, 0)
	for day := fromDay; !day.After(toDay); day = day.Add(24 * time.Hour) {
		key := day.Format(dto.DateLayout)
		sessions, ok := byDay[key]
		if !ok {
			continue
		}
		days = append(days, dto.ScheduleDay{Date: key, Instances: sessions})
	}

	return dto.ScheduleResponse{
		From: fromDay.Format(dto.DateLayout),
		To:   toDay.Format(dto.DateLayout),
		Days: days,
	}, nil
}
