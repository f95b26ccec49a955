package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Roster event reasons.
const (
	RosterReasonMaterialized = "materialized"
	RosterReasonRegenerated  = "regenerated"
	RosterReasonManualEdit   = "manual_edit"
	RosterReasonEnrollment   = "enrollment_sync"
)

// RosterEvent describes a roster change on a materialized instance.
type RosterEvent struct {
	Source     string    `json:"source"`
	BusinessID uint      `json:"business_id"`
	InstanceID uint      `json:"instance_id"`
	TemplateID *uint     `json:"template_id"`
	Date       string    `json:"date"`
	StudentIDs []uint    `json:"student_ids"`
	Reason     string    `json:"reason"`
	SentAt     time.Time `json:"sent_at"`
}

// RosterEventPublisher fans roster changes out to interested consumers.
// Publication is best effort: delivery failures must never fail the roster
// write that triggered them.
type RosterEventPublisher interface {
	PublishRosterUpdate(ctx context.Context, event RosterEvent)
}

type brokerRosterPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
}

// NewRosterEventPublisher builds a publisher over the Redis channel and NATS
// subject derived from channelBase. Either client may be nil.
func NewRosterEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) RosterEventPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":roster"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".roster.updated"
	}

	return &brokerRosterPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "roster_events").Logger(),
		nodeID:       uuid.NewString(),
	}
}

func (p *brokerRosterPublisher) PublishRosterUpdate(ctx context.Context, event RosterEvent) {
	event.Source = p.nodeID
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to encode roster event")
		return
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			p.logger.Warn().Err(err).Uint("instance_id", event.InstanceID).Msg("failed to publish roster event to redis")
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			p.logger.Warn().Err(err).Uint("instance_id", event.InstanceID).Msg("failed to publish roster event to nats")
		}
	}
}
