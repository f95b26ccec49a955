package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/studioflow/studioflow-api/internal/config"
	"github.com/studioflow/studioflow-api/internal/database"
	"github.com/studioflow/studioflow-api/internal/handler"
	"github.com/studioflow/studioflow-api/internal/middleware"
	"github.com/studioflow/studioflow-api/internal/models"
	"github.com/studioflow/studioflow-api/internal/repository"
	"github.com/studioflow/studioflow-api/internal/router"
	"github.com/studioflow/studioflow-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.ClassTemplate{},
		&models.Course{},
		&models.CourseTemplate{},
		&models.Enrollment{},
		&models.ClassInstance{},
		&models.AttendanceRecord{},
		&models.Student{},
		&models.TempStudent{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis and NATS are optional: without them the schedule view skips its
	// cache and roster events are not published.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, schedule cache disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, roster events disabled")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	templateRepo := repository.NewClassTemplateRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	instanceRepo := repository.NewClassInstanceRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	tempStudentRepo := repository.NewTempStudentRepository(db)
	studentRepo := repository.NewStudentRepository(db)

	events := service.NewRosterEventPublisher(redisClient, natsConn, "studioflow", logger)

	studentService := service.NewStudentService(studentRepo, validate, logger)
	templateService := service.NewTemplateService(templateRepo, validate, logger)
	courseService := service.NewCourseService(courseRepo, templateRepo, validate, logger)
	instanceService := service.NewInstanceService(instanceRepo, templateRepo, courseRepo, enrollmentRepo, attendanceRepo, tempStudentRepo, events, validate, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, instanceRepo, events, validate, logger)
	attendanceService := service.NewAttendanceService(attendanceRepo, instanceRepo, validate, logger)
	scheduleService := service.NewScheduleService(templateRepo, instanceRepo, instanceService, redisClient, cfg.ScheduleCacheTTL, logger)

	studentHandler := handler.NewStudentHandler(studentService, logger)
	templateHandler := handler.NewTemplateHandler(templateService, logger)
	courseHandler := handler.NewCourseHandler(courseService, logger)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService, logger)
	instanceHandler := handler.NewInstanceHandler(instanceService, logger)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, logger)
	scheduleHandler := handler.NewScheduleHandler(scheduleService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		StudentHandler:    studentHandler,
		TemplateHandler:   templateHandler,
		CourseHandler:     courseHandler,
		EnrollmentHandler: enrollmentHandler,
		InstanceHandler:   instanceHandler,
		AttendanceHandler: attendanceHandler,
		ScheduleHandler:   scheduleHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
