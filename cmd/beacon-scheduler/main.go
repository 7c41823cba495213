package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beacon-scheduler/internal/config"
	"beacon-scheduler/internal/logging"
	"beacon-scheduler/internal/oracle"
	"beacon-scheduler/internal/repository"
	"beacon-scheduler/internal/server"
	"beacon-scheduler/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(".")
	if err != nil {
		bootLog := logging.New("error", "production")
		bootLog.Fatal().Err(err).Msg("config")
	}

	log := logging.New(cfg.LogLevel, cfg.Environment)

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	taskRepo := repository.NewTaskRepository(db)
	eventRepo := repository.NewEventRepository(db)

	var priorityOracle oracle.Oracle
	if cfg.OracleEnabled() {
		llm, err := oracle.NewLLMOracle(cfg.OracleAPIKey, cfg.OracleBaseURL, cfg.OracleModel, cfg.OracleTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("oracle")
		}
		priorityOracle = llm
	} else {
		log.Warn().Msg("no oracle configured, ranking on stored scores only")
	}

	ranker := service.NewRanker(priorityOracle, log.With().Str("component", "ranker").Logger())
	planner := service.NewPlanner(cfg.Location, cfg.WindowStartMinutes, cfg.WindowEndMinutes)
	schedulerSvc := service.NewSchedulerService(taskRepo, eventRepo, ranker, planner,
		log.With().Str("component", "scheduler").Logger())

	if cfg.RescheduleInterval > 0 {
		cronSvc := service.NewCronService(cfg.Location)
		if _, err := cronSvc.ScheduleInterval(cfg.RescheduleInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			if _, err := schedulerSvc.Reschedule(jobCtx); err != nil {
				log.Error().Err(err).Msg("periodic reschedule")
			}
		}); err != nil {
			log.Fatal().Err(err).Msg("schedule re-plan job")
		}
		cronSvc.Start()
		defer cronSvc.Stop()
	}

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: server.New(schedulerSvc, log, cfg.Environment).Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", cfg.ServerAddr).Str("timezone", cfg.ScheduleTimezone).Msg("beacon scheduler started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("shutdown complete")
}
