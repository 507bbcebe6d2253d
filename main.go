package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"transit/internal/app"
	"transit/internal/config"
)

func main() {
	log.Init(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	watermillLogger := watermill.NewStdLogger(false, false)

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	defer redisClient.Close()

	db, err := sqlx.Open("postgres", cfg.Postgres.URL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open postgres connection")
	}
	defer db.Close()

	a, err := app.NewApp(cfg, watermillLogger, redisClient, db)
	if err != nil {
		logrus.WithError(err).Fatal("failed to build app")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		logrus.WithError(err).Fatal("app stopped with error")
	}
}
