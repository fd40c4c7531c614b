package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/tapvote/config"
	"github.com/oksasatya/tapvote/internal/application"
	"github.com/oksasatya/tapvote/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-poll-indexer", cfg.Env)

	if cfg.RabbitMQURL == "" || cfg.RabbitMQPollEventsQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if len(cfg.ESAddrs()) == 0 {
		logger.Fatal("Elasticsearch not configured")
	}

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.Fatalf("elasticsearch: %v", err)
	}
	index := application.NewPollIndex(es, cfg.ESPollsIndex, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := index.EnsureIndex(ctx); err != nil {
		logger.Fatalf("ensure index: %v", err)
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQPollEventsQueue, 16)
	if err != nil {
		logger.Fatalf("amqp: %v", err)
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries()
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			c, cancelMsg := context.WithTimeout(ctx, 15*time.Second)
			err := index.HandleMessage(c, msg.Body)
			cancelMsg()
			switch {
			case errors.Is(err, application.ErrBadEvent):
				logger.WithError(err).Warn("dropping bad poll event")
				_ = msg.Nack(false, false)
			case err != nil:
				logger.WithError(err).Error("index poll failed; requeueing")
				_ = msg.Nack(false, true)
			default:
				_ = msg.Ack(false)
			}
		}
	}()

	logger.Infof("poll indexer listening on queue=%s index=%s", cfg.RabbitMQPollEventsQueue, cfg.ESPollsIndex)
	select {
	case <-stop:
	case <-done:
		logger.Warn("delivery channel closed")
	}
	logger.Info("shutting down...")
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
