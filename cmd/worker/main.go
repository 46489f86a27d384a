package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"marginalia/internal/queue"
	"marginalia/internal/setup"
	"marginalia/internal/storage"
	"marginalia/internal/util"
	"marginalia/pkg/ai"
	"marginalia/pkg/logger"
	"marginalia/pkg/logger/console"
)

// defaultMaxDeliveryRetries bounds how often a failed analysis job is
// requeued through the retry queue before it lands in the DLQ. A book whose
// payload cannot be processed after this many rounds will not recover on
// its own. Override with WORKER_MAX_RETRIES.
const defaultMaxDeliveryRetries = 10

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	// Init s3 client
	s3Client := storage.NewS3Client(ctx)

	generator := setup.BuildGenerator(ctx)

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queues := []string{queue.AnalyzeQueue}
	if err := queue.SetupQueues(ch, queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	logger.Info("Listening for messages")

	// Prefetch matches worker concurrency: each in-flight delivery has a
	// goroutine analyzing one book; within a book the run is sequential.
	concurrency := util.GetEnvInt("WORKER_CONCURRENCY", 1)
	maxRetries := util.GetEnvInt("WORKER_MAX_RETRIES", defaultMaxDeliveryRetries)
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(concurrency, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.AnalyzeQueue,
		queue.AnalyzeQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.AnalyzeQueue, "err", err)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for range concurrency {
		eg.Go(func() error {
			for {
				select {
				case <-egCtx.Done():
					return nil
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed")
						return nil
					}

					startTime := time.Now()
					logger.Info("Received message", "queue", queue.AnalyzeQueue)

					processingErr := queue.ProcessAnalyzeMessage(egCtx, s3Client, generator, string(msg.Body))
					if processingErr != nil {
						logger.Error("Error processing message", "queue", queue.AnalyzeQueue, "err", processingErr)
						handleProcessingError(consumerCh, msg, queue.AnalyzeQueue, maxRetries)
					} else {
						if err := msg.Ack(false); err != nil {
							logger.Error("Failed to ack message", "err", err)
						}
						logger.Info("Message processed successfully", "queue", queue.AnalyzeQueue)
					}

					if service, ok := generator.(*ai.Service); ok {
						stats := service.Tracker().Stats()
						logger.Info(
							"Cost stats",
							"daily_cost", stats.DailyCost,
							"total_cost", stats.TotalCost,
							"daily_requests", stats.DailyRequests,
							"remaining_budget", stats.RemainingDailyBudget,
						)
					}

					logger.Info("Processing time", "duration", time.Since(startTime).Round(time.Second).String())
					logger.Info("Waiting for next message")
				}
			}
		})
	}

	go func() {
		if err := eg.Wait(); err != nil {
			logger.Error("Worker pool stopped", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}

// handleProcessingError routes a failed analysis job. Until maxRetries
// deliveries it goes to the queue's retry companion, whose TTL dead-letters
// it back after a delay; past that it is parked in the DLQ for inspection.
// If neither publish succeeds the delivery is nacked back for redelivery.
func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string, maxRetries int) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	if retries >= maxRetries {
		dlqName := queueName + "_dlq"
		logger.Warn("Analysis job exhausted retries, parking in DLQ",
			"dlq", dlqName, "retries", retries)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to park job in DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = retries + 1

	logger.Info("Scheduling analysis job retry",
		"retry_queue", retryName, "attempt", retries+1, "max", maxRetries)
	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to schedule retry", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
