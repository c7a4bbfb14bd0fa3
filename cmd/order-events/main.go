package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeorders/internal/messaging/kafka"
)

const brokersEnv = "STOREORDERS_KAFKA__BROKERS"

type options struct {
	brokers []string
	group   string
	topic   string
}

func parseOptions(args []string) (options, error) {
	fs := flag.NewFlagSet("order-events", flag.ContinueOnError)

	var (
		brokers string
		opts    options
	)
	fs.StringVar(&brokers, "brokers", os.Getenv(brokersEnv), "comma-separated kafka brokers")
	fs.StringVar(&opts.group, "group", "storeorders-events-tail", "consumer group id")
	fs.StringVar(&opts.topic, "topic", kafka.TopicOrderEvents, "topic with order lifecycle events")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	for _, broker := range strings.Split(brokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			opts.brokers = append(opts.brokers, broker)
		}
	}
	if len(opts.brokers) == 0 {
		return options{}, errors.New("-brokers (or " + brokersEnv + ") is required")
	}
	if strings.TrimSpace(opts.topic) == "" {
		return options{}, errors.New("-topic must not be empty")
	}
	return opts, nil
}

// eventLogger печатает каждое событие заказа. Нечитаемые сообщения пропускаются,
// чтобы не блокировать партицию.
func eventLogger(logger *log.Entry) kafka.MessageHandler {
	return func(_ context.Context, message *sarama.ConsumerMessage) error {
		event, err := kafka.ParseOrderEvent(message)
		if err != nil {
			logger.WithError(err).WithFields(log.Fields{
				"partition": message.Partition,
				"offset":    message.Offset,
			}).Warn("skip malformed event")
			return nil
		}

		logger.WithFields(log.Fields{
			"event_type":  event.EventType,
			"order_id":    event.OrderID,
			"owner_id":    event.OwnerID,
			"status":      event.Status,
			"occurred_at": event.OccurredAt,
			"partition":   message.Partition,
			"offset":      message.Offset,
		}).Info("order event")
		return nil
	}
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger := log.WithField("component", "order-events")

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		logger.WithError(err).Fatal("invalid arguments")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer, err := kafka.NewConsumer(opts.brokers, opts.group, []string{opts.topic}, eventLogger(logger),
		kafka.WithConsumerLogger(logger))
	if err != nil {
		logger.WithError(err).Fatal("failed to create consumer")
	}
	if err := consumer.Start(ctx); err != nil {
		logger.WithError(err).Fatal("failed to start consumer")
	}

	<-ctx.Done()
	if err := consumer.Stop(); err != nil {
		logger.WithError(err).Error("failed to stop consumer")
	}
}
