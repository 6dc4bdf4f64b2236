package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/nguyentranbao-ct/product-hub/internal/config"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/nguyentranbao-ct/product-hub/internal/usecase"
	log "github.com/nguyentranbao-ct/product-hub/pkg/logger/logctx"
	"go.uber.org/fx"
)

type syncPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewPublisher returns a sarama backed publisher, or a no-op one when kafka
// is disabled.
func NewPublisher(lc fx.Lifecycle, cfg *config.Config) (usecase.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return noopPublisher{}, nil
	}

	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, newSaramaConfig(cfg.Kafka))
	if err != nil {
		return nil, fmt.Errorf("new sync producer: %w", err)
	}
	lc.Append(fx.StopHook(producer.Close))

	return newSyncPublisher(producer, cfg.Kafka.Topic), nil
}

func newSyncPublisher(producer sarama.SyncProducer, topic string) *syncPublisher {
	return &syncPublisher{producer: producer, topic: topic}
}

func (p *syncPublisher) PublishProductCreated(ctx context.Context, event models.ProductEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Data.ID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("send %s: %w", event.Pattern, err)
	}

	log.Debugw(ctx, "event published",
		"pattern", event.Pattern,
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

type noopPublisher struct{}

func (noopPublisher) PublishProductCreated(ctx context.Context, event models.ProductEvent) error {
	log.Debugw(ctx, "kafka disabled, event dropped", "pattern", event.Pattern, "product_id", event.Data.ID)
	return nil
}

func newSaramaConfig(cfg config.KafkaConfig) *sarama.Config {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Version = sarama.V2_8_0_0

	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3

	sc.Consumer.Return.Errors = true
	sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{
		sarama.NewBalanceStrategyRoundRobin(),
	}
	return sc
}
