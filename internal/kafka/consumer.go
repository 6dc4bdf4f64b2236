package kafka

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/nguyentranbao-ct/product-hub/internal/config"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/nguyentranbao-ct/product-hub/internal/usecase"
	"github.com/nguyentranbao-ct/product-hub/pkg/logger"
	log "github.com/nguyentranbao-ct/product-hub/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/product-hub/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const consumeTimeout = 30 * time.Second

// syndicationHandler implements sarama.ConsumerGroupHandler for product events.
type syndicationHandler struct {
	groupID        string
	metrics        *prometheus.HistogramVec
	consumeTimeout time.Duration
	syndication    usecase.SyndicationUsecase
}

func newSyndicationHandler(groupID string, syndication usecase.SyndicationUsecase) (*syndicationHandler, error) {
	metrics, err := util.GetHistogramVec("kafka_messages_consumed", "status", "topic", "group")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &syndicationHandler{
		groupID:        groupID,
		metrics:        metrics,
		consumeTimeout: consumeTimeout,
		syndication:    syndication,
	}, nil
}

// StartSyndication consumes product events and pushes them to partners.
func StartSyndication(
	lc fx.Lifecycle,
	conf *config.Config,
	syndication usecase.SyndicationUsecase,
) error {
	if !conf.Kafka.Enabled {
		log.Warnf(context.Background(), "Kafka consumer is disabled in configuration")
		return nil
	}

	handler, err := newSyndicationHandler(conf.Kafka.GroupID, syndication)
	if err != nil {
		return err
	}
	group, err := sarama.NewConsumerGroup(conf.Kafka.Brokers, conf.Kafka.GroupID, newSaramaConfig(conf.Kafka))
	if err != nil {
		return fmt.Errorf("new consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				consumeLoop(ctx, group, []string{conf.Kafka.Topic}, handler)
			}()
			go func() {
				for err := range group.Errors() {
					log.Errorw(ctx, "consumer group error", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			err := group.Close()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return err
		},
	})
	return nil
}

// consumeLoop rejoins the group after every rebalance until ctx is done.
func consumeLoop(ctx context.Context, group sarama.ConsumerGroup, topics []string, handler sarama.ConsumerGroupHandler) {
	log.Infof(ctx, "Starting Kafka consumer for topics: %v", topics)
	for ctx.Err() == nil {
		err := group.Consume(ctx, topics, handler)
		switch {
		case err == nil:
		case errors.Is(err, sarama.ErrClosedConsumerGroup):
			return
		default:
			log.Errorw(ctx, "consume failed", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
		}
	}
}

func (h *syndicationHandler) Setup(session sarama.ConsumerGroupSession) error {
	log.Infow(session.Context(), "consumer group session started",
		"member_id", session.MemberID(),
		"claims", session.Claims(),
	)
	return nil
}

func (h *syndicationHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *syndicationHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.processMessage(ctx, msg)
			session.MarkMessage(msg, "")
		case <-ctx.Done():
			return nil
		}
	}
}

func (h *syndicationHandler) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) {
	lagMs := time.Since(msg.Timestamp).Milliseconds()

	duration, err := h.handle(ctx, msg)

	code := getCode(err)
	content := "success"
	if err != nil {
		content = err.Error()
	}

	log.Logw(ctx, getLogLevel(code), content,
		"code", code,
		"duration_ms", duration.Milliseconds(),
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"lag_ms", lagMs,
		"key", string(msg.Key),
		"value", json.RawMessage(msg.Value),
	)

	h.metrics.
		WithLabelValues(code.String(), msg.Topic, h.groupID).
		Observe(duration.Seconds())
}

func (h *syndicationHandler) handle(msgCtx context.Context, msg *sarama.ConsumerMessage) (duration time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			length := runtime.Stack(stack, false)
			err = fmt.Errorf("PANIC RECOVER: %+v / %s", r, string(stack[:length]))
		}
	}()

	start := time.Now()
	defer func() {
		duration = time.Since(start)
	}()

	var event models.ProductEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "unmarshal product event: %v", err)
	}
	if event.Pattern != models.PatternProductCreated {
		log.Infow(msgCtx, "Ignoring event", "pattern", event.Pattern)
		return 0, nil
	}
	if event.Data.ID == "" {
		return 0, status.Error(codes.InvalidArgument, "product event without id")
	}

	ctx, cancel := context.WithTimeout(log.With(msgCtx, "product_id", event.Data.ID), h.consumeTimeout)
	defer cancel()

	results, err := h.syndication.Syndicate(ctx, event)
	failed := 0
	for _, r := range results {
		if r.Status == models.SyndicationFailed {
			failed++
		}
	}
	log.Infow(ctx, "product syndicated", "partners", len(results), "failed", failed)
	return 0, err
}

func getCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return codes.DeadlineExceeded
	}
	if errors.Is(err, context.Canceled) {
		return codes.Canceled
	}
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	return codes.Unknown
}

func getLogLevel(code codes.Code) logger.Level {
	switch code {
	case codes.OK:
		return logger.InfoLevel
	case codes.Canceled,
		codes.InvalidArgument,
		codes.NotFound,
		codes.AlreadyExists,
		codes.PermissionDenied,
		codes.Unauthenticated,
		codes.ResourceExhausted,
		codes.FailedPrecondition,
		codes.Aborted,
		codes.Unimplemented,
		codes.OutOfRange:
		return logger.WarnLevel
	default:
		return logger.ErrorLevel
	}
}
