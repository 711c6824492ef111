package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/nguyentranbao-ct/chat-engine/internal/config"
	"github.com/nguyentranbao-ct/chat-engine/pkg/logger"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/chat-engine/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Consumer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// reader is the subset of *kafka.Reader the consumer uses.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaConsumer struct {
	reader         reader
	groupID        string
	metrics        *prometheus.HistogramVec
	consumeTimeout time.Duration
	handler        EventHandler
	done           chan struct{}
	workerPool     *workerpool.WorkerPool
}

// NewConsumer subscribes to the identity topics. Messages are handled on a
// worker pool and committed once handled, whatever the outcome.
func NewConsumer(conf *config.Config, handler EventHandler) (Consumer, error) {
	cfg := conf.Kafka
	if !cfg.Enabled {
		return &noopConsumer{}, nil
	}

	metrics, err := util.GetHistogramVec("kafka_messages_consumed", "status", "topic", "group")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: []string{cfg.ProfileTopic, cfg.RelationTopic},
		StartOffset: kafka.LastOffset,
	})
	return newConsumer(r, cfg.GroupID, cfg.Workers, metrics, handler), nil
}

func newConsumer(r reader, groupID string, workers int, metrics *prometheus.HistogramVec, handler EventHandler) *kafkaConsumer {
	if workers <= 0 {
		workers = 1
	}
	return &kafkaConsumer{
		reader:         r,
		groupID:        groupID,
		metrics:        metrics,
		consumeTimeout: 30 * time.Second,
		handler:        handler,
		done:           make(chan struct{}),
		workerPool:     workerpool.New(workers),
	}
}

// Start blocks until ctx ends or Stop is called.
func (c *kafkaConsumer) Start(ctx context.Context) error {
	log.Infof(ctx, "Starting identity event consumer, group %s", c.groupID)
	for ctx.Err() == nil {
		select {
		case <-c.done:
			return nil
		default:
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			log.Errorw(ctx, "Error fetching message", "error", err)
			continue
		}

		c.workerPool.Submit(func() {
			c.processMessage(ctx, msg)
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				log.Errorw(ctx, "Failed to commit message", "error", err, "topic", msg.Topic, "offset", msg.Offset)
			}
		})
	}
	return nil
}

func (c *kafkaConsumer) Stop(ctx context.Context) error {
	log.Infof(ctx, "Stopping identity event consumer")
	close(c.done)
	c.workerPool.StopWait()
	return c.reader.Close()
}

func (c *kafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) {
	lagMs := time.Since(msg.Time).Milliseconds()

	duration, err := c.handle(ctx, msg)

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

	c.metrics.
		WithLabelValues(code.String(), msg.Topic, c.groupID).
		Observe(duration.Seconds())
}

func (c *kafkaConsumer) handle(msgCtx context.Context, msg kafka.Message) (duration time.Duration, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PANIC RECOVER: %+v", r)
		}
		duration = time.Since(start)
	}()

	ctx, cancel := context.WithTimeout(msgCtx, c.consumeTimeout)
	defer cancel()
	return 0, c.handler.Handle(ctx, msg)
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
	return status.Code(err)
}

type noopConsumer struct{}

func (n *noopConsumer) Start(ctx context.Context) error {
	log.Infof(ctx, "Kafka consumer is disabled")
	return nil
}

func (n *noopConsumer) Stop(ctx context.Context) error {
	return nil
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
