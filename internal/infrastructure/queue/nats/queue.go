package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/academic-standing/internal/core/domain"
	"github.com/kirillkom/academic-standing/internal/infrastructure/resilience"
)

const errorHeader = "Standing-Error"

// BatchHandler turns a request payload into a reply payload.
type BatchHandler func(ctx context.Context, payload []byte) ([]byte, error)

type Queue struct {
	conn           *nats.Conn
	batchSubject   string
	summarySubject string
	queueGroup     string
	executor       *resilience.Executor
}

type Options struct {
	BatchSubject         string
	SummarySubject       string
	QueueGroup           string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	queueGroup := options.QueueGroup
	if queueGroup == "" {
		queueGroup = "standing-workers"
	}

	conn, err := nats.Connect(
		url,
		nats.Name("academic-standing"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:           conn,
		batchSubject:   options.BatchSubject,
		summarySubject: options.SummarySubject,
		queueGroup:     queueGroup,
		executor:       options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishBatchSummary(ctx context.Context, summary domain.BatchSummary) error {
	if q.summarySubject == "" {
		return nil
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal batch summary: %w", err)
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.summarySubject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish_summary", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// ServeBatches answers batch requests until ctx is done. Handler errors are
// returned to the requester in the Standing-Error header.
func (q *Queue) ServeBatches(ctx context.Context, handler BatchHandler) error {
	sub, err := q.conn.QueueSubscribe(q.batchSubject, q.queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		reply, handlerErr := handler(handlerCtx, msg.Data)
		if msg.Reply == "" {
			if handlerErr != nil {
				slog.Error("standing_batch_failed", "subject", msg.Subject, "error", handlerErr)
			}
			return
		}
		if err := msg.RespondMsg(buildReply(msg.Reply, reply, handlerErr)); err != nil {
			slog.Error("standing_batch_reply_failed", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func buildReply(subject string, payload []byte, handlerErr error) *nats.Msg {
	reply := nats.NewMsg(subject)
	if handlerErr != nil {
		reply.Header.Set(errorHeader, handlerErr.Error())
		reply.Data, _ = json.Marshal(map[string]string{"error": handlerErr.Error()})
		return reply
	}
	reply.Data = payload
	return reply
}
