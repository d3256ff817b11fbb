package nats

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/kirillkom/docuscan/internal/core/domain"
	"github.com/kirillkom/docuscan/internal/infrastructure/resilience"
)

const (
	defaultQueueGroup = "classifiers"
	eventHeader       = "Docuscan-Event"
	eventIngested     = "document.ingested"
	eventIndexed      = "document.indexed"
	drainFlushTimeout = 5 * time.Second
)

// Queue carries document ids from the API to the workers over core NATS.
// Workers share a queue group, so each upload is classified once.
type Queue struct {
	conn       *nats.Conn
	subject    string
	queueGroup string
	executor   *resilience.Executor
	logger     *zap.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	QueueGroup           string
	ResilienceExecutor   *resilience.Executor
	Logger               *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 2 * time.Second
	}
	if o.ReconnectWait <= 0 {
		o.ReconnectWait = 2 * time.Second
	}
	if o.MaxReconnects <= 0 {
		o.MaxReconnects = 60
	}
	if o.RetryOnFailedConnect == nil {
		retry := true
		o.RetryOnFailedConnect = &retry
	}
	if strings.TrimSpace(o.QueueGroup) == "" {
		o.QueueGroup = defaultQueueGroup
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	opts := options.withDefaults()
	logger := opts.Logger

	conn, err := nats.Connect(
		url,
		nats.Name("docuscan"),
		nats.Timeout(opts.ConnectTimeout),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.RetryOnFailedConnect(*opts.RetryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("nats_async_error", zap.String("subject", subject), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:       conn,
		subject:    subject,
		queueGroup: opts.QueueGroup,
		executor:   opts.ResilienceExecutor,
		logger:     logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

type ingestEvent struct {
	DocumentID  string    `json:"document_id"`
	PublishedAt time.Time `json:"published_at"`
}

func (q *Queue) PublishDocumentIngested(ctx context.Context, documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "publish ingest event", errors.New("document id is required"))
	}
	payload, err := json.Marshal(ingestEvent{DocumentID: documentID, PublishedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal ingest event: %w", err)
	}
	return q.publish(ctx, q.subject, eventIngested, payload)
}

func (q *Queue) publish(ctx context.Context, subject, event string, payload []byte) error {
	msg := nats.NewMsg(subject)
	msg.Header.Set(eventHeader, event)
	msg.Data = payload

	call := func(_ context.Context) error {
		if err := q.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("nats publish %s: %w", event, err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(err)
}

// decodeIngestEvent accepts the JSON envelope and, for messages published by
// older API builds, a bare document id.
func decodeIngestEvent(data []byte) (string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var event ingestEvent
		if err := json.Unmarshal(trimmed, &event); err != nil {
			return "", fmt.Errorf("decode ingest event: %w", err)
		}
		trimmed = []byte(strings.TrimSpace(event.DocumentID))
	}
	if len(trimmed) == 0 {
		return "", errors.New("decode ingest event: empty document id")
	}
	return string(trimmed), nil
}

// SubscribeDocumentIngested runs handler for every ingest event delivered to
// this member of the worker queue group, until ctx is done.
func (q *Queue) SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, q.queueGroup, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		documentID, err := decodeIngestEvent(msg.Data)
		if err != nil {
			q.logger.Error("ingest_event_decode_failed", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, documentID); err != nil {
			level := zap.ErrorLevel
			if domain.IsKind(err, domain.ErrTemporary) {
				level = zap.WarnLevel
			}
			q.logger.Log(level, "worker_handler_failed",
				zap.String("document_id", documentID),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("nats queue subscribe %s: %w", q.subject, err)
	}
	q.logger.Info("nats_subscribed", zap.String("subject", q.subject), zap.String("queue_group", q.queueGroup))
	return q.serve(ctx, sub)
}

// serve blocks until ctx is done and then drains sub.
func (q *Queue) serve(ctx context.Context, sub *nats.Subscription) error {
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain %s: %w", sub.Subject, err)
	}
	if err := q.conn.FlushTimeout(drainFlushTimeout); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
