package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

// IndexPublisher hands index records from workers to the API process, which
// is the single writer of the on-disk search index.
type IndexPublisher struct {
	queue   *Queue
	subject string
}

func NewIndexPublisher(queue *Queue, subject string) *IndexPublisher {
	return &IndexPublisher{queue: queue, subject: subject}
}

func (p *IndexPublisher) Index(ctx context.Context, record domain.IndexRecord) error {
	if record.DocumentID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "publish index record", errors.New("document id is required"))
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal index record: %w", err)
	}
	return p.queue.publish(ctx, p.subject, eventIndexed, payload)
}

// SubscribeIndexRecords applies every published record until ctx is done.
// Each subscriber receives all records.
func (q *Queue) SubscribeIndexRecords(ctx context.Context, subject string, apply func(context.Context, domain.IndexRecord) error) error {
	sub, err := q.conn.Subscribe(subject, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		var record domain.IndexRecord
		if err := json.Unmarshal(msg.Data, &record); err != nil {
			q.logger.Error("index_record_decode_failed", zap.Error(err))
			return
		}
		if err := apply(ctx, record); err != nil {
			q.logger.Error("index_record_apply_failed",
				zap.String("document_id", record.DocumentID),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}
	return q.serve(ctx, sub)
}
