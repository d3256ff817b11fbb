package nats

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

func TestDecodeIngestEvent(t *testing.T) {
	envelope, err := json.Marshal(ingestEvent{DocumentID: "doc-42"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr bool
	}{
		{name: "envelope", data: envelope, want: "doc-42"},
		{name: "bare id", data: []byte(" doc-7\n"), want: "doc-7"},
		{name: "empty", data: []byte("  "), wantErr: true},
		{name: "envelope without id", data: []byte(`{"published_at":"2024-01-02T03:04:05Z"}`), wantErr: true},
		{name: "broken json", data: []byte(`{"document_id":`), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeIngestEvent(tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	require.Equal(t, defaultQueueGroup, opts.QueueGroup)
	require.NotNil(t, opts.RetryOnFailedConnect)
	require.True(t, *opts.RetryOnFailedConnect)
	require.NotNil(t, opts.Logger)

	off := false
	opts = Options{QueueGroup: "tax-team", RetryOnFailedConnect: &off, MaxReconnects: 3}.withDefaults()
	require.Equal(t, "tax-team", opts.QueueGroup)
	require.False(t, *opts.RetryOnFailedConnect)
	require.Equal(t, 3, opts.MaxReconnects)
}

func TestPublishRejectsEmptyIDs(t *testing.T) {
	q := &Queue{subject: "documents.ingested"}
	require.ErrorIs(t, q.PublishDocumentIngested(context.Background(), " "), domain.ErrInvalidInput)

	publisher := NewIndexPublisher(q, "documents.indexed")
	require.ErrorIs(t, publisher.Index(context.Background(), domain.IndexRecord{}), domain.ErrInvalidInput)
}
