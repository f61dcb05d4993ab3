package records

import (
	"context"

	"plazabi/internal/amqp"
)

// Blobs is the persistence surface the store needs. Both the SQLite
// repository and the in-memory store satisfy it.
type Blobs interface {
	GetBlob(ctx context.Context, key string) (string, error)
	PutBlob(ctx context.Context, key, value string) error
}

// Publisher emits record change events for downstream consumers.
type Publisher interface {
	PublishRecordEvent(ctx context.Context, msg *amqp.RecordEventMessage) error
}
