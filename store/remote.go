package store

import (
	"context"
	"encoding/json"
	"time"
)

// Remote is the shared key-value slot every viewer reads from.
type Remote interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, raw []byte) error
}

// Envelope wraps the document on the wire and in remote storage.
type Envelope struct {
	UpdatedAt time.Time       `json:"updatedAt"`
	Data      json.RawMessage `json:"data"`
}

func Wrap(raw []byte) ([]byte, error) {
	return json.Marshal(Envelope{UpdatedAt: time.Now().UTC(), Data: raw})
}

// Unwrap returns the document inside an envelope. Payloads without an
// envelope are returned as they are.
func Unwrap(payload []byte) []byte {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil || len(env.Data) == 0 || env.UpdatedAt.IsZero() {
		return payload
	}
	return env.Data
}
