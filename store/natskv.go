package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"quipcup/models"
)

// NATSRemote keeps the document in a JetStream key-value bucket. Watchers
// on the key see every put.
type NATSRemote struct {
	kv  jetstream.KeyValue
	key string
}

func NewNATSRemote(kv jetstream.KeyValue) *NATSRemote {
	return &NATSRemote{kv: kv, key: models.StorageKey}
}

func (n *NATSRemote) KV() jetstream.KeyValue {
	return n.kv
}

func (n *NATSRemote) Key() string {
	return n.key
}

func (n *NATSRemote) Read(ctx context.Context) ([]byte, error) {
	entry, err := n.kv.Get(ctx, n.key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %s: %w", n.key, err)
	}
	return Unwrap(entry.Value()), nil
}

func (n *NATSRemote) Write(ctx context.Context, raw []byte) error {
	payload, err := Wrap(raw)
	if err != nil {
		return err
	}
	if _, err := n.kv.Put(ctx, n.key, payload); err != nil {
		return fmt.Errorf("kv put %s: %w", n.key, err)
	}
	return nil
}
