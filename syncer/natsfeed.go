package syncer

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"quipcup/store"
)

// NATSSource watches the document key in a JetStream bucket. The watcher
// replays the latest value on open, which covers updates missed while
// disconnected.
type NATSSource struct {
	conn *nats.Conn
	kv   jetstream.KeyValue
	key  string
}

// NewNATSSource builds a source; conn may be nil, in which case the
// heartbeat always succeeds.
func NewNATSSource(conn *nats.Conn, remote *store.NATSRemote) *NATSSource {
	return &NATSSource{conn: conn, kv: remote.KV(), key: remote.Key()}
}

func (s *NATSSource) Name() string { return "nats" }

func (s *NATSSource) Open(ctx context.Context) (Stream, error) {
	w, err := s.kv.Watch(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", s.key, err)
	}
	return &natsStream{w: w, conn: s.conn}, nil
}

type natsStream struct {
	w    jetstream.KeyWatcher
	conn *nats.Conn
}

func (n *natsStream) Recv(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case entry, ok := <-n.w.Updates():
			if !ok {
				return nil, ErrStreamClosed
			}
			// nil marks the end of the initial replay
			if entry == nil || entry.Operation() != jetstream.KeyValuePut {
				continue
			}
			return store.Unwrap(entry.Value()), nil
		}
	}
}

func (n *natsStream) Ping(ctx context.Context) error {
	if n.conn == nil {
		return nil
	}
	return n.conn.FlushWithContext(ctx)
}

func (n *natsStream) Close() error {
	return n.w.Stop()
}
