package syncer

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"
)

const broadcastTopic = "tournament.document"

// Broadcast fans documents out to every reader in the same process. It
// reaches local readers even when the remote store is down.
type Broadcast struct {
	pubsub *gochannel.GoChannel
}

func NewBroadcast(logger *zap.Logger) *Broadcast {
	return &Broadcast{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, NewZapAdapter(logger)),
	}
}

func (b *Broadcast) Publish(raw []byte) error {
	return b.pubsub.Publish(broadcastTopic, message.NewMessage(watermill.NewUUID(), raw))
}

// Subscribe delivers payloads to fn until ctx ends.
func (b *Broadcast) Subscribe(ctx context.Context, fn func([]byte)) error {
	messages, err := b.pubsub.Subscribe(ctx, broadcastTopic)
	if err != nil {
		return err
	}
	go func() {
		for msg := range messages {
			fn(msg.Payload)
			msg.Ack()
		}
	}()
	return nil
}

func (b *Broadcast) Close() error {
	return b.pubsub.Close()
}
