package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"quipcup/models"
	"quipcup/store"
)

// Origin says which layer was the top one when Load built the document.
type Origin string

const (
	FromRemote   Origin = "remote"
	FromCache    Origin = "cache"
	FromDefaults Origin = "defaults"
)

// Snapshot is the starting document. CacheUpdatedAt is the cache row's
// stamp when it was read, zero when the cache had nothing.
type Snapshot struct {
	Doc            models.Tournament
	Origin         Origin
	CacheUpdatedAt time.Time
}

// Load layers the starting document: the local cache over defaults, then
// the remote store over that. A layer that cannot be read is skipped.
func Load(ctx context.Context, remote store.Remote, cache store.Cache, logger *zap.Logger) Snapshot {
	snap := Snapshot{Origin: FromDefaults}
	tree := store.DefaultTree()

	if cache != nil {
		raw, updatedAt, err := cache.Load(ctx)
		if err == nil {
			snap.CacheUpdatedAt = updatedAt
		}
		if layer, ok := readLayer(logger.With(zap.String("origin", string(FromCache))), raw, err); ok {
			tree = store.Merge(tree, layer)
			snap.Origin = FromCache
		}
	}
	if remote != nil {
		raw, err := remote.Read(ctx)
		if layer, ok := readLayer(logger.With(zap.String("origin", string(FromRemote))), raw, err); ok {
			tree = store.Merge(tree, layer)
			snap.Origin = FromRemote
		}
	}

	doc, err := store.FromTree(tree)
	if err != nil {
		logger.Warn("stored document unreadable, using defaults", zap.Error(err))
		return Snapshot{Doc: models.NewTournament(), Origin: FromDefaults, CacheUpdatedAt: snap.CacheUpdatedAt}
	}
	snap.Doc = doc
	return snap
}

func readLayer(logger *zap.Logger, raw []byte, err error) (map[string]any, bool) {
	if errors.Is(err, store.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		logger.Warn("document source unavailable", zap.Error(err))
		return nil, false
	}
	var layer map[string]any
	if err := json.Unmarshal(raw, &layer); err != nil || layer == nil {
		logger.Warn("stored document unreadable", zap.Error(err))
		return nil, false
	}
	return layer, true
}

// loadTimeout bounds startup reads so an unreachable store cannot stall boot.
const loadTimeout = 5 * time.Second

// LoadWithTimeout is Load bounded by a short deadline.
func LoadWithTimeout(ctx context.Context, remote store.Remote, cache store.Cache, logger *zap.Logger) Snapshot {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	return Load(ctx, remote, cache, logger)
}
