package syncer

import (
	"context"
	"sync"
	"time"

	"quipcup/store"
)

type fakeCache struct {
	mu        sync.Mutex
	raw       []byte
	updatedAt time.Time
	saves     int
	err       error
}

func (f *fakeCache) Load(ctx context.Context) ([]byte, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, time.Time{}, f.err
	}
	if f.raw == nil {
		return nil, time.Time{}, store.ErrNotFound
	}
	return f.raw, f.updatedAt, nil
}

func (f *fakeCache) Save(ctx context.Context, raw []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.err != nil {
		return f.err
	}
	f.raw = raw
	f.updatedAt = f.updatedAt.Add(time.Second)
	return nil
}

type fakeRemote struct {
	mu      sync.Mutex
	raw     []byte
	writes  [][]byte
	readErr error
	err     error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeRemote) Read(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	if f.raw == nil {
		return nil, store.ErrNotFound
	}
	return f.raw, nil
}

func (f *fakeRemote) Write(ctx context.Context, raw []byte) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, raw)
	if f.err != nil {
		return f.err
	}
	f.raw = raw
	return nil
}

func (f *fakeRemote) written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.writes...)
}
