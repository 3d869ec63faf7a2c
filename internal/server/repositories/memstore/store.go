// Package memstore is the shared state behind the in-memory repositories.
// Transactions are serialised and a failed one restores the snapshot taken
// when it began. Reads and writes outside a transaction wait for the running
// one, so uncommitted state is never visible to them.
package memstore

import (
	"context"
	"maps"
	"sync"
	"time"
)

// Store holds all in-memory tables.
type Store struct {
	txMu  sync.Mutex
	mu    sync.RWMutex
	data  *Data
	clock func() time.Time
}

type txKey struct{}

func New() *Store {
	return &Store{data: newData(), clock: time.Now}
}

// SetClock replaces the time source used for CreatedAt stamps.
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

// View runs fn with read access to the tables. fn must not retain d.
func (s *Store) View(ctx context.Context, fn func(d *Data)) {
	if !inTx(ctx, s) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

// Update runs fn with write access. Outside WithTx the call is serialised
// against running transactions so a rollback never discards it.
func (s *Store) Update(ctx context.Context, fn func(d *Data, now time.Time) error) error {
	if !inTx(ctx, s) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data, s.data.stamp(s.clock()))
}

// WithTx runs fn as one atomic unit. Nested calls join the outer unit.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx, s) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

func (s *Store) restore(d *Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = d
}

func inTx(ctx context.Context, s *Store) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (d *Data) clone() *Data {
	return &Data{
		Users:         maps.Clone(d.Users),
		Transactions:  maps.Clone(d.Transactions),
		Products:      maps.Clone(d.Products),
		RefreshTokens: maps.Clone(d.RefreshTokens),
		lastStamp:     d.lastStamp,
	}
}

// stamp returns a strictly increasing timestamp so insertion order
// survives equal clock readings.
func (d *Data) stamp(now time.Time) time.Time {
	if !now.After(d.lastStamp) {
		now = d.lastStamp.Add(time.Nanosecond)
	}
	d.lastStamp = now
	return now
}
