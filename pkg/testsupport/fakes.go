package testsupport

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/goliatone/go-tiered-cache/cache"
)

// MemoryStore is an in-memory cache.Store keyed by auto-incremented int64 ids.
// It records every call and can inject failures or block reads.
type MemoryStore[V any] struct {
	mu     sync.Mutex
	items  map[int64]V
	nextID int64
	calls  map[string]int
	err    error

	gate    chan struct{}
	entered chan struct{}
}

var _ cache.Store[int64, struct{}] = (*MemoryStore[struct{}])(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore[V any]() *MemoryStore[V] {
	return &MemoryStore[V]{
		items: make(map[int64]V),
		calls: make(map[string]int),
	}
}

// Seed writes value directly, bypassing every cache tier.
func (s *MemoryStore[V]) Seed(id int64, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = value
	s.nextID = max(s.nextID, id)
}

// Value reads the stored value without recording a call.
func (s *MemoryStore[V]) Value(id int64) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	return v, ok
}

// FailWith makes every subsequent call return err. A nil err clears it.
func (s *MemoryStore[V]) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// BlockGets makes Get wait until release is called. entered receives one
// signal per blocked Get.
func (s *MemoryStore[V]) BlockGets() (entered <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gate = make(chan struct{})
	s.entered = make(chan struct{}, 64)

	gate := s.gate
	var once sync.Once
	return s.entered, func() { once.Do(func() { close(gate) }) }
}

// Calls returns how many times op was called.
func (s *MemoryStore[V]) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *MemoryStore[V]) begin(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.err
}

// Get implements cache.Store.
func (s *MemoryStore[V]) Get(ctx context.Context, id int64) (V, error) {
	var zero V

	err := s.begin("Get")

	s.mu.Lock()
	gate, entered := s.gate, s.entered
	s.mu.Unlock()

	if gate != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	if err != nil {
		return zero, err
	}

	if v, ok := s.Value(id); ok {
		return v, nil
	}
	return zero, cache.NotFound(id)
}

// Create implements cache.Store.
func (s *MemoryStore[V]) Create(_ context.Context, value V) (int64, error) {
	if err := s.begin("Create"); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.items[s.nextID] = value
	return s.nextID, nil
}

// Update implements cache.Store.
func (s *MemoryStore[V]) Update(_ context.Context, id int64, value V) error {
	if err := s.begin("Update"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return cache.NotFound(id)
	}
	s.items[id] = value
	return nil
}

// Upsert implements cache.Store.
func (s *MemoryStore[V]) Upsert(_ context.Context, id int64, value V) error {
	if err := s.begin("Upsert"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = value
	s.nextID = max(s.nextID, id)
	return nil
}

// Delete implements cache.Store.
func (s *MemoryStore[V]) Delete(_ context.Context, id int64) error {
	if err := s.begin("Delete"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return cache.NotFound(id)
	}
	delete(s.items, id)
	return nil
}

// List implements cache.Store. The filter is ignored; values are ordered by id.
func (s *MemoryStore[V]) List(_ context.Context, _ cache.Predicate, offset, limit int) ([]V, error) {
	if err := s.begin("List"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := slices.Sorted(maps.Keys(s.items))
	if offset >= len(ids) {
		return []V{}, nil
	}
	ids = ids[max(offset, 0):]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	out := make([]V, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.items[id])
	}
	return out, nil
}

// MemoryRemote is an in-memory cache.RemoteCache with per-operation failure
// injection. Several orchestrators may share one instance.
type MemoryRemote struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	calls  map[string]int
	getErr error
	setErr error
	delErr error
}

var _ cache.RemoteCache = (*MemoryRemote)(nil)

// NewMemoryRemote returns an empty remote tier.
func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{
		data:  make(map[string][]byte),
		ttls:  make(map[string]time.Duration),
		calls: make(map[string]int),
	}
}

// Raw returns the bytes stored under key.
func (r *MemoryRemote) Raw(key string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data[key]
	return v, ok
}

// TTL returns the expiration last passed for key.
func (r *MemoryRemote) TTL(key string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttls[key]
}

// SeedRaw stores bytes directly, bypassing any orchestrator.
func (r *MemoryRemote) SeedRaw(key string, value []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = value
}

// FailGets makes Get return err. A nil err clears it.
func (r *MemoryRemote) FailGets(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getErr = err
}

// FailSets makes Set return err. A nil err clears it.
func (r *MemoryRemote) FailSets(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setErr = err
}

// FailDeletes makes Delete return err. A nil err clears it.
func (r *MemoryRemote) FailDeletes(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delErr = err
}

// Calls returns how many times op was called.
func (r *MemoryRemote) Calls(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

// Get implements cache.RemoteCache.
func (r *MemoryRemote) Get(_ context.Context, key string) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Get"]++

	if r.getErr != nil {
		return nil, false, cache.CacheUnavailable("get", r.getErr)
	}
	v, ok := r.data[key]
	return v, ok, nil
}

// Set implements cache.RemoteCache.
func (r *MemoryRemote) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Set"]++

	if r.setErr != nil {
		return cache.CacheUnavailable("set", r.setErr)
	}
	r.data[key] = slices.Clone(value)
	r.ttls[key] = ttl
	return nil
}

// Delete implements cache.RemoteCache.
func (r *MemoryRemote) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Delete"]++

	if r.delErr != nil {
		return cache.CacheUnavailable("delete", r.delErr)
	}
	delete(r.data, key)
	delete(r.ttls, key)
	return nil
}
