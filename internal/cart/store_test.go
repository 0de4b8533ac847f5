package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// flakyStorage wraps a memory store and can be told to fail reads or writes.
type flakyStorage struct {
	mu       sync.RWMutex
	inner    *storage.MemoryStore
	getErr   error
	setErr   error
	setCalls int
}

func newFlakyStorage() *flakyStorage {
	return &flakyStorage{inner: storage.NewMemoryStore()}
}

func (f *flakyStorage) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.inner.Get(ctx, key)
}

func (f *flakyStorage) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	return f.inner.Set(ctx, key, value)
}

func (f *flakyStorage) failWrites(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setErr = err
}

func snapshot(t *testing.T, kv storage.Store) domain.CartState {
	t.Helper()
	data, err := kv.Get(context.Background(), StorageKey)
	require.NoError(t, err)
	var state domain.CartState
	require.NoError(t, json.Unmarshal(data, &state))
	return state
}

func TestNewStore_EmptyWhenNothingStored(t *testing.T) {
	s := NewStore(context.Background(), storage.NewMemoryStore())

	assert.True(t, s.State().IsEmpty())
	assert.Equal(t, 0, s.Selectors().ItemCount)
}

func TestNewStore_LoadsSnapshot(t *testing.T) {
	kv := storage.NewMemoryStore()
	raw := `{"items":[{"id":"1","title":"A","price":1999,"discountedPrice":1499,"imageUrl":"a.jpg","qty":2},{"id":"2","title":"B","price":100,"discountedPrice":100,"qty":1}]}`
	require.NoError(t, kv.Set(context.Background(), StorageKey, []byte(raw)))

	s := NewStore(context.Background(), kv)

	state := s.State()
	require.Len(t, state.Items, 2)
	assert.Equal(t, "a.jpg", state.Items[0].ImageURL)
	assert.Equal(t, domain.CartSelectors{ItemCount: 3, Subtotal: 3098}, s.Selectors())
}

func TestNewStore_InvalidSnapshots(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{"items":[`},
		{"not an object", `"hello"`},
		{"missing items", `{}`},
		{"wrong item type", `{"items":[{"id":1}]}`},
		{"empty id", `{"items":[{"id":"","title":"A","price":1,"discountedPrice":1,"qty":1}]}`},
		{"negative qty", `{"items":[{"id":"1","title":"A","price":1,"discountedPrice":1,"qty":-2}]}`},
		{"duplicate ids", `{"items":[{"id":"1","qty":1},{"id":"1","qty":2}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			kv := storage.NewMemoryStore()
			require.NoError(t, kv.Set(context.Background(), StorageKey, []byte(tt.raw)))

			var s *Store
			require.NotPanics(t, func() {
				s = NewStore(context.Background(), kv, WithLogger(zap.New(core)))
			})

			assert.Equal(t, 0, s.Selectors().ItemCount)
			assert.Equal(t, 1, logs.FilterMessage("cart snapshot invalid, starting empty").Len())
		})
	}
}

func TestNewStore_ReadFailure(t *testing.T) {
	kv := newFlakyStorage()
	kv.getErr = errors.New("disk on fire")

	s := NewStore(context.Background(), kv)

	assert.True(t, s.State().IsEmpty())
}

func TestStore_PersistsEveryTransition(t *testing.T) {
	kv := newFlakyStorage()
	s := NewStore(context.Background(), kv)
	ctx := context.Background()

	s.Add(ctx, item("1", 1))
	assert.Equal(t, s.State(), snapshot(t, kv))

	s.Add(ctx, item("2", 2))
	s.SetQty(ctx, "2", 5)
	assert.Equal(t, s.State(), snapshot(t, kv))

	s.Remove(ctx, "1")
	assert.Equal(t, s.State(), snapshot(t, kv))

	s.Clear(ctx)
	assert.Equal(t, domain.EmptyCart(), snapshot(t, kv))
	assert.Equal(t, 5, kv.setCalls)
}

func TestStore_RoundTripAcrossRestart(t *testing.T) {
	kv := storage.NewMemoryStore()
	ctx := context.Background()

	first := NewStore(ctx, kv)
	first.Add(ctx, item("1", 1))
	first.Add(ctx, item("1", 1))

	second := NewStore(ctx, kv)
	assert.Equal(t, first.State(), second.State())
	assert.Equal(t, domain.CartSelectors{ItemCount: 2, Subtotal: 2998}, second.Selectors())
}

func TestStore_WriteFailureIsSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	kv := newFlakyStorage()
	s := NewStore(context.Background(), kv, WithLogger(zap.New(core)))
	ctx := context.Background()

	s.Add(ctx, item("1", 1))
	kv.failWrites(errors.New("quota exceeded"))

	var state domain.CartState
	require.NotPanics(t, func() {
		state = s.Add(ctx, item("1", 2))
	})

	assert.Equal(t, 3, state.Items[0].Qty)
	assert.Equal(t, 3, s.Selectors().ItemCount)
	assert.Equal(t, 1, logs.FilterMessage("cart snapshot write failed").Len())

	// the last good snapshot is still on disk
	kv.failWrites(nil)
	persisted := snapshot(t, kv)
	assert.Equal(t, 1, persisted.Items[0].Qty)
}

func TestStore_CustomKey(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := NewStore(context.Background(), kv, WithKey("cart:alt"))

	s.Add(context.Background(), item("1", 1))

	_, err := kv.Get(context.Background(), "cart:alt")
	assert.NoError(t, err)
	_, err = kv.Get(context.Background(), StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_ConcurrentAdds(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := NewStore(context.Background(), kv)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(context.Background(), item("1", 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Selectors().ItemCount)
	assert.Equal(t, s.State(), snapshot(t, kv))
}

// gatedStorage blocks the first write until release is closed.
type gatedStorage struct {
	*storage.MemoryStore
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedStorage) Set(ctx context.Context, key string, value []byte) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.started)
		<-g.release
	}
	return g.MemoryStore.Set(ctx, key, value)
}

func TestStore_SlowWriteDoesNotHoldTransitions(t *testing.T) {
	kv := &gatedStorage{
		MemoryStore: storage.NewMemoryStore(),
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	s := NewStore(context.Background(), kv)
	ctx := context.Background()

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		s.Add(ctx, item("1", 1))
	}()
	<-kv.started

	assert.Equal(t, 1, s.Selectors().ItemCount)

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		s.Add(ctx, item("2", 1))
	}()
	require.Eventually(t, func() bool {
		return s.Selectors().ItemCount == 2
	}, time.Second, 5*time.Millisecond)

	close(kv.release)
	<-firstDone
	<-secondDone

	assert.Equal(t, s.State(), snapshot(t, kv))
}

func TestStore_Drain(t *testing.T) {
	kv := newFlakyStorage()
	s := NewStore(context.Background(), kv)
	ctx := context.Background()

	s.Add(ctx, item("1", 2))
	s.Add(ctx, item("2", 1))

	drained := s.Drain(ctx)

	require.Len(t, drained.Items, 2)
	assert.Equal(t, 3, drained.Selectors().ItemCount)
	assert.True(t, s.State().IsEmpty())
	assert.Equal(t, domain.EmptyCart(), snapshot(t, kv))
}

func TestStore_DrainEmptyCartSkipsWrite(t *testing.T) {
	kv := newFlakyStorage()
	s := NewStore(context.Background(), kv)

	drained := s.Drain(context.Background())

	assert.True(t, drained.IsEmpty())
	assert.Equal(t, 0, kv.setCalls)
}

type hangingStorage struct{ *storage.MemoryStore }

func (hangingStorage) Set(ctx context.Context, _ string, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestStore_WriteTimeout(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := NewStore(context.Background(), hangingStorage{storage.NewMemoryStore()},
		WithLogger(zap.New(core)),
		WithWriteTimeout(20*time.Millisecond),
	)

	start := time.Now()
	state := s.Add(context.Background(), item("1", 1))

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, state.Selectors().ItemCount)
	assert.Equal(t, 1, logs.FilterMessage("cart snapshot write failed").Len())

	assert.Equal(t, 2*time.Second, NewStore(context.Background(), storage.NewMemoryStore(), WithWriteTimeout(0)).writeTimeout)
}

func TestClampQty(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{3, 3},
		{int64(4), 4},
		{2.9, 2},
		{-1, 0},
		{json.Number("7"), 7},
		{json.Number("abc"), 0},
		{"12", 12},
		{" 5 ", 5},
		{"NaN", 0},
		{"hello", 0},
		{nil, 0},
		{true, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampQty(tt.in), "input %#v", tt.in)
	}
}
