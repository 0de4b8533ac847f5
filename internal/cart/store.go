package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"go.uber.org/zap"
)

const StorageKey = "cart:v1"

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithKey overrides the storage slot the snapshot is kept under.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithWriteTimeout bounds each snapshot write. Non-positive values keep the
// default.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// Store owns the cart state and mirrors every transition to a key-value
// slot. Persistence problems are logged and never reach the caller.
//
// Transitions are applied under mu; snapshot writes happen under writeMu so
// a slow backend never holds up State or other transitions. seq orders the
// writes and a snapshot older than the last one written is skipped.
type Store struct {
	mu           sync.RWMutex
	state        domain.CartState
	seq          uint64
	writeMu      sync.Mutex
	written      uint64
	kv           storage.Store
	key          string
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewStore reads the persisted snapshot before returning. Anything other
// than a valid snapshot leaves the cart empty.
func NewStore(ctx context.Context, kv storage.Store, opts ...Option) *Store {
	s := &Store{
		kv:           kv,
		key:          StorageKey,
		writeTimeout: 2 * time.Second,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) domain.CartState {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.EmptyCart()
	}
	if err != nil {
		s.logger.Warn("cart snapshot read failed, starting empty", zap.String("key", s.key), zap.Error(err))
		return domain.EmptyCart()
	}

	state, err := decodeSnapshot(data)
	if err != nil {
		s.logger.Warn("cart snapshot invalid, starting empty", zap.String("key", s.key), zap.Error(err))
		return domain.EmptyCart()
	}
	return state
}

func decodeSnapshot(data []byte) (domain.CartState, error) {
	var state domain.CartState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.CartState{}, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	if state.Items == nil {
		return domain.CartState{}, errors.New("snapshot has no items")
	}

	seen := make(map[string]struct{}, len(state.Items))
	for _, it := range state.Items {
		if it.ID == "" {
			return domain.CartState{}, errors.New("item without id")
		}
		if it.Qty < 0 || it.Price < 0 || it.DiscountedPrice < 0 {
			return domain.CartState{}, fmt.Errorf("item %q has negative values", it.ID)
		}
		if _, dup := seen[it.ID]; dup {
			return domain.CartState{}, fmt.Errorf("duplicate item %q", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return state, nil
}

// Dispatch applies a and persists the resulting state.
func (s *Store) Dispatch(ctx context.Context, a Action) domain.CartState {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	s.seq++
	state, seq := s.state, s.seq
	s.mu.Unlock()

	s.persist(ctx, state, seq)
	return state
}

// Drain empties the cart and returns what it held, in one transition. An
// empty cart is returned as is and nothing is written.
func (s *Store) Drain(ctx context.Context) domain.CartState {
	s.mu.Lock()
	drained := s.state
	if drained.IsEmpty() {
		s.mu.Unlock()
		return drained
	}
	s.state = Reduce(s.state, Clear{})
	s.seq++
	state, seq := s.state, s.seq
	s.mu.Unlock()

	s.persist(ctx, state, seq)
	return drained
}

func (s *Store) persist(ctx context.Context, state domain.CartState, seq uint64) {
	data, err := json.Marshal(state)
	if err != nil {
		s.logger.Error("cart snapshot marshal failed", zap.Error(err))
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if seq <= s.written {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.logger.Error("cart snapshot write failed", zap.String("key", s.key), zap.Error(err))
	}
	s.written = seq
}

func (s *Store) Add(ctx context.Context, item domain.CartItem) domain.CartState {
	return s.Dispatch(ctx, AddItem{Item: item})
}

func (s *Store) Remove(ctx context.Context, id string) domain.CartState {
	return s.Dispatch(ctx, RemoveItem{ID: id})
}

func (s *Store) SetQty(ctx context.Context, id string, qty int) domain.CartState {
	return s.Dispatch(ctx, SetQty{ID: id, Qty: qty})
}

func (s *Store) Clear(ctx context.Context) domain.CartState {
	return s.Dispatch(ctx, Clear{})
}

func (s *Store) State() domain.CartState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Selectors() domain.CartSelectors {
	return s.State().Selectors()
}
