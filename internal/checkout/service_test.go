package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/google/uuid"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Confirmation
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, c Confirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, c)
	return r.err
}

func newCart(t *testing.T, items ...domain.CartItem) *cart.Store {
	t.Helper()
	s := cart.NewStore(context.Background(), storage.NewMemoryStore())
	for _, it := range items {
		s.Add(context.Background(), it)
	}
	return s
}

func TestCheckout_ClearsCartAndPublishes(t *testing.T) {
	store := newCart(t,
		domain.CartItem{ID: "1", Title: "Jacket", Price: 1999, DiscountedPrice: 1499, Qty: 2},
		domain.CartItem{ID: "2", Title: "Cap", Price: 200, DiscountedPrice: 250, Qty: 1},
	)
	pub := &recordingPublisher{}
	svc := NewService(store, pub, nil)
	placed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return placed }

	c, err := svc.Checkout(context.Background())

	assert.NilError(t, err)
	_, parseErr := uuid.Parse(c.OrderID)
	assert.NilError(t, parseErr)
	assert.Equal(t, c.ItemCount, 3)
	assert.Equal(t, c.Subtotal, 3198.0)
	assert.Equal(t, c.Currency, "NOK")
	assert.Equal(t, c.PlacedAt, placed)
	assert.Assert(t, is.Len(c.Items, 2))

	assert.Assert(t, store.State().IsEmpty())
	assert.Assert(t, is.Len(pub.events, 1))
	assert.Equal(t, pub.events[0].OrderID, c.OrderID)
}

func TestCheckout_EmptyCart(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(newCart(t), pub, nil)

	c, err := svc.Checkout(context.Background())

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Assert(t, c == nil)
	assert.Assert(t, is.Len(pub.events, 0))
}

func TestCheckout_PublishFailureStillCompletes(t *testing.T) {
	store := newCart(t, domain.CartItem{ID: "1", Title: "Jacket", Price: 100, DiscountedPrice: 100, Qty: 1})
	svc := NewService(store, &recordingPublisher{err: errors.New("broker down")}, nil)

	c, err := svc.Checkout(context.Background())

	assert.NilError(t, err)
	assert.Equal(t, c.ItemCount, 1)
	assert.Assert(t, store.State().IsEmpty())
}

func TestCheckout_UniqueOrderIDs(t *testing.T) {
	item := domain.CartItem{ID: "1", Title: "Jacket", Price: 100, DiscountedPrice: 100, Qty: 1}
	store := newCart(t)
	svc := NewService(store, nil, nil)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		store.Add(context.Background(), item)
		c, err := svc.Checkout(context.Background())
		assert.NilError(t, err)
		assert.Assert(t, !seen[c.OrderID])
		seen[c.OrderID] = true
	}
}

// addingPublisher puts another line in the cart while the order is being
// published, the way a concurrent add request would.
type addingPublisher struct {
	store *cart.Store
	item  domain.CartItem
}

func (a *addingPublisher) Publish(ctx context.Context, _ Confirmation) error {
	a.store.Add(ctx, a.item)
	return nil
}

func TestCheckout_AddDuringPublishIsKept(t *testing.T) {
	store := newCart(t, domain.CartItem{ID: "1", Title: "Jacket", Price: 100, DiscountedPrice: 100, Qty: 1})
	late := domain.CartItem{ID: "2", Title: "Cap", Price: 50, DiscountedPrice: 50, Qty: 1}
	svc := NewService(store, &addingPublisher{store: store, item: late}, nil)

	c, err := svc.Checkout(context.Background())

	assert.NilError(t, err)
	assert.Assert(t, is.Len(c.Items, 1))
	assert.Equal(t, c.Items[0].ID, "1")

	after := store.State()
	assert.Assert(t, is.Len(after.Items, 1))
	assert.Equal(t, after.Items[0].ID, "2")
}

func TestCheckout_ConcurrentAddsAreNeverLost(t *testing.T) {
	store := newCart(t, domain.CartItem{ID: "seed", Title: "Seed", Price: 1, DiscountedPrice: 1, Qty: 1})
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ordered int
	)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Add(ctx, domain.CartItem{ID: "x", Title: "X", Price: 1, DiscountedPrice: 1, Qty: 1})
		}()
		go func() {
			defer wg.Done()
			c, err := svc.Checkout(ctx)
			if err != nil {
				return
			}
			mu.Lock()
			ordered += c.ItemCount
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, ordered+store.Selectors().ItemCount, 21)
}
