package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrEmptyCart = errors.New("cart is empty")

// Confirmation is what the customer sees after placing an order. It is
// also the payload of the completed event.
type Confirmation struct {
	OrderID   string            `json:"orderId"`
	Items     []domain.CartItem `json:"items"`
	ItemCount int               `json:"itemCount"`
	Subtotal  float64           `json:"subtotal"`
	Currency  string            `json:"currency"`
	PlacedAt  time.Time         `json:"placedAt"`
}

// CartStore hands over the cart contents and empties it in one step, so a
// line added while the order is being placed stays in the cart.
type CartStore interface {
	Drain(ctx context.Context) domain.CartState
}

type Service struct {
	cart      CartStore
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(cart CartStore, publisher Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cart:      cart,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Checkout empties the cart and confirms what it held. There is no payment
// step; a failed publish is logged and the order still stands.
func (s *Service) Checkout(ctx context.Context) (*Confirmation, error) {
	state := s.cart.Drain(ctx)
	if state.IsEmpty() {
		return nil, ErrEmptyCart
	}

	sel := state.Selectors()
	c := &Confirmation{
		OrderID:   uuid.NewString(),
		Items:     state.Items,
		ItemCount: sel.ItemCount,
		Subtotal:  sel.Subtotal,
		Currency:  pricing.CurrencyCode,
		PlacedAt:  s.now().UTC(),
	}

	if err := s.publisher.Publish(ctx, *c); err != nil {
		s.logger.Error("checkout event publish failed", zap.String("order_id", c.OrderID), zap.Error(err))
	}

	s.logger.Info("checkout completed",
		zap.String("order_id", c.OrderID),
		zap.Int("item_count", c.ItemCount),
		zap.Float64("subtotal", c.Subtotal),
	)
	return c, nil
}
