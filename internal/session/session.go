// Package session ties the signed-in identity to the cart and favorites engines and
// places pickup orders from the cart.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chrisdamba/menusync/internal/activity"
	"github.com/chrisdamba/menusync/internal/cart"
	"github.com/chrisdamba/menusync/internal/favorites"
	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/pricing"
	"github.com/chrisdamba/menusync/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrSignedOut   = errors.New("not signed in")
	ErrUnverified  = errors.New("email not verified")
	ErrStoreClosed = errors.New("store is not accepting orders")
	ErrEmptyCart   = errors.New("cart is empty")
	ErrNoSuchOrder = errors.New("order not found")
)

const defaultFlushTimeout = 5 * time.Second

type Options struct {
	StoreID   string
	Catalog   repositories.CatalogRepository
	Orders    repositories.OrderRepository
	Cart      *cart.Engine
	Favorites *favorites.Engine
	Recorder  *activity.Recorder
	Logger    *zap.Logger
	Now       func() time.Time
	// FlushTimeout bounds how long Checkout waits for the cleared cart to reach the
	// remote store.
	FlushTimeout time.Duration
}

type Session struct {
	opts Options
	log  *zap.Logger

	mu       sync.Mutex
	identity models.Identity
}

func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StoreID == "" {
		opts.StoreID = models.DefaultStoreID
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = defaultFlushTimeout
	}
	return &Session{opts: opts, log: opts.Logger.Named("session")}
}

func (s *Session) Cart() *cart.Engine { return s.opts.Cart }

func (s *Session) Favorites() *favorites.Engine { return s.opts.Favorites }

func (s *Session) Identity() models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// SignIn attaches both collections to id.UserID. Signing in as another user first
// detaches from the previous one; on failure the session is left signed out.
func (s *Session) SignIn(ctx context.Context, id models.Identity) error {
	if !id.SignedIn() {
		s.SignOut()
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.opts.Cart.Connect(gctx, id.UserID) })
	g.Go(func() error { return s.opts.Favorites.Connect(gctx, id.UserID) })
	if err := g.Wait(); err != nil {
		s.opts.Cart.Disconnect()
		s.opts.Favorites.Disconnect()
		s.identity = models.Identity{}
		return fmt.Errorf("sign in %s: %w", id.UserID, err)
	}

	s.identity = id
	s.log.Info("signed in", zap.String("user_id", id.UserID), zap.Bool("verified", id.Verified))
	return nil
}

// SignOut detaches both collections. Local content stays on the device.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.opts.Cart.Disconnect()
	s.opts.Favorites.Disconnect()
	if s.identity.SignedIn() {
		s.log.Info("signed out", zap.String("user_id", s.identity.UserID))
	}
	s.identity = models.Identity{}
}

// Checkout places a pickup order for the whole cart, then clears the cart. The order
// is placed before the cart is touched, so a failed placement leaves the cart intact.
func (s *Session) Checkout(ctx context.Context) (*models.Order, error) {
	id := s.Identity()
	if !id.SignedIn() {
		return nil, ErrSignedOut
	}
	if !id.Verified {
		return nil, ErrUnverified
	}

	now := s.opts.Now()
	store, err := s.opts.Catalog.GetStore(ctx, s.opts.StoreID)
	if err != nil {
		return nil, fmt.Errorf("load store %s: %w", s.opts.StoreID, err)
	}
	if store == nil || !store.AcceptsOrders(now) {
		return nil, ErrStoreClosed
	}

	lines := s.opts.Cart.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	order := &models.Order{
		StoreID: s.opts.StoreID,
		Customer: models.OrderCustomer{
			ID:    id.UserID,
			Name:  id.Name,
			Email: id.Email,
		},
		Type:        models.OrderTypePickup,
		Status:      models.OrderStatusPending,
		Items:       lines,
		TotalAmount: pricing.CartTotal(lines),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	orderID, err := s.opts.Orders.CreatePickupOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	order.ID = orderID

	if err := s.opts.Cart.Clear(); err != nil {
		s.log.Warn("clear cart after order", zap.String("order_id", orderID), zap.Error(err))
	}
	flushCtx, cancel := context.WithTimeout(ctx, s.opts.FlushTimeout)
	defer cancel()
	if err := s.opts.Cart.Flush(flushCtx); err != nil {
		s.log.Warn("cart flush after order", zap.String("order_id", orderID), zap.Error(err))
	}

	s.opts.Recorder.Record(activity.Event{
		EventType: activity.EventOrderPlaced,
		UserID:    id.UserID,
		OrderID:   orderID,
		Count:     int64(pricing.TotalCount(lines)),
		Amount:    order.TotalAmount.InexactFloat64(),
	})
	s.log.Info("order placed",
		zap.String("order_id", orderID),
		zap.String("user_id", id.UserID),
		zap.String("total", pricing.Display(order.TotalAmount)))
	return order, nil
}

// Orders lists the signed-in user's orders, newest first.
func (s *Session) Orders(ctx context.Context) ([]*models.Order, error) {
	id := s.Identity()
	if !id.SignedIn() {
		return nil, ErrSignedOut
	}
	return s.opts.Orders.GetUserOrders(ctx, s.opts.StoreID, id.UserID)
}

// Order returns one of the signed-in user's orders. Orders of other customers are
// reported as not found.
func (s *Session) Order(ctx context.Context, orderID string) (*models.Order, error) {
	id := s.Identity()
	if !id.SignedIn() {
		return nil, ErrSignedOut
	}
	order, err := s.opts.Orders.GetOrder(ctx, s.opts.StoreID, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	if order == nil || order.Customer.ID != id.UserID {
		return nil, ErrNoSuchOrder
	}
	return order, nil
}
