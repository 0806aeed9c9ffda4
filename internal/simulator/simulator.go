// Package simulator drives several devices of one user against a shared document
// store and reports whether their carts and favorites converge.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/chrisdamba/menusync/internal/activity"
	"github.com/chrisdamba/menusync/internal/cart"
	"github.com/chrisdamba/menusync/internal/factories"
	"github.com/chrisdamba/menusync/internal/favorites"
	"github.com/chrisdamba/menusync/internal/localstore"
	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/modifiers"
	"github.com/chrisdamba/menusync/internal/repositories"
	"github.com/chrisdamba/menusync/internal/repositories/memory"
	"github.com/chrisdamba/menusync/internal/session"
	"github.com/lucsky/cuid"
	"go.uber.org/zap"
)

// Device is one client: its own local storage and engines, sharing the remote store.
type Device struct {
	ID        string
	Index     int
	Local     *localstore.MemoryStore
	Cart      *cart.Engine
	Favorites *favorites.Engine
	Session   *session.Session
}

// Report summarizes a run.
type Report struct {
	Events     int            `json:"events"`
	ByType     map[string]int `json:"byType"`
	Skipped    int            `json:"skipped"`
	Orders     int            `json:"orders"`
	RemotePuts int            `json:"remotePuts"`
	CartLines  []int          `json:"cartLines"`
	Favorites  []int          `json:"favorites"`
	Converged  bool           `json:"converged"`
}

type Simulator struct {
	Config      *models.Config
	Catalog     *memory.CatalogRepository
	Remote      *memory.DocumentStore
	Orders      *memory.OrderRepository
	Accessor    *modifiers.Accessor
	Factory     *factories.Factory
	Identity    models.Identity
	Items       []*models.Item
	Groups      map[string][]models.EffectiveGroup
	Devices     []*Device
	CurrentTime time.Time
	Rng         *rand.Rand
	EventQueue  *models.EventQueue
	Recorder    *activity.Recorder
	// Progress, when set, is called after every processed event.
	Progress func()

	log *zap.Logger
}

func NewSimulator(config *models.Config, recorder *activity.Recorder, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog := memory.NewCatalogRepository()
	return &Simulator{
		Config:      config,
		Catalog:     catalog,
		Remote:      memory.NewDocumentStore(),
		Orders:      memory.NewOrderRepository(),
		Accessor:    modifiers.NewAccessor(catalog),
		Factory:     factories.New(config.Simulation.Seed),
		Groups:      make(map[string][]models.EffectiveGroup),
		CurrentTime: time.Now().UTC(),
		Rng:         rand.New(rand.NewSource(config.Simulation.Seed)),
		EventQueue:  models.NewEventQueue(),
		Recorder:    recorder,
		log:         logger.Named("simulator"),
	}
}

// Run generates the catalog, schedules the configured number of actions across the
// devices and processes them in time order.
func (s *Simulator) Run(ctx context.Context) (*Report, error) {
	if err := s.initializeData(ctx); err != nil {
		return nil, err
	}
	defer s.closeDevices()

	s.scheduleActions()
	s.log.Info("simulation starts",
		zap.Int("devices", len(s.Devices)),
		zap.Int("events", s.EventQueue.Len()),
		zap.String("user_id", s.Identity.UserID))

	report := &Report{ByType: make(map[string]int)}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		event := s.EventQueue.Dequeue()
		if event == nil {
			break
		}
		s.CurrentTime = event.Time
		if !s.processEvent(ctx, event, report) {
			report.Skipped++
		}
		report.Events++
		report.ByType[event.Type]++
		if s.Progress != nil {
			s.Progress()
		}
	}

	if err := s.settle(ctx); err != nil {
		return nil, err
	}
	s.summarize(report)
	s.log.Info("simulation completed",
		zap.Int("events", report.Events),
		zap.Int("skipped", report.Skipped),
		zap.Bool("converged", report.Converged))
	return report, nil
}

func (s *Simulator) initializeData(ctx context.Context) error {
	cfg := s.Config
	catalog := s.Factory.CreateCatalog(cfg.StoreID, cfg.Simulation.MenuItems, true)
	if err := repositories.LoadCatalog(ctx, s.Catalog, catalog, nil); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	s.Items = catalog.Items
	for _, item := range s.Items {
		groups, err := s.Accessor.ItemGroups(ctx, cfg.StoreID, *item)
		if err != nil {
			return err
		}
		s.Groups[item.ID] = groups
	}

	s.Identity = s.Factory.CreateIdentity(true)
	devices := cfg.Simulation.Devices
	if devices < 1 {
		devices = 1
	}
	for i := 0; i < devices; i++ {
		s.Devices = append(s.Devices, s.openDevice(ctx, i))
	}
	return nil
}

func (s *Simulator) openDevice(ctx context.Context, index int) *Device {
	id := cuid.New()
	recorder := s.Recorder.WithDevice(id)
	logger := s.log.With(zap.Int("device", index))
	local := localstore.NewMemoryStore()

	cartEngine := cart.Open(ctx, cart.Options{
		Local:    local,
		Remote:   s.Remote,
		Recorder: recorder,
		Logger:   logger,
		Strict:   s.Config.Strict,
	})
	favEngine := favorites.Open(ctx, favorites.Options{
		Local:    local,
		Remote:   s.Remote,
		Recorder: recorder,
		Logger:   logger,
	})
	return &Device{
		ID:        id,
		Index:     index,
		Local:     local,
		Cart:      cartEngine,
		Favorites: favEngine,
		Session: session.New(session.Options{
			StoreID:   s.Config.StoreID,
			Catalog:   s.Catalog,
			Orders:    s.Orders,
			Cart:      cartEngine,
			Favorites: favEngine,
			Recorder:  recorder,
			Logger:    logger,
			Now:       func() time.Time { return s.CurrentTime },
		}),
	}
}

func (s *Simulator) closeDevices() {
	for _, d := range s.Devices {
		d.Cart.Close()
		d.Favorites.Close()
	}
}

// settle signs every device back in and waits for all pending remote writes.
func (s *Simulator) settle(ctx context.Context) error {
	for _, d := range s.Devices {
		if !d.Session.Identity().SignedIn() {
			if err := d.Session.SignIn(ctx, s.Identity); err != nil {
				return err
			}
		}
	}
	// a device's flush can trigger adoption on another, so go round twice
	for round := 0; round < 2; round++ {
		for _, d := range s.Devices {
			if err := d.Cart.Flush(ctx); err != nil {
				s.log.Warn("cart flush", zap.Int("device", d.Index), zap.Error(err))
			}
			if err := d.Favorites.Flush(ctx); err != nil {
				s.log.Warn("favorites flush", zap.Int("device", d.Index), zap.Error(err))
			}
		}
	}
	return nil
}

func (s *Simulator) summarize(report *Report) {
	report.RemotePuts = s.Remote.Puts()
	orders, _ := s.Orders.GetUserOrders(context.Background(), s.Config.StoreID, s.Identity.UserID)
	report.Orders = len(orders)

	report.Converged = true
	var firstCart, firstFavs []byte
	for i, d := range s.Devices {
		lines := d.Cart.Lines()
		favs := d.Favorites.Entries()
		report.CartLines = append(report.CartLines, len(lines))
		report.Favorites = append(report.Favorites, len(favs))

		cartJSON, _ := json.Marshal(lines)
		favJSON, _ := json.Marshal(favs)
		if i == 0 {
			firstCart, firstFavs = cartJSON, favJSON
			continue
		}
		if string(cartJSON) != string(firstCart) || string(favJSON) != string(firstFavs) {
			report.Converged = false
		}
	}
}
