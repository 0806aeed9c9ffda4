package simulator

import (
	"context"
	"time"

	"github.com/chrisdamba/menusync/internal/customize"
	"github.com/chrisdamba/menusync/internal/models"
	"go.uber.org/zap"
)

type weightedAction struct {
	eventType string
	weight    int
}

// actionMix is the relative frequency of user actions once a device is signed in.
var actionMix = []weightedAction{
	{models.EventAddLine, 40},
	{models.EventUpdateLine, 15},
	{models.EventRemoveLine, 10},
	{models.EventSaveFavorite, 12},
	{models.EventRemoveFavorite, 5},
	{models.EventClearCart, 3},
	{models.EventSignOut, 5},
	{models.EventCheckout, 2},
}

func (s *Simulator) pickAction() string {
	total := 0
	for _, a := range actionMix {
		total += a.weight
	}
	n := s.Rng.Intn(total)
	for _, a := range actionMix {
		if n < a.weight {
			return a.eventType
		}
		n -= a.weight
	}
	return models.EventAddLine
}

// scheduleActions signs every device in at the start, then spreads the configured
// number of actions over random devices at jittered intervals. A sign-out is followed
// by a sign-in on the same device a few steps later.
func (s *Simulator) scheduleActions() {
	interval := s.Config.Simulation.Interval
	if interval <= 0 {
		interval = time.Second
	}
	start := s.CurrentTime
	for _, d := range s.Devices {
		s.EventQueue.Enqueue(&models.Event{Time: start, Type: models.EventSignIn, Device: d.Index})
	}

	at := start
	for i := 0; i < s.Config.Simulation.Actions; i++ {
		at = at.Add(interval/2 + time.Duration(s.Rng.Int63n(int64(interval))))
		device := s.Rng.Intn(len(s.Devices))
		eventType := s.pickAction()
		s.EventQueue.Enqueue(&models.Event{Time: at, Type: eventType, Device: device})
		if eventType == models.EventSignOut {
			s.EventQueue.Enqueue(&models.Event{
				Time:   at.Add(time.Duration(2+s.Rng.Intn(4)) * interval),
				Type:   models.EventSignIn,
				Device: device,
			})
		}
	}
}

// processEvent applies one action. It reports false when the action had nothing to
// act on or was rejected.
func (s *Simulator) processEvent(ctx context.Context, event *models.Event, report *Report) bool {
	d := s.Devices[event.Device]
	log := s.log.With(zap.Int("device", d.Index), zap.String("event", event.Type))

	var err error
	switch event.Type {
	case models.EventSignIn:
		err = d.Session.SignIn(ctx, s.Identity)
	case models.EventSignOut:
		d.Session.SignOut()
	case models.EventAddLine:
		return s.handleAddLine(d, log)
	case models.EventUpdateLine:
		return s.handleUpdateLine(d, log)
	case models.EventRemoveLine:
		n := d.Cart.Len()
		if n == 0 {
			return false
		}
		err = d.Cart.Remove(s.Rng.Intn(n))
	case models.EventClearCart:
		err = d.Cart.Clear()
	case models.EventSaveFavorite:
		item := s.randomItem()
		draft := s.Factory.CreateDraft(item, s.Groups[item.ID])
		err = d.Favorites.Upsert(draft.Favorite())
	case models.EventRemoveFavorite:
		entries := d.Favorites.Entries()
		if len(entries) == 0 {
			return false
		}
		err = d.Favorites.Remove(entries[s.Rng.Intn(len(entries))].ItemID)
	case models.EventCheckout:
		var order *models.Order
		order, err = d.Session.Checkout(ctx)
		if err == nil {
			log.Debug("order placed", zap.String("order_id", order.ID))
		}
	default:
		return false
	}
	if err != nil {
		log.Debug("action rejected", zap.Error(err))
		return false
	}
	return true
}

func (s *Simulator) randomItem() *models.Item {
	return s.Items[s.Rng.Intn(len(s.Items))]
}

func (s *Simulator) handleAddLine(d *Device, log *zap.Logger) bool {
	item := s.randomItem()
	line, err := s.Factory.CreateDraft(item, s.Groups[item.ID]).Line()
	if err != nil {
		log.Debug("draft incomplete", zap.String("item_id", item.ID))
		return false
	}
	if err := d.Cart.Add(line); err != nil {
		log.Debug("add rejected", zap.Error(err))
		return false
	}
	return true
}

// handleUpdateLine reopens a random line for editing and changes its quantity.
func (s *Simulator) handleUpdateLine(d *Device, log *zap.Logger) bool {
	n := d.Cart.Len()
	if n == 0 {
		return false
	}
	index := s.Rng.Intn(n)
	line, err := d.Cart.Line(index)
	if err != nil {
		return false
	}
	var item *models.Item
	for _, it := range s.Items {
		if it.ID == line.ItemID {
			item = it
			break
		}
	}
	if item == nil {
		return false
	}
	draft := customize.FromLine(*item, s.Groups[item.ID], line)
	_ = draft.SetQuantity(1 + s.Rng.Intn(4))
	updated, err := draft.Line()
	if err != nil {
		return false
	}
	if err := d.Cart.Update(index, updated); err != nil {
		log.Debug("update rejected", zap.Error(err))
		return false
	}
	return true
}
