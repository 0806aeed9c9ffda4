package cart

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/chrisdamba/menusync/internal/activity"
	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/pricing"
	"github.com/chrisdamba/menusync/internal/replica"
	"github.com/chrisdamba/menusync/internal/repositories"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Options struct {
	Local    repositories.LocalStore
	Remote   repositories.DocumentStore
	Recorder *activity.Recorder
	Logger   *zap.Logger
	// Strict panics on precondition violations such as an out-of-range index instead
	// of rejecting them. Meant for development builds.
	Strict bool
}

// Engine owns the ordered list of cart lines. Lines are addressed by index; any
// Remove invalidates indexes held by callers.
type Engine struct {
	replica  *replica.Replica[models.CartLine]
	recorder *activity.Recorder
	log      *zap.Logger
	strict   bool
}

// Open hydrates the cart from local storage.
func Open(ctx context.Context, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	e := &Engine{
		recorder: opts.Recorder,
		log:      opts.Logger.Named("cart"),
		strict:   opts.Strict,
	}
	e.replica = replica.Open(ctx, replica.Options[models.CartLine]{
		Collection:  models.CollectionCart,
		StorageKey:  models.StorageKeyCart,
		Local:       opts.Local,
		Remote:      opts.Remote,
		Clone:       models.CartLine.Clone,
		Logger:      e.log,
		OnReconcile: e.reconciled,
	})
	return e
}

func validateLine(line models.CartLine) error {
	switch {
	case line.ItemID == "":
		return fmt.Errorf("%w: item id is required", ErrInvalidLine)
	case line.Quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidLine)
	case utf8.RuneCountInString(line.Note) > models.MaxNoteLength:
		return fmt.Errorf("%w: note exceeds %d characters", ErrInvalidLine, models.MaxNoteLength)
	}
	return nil
}

// Add appends a line.
func (e *Engine) Add(line models.CartLine) error {
	if err := validateLine(line); err != nil {
		return err
	}
	err := e.replica.Mutate(func(lines []models.CartLine) ([]models.CartLine, error) {
		return append(lines, line.Canonical()), nil
	})
	if err == nil {
		e.record(activity.EventLineAdded, line.ItemID, line.Quantity)
	}
	return err
}

// Update replaces the line at index wholesale.
func (e *Engine) Update(index int, line models.CartLine) error {
	if err := validateLine(line); err != nil {
		return err
	}
	err := e.replica.Mutate(func(lines []models.CartLine) ([]models.CartLine, error) {
		if err := e.checkIndex(index, len(lines)); err != nil {
			return nil, err
		}
		lines[index] = line.Canonical()
		return lines, nil
	})
	if err == nil {
		e.record(activity.EventLineUpdated, line.ItemID, line.Quantity)
	}
	return e.precondition(err)
}

// Remove deletes the line at index; later lines shift down by one.
func (e *Engine) Remove(index int) error {
	var removed models.CartLine
	err := e.replica.Mutate(func(lines []models.CartLine) ([]models.CartLine, error) {
		if err := e.checkIndex(index, len(lines)); err != nil {
			return nil, err
		}
		removed = lines[index]
		return append(lines[:index], lines[index+1:]...), nil
	})
	if err == nil {
		e.record(activity.EventLineRemoved, removed.ItemID, removed.Quantity)
	}
	return e.precondition(err)
}

// Clear empties the cart locally and remotely.
func (e *Engine) Clear() error {
	err := e.replica.Mutate(func([]models.CartLine) ([]models.CartLine, error) {
		return []models.CartLine{}, nil
	})
	if err == nil {
		e.record(activity.EventCartCleared, "", 0)
	}
	return err
}

func (e *Engine) checkIndex(index, n int) error {
	if index >= 0 && index < n {
		return nil
	}
	return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, n)
}

// precondition turns an out-of-range rejection into a panic in strict mode.
func (e *Engine) precondition(err error) error {
	if e.strict && errors.Is(err, ErrIndexOutOfRange) {
		panic(err)
	}
	return err
}

// Lines returns a copy of the cart.
func (e *Engine) Lines() []models.CartLine {
	return e.replica.Items()
}

// Line returns a copy of the line at index.
func (e *Engine) Line(index int) (models.CartLine, error) {
	var (
		line models.CartLine
		err  error
	)
	e.replica.View(func(lines []models.CartLine) {
		if index < 0 || index >= len(lines) {
			err = fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, len(lines))
			return
		}
		line = lines[index].Clone()
	})
	return line, err
}

func (e *Engine) Len() int {
	n := 0
	e.replica.View(func(lines []models.CartLine) { n = len(lines) })
	return n
}

// TotalCount is the sum of line quantities, derived on each call.
func (e *Engine) TotalCount() int {
	n := 0
	e.replica.View(func(lines []models.CartLine) { n = pricing.TotalCount(lines) })
	return n
}

// TotalAmount is the sum of unitPrice x quantity, derived on each call.
func (e *Engine) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	e.replica.View(func(lines []models.CartLine) { total = pricing.CartTotal(lines) })
	return total
}

// Connect mirrors the cart to userID's remote document.
func (e *Engine) Connect(ctx context.Context, userID string) error {
	return e.replica.Connect(ctx, userID)
}

// Disconnect stops mirroring; the local cart is kept.
func (e *Engine) Disconnect() {
	e.replica.Disconnect()
}

func (e *Engine) State() replica.State {
	return e.replica.State()
}

// Flush waits for queued remote writes to be acknowledged.
func (e *Engine) Flush(ctx context.Context) error {
	return e.replica.Flush(ctx)
}

func (e *Engine) Close() {
	e.replica.Close()
}

func (e *Engine) record(eventType, itemID string, quantity int) {
	if e.recorder == nil {
		return
	}
	e.recorder.Record(activity.Event{
		EventType:  eventType,
		UserID:     e.replica.UserID(),
		Collection: models.CollectionCart,
		ItemID:     itemID,
		Quantity:   int64(quantity),
		Count:      int64(e.Len()),
		Amount:     e.TotalAmount().InexactFloat64(),
	})
}

func (e *Engine) reconciled(userID string, decision replica.Decision, localLen, remoteLen int) {
	if e.recorder == nil {
		return
	}
	e.recorder.Record(activity.Event{
		EventType:  activity.EventSyncReconciled,
		UserID:     userID,
		Collection: models.CollectionCart,
		Decision:   decision.String(),
		Count:      int64(localLen),
		Remote:     int64(remoteLen),
	})
}
