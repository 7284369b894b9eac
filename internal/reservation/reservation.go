// Package reservation содержит журнал бронирований столиков.
package reservation

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-ordering/internal/mirror"
	"github.com/mmeshcher/restaurant-ordering/internal/model"
	"github.com/mmeshcher/restaurant-ordering/internal/storage"
	"github.com/mmeshcher/restaurant-ordering/internal/validation"
)

// DateLayout задаёт формат даты брони.
const DateLayout = "1/2/2006, 3:04:05 PM"

var (
	// ErrNotFound возвращается, если брони с таким id нет.
	ErrNotFound = errors.New("reservation not found")
	// ErrNothingToUndo возвращается, если отменять нечего или окно отмены истекло.
	ErrNothingToUndo = errors.New("nothing to undo")
)

type pendingCancel struct {
	reservation model.Reservation
	index       int
	timer       *time.Timer
}

// Book хранит брони под ключом reservations. Отмена брони попадает в хранилище
// только после окна undoWindow, в течение которого её можно вернуть.
type Book struct {
	mirror     *mirror.Mirror
	logger     *zap.Logger
	loc        *time.Location
	undoWindow time.Duration

	mu      sync.Mutex
	list    []model.Reservation
	pending *pendingCancel
}

// NewBook создаёт пустой журнал.
func NewBook(m *mirror.Mirror, logger *zap.Logger, loc *time.Location, undoWindow time.Duration) *Book {
	if loc == nil {
		loc = time.Local
	}
	return &Book{
		mirror:     m,
		logger:     logger,
		loc:        loc,
		undoWindow: undoWindow,
	}
}

// Rehydrate загружает брони из хранилища. Повреждённое значение заменяется пустым списком.
func (b *Book) Rehydrate(ctx context.Context) {
	var list []model.Reservation
	found, err := b.mirror.Load(ctx, storage.KeyReservations, &list)
	if err != nil {
		b.logger.Warn("reservations rehydration failed, starting empty", zap.Error(err))
		if errors.Is(err, mirror.ErrCorrupt) {
			if err := b.mirror.Delete(ctx, storage.KeyReservations); err != nil {
				b.logger.Warn("remove corrupt reservations", zap.Error(err))
			}
		}
		list = nil
	} else if !found {
		list = nil
	}

	b.mu.Lock()
	b.list = list
	b.mu.Unlock()
}

// Create добавляет бронь на дату date для guests гостей.
// mirror.ErrDeferred вместе с бронью означает, что запись отложена.
func (b *Book) Create(ctx context.Context, date time.Time, guests string) (model.Reservation, error) {
	n, err := validation.ParseGuests(guests)
	if err != nil {
		return model.Reservation{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Reservation{}, err
	}

	r := model.Reservation{
		ID:     id.String(),
		Date:   date.In(b.loc).Format(DateLayout),
		Guests: guests,
	}

	b.mu.Lock()
	b.list = append(b.list, r)
	w := b.mirror.Stage(storage.KeyReservations, b.list)
	b.mu.Unlock()

	b.logger.Info("reservation created", zap.String("id", r.ID), zap.Int("guests", n))

	return r, w.Commit(ctx)
}

// List возвращает видимые брони.
func (b *Book) List() []model.Reservation {
	b.mu.Lock()
	defer b.mu.Unlock()

	return slices.Clone(b.list)
}

// Cancel убирает бронь из списка. Изменение сохраняется после окна отмены.
// Предыдущая незавершённая отмена фиксируется сразу.
func (b *Book) Cancel(ctx context.Context, id string) error {
	b.mu.Lock()
	i := slices.IndexFunc(b.list, func(r model.Reservation) bool { return r.ID == id })
	if i < 0 {
		b.mu.Unlock()
		return ErrNotFound
	}

	var settled *mirror.Write
	if b.pending != nil {
		b.pending.timer.Stop()
		b.pending = nil
		settled = b.mirror.Stage(storage.KeyReservations, b.list)
	}

	p := &pendingCancel{reservation: b.list[i], index: i}
	b.list = slices.Delete(b.list, i, i+1)
	p.timer = time.AfterFunc(b.undoWindow, func() { b.settle(p) })
	b.pending = p
	b.mu.Unlock()

	if settled == nil {
		return nil
	}
	return settled.Commit(ctx)
}

func (b *Book) settle(p *pendingCancel) {
	b.mu.Lock()
	if b.pending != p {
		b.mu.Unlock()
		return
	}
	b.pending = nil
	w := b.mirror.Stage(storage.KeyReservations, b.list)
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.Commit(ctx); err != nil {
		b.logger.Warn("persist reservation cancel", zap.Error(err))
		return
	}
	b.logger.Info("reservation cancel settled", zap.String("id", p.reservation.ID))
}

// Undo возвращает последнюю отменённую бронь, если окно отмены ещё не истекло.
func (b *Book) Undo(ctx context.Context) (model.Reservation, error) {
	b.mu.Lock()
	p := b.pending
	if p == nil || !p.timer.Stop() {
		b.mu.Unlock()
		return model.Reservation{}, ErrNothingToUndo
	}
	b.pending = nil

	idx := min(p.index, len(b.list))
	b.list = slices.Insert(b.list, idx, p.reservation)
	w := b.mirror.Stage(storage.KeyReservations, b.list)
	b.mu.Unlock()

	return p.reservation, w.Commit(ctx)
}

// Settle немедленно фиксирует незавершённую отмену. Вызывается при остановке.
func (b *Book) Settle() {
	b.mu.Lock()
	p := b.pending
	b.mu.Unlock()

	if p != nil && p.timer.Stop() {
		b.settle(p)
	}
}
