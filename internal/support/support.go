// Package support принимает обращения пользователей в поддержку.
package support

import (
	"context"
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

// Desk хранит обращения под ключом issues.
type Desk struct {
	mirror *mirror.Mirror
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	issues []model.Issue
	loaded bool
}

// NewDesk создаёт службу поддержки.
func NewDesk(m *mirror.Mirror, logger *zap.Logger) *Desk {
	return &Desk{mirror: m, logger: logger, now: time.Now}
}

func (d *Desk) load(ctx context.Context) {
	if d.loaded {
		return
	}
	d.loaded = true

	if _, err := d.mirror.Load(ctx, storage.KeyIssues, &d.issues); err != nil {
		d.logger.Warn("load issues failed, starting empty", zap.Error(err))
		d.issues = nil
	}
}

// Submit сохраняет обращение. Тема и текст обязательны.
func (d *Desk) Submit(ctx context.Context, subject, message string) (model.Issue, error) {
	if err := validation.Required(
		validation.Field{Name: "subject", Value: subject},
		validation.Field{Name: "message", Value: message},
	); err != nil {
		return model.Issue{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Issue{}, err
	}

	issue := model.Issue{
		ID:      id.String(),
		Subject: subject,
		Message: message,
		Date:    d.now().UTC().Format(time.RFC3339),
	}

	d.mu.Lock()
	d.load(ctx)
	d.issues = append(d.issues, issue)
	w := d.mirror.Stage(storage.KeyIssues, d.issues)
	d.mu.Unlock()

	return issue, w.Commit(ctx)
}

// List возвращает отправленные обращения.
func (d *Desk) List(ctx context.Context) []model.Issue {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.load(ctx)
	return slices.Clone(d.issues)
}
