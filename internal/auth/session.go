// Package auth содержит состояние сессии, разрешение ролей и локальный
// справочник учётных записей.
package auth

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-ordering/internal/mirror"
	"github.com/mmeshcher/restaurant-ordering/internal/model"
	"github.com/mmeshcher/restaurant-ordering/internal/storage"
)

var (
	// ErrMalformedUser возвращается для записи пользователя без email.
	ErrMalformedUser = errors.New("malformed user record")
	// ErrNoSession возвращается, если операция требует вошедшего пользователя.
	ErrNoSession = errors.New("no active session")
)

// Session хранит текущего пользователя в памяти и зеркалирует его в хранилище под ключом user.
// После Rehydrate источником истины служит состояние в памяти.
type Session struct {
	mirror *mirror.Mirror
	logger *zap.Logger

	mu   sync.RWMutex
	user *model.User
}

// NewSession создаёт пустую сессию.
func NewSession(m *mirror.Mirror, logger *zap.Logger) *Session {
	return &Session{
		mirror: m,
		logger: logger,
	}
}

// SetCurrentUser заменяет текущего пользователя и сохраняет его в хранилище.
// Ошибка mirror.ErrDeferred означает, что состояние в памяти обновлено, а запись отложена.
func (s *Session) SetCurrentUser(ctx context.Context, u model.User) error {
	if u.Email == "" {
		return ErrMalformedUser
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	s.mu.Lock()
	s.user = &u
	w := s.mirror.Stage(storage.KeyUser, u)
	s.mu.Unlock()

	return w.Commit(ctx)
}

// ClearSession завершает сессию и удаляет её копию из хранилища.
func (s *Session) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	w := s.mirror.StageDelete(storage.KeyUser)
	s.mu.Unlock()

	return w.Commit(ctx)
}

// Rehydrate восстанавливает сессию из хранилища при старте.
// Повреждённое значение удаляется, сессия остаётся пустой; ошибки не возвращаются.
func (s *Session) Rehydrate(ctx context.Context) {
	var stored storedUser
	found, err := s.mirror.Load(ctx, storage.KeyUser, &stored)
	if err != nil {
		s.logger.Warn("session rehydration failed, starting logged out", zap.Error(err))
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()

		if errors.Is(err, mirror.ErrCorrupt) {
			if err := s.mirror.Delete(ctx, storage.KeyUser); err != nil {
				s.logger.Warn("remove corrupt session", zap.Error(err))
			}
		}
		return
	}
	if !found {
		return
	}

	u, normalized := stored.normalize()
	if u.Email == "" {
		s.logger.Warn("persisted session has no email, discarding")
		if err := s.ClearSession(ctx); err != nil {
			s.logger.Warn("remove malformed session", zap.Error(err))
		}
		return
	}
	if normalized {
		s.logger.Info("persisted session without role normalized", zap.String("email", u.Email))
	}

	if err := s.SetCurrentUser(ctx, u); err != nil {
		s.logger.Warn("rewrite rehydrated session", zap.Error(err))
	}
}

// Current возвращает копию текущего пользователя.
func (s *Session) Current() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Role возвращает роль текущего пользователя; без сессии это user.
func (s *Session) Role() model.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ResolveRole(s.user)
}
