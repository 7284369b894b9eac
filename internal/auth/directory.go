package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/restaurant-ordering/internal/mirror"
	"github.com/mmeshcher/restaurant-ordering/internal/model"
	"github.com/mmeshcher/restaurant-ordering/internal/storage"
	"github.com/mmeshcher/restaurant-ordering/internal/validation"
)

var (
	// ErrEmailTaken возвращается при регистрации с уже существующим email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials возвращается при неверной паре email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// SignUpForm содержит поля формы регистрации.
type SignUpForm struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// ProfileForm содержит редактируемые поля профиля.
type ProfileForm struct {
	Name  string
	Email string
	Phone string
}

// Directory хранит список зарегистрированных пользователей под ключом users.
// Поиск выполняется линейным проходом по списку.
type Directory struct {
	mirror  *mirror.Mirror
	session *Session
	logger  *zap.Logger

	owners map[string]struct{}
	cost   int

	mu sync.Mutex
}

// NewDirectory создаёт справочник. Пользователи с email из owners
// получают роль business_owner при регистрации.
func NewDirectory(m *mirror.Mirror, session *Session, logger *zap.Logger, owners []string) *Directory {
	set := make(map[string]struct{}, len(owners))
	for _, e := range owners {
		if e = strings.TrimSpace(e); e != "" {
			set[e] = struct{}{}
		}
	}

	return &Directory{
		mirror:  m,
		session: session,
		logger:  logger,
		owners:  set,
		cost:    bcrypt.DefaultCost,
	}
}

// Session возвращает сессию, которой управляет справочник.
func (d *Directory) Session() *Session {
	return d.session
}

// load читает список пользователей. Повреждённое значение считается пустым списком,
// остальные ошибки чтения возвращаются, чтобы не перезаписать список.
func (d *Directory) load(ctx context.Context) ([]model.User, error) {
	var stored []storedUser
	found, err := d.mirror.Load(ctx, storage.KeyUsers, &stored)
	if err != nil {
		if errors.Is(err, mirror.ErrCorrupt) {
			d.logger.Warn("persisted users are corrupt, using empty list", zap.Error(err))
			return nil, nil
		}
		return nil, fmt.Errorf("load users: %w", err)
	}
	if !found {
		return nil, nil
	}

	users := make([]model.User, 0, len(stored))
	for _, s := range stored {
		u, _ := s.normalize()
		users = append(users, u)
	}
	return users, nil
}

// SignUp регистрирует пользователя и делает его текущим.
// mirror.ErrDeferred в ответе означает успех с отложенной записью.
func (d *Directory) SignUp(ctx context.Context, form SignUpForm) (model.User, error) {
	if err := validation.Required(
		validation.Field{Name: "email", Value: form.Email},
		validation.Field{Name: "password", Value: form.Password},
		validation.Field{Name: "name", Value: form.Name},
		validation.Field{Name: "phone", Value: form.Phone},
	); err != nil {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), d.cost)
	if err != nil {
		return model.User{}, err
	}

	d.mu.Lock()
	users, err := d.load(ctx)
	if err != nil {
		d.mu.Unlock()
		return model.User{}, err
	}
	for _, u := range users {
		if u.Email == form.Email {
			d.mu.Unlock()
			return model.User{}, ErrEmailTaken
		}
	}

	role := model.RoleUser
	if _, ok := d.owners[form.Email]; ok {
		role = model.RoleBusinessOwner
	}

	user := model.User{
		Email:    form.Email,
		Password: string(hash),
		Name:     form.Name,
		Phone:    form.Phone,
		Role:     role,
	}

	users = append(users, user)
	w := d.mirror.Stage(storage.KeyUsers, users)
	d.mu.Unlock()

	saveErr := w.Commit(ctx)
	sessionErr := d.session.SetCurrentUser(ctx, user)

	d.logger.Info("user signed up", zap.String("email", user.Email), zap.String("role", string(user.Role)))

	return user, errors.Join(saveErr, sessionErr)
}

// Login ищет пользователя по email и паролю и делает его текущим.
// Записи с паролем в открытом виде проверяются на равенство и сразу переводятся на bcrypt.
func (d *Directory) Login(ctx context.Context, email, password string) (model.User, error) {
	if err := validation.Required(
		validation.Field{Name: "email", Value: email},
		validation.Field{Name: "password", Value: password},
	); err != nil {
		return model.User{}, err
	}

	d.mu.Lock()
	users, err := d.load(ctx)
	if err != nil {
		d.mu.Unlock()
		return model.User{}, err
	}

	idx := -1
	legacy := false
	for i, u := range users {
		if u.Email != email {
			continue
		}
		ok, plain := checkPassword(u.Password, password)
		if ok {
			idx, legacy = i, plain
			break
		}
	}
	if idx < 0 {
		d.mu.Unlock()
		return model.User{}, ErrInvalidCredentials
	}

	var upgrade *mirror.Write
	if legacy {
		if hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost); err == nil {
			users[idx].Password = string(hash)
			upgrade = d.mirror.Stage(storage.KeyUsers, users)
			d.logger.Info("legacy password upgraded", zap.String("email", email))
		}
	}
	user := users[idx]
	d.mu.Unlock()

	var upgradeErr error
	if upgrade != nil {
		upgradeErr = upgrade.Commit(ctx)
	}
	sessionErr := d.session.SetCurrentUser(ctx, user)

	return user, errors.Join(upgradeErr, sessionErr)
}

// Logout завершает текущую сессию. Список пользователей не меняется.
func (d *Directory) Logout(ctx context.Context) error {
	return d.session.ClearSession(ctx)
}

// UpdateProfile обновляет имя, email и телефон текущего пользователя.
// Роль и пароль сохраняются.
func (d *Directory) UpdateProfile(ctx context.Context, form ProfileForm) (model.User, error) {
	if err := validation.Required(
		validation.Field{Name: "name", Value: form.Name},
		validation.Field{Name: "email", Value: form.Email},
		validation.Field{Name: "phone", Value: form.Phone},
	); err != nil {
		return model.User{}, err
	}

	current, ok := d.session.Current()
	if !ok {
		return model.User{}, ErrNoSession
	}

	d.mu.Lock()
	users, err := d.load(ctx)
	if err != nil {
		d.mu.Unlock()
		return model.User{}, err
	}
	idx := -1
	for i, u := range users {
		if u.Email == form.Email && u.Email != current.Email {
			d.mu.Unlock()
			return model.User{}, ErrEmailTaken
		}
		if u.Email == current.Email {
			idx = i
		}
	}

	updated := current
	updated.Name = form.Name
	updated.Email = form.Email
	updated.Phone = form.Phone

	var save *mirror.Write
	if idx >= 0 {
		users[idx] = updated
		save = d.mirror.Stage(storage.KeyUsers, users)
	}
	d.mu.Unlock()

	var saveErr error
	if save != nil {
		saveErr = save.Commit(ctx)
	}
	sessionErr := d.session.SetCurrentUser(ctx, updated)

	return updated, errors.Join(saveErr, sessionErr)
}

func checkPassword(stored, given string) (ok bool, legacy bool) {
	if _, err := bcrypt.Cost([]byte(stored)); err == nil {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil, false
	}
	return stored != "" && stored == given, true
}
