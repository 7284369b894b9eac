package auth

import (
	"encoding/json"

	"github.com/mmeshcher/restaurant-ordering/internal/model"
)

// ResolveRole возвращает business_owner только для корректной записи пользователя
// с ролью, в точности равной "business_owner". В остальных случаях возвращается user.
func ResolveRole(u *model.User) model.Role {
	if u == nil || u.Email == "" {
		return model.RoleUser
	}
	if u.Role == model.RoleBusinessOwner {
		return model.RoleBusinessOwner
	}
	return model.RoleUser
}

// ResolveRawRole применяет то же правило к роли в виде произвольного JSON-значения.
func ResolveRawRole(raw json.RawMessage) model.Role {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.RoleUser
	}
	if model.Role(s) == model.RoleBusinessOwner {
		return model.RoleBusinessOwner
	}
	return model.RoleUser
}

// storedUser повторяет model.User, но принимает роль любого типа:
// записи из старых версий могут не содержать её вовсе.
type storedUser struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Name     string          `json:"name"`
	Phone    string          `json:"phone"`
	Role     json.RawMessage `json:"role,omitempty"`
}

// normalize приводит запись к model.User. Второе значение true, если роль пришлось
// заменить на user (отсутствует, пустая или не строка).
func (s storedUser) normalize() (model.User, bool) {
	u := model.User{
		Email:    s.Email,
		Password: s.Password,
		Name:     s.Name,
		Phone:    s.Phone,
		Role:     model.RoleUser,
	}

	var role string
	if len(s.Role) == 0 || json.Unmarshal(s.Role, &role) != nil || role == "" {
		return u, true
	}

	u.Role = model.Role(role)
	return u, false
}
