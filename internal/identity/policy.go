package identity

import (
	"context"
	"fmt"

	"github.com/mmeshcher/dosirak-shop/internal/model"
)

// RoleAdmin: роль администратора в таблице ролей.
const RoleAdmin = "admin"

// AdminPolicy определяет, является ли пользователь администратором.
type AdminPolicy interface {
	IsAdmin(ctx context.Context, p model.UserProfile) (bool, error)
}

// EmailPolicy признаёт администратором только пользователя с точно совпадающим адресом.
type EmailPolicy struct {
	Email string
}

// IsAdmin сравнивает адрес побайтово, с учётом регистра.
func (p EmailPolicy) IsAdmin(_ context.Context, u model.UserProfile) (bool, error) {
	return p.Email != "" && u.Email == p.Email, nil
}

// RoleStore хранит роли пользователей.
type RoleStore interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
	GrantRole(ctx context.Context, userID, role string) error
}

// RolePolicy ищет роль администратора по идентификатору пользователя.
// BootstrapEmail получает роль при первом входе.
type RolePolicy struct {
	Roles          RoleStore
	BootstrapEmail string
}

// IsAdmin проверяет наличие роли администратора.
func (p RolePolicy) IsAdmin(ctx context.Context, u model.UserProfile) (bool, error) {
	if p.BootstrapEmail != "" && u.Email == p.BootstrapEmail {
		if err := p.Roles.GrantRole(ctx, u.ID, RoleAdmin); err != nil {
			return false, fmt.Errorf("bootstrap admin role: %w", err)
		}
	}
	return p.Roles.HasRole(ctx, u.ID, RoleAdmin)
}
