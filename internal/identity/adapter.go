package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/dosirak-shop/internal/model"
)

// Provider: внешний провайдер идентификации.
type Provider interface {
	SignInInteractive(ctx context.Context, in SignInRequest) (string, error)
}

// ProfileStore сохраняет профили пользователей.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, p model.UserProfile) error
}

// Adapter выполняет вход через провайдера и вычисляет признак администратора.
type Adapter struct {
	provider Provider
	verifier *Verifier
	profiles ProfileStore
	policy   AdminPolicy
	logger   *zap.Logger

	inflight sync.Map
}

// NewAdapter создаёт адаптер. provider может быть nil, если вход не настроен.
func NewAdapter(provider Provider, verifier *Verifier, profiles ProfileStore, policy AdminPolicy, logger *zap.Logger) *Adapter {
	return &Adapter{
		provider: provider,
		verifier: verifier,
		profiles: profiles,
		policy:   policy,
		logger:   logger,
	}
}

// SignIn выполняет вход для сессии key. Параллельный вход той же сессии
// отклоняется с кодом cancelled-popup-request.
func (a *Adapter) SignIn(ctx context.Context, key string, in SignInRequest) (model.UserProfile, error) {
	if a.provider == nil {
		return model.UserProfile{}, &Error{Code: CodeOperationNotAllowed}
	}

	if _, busy := a.inflight.LoadOrStore(key, struct{}{}); busy {
		return model.UserProfile{}, &Error{Code: CodeCancelledPopup}
	}
	defer a.inflight.Delete(key)

	token, err := a.provider.SignInInteractive(ctx, in)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return model.UserProfile{}, &Error{Code: CodePopupClosed}
		}
		return model.UserProfile{}, err
	}

	profile, err := a.verifier.Verify(token)
	if err != nil {
		return model.UserProfile{}, err
	}

	if err := a.profiles.UpsertProfile(ctx, profile); err != nil {
		return model.UserProfile{}, fmt.Errorf("save profile: %w", err)
	}

	profile.IsAdmin, err = a.policy.IsAdmin(ctx, profile)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("resolve admin: %w", err)
	}

	a.logger.Info("user signed in",
		zap.String("uid", profile.ID),
		zap.Bool("admin", profile.IsAdmin),
	)
	return profile, nil
}
