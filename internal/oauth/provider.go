package oauth

import (
	"context"
	"errors"

	"mediconnect/internal/domain"
)

var (
	ErrExchangeFailed = errors.New("oauth exchange failed")
	ErrProfileInvalid = errors.New("oauth profile invalid")
)

// Provider abstrae un proveedor de identidad externo.
type Provider interface {
	Name() domain.Provider
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (domain.ExternalProfile, error)
}
