package app

import (
	"context"

	"github.com/dwikikusuma/farmgate/internal/account/domain"
)

// Registrar creates the account on the backend and returns its token.
type Registrar interface {
	Register(ctx context.Context, req domain.RegisterRequest) (domain.Credentials, error)
}

// CredentialStore persists credentials across restarts. Load returns empty
// credentials when nothing is stored.
type CredentialStore interface {
	Load(ctx context.Context) (domain.Credentials, error)
	Save(ctx context.Context, c domain.Credentials) error
	Clear(ctx context.Context) error
}
