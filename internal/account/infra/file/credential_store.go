package file

import (
	"context"
	"errors"

	"github.com/dwikikusuma/farmgate/internal/account/domain"
	"github.com/dwikikusuma/farmgate/pkg/localstore"
)

// AuthKey is the durable key the token lives under.
const AuthKey = "auth"

type CredentialStore struct {
	docs *localstore.Store
}

func NewCredentialStore(docs *localstore.Store) *CredentialStore {
	return &CredentialStore{docs: docs}
}

func (s *CredentialStore) Load(ctx context.Context) (domain.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credentials{}, err
	}
	var c domain.Credentials
	err := s.docs.Get(AuthKey, &c)
	if errors.Is(err, localstore.ErrNotFound) {
		return domain.Credentials{}, nil
	}
	return c, err
}

func (s *CredentialStore) Save(ctx context.Context, c domain.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.docs.Put(AuthKey, c)
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.docs.Delete(AuthKey)
}
