package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	"github.com/dwikikusuma/farmgate/internal/account/domain"
	"github.com/dwikikusuma/farmgate/pkg/logger"
)

var (
	ErrWeakPassword  = fmt.Errorf("password must be at least %d characters", domain.MinPasswordLength)
	ErrInvalidEmail  = errors.New("a valid email is required to create an account")
	ErrMissingName   = errors.New("name is required to create an account")
	ErrNoTokenIssued = errors.New("registration returned no token")
)

// Service registers guest customers and holds the resulting bearer token.
type Service struct {
	registrar Registrar
	store     CredentialStore
	log       *slog.Logger

	mu    sync.RWMutex
	creds domain.Credentials
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = logger.OrDefault(l) }
}

// WithStore persists the token so it survives a restart.
func WithStore(cs CredentialStore) Option {
	return func(s *Service) { s.store = cs }
}

func NewService(registrar Registrar, opts ...Option) *Service {
	s := &Service{registrar: registrar, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads stored credentials. A failing store is logged and the
// service starts signed out.
func (s *Service) Restore(ctx context.Context) {
	if s.store == nil {
		return
	}
	c, err := s.store.Load(ctx)
	if err != nil {
		s.log.Warn("failed to restore credentials", slog.Any("err", err))
		return
	}
	s.mu.Lock()
	s.creds = c
	s.mu.Unlock()
}

// Token returns the current bearer token, or "". It has the shape of
// httpclient.TokenFunc.
func (s *Service) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Token
}

func (s *Service) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.User, !s.creds.Empty()
}

func Validate(req domain.RegisterRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return ErrMissingName
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		return ErrInvalidEmail
	}
	if len(req.Password) < domain.MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// Register creates the account and keeps its token. A token that cannot be
// persisted is still used for this process.
func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.User, error) {
	if err := Validate(req); err != nil {
		return domain.User{}, err
	}

	creds, err := s.registrar.Register(ctx, req)
	if err != nil {
		return domain.User{}, fmt.Errorf("register account: %w", err)
	}
	if creds.Empty() {
		return domain.User{}, ErrNoTokenIssued
	}

	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Save(ctx, creds); err != nil {
			s.log.Warn("failed to persist credentials", slog.Any("err", err))
		}
	}
	s.log.Info("account registered", slog.String("user_id", creds.User.ID))
	return creds.User, nil
}

// SignOut forgets the token here and in the store.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.creds = domain.Credentials{}
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Clear(ctx)
}
