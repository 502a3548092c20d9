package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/duccv/movie-rating-api/config"
	"github.com/duccv/movie-rating-api/internal/apperror"
	"github.com/duccv/movie-rating-api/internal/auth"
	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/repository"
	"github.com/duccv/movie-rating-api/pkg/logger"
)

const (
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid email or password"
)

type TokenIssuer interface {
	Issue(identity *model.Identity) (auth.IssuedToken, error)
}

// Session is returned by register and login.
type Session struct {
	User      *model.Identity `json:"user"`
	Token     string          `json:"token"`
	ExpiresIn string          `json:"expiresIn"`
}

type AccountService struct {
	identities repository.IdentityRepository
	hasher     auth.PasswordHasher
	issuer     TokenIssuer
}

func NewAccountService(identities repository.IdentityRepository, hasher auth.PasswordHasher, issuer TokenIssuer) *AccountService {
	return &AccountService{identities: identities, hasher: hasher, issuer: issuer}
}

// Register stores a new user account and signs a token for it.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	identity, err := s.create(ctx, name, email, password, model.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.session(identity)
}

// Login reports unknown emails and wrong passwords with the same message.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	identity, err := s.identities.FindByEmail(ctx, model.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Authentication(msgInvalidCredentials)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	ok, err := s.hasher.Verify(password, identity.PasswordHash)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !ok || !identity.IsActive() {
		return nil, apperror.Authentication(msgInvalidCredentials)
	}
	return s.session(identity)
}

// EnsureAdmin creates the configured admin account when it does not exist yet.
// An empty email or password disables it.
func (s *AccountService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}
	log := logger.FromContext(ctx).With(zap.String("email", model.NormalizeEmail(cfg.Email)))

	existing, err := s.identities.FindByEmail(ctx, model.NormalizeEmail(cfg.Email))
	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin {
			log.Warn("Bootstrap admin email belongs to a non-admin account")
		}
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	name := cfg.Name
	if name == "" {
		name = "Administrator"
	}
	if _, err := s.create(ctx, name, cfg.Email, cfg.Password, model.RoleAdmin); err != nil {
		if apperror.IsKind(err, apperror.KindConflict) {
			return nil
		}
		return err
	}
	log.Info("Bootstrap admin account created")
	return nil
}

func (s *AccountService) create(ctx context.Context, name, email, password string, role model.Role) (*model.Identity, error) {
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, auth.ErrEmptyPassword) {
		return nil, apperror.Validation("password is required")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	identity := &model.Identity{
		Name:         name,
		Email:        model.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
		Status:       model.StatusActive,
	}
	err = s.identities.Create(ctx, identity)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperror.Conflict(msgUserExists)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return identity, nil
}

func (s *AccountService) session(identity *model.Identity) (*Session, error) {
	token, err := s.issuer.Issue(identity)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &Session{User: identity, Token: token.Token, ExpiresIn: token.ExpiresIn}, nil
}
