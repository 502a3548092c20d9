package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/repository"
)

// IdentityFinder resolves a token subject back to a stored identity.
type IdentityFinder interface {
	FindByID(ctx context.Context, id string) (*model.Identity, error)
}

// Authenticator turns a bearer token into the identity it was issued for.
type Authenticator struct {
	verifier   *TokenVerifier
	identities IdentityFinder
}

func NewAuthenticator(verifier *TokenVerifier, identities IdentityFinder) *Authenticator {
	return &Authenticator{verifier: verifier, identities: identities}
}

// Authenticate rejects with ErrInvalidToken, ErrTokenExpired or ErrUnauthorized.
// Any other error is a storage failure.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*model.Identity, error) {
	claims, err := a.verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	identity, err := a.identities.FindByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}
	if !identity.IsActive() {
		return nil, ErrUnauthorized
	}
	return identity, nil
}
