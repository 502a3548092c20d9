package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/duccv/movie-rating-api/internal/model"
)

// DefaultTokenTTL is the lifetime of an access token.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrUnauthorized = errors.New("unauthorized")
)

// Claims is the signed payload: sub, iat, exp and a random jti.
type Claims struct {
	jwt.RegisteredClaims
}

type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresIn string    `json:"expiresIn"`
	ExpiresAt time.Time `json:"-"`
}

type tokenOptions struct {
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type TokenOption func(*tokenOptions)

func WithTTL(ttl time.Duration) TokenOption {
	return func(o *tokenOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

func WithIssuer(issuer string) TokenOption {
	return func(o *tokenOptions) {
		o.issuer = issuer
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(o *tokenOptions) {
		o.now = now
	}
}

func buildOptions(opts []TokenOption) tokenOptions {
	o := tokenOptions{ttl: DefaultTokenTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TokenIssuer signs RS256 access tokens.
type TokenIssuer struct {
	key *rsa.PrivateKey
	tokenOptions
}

func NewTokenIssuer(key *rsa.PrivateKey, opts ...TokenOption) *TokenIssuer {
	return &TokenIssuer{key: key, tokenOptions: buildOptions(opts)}
}

func (i *TokenIssuer) Issue(identity *model.Identity) (IssuedToken, error) {
	if identity == nil || identity.ID == "" {
		return IssuedToken{}, errors.New("issue token: identity without id")
	}

	jti, err := newJTI()
	if err != nil {
		return IssuedToken{}, err
	}

	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(i.key)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return IssuedToken{Token: signed, ExpiresIn: TTLLabel(i.ttl), ExpiresAt: expiresAt}, nil
}

// TTLLabel renders whole days as "1d", "2d"; anything else uses time.Duration formatting.
func TTLLabel(ttl time.Duration) string {
	const day = 24 * time.Hour
	if ttl > 0 && ttl%day == 0 {
		return fmt.Sprintf("%dd", ttl/day)
	}
	return ttl.String()
}

func newJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jti: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// TokenVerifier checks signature, algorithm and expiry of RS256 tokens.
type TokenVerifier struct {
	key    *rsa.PublicKey
	parser *jwt.Parser
}

func NewTokenVerifier(key *rsa.PublicKey, opts ...TokenOption) *TokenVerifier {
	o := buildOptions(opts)

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(o.now),
	}
	if o.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(o.issuer))
	}
	return &TokenVerifier{key: key, parser: jwt.NewParser(parserOpts...)}
}

// Verify returns the claims of a valid token. The signature is checked before
// expiry, so a forged expired token is reported as ErrInvalidToken.
func (v *TokenVerifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
