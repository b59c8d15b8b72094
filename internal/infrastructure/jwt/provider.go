package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/parishpush/internal/config"
)

// Claims holds the JWT payload fields. ParishID is set for parish accounts
// and names the parish the account manages.
type Claims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	ParishID string `json:"parish_id,omitempty"`
	jwt.RegisteredClaims
}

// ErrSigningDisabled is returned by Sign on a verify-only provider.
var ErrSigningDisabled = errors.New("jwt signing key not configured")

// Provider verifies RS256 JWTs issued by the account service. It signs only
// when a private key is available, which local tooling and tests rely on.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	expiry     time.Duration
}

// NewProvider loads the public key from JWTPublicKeyPath. The private key is
// optional: a missing file yields a verify-only provider.
func NewProvider(cfg *config.Config) (*Provider, error) {
	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	var privKey *rsa.PrivateKey
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read private key: %w", err)
	default:
		if privKey, err = jwt.ParseRSAPrivateKeyFromPEM(privBytes); err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
	}
	return NewProviderFromKeys(privKey, pubKey, cfg.JWTExpiry), nil
}

func NewProviderFromKeys(priv *rsa.PrivateKey, pub *rsa.PublicKey, expiry time.Duration) *Provider {
	return &Provider{privateKey: priv, publicKey: pub, expiry: expiry}
}

// Sign issues a token for userID. parishID is empty for followers.
func (p *Provider) Sign(userID, role, parishID string) (string, error) {
	if p.privateKey == nil {
		return "", ErrSigningDisabled
	}
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Role:     role,
		ParishID: parishID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(p.privateKey)
}

// Verify accepts RS256 tokens carrying a user id.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return p.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user")
	}
	return claims, nil
}
