// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Invites signs and verifies the tokens a host hands out to let one guest
// join a table. The token's "sub" is the table id.
type Invites struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	ttl        time.Duration // 0 => tokens never expire
}

// NewInvites generates a fresh ed25519 key pair at runtime.
func NewInvites(ttl time.Duration) (*Invites, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &Invites{privateKey: priv, publicKey: pub, ttl: ttl}, nil
}

// NewInvitesFromPath reads ed25519 private/public keys from file.
func NewInvitesFromPath(privatePath, publicPath string, ttl time.Duration) (*Invites, error) {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(privateKeyData) != ed25519.PrivateKeySize || len(publicKeyData) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid ed25519 key sizes")
	}
	return &Invites{
		privateKey: ed25519.PrivateKey(privateKeyData),
		publicKey:  ed25519.PublicKey(publicKeyData),
		ttl:        ttl,
	}, nil
}

// Create signs an invite for the table.
func (i *Invites) Create(tableID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  tableID.String(),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(i.privateKey)
}

// Verify checks the signature and expiry and returns the table id.
func (i *Invites) Verify(tokenString string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	t, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.publicKey, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}

	tableID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid sub in jwt: %w", err)
	}
	return tableID, nil
}
