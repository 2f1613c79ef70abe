package auth

import (
	"github.com/rahul-charaki/chat-app-be/pkg/jwt"
)

// Identity is the verified user behind a token.
type Identity struct {
	UserID   string
	Username string
}

// Verifier is the collaborator boundary the dispatcher authenticates
// against. Anything that can turn a token into an identity fits.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// Verification errors, re-exported so callers don't import pkg/jwt.
var (
	ErrInvalidToken = jwt.ErrInvalidToken
	ErrExpiredToken = jwt.ErrExpiredToken
)

// JWTVerifier verifies access tokens with the shared JWT manager.
type JWTVerifier struct {
	manager *jwt.Manager
}

// NewJWTVerifier creates a verifier backed by m.
func NewJWTVerifier(m *jwt.Manager) *JWTVerifier {
	return &JWTVerifier{manager: m}
}

// Verify checks the token signature, expiry and type.
func (v *JWTVerifier) Verify(token string) (*Identity, error) {
	claims, err := v.manager.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	if claims.Type != "access" {
		return nil, ErrInvalidToken
	}

	return &Identity{UserID: claims.UserID, Username: claims.Username}, nil
}
