package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/vendorverse/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ClientClaims identifies a browsing client. The subject carries the client id
// that namespaces the client's durable session and cart slots.
type ClientClaims struct {
	jwt.RegisteredClaims
}

// ClientID returns the client identifier carried by the token.
func (c *ClientClaims) ClientID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// NewClientID generates a fresh client identifier.
func NewClientID() string {
	return uuid.NewString()
}

// MintClientToken issues a signed token binding the bearer to clientID.
func MintClientToken(cfg config.ClientTokenConfig, now time.Time, clientID string) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("client token secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("client token issuer is required")
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return "", fmt.Errorf("client id is required")
	}

	claims := ClientClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   cfg.Issuer,
			Subject:  clientID,
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.NewString(),
		},
	}
	if ttl := cfg.TTL(); ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing client token: %w", err)
	}
	return signed, nil
}

// ParseClientToken validates the token string and returns its claims.
func ParseClientToken(cfg config.ClientTokenConfig, tokenString string) (*ClientClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("client token secret is required")
	}

	claims := &ClientClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("client token missing subject")
	}
	return claims, nil
}
