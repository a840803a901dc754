package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rentalhub/pkg/models"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const issuer = "rentalhub"

// Claims is the JWT payload carried by every authenticated request.
type Claims struct {
	IdentityID string `json:"identity_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *Manager) Generate(caller models.Caller) (string, error) {
	now := m.now()
	claims := &Claims{
		IdentityID: caller.IdentityID,
		Role:       string(caller.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.IdentityID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) Parse(tokenString string) (models.Caller, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return models.Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return models.Caller{}, ErrInvalidToken
	}

	role := models.Role(claims.Role)
	if claims.IdentityID == "" || !role.Valid() {
		return models.Caller{}, ErrInvalidToken
	}
	return models.Caller{IdentityID: claims.IdentityID, Role: role}, nil
}
