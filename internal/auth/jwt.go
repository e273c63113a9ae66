package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer = "bitmine-api"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	clockSkew = 5 * time.Second
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidTokenType = errors.New("invalid token type")
)

type Claims struct {
	UserID    int64  `json:"uid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshToken is a freshly signed refresh JWT. Only Hash is persisted; Raw
// goes to the client in an HttpOnly cookie.
type RefreshToken struct {
	Raw       string
	ID        string
	Hash      string
	ExpiresAt time.Time
}

// Manager signs and verifies HS256 tokens with a single shared secret.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

func (m *Manager) GenerateAccessToken(userID int64, email, role string) (string, error) {
	now := time.Now().UTC()
	return m.sign(m.newClaims(userID, email, role, tokenTypeAccess, uuid.NewString(), now, now.Add(m.accessTTL)))
}

func (m *Manager) GenerateRefreshToken(userID int64, email, role string) (RefreshToken, error) {
	now := time.Now().UTC()
	t := RefreshToken{ID: uuid.NewString(), ExpiresAt: now.Add(m.refreshTTL)}

	raw, err := m.sign(m.newClaims(userID, email, role, tokenTypeRefresh, t.ID, now, t.ExpiresAt))
	if err != nil {
		return RefreshToken{}, err
	}

	t.Raw = raw
	t.Hash = m.HashRefreshToken(raw)
	return t, nil
}

func (m *Manager) newClaims(userID int64, email, role, typ, jti string, issuedAt, expiresAt time.Time) Claims {
	return Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
}

func (m *Manager) sign(c Claims) (string, error) {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", c.TokenType, err)
	}
	return s, nil
}

// parse verifies signature, issuer and expiry, then the token type.
func (m *Manager) parse(raw, wantType string) (*Claims, error) {
	var claims Claims

	_, err := m.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.TokenType != wantType {
		return nil, ErrInvalidTokenType
	}
	if claims.ID == "" || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (m *Manager) VerifyAccessToken(raw string) (*Claims, error) {
	return m.parse(raw, tokenTypeAccess)
}

func (m *Manager) VerifyRefreshToken(raw string) (*Claims, error) {
	return m.parse(raw, tokenTypeRefresh)
}

// HashRefreshToken is an HMAC keyed with the signing secret, so a leaked
// refresh_tokens table cannot be replayed.
func (m *Manager) HashRefreshToken(raw string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}
