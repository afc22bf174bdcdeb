package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
)

const issuer = "cloudkitchen"

// refreshTokenType marks tokens that may only be exchanged at the refresh
// endpoint. Access tokens leave Type empty.
const refreshTokenType = "refresh"

// defaultRefreshTTL applies when WithRefreshTTL is not given.
const defaultRefreshTTL = 7 * 24 * time.Hour

// Claims defines the structured data we store in the JWT. For restaurant
// tokens UserID holds the restaurant id.
type Claims struct {
	UserID uuid.UUID   `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	Type   string      `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token carries one of roles.
func (c *Claims) HasRole(roles ...domain.Role) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// Option configures a TokenManager.
type Option func(*TokenManager)

// WithRoleTTL overrides the token lifetime for one role.
func WithRoleTTL(role domain.Role, ttl time.Duration) Option {
	return func(tm *TokenManager) {
		if ttl > 0 {
			tm.roleTTL[role] = ttl
		}
	}
}

// WithRefreshTTL sets the lifetime of refresh tokens.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(tm *TokenManager) {
		if ttl > 0 {
			tm.refreshTTL = ttl
		}
	}
}

type TokenManager struct {
	secretKey  []byte
	ttl        time.Duration
	roleTTL    map[domain.Role]time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration, opts ...Option) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	tm := &TokenManager{
		secretKey:  []byte(secret),
		ttl:        ttl,
		roleTTL:    make(map[domain.Role]time.Duration),
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// TTL returns the lifetime of tokens issued for role.
func (tm *TokenManager) TTL(role domain.Role) time.Duration {
	if ttl, ok := tm.roleTTL[role]; ok {
		return ttl
	}
	return tm.ttl
}

// RefreshTTL returns the lifetime of refresh tokens.
func (tm *TokenManager) RefreshTTL() time.Duration {
	return tm.refreshTTL
}

// GenerateToken creates a new JWT access token
func (tm *TokenManager) GenerateToken(subjectID uuid.UUID, email string, role domain.Role) (string, error) {
	return tm.sign(subjectID, email, role, "", tm.TTL(role))
}

// GenerateRefreshToken creates a long-lived token that can only be exchanged
// for a new access token.
func (tm *TokenManager) GenerateRefreshToken(subjectID uuid.UUID, email string, role domain.Role) (string, error) {
	return tm.sign(subjectID, email, role, refreshTokenType, tm.refreshTTL)
}

func (tm *TokenManager) sign(subjectID uuid.UUID, email string, role domain.Role, typ string, ttl time.Duration) (string, error) {
	now := tm.now()
	claims := &Claims{
		UserID: subjectID,
		Email:  email,
		Role:   role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subjectID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secretKey)
}

// ValidateToken parses and validates an access token. Refresh tokens are
// rejected.
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := tm.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != "" {
		return nil, errors.New("not an access token")
	}
	return claims, nil
}

// ValidateRefreshToken parses and validates a refresh token.
func (tm *TokenManager) ValidateRefreshToken(tokenString string) (*Claims, error) {
	claims, err := tm.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != refreshTokenType {
		return nil, errors.New("not a refresh token")
	}
	return claims, nil
}

func (tm *TokenManager) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secretKey, nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !claims.Role.IsValid() {
		return nil, errors.New("token carries an unknown role")
	}

	return claims, nil
}
