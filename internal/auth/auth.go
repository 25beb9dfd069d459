package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrUnknownRole  = errors.New("unknown role")
	ErrForbidden    = errors.New("insufficient permissions")
)

// DefaultTokenExpiry applies when no expiry is configured.
const DefaultTokenExpiry = 24 * time.Hour

// Claims is the verified identity carried by a request.
type Claims struct {
	Subject   string
	Role      Role
	ExpiresAt time.Time
}

// Service issues and verifies HS256 role tokens.
type Service struct {
	secret []byte
	expiry time.Duration
}

// NewService creates a token service. A zero expiry means DefaultTokenExpiry.
func NewService(secret string, expiry time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &Service{secret: []byte(secret), expiry: expiry}, nil
}

// GenerateToken signs a token for subject acting as role.
func (s *Service) GenerateToken(subject string, role Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken verifies a token and returns its claims. A leading
// "Bearer " is accepted.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	subject, _ := claims["sub"].(string)
	roleStr, _ := claims["role"].(string)
	role := Role(roleStr)
	if !role.Valid() {
		return nil, ErrInvalidToken
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		Subject:   subject,
		Role:      role,
		ExpiresAt: exp.Time,
	}, nil
}
