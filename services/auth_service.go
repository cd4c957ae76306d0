package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrLoginDisabled   = errors.New("admin login is not configured")
	ErrInvalidToken    = errors.New("invalid token")
)

const adminSubject = "admin"

// AuthService is the single static-password gate in front of the admin API.
type AuthService struct {
	passwordHash []byte
	jwtSecret    []byte
	ttl          time.Duration
	now          func() time.Time
}

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewAuthService accepts either a plain password or a bcrypt hash. An empty
// password disables login.
func NewAuthService(password, jwtSecret string, ttl time.Duration) (*AuthService, error) {
	a := &AuthService{jwtSecret: []byte(jwtSecret), ttl: ttl, now: time.Now}
	switch {
	case password == "":
	case strings.HasPrefix(password, "$2a$"), strings.HasPrefix(password, "$2b$"), strings.HasPrefix(password, "$2y$"):
		if _, err := bcrypt.Cost([]byte(password)); err != nil {
			return nil, fmt.Errorf("admin password hash: %w", err)
		}
		a.passwordHash = []byte(password)
	default:
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		a.passwordHash = hash
	}
	return a, nil
}

// Login exchanges the admin password for a signed token.
func (a *AuthService) Login(req *LoginRequest) (string, error) {
	if a.passwordHash == nil {
		return "", ErrLoginDisabled
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(req.Password)); err != nil {
		return "", ErrInvalidPassword
	}
	return a.generateToken()
}

func (a *AuthService) generateToken() (string, error) {
	now := a.now()
	claims := Claims{
		Role: adminSubject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// ValidateToken checks signature, algorithm and expiry.
func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid || claims.Role != adminSubject {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
