// Package auth implements PIN login for the two partners and optional
// bearer session tokens. Endpoints also accept an explicit user_id, so the
// token is a convenience, not a gate.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eojedapilchik/couples-app/internal/domain"
	"github.com/eojedapilchik/couples-app/internal/infra/sqlite"
)

// HashPIN hashes a PIN with bcrypt.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPIN checks a PIN against its stored hash.
func VerifyPIN(pin, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

// Service verifies PIN logins and issues session tokens.
type Service struct {
	db       *sqlite.DB
	secret   []byte
	tokenTTL time.Duration
}

// NewService creates an auth service. secret signs session tokens; an empty
// secret disables token issuance.
func NewService(db *sqlite.DB, secret string, tokenTTL time.Duration) *Service {
	return &Service{db: db, secret: []byte(secret), tokenTTL: tokenTTL}
}

// Login verifies a user's PIN and returns the user plus a session token
// (empty when token issuance is disabled).
func (s *Service) Login(userID int64, pin string) (*domain.User, string, error) {
	user, err := s.db.GetUser(userID)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", domain.NewErrorf(domain.CodeNotFound, "user %d not found", userID)
	}
	hash, ok, err := s.db.GetUserPinHash(userID)
	if err != nil {
		return nil, "", err
	}
	if !ok || !VerifyPIN(pin, hash) {
		return nil, "", domain.NewError(domain.CodeUnauthorizedActor, "incorrect PIN")
	}

	token := ""
	if len(s.secret) > 0 {
		token, err = s.issueToken(user)
		if err != nil {
			return nil, "", err
		}
	}
	return user, token, nil
}

// Users lists all users, for the login selection screen.
func (s *Service) Users() ([]domain.User, error) {
	return s.db.ListUsers()
}

func (s *Service) issueToken(user *domain.User) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	})
	return t.SignedString(s.secret)
}

// ParseToken validates a session token and returns the user id it names.
func (s *Service) ParseToken(token string) (int64, error) {
	if len(s.secret) == 0 {
		return 0, domain.NewError(domain.CodeUnauthorizedActor, "session tokens are disabled")
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.NewError(domain.CodeUnauthorizedActor, "unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, domain.WrapError(domain.CodeUnauthorizedActor, "invalid session token", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, domain.NewError(domain.CodeUnauthorizedActor, "invalid token claims")
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, domain.NewError(domain.CodeUnauthorizedActor, "invalid token subject")
	}
	return int64(sub), nil
}
