package auth

import (
	"crypto/subtle"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Authenticator verifies the owner login and issues tokens
type Authenticator struct {
	username     string
	passwordHash string
	tokens       *TokenManager
}

// NewAuthenticator creates an authenticator for a single owner account
func NewAuthenticator(username, passwordHash string, tokens *TokenManager) *Authenticator {
	return &Authenticator{username: username, passwordHash: passwordHash, tokens: tokens}
}

// Login checks the credentials and returns a signed token
func (a *Authenticator) Login(username, password string) (string, time.Time, error) {
	if a.passwordHash == "" || a.username == "" {
		return "", time.Time{}, ErrAuthNotConfigured
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := CheckPassword(password, a.passwordHash)
	if !userOK || !passOK {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return a.tokens.Issue(a.username, a.username)
}
