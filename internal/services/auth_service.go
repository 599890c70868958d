package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/compliance-registry/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrEmailTaken is returned by Signup for an already registered email.
	ErrEmailTaken = errors.New("user already exists")

	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// mismatched password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// SessionStore maps opaque bearer tokens to identities. Sessions live for the
// process lifetime only: they are never persisted or expired, and logout is
// the only invalidation path.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.AuthUser
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]models.AuthUser),
	}
}

// Create issues a fresh opaque token for the given identity.
func (s *SessionStore) Create(user models.AuthUser) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = user
	s.mu.Unlock()
	return token
}

// Get resolves a token to its identity.
func (s *SessionStore) Get(token string) (models.AuthUser, bool) {
	s.mu.RLock()
	user, ok := s.sessions[token]
	s.mu.RUnlock()
	return user, ok
}

// Delete invalidates a token. Deleting an unknown token is a no-op.
func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Signup registers a new account and opens a session for it.
func Signup(db *gorm.DB, store *SessionStore, email, password string) (models.AuthUser, string, error) {
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return models.AuthUser{}, "", ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AuthUser{}, "", fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.AuthUser{}, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           "user_" + uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.Create(&user).Error; err != nil {
		return models.AuthUser{}, "", fmt.Errorf("failed to create user: %w", err)
	}

	identity := models.AuthUser{ID: user.ID, Email: user.Email}
	return identity, store.Create(identity), nil
}

// Login verifies credentials and opens a session.
func Login(db *gorm.DB, store *SessionStore, email, password string) (models.AuthUser, string, error) {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AuthUser{}, "", ErrInvalidCredentials
		}
		return models.AuthUser{}, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.AuthUser{}, "", ErrInvalidCredentials
	}

	identity := models.AuthUser{ID: user.ID, Email: user.Email}
	return identity, store.Create(identity), nil
}

// Logout invalidates the given token.
func Logout(store *SessionStore, token string) {
	store.Delete(token)
}
