package services

import (
	"backoffice_app_go/models"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10
	// SessionTokenLength is the length of the session token in bytes (64 chars hex)
	SessionTokenLength = 32
	// DefaultSessionDuration is the default session duration (7 days)
	DefaultSessionDuration = 7 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// VerifyPassword verifies a password against a bcrypt hash
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// GenerateSessionToken generates a cryptographically secure random token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// Authenticate checks the credentials of a staff user or a salarie and
// returns the actor id. Unknown, inactive and wrong-password logins all
// yield ErrInvalidCredentials.
func Authenticate(db *gorm.DB, audience models.AudienceType, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var id, hash string
	var active bool
	var model interface{}

	switch audience {
	case models.AudienceUser:
		var u models.User
		if err := db.Where("LOWER(email) = ?", email).First(&u).Error; err != nil {
			return "", notFoundAsInvalid(err)
		}
		id, hash, active, model = u.ID, u.Password, u.IsActive, &u
	case models.AudienceSalarie:
		var s models.Salarie
		if err := db.Where("LOWER(email) = ?", email).First(&s).Error; err != nil {
			return "", notFoundAsInvalid(err)
		}
		id, hash, active, model = s.ID, s.Password, s.IsActive, &s
	default:
		return "", fmt.Errorf("unknown audience %q", audience)
	}

	if !active || !VerifyPassword(hash, password) {
		LogSecurityEvent("LOGIN_FAILED", string(audience), email)
		return "", ErrInvalidCredentials
	}

	if err := db.Model(model).Update("last_login_at", time.Now()).Error; err != nil {
		log.Printf("Warning: failed to update last login for %s %s: %v", audience, id, err)
	}
	return id, nil
}

// timingHash is compared against when the account does not exist, so
// unknown emails take as long as wrong passwords
var timingHash = func() string {
	hash, _ := HashPassword("dummy_password_for_timing_mitigation")
	return hash
}()

func notFoundAsInvalid(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		VerifyPassword(timingHash, "")
		return ErrInvalidCredentials
	}
	return fmt.Errorf("failed to load account: %w", err)
}

// CreateSession creates a new session for an actor
func CreateSession(db *gorm.DB, audience models.AudienceType, actorID, ipAddress, userAgent string) (*models.Session, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:        uuid.New().String(),
		ActorType: audience,
		ActorID:   actorID,
		Token:     token,
		ExpiresAt: time.Now().Add(DefaultSessionDuration),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	if err := db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// ValidateSession validates a session token and returns the session if valid
func ValidateSession(db *gorm.DB, token string) (*models.Session, error) {
	var session models.Session

	err := db.Where("token = ?", token).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	if session.IsExpired() {
		// Delete expired session
		db.Delete(&session)
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// DeleteSession deletes a session (logout)
func DeleteSession(db *gorm.DB, token string) error {
	result := db.Where("token = ?", token).Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	return nil
}

// CleanupExpiredSessions removes all expired sessions from the database
func CleanupExpiredSessions(db *gorm.DB) (int64, error) {
	result := db.Where("expires_at < ?", time.Now()).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d expired sessions", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// DeleteAllActorSessions deletes every session of one actor, e.g. when the
// account is deactivated.
func DeleteAllActorSessions(db *gorm.DB, audience models.AudienceType, actorID string) error {
	result := db.Where("actor_type = ? AND actor_id = ?", audience, actorID).Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete actor sessions: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("Deleted %d sessions for %s %s", result.RowsAffected, audience, actorID)
	}
	return nil
}

// LogSecurityEvent logs security-related events
func LogSecurityEvent(eventType, actor, details string) {
	log.Printf("[SECURITY] %s | Actor: %s | Details: %s", eventType, actor, details)
}
