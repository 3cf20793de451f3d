package services

import (
	"backoffice_app_go/models"
	"backoffice_app_go/services/realtime"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB initializes an in-memory SQLite database with every model.
// A single connection keeps all queries on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: string(hash),
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestSalarie(t *testing.T, db *gorm.DB, nom, prenom string) *models.Salarie {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	salarie := &models.Salarie{
		Nom:      nom,
		Prenom:   prenom,
		Email:    nom + "." + prenom + "@example.com",
		Password: string(hash),
		IsActive: true,
	}
	require.NoError(t, db.Create(salarie).Error)
	return salarie
}

// MockBroadcaster is a testify mock for realtime.Broadcaster
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) Publish(ctx context.Context, msg realtime.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockMailer is a testify mock for Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendNotification(ctx context.Context, to Recipient, n *models.Notification) error {
	args := m.Called(ctx, to, n)
	return args.Error(0)
}

// recordingBroadcaster keeps every published message
type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []realtime.Message
}

func (b *recordingBroadcaster) Publish(ctx context.Context, msg realtime.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	return nil
}

func (b *recordingBroadcaster) Messages() []realtime.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]realtime.Message(nil), b.messages...)
}

// testNow is the reference instant of the time-dependent tests
var testNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
