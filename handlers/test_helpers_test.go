package handlers

import (
	"backoffice_app_go/models"
	"backoffice_app_go/services"
	"backoffice_app_go/services/realtime"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "password123"

// setupTestDB opens a private shared-cache in-memory database so the
// background deliveries and the SSE stream see the same data as the test.
func setupTestDB(t *testing.T) *gorm.DB {
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, testDB.AutoMigrate(models.All()...))
	return testDB
}

type testApp struct {
	App
	Echo *echo.Echo
}

func setupApp(t *testing.T) *testApp {
	testDB := setupTestDB(t)
	hub := realtime.NewHub()
	dispatcher := services.NewDispatcher(testDB, hub)
	t.Cleanup(dispatcher.Wait)

	loc := time.UTC
	app := App{
		DB:            testDB,
		Hub:           hub,
		Dispatcher:    dispatcher,
		Notifications: services.NewNotificationService(testDB),
		Documents:     services.NewDocumentService(testDB, services.NewLocalStorage(t.TempDir()), services.DefaultThresholdPolicy(), loc),
		Marches:       services.NewMarcheService(testDB, dispatcher, loc),
		Workforce:     services.NewWorkforceService(testDB, dispatcher, loc),
		LoginMonitor:  services.NewLoginMonitor(),
	}

	e := echo.New()
	RegisterRoutes(e, app)
	return &testApp{App: app, Echo: e}
}

func createUser(t *testing.T, testDB *gorm.DB, name, role string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Name: name, Email: name + "@betconsulting.ma", Password: string(hash), Role: role, IsActive: true}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createSalarie(t *testing.T, testDB *gorm.DB, nom, prenom string) *models.Salarie {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	salarie := &models.Salarie{Nom: nom, Prenom: prenom, Email: nom + "." + prenom + "@betconsulting.ma", Password: string(hash), IsActive: true}
	require.NoError(t, testDB.Create(salarie).Error)
	return salarie
}

// sessionFor opens a session directly, bypassing the rate limited login
func sessionFor(t *testing.T, testDB *gorm.DB, audience models.AudienceType, id string) string {
	session, err := services.CreateSession(testDB, audience, id, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	return session.Token
}

func createNotification(t *testing.T, testDB *gorm.DB, audience models.AudienceType, recipientID, title string, age time.Duration) *models.Notification {
	n := &models.Notification{
		AudienceType: audience,
		RecipientID:  recipientID,
		Type:         models.NotificationTypeGeneric,
		Title:        title,
		Priority:     models.PriorityInfo,
		CreatedAt:    time.Now().Add(-age),
	}
	require.NoError(t, testDB.Create(n).Error)
	return n
}

// do runs one request through the router
func (a *testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "backoffice_session", Value: token})
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
