package handlers

import (
	"backoffice_app_go/models"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSalarieHandler(t *testing.T) {
	app := setupApp(t)
	rh := createUser(t, app.DB, "leila", models.RoleRessourcesHumaines)
	token := sessionFor(t, app.DB, models.AudienceUser, rh.ID)

	body := map[string]string{
		"nom":      "Amrani",
		"prenom":   "Hicham",
		"email":    "H.Amrani@betconsulting.ma",
		"password": "chantier2026",
		"poste":    "Topographe",
	}

	rec := app.do(http.MethodPost, "/api/salaries", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var salarie models.Salarie
	decode(t, rec, &salarie)
	assert.Equal(t, "h.amrani@betconsulting.ma", salarie.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	// HR is asked to validate the new profile
	var stored models.Notification
	require.NoError(t, app.DB.First(&stored, "recipient_id = ?", rh.ID).Error)
	assert.Equal(t, models.NotificationTypeValidationProfileSalarie, stored.Type)

	rec = app.do(http.MethodPost, "/api/salaries", token, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.do(http.MethodPost, "/api/salaries", token, map[string]string{"nom": "X", "email": "pas-un-email", "password": "court"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")
}

func TestAssignTaskHandler(t *testing.T) {
	app := setupApp(t)
	chef := createUser(t, app.DB, "karim", models.RoleEtudesTechniques)
	salarie := createSalarie(t, app.DB, "Bennani", "Youssef")
	token := sessionFor(t, app.DB, models.AudienceUser, chef.ID)

	task := map[string]string{
		"tache_id": "T-7",
		"titre":    "Implantation des bornes",
		"projet":   "Lotissement Al Amal",
	}

	rec := app.do(http.MethodPost, "/api/salaries/"+salarie.ID+"/tasks", token, task)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Notification models.NotificationView `json:"notification"`
	}
	decode(t, rec, &body)
	assert.Equal(t, models.NotificationTypeTacheAssignee, body.Notification.Type)
	assert.Equal(t, "T-7", body.Notification.Text("tache_id"))
	require.NotNil(t, body.Notification.SourceUserID)
	assert.Equal(t, chef.ID, *body.Notification.SourceUserID)

	// Same task again while unread
	rec = app.do(http.MethodPost, "/api/salaries/"+salarie.ID+"/tasks", token, task)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"deduplicated":true}`, rec.Body.String())

	rec = app.do(http.MethodPost, "/api/salaries/missing/tasks", token, task)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(http.MethodPost, "/api/salaries/"+salarie.ID+"/tasks", token, map[string]string{"titre": "Sans id"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaveDecisionHandler(t *testing.T) {
	app := setupApp(t)
	rh := createUser(t, app.DB, "leila", models.RoleRessourcesHumaines)
	salarie := createSalarie(t, app.DB, "Bennani", "Youssef")
	token := sessionFor(t, app.DB, models.AudienceUser, rh.ID)

	rec := app.do(http.MethodPost, "/api/salaries/"+salarie.ID+"/leave-decisions", token, map[string]string{
		"conge_id":    "C-12",
		"type_conge":  "Congé annuel",
		"date_debut":  "2026-11-02",
		"date_fin":    "2026-11-06",
		"decision":    "refuse",
		"motif_refus": "Période de clôture",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var stored models.Notification
	require.NoError(t, app.DB.First(&stored, "recipient_id = ?", salarie.ID).Error)
	assert.Equal(t, models.NotificationTypeCongeDecision, stored.Type)
	assert.Equal(t, "Demande de congé refusée", stored.Title)

	rec = app.do(http.MethodPost, "/api/salaries/"+salarie.ID+"/leave-decisions", token, map[string]string{
		"conge_id":   "C-13",
		"date_debut": "2026-11-06",
		"date_fin":   "2026-11-02",
		"decision":   "accepte",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitProfileRequestHandler(t *testing.T) {
	app := setupApp(t)
	chef := createUser(t, app.DB, "karim", models.RoleEtudesTechniques)
	rh1 := createUser(t, app.DB, "leila", models.RoleRessourcesHumaines)
	rh2 := createUser(t, app.DB, "samira", models.RoleRessourcesHumaines)
	token := sessionFor(t, app.DB, models.AudienceUser, chef.ID)

	rec := app.do(http.MethodPost, "/api/profile-requests", token, map[string]interface{}{
		"demande_id":     "D-3",
		"titre":          "Deux géomètres",
		"urgence":        "haute",
		"nombre_profils": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"notifications_sent":2}`, rec.Body.String())

	var recipients []string
	app.DB.Model(&models.Notification{}).Where("type = ?", models.NotificationTypeNouvelleDemandeProfils).Pluck("recipient_id", &recipients)
	assert.ElementsMatch(t, []string{rh1.ID, rh2.ID}, recipients)

	rec = app.do(http.MethodPost, "/api/profile-requests", token, map[string]interface{}{"titre": "Sans id"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
