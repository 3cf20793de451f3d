package handlers

import (
	"backoffice_app_go/middleware"
	"backoffice_app_go/models"
	"backoffice_app_go/services"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// LoginRequest is the JSON body of both login endpoints
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// AuthHandler opens and closes sessions for one actor type.
type AuthHandler struct {
	DB       *gorm.DB
	Audience models.AudienceType
	// SecureCookie is set in production
	SecureCookie bool
	Monitor      *services.LoginMonitor
}

// Login checks the credentials and sets the session cookie
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Requête invalide")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email et mot de passe requis")
	}

	actorID, err := services.Authenticate(h.DB, h.Audience, req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		if h.Monitor != nil {
			h.Monitor.TrackFailedLogin(c.Request().Context(), c.RealIP())
		}
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"message": "Email ou mot de passe incorrect",
		})
	}
	if err != nil {
		log.Printf("Error during %s login: %v", h.Audience, err)
		return serverError(c, "Erreur lors de la connexion")
	}

	session, err := services.CreateSession(h.DB, h.Audience, actorID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return serverError(c, "Erreur lors de la création de la session")
	}
	middleware.SetSessionCookie(c, session, h.SecureCookie)
	services.LogSecurityEvent("LOGIN", string(h.Audience)+":"+actorID, c.RealIP())

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"actor": map[string]interface{}{
			"type": h.Audience,
			"id":   actorID,
		},
		"expires_at": session.ExpiresAt,
	})
}

// Logout deletes the current session
func (h *AuthHandler) Logout(c echo.Context) error {
	// Set by RequireActor for cookie and bearer sessions alike
	if session := middleware.GetSession(c); session != nil {
		if err := services.DeleteSession(h.DB, session.Token); err != nil {
			log.Printf("Error deleting session: %v", err)
		}
	}
	middleware.ClearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

// Me returns the authenticated actor
func Me(c echo.Context) error {
	actor := middleware.GetActor(c)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"type":  actor.Type,
		"id":    actor.ID,
		"name":  actor.Name,
		"email": actor.Email,
		"role":  actor.Role,
	})
}
