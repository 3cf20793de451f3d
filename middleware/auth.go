package middleware

import (
	"backoffice_app_go/models"
	"backoffice_app_go/services"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "backoffice_session"
	// ContextKeyActor is the context key for the authenticated actor
	ContextKeyActor = "actor"
	// ContextKeySession is the context key for the session
	ContextKeySession = "session"
)

// Actor is whoever owns the current session: a staff user or a salarie.
type Actor struct {
	Type  models.AudienceType
	ID    string
	Name  string
	Email string
	// Role is empty for salaries
	Role string
}

// sessionToken reads the session cookie, then an Authorization: Bearer
// header for clients that do not keep cookies.
func sessionToken(c echo.Context) (token string, fromCookie bool) {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	if bearer, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer "); ok {
		return strings.TrimSpace(bearer), false
	}
	return "", false
}

// RequireActor accepts only sessions of the given actor type. A staff
// session cannot reach employee routes and the other way round.
func RequireActor(db *gorm.DB, audience models.AudienceType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, fromCookie := sessionToken(c)
			if token == "" {
				return unauthorized(c)
			}

			session, err := services.ValidateSession(db, token)
			if err != nil {
				if fromCookie {
					ClearSessionCookie(c)
				}
				return unauthorized(c)
			}
			if session.ActorType != audience {
				return unauthorized(c)
			}

			actor, err := loadActor(db, session)
			if err != nil {
				if fromCookie {
					ClearSessionCookie(c)
				}
				return unauthorized(c)
			}

			c.Set(ContextKeyActor, actor)
			c.Set(ContextKeySession, session)
			return next(c)
		}
	}
}

func loadActor(db *gorm.DB, session *models.Session) (*Actor, error) {
	switch session.ActorType {
	case models.AudienceUser:
		var u models.User
		if err := db.First(&u, "id = ?", session.ActorID).Error; err != nil {
			return nil, err
		}
		if !u.IsActive {
			return nil, errors.New("account disabled")
		}
		return &Actor{Type: models.AudienceUser, ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}, nil
	case models.AudienceSalarie:
		var s models.Salarie
		if err := db.First(&s, "id = ?", session.ActorID).Error; err != nil {
			return nil, err
		}
		if !s.IsActive {
			return nil, errors.New("account disabled")
		}
		return &Actor{Type: models.AudienceSalarie, ID: s.ID, Name: s.FullName(), Email: s.Email}, nil
	}
	return nil, errors.New("unknown actor type")
}

// RequireRole is middleware that requires specific staff roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := GetActor(c)
			if actor == nil {
				return unauthorized(c)
			}

			for _, role := range roles {
				if actor.Role == role {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]interface{}{
				"success": false,
				"message": "Permissions insuffisantes",
			})
		}
	}
}

// GetActor retrieves the current actor from context
func GetActor(c echo.Context) *Actor {
	actor, ok := c.Get(ContextKeyActor).(*Actor)
	if !ok {
		return nil
	}
	return actor
}

// GetSession retrieves the current session from context
func GetSession(c echo.Context) *models.Session {
	session, ok := c.Get(ContextKeySession).(*models.Session)
	if !ok {
		return nil
	}
	return session
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]interface{}{
		"success": false,
		"message": "Authentification requise",
	})
}

// SetSessionCookie stores the session token in an HTTP-only cookie
func SetSessionCookie(c echo.Context, session *models.Session, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie clears the session cookie
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
