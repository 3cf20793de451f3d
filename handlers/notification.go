package handlers

import (
	"backoffice_app_go/middleware"
	"backoffice_app_go/models"
	"backoffice_app_go/services"
	"backoffice_app_go/services/realtime"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	defaultStreamKeepAlive = 15 * time.Second
	maxListLimit           = 200
)

// NotificationHandler serves one audience's feed endpoints. Staff and
// salaries each get an instance mounted on their own prefix.
type NotificationHandler struct {
	Service   *services.NotificationService
	Hub       *realtime.Hub
	Audience  models.AudienceType
	KeepAlive time.Duration
}

func NewNotificationHandler(service *services.NotificationService, hub *realtime.Hub, audience models.AudienceType) *NotificationHandler {
	return &NotificationHandler{
		Service:   service,
		Hub:       hub,
		Audience:  audience,
		KeepAlive: defaultStreamKeepAlive,
	}
}

func views(notifications []models.Notification) []models.NotificationView {
	out := make([]models.NotificationView, len(notifications))
	for i := range notifications {
		out[i] = notifications[i].View()
	}
	return out
}

func notFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func serverError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// List returns the actor's notifications, most recent first
func (h *NotificationHandler) List(c echo.Context) error {
	actor := middleware.GetActor(c)

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return badRequest(c, "Paramètre limit invalide")
		}
		limit = min(n, maxListLimit)
	}

	notifications, err := h.Service.List(c.Request().Context(), h.Audience, actor.ID, limit)
	if err != nil {
		log.Printf("Error listing notifications for %s %s: %v", h.Audience, actor.ID, err)
		return serverError(c, "Erreur lors du chargement des notifications")
	}
	return c.JSON(http.StatusOK, views(notifications))
}

// Unread returns a preview of unread notifications with the total count
func (h *NotificationHandler) Unread(c echo.Context) error {
	actor := middleware.GetActor(c)
	ctx := c.Request().Context()

	notifications, err := h.Service.GetUnreadNotifications(ctx, h.Audience, actor.ID, services.DefaultUnreadPreviewLimit)
	if err != nil {
		log.Printf("Error listing unread notifications for %s %s: %v", h.Audience, actor.ID, err)
		return serverError(c, "Erreur lors du chargement des notifications")
	}
	count, err := h.Service.GetNotificationCount(ctx, h.Audience, actor.ID)
	if err != nil {
		return serverError(c, "Erreur lors du comptage des notifications")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": views(notifications),
		"unread_count":  count,
	})
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	actor := middleware.GetActor(c)

	count, err := h.Service.GetNotificationCount(c.Request().Context(), h.Audience, actor.ID)
	if err != nil {
		return serverError(c, "Erreur lors du comptage des notifications")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"unread_count": count})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	actor := middleware.GetActor(c)

	n, err := h.Service.MarkAsRead(c.Request().Context(), h.Audience, actor.ID, c.Param("id"))
	if errors.Is(err, services.ErrNotificationNotFound) {
		return notFound(c, "Notification non trouvée")
	}
	if err != nil {
		log.Printf("Error marking notification %s as read: %v", c.Param("id"), err)
		return serverError(c, "Erreur lors du marquage de la notification")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"notification": map[string]interface{}{
			"id":      n.ID,
			"read_at": n.ReadAt,
		},
	})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	actor := middleware.GetActor(c)

	updated, err := h.Service.MarkAllAsRead(c.Request().Context(), h.Audience, actor.ID)
	if err != nil {
		log.Printf("Error marking all notifications as read for %s %s: %v", h.Audience, actor.ID, err)
		return serverError(c, "Erreur lors du marquage des notifications")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":       true,
		"updated_count": updated,
	})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	actor := middleware.GetActor(c)

	err := h.Service.Delete(c.Request().Context(), h.Audience, actor.ID, c.Param("id"))
	if errors.Is(err, services.ErrNotificationNotFound) {
		return notFound(c, "Notification non trouvée")
	}
	if err != nil {
		log.Printf("Error deleting notification %s: %v", c.Param("id"), err)
		return serverError(c, "Erreur lors de la suppression de la notification")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Notification supprimée",
	})
}

// Stream pushes the actor's private channel as Server-Sent Events until
// the client disconnects.
func (h *NotificationHandler) Stream(c echo.Context) error {
	actor := middleware.GetActor(c)
	channel := realtime.ChannelName(h.Audience, actor.ID)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	clientID, events := h.Hub.Subscribe(channel)
	defer h.Hub.Unsubscribe(channel, clientID)
	log.Printf("[REALTIME] %s subscribed to %s", clientID, channel)

	if _, err := fmt.Fprint(res, ": connected\n\n"); err != nil {
		return nil
	}
	res.Flush()

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = defaultStreamKeepAlive
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	done := c.Request().Context().Done()
	for {
		select {
		case <-done:
			log.Printf("[REALTIME] %s left %s", clientID, channel)
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": keepalive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case msg, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", msg.Event, msg.Data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

// CreateNotificationRequest is the body of the admin manual notification
type CreateNotificationRequest struct {
	AudienceType   models.AudienceType `json:"audience_type"`
	RecipientID    string              `json:"recipient_id"`
	Title          string              `json:"titre"`
	Body           string              `json:"commentaire"`
	Priority       models.Priority     `json:"priority"`
	ActionRequired bool                `json:"action_required"`
}

// CreateNotificationHandler lets an administrator send a free-form
// notification to one staff user or salarie.
func CreateNotificationHandler(dispatcher *services.Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor := middleware.GetActor(c)
		ctx := c.Request().Context()

		var req CreateNotificationRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "Requête invalide")
		}
		if req.AudienceType == "" {
			req.AudienceType = models.AudienceUser
		}
		if !req.AudienceType.Valid() {
			return badRequest(c, "Type de destinataire invalide")
		}

		recipient, err := dispatcher.Directory.FindRecipient(ctx, req.AudienceType, req.RecipientID)
		if errors.Is(err, services.ErrRecipientNotFound) {
			return notFound(c, "Destinataire introuvable")
		}
		if err != nil {
			return serverError(c, "Erreur lors de la recherche du destinataire")
		}

		n, _, err := dispatcher.Dispatch(ctx, recipient, services.GenericPayload(services.GenericInput{
			Title:          req.Title,
			Body:           req.Body,
			Priority:       req.Priority,
			ActionRequired: req.ActionRequired,
			SourceUserID:   &actor.ID,
		}))
		if err != nil {
			return badRequest(c, err.Error())
		}

		return c.JSON(http.StatusCreated, map[string]interface{}{
			"success":      true,
			"notification": n.View(),
		})
	}
}
