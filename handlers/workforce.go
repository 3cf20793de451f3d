package handlers

import (
	"backoffice_app_go/middleware"
	"backoffice_app_go/models"
	"backoffice_app_go/services"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// WorkforceHandler serves the salarie, task, leave and profile request
// routes used by HR and project managers.
type WorkforceHandler struct {
	Service *services.WorkforceService
}

// dispatchFailed maps the common dispatch errors to a response
func dispatchFailed(c echo.Context, err error, what string) error {
	if validationFailed(c, err) {
		return nil
	}
	if errors.Is(err, services.ErrRecipientNotFound) {
		return notFound(c, "Salarié introuvable ou inactif")
	}
	log.Printf("Error %s: %v", what, err)
	return serverError(c, "Erreur lors de l'envoi de la notification")
}

func (h *WorkforceHandler) CreateSalarie(c echo.Context) error {
	var in services.CreateSalarieInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Requête invalide")
	}

	salarie, err := h.Service.CreateSalarie(c.Request().Context(), in)
	if err != nil && salarie == nil {
		if validationFailed(c, err) {
			return nil
		}
		if errors.Is(err, services.ErrEmailTaken) {
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"success": false,
				"message": "Cet email est déjà utilisé",
			})
		}
		log.Printf("Error creating salarie: %v", err)
		return serverError(c, "Erreur lors de la création du salarié")
	}
	if err != nil {
		log.Printf("Salarie %s created but HR was not notified: %v", salarie.ID, err)
	}
	return c.JSON(http.StatusCreated, salarie)
}

type assignTaskRequest struct {
	TacheID  string          `json:"tache_id"`
	Titre    string          `json:"titre"`
	Projet   string          `json:"projet"`
	Echeance string          `json:"date_echeance"`
	Priority models.Priority `json:"priority"`
}

// AssignTask notifies a salarie of a task assignment
func (h *WorkforceHandler) AssignTask(c echo.Context) error {
	actor := middleware.GetActor(c)

	var req assignTaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Requête invalide")
	}
	if req.TacheID == "" {
		return badRequest(c, "tache_id requis")
	}

	echeance, err := services.ParseDay(req.Echeance, h.Service.Location)
	if err != nil {
		return badRequest(c, err.Error())
	}

	n, created, err := h.Service.AssignTask(c.Request().Context(), c.Param("id"), services.TaskAssignment{
		TacheID:      req.TacheID,
		Titre:        req.Titre,
		Projet:       req.Projet,
		Echeance:     echeance,
		Priority:     req.Priority,
		AssignedByID: &actor.ID,
	})
	if err != nil {
		return dispatchFailed(c, err, "assigning task")
	}
	return notificationResult(c, n, created)
}

type leaveDecisionRequest struct {
	CongeID    string `json:"conge_id"`
	TypeConge  string `json:"type_conge"`
	DateDebut  string `json:"date_debut"`
	DateFin    string `json:"date_fin"`
	Decision   string `json:"decision"`
	MotifRefus string `json:"motif_refus"`
}

// LeaveDecision notifies a salarie of the answer to a leave request
func (h *WorkforceHandler) LeaveDecision(c echo.Context) error {
	actor := middleware.GetActor(c)

	var req leaveDecisionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Requête invalide")
	}
	debut, err := services.ParseDay(req.DateDebut, h.Service.Location)
	if err != nil || debut == nil {
		return badRequest(c, "date_debut invalide")
	}
	fin, err := services.ParseDay(req.DateFin, h.Service.Location)
	if err != nil || fin == nil {
		return badRequest(c, "date_fin invalide")
	}

	n, created, err := h.Service.NotifyLeaveDecision(c.Request().Context(), c.Param("id"), services.LeaveDecision{
		CongeID:    req.CongeID,
		TypeConge:  req.TypeConge,
		DateDebut:  *debut,
		DateFin:    *fin,
		Decision:   req.Decision,
		MotifRefus: req.MotifRefus,
		DecidedBy:  &actor.ID,
	})
	if err != nil {
		if errors.Is(err, services.ErrRecipientNotFound) {
			return notFound(c, "Salarié introuvable ou inactif")
		}
		if !validationFailed(c, err) {
			return badRequest(c, err.Error())
		}
		return nil
	}
	return notificationResult(c, n, created)
}

type profileRequestBody struct {
	DemandeID     string `json:"demande_id"`
	Titre         string `json:"titre"`
	Urgence       string `json:"urgence"`
	NombreProfils int    `json:"nombre_profils"`
}

// SubmitProfileRequest notifies HR of a staffing request
func (h *WorkforceHandler) SubmitProfileRequest(c echo.Context) error {
	actor := middleware.GetActor(c)

	var req profileRequestBody
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Requête invalide")
	}

	sent, err := h.Service.SubmitProfileRequest(c.Request().Context(), services.ProfileRequest{
		DemandeID:     req.DemandeID,
		Titre:         req.Titre,
		Demandeur:     actor.Name,
		Urgence:       req.Urgence,
		NombreProfils: req.NombreProfils,
	})
	if err != nil {
		return dispatchFailed(c, err, "submitting profile request")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":            true,
		"notifications_sent": len(sent),
	})
}

func notificationResult(c echo.Context, n *models.Notification, created bool) error {
	if !created {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":      true,
			"deduplicated": true,
		})
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":      true,
		"notification": n.View(),
	})
}
