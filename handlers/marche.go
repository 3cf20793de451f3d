package handlers

import (
	"backoffice_app_go/middleware"
	"backoffice_app_go/services"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// MarcheHandler serves the tender decision routes.
type MarcheHandler struct {
	Service *services.MarcheService
}

func (h *MarcheHandler) Get(c echo.Context) error {
	m, err := h.Service.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, services.ErrMarcheNotFound) {
		return notFound(c, "Marché non trouvé")
	}
	if err != nil {
		return serverError(c, "Erreur lors du chargement du marché")
	}
	return c.JSON(http.StatusOK, m)
}

// RecordDecision stores the general management's decision and notifies
// the technical studies team
func (h *MarcheHandler) RecordDecision(c echo.Context) error {
	actor := middleware.GetActor(c)

	var in services.MarcheDecisionInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Requête invalide")
	}
	in.DecidedByID = actor.ID

	m, sent, err := h.Service.RecordDecision(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		if validationFailed(c, err) {
			return nil
		}
		if errors.Is(err, services.ErrMarcheNotFound) {
			return notFound(c, "Marché non trouvé")
		}
		if errors.Is(err, services.ErrMarcheAlreadyDecided) {
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"success": false,
				"message": "Ce marché a déjà été traité",
			})
		}
		log.Printf("Error recording decision on marche %s: %v", c.Param("id"), err)
		return serverError(c, "Erreur lors de l'enregistrement de la décision")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":            true,
		"marche":             m,
		"notifications_sent": len(sent),
	})
}

type validationRequest struct {
	ServiceOrigine string `json:"service_origine"`
}

// RequestValidation asks the administrators to validate a tender
func (h *MarcheHandler) RequestValidation(c echo.Context) error {
	var req validationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Requête invalide")
	}

	sent, err := h.Service.RequestAdminValidation(c.Request().Context(), c.Param("id"), req.ServiceOrigine)
	if errors.Is(err, services.ErrMarcheNotFound) {
		return notFound(c, "Marché non trouvé")
	}
	if err != nil {
		log.Printf("Error requesting validation of marche %s: %v", c.Param("id"), err)
		return serverError(c, "Erreur lors de la demande de validation")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":            true,
		"notifications_sent": len(sent),
	})
}
