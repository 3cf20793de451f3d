package handlers

import (
	"backoffice_app_go/middleware"
	"backoffice_app_go/models"
	"backoffice_app_go/services"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"
)

// DocumentHandler serves the compliance document routes.
type DocumentHandler struct {
	Service *services.DocumentService
}

// validationFailed answers 400 with the per-field messages of an ozzo error
func validationFailed(c echo.Context, err error) bool {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return false
	}
	fields := make(map[string]string, len(verrs))
	for k, v := range verrs {
		fields[k] = v.Error()
	}
	_ = c.JSON(http.StatusBadRequest, map[string]interface{}{
		"success": false,
		"message": "Données invalides",
		"errors":  fields,
	})
	return true
}

// formFile opens the optional "file" field. The caller closes the returned file.
func formFile(c echo.Context) (*services.DocumentFile, multipart.File, error) {
	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	src, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &services.DocumentFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      src,
	}, src, nil
}

// List returns active documents, or archived ones with ?archived=true
func (h *DocumentHandler) List(c echo.Context) error {
	return h.list(c, c.QueryParam("archived") == "true")
}

// Archive returns the documents superseded by a renewal
func (h *DocumentHandler) Archive(c echo.Context) error {
	return h.list(c, true)
}

func (h *DocumentHandler) list(c echo.Context, archived bool) error {
	filter := services.DocumentFilter{
		Archived:  archived,
		OwnerType: models.AudienceType(c.QueryParam("owner_type")),
		OwnerID:   c.QueryParam("owner_id"),
	}
	if raw := c.QueryParam("complementary"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "Paramètre complementary invalide")
		}
		filter.Complementary = &v
	}

	docs, err := h.Service.List(c.Request().Context(), filter)
	if err != nil {
		log.Printf("Error listing documents: %v", err)
		return serverError(c, "Erreur lors du chargement des documents")
	}
	return c.JSON(http.StatusOK, docs)
}

// ListOwn returns the salarie's own active documents
func (h *DocumentHandler) ListOwn(c echo.Context) error {
	actor := middleware.GetActor(c)
	docs, err := h.Service.List(c.Request().Context(), services.DocumentFilter{
		OwnerType: actor.Type,
		OwnerID:   actor.ID,
	})
	if err != nil {
		return serverError(c, "Erreur lors du chargement des documents")
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *DocumentHandler) Get(c echo.Context) error {
	doc, err := h.Service.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, services.ErrDocumentNotFound) {
		return notFound(c, "Document non trouvé")
	}
	if err != nil {
		return serverError(c, "Erreur lors du chargement du document")
	}
	return c.JSON(http.StatusOK, doc)
}

// File sends the document's file, redirecting to a signed link when the
// storage provides one
func (h *DocumentHandler) File(c echo.Context) error {
	_, dl, err := h.Service.Download(c.Request().Context(), c.Param("id"))
	return h.sendFile(c, dl, err)
}

// OwnFile is File restricted to the salarie's own documents
func (h *DocumentHandler) OwnFile(c echo.Context) error {
	actor := middleware.GetActor(c)
	doc, dl, err := h.Service.Download(c.Request().Context(), c.Param("id"))
	if doc != nil && (doc.OwnerType != actor.Type || doc.OwnerID != actor.ID) {
		if dl != nil && dl.Body != nil {
			dl.Body.Close()
		}
		return notFound(c, "Document non trouvé")
	}
	return h.sendFile(c, dl, err)
}

func (h *DocumentHandler) sendFile(c echo.Context, dl *services.DocumentDownload, err error) error {
	switch {
	case errors.Is(err, services.ErrDocumentNotFound):
		return notFound(c, "Document non trouvé")
	case errors.Is(err, services.ErrNoDocumentFile):
		return notFound(c, "Aucun fichier pour ce document")
	case err != nil:
		log.Printf("Error opening file of document %s: %v", c.Param("id"), err)
		return serverError(c, "Erreur lors de l'ouverture du fichier")
	}

	if dl.URL != "" {
		return c.Redirect(http.StatusFound, dl.URL)
	}
	defer dl.Body.Close()
	if dl.FileName != "" {
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", dl.FileName))
	}
	return c.Stream(http.StatusOK, dl.ContentType, dl.Body)
}

// Create uploads a new compliance document (multipart form)
func (h *DocumentHandler) Create(c echo.Context) error {
	actor := middleware.GetActor(c)

	expiresAt, err := services.ParseDay(c.FormValue("date_expiration"), h.Service.Location)
	if err != nil {
		return badRequest(c, err.Error())
	}
	complementary, _ := strconv.ParseBool(c.FormValue("is_complementary"))

	file, src, err := formFile(c)
	if err != nil {
		return badRequest(c, "Fichier illisible")
	}
	if src != nil {
		defer src.Close()
	}

	in := services.CreateDocumentInput{
		Type:            strings.TrimSpace(c.FormValue("type")),
		Code:            strings.TrimSpace(c.FormValue("code")),
		Periodicity:     c.FormValue("periodicite"),
		IsComplementary: complementary,
		ExpiresAt:       expiresAt,
		Notes:           c.FormValue("notes"),
		OwnerType:       models.AudienceType(c.FormValue("owner_type")),
		OwnerID:         c.FormValue("owner_id"),
		File:            file,
	}
	if in.OwnerID == "" {
		in.OwnerType, in.OwnerID = actor.Type, actor.ID
	}

	doc, err := h.Service.Create(c.Request().Context(), in)
	if err != nil {
		if validationFailed(c, err) {
			return nil
		}
		if errors.Is(err, services.ErrDocumentTypeExists) {
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"success": false,
				"message": "Un document actif de ce type existe déjà. Utilisez le renouvellement.",
			})
		}
		log.Printf("Error creating document %q: %v", in.Type, err)
		return serverError(c, "Erreur lors de l'enregistrement du document")
	}
	return c.JSON(http.StatusCreated, doc)
}

// Renew archives the document and creates its successor
func (h *DocumentHandler) Renew(c echo.Context) error {
	expiresAt, err := services.ParseDay(c.FormValue("date_expiration"), h.Service.Location)
	if err != nil {
		return badRequest(c, err.Error())
	}

	file, src, err := formFile(c)
	if err != nil {
		return badRequest(c, "Fichier illisible")
	}
	if src != nil {
		defer src.Close()
	}

	doc, err := h.Service.Renew(c.Request().Context(), c.Param("id"), services.RenewDocumentInput{
		ExpiresAt: expiresAt,
		Notes:     c.FormValue("notes"),
		File:      file,
	})
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, doc)
	case validationFailed(c, err):
		return nil
	case errors.Is(err, services.ErrDocumentNotFound):
		return notFound(c, "Document non trouvé")
	case errors.Is(err, services.ErrDocumentArchived):
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"success": false,
			"message": "Ce document a déjà été renouvelé",
		})
	}
	log.Printf("Error renewing document %s: %v", c.Param("id"), err)
	return serverError(c, "Erreur lors du renouvellement du document")
}

type expirationRow struct {
	models.Document
	DaysLeft        int             `json:"days_until_expiration"`
	Threshold       int             `json:"threshold_days"`
	Priority        models.Priority `json:"priority"`
	WithinThreshold bool            `json:"within_threshold"`
}

// Expirations lists dated documents with their days left
func (h *DocumentHandler) Expirations(c echo.Context) error {
	rows, err := h.Service.UpcomingExpirations(c.Request().Context(), h.Service.Now())
	if err != nil {
		return serverError(c, "Erreur lors du calcul des expirations")
	}

	out := make([]expirationRow, len(rows))
	for i, r := range rows {
		out[i] = expirationRow{
			Document:        r.Document,
			DaysLeft:        r.DaysLeft,
			Threshold:       r.Threshold,
			Priority:        r.Priority,
			WithinThreshold: r.WithinThreshold,
		}
	}
	return c.JSON(http.StatusOK, out)
}

// ExpirationReport downloads the expiration overview as a workbook
func (h *DocumentHandler) ExpirationReport(c echo.Context) error {
	now := h.Service.Now()
	buf, err := h.Service.ExpirationReport(c.Request().Context(), now)
	if err != nil {
		log.Printf("Error generating expiration report: %v", err)
		return serverError(c, "Erreur lors de la génération du rapport")
	}

	filename := fmt.Sprintf("expirations_%s.xlsx", now.Format(services.DateLayout))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
