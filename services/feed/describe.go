package feed

import (
	"backoffice_app_go/models"
	"fmt"
	"strconv"
	"time"
)

// Detail is one labelled line of a notification's detail view.
type Detail struct {
	Label string
	Value string
}

// Description is what a feed shows for one notification.
type Description struct {
	ID             string
	Title          string
	Body           string
	Badge          string
	Icon           string
	Unread         bool
	ActionRequired bool
	CreatedAt      time.Time
	Details        []Detail
	Link           string
}

var priorityBadges = map[models.Priority]string{
	models.PriorityCritique: "Critique",
	models.PriorityUrgent:   "Urgent",
	models.PriorityNormal:   "Normal",
	models.PriorityInfo:     "Info",
}

var frenchMonths = [...]string{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."}

// Describe renders the category-specific view of v.
func Describe(a Audience, v models.NotificationView) Description {
	d := Description{
		ID:             v.ID,
		Title:          v.Title,
		Body:           v.Body,
		Badge:          priorityBadges[v.Priority],
		Icon:           icon(v),
		Unread:         !v.IsRead(),
		ActionRequired: v.ActionRequired,
		CreatedAt:      v.CreatedAt,
		Link:           a.Link(v),
	}

	add := func(label, value string) {
		if value != "" {
			d.Details = append(d.Details, Detail{Label: label, Value: value})
		}
	}

	switch v.Type {
	case models.NotificationTypeDocumentExpiration:
		add("Type", v.Text("document_type"))
		if days, ok := v.Int("days_until_expiration"); ok {
			add("Échéance", expiresIn(days))
		}
		add("Expire le", formatDate(v.Text("date_expiration")))

	case models.NotificationTypeTacheAssignee:
		add("Tâche", v.Text("tache_titre"))
		add("Projet", v.Text("projet"))
		add("Échéance", formatDate(v.Text("date_echeance")))

	case models.NotificationTypeCongeDecision:
		add("Type de congé", v.Text("type_conge"))
		add("Décision", decisionLabel(v.Text("decision")))
		if debut, fin := v.Text("date_debut"), v.Text("date_fin"); debut != "" && fin != "" {
			add("Période", fmt.Sprintf("Du %s au %s", formatDate(debut), formatDate(fin)))
		}
		add("Motif", v.Text("motif_refus"))

	case models.NotificationTypeMarcheDecision:
		add("Référence", v.Text("reference"))
		add("Objet", v.Text("objet"))
		add("Estimation", amount(v.Fields["estimation"]))
		add("Date limite", formatDate(v.Text("date_limite")))
		add("Décision", decisionLabel(v.Text("decision")))
		add("Motif", v.Text("motif_refus"))

	case models.NotificationTypeMarcheValidationAdmin:
		add("Référence", v.Text("reference"))
		add("Objet", v.Text("objet"))
		add("Service", v.Text("service_origine"))

	case models.NotificationTypeValidationProfileSalarie:
		add("Salarié", v.Text("salarie_nom"))
		add("Poste", v.Text("poste"))
		add("Statut", v.Text("validation_status"))
		add("Message", v.Text("validation_message"))

	case models.NotificationTypeNouvelleDemandeProfils:
		add("Demande", v.Text("titre_demande"))
		add("Demandeur", v.Text("demandeur"))
		add("Urgence", v.Text("urgence"))
		if n, ok := v.Int("nombre_profils"); ok {
			add("Profils", strconv.Itoa(n))
		}

	case models.NotificationTypeEntretienValidation:
		add("Candidat", v.Text("salarie_nom"))
		add("Poste", v.Text("poste_vise"))
		add("Date", formatDate(v.Text("date_entretien")))
		if pct, ok := v.Fields["pourcentage"].(float64); ok {
			add("Score", strconv.FormatFloat(pct, 'f', -1, 64)+" %")
		}
		add("Recommandation", v.Text("recommandation"))

	case models.NotificationTypeEntretienValide:
		add("Candidat", v.Text("salarie_nom"))
		if accepted, ok := v.Fields["accepte"].(bool); ok {
			decision := "Refusé"
			if accepted {
				decision = "Accepté"
			}
			add("Décision", decision)
		}

	case models.NotificationTypeEntretienRejete:
		add("Candidat", v.Text("salarie_nom"))
		add("Motif", v.Text("motif_rejet"))

	case models.NotificationTypeReferenceSoumise, models.NotificationTypeReferenceValidee, models.NotificationTypeReferenceRejetee:
		add("Fournisseur", v.Text("supplier_name"))
		add("Projet", v.Text("project_name"))
		add("Client", v.Text("client_name"))
		add("Commentaire", v.Text("validation_comment"))

	case models.NotificationTypeDocumentMethodologie:
		add("Fichier", v.Text("file_name"))
		add("Commentaire", v.Text("validator_comment"))
	}

	return d
}

func expiresIn(days int) string {
	switch {
	case days < 0:
		return "Expiré"
	case days == 0:
		return "Expire aujourd'hui"
	case days == 1:
		return "Expire demain"
	}
	return fmt.Sprintf("Expire dans %d jours", days)
}

func decisionLabel(decision string) string {
	switch decision {
	case models.MarcheDecisionAccepte:
		return "Accepté"
	case "":
		return ""
	}
	return "Refusé"
}

func icon(v models.NotificationView) string {
	switch v.Type {
	case models.NotificationTypeDocumentExpiration:
		return "file-text"
	case models.NotificationTypeTacheAssignee:
		return "briefcase"
	case models.NotificationTypeCongeDecision:
		if v.Text("decision") == models.MarcheDecisionAccepte {
			return "check-circle"
		}
		return "x-circle"
	case models.NotificationTypeValidationProfileSalarie, models.NotificationTypeNouvelleDemandeProfils,
		models.NotificationTypeEntretienValidation, models.NotificationTypeEntretienValide, models.NotificationTypeEntretienRejete:
		return "users"
	case models.NotificationTypeReferenceSoumise, models.NotificationTypeReferenceValidee, models.NotificationTypeReferenceRejetee,
		models.NotificationTypeDocumentMethodologie:
		return "file-text"
	}
	switch v.Priority {
	case models.PriorityCritique:
		return "alert-triangle"
	case models.PriorityUrgent:
		return "clock"
	}
	return "bell"
}

// formatDate turns an ISO date into "02 mars 2026"; anything else is
// returned unchanged.
func formatDate(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return s
		}
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
}

func amount(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', 2, 64) + " MAD"
	case string:
		return n
	}
	return ""
}
