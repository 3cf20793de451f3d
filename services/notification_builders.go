package services

import (
	"backoffice_app_go/models"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

const displayDateLayout = "02/01/2006"

// textPolicy strips every tag from user-entered notification text
var textPolicy = bluemonday.StrictPolicy()

func sanitizeText(s string) string {
	// StrictPolicy escapes entities; the feed renders plain text
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func isoDate(t *time.Time, loc *time.Location) any {
	if t == nil {
		return nil
	}
	return t.In(locOrUTC(loc)).Format("2006-01-02")
}

// DocumentExpirationPayload warns the owner of a document expiring in days.
func DocumentExpirationPayload(doc *models.Document, days int, loc *time.Location) Payload {
	priority := DocumentExpirationScale.FromDays(days)

	var title, action string
	switch priority {
	case models.PriorityCritique:
		title = "Document expire très bientôt !"
		action = " Action immédiate requise pour éviter toute interruption."
	case models.PriorityUrgent:
		title = "Action requise - Document bientôt expiré"
		action = " Veuillez planifier le renouvellement rapidement."
	case models.PriorityNormal:
		title = "Renouvellement de document requis"
		action = " Pensez à préparer les documents nécessaires pour le renouvellement."
	default:
		title = "Document à renouveler"
		action = " Renouvellement requis prochainement."
	}

	var when string
	switch days {
	case 0:
		when = "expire aujourd'hui"
	case 1:
		when = "expire demain"
	default:
		when = fmt.Sprintf("expire dans %d jours", days)
	}

	body := fmt.Sprintf("Le document '%s' %s", doc.Type, when)
	if doc.ExpiresAt != nil {
		body += fmt.Sprintf(" (le %s).", doc.ExpiresAt.In(locOrUTC(loc)).Format(displayDateLayout))
	} else {
		body += "."
	}

	return Payload{
		Type:             models.NotificationTypeDocumentExpiration,
		Title:            title,
		Body:             body + action,
		Priority:         priority,
		ActionRequired:   true,
		SourceRecordType: models.SourceRecordDocument,
		SourceRecordID:   doc.ID,
		Fields: map[string]any{
			"document_id":           doc.ID,
			"document_type":         doc.Type,
			"date_expiration":       isoDate(doc.ExpiresAt, loc),
			"days_until_expiration": days,
			"periodicite":           string(doc.EffectivePeriodicity()),
			"icon":                  PriorityIcon(priority),
		},
	}
}

// MarcheDecisionPayload tells the technical studies team about a decision
// of the general management. A refusal is informational. Decisions are
// final, so the payload carries no source record and is never deduplicated.
func MarcheDecisionPayload(m *models.MarchePublic, now time.Time, loc *time.Location) Payload {
	var days *int
	if m.DateLimite != nil {
		d := DaysUntil(now, *m.DateLimite, loc)
		days = &d
	}

	base := fmt.Sprintf("Marché '%s' (%s)", m.Reference, m.Objet)
	p := Payload{
		Type:         models.NotificationTypeMarcheDecision,
		SourceUserID: m.DecidedByID,
		Fields: map[string]any{
			"marche_id":           m.ID,
			"reference":           m.Reference,
			"objet":               m.Objet,
			"type_ao":             m.TypeAO,
			"estimation":          m.Estimation,
			"date_limite":         isoDate(m.DateLimite, loc),
			"decision":            m.Decision,
			"date_decision":       isoDate(m.DateDecision, loc),
			"days_until_deadline": nil,
		},
	}
	if days != nil {
		p.Fields["days_until_deadline"] = *days
	}

	if m.Decision != models.MarcheDecisionAccepte {
		motif := m.MotifRefus
		if motif == "" {
			motif = "Critères non conformes"
		}
		p.Title = "Marché public refusé"
		p.Body = fmt.Sprintf("%s a été refusé. Motif: %s", base, motif)
		p.Priority = models.PriorityInfo
		p.Fields["motif_refus"] = motif
		return p
	}

	p.Priority = DeadlineScale.FromOptionalDays(days, models.PriorityNormal)
	p.ActionRequired = true

	deadline := "Non définie"
	if m.DateLimite != nil {
		deadline = m.DateLimite.In(locOrUTC(loc)).Format(displayDateLayout)
	}

	var action string
	switch p.Priority {
	case models.PriorityCritique:
		p.Title = "Marché accepté - Action URGENTE requise !"
		action = " URGENT : Préparer le dossier administratif immédiatement !"
	case models.PriorityUrgent:
		p.Title = "Marché accepté - Préparation du dossier"
		action = " Action requise : Préparation du dossier administratif."
	case models.PriorityNormal:
		p.Title = "Nouveau marché accepté à traiter"
		action = " Merci de préparer le dossier administratif."
	default:
		p.Title = "Marché public accepté"
		action = " Dossier administratif à préparer."
	}
	p.Body = fmt.Sprintf("%s a été accepté par la Direction Générale. Date limite: %s.%s", base, deadline, action)
	return p
}

// MarcheValidationAdminPayload asks the administrators to validate a tender
// accepted by another service.
func MarcheValidationAdminPayload(m *models.MarchePublic, serviceOrigine string) Payload {
	if serviceOrigine == "" {
		serviceOrigine = "Service Marketing"
	}
	return Payload{
		Type:  models.NotificationTypeMarcheValidationAdmin,
		Title: "Validation requise par la Direction Générale",
		Body: fmt.Sprintf("Le marché '%s' (%s) a été accepté par %s. Merci de valider ce marché.",
			m.Reference, m.Objet, serviceOrigine),
		Priority:         models.PriorityCritique,
		ActionRequired:   true,
		SourceRecordType: models.SourceRecordMarche,
		SourceRecordID:   m.ID,
		Fields: map[string]any{
			"marche_id":       m.ID,
			"reference":       m.Reference,
			"objet":           m.Objet,
			"service_origine": serviceOrigine,
		},
	}
}

// ProfileValidationPayload asks HR to validate a newly created salarie.
func ProfileValidationPayload(s *models.Salarie) Payload {
	return Payload{
		Type:             models.NotificationTypeValidationProfileSalarie,
		Title:            "Nouveau salarié à valider",
		Body:             fmt.Sprintf("Le salarié %s a été créé.", s.FullName()),
		Priority:         models.PriorityNormal,
		ActionRequired:   true,
		SourceRecordType: models.SourceRecordSalarie,
		SourceRecordID:   s.ID,
		Fields: map[string]any{
			"salarie_id":  s.ID,
			"salarie_nom": s.FullName(),
			"poste":       s.Poste,
		},
	}
}

// TaskAssignment describes a task handed to a salarie.
type TaskAssignment struct {
	TacheID      string
	Titre        string
	Projet       string
	Echeance     *time.Time
	Priority     models.Priority
	AssignedByID *string
}

// TaskAssignmentPayload notifies a salarie of a new task. Without an
// explicit priority the deadline decides.
func TaskAssignmentPayload(t TaskAssignment, now time.Time, loc *time.Location) Payload {
	var days *int
	if t.Echeance != nil {
		d := DaysUntil(now, *t.Echeance, loc)
		days = &d
	}

	priority := t.Priority
	if priority == "" {
		priority = DeadlineScale.FromOptionalDays(days, models.PriorityNormal)
	}

	titre := t.Titre
	if titre == "" {
		titre = "une tâche"
	}

	var title, action string
	switch priority {
	case models.PriorityCritique:
		title = "URGENT : Nouvelle tâche à traiter immédiatement !"
		action = " Action immédiate requise !"
	case models.PriorityUrgent:
		title = "Tâche prioritaire assignée"
		action = " Veuillez commencer rapidement."
	case models.PriorityNormal:
		title = "Nouvelle tâche assignée"
		action = " Merci de planifier votre travail."
	default:
		title = "Nouvelle tâche disponible"
	}

	body := "Vous avez été assigné(e) à la tâche : " + titre
	if t.Projet != "" {
		body += fmt.Sprintf(" (Projet : %s)", t.Projet)
	}
	if days != nil {
		switch {
		case *days == 0:
			body += " - Échéance aujourd'hui !"
		case *days == 1:
			body += " - Échéance demain"
		case *days > 0:
			body += fmt.Sprintf(" - Échéance dans %d jours (%s)", *days, t.Echeance.In(locOrUTC(loc)).Format(displayDateLayout))
		default:
			body += " - ATTENTION : Échéance dépassée !"
		}
	}

	fields := map[string]any{
		"tache_id":            t.TacheID,
		"tache_titre":         titre,
		"projet":              t.Projet,
		"date_echeance":       isoDate(t.Echeance, loc),
		"days_until_deadline": nil,
	}
	if days != nil {
		fields["days_until_deadline"] = *days
	}

	return Payload{
		Type:             models.NotificationTypeTacheAssignee,
		Title:            title,
		Body:             body + action,
		Priority:         priority,
		ActionRequired:   true,
		SourceUserID:     t.AssignedByID,
		SourceRecordType: models.SourceRecordTache,
		SourceRecordID:   t.TacheID,
		Fields:           fields,
	}
}

// Leave request outcomes
const (
	CongeAccepte = "accepte"
	CongeRefuse  = "refuse"
)

// LeaveDecision is the answer to a salarie's leave request.
type LeaveDecision struct {
	CongeID    string
	TypeConge  string
	DateDebut  time.Time
	DateFin    time.Time
	Decision   string
	MotifRefus string
	DecidedBy  *string
}

// LeaveDecisionPayload notifies a salarie of the decision on a leave request.
// Every decision is delivered, including a revised one for the same request.
func LeaveDecisionPayload(d LeaveDecision) Payload {
	period := fmt.Sprintf("du %s au %s", d.DateDebut.Format(displayDateLayout), d.DateFin.Format(displayDateLayout))

	p := Payload{
		Type:         models.NotificationTypeCongeDecision,
		SourceUserID: d.DecidedBy,
		Fields: map[string]any{
			"conge_id":   d.CongeID,
			"type_conge": d.TypeConge,
			"date_debut": d.DateDebut.Format("2006-01-02"),
			"date_fin":   d.DateFin.Format("2006-01-02"),
			"decision":   d.Decision,
		},
	}

	if d.Decision == CongeAccepte {
		p.Title = "Demande de congé acceptée"
		p.Body = fmt.Sprintf("Votre demande de congé (%s) %s a été acceptée.", d.TypeConge, period)
		p.Priority = models.PriorityNormal
		return p
	}

	motif := sanitizeText(d.MotifRefus)
	p.Title = "Demande de congé refusée"
	p.Body = fmt.Sprintf("Votre demande de congé (%s) %s a été refusée.", d.TypeConge, period)
	if motif != "" {
		p.Body += " Motif: " + motif
	}
	p.Priority = models.PriorityUrgent
	p.Fields["motif_refus"] = motif
	return p
}

// ProfileRequest is a staffing request for one or more profiles.
type ProfileRequest struct {
	DemandeID     string
	Titre         string
	Demandeur     string
	Urgence       string
	NombreProfils int
}

var urgencePriorities = map[string]models.Priority{
	"critique": models.PriorityCritique,
	"haute":    models.PriorityUrgent,
	"urgente":  models.PriorityUrgent,
	"normale":  models.PriorityNormal,
	"basse":    models.PriorityInfo,
}

// ProfileRequestPayload notifies HR of a new profile request.
func ProfileRequestPayload(r ProfileRequest) Payload {
	priority, ok := urgencePriorities[strings.ToLower(r.Urgence)]
	if !ok {
		priority = models.PriorityNormal
	}
	titre := sanitizeText(r.Titre)

	return Payload{
		Type:             models.NotificationTypeNouvelleDemandeProfils,
		Title:            "Nouvelle demande de profils",
		Body:             fmt.Sprintf("Nouvelle demande de profils : %s (%d profil(s), demandée par %s)", titre, r.NombreProfils, r.Demandeur),
		Priority:         priority,
		ActionRequired:   true,
		SourceRecordType: models.SourceRecordDemandeProfils,
		SourceRecordID:   r.DemandeID,
		Fields: map[string]any{
			"demande_id":     r.DemandeID,
			"titre_demande":  titre,
			"demandeur":      r.Demandeur,
			"urgence":        r.Urgence,
			"nombre_profils": r.NombreProfils,
			"url":            "/profils/demandes",
		},
	}
}

// Interview is a recruitment interview awaiting or holding a decision of
// the general management.
type Interview struct {
	ID             string
	SalarieID      string
	SalarieNom     string
	PosteVise      string
	ScoreTotal     float64
	Pourcentage    float64
	Appreciation   string
	Recommandation string
	DateEntretien  time.Time
	MotifRejet     string
	DecidedBy      *string
}

func (iv Interview) fields() map[string]any {
	return map[string]any{
		"entretien_id": iv.ID,
		"salarie_id":   iv.SalarieID,
		"salarie_nom":  iv.SalarieNom,
	}
}

// InterviewValidationPayload asks the general management to rule on an
// interview.
func InterviewValidationPayload(iv Interview) Payload {
	f := iv.fields()
	f["poste_vise"] = iv.PosteVise
	f["score_total"] = iv.ScoreTotal
	f["pourcentage"] = iv.Pourcentage
	f["appreciation"] = iv.Appreciation
	f["recommandation"] = iv.Recommandation
	f["date_entretien"] = iv.DateEntretien.Format("2006-01-02")
	f["url"] = "/direction-generale/salarie-decision"
	f["icon"] = "📋"

	return Payload{
		Type:             models.NotificationTypeEntretienValidation,
		Title:            "Nouvel entretien à valider",
		Body:             fmt.Sprintf("L'entretien de %s pour le poste de %s nécessite votre validation.", iv.SalarieNom, iv.PosteVise),
		Priority:         models.PriorityUrgent,
		ActionRequired:   true,
		SourceRecordType: models.SourceRecordEntretien,
		SourceRecordID:   iv.ID,
		Fields:           f,
	}
}

// InterviewValidatedPayload tells HR that the general management validated
// an interview, with the verdict on the candidate.
func InterviewValidatedPayload(iv Interview, accepted bool) Payload {
	f := iv.fields()
	f["accepte"] = accepted
	f["url"] = "/ressources-humaines/entretiens"

	p := Payload{
		Type:         models.NotificationTypeEntretienValide,
		SourceUserID: iv.DecidedBy,
		Fields:       f,
	}
	if accepted {
		p.Title = "Entretien validé - Candidat accepté"
		p.Body = fmt.Sprintf("L'entretien de %s a été validé et le candidat accepté par la direction générale.", iv.SalarieNom)
		p.Priority = models.PriorityInfo
		f["icon"] = "✅"
		return p
	}
	p.Title = "Entretien validé - Candidat refusé"
	p.Body = fmt.Sprintf("L'entretien de %s a été validé mais le candidat refusé par la direction générale.", iv.SalarieNom)
	p.Priority = models.PriorityNormal
	f["icon"] = "ℹ️"
	return p
}

// InterviewRejectedPayload tells HR the interview itself was rejected and
// must be redone.
func InterviewRejectedPayload(iv Interview) Payload {
	motif := sanitizeText(iv.MotifRejet)
	f := iv.fields()
	f["motif_rejet"] = motif
	f["url"] = "/ressources-humaines/entretiens"
	f["icon"] = "❌"

	return Payload{
		Type:           models.NotificationTypeEntretienRejete,
		Title:          "Entretien rejeté",
		Body:           fmt.Sprintf("L'entretien de %s a été rejeté par la direction générale. Motif : %s", iv.SalarieNom, motif),
		Priority:       models.PriorityUrgent,
		ActionRequired: true,
		SourceUserID:   iv.DecidedBy,
		Fields:         f,
	}
}

// SupplierReference is a project reference certificate submitted by a
// supplier for HR review.
type SupplierReference struct {
	ID           string
	SupplierName string
	ProjectName  string
	ClientName   string
	SubmittedAt  time.Time
	ReviewedAt   time.Time
	Comment      string
	ReviewedBy   *string
}

// ReferenceSubmittedPayload asks HR to review a supplier reference.
func ReferenceSubmittedPayload(r SupplierReference) Payload {
	project := sanitizeText(r.ProjectName)
	return Payload{
		Type:             models.NotificationTypeReferenceSoumise,
		Title:            "Nouvelle référence à valider",
		Body:             fmt.Sprintf("Le fournisseur %s a soumis une nouvelle attestation de référence pour le projet '%s'.", r.SupplierName, project),
		Priority:         models.PriorityUrgent,
		ActionRequired:   true,
		SourceRecordType: models.SourceRecordReference,
		SourceRecordID:   r.ID,
		Fields: map[string]any{
			"reference_id":  r.ID,
			"supplier_name": r.SupplierName,
			"project_name":  project,
			"client_name":   sanitizeText(r.ClientName),
			"submitted_at":  r.SubmittedAt.Format(time.RFC3339),
			"url":           "/ressources-humaines/references",
			"icon":          "📄",
		},
	}
}

// ReferenceReviewPayload gives the supplier the outcome of the review. A
// rejection asks them to resubmit.
func ReferenceReviewPayload(r SupplierReference, validated bool) Payload {
	project := sanitizeText(r.ProjectName)
	comment := sanitizeText(r.Comment)
	p := Payload{
		SourceUserID: r.ReviewedBy,
		Fields: map[string]any{
			"reference_id": r.ID,
			"project_name": project,
			"client_name":  sanitizeText(r.ClientName),
			"reviewed_at":  r.ReviewedAt.Format(time.RFC3339),
			"url":          "/fournisseurs-traitants/references",
		},
	}
	if comment != "" {
		p.Fields["validation_comment"] = comment
	}

	if validated {
		p.Type = models.NotificationTypeReferenceValidee
		p.Title = "Référence validée"
		p.Body = fmt.Sprintf("Votre référence du projet '%s' a été validée par les RH.", project)
		if comment != "" {
			p.Body += " Commentaire: " + comment
		}
		p.Priority = models.PriorityNormal
		p.Fields["icon"] = "✅"
		return p
	}

	p.Type = models.NotificationTypeReferenceRejetee
	p.Title = "Référence rejetée"
	p.Body = fmt.Sprintf("Votre référence du projet '%s' a été rejetée par les RH.", project)
	if comment != "" {
		p.Body += " Raison: " + comment
	}
	p.Priority = models.PriorityUrgent
	p.ActionRequired = true
	p.Fields["icon"] = "❌"
	return p
}

// MethodologyAction is what happened to an execution methodology document.
type MethodologyAction string

const (
	MethodologySubmitted MethodologyAction = "submitted"
	MethodologyValidated MethodologyAction = "validated"
	MethodologyRejected  MethodologyAction = "rejected"
)

var methodologyLabels = map[string]string{
	"methodologie": "Méthodologie d'Exécution",
	"planning":     "Planning d'Exécution",
	"chronogram":   "Chronogramme",
	"organigramme": "Organigramme",
	"auto_control": "Auto-Contrôle",
}

// MethodologyDocument is a methodology or planning file uploaded by a
// subcontractor.
type MethodologyDocument struct {
	ID       string
	Kind     string
	FileName string
}

// MethodologyDocumentPayload covers the review cycle of a methodology
// document: HR is asked to validate a submission, the subcontractor learns
// the outcome. Only submissions are deduplicated.
func MethodologyDocumentPayload(doc MethodologyDocument, action MethodologyAction, comment string) Payload {
	label, ok := methodologyLabels[doc.Kind]
	if !ok {
		label = doc.Kind
	}
	p := Payload{
		Type: models.NotificationTypeDocumentMethodologie,
		Fields: map[string]any{
			"methodologie_id": doc.ID,
			"kind":            doc.Kind,
			"file_name":       doc.FileName,
			"action":          string(action),
		},
	}
	if c := sanitizeText(comment); c != "" && action != MethodologySubmitted {
		p.Fields["validator_comment"] = c
	}

	switch action {
	case MethodologyValidated:
		p.Title = "Document validé"
		p.Body = fmt.Sprintf("Votre document %s a été validé par les RH", label)
		p.Priority = models.PriorityInfo
		p.Fields["icon"] = "✅"
		p.Fields["url"] = "/fournisseurs-traitants/MethodologiePlanning"
	case MethodologyRejected:
		p.Title = "Document rejeté"
		p.Body = fmt.Sprintf("Votre document %s a été rejeté", label)
		p.Priority = models.PriorityCritique
		p.Fields["icon"] = "❌"
		p.Fields["url"] = "/fournisseurs-traitants/MethodologiePlanning"
	default:
		p.Title = "Nouveau document à valider"
		p.Body = fmt.Sprintf("Un document %s a été soumis pour validation", label)
		p.Priority = models.PriorityUrgent
		p.ActionRequired = true
		p.SourceRecordType = models.SourceRecordMethodologie
		p.SourceRecordID = doc.ID
		p.Fields["action"] = string(MethodologySubmitted)
		p.Fields["icon"] = "📋"
		p.Fields["url"] = "/ressources-humaines/MethodologyValidation"
	}
	return p
}

// GenericInput is a free-form notification written by an administrator.
type GenericInput struct {
	Title          string
	Body           string
	Priority       models.Priority
	ActionRequired bool
	SourceUserID   *string
}

// GenericPayload sanitises free text. It carries no source record and is
// therefore never deduplicated.
func GenericPayload(in GenericInput) Payload {
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityInfo
	}
	return Payload{
		Type:           models.NotificationTypeGeneric,
		Title:          sanitizeText(in.Title),
		Body:           sanitizeText(in.Body),
		Priority:       priority,
		ActionRequired: in.ActionRequired,
		SourceUserID:   in.SourceUserID,
		Fields:         map[string]any{"icon": PriorityIcon(priority)},
	}
}

func locOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
