package services

import (
	"backoffice_app_go/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocumentExpirationPayload(t *testing.T) {
	expires := time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)
	doc := &models.Document{ID: "doc-1", Type: "Bordereaux CNSS", Periodicity: models.PeriodicityMonthly, ExpiresAt: &expires}

	tests := []struct {
		name     string
		days     int
		priority models.Priority
		title    string
		when     string
	}{
		{"today", 0, models.PriorityCritique, "Document expire très bientôt !", "expire aujourd'hui"},
		{"tomorrow", 1, models.PriorityCritique, "Document expire très bientôt !", "expire demain"},
		{"five days", 5, models.PriorityUrgent, "Action requise - Document bientôt expiré", "expire dans 5 jours"},
		{"two weeks", 14, models.PriorityNormal, "Renouvellement de document requis", "expire dans 14 jours"},
		{"a month", 30, models.PriorityInfo, "Document à renouveler", "expire dans 30 jours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DocumentExpirationPayload(doc, tt.days, time.UTC)
			assert.Equal(t, models.NotificationTypeDocumentExpiration, p.Type)
			assert.Equal(t, tt.priority, p.Priority)
			assert.Equal(t, tt.title, p.Title)
			assert.Contains(t, p.Body, tt.when)
			assert.Contains(t, p.Body, "(le 21/10/2026)")
			assert.True(t, p.ActionRequired)
			assert.Equal(t, models.SourceRecordDocument, p.SourceRecordType)
			assert.Equal(t, "doc-1", p.SourceRecordID)
			assert.Equal(t, tt.days, p.Fields["days_until_expiration"])
			assert.Equal(t, "2026-10-21", p.Fields["date_expiration"])
			assert.Equal(t, "monthly", p.Fields["periodicite"])
			assert.Equal(t, PriorityIcon(tt.priority), p.Fields["icon"])
			assert.NoError(t, p.Validate())
		})
	}
}

func TestMarcheDecisionPayload(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	deadline := now.AddDate(0, 0, 8)

	t.Run("Accepted with a close deadline", func(t *testing.T) {
		m := &models.MarchePublic{ID: "m-1", Reference: "AO-12/2026", Objet: "Étude hydraulique", Decision: models.MarcheDecisionAccepte, DateLimite: &deadline}
		p := MarcheDecisionPayload(m, now, time.UTC)
		assert.Equal(t, models.PriorityUrgent, p.Priority)
		assert.Equal(t, "Marché accepté - Préparation du dossier", p.Title)
		assert.Contains(t, p.Body, "Date limite: 24/10/2026")
		assert.True(t, p.ActionRequired)
		assert.Equal(t, 8, p.Fields["days_until_deadline"])
	})

	t.Run("Accepted without deadline", func(t *testing.T) {
		m := &models.MarchePublic{ID: "m-2", Reference: "AO-13", Decision: models.MarcheDecisionAccepte}
		p := MarcheDecisionPayload(m, now, time.UTC)
		assert.Equal(t, models.PriorityNormal, p.Priority)
		assert.Contains(t, p.Body, "Non définie")
		assert.Nil(t, p.Fields["days_until_deadline"])
	})

	t.Run("Refusal is informational", func(t *testing.T) {
		m := &models.MarchePublic{ID: "m-3", Reference: "AO-14", Decision: models.MarcheDecisionRefuse, DateLimite: &deadline}
		p := MarcheDecisionPayload(m, now, time.UTC)
		assert.Equal(t, models.PriorityInfo, p.Priority)
		assert.False(t, p.ActionRequired)
		assert.Equal(t, "Marché public refusé", p.Title)
		assert.Contains(t, p.Body, "Critères non conformes")
		assert.Empty(t, p.SourceRecordID)
	})
}

func TestMarcheValidationAdminPayload(t *testing.T) {
	m := &models.MarchePublic{ID: "m-1", Reference: "AO-12", Objet: "Voirie"}
	p := MarcheValidationAdminPayload(m, "")
	assert.Equal(t, models.PriorityCritique, p.Priority)
	assert.Contains(t, p.Body, "Service Marketing")
	assert.Equal(t, "m-1", p.SourceRecordID)
}

func TestTaskAssignmentPayload(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	t.Run("Priority from deadline", func(t *testing.T) {
		due := now.AddDate(0, 0, 3)
		p := TaskAssignmentPayload(TaskAssignment{TacheID: "t-1", Titre: "Relevé topographique", Projet: "Route R401", Echeance: &due}, now, time.UTC)
		assert.Equal(t, models.PriorityCritique, p.Priority)
		assert.Equal(t, "URGENT : Nouvelle tâche à traiter immédiatement !", p.Title)
		assert.Contains(t, p.Body, "(Projet : Route R401)")
		assert.Contains(t, p.Body, "Échéance dans 3 jours (19/10/2026)")
		assert.Equal(t, 3, p.Fields["days_until_deadline"])
	})

	t.Run("Explicit priority wins", func(t *testing.T) {
		due := now.AddDate(0, 0, -1)
		p := TaskAssignmentPayload(TaskAssignment{TacheID: "t-2", Echeance: &due, Priority: models.PriorityNormal}, now, time.UTC)
		assert.Equal(t, models.PriorityNormal, p.Priority)
		assert.Contains(t, p.Body, "une tâche")
		assert.Contains(t, p.Body, "Échéance dépassée")
	})
}

func TestLeaveDecisionPayload(t *testing.T) {
	start := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 11, 6, 0, 0, 0, 0, time.UTC)

	accepted := LeaveDecisionPayload(LeaveDecision{CongeID: "c-1", TypeConge: "annuel", DateDebut: start, DateFin: end, Decision: CongeAccepte})
	assert.Equal(t, "Demande de congé acceptée", accepted.Title)
	assert.Contains(t, accepted.Body, "du 02/11/2026 au 06/11/2026")

	refused := LeaveDecisionPayload(LeaveDecision{CongeID: "c-2", TypeConge: "annuel", DateDebut: start, DateFin: end, Decision: CongeRefuse, MotifRefus: "<b>Période chargée</b>"})
	assert.Equal(t, models.PriorityUrgent, refused.Priority)
	assert.Contains(t, refused.Body, "Motif: Période chargée")
	assert.Equal(t, "Période chargée", refused.Fields["motif_refus"])
	assert.Empty(t, refused.SourceRecordID)
}

func TestProfilePayloads(t *testing.T) {
	s := &models.Salarie{ID: "s-1", Nom: "Alaoui", Prenom: "Nadia"}
	p := ProfileValidationPayload(s)
	assert.Equal(t, "Le salarié Alaoui Nadia a été créé.", p.Body)
	assert.Equal(t, models.SourceRecordSalarie, p.SourceRecordType)

	r := ProfileRequestPayload(ProfileRequest{DemandeID: "d-1", Titre: "Ingénieurs VRD", Demandeur: "Direction", Urgence: "Haute", NombreProfils: 3})
	assert.Equal(t, models.PriorityUrgent, r.Priority)
	assert.Contains(t, r.Body, "Ingénieurs VRD (3 profil(s)")

	r = ProfileRequestPayload(ProfileRequest{DemandeID: "d-2", Urgence: "inconnue"})
	assert.Equal(t, models.PriorityNormal, r.Priority)
}

func TestInterviewPayloads(t *testing.T) {
	direction := "u-dg"
	iv := Interview{
		ID:            "e-1",
		SalarieID:     "s-1",
		SalarieNom:    "Tazi Amine",
		PosteVise:     "Conducteur de travaux",
		Pourcentage:   82.5,
		DateEntretien: time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
		MotifRejet:    "<i>Grille incomplète</i>",
		DecidedBy:     &direction,
	}

	t.Run("Validation request is deduplicated per interview", func(t *testing.T) {
		p := InterviewValidationPayload(iv)
		assert.Equal(t, models.NotificationTypeEntretienValidation, p.Type)
		assert.Equal(t, "L'entretien de Tazi Amine pour le poste de Conducteur de travaux nécessite votre validation.", p.Body)
		assert.True(t, p.ActionRequired)
		assert.Equal(t, models.SourceRecordEntretien, p.SourceRecordType)
		assert.Equal(t, "e-1", p.SourceRecordID)
		assert.Equal(t, "2026-10-14", p.Fields["date_entretien"])
		assert.NoError(t, p.Validate())
	})

	t.Run("Validated", func(t *testing.T) {
		accepted := InterviewValidatedPayload(iv, true)
		assert.Equal(t, "Entretien validé - Candidat accepté", accepted.Title)
		assert.Equal(t, models.PriorityInfo, accepted.Priority)
		assert.Equal(t, true, accepted.Fields["accepte"])
		assert.Empty(t, accepted.SourceRecordID)

		refused := InterviewValidatedPayload(iv, false)
		assert.Equal(t, "Entretien validé - Candidat refusé", refused.Title)
		assert.Equal(t, models.PriorityNormal, refused.Priority)
		assert.False(t, refused.ActionRequired)
	})

	t.Run("Rejected", func(t *testing.T) {
		p := InterviewRejectedPayload(iv)
		assert.Equal(t, models.PriorityUrgent, p.Priority)
		assert.True(t, p.ActionRequired)
		assert.Contains(t, p.Body, "Motif : Grille incomplète")
		assert.Equal(t, "Grille incomplète", p.Fields["motif_rejet"])
		assert.Equal(t, &direction, p.SourceUserID)
		assert.Empty(t, p.SourceRecordID)
		assert.NoError(t, p.Validate())
	})
}

func TestReferencePayloads(t *testing.T) {
	r := SupplierReference{
		ID:           "r-1",
		SupplierName: "Atlas Forages",
		ProjectName:  "Station de pompage",
		ClientName:   "ONEE",
		SubmittedAt:  time.Date(2026, 10, 15, 10, 30, 0, 0, time.UTC),
		ReviewedAt:   time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}

	submitted := ReferenceSubmittedPayload(r)
	assert.Equal(t, models.NotificationTypeReferenceSoumise, submitted.Type)
	assert.Equal(t, "Le fournisseur Atlas Forages a soumis une nouvelle attestation de référence pour le projet 'Station de pompage'.", submitted.Body)
	assert.Equal(t, models.SourceRecordReference, submitted.SourceRecordType)
	assert.Equal(t, "r-1", submitted.SourceRecordID)
	assert.Equal(t, "2026-10-15T10:30:00Z", submitted.Fields["submitted_at"])

	validated := ReferenceReviewPayload(r, true)
	assert.Equal(t, models.NotificationTypeReferenceValidee, validated.Type)
	assert.Equal(t, "Votre référence du projet 'Station de pompage' a été validée par les RH.", validated.Body)
	assert.Equal(t, models.PriorityNormal, validated.Priority)
	assert.NotContains(t, validated.Fields, "validation_comment")
	assert.Empty(t, validated.SourceRecordID)

	r.Comment = "Attestation illisible"
	rejected := ReferenceReviewPayload(r, false)
	assert.Equal(t, models.NotificationTypeReferenceRejetee, rejected.Type)
	assert.Contains(t, rejected.Body, "Raison: Attestation illisible")
	assert.Equal(t, models.PriorityUrgent, rejected.Priority)
	assert.True(t, rejected.ActionRequired)
	assert.Equal(t, "Attestation illisible", rejected.Fields["validation_comment"])
	assert.NoError(t, rejected.Validate())
}

func TestMethodologyDocumentPayload(t *testing.T) {
	doc := MethodologyDocument{ID: "md-1", Kind: "planning", FileName: "planning-lot2.pdf"}

	tests := []struct {
		name     string
		action   MethodologyAction
		title    string
		body     string
		priority models.Priority
		sourceID string
	}{
		{"submitted", MethodologySubmitted, "Nouveau document à valider", "Un document Planning d'Exécution a été soumis pour validation", models.PriorityUrgent, "md-1"},
		{"validated", MethodologyValidated, "Document validé", "Votre document Planning d'Exécution a été validé par les RH", models.PriorityInfo, ""},
		{"rejected", MethodologyRejected, "Document rejeté", "Votre document Planning d'Exécution a été rejeté", models.PriorityCritique, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MethodologyDocumentPayload(doc, tt.action, "Revoir le lot 3")
			assert.Equal(t, models.NotificationTypeDocumentMethodologie, p.Type)
			assert.Equal(t, tt.title, p.Title)
			assert.Equal(t, tt.body, p.Body)
			assert.Equal(t, tt.priority, p.Priority)
			assert.Equal(t, tt.action == MethodologySubmitted, p.ActionRequired)
			assert.Equal(t, tt.sourceID, p.SourceRecordID)
			if tt.action == MethodologySubmitted {
				assert.NotContains(t, p.Fields, "validator_comment")
			} else {
				assert.Equal(t, "Revoir le lot 3", p.Fields["validator_comment"])
			}
			assert.NoError(t, p.Validate())
		})
	}

	p := MethodologyDocumentPayload(MethodologyDocument{ID: "md-2", Kind: "note_calcul"}, MethodologySubmitted, "")
	assert.Equal(t, "Un document note_calcul a été soumis pour validation", p.Body)
}

func TestGenericPayloadSanitizes(t *testing.T) {
	p := GenericPayload(GenericInput{
		Title: `<script>alert("x")</script>Réunion`,
		Body:  `Rendez-vous à <a href="javascript:evil()">14h</a> & café`,
	})
	assert.Equal(t, "Réunion", p.Title)
	assert.Equal(t, "Rendez-vous à 14h & café", p.Body)
	assert.Equal(t, models.PriorityInfo, p.Priority)
	assert.Empty(t, p.SourceRecordID)
	assert.NoError(t, p.Validate())
}
