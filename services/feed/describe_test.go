package feed

import (
	"backoffice_app_go/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		audience Audience
		view     models.NotificationView
		badge    string
		icon     string
		details  []Detail
		link     string
	}{
		{
			name:     "document expiring tomorrow",
			audience: Salarie,
			view: models.NotificationView{
				Type:     models.NotificationTypeDocumentExpiration,
				Priority: models.PriorityCritique,
				Fields: map[string]any{
					"document_type":         "Attestation CNSS",
					"days_until_expiration": float64(1),
					"date_expiration":       "2026-10-17",
				},
			},
			badge: "Critique",
			icon:  "file-text",
			details: []Detail{
				{"Type", "Attestation CNSS"},
				{"Échéance", "Expire demain"},
				{"Expire le", "17 oct. 2026"},
			},
			link: "/salarie/documents",
		},
		{
			name:     "task with project and deadline",
			audience: Salarie,
			view: models.NotificationView{
				Type:     models.NotificationTypeTacheAssignee,
				Priority: models.PriorityUrgent,
				Fields: map[string]any{
					"tache_id":      "t-7",
					"tache_titre":   "Métré lot 2",
					"projet":        "Lycée Agadir",
					"date_echeance": "2026-10-23",
				},
			},
			badge: "Urgent",
			icon:  "briefcase",
			details: []Detail{
				{"Tâche", "Métré lot 2"},
				{"Projet", "Lycée Agadir"},
				{"Échéance", "23 oct. 2026"},
			},
			link: "/salarie/marches/taches/t-7",
		},
		{
			name:     "refused leave",
			audience: Salarie,
			view: models.NotificationView{
				Type:     models.NotificationTypeCongeDecision,
				Priority: models.PriorityUrgent,
				Fields: map[string]any{
					"type_conge":  "Congé annuel",
					"decision":    "refuse",
					"date_debut":  "2026-12-20",
					"date_fin":    "2027-01-03",
					"motif_refus": "Période de clôture",
				},
			},
			badge: "Urgent",
			icon:  "x-circle",
			details: []Detail{
				{"Type de congé", "Congé annuel"},
				{"Décision", "Refusé"},
				{"Période", "Du 20 déc. 2026 au 03 janv. 2027"},
				{"Motif", "Période de clôture"},
			},
			link: "/salarie/conges",
		},
		{
			name:     "accepted tender for staff",
			audience: Staff,
			view: models.NotificationView{
				Type:     models.NotificationTypeMarcheDecision,
				Priority: models.PriorityNormal,
				Fields: map[string]any{
					"marche_id":   "m-1",
					"reference":   "AO-12/2026",
					"objet":       "Voirie",
					"estimation":  float64(1250000),
					"date_limite": "2026-11-05",
					"decision":    "accepte",
				},
			},
			badge: "Normal",
			icon:  "bell",
			details: []Detail{
				{"Référence", "AO-12/2026"},
				{"Objet", "Voirie"},
				{"Estimation", "1250000.00 MAD"},
				{"Date limite", "05 nov. 2026"},
				{"Décision", "Accepté"},
			},
			link: "/marches/m-1",
		},
		{
			name:     "profile request",
			audience: Staff,
			view: models.NotificationView{
				Type:     models.NotificationTypeNouvelleDemandeProfils,
				Priority: models.PriorityUrgent,
				Fields: map[string]any{
					"titre_demande":  "Ingénieurs VRD",
					"demandeur":      "Direction technique",
					"urgence":        "haute",
					"nombre_profils": float64(2),
					"url":            "/profils/demandes",
				},
			},
			badge: "Urgent",
			icon:  "users",
			details: []Detail{
				{"Demande", "Ingénieurs VRD"},
				{"Demandeur", "Direction technique"},
				{"Urgence", "haute"},
				{"Profils", "2"},
			},
			link: "/profils/demandes",
		},
		{
			name:     "interview awaiting the general management",
			audience: Staff,
			view: models.NotificationView{
				Type:     models.NotificationTypeEntretienValidation,
				Priority: models.PriorityUrgent,
				Fields: map[string]any{
					"salarie_nom":    "Tazi Amine",
					"poste_vise":     "Conducteur de travaux",
					"date_entretien": "2026-10-14",
					"pourcentage":    float64(82.5),
					"recommandation": "Recruter",
					"url":            "/direction-generale/salarie-decision",
				},
			},
			badge: "Urgent",
			icon:  "users",
			details: []Detail{
				{"Candidat", "Tazi Amine"},
				{"Poste", "Conducteur de travaux"},
				{"Date", "14 oct. 2026"},
				{"Score", "82.5 %"},
				{"Recommandation", "Recruter"},
			},
			link: "/direction-generale/salarie-decision",
		},
		{
			name:     "validated interview with refused candidate",
			audience: Staff,
			view: models.NotificationView{
				Type:     models.NotificationTypeEntretienValide,
				Priority: models.PriorityNormal,
				Fields:   map[string]any{"salarie_nom": "Tazi Amine", "accepte": false},
			},
			badge:   "Normal",
			icon:    "users",
			details: []Detail{{"Candidat", "Tazi Amine"}, {"Décision", "Refusé"}},
			link:    "/ressources-humaines/entretiens",
		},
		{
			name:     "rejected supplier reference",
			audience: Staff,
			view: models.NotificationView{
				Type:     models.NotificationTypeReferenceRejetee,
				Priority: models.PriorityUrgent,
				Fields: map[string]any{
					"project_name":       "Station de pompage",
					"client_name":        "ONEE",
					"validation_comment": "Attestation illisible",
				},
			},
			badge: "Urgent",
			icon:  "file-text",
			details: []Detail{
				{"Projet", "Station de pompage"},
				{"Client", "ONEE"},
				{"Commentaire", "Attestation illisible"},
			},
			link: "/fournisseurs-traitants/references",
		},
		{
			name:     "methodology document submitted",
			audience: Staff,
			view: models.NotificationView{
				Type:     models.NotificationTypeDocumentMethodologie,
				Priority: models.PriorityUrgent,
				Fields:   map[string]any{"file_name": "planning-lot2.pdf", "url": "/ressources-humaines/MethodologyValidation"},
			},
			badge:   "Urgent",
			icon:    "file-text",
			details: []Detail{{"Fichier", "planning-lot2.pdf"}},
			link:    "/ressources-humaines/MethodologyValidation",
		},
		{
			name:     "generic has no details",
			audience: Staff,
			view:     models.NotificationView{Type: models.NotificationTypeGeneric, Priority: models.PriorityCritique},
			badge:    "Critique",
			icon:     "alert-triangle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Describe(tt.audience, tt.view)
			assert.Equal(t, tt.badge, d.Badge)
			assert.Equal(t, tt.icon, d.Icon)
			assert.Equal(t, tt.details, d.Details)
			assert.Equal(t, tt.link, d.Link)
			assert.True(t, d.Unread)
		})
	}
}

func TestExpiresIn(t *testing.T) {
	assert.Equal(t, "Expire aujourd'hui", expiresIn(0))
	assert.Equal(t, "Expire demain", expiresIn(1))
	assert.Equal(t, "Expire dans 12 jours", expiresIn(12))
	assert.Equal(t, "Expiré", expiresIn(-2))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "", formatDate(""))
	assert.Equal(t, "01 févr. 2026", formatDate("2026-02-01"))
	assert.Equal(t, "16 oct. 2026", formatDate(time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC).Format(time.RFC3339)))
	assert.Equal(t, "bientôt", formatDate("bientôt"))
}

func TestAudienceFor(t *testing.T) {
	a, err := AudienceFor(models.AudienceSalarie)
	assert.NoError(t, err)
	assert.Equal(t, "/api/salarie/notifications", a.EndpointPrefix)

	_, err = AudienceFor("robot")
	assert.Error(t, err)
}
