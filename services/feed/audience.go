package feed

import (
	"backoffice_app_go/models"
	"fmt"
)

// Audience configures the feed for one actor type: where its REST
// endpoints live and which page handles each notification category.
type Audience struct {
	Type           models.AudienceType
	EndpointPrefix string
	LoginPath      string
	Links          map[string]func(models.NotificationView) string
}

// Staff is the back-office user feed.
var Staff = Audience{
	Type:           models.AudienceUser,
	EndpointPrefix: "/api/notifications",
	LoginPath:      "/api/auth/login",
	Links: map[string]func(models.NotificationView) string{
		models.NotificationTypeDocumentExpiration:       fixedLink("/documents"),
		models.NotificationTypeMarcheDecision:           recordLink("/marches/%s", "marche_id"),
		models.NotificationTypeMarcheValidationAdmin:    recordLink("/marches/%s", "marche_id"),
		models.NotificationTypeValidationProfileSalarie: recordLink("/salaries/%s", "salarie_id"),
		models.NotificationTypeNouvelleDemandeProfils: urlField,
		models.NotificationTypeEntretienValidation:    urlField,
		models.NotificationTypeEntretienValide:        fixedLink("/ressources-humaines/entretiens"),
		models.NotificationTypeEntretienRejete:        fixedLink("/ressources-humaines/entretiens"),
		models.NotificationTypeReferenceSoumise:       fixedLink("/ressources-humaines/references"),
		models.NotificationTypeReferenceValidee:       fixedLink("/fournisseurs-traitants/references"),
		models.NotificationTypeReferenceRejetee:       fixedLink("/fournisseurs-traitants/references"),
		models.NotificationTypeDocumentMethodologie:   urlField,
	},
}

// Salarie is the employee feed.
var Salarie = Audience{
	Type:           models.AudienceSalarie,
	EndpointPrefix: "/api/salarie/notifications",
	LoginPath:      "/api/salarie/auth/login",
	Links: map[string]func(models.NotificationView) string{
		models.NotificationTypeDocumentExpiration:       fixedLink("/salarie/documents"),
		models.NotificationTypeTacheAssignee:            recordLink("/salarie/marches/taches/%s", "tache_id"),
		models.NotificationTypeCongeDecision:            fixedLink("/salarie/conges"),
		models.NotificationTypeValidationProfileSalarie: fixedLink("/salarie/profil"),
	},
}

// AudienceFor returns the feed configuration of an actor type.
func AudienceFor(t models.AudienceType) (Audience, error) {
	switch t {
	case models.AudienceUser:
		return Staff, nil
	case models.AudienceSalarie:
		return Salarie, nil
	}
	return Audience{}, fmt.Errorf("unknown audience %q", t)
}

// Link returns the page handling v, or "" when the category has none.
func (a Audience) Link(v models.NotificationView) string {
	if fn, ok := a.Links[v.Type]; ok {
		return fn(v)
	}
	return ""
}

// urlField links to the page recorded by the builder
func urlField(v models.NotificationView) string {
	return v.Text("url")
}

func fixedLink(path string) func(models.NotificationView) string {
	return func(models.NotificationView) string { return path }
}

func recordLink(format, field string) func(models.NotificationView) string {
	return func(v models.NotificationView) string {
		id := v.Text(field)
		if id == "" {
			return ""
		}
		return fmt.Sprintf(format, id)
	}
}
