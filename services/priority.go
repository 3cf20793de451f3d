package services

import "backoffice_app_go/models"

// PriorityScale holds the inclusive upper bounds (in days remaining) of
// each priority level. Anything above Normal is informational.
type PriorityScale struct {
	Critique int
	Urgent   int
	Normal   int
}

var (
	// DocumentExpirationScale classifies compliance document expirations.
	DocumentExpirationScale = PriorityScale{Critique: 2, Urgent: 7, Normal: 15}
	// DeadlineScale classifies tender and task deadlines.
	DeadlineScale = PriorityScale{Critique: 5, Urgent: 10, Normal: 20}
)

// FromDays maps days remaining to a priority. Negative values (overdue)
// are critique.
func (s PriorityScale) FromDays(days int) models.Priority {
	switch {
	case days <= s.Critique:
		return models.PriorityCritique
	case days <= s.Urgent:
		return models.PriorityUrgent
	case days <= s.Normal:
		return models.PriorityNormal
	default:
		return models.PriorityInfo
	}
}

// FromOptionalDays returns fallback when no deadline is known.
func (s PriorityScale) FromOptionalDays(days *int, fallback models.Priority) models.Priority {
	if days == nil {
		return fallback
	}
	return s.FromDays(*days)
}

// PriorityIcon is the emoji shown next to a notification of that level.
func PriorityIcon(p models.Priority) string {
	switch p {
	case models.PriorityCritique:
		return "🚨"
	case models.PriorityUrgent:
		return "⚠️"
	case models.PriorityNormal:
		return "📋"
	default:
		return "📄"
	}
}
