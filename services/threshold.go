package services

import (
	"backoffice_app_go/config"
	"backoffice_app_go/models"
	"time"
)

// DefaultThresholdDays is used for an unknown or empty periodicity. It
// matches the annual lead time so an unclassified document is warned early.
const DefaultThresholdDays = 60

// ThresholdPolicy maps a periodicity to the number of days before
// expiration at which warnings start. It is built once and shared by the
// scanner, the document service and the report.
type ThresholdPolicy struct {
	Days        map[models.Periodicity]int
	DefaultDays int
}

// DefaultThresholdPolicy returns the standard table: 7/14/30/60 days.
func DefaultThresholdPolicy() ThresholdPolicy {
	return ThresholdPolicy{
		Days: map[models.Periodicity]int{
			models.PeriodicityMonthly:   7,
			models.PeriodicityQuarterly: 14,
			models.PeriodicityBiannual:  30,
			models.PeriodicityAnnual:    60,
		},
		DefaultDays: DefaultThresholdDays,
	}
}

// ThresholdPolicyFromConfig builds the policy from the environment overrides.
func ThresholdPolicyFromConfig(cfg *config.Config) ThresholdPolicy {
	return ThresholdPolicy{
		Days: map[models.Periodicity]int{
			models.PeriodicityMonthly:   cfg.ThresholdMonthlyDays,
			models.PeriodicityQuarterly: cfg.ThresholdQuarterlyDays,
			models.PeriodicityBiannual:  cfg.ThresholdBiannualDays,
			models.PeriodicityAnnual:    cfg.ThresholdAnnualDays,
		},
		DefaultDays: cfg.ThresholdDefaultDays,
	}
}

// ThresholdFor returns the lead time in days. Absent keys fall back silently.
func (p ThresholdPolicy) ThresholdFor(periodicity models.Periodicity) int {
	if days, ok := p.Days[periodicity]; ok {
		return days
	}
	return p.DefaultDays
}

// ThresholdForDocument applies the fixed-category table before the lookup.
func (p ThresholdPolicy) ThresholdForDocument(doc *models.Document) int {
	return p.ThresholdFor(doc.EffectivePeriodicity())
}

// ExpirationFor computes the expiration date of a document issued at from.
func ExpirationFor(periodicity models.Periodicity, from time.Time) time.Time {
	return from.AddDate(0, periodicity.Months(), 0)
}

// DaysUntil counts whole calendar days from now to expiresAt in loc.
// A document expiring today yields 0, yesterday -1.
func DaysUntil(now, expiresAt time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	y1, m1, d1 := now.In(loc).Date()
	y2, m2, d2 := expiresAt.In(loc).Date()
	start := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	end := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// WithinThreshold is the firing rule: 0 <= days <= threshold.
func WithinThreshold(days, threshold int) bool {
	return days >= 0 && days <= threshold
}
