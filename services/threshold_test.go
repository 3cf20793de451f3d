package services

import (
	"backoffice_app_go/config"
	"backoffice_app_go/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThresholdFor(t *testing.T) {
	policy := DefaultThresholdPolicy()

	assert.Equal(t, 7, policy.ThresholdFor(models.PeriodicityMonthly))
	assert.Equal(t, 14, policy.ThresholdFor(models.PeriodicityQuarterly))
	assert.Equal(t, 30, policy.ThresholdFor(models.PeriodicityBiannual))
	assert.Equal(t, 60, policy.ThresholdFor(models.PeriodicityAnnual))

	for _, unknown := range []models.Periodicity{"", "weekly", "mensuel"} {
		assert.Equal(t, DefaultThresholdDays, policy.ThresholdFor(unknown), string(unknown))
	}
}

func TestThresholdPolicyFromConfig(t *testing.T) {
	policy := ThresholdPolicyFromConfig(&config.Config{
		ThresholdMonthlyDays:   3,
		ThresholdQuarterlyDays: 10,
		ThresholdBiannualDays:  20,
		ThresholdAnnualDays:    45,
		ThresholdDefaultDays:   45,
	})

	assert.Equal(t, 3, policy.ThresholdFor(models.PeriodicityMonthly))
	assert.Equal(t, 45, policy.ThresholdFor("unknown"))
}

func TestThresholdForDocument(t *testing.T) {
	policy := DefaultThresholdPolicy()

	fixed := &models.Document{Type: "RC Mod.07", Periodicity: models.PeriodicityAnnual}
	assert.Equal(t, 14, policy.ThresholdForDocument(fixed))

	custom := &models.Document{Type: "Carte grise", Periodicity: "", IsComplementary: true}
	assert.Equal(t, 60, policy.ThresholdForDocument(custom))
}

func TestExpirationFor(t *testing.T) {
	from := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC), ExpirationFor(models.PeriodicityMonthly, from))
	assert.Equal(t, time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC), ExpirationFor(models.PeriodicityQuarterly, from))
	assert.Equal(t, time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC), ExpirationFor(models.PeriodicityBiannual, from))
	assert.Equal(t, time.Date(2027, 1, 15, 10, 0, 0, 0, time.UTC), ExpirationFor(models.PeriodicityAnnual, from))
	assert.Equal(t, time.Date(2027, 1, 15, 10, 0, 0, 0, time.UTC), ExpirationFor("", from))
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 5, 10, 18, 45, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysUntil(now, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, 1, DaysUntil(now, time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, 5, DaysUntil(now, now.AddDate(0, 0, 5), time.UTC))
	assert.Equal(t, -3, DaysUntil(now, now.AddDate(0, 0, -3), time.UTC))

	// 23:30 UTC on the 10th is already the 11th in UTC+1
	late := time.Date(2026, 5, 10, 23, 30, 0, 0, time.UTC)
	plusOne := time.FixedZone("UTC+1", 3600)
	assert.Equal(t, -1, DaysUntil(late, time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC), plusOne))
}

func TestWithinThreshold(t *testing.T) {
	assert.True(t, WithinThreshold(0, 7))
	assert.True(t, WithinThreshold(7, 7))
	assert.False(t, WithinThreshold(8, 7))
	assert.False(t, WithinThreshold(-1, 7))
}

func TestPriorityFromDays(t *testing.T) {
	doc := DocumentExpirationScale
	assert.Equal(t, models.PriorityCritique, doc.FromDays(0))
	assert.Equal(t, models.PriorityCritique, doc.FromDays(2))
	assert.Equal(t, models.PriorityUrgent, doc.FromDays(5))
	assert.Equal(t, models.PriorityUrgent, doc.FromDays(7))
	assert.Equal(t, models.PriorityNormal, doc.FromDays(15))
	assert.Equal(t, models.PriorityInfo, doc.FromDays(16))

	deadline := DeadlineScale
	assert.Equal(t, models.PriorityCritique, deadline.FromDays(-2))
	assert.Equal(t, models.PriorityCritique, deadline.FromDays(5))
	assert.Equal(t, models.PriorityUrgent, deadline.FromDays(10))
	assert.Equal(t, models.PriorityNormal, deadline.FromDays(20))
	assert.Equal(t, models.PriorityInfo, deadline.FromDays(21))

	assert.Equal(t, models.PriorityNormal, deadline.FromOptionalDays(nil, models.PriorityNormal))
}
