package services

import (
	"backoffice_app_go/models"
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// SecurityAlert is raised when one IP fails to log in too often
type SecurityAlert struct {
	Timestamp time.Time
	IP        string
	Reason    string
	Attempts  int
}

// LoginMonitor counts failed logins per IP over a sliding window and raises
// at most one alert per IP per AlertEvery.
type LoginMonitor struct {
	Threshold  int
	Window     time.Duration
	AlertEvery time.Duration
	Now        func() time.Time
	// Notify is called outside the lock for every new alert
	Notify func(ctx context.Context, alert SecurityAlert)

	mu           sync.Mutex
	failedLogins map[string][]time.Time // IP -> failure timestamps
	alertedIPs   map[string]time.Time   // IP -> last alert
	alerts       []SecurityAlert        // newest first
}

const maxKeptAlerts = 100

func NewLoginMonitor() *LoginMonitor {
	return &LoginMonitor{
		Threshold:    5,
		Window:       10 * time.Minute,
		AlertEvery:   time.Hour,
		Now:          time.Now,
		failedLogins: make(map[string][]time.Time),
		alertedIPs:   make(map[string]time.Time),
	}
}

// TrackFailedLogin records a failure from ip and reports whether it raised
// an alert.
func (m *LoginMonitor) TrackFailedLogin(ctx context.Context, ip string) bool {
	m.mu.Lock()
	now := m.Now()
	m.pruneLocked(now)

	m.failedLogins[ip] = append(m.failedLogins[ip], now)
	attempts := len(m.failedLogins[ip])
	if attempts < m.Threshold {
		m.mu.Unlock()
		return false
	}
	if last, ok := m.alertedIPs[ip]; ok && now.Sub(last) < m.AlertEvery {
		m.mu.Unlock()
		return false
	}

	m.alertedIPs[ip] = now
	alert := SecurityAlert{
		Timestamp: now,
		IP:        ip,
		Reason:    "Multiple failed logins detected",
		Attempts:  attempts,
	}
	m.alerts = append([]SecurityAlert{alert}, m.alerts...)
	if len(m.alerts) > maxKeptAlerts {
		m.alerts = m.alerts[:maxKeptAlerts]
	}
	m.mu.Unlock()

	log.Printf("[SECURITY ALERT] %s from IP: %s (%d attempts in %s)", alert.Reason, ip, attempts, m.Window)
	if m.Notify != nil {
		m.Notify(ctx, alert)
	}
	return true
}

// RecentAlerts returns a copy of the kept alerts, newest first
func (m *LoginMonitor) RecentAlerts() []SecurityAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SecurityAlert(nil), m.alerts...)
}

// pruneLocked drops failures older than the window and expired alert marks
func (m *LoginMonitor) pruneLocked(now time.Time) {
	windowStart := now.Add(-m.Window)
	for ip, attempts := range m.failedLogins {
		kept := attempts[:0]
		for _, t := range attempts {
			if t.After(windowStart) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(m.failedLogins, ip)
			continue
		}
		m.failedLogins[ip] = kept
	}
	for ip, last := range m.alertedIPs {
		if now.Sub(last) >= m.AlertEvery {
			delete(m.alertedIPs, ip)
		}
	}
}

// AdminAlertNotifier sends each alert to the administrators as a critique
// notification.
func AdminAlertNotifier(d *Dispatcher) func(ctx context.Context, alert SecurityAlert) {
	return func(ctx context.Context, alert SecurityAlert) {
		p := GenericPayload(GenericInput{
			Title:          "Alerte sécurité : tentatives de connexion suspectes",
			Body:           fmt.Sprintf("%d échecs de connexion depuis l'adresse %s à %s.", alert.Attempts, alert.IP, alert.Timestamp.Format("15:04")),
			Priority:       models.PriorityCritique,
			ActionRequired: true,
		})
		if _, err := d.DispatchToRole(ctx, models.RoleAdmin, p); err != nil {
			log.Printf("[SECURITY] Failed to notify administrators: %v", err)
		}
	}
}
