package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/rotation-control/internal/config"
	"github.com/jakechorley/rotation-control/pkg/core/model"
)

// Mailer defines the email operation needed to send the digest
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// DigestResult reports what SendAlertDigest did
type DigestResult struct {
	// SkippedReason is set when nothing was sent
	SkippedReason string
	Alerts        int
	Sent          []string
	Failed        map[string]error
}

// IsDigestDay reports whether rule has an occurrence on now's calendar day.
// The rule is anchored at the start of that day, so INTERVAL counts from today.
func IsDigestDay(rule string, now time.Time) (bool, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return false, fmt.Errorf("failed to parse digest rrule: %w", err)
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Second)

	r.DTStart(dayStart)
	return len(r.Between(dayStart, dayEnd, true)) > 0, nil
}

// SendAlertDigest emails the current alerts to every configured recipient.
// Unless force is set it only sends on days matching the digest rrule.
// A failed recipient does not stop the others; an error is returned only when every send fails.
func SendAlertDigest(ctx context.Context, store TaskReader, mailer Mailer, cfg *config.Config, settings Settings, logger *zap.Logger, now time.Time, force bool) (*DigestResult, error) {
	if cfg.Digest == nil {
		return nil, fmt.Errorf("digest is not configured")
	}

	if !force {
		due, err := IsDigestDay(cfg.Digest.RRule, now)
		if err != nil {
			return nil, err
		}
		if !due {
			logger.Info("Not a digest day, skipping", zap.String("rrule", cfg.Digest.RRule))
			return &DigestResult{SkippedReason: "not a digest day"}, nil
		}
	}

	alertsResult, err := ViewAlerts(ctx, store, settings, logger, now)
	if err != nil {
		return nil, err
	}

	result := &DigestResult{Alerts: len(alertsResult.Alerts), Failed: make(map[string]error)}
	if len(alertsResult.Alerts) == 0 {
		logger.Info("No alerts, skipping digest")
		result.SkippedReason = "no alerts"
		return result, nil
	}

	body := RenderDigest(alertsResult, now)
	for _, recipient := range cfg.Digest.Recipients {
		if err := mailer.SendEmail(ctx, recipient, cfg.Digest.Subject, body); err != nil {
			logger.Warn("Failed to send digest", zap.String("recipient", recipient), zap.Error(err))
			result.Failed[recipient] = err
			continue
		}
		result.Sent = append(result.Sent, recipient)
	}

	logger.Info("Alert digest sent",
		zap.Int("alerts", result.Alerts),
		zap.Int("sent", len(result.Sent)),
		zap.Int("failed", len(result.Failed)))

	if len(result.Sent) == 0 {
		return result, fmt.Errorf("failed to send digest to any of %d recipients", len(cfg.Digest.Recipients))
	}

	return result, nil
}

// RenderDigest formats alerts as the plain-text digest body
func RenderDigest(alerts *AlertsResult, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Sensitive task rotation alerts for %s\n", now.Format("2 January 2006"))
	fmt.Fprintf(&b, "%d alerts across %d tasks: %d high, %d medium\n\n",
		len(alerts.Alerts), alerts.TaskCount,
		alerts.BySeverity[model.SeverityHigh], alerts.BySeverity[model.SeverityMedium])

	for _, alert := range alerts.Alerts {
		fmt.Fprintf(&b, "[%s] %s: %s\n", strings.ToUpper(string(alert.Severity)), alert.TaskTitle, alert.Message)
	}

	return b.String()
}
