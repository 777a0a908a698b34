package sheetsclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/jakechorley/rotation-control/internal/config"
	"github.com/jakechorley/rotation-control/pkg/core/model"
)

// WorkflowStep is one row of the workflow inventory sheet
type WorkflowStep struct {
	ID             string
	Title          string
	Department     string
	Sensitive      bool
	RotationPeriod model.RotationPeriod
}

// Expected column names in the workflow sheet
var workflowFields = []string{
	"Step ID",
	"Title",
	"Department",
	"Sensitive",
	"Rotation period",
}

// periodAliases maps the labels staff type into the sheet onto rotation periods
var periodAliases = map[string]model.RotationPeriod{
	"monthly":     model.PeriodMonthly,
	"1_month":     model.PeriodMonthly,
	"quarterly":   model.PeriodQuarterly,
	"3_months":    model.PeriodQuarterly,
	"semi_annual": model.PeriodSemiAnnual,
	"semiannual":  model.PeriodSemiAnnual,
	"6_months":    model.PeriodSemiAnnual,
	"annual":      model.PeriodAnnual,
	"yearly":      model.PeriodAnnual,
	"1_year":      model.PeriodAnnual,
	"biennial":    model.PeriodBiennial,
	"2_years":     model.PeriodBiennial,
}

// ListWorkflowSteps retrieves every step from the configured workflow sheet
func (c *Client) ListWorkflowSteps(ctx context.Context, cfg *config.SheetsConfig) ([]WorkflowStep, error) {
	values, err := c.GetValues(ctx, cfg.WorkflowSheetID, cfg.WorkflowTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}

	steps, err := parseWorkflowSteps(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workflow steps: %w", err)
	}

	return steps, nil
}

// ParsePeriodLabel normalises a free-text period label such as "Semi-annual" or "6 months"
func ParsePeriodLabel(label string) (model.RotationPeriod, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)

	if period, ok := periodAliases[key]; ok {
		return period, nil
	}
	return "", fmt.Errorf("unknown rotation period %q", label)
}

func parseSensitive(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "y", "true", "x", "1":
		return true
	}
	return false
}

// parseWorkflowSteps converts raw spreadsheet data into WorkflowSteps.
// Sensitive steps must carry a valid rotation period.
func parseWorkflowSteps(raw [][]interface{}) ([]WorkflowStep, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("no header row found")
	}

	indexes, err := headerIndex(raw[0], workflowFields)
	if err != nil {
		return nil, err
	}

	steps := make([]WorkflowStep, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row := raw[i]

		id := strings.TrimSpace(cellValue(indexes, "Step ID", row))
		if id == "" {
			continue
		}

		step := WorkflowStep{
			ID:         id,
			Title:      strings.TrimSpace(cellValue(indexes, "Title", row)),
			Department: strings.TrimSpace(cellValue(indexes, "Department", row)),
			Sensitive:  parseSensitive(cellValue(indexes, "Sensitive", row)),
		}

		if step.Sensitive {
			period, err := ParsePeriodLabel(cellValue(indexes, "Rotation period", row))
			if err != nil {
				return nil, fmt.Errorf("invalid rotation period for step %s in row %d: %w", id, i+1, err)
			}
			step.RotationPeriod = period
		}

		steps = append(steps, step)
	}

	return steps, nil
}
