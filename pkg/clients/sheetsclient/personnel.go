package sheetsclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/jakechorley/rotation-control/internal/config"
	"github.com/jakechorley/rotation-control/pkg/core/model"
)

// Expected column names in the personnel sheet
var personnelFields = []string{
	"Personnel ID",
	"First name",
	"Last name",
	"Email",
	"Department",
	"Status",
}

// ListPersonnel retrieves and parses staff from the configured personnel sheet
func (c *Client) ListPersonnel(ctx context.Context, cfg *config.SheetsConfig) ([]model.Personnel, error) {
	values, err := c.GetValues(ctx, cfg.PersonnelSheetID, cfg.PersonnelTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get personnel data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}

	personnel, err := parsePersonnel(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse personnel: %w", err)
	}

	ComputeDisplayNames(personnel)

	return personnel, nil
}

// ComputeDisplayNames calculates display names that stay unique across the list:
// first name alone when unique, then "FirstName L.", then the full name.
func ComputeDisplayNames(personnel []model.Personnel) {
	firstNameCounts := make(map[string]int)
	initialCounts := make(map[string]int)
	for _, p := range personnel {
		firstNameCounts[p.FirstName]++
		if key, ok := initialKey(p); ok {
			initialCounts[key]++
		}
	}

	for i := range personnel {
		p := &personnel[i]

		if firstNameCounts[p.FirstName] == 1 {
			p.DisplayName = p.FirstName
			continue
		}

		if key, ok := initialKey(*p); ok && initialCounts[key] == 1 {
			p.DisplayName = key
			continue
		}

		p.DisplayName = p.FullName()
	}
}

func initialKey(p model.Personnel) (string, bool) {
	if p.LastName == "" {
		return "", false
	}
	initial := []rune(p.LastName)[0]
	return p.FirstName + " " + string(initial) + ".", true
}

// parsePersonnel converts raw spreadsheet data into Personnel structs
func parsePersonnel(raw [][]interface{}) ([]model.Personnel, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("no header row found")
	}

	indexes, err := headerIndex(raw[0], personnelFields)
	if err != nil {
		return nil, err
	}

	personnel := make([]model.Personnel, 0, len(raw)-1)
	seen := make(map[string]int)
	for i := 1; i < len(raw); i++ {
		row := raw[i]

		id := strings.TrimSpace(cellValue(indexes, "Personnel ID", row))
		firstName := strings.TrimSpace(cellValue(indexes, "First name", row))
		// Skip blank rows
		if id == "" && firstName == "" {
			continue
		}
		if id == "" {
			return nil, fmt.Errorf("missing personnel ID in row %d", i+1)
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate personnel ID %q in rows %d and %d", id, prev, i+1)
		}
		seen[id] = i + 1

		personnel = append(personnel, model.Personnel{
			ID:         id,
			FirstName:  firstName,
			LastName:   strings.TrimSpace(cellValue(indexes, "Last name", row)),
			Email:      strings.TrimSpace(cellValue(indexes, "Email", row)),
			Department: strings.TrimSpace(cellValue(indexes, "Department", row)),
			Status:     strings.TrimSpace(cellValue(indexes, "Status", row)),
		})
	}

	return personnel, nil
}
