package sheetsclient

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client wraps the Google Sheets API client
type Client struct {
	service *sheets.Service
}

// NewClient creates a Sheets client from an HTTP client already carrying OAuth credentials
func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	return NewClientWithOptions(ctx, option.WithHTTPClient(httpClient))
}

// NewClientWithOptions creates a Sheets client from raw API options
func NewClientWithOptions(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{service: service}, nil
}

// GetValues reads values from a spreadsheet range
func (c *Client) GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get values: %w", err)
	}

	return resp.Values, nil
}

// headerIndex maps each required column name to its position in the header row
func headerIndex(header []interface{}, fields []string) (map[string]int, error) {
	indexes := make(map[string]int, len(fields))
	for _, field := range fields {
		index := -1
		for i, cell := range header {
			if cellStr, ok := cell.(string); ok && cellStr == field {
				index = i
				break
			}
		}
		if index == -1 {
			return nil, fmt.Errorf("missing required field in header: %s", field)
		}
		indexes[field] = index
	}
	return indexes, nil
}

// cellValue returns the string in the named column, or "" for short rows and non-string cells
func cellValue(indexes map[string]int, field string, row []interface{}) string {
	index, ok := indexes[field]
	if !ok || index >= len(row) {
		return ""
	}
	if str, ok := row[index].(string); ok {
		return str
	}
	return ""
}
