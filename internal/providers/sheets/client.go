package sheets

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/eventfinder/ef-aggregator/internal/adapter"
)

const PROVIDER_NAME = "sheets"

const readOnlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

// ValuesResponse represents the response from the spreadsheets.values.get endpoint
type ValuesResponse struct {
	Range          string          `json:"range"`
	MajorDimension string          `json:"majorDimension"`
	Values         [][]interface{} `json:"values"`
}

// Client defines the interface for spreadsheet read operations to enable mocking
type Client interface {
	// GetValues fetches the cell values of one range as rows of strings
	GetValues(ctx context.Context, spreadsheetID, valueRange string) ([][]string, error)
}

// SheetsClient implements the Google Sheets values client
type SheetsClient struct {
	httpClient adapter.HTTPClient
	apiURL     string
	tokens     func(ctx context.Context) oauth2.TokenSource
	json       adapter.JSON
}

// NewClient creates a new Sheets client authenticating with a service
// account credential blob
func NewClient(httpClient adapter.HTTPClient, apiURL string, serviceAccountJSON []byte, json adapter.JSON) (Client, error) {
	jwtConfig, err := google.JWTConfigFromJSON(serviceAccountJSON, readOnlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}

	return &SheetsClient{
		httpClient: httpClient,
		apiURL:     apiURL,
		tokens:     jwtConfig.TokenSource,
		json:       json,
	}, nil
}

// NewClientWithTokenSource creates a Sheets client around an existing token
// source, bypassing the service account exchange
func NewClientWithTokenSource(httpClient adapter.HTTPClient, apiURL string, tokenSource oauth2.TokenSource, json adapter.JSON) Client {
	return &SheetsClient{
		httpClient: httpClient,
		apiURL:     apiURL,
		tokens: func(context.Context) oauth2.TokenSource {
			return tokenSource
		},
		json: json,
	}
}

// GetValues fetches the cell values of one range as rows of strings
func (c *SheetsClient) GetValues(ctx context.Context, spreadsheetID, valueRange string) ([][]string, error) {
	token, err := c.tokens(ctx).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	requestURL := fmt.Sprintf("%s/spreadsheets/%s/values/%s",
		c.apiURL,
		url.PathEscape(spreadsheetID),
		url.PathEscape(valueRange),
	)

	headers := map[string]string{
		"Authorization": "Bearer " + token.AccessToken,
	}

	respBody, err := c.httpClient.GetBytes(ctx, requestURL, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to call Sheets API: %w", err)
	}

	var response ValuesResponse
	if err := c.json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Sheets response: %w", err)
	}

	rows := make([][]string, 0, len(response.Values))
	for _, rawRow := range response.Values {
		row := make([]string, 0, len(rawRow))
		for _, cell := range rawRow {
			if cell == nil {
				row = append(row, "")
				continue
			}
			row = append(row, fmt.Sprintf("%v", cell))
		}
		rows = append(rows, row)
	}

	return rows, nil
}
