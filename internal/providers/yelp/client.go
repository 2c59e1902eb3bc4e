package yelp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/eventfinder/ef-aggregator/internal/adapter"
)

const PROVIDER_NAME = "yelp"

var ErrNoAPIKey = errors.New("no API key provided")

// MatchParams identify a business for an exact match lookup
type MatchParams struct {
	Name     string
	Address1 string
	City     string
	State    string
	// Country defaults to US when empty
	Country string
}

// matchResponse represents the response from the business match endpoint.
// Businesses are kept as raw maps: the pipeline merges them verbatim into the
// event's metadata slot, so a typed struct would only lose fields.
type matchResponse struct {
	Businesses []map[string]interface{} `json:"businesses"`
}

// Client defines the interface for Yelp client operations to enable mocking
type Client interface {
	// BusinessMatch finds businesses exactly matching a name and address
	BusinessMatch(ctx context.Context, params MatchParams) ([]map[string]interface{}, error)
	// Search runs a keyword search near a location
	Search(ctx context.Context, term, location string, limit int) ([]map[string]interface{}, error)
	// BusinessDetails fetches the full business record by id
	BusinessDetails(ctx context.Context, businessID string) (map[string]interface{}, error)
}

// YelpClient implements the Yelp Fusion client
type YelpClient struct {
	httpClient adapter.HTTPClient
	apiURL     string
	apiKey     string
	json       adapter.JSON
}

// NewClient creates a new Yelp client
func NewClient(httpClient adapter.HTTPClient, apiURL string, apiKey string, json adapter.JSON) Client {
	return &YelpClient{
		httpClient: httpClient,
		apiURL:     apiURL,
		apiKey:     apiKey,
		json:       json,
	}
}

func (c *YelpClient) get(ctx context.Context, requestURL string, out interface{}) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}

	respBody, err := c.httpClient.GetBytes(ctx, requestURL, headers)
	if err != nil {
		return fmt.Errorf("failed to call Yelp API: %w", err)
	}

	if err := c.json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal Yelp response: %w", err)
	}

	return nil
}

// BusinessMatch finds businesses exactly matching a name and address
func (c *YelpClient) BusinessMatch(ctx context.Context, params MatchParams) ([]map[string]interface{}, error) {
	country := params.Country
	if country == "" {
		country = "US"
	}

	query := url.Values{}
	query.Set("name", params.Name)
	query.Set("address1", params.Address1)
	query.Set("city", params.City)
	query.Set("state", params.State)
	query.Set("country", country)

	requestURL := fmt.Sprintf("%s/businesses/matches?%s", c.apiURL, query.Encode())

	var response matchResponse
	if err := c.get(ctx, requestURL, &response); err != nil {
		return nil, err
	}

	return response.Businesses, nil
}

// Search runs a keyword search near a location
func (c *YelpClient) Search(ctx context.Context, term, location string, limit int) ([]map[string]interface{}, error) {
	query := url.Values{}
	query.Set("term", term)
	query.Set("location", location)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	requestURL := fmt.Sprintf("%s/businesses/search?%s", c.apiURL, query.Encode())

	var response matchResponse
	if err := c.get(ctx, requestURL, &response); err != nil {
		return nil, err
	}

	return response.Businesses, nil
}

// BusinessDetails fetches the full business record by id
func (c *YelpClient) BusinessDetails(ctx context.Context, businessID string) (map[string]interface{}, error) {
	requestURL := fmt.Sprintf("%s/businesses/%s", c.apiURL, url.PathEscape(businessID))

	details := map[string]interface{}{}
	if err := c.get(ctx, requestURL, &details); err != nil {
		return nil, err
	}

	return details, nil
}
