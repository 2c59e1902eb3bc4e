package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/eventfinder/ef-aggregator/internal/adapter"
)

const PROVIDER_NAME = "tmdb"

// Movie represents one result from the TMDB discover endpoint
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	GenreIDs         []int64 `json:"genre_ids"`
	OriginalLanguage string  `json:"original_language"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
}

// DiscoverResponse represents the paginated response from the discover endpoint
type DiscoverResponse struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int64   `json:"total_results"`
	Results      []Movie `json:"results"`
}

// DiscoverParams holds the caller-controlled discover filters. The remaining
// filters are fixed: English originals, vote_average >= 6, vote_count >= 2000,
// no adult or video entries, sorted by release date ascending.
type DiscoverParams struct {
	// ReleaseDateGTE is the inclusive lower bound on primary release date (ISO date)
	ReleaseDateGTE string
	// ReleaseDateLTE is the inclusive upper bound on primary release date (ISO date)
	ReleaseDateLTE string
	// Page is the 1-based result page; zero means the first page
	Page int
}

// Client defines the interface for TMDB client operations to enable mocking
type Client interface {
	// DiscoverMovies fetches one page of the movie discover listing
	DiscoverMovies(ctx context.Context, params DiscoverParams) (*DiscoverResponse, error)
}

// TMDBClient implements the TMDB client
type TMDBClient struct {
	httpClient adapter.HTTPClient
	apiURL     string
	apiKey     string
	json       adapter.JSON
}

// NewClient creates a new TMDB client
func NewClient(httpClient adapter.HTTPClient, apiURL string, apiKey string, json adapter.JSON) Client {
	return &TMDBClient{
		httpClient: httpClient,
		apiURL:     apiURL,
		apiKey:     apiKey,
		json:       json,
	}
}

// DiscoverMovies fetches one page of the movie discover listing
func (c *TMDBClient) DiscoverMovies(ctx context.Context, params DiscoverParams) (*DiscoverResponse, error) {
	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("include_adult", "false")
	query.Set("include_video", "false")
	query.Set("sort_by", "release_date.asc")
	query.Set("with_original_language", "en")
	query.Set("vote_average.gte", "6")
	query.Set("vote_count.gte", "2000")

	if params.ReleaseDateGTE != "" {
		query.Set("primary_release_date.gte", params.ReleaseDateGTE)
	}
	if params.ReleaseDateLTE != "" {
		query.Set("primary_release_date.lte", params.ReleaseDateLTE)
	}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}

	requestURL := fmt.Sprintf("%s/discover/movie?%s", c.apiURL, query.Encode())

	respBody, err := c.httpClient.GetBytes(ctx, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call TMDB API: %w", err)
	}

	var response DiscoverResponse
	if err := c.json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal TMDB response: %w", err)
	}

	return &response, nil
}
