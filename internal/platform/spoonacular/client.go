package spoonacular

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const defaultBaseURL = "https://api.spoonacular.com"

// ErrInvalidDocument indicates the extraction service answered 2xx but the
// body did not match the expected document shape.
var ErrInvalidDocument = errors.New("invalid extraction document")

// StatusError is returned when the extraction service answers with a
// non-2xx status. The body is kept for server-side logging only.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("extraction service returned status %d", e.StatusCode)
}

// Document is the extraction service's response shape.
type Document struct {
	ID                   int             `json:"id"`
	Title                string          `json:"title"`
	Image                string          `json:"image"`
	Servings             int             `json:"servings"`
	ReadyInMinutes       int             `json:"readyInMinutes"`
	PreparationMinutes   int             `json:"preparationMinutes"`
	CookingMinutes       int             `json:"cookingMinutes"`
	Instructions         string          `json:"instructions"`
	AnalyzedInstructions []AnalyzedStep  `json:"analyzedInstructions"`
	ExtendedIngredients  []DocIngredient `json:"extendedIngredients"`
}

// AnalyzedStep is one numbered step of the analyzed instruction list.
type AnalyzedStep struct {
	Number int    `json:"number"`
	Step   string `json:"step"`
}

// DocIngredient is one entry of the extended ingredient list.
type DocIngredient struct {
	ID       int     `json:"id"`
	Original string  `json:"original"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Aisle    string  `json:"aisle,omitempty"`
}

// Client calls the recipe extraction service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new extraction-service client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    defaultBaseURL,
	}
}

// NewClientWithBaseURL creates a client against a non-default endpoint.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
	}
}

// Extract asks the service to parse the page at sourceURL into a structured
// recipe document. A single GET, no retries.
func (c *Client) Extract(ctx context.Context, apiKey, sourceURL string) (*Document, error) {
	q := url.Values{}
	q.Set("apiKey", apiKey)
	q.Set("url", sourceURL)
	endpoint := c.baseURL + "/recipes/extract?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Title == "" {
		return nil, fmt.Errorf("%w: missing title", ErrInvalidDocument)
	}

	return &doc, nil
}
