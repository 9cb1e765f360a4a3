package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Prediction statuses reported by the provider.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// API is the capability surface the rest of the service depends on, so the
// shoot launcher and reconciler can be tested against fakes.
type API interface {
	CreatePrediction(ctx context.Context, input CreatePredictionInput) (*Prediction, error)
	GetPrediction(ctx context.Context, externalID string) (*Prediction, error)
}

// GenerationInput is the model input payload for one generation request.
type GenerationInput struct {
	Prompt               string  `json:"prompt"`
	HFLora               string  `json:"hf_lora,omitempty"`
	LoraScale            float64 `json:"lora_scale"`
	NumOutputs           int     `json:"num_outputs"`
	AspectRatio          string  `json:"aspect_ratio"`
	OutputFormat         string  `json:"output_format"`
	GuidanceScale        float64 `json:"guidance_scale"`
	OutputQuality        int     `json:"output_quality"`
	PromptStrength       float64 `json:"prompt_strength"`
	NumInferenceSteps    int     `json:"num_inference_steps"`
	DisableSafetyChecker bool    `json:"disable_safety_checker"`
	NegativePrompt       string  `json:"negative_prompt,omitempty"`
}

// CreatePredictionInput describes a prediction create call.
type CreatePredictionInput struct {
	Version             string          `json:"version"`
	Input               GenerationInput `json:"input"`
	WebhookURL          string          `json:"webhook,omitempty"`
	WebhookEventsFilter []string        `json:"webhook_events_filter,omitempty"`
}

// Prediction is the provider-side view of a generation request.
type Prediction struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Output []string `json:"output"`
	Error  string   `json:"error"`
}

type apiError struct {
	Detail string `json:"detail"`
	Title  string `json:"title"`
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIToken   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client talks to the Replicate HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient builds a Client from the given options.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.replicate.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIToken),
	}
}

// CreatePrediction submits a generation request and returns the accepted
// prediction, including the provider-assigned id.
func (c *Client) CreatePrediction(ctx context.Context, input CreatePredictionInput) (*Prediction, error) {
	if c == nil {
		return nil, errors.New("replicate client not configured")
	}
	if c.token == "" {
		return nil, errors.New("replicate: API token is missing")
	}
	if strings.TrimSpace(input.Version) == "" {
		return nil, errors.New("replicate: model version required")
	}
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.do(req)
}

// GetPrediction fetches the current provider status for an accepted request.
func (c *Client) GetPrediction(ctx context.Context, externalID string) (*Prediction, error) {
	if c == nil {
		return nil, errors.New("replicate client not configured")
	}
	if c.token == "" {
		return nil, errors.New("replicate: API token is missing")
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, errors.New("replicate: prediction id required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/predictions/"+externalID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Prediction, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Detail != "" {
			return nil, fmt.Errorf("replicate: %s (http %d)", apiErr.Detail, resp.StatusCode)
		}
		return nil, fmt.Errorf("replicate: http %d", resp.StatusCode)
	}

	var out Prediction
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("replicate: response missing prediction id")
	}
	return &out, nil
}

var _ API = (*Client)(nil)
