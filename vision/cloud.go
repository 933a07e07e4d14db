package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cultivai/cropvision/croplabel"
)

// CloudOptions configures the Google Cloud Vision label detection client.
type CloudOptions struct {
	Endpoint       string `json:"endpoint" yaml:"endpoint"`
	APIKey         string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APIKeyEnv      string `json:"api_key_env" yaml:"api_key_env"`
	MaxResults     int    `json:"max_results" yaml:"max_results"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// ApplyDefaults populates zero values with sensible defaults.
func (o *CloudOptions) ApplyDefaults() {
	if o.Endpoint == "" {
		o.Endpoint = "https://vision.googleapis.com/v1/images:annotate"
	}
	if o.APIKeyEnv == "" {
		o.APIKeyEnv = "GOOGLE_VISION_API_KEY"
	}
	if o.MaxResults <= 0 {
		o.MaxResults = 5
	}
	if o.TimeoutSeconds <= 0 {
		o.TimeoutSeconds = 30
	}
}

// CloudClassifier calls the images:annotate endpoint with LABEL_DETECTION.
type CloudClassifier struct {
	endpoint   string
	apiKey     string
	maxResults int
	do         func(*http.Request) (*http.Response, error)
}

// NewCloudClassifier validates the options and builds a client. The API key
// falls back to the environment variable named by APIKeyEnv.
func NewCloudClassifier(opts CloudOptions) (*CloudClassifier, error) {
	opts.ApplyDefaults()
	key := opts.APIKey
	if key == "" {
		key = os.Getenv(opts.APIKeyEnv)
	}
	if key == "" {
		return nil, errors.New("vision: missing api key")
	}
	if _, err := url.Parse(opts.Endpoint); err != nil {
		return nil, fmt.Errorf("vision: invalid endpoint: %w", err)
	}
	hc := &http.Client{Timeout: time.Duration(opts.TimeoutSeconds) * time.Second}
	return &CloudClassifier{
		endpoint:   opts.Endpoint,
		apiKey:     key,
		maxResults: opts.MaxResults,
		do:         hc.Do,
	}, nil
}

// ModelID identifies the classifier in cache keys.
func (c *CloudClassifier) ModelID() string {
	return fmt.Sprintf("cloud-vision:%d", c.maxResults)
}

type annotateImage struct {
	Content string `json:"content"`
}

type annotateFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type annotateRequest struct {
	Image    annotateImage     `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateBody struct {
	Requests []annotateRequest `json:"requests"`
}

type annotateStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type annotateResponse struct {
	Responses []struct {
		LabelAnnotations []struct {
			Description string  `json:"description"`
			Score       float64 `json:"score"`
		} `json:"labelAnnotations"`
		Error *annotateStatus `json:"error,omitempty"`
	} `json:"responses"`
	Error *annotateStatus `json:"error,omitempty"`
}

// Classify sends the image and returns its label annotations in the order
// the service ranked them. An image without labels yields an empty slice.
func (c *CloudClassifier) Classify(ctx context.Context, image []byte) ([]croplabel.Candidate, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	body, err := json.Marshal(annotateBody{Requests: []annotateRequest{{
		Image:    annotateImage{Content: base64.StdEncoding.EncodeToString(image)},
		Features: []annotateFeature{{Type: "LABEL_DETECTION", MaxResults: c.maxResults}},
	}}})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := c.do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("annotate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("vision upstream %d: %s", resp.StatusCode, strings.TrimSpace(string(slurp)))
	}
	var ar annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("decode: %w", ErrResponseInvalid)
	}
	if ar.Error != nil {
		return nil, fmt.Errorf("vision error %d: %s", ar.Error.Code, ar.Error.Message)
	}
	if len(ar.Responses) == 0 {
		return []croplabel.Candidate{}, nil
	}
	first := ar.Responses[0]
	if first.Error != nil {
		return nil, fmt.Errorf("vision error %d: %s", first.Error.Code, first.Error.Message)
	}
	out := make([]croplabel.Candidate, 0, len(first.LabelAnnotations))
	for _, la := range first.LabelAnnotations {
		out = append(out, croplabel.Candidate{Description: la.Description, Score: la.Score})
	}
	return out, nil
}
