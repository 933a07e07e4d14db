// Package vision turns an image into the ranked label candidates that the
// crop resolver consumes.
package vision

import (
	"context"
	"errors"

	"cultivai/cropvision/croplabel"
)

var (
	// ErrEmptyImage reports a classification request without image bytes.
	ErrEmptyImage = errors.New("empty image")
	// ErrRateLimited reports an upstream 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrResponseInvalid reports a response body that could not be decoded.
	ErrResponseInvalid = errors.New("response invalid")
)

// Classifier labels an image. Candidates are returned in descending
// confidence order as ranked by the underlying model.
type Classifier interface {
	Classify(ctx context.Context, image []byte) ([]croplabel.Candidate, error)
	ModelID() string
}
