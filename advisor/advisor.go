// Package advisor runs the capture pipeline: classify a photo, resolve the
// crop, look up the local weather and ask for care recommendations.
package advisor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cultivai/cropvision/croplabel"
	"cultivai/cropvision/store"
	"cultivai/cropvision/weather"
)

// Classifier labels an image.
type Classifier interface {
	Classify(ctx context.Context, image []byte) ([]croplabel.Candidate, error)
}

// WeatherSource reports current conditions.
type WeatherSource interface {
	Current(ctx context.Context, at weather.Coordinates) (*weather.Report, error)
}

// Recommender produces care advice for a crop.
type Recommender interface {
	Recommend(ctx context.Context, crop string, w *weather.Report) (string, error)
}

// Catalog is the part of the store used to add detected crops.
type Catalog interface {
	FindCropByName(ctx context.Context, name string) (*store.Crop, error)
	AddUserCrop(ctx context.Context, userID, cropID string) error
}

// Analysis is the outcome of one capture.
type Analysis struct {
	Crop           croplabel.ResolvedCrop `json:"crop"`
	Candidates     []croplabel.Candidate  `json:"candidates"`
	Weather        *weather.Report        `json:"weather,omitempty"`
	Recommendation string                 `json:"recommendation,omitempty"`
	Warnings       []string               `json:"warnings,omitempty"`
}

// Advisor wires the collaborators together. Weather, Recommender and
// Catalog are optional.
type Advisor struct {
	resolver    *croplabel.Resolver
	classifier  Classifier
	weather     WeatherSource
	recommender Recommender
	catalog     Catalog
	logger      *zap.Logger
}

// Option customizes an Advisor.
type Option func(*Advisor)

// WithWeather enables weather lookups.
func WithWeather(w WeatherSource) Option { return func(a *Advisor) { a.weather = w } }

// WithRecommender enables recommendations.
func WithRecommender(r Recommender) Option { return func(a *Advisor) { a.recommender = r } }

// WithCatalog enables AddDetectedCrop.
func WithCatalog(c Catalog) Option { return func(a *Advisor) { a.catalog = c } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Advisor) {
		if l != nil {
			a.logger = l
		}
	}
}

// New builds an advisor around a resolver and a classifier.
func New(resolver *croplabel.Resolver, classifier Classifier, opts ...Option) (*Advisor, error) {
	if resolver == nil {
		return nil, errors.New("advisor: resolver is required")
	}
	if classifier == nil {
		return nil, errors.New("advisor: classifier is required")
	}
	a := &Advisor{resolver: resolver, classifier: classifier, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Analyze classifies the image while fetching the weather at coords, then
// resolves the crop. Classification failures and croplabel.ErrNotFound are
// returned; weather and recommendation failures only add warnings.
func (a *Advisor) Analyze(ctx context.Context, image []byte, coords *weather.Coordinates) (*Analysis, error) {
	var (
		candidates []croplabel.Candidate
		report     *weather.Report
		weatherErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := a.classifier.Classify(gctx, image)
		if err != nil {
			return fmt.Errorf("classify image: %w", err)
		}
		candidates = c
		return nil
	})
	if a.weather != nil && coords != nil {
		g.Go(func() error {
			// Weather problems never cancel classification.
			report, weatherErr = a.weather.Current(gctx, *coords)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	crop, err := a.resolver.Resolve(candidates)
	if err != nil {
		a.logger.Info("no supported crop in image", zap.Int("candidates", len(candidates)))
		return nil, err
	}
	out := &Analysis{Crop: crop, Candidates: candidates}
	a.logger.Debug("crop resolved",
		zap.String("label", crop.Label), zap.String("name", crop.Name), zap.Int("rank", crop.Rank))

	switch {
	case a.weather == nil || coords == nil:
		out.Warnings = append(out.Warnings, "weather lookup skipped")
	case weatherErr != nil:
		a.logger.Warn("weather lookup failed", zap.Error(weatherErr))
		out.Warnings = append(out.Warnings, fmt.Sprintf("weather: %v", weatherErr))
	default:
		out.Weather = report
	}

	switch {
	case out.Weather == nil:
		// Recommendations need the local conditions.
	case a.recommender == nil:
		out.Warnings = append(out.Warnings, "recommendations disabled")
	default:
		text, err := a.recommender.Recommend(ctx, crop.Name, out.Weather)
		if err != nil {
			a.logger.Warn("recommendation failed", zap.String("crop", crop.Name), zap.Error(err))
			out.Warnings = append(out.Warnings, fmt.Sprintf("recommendation: %v", err))
		} else {
			out.Recommendation = text
		}
	}
	return out, nil
}

// AddDetectedCrop makes the user follow the catalogue crop named name.
func (a *Advisor) AddDetectedCrop(ctx context.Context, userID, name string) (*store.Crop, error) {
	if a.catalog == nil {
		return nil, errors.New("advisor: catalog not configured")
	}
	crop, err := a.catalog.FindCropByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find crop %q: %w", name, err)
	}
	if err := a.catalog.AddUserCrop(ctx, userID, crop.ID); err != nil {
		return nil, fmt.Errorf("add crop %q: %w", crop.Name, err)
	}
	a.logger.Info("crop added", zap.String("user", userID), zap.String("crop", crop.Name))
	return crop, nil
}
