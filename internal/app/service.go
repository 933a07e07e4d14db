package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"cultivai/cropvision/advisor"
	"cultivai/cropvision/croplabel"
	"cultivai/cropvision/recommend"
	"cultivai/cropvision/store"
	"cultivai/cropvision/vision"
	"cultivai/cropvision/weather"
)

// Service owns the configured components. The resolver is built eagerly;
// everything that needs credentials, models or files is built on first use.
type Service struct {
	mu       sync.Mutex
	cfg      Config
	logger   *zap.Logger
	resolver *croplabel.Resolver

	classifier vision.Classifier
	onnx       *vision.ONNXClassifier
	weather    *weather.Client
	generator  *recommend.Generator
	store      *store.Store
	advisor    *advisor.Advisor
}

// NewService prepares the crop table and the resolver.
func NewService(cfg Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()
	croplabel.SetColumnCandidates(cfg.TableColumns)
	if err := prepare(cfg, logger); err != nil {
		return nil, err
	}
	resolver, err := croplabel.LoadResolver(cfg.Resolver)
	if err != nil {
		return nil, fmt.Errorf("init resolver: %w", err)
	}
	logger.Debug("resolver ready",
		zap.String("variant", string(cfg.Resolver.Variant)),
		zap.String("table_file", cfg.Resolver.TableFile),
		zap.Int("entries", resolver.Table().Len()),
		zap.Float64("min_score", cfg.Resolver.MinScore))
	return &Service{cfg: cfg, logger: logger, resolver: resolver}, nil
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Resolver returns the crop resolver.
func (s *Service) Resolver() *croplabel.Resolver {
	return s.resolver
}

// Classifier returns the configured image classifier wrapped in the result
// cache.
func (s *Service) Classifier() (vision.Classifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classifierLocked()
}

func (s *Service) classifierLocked() (vision.Classifier, error) {
	if s.classifier != nil {
		return s.classifier, nil
	}
	var base vision.Classifier
	switch s.cfg.Vision.Provider {
	case ProviderONNX:
		c, err := vision.NewONNXClassifier(s.cfg.Vision.ONNX)
		if err != nil {
			return nil, fmt.Errorf("init onnx classifier: %w", err)
		}
		s.onnx = c
		base = c
	default:
		c, err := vision.NewCloudClassifier(s.cfg.Vision.Cloud)
		if err != nil {
			return nil, fmt.Errorf("init cloud classifier: %w", err)
		}
		base = c
	}
	cached, err := vision.NewCachedClassifier(base, s.cfg.Vision.CacheDir, s.logger.Named("vision"))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("classifier ready", zap.String("model", cached.ModelID()))
	s.classifier = cached
	return cached, nil
}

// Weather returns the backend weather client.
func (s *Service) Weather() (*weather.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weatherLocked()
}

func (s *Service) weatherLocked() (*weather.Client, error) {
	if s.weather != nil {
		return s.weather, nil
	}
	c, err := weather.NewClient(s.cfg.Weather)
	if err != nil {
		return nil, err
	}
	s.weather = c
	return c, nil
}

// Generator returns the Gemini recommendation generator.
func (s *Service) Generator(ctx context.Context) (*recommend.Generator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generatorLocked(ctx)
}

func (s *Service) generatorLocked(ctx context.Context) (*recommend.Generator, error) {
	if s.generator != nil {
		return s.generator, nil
	}
	g, err := recommend.NewGenerator(ctx, s.cfg.Recommend, s.logger.Named("recommend"))
	if err != nil {
		return nil, err
	}
	s.generator = g
	return g, nil
}

// Store opens the database and seeds the catalogue from the active table.
func (s *Service) Store(ctx context.Context) (*store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeLocked(ctx)
}

func (s *Service) storeLocked(ctx context.Context) (*store.Store, error) {
	if s.store != nil {
		return s.store, nil
	}
	st, err := store.Open(s.cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	added, err := st.SeedCatalog(ctx, s.resolver.Table())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	if added > 0 {
		s.logger.Info("catalog seeded", zap.String("path", s.cfg.Store.Path), zap.Int("added", added))
	}
	s.store = st
	return st, nil
}

// Advisor assembles the capture pipeline. A missing Gemini key disables
// recommendations with a warning instead of failing.
func (s *Service) Advisor(ctx context.Context) (*advisor.Advisor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.advisor != nil {
		return s.advisor, nil
	}
	classifier, err := s.classifierLocked()
	if err != nil {
		return nil, err
	}
	opts := []advisor.Option{advisor.WithLogger(s.logger.Named("advisor"))}

	w, err := s.weatherLocked()
	if err != nil {
		return nil, err
	}
	opts = append(opts, advisor.WithWeather(w))

	if g, err := s.generatorLocked(ctx); err != nil {
		s.logger.Warn("recommendations disabled", zap.Error(err))
	} else {
		opts = append(opts, advisor.WithRecommender(g))
	}

	st, err := s.storeLocked(ctx)
	if err != nil {
		return nil, err
	}
	opts = append(opts, advisor.WithCatalog(st))

	a, err := advisor.New(s.resolver, classifier, opts...)
	if err != nil {
		return nil, err
	}
	s.advisor = a
	return a, nil
}

// Close releases the classifier runtime and the database.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	if s.onnx != nil {
		if err := s.onnx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.onnx = nil
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.store = nil
	}
	s.classifier = nil
	s.advisor = nil
	return firstErr
}
