package croplabel

import (
	"errors"
	"fmt"
	"math"
)

// Resolver turns a classifier's ranked labels into a localized crop name. It
// holds no mutable state and may be shared between goroutines.
type Resolver struct {
	table    *Table
	minScore float64
}

// NewResolver constructs a resolver over the given table.
func NewResolver(table *Table, cfg ResolverConfig) (*Resolver, error) {
	if table == nil {
		return nil, errors.New("table is required")
	}
	cfg.ApplyDefaults()
	return &Resolver{table: table, minScore: cfg.MinScore}, nil
}

// LoadResolver builds the table named by cfg (a table file when set, the
// built-in variant otherwise) and wraps it in a resolver.
func LoadResolver(cfg ResolverConfig) (*Resolver, error) {
	cfg.ApplyDefaults()
	var (
		table *Table
		err   error
	)
	if cfg.TableFile != "" {
		table, err = LoadTableFile(cfg.TableFile, TableParseOptions{})
		if err != nil {
			return nil, fmt.Errorf("load table file: %w", err)
		}
	} else {
		table, err = DefaultTable(cfg.Variant)
		if err != nil {
			return nil, fmt.Errorf("load table: %w", err)
		}
	}
	return NewResolver(table, cfg)
}

// Table returns the table the resolver reads from.
func (r *Resolver) Table() *Table {
	return r.table
}

// SelectValidCandidate returns the first candidate, in the order given, whose
// label is a supported crop. The classifier's ranking is trusted as is. The
// returned label keeps the casing the classifier used.
func (r *Resolver) SelectValidCandidate(candidates []Candidate) (string, error) {
	idx := r.selectIndex(candidates)
	if idx < 0 {
		return "", ErrNotFound
	}
	return candidates[idx].Description, nil
}

// Translate returns the localized name for label, or label unchanged when the
// table has no entry for it.
func (r *Resolver) Translate(label string) string {
	if name, ok := r.table.Name(label); ok {
		return name
	}
	return label
}

// ResolveAndTranslate selects the first supported candidate and translates it.
func (r *Resolver) ResolveAndTranslate(candidates []Candidate) (string, error) {
	label, err := r.SelectValidCandidate(candidates)
	if err != nil {
		return "", err
	}
	return r.Translate(label), nil
}

// Resolve is ResolveAndTranslate with the matched label, score and rank kept.
func (r *Resolver) Resolve(candidates []Candidate) (ResolvedCrop, error) {
	idx := r.selectIndex(candidates)
	if idx < 0 {
		return ResolvedCrop{}, ErrNotFound
	}
	c := candidates[idx]
	return ResolvedCrop{
		Label: c.Description,
		Name:  r.Translate(c.Description),
		Score: c.Score,
		Rank:  idx,
	}, nil
}

func (r *Resolver) selectIndex(candidates []Candidate) int {
	for i, c := range candidates {
		if r.minScore > 0 && (math.IsNaN(c.Score) || c.Score < r.minScore) {
			continue
		}
		if r.table.Supports(c.Description) {
			return i
		}
	}
	return -1
}
