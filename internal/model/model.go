// Package model describes fitted models from the outside: which per-feature
// values a model exposes and how those are pulled out of composed models.
package model

import (
	"errors"
	"fmt"
	"path"

	"github.com/gonum/matrix/mat64"
)

var (
	// ErrNoAttribute means no step exposes the requested per-feature values
	ErrNoAttribute = errors.New("no such attribute found")
	// ErrAmbiguousAttribute means more than one step exposes them
	ErrAmbiguousAttribute = errors.New("ambiguous attribute")
	// ErrShape means the extracted values do not fit the feature space
	ErrShape = errors.New("model: shape mismatch")
	// ErrScoring is returned for unknown feature scoring modes
	ErrScoring = errors.New("model: unknown feature scoring mode")
)

// CoefProvider is a fitted linear model. Coef is outputs x features
// (one row for binary classification and regression).
type CoefProvider interface {
	Coef() *mat64.Dense
}

// ScoreProvider is a fitted univariate feature selector
type ScoreProvider interface {
	Scores() []float64
}

// SupportProvider knows which of its input features it passes on
type SupportProvider interface {
	Support() []bool
}

// EnsembleProvider is a fitted ensemble of linear models
type EnsembleProvider interface {
	Members() []CoefProvider
}

// Step is a named stage of a fitted pipeline
type Step struct {
	Name      string
	Estimator interface{}
}

// Kind tags the variants of Fitted
type Kind int

// Fitted variants
const (
	KindValues Kind = iota
	KindEstimator
	KindPipeline
	KindGridSearch
)

func (k Kind) String() string {
	switch k {
	case KindValues:
		return "values"
	case KindEstimator:
		return "estimator"
	case KindPipeline:
		return "pipeline"
	case KindGridSearch:
		return "grid-search"
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Fitted is a fitted model or a plain matrix of per-feature values
type Fitted struct {
	kind     Kind
	values   *mat64.Dense
	steps    []Step
	searched bool
}

// FromValues wraps raw per-feature values laid out like Coef (outputs x features)
func FromValues(values *mat64.Dense) Fitted {
	return Fitted{kind: KindValues, values: values}
}

// FromVector wraps a single vector of per-feature values
func FromVector(values []float64) Fitted {
	return FromValues(mat64.NewDense(1, len(values), append([]float64(nil), values...)))
}

// FromEstimator wraps a single fitted estimator
func FromEstimator(name string, estimator interface{}) Fitted {
	return Fitted{kind: KindEstimator, steps: []Step{{Name: name, Estimator: estimator}}}
}

// FromPipeline wraps the steps of a fitted pipeline, in order
func FromPipeline(steps ...Step) Fitted {
	return Fitted{kind: KindPipeline, steps: steps}
}

// FromGridSearch wraps the result of a parameter search; only its best model is kept
func FromGridSearch(best Fitted) Fitted {
	best.searched = true
	return best
}

// Kind returns the variant tag
func (f Fitted) Kind() Kind {
	if f.searched {
		return KindGridSearch
	}

	return f.kind
}

// Steps returns the named steps (a single one for an estimator)
func (f Fitted) Steps() []Step {
	return f.steps
}

// ScoringMode selects what per-feature values are tracked
type ScoringMode string

// Scoring modes. Any mode matching coef* behaves like ScoringCoef.
const (
	ScoringNone    ScoringMode = ""
	ScoringCoef    ScoringMode = "coef"
	ScoringUFS     ScoringMode = "ufs"
	ScoringForward ScoringMode = "forward"
)

// ParseScoring validates a feature scoring mode
func ParseScoring(s string) (ScoringMode, error) {
	mode := ScoringMode(s)
	if mode == ScoringNone || mode == ScoringUFS || mode == ScoringForward || mode.isCoef() {
		return mode, nil
	}

	return ScoringNone, fmt.Errorf("%q: %w", s, ErrScoring)
}

func (m ScoringMode) isCoef() bool {
	ok, _ := path.Match("coef*", string(m))
	return ok
}

// Direct reports whether values are stored as extracted
func (m ScoringMode) Direct() bool {
	return m.isCoef() || m == ScoringUFS
}

// Forward reports whether values go through the forward-model transform
func (m ScoringMode) Forward() bool {
	return m == ScoringForward
}

func (m ScoringMode) attribute() string {
	if m.isCoef() || m.Forward() {
		return "coef_"
	}

	return "scores_"
}
