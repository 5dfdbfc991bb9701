package graphcut

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/katalvlaran/voxcut/boundary"
	"github.com/katalvlaran/voxcut/flow"
	"github.com/katalvlaran/voxcut/seeds"
	"github.com/katalvlaran/voxcut/volume"
)

// Error classes. Every error returned by Filter.Run wraps exactly one class
// (context cancellation excepted) together with the underlying cause.
var (
	// ErrConfiguration marks invalid parameters: sigma, connectivity,
	// direction, algorithm, labels, or seeds claiming both classes.
	ErrConfiguration = errors.New("graphcut: configuration error")
	// ErrInput marks unusable inputs: grid, region or seeds.
	ErrInput = errors.New("graphcut: input error")
	// ErrNonConvergence marks a solve aborted by its operation or time budget.
	ErrNonConvergence = errors.New("graphcut: solver did not converge")
	// ErrResourceExhaustion marks a graph too large to allocate.
	ErrResourceExhaustion = errors.New("graphcut: resource exhaustion")
)

// ErrGraphBudget is returned when the estimated graph memory exceeds the
// limit set by WithMaxGraphBytes.
var ErrGraphBudget = errors.New("graphcut: graph exceeds memory budget")

// StageError records the facade stage in which a run failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("graphcut: %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// classify wraps err with its class. Unknown errors pass through.
func classify(err error) error {
	var (
		ve    validator.ValidationErrors
		edge  flow.EdgeError
		class error
	)
	for _, c := range []error{ErrConfiguration, ErrInput, ErrNonConvergence, ErrResourceExhaustion} {
		if errors.Is(err, c) {
			return err
		}
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.As(err, &ve),
		errors.Is(err, boundary.ErrBadSigma),
		errors.Is(err, boundary.ErrBadDirection),
		errors.Is(err, volume.ErrBadConnectivity),
		errors.Is(err, seeds.ErrConflict),
		errors.Is(err, flow.ErrUnknownAlgorithm):
		class = ErrConfiguration
	case errors.Is(err, volume.ErrEmptyExtent),
		errors.Is(err, volume.ErrBufferSize),
		errors.Is(err, volume.ErrNonFiniteSample),
		errors.Is(err, volume.ErrBadSpacing),
		errors.Is(err, volume.ErrEmptyRegion),
		errors.Is(err, volume.ErrRegionOutside),
		errors.Is(err, seeds.ErrOutOfRegion),
		errors.Is(err, seeds.ErrMarkerSize),
		errors.Is(err, seeds.ErrNoForeground),
		errors.Is(err, seeds.ErrNoBackground),
		errors.As(err, &edge):
		class = ErrInput
	case errors.Is(err, flow.ErrNotConverged):
		class = ErrNonConvergence
	case errors.Is(err, flow.ErrGraphTooLarge), errors.Is(err, ErrGraphBudget):
		class = ErrResourceExhaustion
	default:
		return err
	}

	return fmt.Errorf("%w: %w", class, err)
}
