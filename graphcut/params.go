package graphcut

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/katalvlaran/voxcut/boundary"
	"github.com/katalvlaran/voxcut/flow"
	"github.com/katalvlaran/voxcut/seeds"
	"github.com/katalvlaran/voxcut/volume"
)

// Parameters is the immutable configuration of one run.
type Parameters struct {
	// Sigma scales the intensity similarity of the boundary term.
	Sigma float64 `validate:"gt=0"`
	// UseIntensity enables the intensity similarity factor.
	UseIntensity bool
	// UseGradientMagnitude scales n-links by 1/(1 + mean gradient).
	UseGradientMagnitude bool
	// UseForegroundBackground derives t-links from seed histograms.
	UseForegroundBackground bool
	// Connectivity is 6 or 26.
	Connectivity volume.Connectivity `validate:"oneof=6 26"`
	// BoundaryDirection makes n-links asymmetric.
	BoundaryDirection boundary.Direction `validate:"gte=0,lte=2"`
	// ForegroundLabel and BackgroundLabel are the output pixel values.
	ForegroundLabel uint16
	BackgroundLabel uint16 `validate:"nefield=ForegroundLabel"`
	// Algorithm selects the max-flow strategy.
	Algorithm flow.Algorithm `validate:"gte=0,lte=3"`
	// HistogramBins per class; 0 means seeds.DefaultBins.
	HistogramBins int `validate:"gte=0,lte=65536"`
	// HistogramSmoothing is the Gaussian width in bins; 0 disables it.
	HistogramSmoothing float64 `validate:"gte=0"`
	// Lambda weighs the regional term against the boundary term.
	Lambda float64 `validate:"gte=0"`
}

// DefaultParameters returns the configuration used when nothing is set:
// 6-connectivity, intensity term with sigma 50, histogram t-links,
// labels 1 and 0, incremental augmenting solver.
func DefaultParameters() Parameters {
	return Parameters{
		Sigma:                   50,
		UseIntensity:            true,
		UseForegroundBackground: true,
		Connectivity:            volume.Conn6,
		BoundaryDirection:       boundary.None,
		ForegroundLabel:         1,
		BackgroundLabel:         0,
		Algorithm:               flow.IncrementalAugmenting,
		HistogramBins:           seeds.DefaultBins,
		HistogramSmoothing:      seeds.DefaultSmoothing,
		Lambda:                  1,
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
	translator   ut.Translator
)

func paramValidator() (*validator.Validate, ut.Translator) {
	validateOnce.Do(func() {
		english := en.New()
		uni := ut.New(english, english)
		translator, _ = uni.GetTranslator("en")
		validate = validator.New()
		_ = enTranslations.RegisterDefaultTranslations(validate, translator)
	})

	return validate, translator
}

// Validate checks every field. Failures wrap ErrConfiguration and carry
// readable field messages.
func (p Parameters) Validate() error {
	v, trans := paramValidator()
	if err := v.Struct(p); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		msgs := make([]string, 0, len(ve))
		for _, m := range ve.Translate(trans) {
			msgs = append(msgs, m)
		}
		sort.Strings(msgs)

		return fmt.Errorf("%w: %s: %w", ErrConfiguration, strings.Join(msgs, "; "), ve)
	}
	if err := p.term().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return nil
}

func (p Parameters) term() boundary.Term {
	return boundary.Term{
		Sigma:        p.Sigma,
		UseIntensity: p.UseIntensity,
		UseGradient:  p.UseGradientMagnitude,
		Direction:    p.BoundaryDirection,
	}
}

func (p Parameters) modelOptions(workers int) seeds.ModelOptions {
	return seeds.ModelOptions{
		Bins:      p.HistogramBins,
		Smoothing: p.HistogramSmoothing,
		Workers:   workers,
	}
}
