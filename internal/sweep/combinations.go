package sweep

import (
	"database/sql"
	"strings"

	"mibisweep/internal/config"
	"mibisweep/internal/runconfig"
)

// Combination is one point in the threshold grid. Disabled axes carry the
// disabling sentinel so the tool config can be reset unambiguously.
type Combination struct {
	Methods         []runconfig.Method
	EventsThreshold float64
	AuThreshold     float64
	TaThreshold     float64
	UseDefaults     bool
	RemoveSlideBG   bool
}

// Params converts the combination into the tool-config parameter set.
func (c Combination) Params(run config.Run) runconfig.Params {
	return runconfig.Params{
		RemoveSlideBG:   c.RemoveSlideBG,
		UseDefaults:     c.UseDefaults,
		Methods:         c.Methods,
		EventsThreshold: c.EventsThreshold,
		AuThreshold:     c.AuThreshold,
		TaThreshold:     c.TaThreshold,
		MassStart:       run.MassStart,
		MassStop:        run.MassStop,
	}
}

// Identifier derives the archive subdirectory name for the combination.
func (c Combination) Identifier(run config.Run) string {
	return c.Params(run).Identifier()
}

// MethodsLabel renders the enabled method set for display and persistence.
func (c Combination) MethodsLabel() string {
	names := make([]string, 0, len(c.Methods))
	for _, m := range c.Methods {
		names = append(names, string(m))
	}
	return strings.Join(names, ",")
}

// threshold returns the axis value for persistence, null when the axis is
// disabled or auto-tuned.
func (c Combination) threshold(m runconfig.Method, v float64) sql.NullFloat64 {
	for _, method := range c.Methods {
		if method == m {
			return sql.NullFloat64{Float64: v, Valid: true}
		}
	}
	return sql.NullFloat64{}
}

// Combinations expands the configured threshold arrays into the full grid,
// one combination per (events, Au, Ta) triple. An axis whose method is not
// enabled contributes exactly one grid position holding the disabling
// sentinel. With removal off entirely the grid collapses to a single
// no-removal combination.
func Combinations(cfg *config.Config) ([]Combination, error) {
	if !cfg.Run.RemoveSlideBG {
		return []Combination{{RemoveSlideBG: false}}, nil
	}

	methods, err := runconfig.ParseMethods(cfg.Sweep.Methods)
	if err != nil {
		return nil, err
	}
	if len(methods) == 0 {
		return []Combination{{RemoveSlideBG: false}}, nil
	}

	enabled := func(m runconfig.Method) bool {
		for _, method := range methods {
			if method == m {
				return true
			}
		}
		return false
	}

	eventsAxis := axisValues(enabled(runconfig.MethodEvents), cfg.Sweep.EventsThresholds)
	auAxis := axisValues(enabled(runconfig.MethodAu), cfg.Sweep.AuThresholds)
	taAxis := axisValues(enabled(runconfig.MethodTa), cfg.Sweep.TaThresholds)

	var combos []Combination
	for _, events := range eventsAxis {
		for _, au := range auAxis {
			for _, ta := range taAxis {
				combos = append(combos, Combination{
					Methods:         methods,
					EventsThreshold: events,
					AuThreshold:     au,
					TaThreshold:     ta,
					UseDefaults:     cfg.Sweep.UseDefaultRemovalPars,
					RemoveSlideBG:   true,
				})
			}
		}
	}
	return combos, nil
}

func axisValues(enabled bool, thresholds []float64) []float64 {
	if !enabled || len(thresholds) == 0 {
		return []float64{runconfig.DisabledThreshold}
	}
	return thresholds
}
