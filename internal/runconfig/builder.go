package runconfig

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"mibisweep/internal/logging"
	"mibisweep/internal/services"
)

const (
	keyMassStart   = "Generator.DefaultMassStart"
	keyMassStop    = "Generator.DefaultMassStop"
	keyAutoPrefix  = "Generator.BackgroundRemovalAuto."
	keyValuePrefix = "Generator.BackgroundRemovalValue."

	codeEvents = "events"
	codeAu     = "197"
	codeTa     = "181"

	// DisabledThreshold effectively turns a removal channel off: no channel
	// ever reaches a count this high.
	DisabledThreshold = 1_000_000

	// NoRemovalIdentifier names the archive subdirectory when slide
	// background removal is disabled or no method is enabled.
	NoRemovalIdentifier = "bg_none"

	identifierPrefix = "bg"
)

// Params captures one parameter combination to write into the tool config.
type Params struct {
	RemoveSlideBG bool
	UseDefaults   bool
	Methods       []Method

	EventsThreshold float64
	AuThreshold     float64
	TaThreshold     float64

	MassStart float64
	MassStop  float64
}

// Has reports whether the combination enables the given method.
func (p Params) Has(m Method) bool {
	for _, method := range p.Methods {
		if method == m {
			return true
		}
	}
	return false
}

func (p Params) threshold(m Method) float64 {
	switch m {
	case MethodEvents:
		return p.EventsThreshold
	case MethodAu:
		return p.AuThreshold
	case MethodTa:
		return p.TaThreshold
	}
	return 0
}

// Identifier derives the archive subdirectory name for this combination: a
// fixed prefix plus one token per enabled method, with thresholds zero padded
// (e.g. bg_au_050_ta_020). Threshold tokens are omitted when the tool's
// default parameter set is in use.
func (p Params) Identifier() string {
	if !p.RemoveSlideBG || len(p.Methods) == 0 {
		return NoRemovalIdentifier
	}

	var sb strings.Builder
	sb.WriteString(identifierPrefix)
	if p.UseDefaults {
		sb.WriteString("_default")
		return sb.String()
	}
	for _, m := range []Method{MethodAutoEvents, MethodAutoAu, MethodAutoTa} {
		if p.Has(m) {
			sb.WriteString("_")
			sb.WriteString(strings.ToLower(string(m)))
		}
	}
	for _, m := range []Method{MethodEvents, MethodAu, MethodTa} {
		if p.Has(m) {
			sb.WriteString("_")
			sb.WriteString(strings.ToLower(string(m)))
			sb.WriteString("_")
			sb.WriteString(formatThreshold(p.threshold(m)))
		}
	}
	return sb.String()
}

func formatThreshold(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%03d", int64(v))
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Apply resets all removal-related keys to disabling sentinels, then writes
// only the fields implied by the enabled method set. Fields untouched by the
// current combination never leak state from a previous one. Returns the
// archive subdirectory identifier.
func Apply(doc Document, p Params) string {
	doc[keyMassStart] = p.MassStart
	doc[keyMassStop] = p.MassStop

	for _, code := range []string{codeEvents, codeAu, codeTa} {
		doc[keyAutoPrefix+code] = false
		doc[keyValuePrefix+code] = float64(DisabledThreshold)
	}

	if !p.RemoveSlideBG {
		return p.Identifier()
	}

	for _, m := range p.Methods {
		if m.auto() {
			doc[keyAutoPrefix+m.channelCode()] = true
		} else {
			doc[keyValuePrefix+m.channelCode()] = p.threshold(m)
		}
	}
	return p.Identifier()
}

// Builder mutates the imaging tool's persistent configuration on disk, one
// combination at a time. The tool config is a shared resource: the builder is
// its only writer during a sweep.
type Builder struct {
	configPath string
	logger     *slog.Logger
}

// NewBuilder constructs a Builder for the tool config at configPath.
func NewBuilder(configPath string, logger *slog.Logger) *Builder {
	return &Builder{
		configPath: configPath,
		logger:     logging.NewComponentLogger(logger, "runconfig"),
	}
}

// Apply loads the tool config, patches it for the combination, and rewrites it
// in place. Safe to call repeatedly: the same Params always produce the same
// record. Returns the archive subdirectory identifier for the combination.
func (b *Builder) Apply(p Params) (string, error) {
	doc, err := LoadDocument(b.configPath)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "runconfig", "load", b.configPath, err)
	}

	identifier := Apply(doc, p)

	if err := doc.Save(b.configPath); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "runconfig", "save", b.configPath, err)
	}

	b.logger.Debug("tool config updated",
		logging.String("path", b.configPath),
		logging.String("identifier", identifier),
		logging.Bool("remove_slide_bg", p.RemoveSlideBG),
	)
	return identifier, nil
}
