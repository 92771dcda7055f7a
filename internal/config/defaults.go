package config

import "mibisweep/internal/runconfig"

const (
	defaultLogDir    = "~/.local/share/mibisweep/logs"
	defaultReviewDir = "~/.local/share/mibisweep/review"
	defaultHelperDir = "~/.mibio"
	defaultFOVSize   = 500
	defaultFOVSource = "static"
	defaultMassStart = -0.3
	defaultMassStop  = 0.0
	defaultTrials    = 3
	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	// The tool needs roughly three minutes per field of view, plus extra
	// headroom per additional removal method (params calibrated against
	// 500 um fields; large fields take longer and need an explicit
	// supervisor.timeout_seconds).
	DefaultSecondsPerFOV       = 180
	DefaultSecondsPerExtraMeth = 30
	defaultToolConfigName      = "mibio_config.json"
	defaultToolLogName         = "mibio.log"
	defaultRemovalThresholdsAu = 50
	defaultRemovalThresholdsTa = 20
	defaultRemovalThresholdsEv = runconfig.DisabledThreshold
	defaultAutoEventsThreshold = 0.2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			ReviewDir: defaultReviewDir,
		},
		Tool: Tool{
			HelperDir: defaultHelperDir,
		},
		Run: Run{
			FOVSize:       defaultFOVSize,
			FOVSource:     defaultFOVSource,
			RemoveSlideBG: true,
			MassStart:     defaultMassStart,
			MassStop:      defaultMassStop,
		},
		Sweep: Sweep{
			Methods:          []string{string(runconfig.MethodAu), string(runconfig.MethodTa)},
			EventsThresholds: []float64{defaultRemovalThresholdsEv},
			AuThresholds:     []float64{defaultRemovalThresholdsAu},
			TaThresholds:     []float64{defaultRemovalThresholdsTa},
		},
		Supervisor: Supervisor{
			Trials: defaultTrials,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
