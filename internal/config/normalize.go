package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"mibisweep/internal/runconfig"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTool(); err != nil {
		return err
	}
	if err := c.normalizeRun(); err != nil {
		return err
	}
	c.normalizeSweep()
	c.normalizeSupervisor()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ReviewDir, err = expandPath(c.Paths.ReviewDir); err != nil {
		return fmt.Errorf("paths.review_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTool() error {
	var err error
	if c.Tool.Binary, err = expandPath(strings.TrimSpace(c.Tool.Binary)); err != nil {
		return fmt.Errorf("tool.binary: %w", err)
	}
	if strings.TrimSpace(c.Tool.HelperDir) == "" {
		c.Tool.HelperDir = defaultHelperDir
	}
	if c.Tool.HelperDir, err = expandPath(c.Tool.HelperDir); err != nil {
		return fmt.Errorf("tool.helper_dir: %w", err)
	}
	if strings.TrimSpace(c.Tool.ConfigFile) == "" {
		c.Tool.ConfigFile = filepath.Join(c.Tool.HelperDir, defaultToolConfigName)
	}
	if c.Tool.ConfigFile, err = expandPath(c.Tool.ConfigFile); err != nil {
		return fmt.Errorf("tool.config_file: %w", err)
	}
	if strings.TrimSpace(c.Tool.LogFile) == "" {
		c.Tool.LogFile = filepath.Join(c.Tool.HelperDir, defaultToolLogName)
	}
	if c.Tool.LogFile, err = expandPath(c.Tool.LogFile); err != nil {
		return fmt.Errorf("tool.log_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeRun() error {
	var err error
	if c.Run.RunXML, err = expandPath(strings.TrimSpace(c.Run.RunXML)); err != nil {
		return fmt.Errorf("run.run_xml: %w", err)
	}
	if c.Run.PanelCSV, err = expandPath(strings.TrimSpace(c.Run.PanelCSV)); err != nil {
		return fmt.Errorf("run.panel_csv: %w", err)
	}
	c.Run.FOVSource = strings.ToLower(strings.TrimSpace(c.Run.FOVSource))
	if c.Run.FOVSource == "" {
		c.Run.FOVSource = defaultFOVSource
	}
	fovs := make([]string, 0, len(c.Run.FOVs))
	for _, fov := range c.Run.FOVs {
		if trimmed := strings.TrimSpace(fov); trimmed != "" {
			fovs = append(fovs, trimmed)
		}
	}
	c.Run.FOVs = fovs
	if c.Run.FOVSize <= 0 {
		c.Run.FOVSize = defaultFOVSize
	}
	if c.Run.UseDefaultMassWindows {
		// The tool's stock window is symmetric around the peak.
		c.Run.MassStart = -0.3
		c.Run.MassStop = 0.3
	}
	return nil
}

func (c *Config) normalizeSweep() {
	if c.Sweep.UseDefaultRemovalPars {
		// The vendor-recommended parameter set: auto event estimation plus
		// fixed gold and tantalum thresholds.
		c.Sweep.Methods = []string{
			string(runconfig.MethodAutoEvents),
			string(runconfig.MethodEvents),
			string(runconfig.MethodAu),
			string(runconfig.MethodTa),
		}
		c.Sweep.EventsThresholds = []float64{defaultAutoEventsThreshold}
		c.Sweep.AuThresholds = []float64{defaultRemovalThresholdsAu}
		c.Sweep.TaThresholds = []float64{defaultRemovalThresholdsTa}
	}
	if len(c.Sweep.EventsThresholds) == 0 {
		c.Sweep.EventsThresholds = []float64{defaultRemovalThresholdsEv}
	}
	if len(c.Sweep.AuThresholds) == 0 {
		c.Sweep.AuThresholds = []float64{defaultRemovalThresholdsAu}
	}
	if len(c.Sweep.TaThresholds) == 0 {
		c.Sweep.TaThresholds = []float64{defaultRemovalThresholdsTa}
	}
	methods := make([]string, 0, len(c.Sweep.Methods))
	for _, m := range c.Sweep.Methods {
		if trimmed := strings.TrimSpace(m); trimmed != "" {
			methods = append(methods, trimmed)
		}
	}
	c.Sweep.Methods = methods
}

func (c *Config) normalizeSupervisor() {
	if c.Supervisor.TimeoutSeconds < 0 {
		c.Supervisor.TimeoutSeconds = 0
	}
	if c.Supervisor.Trials <= 0 {
		c.Supervisor.Trials = defaultTrials
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
