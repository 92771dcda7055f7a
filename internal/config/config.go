package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for sweep bookkeeping.
type Paths struct {
	LogDir    string `toml:"log_dir"`
	ReviewDir string `toml:"review_dir"`
}

// Tool locates the external imaging executable and its helper files. The
// tool keeps its own JSON config and log next to each other in a helper
// directory; both are snapshotted into every archive.
type Tool struct {
	Binary     string `toml:"binary"`
	HelperDir  string `toml:"helper_dir"`
	ConfigFile string `toml:"config_file"`
	LogFile    string `toml:"log_file"`
}

// Run describes one acquisition to generate TIFFs for.
type Run struct {
	RunXML   string   `toml:"run_xml"`
	PanelCSV string   `toml:"panel_csv"`
	FOVSize  int      `toml:"fov_size"`
	FOVs     []string `toml:"fovs"`
	// FOVSource selects how the field-of-view list is resolved:
	// "static" uses the fovs list above, "run_xml" parses point names
	// from the acquisition XML.
	FOVSource string `toml:"fov_source"`

	RemoveSlideBG         bool    `toml:"remove_slide_bg"`
	RecalibrateMass       bool    `toml:"recalibrate_mass"`
	UseDefaultMassWindows bool    `toml:"use_default_mass_windows"`
	MassStart             float64 `toml:"mass_start"`
	MassStop              float64 `toml:"mass_stop"`
}

// Sweep configures the threshold arrays traversed per removal method.
type Sweep struct {
	Methods               []string  `toml:"methods"`
	EventsThresholds      []float64 `toml:"events_thresholds"`
	AuThresholds          []float64 `toml:"au_thresholds"`
	TaThresholds          []float64 `toml:"ta_thresholds"`
	UseDefaultRemovalPars bool      `toml:"use_default_removal_pars"`
}

// Supervisor configures completion detection for the external process.
type Supervisor struct {
	// TimeoutSeconds bounds one tool invocation. Zero means scale with the
	// workload: the tool takes roughly three minutes per field of view.
	TimeoutSeconds int `toml:"timeout_seconds"`
	Trials         int `toml:"trials"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mibisweep.
//
// Configuration sections by subsystem:
//   - Paths: sweep log and review directories
//   - Tool: imaging executable and its helper files
//   - Run: acquisition inputs (run XML, panel, fields of view)
//   - Sweep: removal methods and threshold arrays
//   - Supervisor: timeout and completion probe budget
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Tool       Tool       `toml:"tool"`
	Run        Run        `toml:"run"`
	Sweep      Sweep      `toml:"sweep"`
	Supervisor Supervisor `toml:"supervisor"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mibisweep/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mibisweep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the sweep needs for bookkeeping.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.ReviewDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ToolDir returns the directory holding the imaging executable. The tool must
// be launched with this as the working directory.
func (c *Config) ToolDir() string {
	return filepath.Dir(c.Tool.Binary)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
