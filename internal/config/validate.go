package config

import (
	"errors"
	"fmt"

	"mibisweep/internal/runconfig"
)

// Validate ensures the configuration is usable. Removal method names are
// checked here, before any sweep state is touched: an unknown method is a
// fatal configuration error, never a per-combination one.
func (c *Config) Validate() error {
	if err := c.validateSweep(); err != nil {
		return err
	}
	if err := c.validateRun(); err != nil {
		return err
	}
	if err := c.validateSupervisor(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSweep() error {
	if _, err := runconfig.ParseMethods(c.Sweep.Methods); err != nil {
		return err
	}
	for name, thresholds := range map[string][]float64{
		"sweep.events_thresholds": c.Sweep.EventsThresholds,
		"sweep.au_thresholds":     c.Sweep.AuThresholds,
		"sweep.ta_thresholds":     c.Sweep.TaThresholds,
	} {
		for _, v := range thresholds {
			if v < 0 {
				return fmt.Errorf("%s must not contain negative values (got %v)", name, v)
			}
		}
	}
	return nil
}

func (c *Config) validateRun() error {
	switch c.Run.FOVSource {
	case "static", "run_xml":
	default:
		return fmt.Errorf("run.fov_source must be %q or %q (got %q)", "static", "run_xml", c.Run.FOVSource)
	}
	if c.Run.FOVSize <= 0 {
		return errors.New("run.fov_size must be positive (micrometers)")
	}
	if c.Run.MassStart > c.Run.MassStop {
		return errors.New("run.mass_start must not exceed run.mass_stop")
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	if c.Supervisor.Trials <= 0 {
		return errors.New("supervisor.trials must be positive")
	}
	if c.Supervisor.TimeoutSeconds < 0 {
		return errors.New("supervisor.timeout_seconds must be >= 0 (0 scales with workload)")
	}
	return nil
}
