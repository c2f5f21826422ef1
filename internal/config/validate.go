package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServices(); err != nil {
		return err
	}
	if err := c.validateWindows(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.TempDir == "" {
		return errors.New("paths.temp_dir must be set")
	}
	return nil
}

func (c *Config) validateServices() error {
	if c.ASR.BaseURL == "" {
		return errors.New("asr.base_url must be set")
	}
	if c.ASR.Model == "" {
		return errors.New("asr.model must be set")
	}
	if c.Grader.BaseURL == "" {
		return errors.New("grader.base_url must be set")
	}
	if c.Grader.Model == "" {
		return errors.New("grader.model must be set")
	}
	return nil
}

func (c *Config) validateWindows() error {
	if c.Windows.StrideSeconds > c.Windows.DurationSeconds {
		return fmt.Errorf("windows.stride_seconds (%g) must not exceed windows.duration_seconds (%g)",
			c.Windows.StrideSeconds, c.Windows.DurationSeconds)
	}
	if c.Windows.SnapThreshold*2 >= c.Windows.DurationSeconds {
		return errors.New("windows.snap_threshold is too large for the window duration")
	}
	return nil
}

func (c *Config) validateRender() error {
	switch c.Render.Quality {
	case "high", "medium", "fast":
		return nil
	default:
		return fmt.Errorf("render.quality must be one of high, medium, fast (got %q)", c.Render.Quality)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
