package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServices()
	c.normalizeWindows()
	c.normalizeRender()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServices() {
	c.ASR.BaseURL = strings.TrimRight(strings.TrimSpace(c.ASR.BaseURL), "/")
	c.ASR.Model = strings.TrimSpace(c.ASR.Model)
	if c.ASR.TimeoutSeconds <= 0 {
		c.ASR.TimeoutSeconds = defaultASRTimeoutSeconds
	}
	c.Grader.BaseURL = strings.TrimRight(strings.TrimSpace(c.Grader.BaseURL), "/")
	c.Grader.Model = strings.TrimSpace(c.Grader.Model)
	c.Grader.APIKey = strings.TrimSpace(c.Grader.APIKey)
	if c.Grader.TimeoutSeconds <= 0 {
		c.Grader.TimeoutSeconds = defaultGraderTimeoutSeconds
	}
	if c.Grader.MaxConcurrent <= 0 {
		c.Grader.MaxConcurrent = defaultGraderMaxConcurrent
	}
}

func (c *Config) normalizeWindows() {
	if c.Scenes.ContentThreshold <= 0 {
		c.Scenes.ContentThreshold = defaultSceneThreshold
	}
	if c.Windows.DurationSeconds <= 0 {
		c.Windows.DurationSeconds = defaultWindowDuration
	}
	if c.Windows.StrideSeconds <= 0 {
		c.Windows.StrideSeconds = defaultWindowStride
	}
	if c.Windows.SnapThreshold < 0 {
		c.Windows.SnapThreshold = defaultSnapThreshold
	}
	if c.Windows.MinRatio <= 0 || c.Windows.MinRatio > 1 {
		c.Windows.MinRatio = defaultWindowMinRatio
	}
}

func (c *Config) normalizeRender() {
	c.Render.Quality = strings.ToLower(strings.TrimSpace(c.Render.Quality))
	if c.Render.Quality == "" {
		c.Render.Quality = defaultRenderQuality
	}
	if c.Render.MaxConcurrent <= 0 {
		c.Render.MaxConcurrent = defaultRenderMaxConcurrent
	}
	if c.Render.ExtractTimeoutSeconds <= 0 {
		c.Render.ExtractTimeoutSeconds = defaultExtractTimeoutSeconds
	}
	if c.Render.CaptionTimeoutSeconds <= 0 {
		c.Render.CaptionTimeoutSeconds = defaultCaptionTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
