package config

import (
	"errors"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateValidation(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.ConfidenceThreshold < 0 || c.Matching.ConfidenceThreshold > 1 {
		return errors.New("matching.confidence_threshold must be between 0 and 1")
	}
	if c.Matching.LowConfidenceFloor < 0 || c.Matching.LowConfidenceFloor > 1 {
		return errors.New("matching.low_confidence_floor must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateValidation() error {
	if c.Validation.AspectRatioTolerance < 0 {
		return errors.New("validation.aspect_ratio_tolerance must not be negative")
	}
	if c.Validation.MinResolutionRatio < 0 || c.Validation.MinResolutionRatio > 1 {
		return errors.New("validation.min_resolution_ratio must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errors.New("logging.format must be console or json")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be debug, info, warn, or error")
	}
	return nil
}
