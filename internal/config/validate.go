package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSampling(); err != nil {
		return err
	}
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateSegmentation(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validateSampling() error {
	if c.Sampling.Cadence <= 0 {
		return errors.New("sampling.cadence must be positive")
	}
	return nil
}

func (c *Config) validateRecognition() error {
	switch c.Recognition.Engine {
	case EngineCommand, EngineTesseract:
	default:
		return fmt.Errorf("recognition.engine: unsupported value %q (expected %q or %q)", c.Recognition.Engine, EngineCommand, EngineTesseract)
	}
	if strings.TrimSpace(c.Recognition.Command) == "" {
		return errors.New("recognition.command must be set (or export HARDSUB_OCR_COMMAND)")
	}
	if c.Recognition.ConfidenceThreshold < 0 || c.Recognition.ConfidenceThreshold >= 1 {
		return errors.New("recognition.confidence_threshold must be in [0, 1)")
	}
	if c.Recognition.MinTextLength < 0 {
		return errors.New("recognition.min_text_length must be >= 0")
	}
	if c.Recognition.MaxTextLength <= 0 {
		return errors.New("recognition.max_text_length must be positive")
	}
	if c.Recognition.MinTextLength > c.Recognition.MaxTextLength {
		return errors.New("recognition.min_text_length must not exceed recognition.max_text_length")
	}
	return nil
}

func (c *Config) validateSegmentation() error {
	if c.Segmentation.MinDurationSeconds < 0 {
		return errors.New("segmentation.min_duration_seconds must be >= 0")
	}
	if c.Segmentation.MaxDurationSeconds <= 0 {
		return errors.New("segmentation.max_duration_seconds must be positive")
	}
	if c.Segmentation.MinDurationSeconds > c.Segmentation.MaxDurationSeconds {
		return errors.New("segmentation.min_duration_seconds must not exceed segmentation.max_duration_seconds")
	}
	if c.Segmentation.EmptyThreshold < 1 {
		return errors.New("segmentation.empty_threshold must be >= 1")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.GroupSize < 1 {
		return errors.New("batch.group_size must be >= 1")
	}
	if strings.ContainsAny(c.Batch.OutputDirName, `/\`) {
		return fmt.Errorf("batch.output_dir_name must be a single directory name, got %q", c.Batch.OutputDirName)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}
