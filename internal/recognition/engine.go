package recognition

import (
	"fmt"
	"strings"

	"hardsub/internal/config"
	"hardsub/internal/services"
)

// NewFromConfig builds the configured engine, wrapped with Serialized when
// the engine cannot take concurrent calls.
func NewFromConfig(cfg config.Recognition) (Recognizer, error) {
	var r Recognizer
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case config.EngineCommand, "":
		r = &CommandRecognizer{
			Binary:   cfg.Command,
			Args:     append([]string(nil), cfg.Args...),
			Language: cfg.Language,
			Timeout:  cfg.Timeout(),
		}
	case config.EngineTesseract:
		r = &TesseractRecognizer{
			Binary:   cfg.Command,
			Language: cfg.Language,
			Timeout:  cfg.Timeout(),
		}
	default:
		return nil, services.Wrap(services.ErrConfiguration, "recognition", "select engine",
			fmt.Sprintf("unknown engine %q", cfg.Engine), nil)
	}
	if cfg.Serialize {
		r = Serialized(r)
	}
	return r, nil
}

// FilterFromConfig returns the detection filter described by cfg.
func FilterFromConfig(cfg config.Recognition) Filter {
	return Filter{
		Threshold: cfg.ConfidenceThreshold,
		MinLength: cfg.MinTextLength,
		MaxLength: cfg.MaxTextLength,
	}
}
