// Package config loads, normalizes, and validates hardsub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HARDSUB_OCR_COMMAND. The Config type centralizes every knob the extraction
// pipeline and the CLI need: sampling cadence, recognition filters,
// segmentation thresholds, batch grouping, and log/state locations.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
