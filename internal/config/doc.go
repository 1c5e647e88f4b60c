// Package config loads, normalizes, and validates AutoTranscriber configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY and HF_TOKEN. The Config type centralizes every knob the
// pipeline and CLI need so output/work directories, model choices, and
// external tool commands are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
