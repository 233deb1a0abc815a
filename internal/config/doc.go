// Package config loads the imgpipe command configuration from TOML.
//
// Load starts from Default, overlays the file if it exists, then normalizes
// and validates the result. SampleConfig returns a commented file holding the
// defaults, suitable for `imgpipe config sample`.
package config
