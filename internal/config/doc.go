// Package config loads the autoschedule YAML configuration.
//
// The file lives at DefaultPath unless --config says otherwise. Load creates
// it with defaults on first run. AUTOSCHEDULE_* environment variables
// override file values and command-line flags override both.
package config
