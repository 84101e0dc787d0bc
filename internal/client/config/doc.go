// Package config loads runtime configuration for the QuickQR terminal client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. Files ending in
//     .yaml or .yml are read as YAML, everything else as JSON.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the QR backend
//	-t int      request timeout (seconds)
//	-d string   path of the local database file
//	-l string   log level (debug, info, warn, error)
//
// # File schema
//
// Durations use timex.Duration, so values can be strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "server_base_url": "http://127.0.0.1:8080/api",
//	  "request_timeout": "10s",
//	  "database_path": "quickqr.db",
//	  "log_level": "info",
//	  "log_format": "console"
//	}
//
// Empty or absent file fields leave the previous value untouched.
package config
