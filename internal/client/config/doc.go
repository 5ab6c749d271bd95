// Package config loads runtime configuration for the hub CLI.
//
// Sources & precedence (later wins)
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file in the working directory, if present. It only fills
//     variables that are not already set in the environment.
//  3. Environment variables prefixed with HUB_.
//  4. A JSON or YAML file selected with -c or -config.
//  5. Command-line flags.
//
// Supported flags
//
//	-a string   API base URL
//	-d string   path of the local database
//	-t int      request timeout (seconds)
//	-i int      online status check interval (seconds)
//	-l string   log level: debug, info, warn, error
//	-f string   log format: text, json, zerolog
//
// # File schema
//
// Durations accept strings like "10s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://api.cpp-hub.com/api",
//	  "database_path": "hub.db",
//	  "request_timeout": "10s",
//	  "resend_cooldown": "60s",
//	  "online_check_interval": "15s",
//	  "log_level": "info",
//	  "log_format": "text"
//	}
//
// The same keys are used in YAML files (extension .yaml or .yml).
package config
