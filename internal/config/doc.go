// Package config loads rollcall client settings.
//
// # Resolution Order
//
// Each setting is taken from the first source that provides a non-empty
// value:
//
//  1. Command-line flags (applied by the caller after Load)
//  2. Environment variables (ROLLCALL_*), optionally seeded from a .env
//     file with LoadEnvFile
//  3. The TOML config file (default ~/.config/rollcall/config.toml)
//  4. Built-in defaults
//
// A missing config file is not an error. Invalid TOML, an unparseable
// duration, or an unknown session backend is.
//
// # TOML Format
//
//	api_url = "http://localhost:8080/api"
//	session_backend = "file"        # file, redis or memory
//	session_path = "~/.config/rollcall/session.toml"
//	redis_addr = "127.0.0.1:6379"
//	redis_password = ""
//	redis_prefix = "rollcall"
//	request_timeout = "10s"
//	log_level = "warn"
//
// Every field is optional. Tilde expansion is applied to session_path.
//
// # Environment
//
//	ROLLCALL_API_URL, ROLLCALL_SESSION_BACKEND, ROLLCALL_SESSION_PATH,
//	ROLLCALL_REDIS_ADDR, ROLLCALL_REDIS_PASSWORD, ROLLCALL_REDIS_PREFIX,
//	ROLLCALL_REQUEST_TIMEOUT, ROLLCALL_LOG_LEVEL
//
// LoadEnvFile never overrides variables that are already set.
package config
