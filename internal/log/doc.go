// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks:
//   - HTTP credentials (Authorization, Cookie, API keys)
//   - values under password, token, secret and similar keys
//   - database connection strings, with only the password replaced so
//     host and database names remain visible
//   - secret values detected by pattern matching (JWTs, private keys)
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//	logger.Debug("opening cache",
//	    "driver", "postgres",
//	    "conn", "postgres://race:secret@db/wiki", // password masked
//	)
//	slog.SetDefault(logger)
package log
