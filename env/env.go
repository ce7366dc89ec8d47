// Package env resolves daemon settings from cobra flags with environment
// variable fallbacks, and bootstraps the logger and telemetry for
// commands.
package env

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/sususave/go-offline/logger"
	"github.com/sususave/go-offline/telemetry"
)

// FlagOrEnv returns the flag's value when set, then the environment
// variable, then defaultValue.
func FlagOrEnv(cmd *cobra.Command, flagName string, envName string, defaultValue string) string {
	flagValue, _ := cmd.Flags().GetString(flagName)
	if flagValue != "" {
		return flagValue
	}
	if val, ok := os.LookupEnv(envName); ok {
		return val
	}
	return defaultValue
}

// LogLevel resolves the log level from the log-level flag or
// SUSUSAVE_LOG_LEVEL, defaulting to info.
func LogLevel(cmd *cobra.Command) logger.LogLevel {
	level := FlagOrEnv(cmd, "log-level", "SUSUSAVE_LOG_LEVEL", "info")
	switch level {
	case "trace", "TRACE":
		return logger.LevelTrace
	case "debug", "DEBUG":
		return logger.LevelDebug
	case "warn", "WARN":
		return logger.LevelWarn
	case "error", "ERROR":
		return logger.LevelError
	}
	return logger.LevelInfo
}

// NewLogger returns a console logger at the resolved level.
func NewLogger(cmd *cobra.Command) logger.Logger {
	return logger.NewConsoleLogger(LogLevel(cmd))
}

// NewTelemetry returns a logger and shutdown function, shipping logs to
// OTLP when configured. The cobra flags it expects are:
//
// --no-telemetry (boolean): use the console logger only
//
// --otlp-url (string): the url of the otlp server
//
// --otlp-auth-token (string): bearer token for the otlp server
func NewTelemetry(ctx context.Context, cmd *cobra.Command, serviceName string) (logger.Logger, func(), error) {
	if noTelemetry, err := cmd.Flags().GetBool("no-telemetry"); err == nil && noTelemetry {
		return NewLogger(cmd), func() {}, nil
	}
	otlpURL := FlagOrEnv(cmd, "otlp-url", "SUSUSAVE_OTLP_URL", "")
	if otlpURL == "" {
		return NewLogger(cmd), func() {}, nil
	}
	authToken := FlagOrEnv(cmd, "otlp-auth-token", "SUSUSAVE_OTLP_AUTH_TOKEN", "")

	log, shutdown, err := telemetry.New(ctx, otlpURL, authToken, serviceName)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating telemetry")
	}
	return log, func() { shutdown() }, nil
}
