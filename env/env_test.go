package env

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sususave/go-offline/logger"
)

func newCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("log-level", "", "")
	cmd.Flags().String("upstream", "", "")
	cmd.Flags().Bool("no-telemetry", false, "")
	cmd.Flags().String("otlp-url", "", "")
	cmd.Flags().String("otlp-auth-token", "", "")
	return cmd
}

func TestFlagOrEnv_FlagWins(t *testing.T) {
	cmd := newCmd()
	require.NoError(t, cmd.Flags().Set("upstream", "http://flag:3000"))
	t.Setenv("SUSUSAVE_UPSTREAM", "http://env:3000")
	assert.Equal(t, "http://flag:3000", FlagOrEnv(cmd, "upstream", "SUSUSAVE_UPSTREAM", "http://default:3000"))
}

func TestFlagOrEnv_EnvFallback(t *testing.T) {
	cmd := newCmd()
	t.Setenv("SUSUSAVE_UPSTREAM", "http://env:3000")
	assert.Equal(t, "http://env:3000", FlagOrEnv(cmd, "upstream", "SUSUSAVE_UPSTREAM", "http://default:3000"))
}

func TestFlagOrEnv_Default(t *testing.T) {
	assert.Equal(t, "http://default:3000", FlagOrEnv(newCmd(), "upstream", "SUSUSAVE_UPSTREAM_UNSET", "http://default:3000"))
}

func TestLogLevel(t *testing.T) {
	cmd := newCmd()
	assert.Equal(t, logger.LevelInfo, LogLevel(cmd))

	require.NoError(t, cmd.Flags().Set("log-level", "debug"))
	assert.Equal(t, logger.LevelDebug, LogLevel(cmd))

	cmd = newCmd()
	t.Setenv("SUSUSAVE_LOG_LEVEL", "trace")
	assert.Equal(t, logger.LevelTrace, LogLevel(cmd))
}

func TestNewTelemetry_DisabledFallsBackToConsole(t *testing.T) {
	cmd := newCmd()
	require.NoError(t, cmd.Flags().Set("no-telemetry", "true"))
	log, shutdown, err := NewTelemetry(context.Background(), cmd, "test")
	require.NoError(t, err)
	require.NotNil(t, log)
	shutdown()
}

func TestNewTelemetry_NoURLFallsBackToConsole(t *testing.T) {
	log, shutdown, err := NewTelemetry(context.Background(), newCmd(), "test")
	require.NoError(t, err)
	require.NotNil(t, log)
	shutdown()
}
