// Package cmd provides CLI commands for the changelogctl binary.
package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/extop/cli/config"
	"github.com/pithecene-io/extop/cli/reader"
	"github.com/pithecene-io/extop/log"
	"github.com/pithecene-io/extop/stream"
)

// Exit codes.
const (
	exitSuccess     = 0
	exitFailure     = 1
	exitDecodeError = 2
	exitStatusError = 3
	exitConfigError = 4
)

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for replay.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (replay only)",
	}

	// ConfigFlag points at a changelog.yaml defaults file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to changelog.yaml defaults",
		EnvVars: []string{"CHANGELOGCTL_CONFIG"},
	}

	// EncodingFlag selects how binary values are printed and parsed.
	EncodingFlag = &cli.StringFlag{
		Name:    "encoding",
		Aliases: []string{"e"},
		Usage:   "Binary encoding: hex, base64",
	}

	// LogLevelFlag sets the stderr log level.
	LogLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn, error",
	}
)

// ReadOnlyFlags returns the shared flags for all commands.
// Includes --tui so that unsupported commands can provide explicit error
// messages instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
		ConfigFlag,
		EncodingFlag,
		LogLevelFlag,
	}
}

// loadConfig reads --config, or returns defaults when it is unset.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitConfigError)
	}
	return cfg, nil
}

// resolveString returns the CLI flag if explicitly set, else the config
// value if non-empty, else the flag default.
func resolveString(c *cli.Context, flagName, cfgVal string) string {
	if c.IsSet(flagName) || cfgVal == "" {
		return c.String(flagName)
	}
	return cfgVal
}

// resolveInt returns the CLI flag if explicitly set, else the config value
// if non-zero, else the flag default.
func resolveInt(c *cli.Context, flagName string, cfgVal int) int {
	if c.IsSet(flagName) || cfgVal == 0 {
		return c.Int(flagName)
	}
	return cfgVal
}

// resolveBool returns the CLI flag if explicitly set, else the config value.
func resolveBool(c *cli.Context, flagName string, cfgVal bool) bool {
	if c.IsSet(flagName) {
		return c.Bool(flagName)
	}
	return cfgVal
}

// resolveSlice returns the CLI values if the flag was given, else the
// config values.
func resolveSlice(c *cli.Context, flagName string, cfgVal []string) []string {
	if c.IsSet(flagName) {
		return c.StringSlice(flagName)
	}
	return cfgVal
}

func resolveEncoding(c *cli.Context, cfg *config.Config) (reader.Encoding, error) {
	enc, err := reader.ParseEncoding(resolveString(c, "encoding", cfg.Output.Encoding))
	if err != nil {
		return "", cli.Exit(err.Error(), exitConfigError)
	}
	return enc, nil
}

// newLogger writes JSON logs to the app's error writer at the configured
// level.
func newLogger(c *cli.Context, cfg *config.Config) (*log.Logger, error) {
	logger := log.NewLogger(nil).WithOutput(c.App.ErrWriter)
	level := resolveString(c, "log-level", cfg.Log.Level)
	if level == "" {
		level = "warn"
	}
	if err := logger.SetLevel(level); err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid log level %q: %v", level, err), exitConfigError)
	}
	return logger, nil
}

// exitCodeFor maps a replay failure to a process exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case stream.IsStatusError(err):
		return exitStatusError
	case stream.IsDecodeError(err):
		return exitDecodeError
	}
	var cliErr cli.ExitCoder
	if errors.As(err, &cliErr) {
		return cliErr.ExitCode()
	}
	return exitFailure
}
