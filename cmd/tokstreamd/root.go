package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// rootOptions holds persistent flags shared by all subcommands.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// logger builds the process logger; empty flags fall back to the given
// config values.
func (o *rootOptions) logger(level, format string) (zerolog.Logger, error) {
	if o.logLevel != "" {
		level = o.logLevel
	}
	if o.logFormat != "" {
		format = o.logFormat
	}
	return newLogger(o.stderr, level, format)
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdin: stdin, stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "tokstreamd",
		Short:         "Stream engine output as UTF-8 aligned chunks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (.yaml, .yml, .json, .toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults TOKSTREAM_LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: json|console")

	root.AddCommand(newServeCmd(opts), newCatCmd(opts))
	return root
}
