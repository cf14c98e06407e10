// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/zerg/internal/config"
	"firestige.xyz/zerg/internal/log"
	"firestige.xyz/zerg/internal/metrics"
)

// Process exit codes.
const (
	ExitOK    = 0
	ExitUsage = 1 // bad arguments or configuration
	ExitFile  = 2 // input cannot be opened or output created
	ExitAlloc = 3 // packet store limit reached
)

var (
	// Global flags
	configFile string
	logLevel   string

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "zerg",
	Short: "zerg - decode and encode zerg telemetry captures",
	Long: `zerg converts between pcap capture files carrying zerg telemetry datagrams
(UDP port 3751) and their human-readable text form.

  zerg decode <capture-file>            print every zerg packet as a text record
  zerg encode [-b] <infile> <outfile>   build a capture file from text records

Diagnostics go to stderr; decode output is the only thing written to stdout.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (yaml)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "",
		"log level: debug, info, warn, error")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)
}

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// Execute runs the root command and returns the process exit code.
// This is called by main.main().
func Execute() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	finish()
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitCode(err)
}

// finish exports the run metrics, when configured, and closes the log
// outputs. It runs whatever the outcome of the command.
func finish() {
	if cfg != nil && cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.GetLogger().WithError(err).WithField("file", cfg.Metrics.Textfile).Warn("failed to write metrics")
		}
	}
	log.Close() //nolint:errcheck
}

// exitCode maps err to a process exit code. Errors raised by cobra itself,
// such as a wrong argument count, are invocation errors.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitUsage
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var opts []config.Option
	if cmd.Flags().Changed("log-level") {
		opts = append(opts, config.WithOverride("log.level", logLevel))
	}

	c, err := config.Load(configFile, opts...)
	if err != nil {
		return withCode(ExitUsage, err)
	}
	if err := log.Init(c.Log); err != nil {
		return withCode(ExitUsage, fmt.Errorf("failed to init logger: %w", err))
	}
	cfg = c
	return nil
}
