// Package cli provides the crashtriage command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/setevik/crashtriage/internal/config"
	"github.com/setevik/crashtriage/internal/logging"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitProblems = 1
	ExitError    = 2
)

// Version is set via ldflags at build time.
var Version = "dev"

// GlobalOptions holds flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	Format     string
	Verbose    bool
	LogLevel   string
	DBPath     string
}

// app carries state from flag parsing into the commands of one invocation.
type app struct {
	opts     GlobalOptions
	cfg      *config.Config
	exitCode int
	now      func() time.Time
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Run executes args against fresh command state.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{now: time.Now}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	return a.exitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	a := &app{now: time.Now}
	return a.rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crashtriage",
		Short: "Triage HotSpot JVM fatal error logs",
		Long: `crashtriage reads an hs_err_pid fatal error log written by a crashing
HotSpot JVM and reports the likely causes: native memory exhaustion,
internal errors, crashes in native libraries, low kernel and process
limits, container awareness gaps, stale JDK builds and known-problematic
agents and libraries.

Runs can be recorded in a local history database to spot recurring crashes.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
	}

	f := rootCmd.PersistentFlags()
	f.StringVarP(&a.opts.ConfigPath, "config", "c", "", "Path to config file (default "+config.DefaultPath()+")")
	f.StringVarP(&a.opts.Format, "format", "o", "", "Output format (text|json|yaml)")
	f.BoolVarP(&a.opts.Verbose, "verbose", "v", false, "Show unrecognized lines and kernel tunables")
	f.StringVar(&a.opts.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	f.StringVar(&a.opts.DBPath, "db", "", "History database path; enables the store")

	rootCmd.AddCommand(a.analyzeCommand())
	rootCmd.AddCommand(a.historyCommand())
	rootCmd.AddCommand(a.rulesCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// loadConfig reads the config file and applies flag overrides.
func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if a.opts.Format != "" {
		cfg.Report.Format = a.opts.Format
	}
	if a.opts.Verbose {
		cfg.Report.Verbose = true
	}
	if a.opts.LogLevel != "" {
		cfg.Log.Level = a.opts.LogLevel
	}
	if a.opts.DBPath != "" {
		cfg.Store.Enabled = true
		cfg.Store.Path = a.opts.DBPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.JSON); err != nil {
		return err
	}

	a.cfg = cfg
	return nil
}
