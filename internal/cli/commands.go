package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyike/bestfour/config"
	"github.com/dyike/bestfour/internal/analyzer"
)

// Version is set at build time.
var Version = "dev"

const (
	formatJSON = "json"
	formatText = "text"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	debug      bool
	source     string
}

// NewRootCmd creates the root command
func NewRootCmd(opts ...Option) *cobra.Command {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	flags := &globalFlags{}
	var format string

	rootCmd := &cobra.Command{
		Use:   "bestfour <stock_code>",
		Short: "Best Four Point verdict for a Taiwan stock",
		Long: `bestfour fetches the last 31 trading days of a TWSE or TPEx security,
evaluates the Best Four Point buy and sell rules and prints a BUY, SELL or
HOLD verdict as JSON.
Example: bestfour 2330`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
				_ = writeJSON(cmd.OutOrStdout(), analyzer.Failure(noStockCodeMessage))
				return ErrNoStockCode
			}
			if err := checkFormat(format); err != nil {
				_ = writeJSON(cmd.OutOrStdout(), analyzer.Failure(err.Error()))
				return err
			}

			a, err := loadApp(flags, o)
			if err != nil {
				_ = writeJSON(cmd.OutOrStdout(), analyzer.Failure(err.Error()))
				return err
			}
			defer a.Close()

			res := a.analyzer.Analyze(cmd.Context(), strings.TrimSpace(args[0]))
			return printResult(cmd.OutOrStdout(), format, res)
		},
	}
	if o.out != nil {
		rootCmd.SetOut(o.out)
	}
	if o.errOut != nil {
		rootCmd.SetErr(o.errOut)
	}

	// Parse errors on the root command still answer with the failure JSON.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if !cmd.HasParent() {
			_ = writeJSON(cmd.OutOrStdout(), analyzer.Failure(err.Error()))
		}
		return err
	})

	rootCmd.Flags().StringVar(&format, "format", formatJSON, "Output format: json or text")

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flags.source, "source", "", "Price source: twse or yahoo")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(flags, o))
	rootCmd.AddCommand(newCodesCmd(flags, o))
	rootCmd.AddCommand(newInteractiveCmd(flags, o))

	return rootCmd
}

// loadConfig applies command line overrides on top of the loaded config.
func loadConfig(flags *globalFlags, o *options) (*config.Config, error) {
	path := flags.configPath
	if path == "" {
		if p, err := config.DefaultConfigPath(); err == nil {
			path = p
		}
	}

	cfg, err := o.loadConfig(path)
	if err != nil {
		return nil, err
	}
	if flags.debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if flags.source != "" {
		cfg.Source = flags.source
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadApp(flags *globalFlags, o *options) (*app, error) {
	cfg, err := loadConfig(flags, o)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, o)
}

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatText:
		return nil
	default:
		return fmt.Errorf("unknown format %q, want %s or %s", format, formatJSON, formatText)
	}
}

func printResult(w io.Writer, format string, res *analyzer.Result) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == formatText {
		_, err := fmt.Fprintln(w, RenderResult(res))
		return err
	}
	return writeJSON(w, res)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bestfour %s\n", Version)
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(flags *globalFlags, o *options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, o)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, o)
			if err != nil {
				return err
			}
			path := flags.configPath
			if path == "" {
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}
			if err := config.WriteFile(path, cfg); err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	})

	return configCmd
}
