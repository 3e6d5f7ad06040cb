// Package cmd implements the digitread command line interface.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/digitread/internal/config"
	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagBinding ties a command flag to a configuration key.
type flagBinding struct {
	key  string
	flag string
}

// app carries the state shared by the commands of one invocation.
type app struct {
	v        *viper.Viper
	cfgFile  string
	cfg      *config.Config
	bindings map[*cobra.Command][]flagBinding
}

// NewRootCommand builds a fresh command tree with its own configuration
// state, so that several invocations can run in one process.
func NewRootCommand() *cobra.Command {
	rootCmd, _ := newRootCommand()
	return rootCmd
}

func newRootCommand() (*cobra.Command, *app) {
	a := &app{
		v:        viper.New(),
		bindings: make(map[*cobra.Command][]flagBinding),
	}

	rootCmd := &cobra.Command{
		Use:   "digitread",
		Short: "Read digit strings from images",
		Long: `digitread recognizes the digits printed or displayed in an image using
classical image processing (background normalization, CLAHE, Otsu
binarization, connected components) and a HOG + SVM or KNN classifier.

Examples:
  digitread image meter.png
  digitread image meter.png --expected-digits 5 --format json
  digitread batch ./photos --recursive --format csv --output results.csv
  digitread pdf readings.pdf --pages 1-3
  digitread serve --port 8080`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.bindFlags(cmd); err != nil {
				return err
			}
			if err := a.loadConfig(); err != nil {
				return err
			}
			a.setupLogging(cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $XDG_CONFIG_HOME/digitread, /etc/digitread)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("models-dir", models.DefaultModelsDir,
		"directory containing the model artifacts (also "+models.EnvModelsDir+")")
	a.bind(rootCmd,
		flagBinding{"verbose", "verbose"},
		flagBinding{"log_level", "log-level"},
		flagBinding{"models_dir", "models-dir"},
	)

	rootCmd.AddCommand(
		newImageCommand(a),
		newBatchCommand(a),
		newPDFCommand(a),
		newServeCommand(a),
		newModelCommand(a),
		newConfigCommand(a),
	)
	return rootCmd, a
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bind registers flag bindings for cmd. They are applied when cmd runs;
// root bindings apply to every command.
func (a *app) bind(cmd *cobra.Command, bindings ...flagBinding) {
	a.bindings[cmd] = append(a.bindings[cmd], bindings...)
}

// bindFlags binds the root flags and those of the executing command.
func (a *app) bindFlags(cmd *cobra.Command) error {
	cmds := []*cobra.Command{cmd.Root()}
	if cmd != cmd.Root() {
		cmds = append(cmds, cmd)
	}
	for _, c := range cmds {
		for _, b := range a.bindings[c] {
			f := lookupFlag(c, b.flag)
			if f == nil {
				return fmt.Errorf("unknown flag %s for %s", b.flag, c.Name())
			}
			if err := a.v.BindPFlag(b.key, f); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", b.flag, err)
			}
		}
	}
	return nil
}

func lookupFlag(c *cobra.Command, name string) *pflag.Flag {
	if f := c.Flags().Lookup(name); f != nil {
		return f
	}
	return c.PersistentFlags().Lookup(name)
}

// loadConfig resolves flags, environment (DIGITREAD_*), config file and
// defaults.
func (a *app) loadConfig() error {
	cfg, err := config.NewLoaderWithViper(a.v).LoadWithFile(a.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	a.cfg = cfg
	return nil
}

func (a *app) setupLogging(w io.Writer) {
	level := slog.LevelInfo
	if a.cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch a.cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}
