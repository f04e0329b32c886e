// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vivado-fetch/api/schemas"
	"github.com/xkilldash9x/vivado-fetch/internal/browser"
	"github.com/xkilldash9x/vivado-fetch/internal/config"
	"github.com/xkilldash9x/vivado-fetch/internal/download"
	"github.com/xkilldash9x/vivado-fetch/internal/navigator"
	"github.com/xkilldash9x/vivado-fetch/internal/observability"
	"github.com/xkilldash9x/vivado-fetch/internal/prompt"
)

const envPrefix = "VIVADO_FETCH"

// Session is a browser ready to download into one directory.
type Session interface {
	schemas.Page
	Close(ctx context.Context) error
}

// LaunchFunc starts a browser session saving downloads into outputDir.
type LaunchFunc func(ctx context.Context, cfg *config.Config, outputDir string, logger *zap.Logger) (Session, error)

// Dependencies are the collaborators of the root command. Zero fields fall
// back to the real implementations.
type Dependencies struct {
	Launch   LaunchFunc
	Prompter func(cmd *cobra.Command) navigator.Prompter
	Clock    download.Clock
	Home     config.HomeFunc
	// OnOutcome observes the outcome of every run that reached the download wait.
	OnOutcome func(schemas.DownloadOutcome)
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Launch == nil {
		d.Launch = launchChrome
	}
	if d.Prompter == nil {
		d.Prompter = func(cmd *cobra.Command) navigator.Prompter {
			return prompt.NewTerminal(os.Stdin, cmd.ErrOrStderr())
		}
	}
	return d
}

func launchChrome(ctx context.Context, cfg *config.Config, outputDir string, logger *zap.Logger) (Session, error) {
	sess, err := browser.NewLauncher(cfg.Browser, logger).Launch(ctx, outputDir)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

type rootOptions struct {
	cfgFile string
	headful bool
	debug   bool
	flags   config.Flags
}

// NewRootCommand builds the vivado-fetch command tree.
func NewRootCommand(deps Dependencies) *cobra.Command {
	deps = deps.withDefaults()
	opts := &rootOptions{}
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:   "vivado-fetch",
		Short: "Download a Vivado installer from the AMD download center.",
		Long: `vivado-fetch signs in to the AMD/Xilinx download center with a headless
Chrome, finds the requested Vivado release and downloads the chosen installer
into the output directory.`,
		Example:       "  vivado-fetch -v 2024.1 -o ~/Downloads -t 7200",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)
			if err := initializeConfig(v, opts.cfgFile); err != nil {
				return err
			}
			if opts.headful {
				v.Set("browser.headless", false)
			}
			if opts.debug {
				v.Set("logger.level", "debug")
			}

			loaded, err := config.NewConfigFromViper(v)
			if err != nil {
				return err
			}
			cfg = loaded

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting vivado-fetch", zap.String("version", Version))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, deps, cfg, opts.flags)
		},
	}

	f := rootCmd.Flags()
	f.StringVarP(&opts.flags.Version, "version", "v", "", "Vivado release to download, e.g. 2024.1 (required)")
	f.StringVarP(&opts.flags.Output, "output", "o", "", "download directory (default is the home directory)")
	f.StringVarP(&opts.flags.Timeout, "timeout", "t", "", fmt.Sprintf("seconds to wait for the download to finish (default %d)", config.DefaultTimeoutSeconds))
	f.StringVarP(&opts.flags.File, "file", "f", "", "installer to fetch, by 1-based index or title substring (default is to ask)")
	rootCmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file (default is ./vivado-fetch.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.headful, "headful", false, "show the browser window")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log every browser step (sets logger.level=debug)")

	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command and prints the final status line.
func Execute(ctx context.Context) error {
	return execute(ctx, NewRootCommand(Dependencies{}))
}

// execute runs rootCmd and prints one status line for every failure and for
// every download run. Help and the version subcommand print none on success.
func execute(ctx context.Context, rootCmd *cobra.Command) error {
	ran, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		if ran != rootCmd {
			return nil
		}
		if help, _ := ran.Flags().GetBool("help"); help {
			return nil
		}
	}
	fmt.Fprintln(rootCmd.ErrOrStderr(), StatusLine(err))
	return err
}

// initializeConfig reads in the config file and environment variables.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("vivado-fetch")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}
