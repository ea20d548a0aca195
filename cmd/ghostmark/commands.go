package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/ghostmark/internal/app"
	"github.com/MrSnakeDoc/ghostmark/internal/bookmarker"
	"github.com/MrSnakeDoc/ghostmark/internal/config"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
	"github.com/MrSnakeDoc/ghostmark/internal/version"
)

type globalFlags struct {
	envFile      string
	settingsFile string
	debug        bool
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "ghostmark",
		Short:         "Save links to a Ghost draft post",
		Long:          `ghostmark appends bookmarks to a "Bookmarked links" draft on a Ghost site, over HTTP or from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before reading GHOSTMARK_* variables")
	root.PersistentFlags().StringVar(&flags.settingsFile, "settings", "", "settings file (overrides GHOSTMARK_SETTINGS_FILE)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "log at debug level")

	root.AddCommand(
		serveCmd(flags),
		addCmd(flags),
		configureCmd(flags),
		versionCmd(),
	)
	return root
}

// setup loads the environment and configuration and wires the app.
func setup(ctx context.Context, flags *globalFlags) (*app.App, logger.Logger, error) {
	// A missing .env file is fine; the environment may be set already.
	if err := godotenv.Load(flags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("load %s: %w", flags.envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if flags.settingsFile != "" {
		cfg.SettingsFile = flags.settingsFile
	}
	if flags.debug {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			return a.Serve()
		},
	}
}

func addCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add <url> [note...]",
		Short: "Append one bookmark to the aggregator post",
		Example: `  ghostmark add https://go.dev/blog "worth a read"
  ghostmark add "found this https://go.dev/doc/effective_go via a friend"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()

			req := bookmarker.Request{Link: args[0], Note: strings.Join(args[1:], " ")}
			if !strings.HasPrefix(args[0], "http://") && !strings.HasPrefix(args[0], "https://") {
				req = bookmarker.Request{Text: strings.Join(args, " ")}
			}

			res, err := a.Bookmarks().Submit(cmd.Context(), req)
			if err != nil {
				return err
			}
			verb := "Appended to"
			if res.Created {
				verb = "Created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Bookmarked links: %s\n", verb, res.EditorURL)
			return nil
		},
	}
}

func configureCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "configure <site-url> <admin-api-key>",
		Short: "Validate and store the Ghost site and Admin API key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()

			saved, err := a.Settings().Save(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (key %s)\n", saved.APIURL, saved.Masked().APIKey)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
