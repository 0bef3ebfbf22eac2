package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/luizvinicius2219/planimport/app"
	"github.com/luizvinicius2219/planimport/domain/run"
	"github.com/luizvinicius2219/planimport/internal/config"
	"github.com/luizvinicius2219/planimport/internal/container"
)

// version is stamped at build time via -ldflags
var version = "dev"

func main() {
	os.Exit(execute())
}

func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	rootCmd := newRootCmd(&exitCode)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "planimport:", err)
		return run.StatusFatal.ExitCode()
	}
	return exitCode
}

type importOptions struct {
	folder      string
	envFile     string
	envExplicit bool
	dryRun      bool
	summaryJSON bool
}

func newRootCmd(exitCode *int) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "planimport [folder]",
		Short: "Import spreadsheet folders into MySQL",
		Long: `Scan a folder of .xlsx and .csv files, validate their rows against a
TOML schema contract, and upsert them into MySQL in natural-key order.

The folder argument overrides PLANILHAS_FOLDER; all other settings come
from the environment (see .env.example).

Exit codes: 0 everything imported, 1 partial (some rows or files did
not make it), 2 the run could not proceed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.folder = args[0]
			}
			opts.envExplicit = cmd.Flags().Changed("env-file")

			outcome, err := runImport(cmd.Context(), opts)
			if err != nil {
				return err
			}
			*exitCode = outcome.Status.ExitCode()
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Plan and report without writing to the database")
	cmd.Flags().BoolVar(&opts.summaryJSON, "summary-json", false, "Write the run summary as JSON instead of text")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "Environment file to load before reading configuration")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("planimport version %s\n", version)
		},
	}
}

func runImport(ctx context.Context, opts importOptions) (*run.Outcome, error) {
	if err := godotenv.Load(opts.envFile); err != nil {
		// a missing default .env is fine, a missing requested one is not
		if opts.envExplicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", opts.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.folder != "" {
		cfg.Source.Folder = opts.folder
	}
	if opts.dryRun {
		cfg.Import.DryRun = true
	}

	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	defer c.Shutdown()

	outcome := c.Service.Run(ctx)

	if opts.summaryJSON {
		if err := app.WriteJSON(os.Stdout, outcome); err != nil {
			return nil, fmt.Errorf("failed to write summary: %w", err)
		}
	} else {
		app.WriteSummary(os.Stdout, outcome)
	}
	return outcome, nil
}
