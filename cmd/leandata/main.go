package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-lean-data/internal/logger"
	"github.com/rxtech-lab/argo-lean-data/internal/version"
	"github.com/rxtech-lab/argo-lean-data/pkg/errors"
	"github.com/rxtech-lab/argo-lean-data/pkg/marketdata"
	"github.com/rxtech-lab/argo-lean-data/pkg/marketdata/provider"
)

// resolveConfig layers the config file and the flags on top of the compiled-in defaults.
func resolveConfig(cmd *cli.Command) (marketdata.Config, error) {
	config := marketdata.DefaultConfig()

	if path := cmd.String("config"); path != "" {
		loaded, err := marketdata.LoadConfig(path)
		if err != nil {
			return marketdata.Config{}, err
		}

		config = loaded
	}

	if cmd.IsSet("provider") {
		config.Provider = provider.ProviderType(cmd.String("provider"))
	}

	if cmd.IsSet("provider-url") {
		config.ProviderURL = cmd.String("provider-url")
	}

	if cmd.IsSet("data") {
		config.OutputRoot = cmd.String("data")
	}

	if cmd.IsSet("start") {
		config.StartDate = cmd.String("start")
	}

	if cmd.IsSet("end") {
		config.EndDate = cmd.String("end")
	}

	if cmd.IsSet("pause") {
		config.Pause = cmd.Duration("pause")
	}

	if cmd.IsSet("parquet") {
		config.Parquet = cmd.Bool("parquet")
	}

	config.PolygonApiKey = os.Getenv("POLYGON_API_KEY")

	return config, nil
}

// downloadAction runs every configured instrument group. Per-instrument
// failures are reported on stdout and do not change the exit status.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	appLogger, err := logger.NewLogger(cmd.Bool("verbose"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() {
		_ = appLogger.Sync()
	}()

	config, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	stdout := cmd.Root().Writer
	stderr := cmd.Root().ErrWriter

	opts := []marketdata.Option{
		marketdata.WithLogger(appLogger.Logger),
		marketdata.WithOutput(stdout),
	}

	var bar *progressbar.ProgressBar
	if !cmd.Bool("quiet") {
		bar = progressbar.NewOptions(len(config.Instruments()),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("Downloading"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		opts = append(opts, marketdata.WithProgress(func(current, _ float64, _ string) {
			_ = bar.Set(int(current))
		}))
	}

	client, err := marketdata.NewClient(config, opts...)
	if err != nil {
		return err
	}

	report := client.Run(ctx)

	if bar != nil {
		_ = bar.Finish()
	}

	marketdata.NewReporter(stderr).Summary(report)

	if report.Cancelled {
		return errors.Newf(errors.ErrCodeUnknown, "download interrupted after %d instruments", len(report.Results))
	}

	return nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	schema, err := marketdata.GetConfigSchema()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, schema)

	return err
}

func providersAction(_ context.Context, cmd *cli.Command) error {
	return printProviders(cmd.Root().Writer)
}

func newCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "leandata",
		Usage:     "Download daily bars into LEAN zip archives",
		Version:   version.GetVersion(),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file (the schema command prints its format)",
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage: fmt.Sprintf("Data provider to use (%s, %s, %s)",
					provider.ProviderYahoo, provider.ProviderPolygon, provider.ProviderBinance),
			},
			&cli.StringFlag{
				Name:  "provider-url",
				Usage: "Base URL override for the yahoo and binance providers",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Root directory of the LEAN data tree",
			},
			&cli.StringFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "First date in `YYYY-MM-DD` format (inclusive)",
			},
			&cli.StringFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "Last date in `YYYY-MM-DD` format (exclusive)",
			},
			&cli.DurationFlag{
				Name:  "pause",
				Usage: "Delay after every instrument",
			},
			&cli.BoolFlag{
				Name:  "parquet",
				Usage: "Also write a parquet copy of every instrument",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging on stderr",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide the progress bar",
			},
		},
		Action: downloadAction,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the config file",
				Action: schemaAction,
			},
			{
				Name:   "providers",
				Usage:  "List the supported data providers",
				Action: providersAction,
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand(os.Stdout, os.Stderr).Run(ctx, os.Args); err != nil {
		stop()
		log.Fatal(err)
	}
}
