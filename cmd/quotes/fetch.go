package main

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/provider"
)

// fetchFlags returns fresh flag definitions for commands that fetch prices.
func fetchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML or JSON fetch configuration; flags override its values",
		},
		&cli.StringFlag{
			Name:    "provider",
			Aliases: []string{"p"},
			Usage:   fmt.Sprintf("Data provider to use (%s, %s, %s)", marketdata.ProviderYahoo, marketdata.ProviderPolygon, marketdata.ProviderBinance),
			Value:   string(marketdata.ProviderYahoo),
		},
		&cli.StringFlag{
			Name:    "ticker",
			Aliases: []string{"t"},
			Usage:   "Ticker symbol",
			Value:   marketdata.DefaultTicker,
		},
		&cli.StringFlag{
			Name:    "start",
			Aliases: []string{"s"},
			Usage:   "Start date in `YYYY-MM-DD` format",
			Value:   marketdata.DefaultStartDate,
		},
		&cli.StringFlag{
			Name:    "end",
			Aliases: []string{"e"},
			Usage:   "Inclusive end date in `YYYY-MM-DD` format. Defaults to now.",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Path of the file to create or replace",
			Value:   marketdata.DefaultOutput,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   fmt.Sprintf("Output format (%s, %s)", marketdata.WriterCSV, marketdata.WriterParquet),
			Value:   string(marketdata.WriterCSV),
		},
		&cli.StringFlag{
			Name:  "timeout",
			Usage: "HTTP timeout as a Go duration, e.g. 30s",
		},
		&cli.StringFlag{
			Name:  "polygon-api-key",
			Usage: "Polygon.io API key (falls back to " + marketdata.PolygonApiKeyEnv + ")",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Show download progress on stderr",
		},
		&cli.StringFlag{
			Name:   "yahoo-url",
			Usage:  "Override the Yahoo chart API host",
			Hidden: true,
		},
	}
}

func (a *app) fetchCommand() *cli.Command {
	return &cli.Command{
		Name:   "fetch",
		Usage:  "Download daily open and close prices into a CSV or Parquet file",
		Flags:  fetchFlags(),
		Action: a.fetchAction,
	}
}

// fetchAction downloads the configured series and writes it to the output file.
func (a *app) fetchAction(ctx context.Context, cmd *cli.Command) error {
	client, config, err := a.newClient(cmd)
	if err != nil {
		return err
	}

	params, err := config.ToDownloadParams()
	if err != nil {
		return err
	}

	result, err := client.Download(ctx, params)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Fprintf(a.out, "Wrote %d rows of %s (%s to %s) to %s\n",
		result.Rows, params.Ticker,
		result.FirstDate.Format(types.DateLayout), result.LastDate.Format(types.DateLayout),
		result.OutputPath)

	return nil
}

// loadFetchConfig merges the config file, explicitly set flags and the environment, then validates.
func loadFetchConfig(cmd *cli.Command) (marketdata.FetchConfig, error) {
	config := marketdata.DefaultFetchConfig()

	if path := cmd.String("config"); path != "" {
		loaded, err := marketdata.LoadFetchConfig(path)
		if err != nil {
			return marketdata.FetchConfig{}, err
		}

		config = loaded
	}

	overrides := map[string]*string{
		"provider":        &config.Provider,
		"ticker":          &config.Ticker,
		"start":           &config.StartDate,
		"end":             &config.EndDate,
		"output":          &config.Output,
		"format":          &config.Format,
		"timeout":         &config.Timeout,
		"polygon-api-key": &config.PolygonApiKey,
	}

	for name, field := range overrides {
		if cmd.IsSet(name) {
			*field = cmd.String(name)
		}
	}

	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return marketdata.FetchConfig{}, err
	}

	return config, nil
}

func (a *app) newClient(cmd *cli.Command) (*marketdata.Client, marketdata.FetchConfig, error) {
	config, err := loadFetchConfig(cmd)
	if err != nil {
		return nil, marketdata.FetchConfig{}, err
	}

	clientConfig, err := config.ToClientConfig()
	if err != nil {
		return nil, marketdata.FetchConfig{}, err
	}

	clientConfig.YahooBaseURL = cmd.String("yahoo-url")

	log, err := a.logger(cmd)
	if err != nil {
		return nil, marketdata.FetchConfig{}, err
	}

	var onProgress provider.OnDownloadProgress
	if cmd.Bool("progress") {
		onProgress = a.progress(config.Ticker)
	}

	client, err := marketdata.NewClient(clientConfig, log, onProgress)
	if err != nil {
		return nil, marketdata.FetchConfig{}, fmt.Errorf("failed to create market data client: %w", err)
	}

	return client, config, nil
}

// progress returns a callback driving a progress bar on errOut.
// The total is unknown until the provider reports it.
func (a *app) progress(ticker string) provider.OnDownloadProgress {
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(a.errOut),
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", ticker)),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	return func(current, total float64, message string) {
		if total > 0 && int64(total) != bar.GetMax64() {
			bar.ChangeMax64(int64(total))
		}

		if message != "" {
			bar.Describe(message)
		}

		_ = bar.Set64(int64(current))

		if total > 0 && current >= total {
			_ = bar.Finish()
		}
	}
}
