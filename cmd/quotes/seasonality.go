package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-quotes/internal/seasonality"
	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/writer"
)

func (a *app) seasonalityCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "Read prices from a CSV written by fetch instead of downloading them",
		},
	}, fetchFlags()...)

	return &cli.Command{
		Name:   "seasonality",
		Usage:  "Compare May-Oct and Nov-Apr half-year returns",
		Flags:  flags,
		Action: a.seasonalityAction,
	}
}

func (a *app) seasonalityAction(ctx context.Context, cmd *cli.Command) error {
	var (
		series types.PriceSeries
		err    error
	)

	if input := cmd.String("input"); input != "" {
		symbol := cmd.String("ticker")
		if !cmd.IsSet("ticker") {
			symbol = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		}

		series, err = writer.ReadCSV(input, symbol)
		if err == nil {
			// downloads only warn on negative prices, saved files are rejected
			err = series.Validate()
		}
	} else {
		series, err = a.fetchSeries(ctx, cmd)
	}

	if err != nil {
		return err
	}

	report, err := seasonality.Compute(series)
	if err != nil {
		return fmt.Errorf("seasonality report failed: %w", err)
	}

	fmt.Fprintln(a.out, seasonality.Render(report))

	return nil
}

func (a *app) fetchSeries(ctx context.Context, cmd *cli.Command) (types.PriceSeries, error) {
	client, config, err := a.newClient(cmd)
	if err != nil {
		return types.PriceSeries{}, err
	}

	params, err := config.ToDownloadParams()
	if err != nil {
		return types.PriceSeries{}, err
	}

	series, err := client.Fetch(ctx, params.Ticker, params.StartDate, params.EndDate)
	if err != nil {
		return types.PriceSeries{}, fmt.Errorf("download failed: %w", err)
	}

	return series, nil
}
