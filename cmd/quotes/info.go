package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-quotes/pkg/marketdata"
)

const (
	schemaFileName       = "fetch-config.json"
	sampleConfigFileName = "fetch-config.yaml"
)

func (a *app) providersCommand() *cli.Command {
	return &cli.Command{
		Name:  "providers",
		Usage: "List the supported market data providers",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the provider list as JSON",
			},
		},
		Action: a.providersAction,
	}
}

func (a *app) providersAction(_ context.Context, cmd *cli.Command) error {
	infos := make([]marketdata.ProviderInfo, 0)

	for _, name := range marketdata.GetSupportedProviders() {
		info, err := marketdata.GetProviderInfo(name)
		if err != nil {
			return err
		}

		infos = append(infos, info)
	}

	if cmd.Bool("json") {
		encoder := json.NewEncoder(a.out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(infos)
	}

	for _, info := range infos {
		auth := "no API key"
		if info.RequiresAuth {
			auth = "API key required"
		}

		fmt.Fprintf(a.out, "%-8s %s (%s, e.g. %s)\n  %s\n", info.Name, info.DisplayName, auth, info.ExampleTicker, info.Description)
	}

	return nil
}

func (a *app) schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the fetch configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Write " + schemaFileName + " and a sample " + sampleConfigFileName + " into this directory instead of printing",
			},
		},
		Action: a.schemaAction,
	}
}

func (a *app) schemaAction(_ context.Context, cmd *cli.Command) error {
	schemaJSON, err := marketdata.GetFetchConfigSchema()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	dir := cmd.String("dir")
	if dir == "" {
		fmt.Fprintln(a.out, schemaJSON)

		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	schemaPath := filepath.Join(dir, schemaFileName)
	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	fmt.Fprintf(a.out, "Schema written to %s\n", schemaPath)

	// an existing sample is left alone
	samplePath := filepath.Join(dir, sampleConfigFileName)
	if _, err := os.Stat(samplePath); err == nil {
		return nil
	}

	yamlBytes, err := yaml.Marshal(marketdata.DefaultFetchConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaFileName+"\n"), yamlBytes...)
	if err := os.WriteFile(samplePath, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	fmt.Fprintf(a.out, "Sample config written to %s\n", samplePath)

	return nil
}
