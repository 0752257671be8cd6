package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/foldernote/internal"
	pkgconfig "github.com/starford/foldernote/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func refresh(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	folder := cmd.Args().First()
	if cmd.Bool("root") {
		folder = "/"
	}

	report, err := internal.Refresh(ctx, folder, internal.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return printJSON(cmd, report)
}

func resolve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("resolve: document path is required")
	}

	res, err := internal.Resolve(ctx, path, internal.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	return printJSON(cmd, res)
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func printJSON(cmd *cli.Command, v any) error {
	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	cmd := &cli.Command{
		Name:    "foldernote",
		Usage:   "Keep a parent link to the enclosing folder note in every Markdown document of a vault",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Watch the vault and serve the HTTP API (default)",
				Action: serve,
			},
			{
				Name:      "refresh",
				Usage:     "Refresh parent links under a folder; defaults to the last refreshed folder",
				ArgsUsage: "[folder]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "root",
						Usage: "Refresh the whole vault regardless of the last refreshed folder",
					},
				},
				Action: refresh,
			},
			{
				Name:      "resolve",
				Usage:     "Print the parent a document would get, without writing it",
				ArgsUsage: "<path>",
				Action:    resolve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
