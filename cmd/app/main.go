package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/pocketpick/internal"
	"github.com/starford/pocketpick/internal/apperr"
	"github.com/starford/pocketpick/internal/models"
	"github.com/starford/pocketpick/internal/pocket"
	pkgconfig "github.com/starford/pocketpick/pkg/config"
)

// loadConfig reads the config file (if present) and applies the --db override.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if db := cmd.String("db"); db != "" {
		cfg.SQLite.Path = db
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithFixedDB(cmd.IsSet("db")),
	}
	if err := internal.RunMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func add(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc := pocket.NewService(pocket.WithLogger(internal.NewLogger(os.Stderr, cfg.App.LogLevel)))
	item, err := svc.Add(ctx, models.AddCommand{
		ID:     itemID(cmd),
		Text:   cmd.String("text"),
		Tags:   cmd.StringSlice("tag"),
		DBPath: cfg.SQLite.Path,
	})
	if err != nil {
		return err
	}
	printItem(cmd, item)
	return nil
}

func addFile(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc := pocket.NewService(pocket.WithLogger(internal.NewLogger(os.Stderr, cfg.App.LogLevel)))
	item, err := svc.AddFile(ctx, models.AddFileCommand{
		ID:       itemID(cmd),
		FilePath: cmd.String("file"),
		Tags:     cmd.StringSlice("tag"),
		DBPath:   cfg.SQLite.Path,
	})
	if err != nil {
		return err
	}
	printItem(cmd, item)
	return nil
}

func itemID(cmd *cli.Command) string {
	if id := cmd.String("id"); id != "" {
		return id
	}
	return uuid.NewString()
}

func printItem(cmd *cli.Command, item *models.PocketItem) {
	_, _ = fmt.Fprintf(cmd.Root().Writer, "Added item with ID: %s\nText: %s\nTags: %s\n",
		item.ID, item.Text, strings.Join(item.Tags, ", "))
}

func tagFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "tag",
		Aliases: []string{"t"},
		Usage:   "Tag to attach (repeatable)",
	}
}

func idFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "id",
		Usage: "Item id (a UUID is generated when omitted)",
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "pocketpick",
		Usage: "Personal snippet store backed by a single SQLite file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "config/config.yaml",
				Sources: cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Path to the pocket database (overrides sqlite.path)",
				Sources: cli.EnvVars("POCKET_PICK_DB"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, event stream and inbox watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the pocket tools over MCP on stdio",
				Action: serveMCP,
			},
			{
				Name:  "add",
				Usage: "Add a text item",
				Flags: []cli.Flag{
					idFlag(),
					&cli.StringFlag{Name: "text", Usage: "Item text", Required: true},
					tagFlag(),
				},
				Action: add,
			},
			{
				Name:  "add-file",
				Usage: "Add an item from a file's contents",
				Flags: []cli.Flag{
					idFlag(),
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Path of the file to add", Required: true},
					tagFlag(),
				},
				Action: addFile,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		if errors.Is(err, apperr.ErrAlreadyExists) || errors.Is(err, apperr.ErrFileNotFound) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
