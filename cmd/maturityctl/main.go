package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"MaturityBoard/internal/config"
	"MaturityBoard/internal/repositories"
	"MaturityBoard/internal/templates"
	"MaturityBoard/internal/utils/logger/slogpretty"

	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	if err := newRootCommand().Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "maturityctl",
		Usage: "Maintenance commands for MaturityBoard",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yml", Usage: "path to the YAML config file"},
			&cli.BoolFlag{Name: "verbose", Usage: "log debug output to stderr"},
		},
		Commands: []*cli.Command{
			validateCommand(),
			seedCommand(),
			migrateCommand(),
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate a template document (JSON or YAML) without storing it",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the canonical template as JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("validate: expected exactly one file, got %d", c.Args().Len())
			}
			return validateFile(os.Stdout, c.Args().First(), c.Bool("json"))
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Migrate the database and import the built-in templates",
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := openRepository(ctx, c)
			if err != nil {
				return err
			}
			defer func() { _ = repo.DB.Close() }()

			if err := repo.Migrate(ctx); err != nil {
				return err
			}
			res, err := templates.New(newLogger(c), repo).Seed(ctx)
			if err != nil {
				return err
			}
			printSeedResult(os.Stdout, res)
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Database schema migrations",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply pending migrations",
				Action: func(ctx context.Context, c *cli.Command) error {
					repo, err := openRepository(ctx, c)
					if err != nil {
						return err
					}
					defer func() { _ = repo.DB.Close() }()

					if err := repo.Migrate(ctx); err != nil {
						return err
					}
					status, err := repo.MigrationStatus(ctx)
					if err != nil {
						return err
					}
					printMigrations(os.Stdout, status)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "List migrations and when they were applied",
				Action: func(ctx context.Context, c *cli.Command) error {
					repo, err := openRepository(ctx, c)
					if err != nil {
						return err
					}
					defer func() { _ = repo.DB.Close() }()

					status, err := repo.MigrationStatus(ctx)
					if err != nil {
						return err
					}
					printMigrations(os.Stdout, status)
					return nil
				},
			},
		},
	}
}

func openRepository(ctx context.Context, c *cli.Command) (*repositories.Repository, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	return repositories.Open(ctx, newLogger(c), cfg.DBConfig)
}

func newLogger(c *cli.Command) *slog.Logger {
	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: level},
	}
	return slog.New(opts.NewPrettyHandler(os.Stderr))
}
