package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pulseofpair/pairsync/internal/catalog"
	"github.com/pulseofpair/pairsync/internal/database"
	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/repository"
)

// promptStore imports a catalog as one unit and reads it back.
type promptStore interface {
	Import(ctx context.Context, prompts []model.UpsertPromptParams) error
	FindAll(ctx context.Context, kind model.PromptKind) ([]model.Prompt, error)
}

type dbStore struct {
	db      *database.DB
	prompts repository.PromptRepository
}

func (s *dbStore) Import(ctx context.Context, prompts []model.UpsertPromptParams) error {
	return repository.ImportPrompts(ctx, s.db.DB, prompts)
}

func (s *dbStore) FindAll(ctx context.Context, kind model.PromptKind) ([]model.Prompt, error) {
	return s.prompts.FindAll(ctx, kind)
}

type storeOpener func(ctx context.Context, databaseURL string) (promptStore, func() error, error)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	DatabaseURL string
	Format      string
	open        storeOpener
}

func openStore(ctx context.Context, databaseURL string) (promptStore, func() error, error) {
	if databaseURL == "" {
		return nil, nil, errors.New("database url is required (--database-url or DATABASE_URL)")
	}
	db, err := database.Connect(databaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return &dbStore{db: db, prompts: repository.NewPromptRepository(db.DB)}, db.Close, nil
}

func newRootCommand(open storeOpener) *cobra.Command {
	opts := &rootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the prompt catalog",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection url")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newImportCommand(opts))
	cmd.AddCommand(newListCommand(opts))

	return cmd
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Validate a catalog file and upsert its prompts by number in one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompts, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d prompts valid\n", len(prompts))
				return nil
			}

			ctx := cmd.Context()
			store, closeStore, err := opts.open(ctx, opts.DatabaseURL)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Import(ctx, prompts); err != nil {
				return fmt.Errorf("import aborted, catalog unchanged: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d prompts\n", len(prompts))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate only")
	return cmd
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the catalog in scheduling order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != "" && !model.PromptKind(kind).Valid() {
				return fmt.Errorf("invalid kind %q: must be daily or tune", kind)
			}

			ctx := cmd.Context()
			store, closeStore, err := opts.open(ctx, opts.DatabaseURL)
			if err != nil {
				return err
			}
			defer closeStore()

			prompts, err := store.FindAll(ctx, model.PromptKind(kind))
			if err != nil {
				return err
			}
			return printPrompts(cmd.OutOrStdout(), opts.Format, prompts)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "only list prompts of this kind (daily|tune)")
	return cmd
}

func printPrompts(w io.Writer, format string, prompts []model.Prompt) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(prompts)
	}

	for _, p := range prompts {
		text := p.Text
		if p.Variant == model.PromptVariantTwoSided {
			text = p.TextAboutSelf + " / " + p.TextAboutPartner
		}
		fmt.Fprintf(w, "%4d  %-5s  %-9s  %-6s  %s\n", p.Number, p.Kind, p.Variant, p.AnswerType, text)
	}
	return nil
}
