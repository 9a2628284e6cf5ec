// pickwirectl runs the merge, manifest, and grading pipelines offline
// against the same data directory the service uses. Handy for cron and
// for backfilling grades.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pickwire/internal/adapters/repository"
	"pickwire/internal/config"
	"pickwire/internal/domain/grading"
	"pickwire/internal/domain/model"
	"pickwire/internal/domain/reconcile"
	"pickwire/internal/ingest"
	"pickwire/internal/manifest"
	"pickwire/pkg/logger"
)

var (
	dataDir    string
	contentDir string
	feedFile   string
	legacy     bool
)

var rootCmd = &cobra.Command{
	Use:   "pickwirectl",
	Short: "Offline pipelines for the pickwire data directory",
	Long: `pickwirectl runs the score reconcile, manifest build, and pick
grading pipelines against a data directory, without starting the service.

Configuration matches the service: PICKWIRE_* environment variables (and a
local .env file) supply defaults, flags override.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Init(); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		cfg, err := config.Load(cmd.Context())
		if err != nil {
			return err
		}
		if dataDir == "" {
			dataDir = cfg.DataDir
		}
		if contentDir == "" {
			contentDir = cfg.ContentDir
		}
		if feedFile == "" {
			feedFile = cfg.FeedFile
		}
		if cfg.GradeLegacyPrecedence {
			legacy = true
		}
		return nil
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge [feed-file]",
	Short: "Merge a score feed into the canonical store and rebuild the manifest",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			feedFile = args[0]
		}
		ctx := cmd.Context()

		store, err := repository.NewFileStore(dataDir)
		if err != nil {
			return err
		}
		baseline, err := store.Scores(ctx)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(feedFile)
		if err != nil {
			return fmt.Errorf("read feed file: %w", err)
		}
		incoming, skipped := ingest.DecodeBatch(data)

		merged := reconcile.Merge(baseline, incoming)
		if err := store.ReplaceScores(ctx, merged); err != nil {
			return err
		}
		if err := rebuildManifest(ctx, store); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "merged %d incoming into %d records (%d skipped)\n",
			len(incoming), len(merged), skipped)
		return nil
	},
}

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Rebuild the manifest from the stored scores and content files",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := repository.NewFileStore(dataDir)
		if err != nil {
			return err
		}
		if err := rebuildManifest(ctx, store); err != nil {
			return err
		}
		entries, err := store.Manifest(ctx)
		if err != nil {
			return err
		}
		detailed := 0
		for _, e := range entries {
			if e.HasDetailedData {
				detailed++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "manifest rebuilt: %d games, %d with detailed data\n",
			len(entries), detailed)
		return nil
	},
}

var gradeCmd = &cobra.Command{
	Use:   "grade [game-id]",
	Short: "Grade authored picks for final games and persist the results",
	Long: `Grades the picks of every final game with authored content, or of one
game when an id is given. Results are written to the grades document and
printed per pick.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := repository.NewFileStore(dataDir)
		if err != nil {
			return err
		}
		records, err := store.Scores(ctx)
		if err != nil {
			return err
		}
		content, err := manifest.ScanContent(contentDir)
		if err != nil {
			return err
		}
		grades, err := store.Grades(ctx)
		if err != nil {
			return err
		}
		if grades == nil {
			grades = make(map[string][]model.GradedPick)
		}

		var graderOpts []grading.Option
		if legacy {
			graderOpts = append(graderOpts, grading.WithLegacyPrecedence())
		}
		grader := grading.NewTextGrader(graderOpts...)

		graded := 0
		for _, rec := range records {
			if len(args) == 1 && rec.ID != args[0] {
				continue
			}
			if !rec.Final() {
				continue
			}
			ref, ok := content[rec.ID]
			if !ok || len(ref.Content.Picks) == 0 {
				continue
			}

			results := make([]model.GradedPick, 0, len(ref.Content.Picks))
			for _, pick := range ref.Content.Picks {
				result := grader.Grade(ctx, pick.Text, rec)
				results = append(results, model.GradedPick{Pick: pick, Result: result})
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", rec.ID, result, pick.Text)
			}
			grades[rec.ID] = results
			graded++
		}

		if len(args) == 1 && graded == 0 {
			return fmt.Errorf("game %s not found, not final, or has no picks", args[0])
		}
		if err := store.ReplaceGrades(ctx, grades); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "graded %d games\n", graded)
		return nil
	},
}

func rebuildManifest(ctx context.Context, store *repository.FileStore) error {
	records, err := store.Scores(ctx)
	if err != nil {
		return err
	}
	content, err := manifest.ScanContent(contentDir)
	if err != nil {
		return err
	}
	return store.ReplaceManifest(ctx, manifest.Build(records, content))
}

func main() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&contentDir, "content-dir", "", "content directory (default from config)")
	mergeCmd.Flags().StringVar(&feedFile, "feed", "", "feed file to merge (default from config)")
	gradeCmd.Flags().BoolVar(&legacy, "legacy-precedence", false, "resolve ambiguous team references to the away side")

	rootCmd.AddCommand(mergeCmd, manifestCmd, gradeCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
