package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Januuus/chatbot/internal/adapters/driving/watcher"
	"github.com/Januuus/chatbot/internal/config"
	"github.com/Januuus/chatbot/internal/core/ports/driving"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Ingest training documents",
	Long: `Ingests every supported file under the training directory as reference
material. Re-ingesting a file replaces its previous version.

With --watch the command keeps running and re-ingests files as they are
created or modified.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the directory for changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	rt, err := openRuntime(ctx, config.IngestRequirements)
	if err != nil {
		return err
	}
	defer rt.Close()

	dir := rt.cfg.Documents.TrainingDir
	if len(args) == 1 {
		dir = args[0]
	}

	results, err := rt.training.ProcessDirectory(ctx, dir)
	if err != nil {
		return err
	}
	failed := printIngestSummary(cmd.OutOrStdout(), dir, results)

	if ingestWatch {
		styles := newOutputStyles(cmd.OutOrStdout())
		w := watcher.New(dir, rt.training, watcher.WithResultHandler(func(r driving.TrainingResult) {
			printIngestResult(cmd.OutOrStdout(), styles, r)
		}))
		return w.Run(ctx)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to ingest", failed, len(results))
	}
	return nil
}

// printIngestSummary writes one line per file and a total. It returns the
// number of failures.
func printIngestSummary(w io.Writer, dir string, results []driving.TrainingResult) int {
	styles := newOutputStyles(w)

	fmt.Fprintln(w, styles.Title.Render("Training documents in "+dir))
	if len(results) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("No supported files found."))
		return 0
	}

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
		printIngestResult(w, styles, r)
	}

	fmt.Fprintf(w, "\nProcessed %d files: %d succeeded, %d failed\n", len(results), len(results)-failed, failed)
	return failed
}

func printIngestResult(w io.Writer, styles outputStyles, r driving.TrainingResult) {
	if r.OK() {
		fmt.Fprintf(w, "%s %s %s\n",
			styles.Success.Render("✅"), r.Filename, styles.Muted.Render(fmt.Sprintf("(%d chunks)", r.Chunks)))
		return
	}
	fmt.Fprintf(w, "%s %s: %s\n", styles.Error.Render("❌"), r.Filename, styles.Error.Render(r.Err.Error()))
}
