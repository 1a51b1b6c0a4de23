package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Januuus/chatbot/internal/config"
	"github.com/Januuus/chatbot/internal/core/domain"
)

var (
	documentSearchLimit int
	documentSearchJSON  bool
	documentGetChunks   bool
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage stored documents",
	Long:  `Search, view or delete stored documents.`,
}

var documentSearchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search documents by filename or content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentSearch,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentSearchCmd.Flags().IntVarP(&documentSearchLimit, "limit", "n", 10, "maximum number of results")
	documentSearchCmd.Flags().BoolVar(&documentSearchJSON, "json", false, "output results as JSON")
	documentGetCmd.Flags().BoolVar(&documentGetChunks, "chunks", false, "print chunk contents")

	documentCmd.AddCommand(documentSearchCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentSearch(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	rt, err := openRuntime(ctx, config.StorageRequirements)
	if err != nil {
		return err
	}
	defer rt.Close()

	docs, err := rt.documents.Search(ctx, args[0], documentSearchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if documentSearchJSON {
		if docs == nil {
			docs = []domain.DocumentSummary{}
		}
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		kind := "upload"
		if docs[i].IsReference {
			kind = "reference"
		}
		cmd.Printf("  [%d] %s\n", i+1, docs[i].Filename)
		cmd.Printf("      ID: %s\n", docs[i].ID)
		cmd.Printf("      %s, %s, %d bytes\n", kind, docs[i].MimeType, docs[i].FileSize)
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	rt, err := openRuntime(ctx, config.StorageRequirements)
	if err != nil {
		return err
	}
	defer rt.Close()

	doc, err := rt.documents.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	chunks, err := rt.documents.Chunks(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	cmd.Printf("Document: %s\n", doc.ID)
	cmd.Printf("  Filename:  %s\n", doc.Filename)
	cmd.Printf("  Type:      %s\n", doc.MimeType)
	cmd.Printf("  Size:      %d bytes\n", doc.FileSize)
	cmd.Printf("  Reference: %t\n", doc.IsReference)
	cmd.Printf("  Created:   %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:   %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Chunks:    %d\n", len(chunks))

	if documentGetChunks {
		for _, c := range chunks {
			cmd.Printf("\n--- Part %d of %d (%s) ---\n", c.Metadata.ChunkNumber, c.Metadata.TotalChunks, c.ID)
			cmd.Println(c.Content)
		}
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	rt, err := openRuntime(ctx, config.StorageRequirements)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.documents.Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}
