package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Januuus/chatbot/internal/config"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversations",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of conversations to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	rt, err := openRuntime(ctx, config.StorageRequirements)
	if err != nil {
		return err
	}
	defer rt.Close()

	convs, err := rt.chat.History(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(convs) == 0 {
		cmd.Println("No conversations yet.")
		return nil
	}

	styles := newOutputStyles(cmd.OutOrStdout())
	for _, c := range convs {
		meta := fmt.Sprintf("%s  %d context chunks, %d/%d tokens",
			c.CreatedAt.Format("2006-01-02 15:04:05"), c.Metadata.ContextChunks, c.Metadata.InputTokens, c.Metadata.OutputTokens)
		if c.Metadata.HasImage {
			meta += ", image"
		}
		cmd.Println(styles.Muted.Render(meta))
		cmd.Printf("Q: %s\n", oneLine(c.UserMessage))
		cmd.Printf("A: %s\n\n", oneLine(c.BotResponse))
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
