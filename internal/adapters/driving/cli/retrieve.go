package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

var (
	retrieveAgent string
	retrieveLimit int
	retrieveJSON  bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Search indexed chunks under an agent's policies",
	Long: `Searches indexed chunks for the query. With --agent, the agent's
active policies decide which chunks are visible and in what view; without
it, raw text is served unfiltered.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().StringVar(&retrieveAgent, "agent", "", "agent identity to evaluate policies for")
	retrieveCmd.Flags().IntVarP(&retrieveLimit, "limit", "n", 10, "maximum number of chunks")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output the interaction record as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if services == nil {
		return errors.New("services not configured")
	}

	interaction, err := services.Retrieval.Retrieve(context.Background(), retrieveAgent, args[0], retrieveLimit)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		data, err := json.MarshalIndent(interaction, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling interaction: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	return outputRetrieveTable(cmd, interaction)
}

func outputRetrieveTable(cmd *cobra.Command, interaction *domain.Interaction) error {
	if len(interaction.Chunks) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	served, filtered := 0, 0
	for _, entry := range interaction.Chunks {
		if entry.Filtered {
			filtered++
			continue
		}
		served++
		cmd.Printf("  [%d] chunk %s (view: %s)\n", served, entry.ChunkID, entry.View)
	}

	cmd.Println()
	cmd.Printf("%d chunk(s) served, %d filtered by policy (%dms)\n", served, filtered, interaction.LatencyMS)
	return nil
}
