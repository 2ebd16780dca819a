package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

var diffCmd = &cobra.Command{
	Use:   "diff [from-version-id] [to-version-id]",
	Short: "Show the semantic diff between two document versions",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	if services == nil {
		return errors.New("services not configured")
	}

	diff, err := services.Diff.Diff(context.Background(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("computing diff: %w", err)
	}

	cmd.Println(diff.Summary)
	if len(diff.FieldChanges) == 0 {
		return nil
	}

	cmd.Println()
	for _, change := range diff.FieldChanges {
		switch change.Change {
		case domain.ChangeAdded:
			cmd.Printf("  + %s: %v\n", change.Field, change.NewValue)
		case domain.ChangeRemoved:
			cmd.Printf("  - %s: %v\n", change.Field, change.OldValue)
		case domain.ChangeModified:
			cmd.Printf("  ~ %s: %v -> %v\n", change.Field, change.OldValue, change.NewValue)
		}
	}
	return nil
}
