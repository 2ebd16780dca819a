package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var enqueueShare string

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [path]",
	Short: "Queue one file for extraction",
	Long: `Registers the file at the given share-relative path and queues an
EXTRACT_CONTENT job for it.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnqueue,
}

func init() {
	enqueueCmd.Flags().StringVar(&enqueueShare, "share", "", "share name the path is relative to")
	_ = enqueueCmd.MarkFlagRequired("share")
	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	if services == nil {
		return errors.New("services not configured")
	}
	ctx := context.Background()

	share, err := services.Store.Files().ShareByName(ctx, services.TenantID, enqueueShare)
	if err != nil {
		return fmt.Errorf("loading share %q: %w", enqueueShare, err)
	}

	file, err := services.Ingestion.IngestFile(ctx, share, args[0])
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", args[0], err)
	}

	cmd.Printf("Queued %s (%s, %d bytes)\n", file.RelativePath, file.MIMEType, file.SizeBytes)
	return nil
}
