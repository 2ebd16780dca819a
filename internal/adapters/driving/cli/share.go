package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Manage content shares",
}

var shareAddCmd = &cobra.Command{
	Use:   "add [name] [path]",
	Short: "Register a directory as a share",
	Args:  cobra.ExactArgs(2),
	RunE:  runShareAdd,
}

var shareScanCmd = &cobra.Command{
	Use:   "scan [name]",
	Short: "Ingest every file under a share's root",
	Long: `Walks the share's root directory and queues an extraction job for
each regular file. Files whose content has not changed are detected during
extraction and cost no new document version.`,
	Args: cobra.ExactArgs(1),
	RunE: runShareScan,
}

func init() {
	shareCmd.AddCommand(shareAddCmd)
	shareCmd.AddCommand(shareScanCmd)
	rootCmd.AddCommand(shareCmd)
}

func runShareAdd(cmd *cobra.Command, args []string) error {
	if services == nil {
		return errors.New("services not configured")
	}

	share, err := services.Ingestion.RegisterShare(context.Background(), services.TenantID, args[0], args[1])
	if err != nil {
		return fmt.Errorf("registering share: %w", err)
	}

	cmd.Printf("Registered share %q at %s\n", share.Name, share.RootPath)
	return nil
}

func runShareScan(cmd *cobra.Command, args []string) error {
	if services == nil {
		return errors.New("services not configured")
	}
	ctx := context.Background()

	share, err := services.Store.Files().ShareByName(ctx, services.TenantID, args[0])
	if err != nil {
		return fmt.Errorf("loading share %q: %w", args[0], err)
	}

	count := 0
	err = filepath.WalkDir(share.RootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != share.RootPath && d.Name()[0] == '.' {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name()[0] == '.' {
			return nil
		}
		rel, err := filepath.Rel(share.RootPath, path)
		if err != nil {
			return err
		}
		if _, err := services.Ingestion.IngestFile(ctx, share, filepath.ToSlash(rel)); err != nil {
			return fmt.Errorf("ingesting %s: %w", rel, err)
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning share %q: %w", share.Name, err)
	}

	cmd.Printf("Queued %d file(s) from share %q\n", count, share.Name)
	return nil
}
