package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/oxidoc/oxidoc/internal/config"
	"github.com/oxidoc/oxidoc/internal/daemon"
	"github.com/spf13/cobra"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Drop the daemon's in-memory caches",
	Long: `Drops the daemon's version-resolution and rebuilt-page caches. With
--snapshots the on-disk compiler snapshot cache is deleted too, forcing the
next add to refetch from docs.rs.`,
	Run: runClearCache,
}

var clearSnapshots bool

func init() {
	clearCacheCmd.Flags().BoolVar(&clearSnapshots, "snapshots", false, "also delete the on-disk snapshot cache")
}

func runClearCache(cmd *cobra.Command, args []string) {
	client := daemon.NewClient(config.SocketPath())
	if client.IsAvailable() {
		if err := client.ClearCache(context.Background()); err != nil {
			log.Fatalf("clearing daemon caches: %v", err)
		}
		fmt.Println("daemon caches cleared")
	} else {
		fmt.Println("daemon is not running; nothing cached in memory")
	}

	if clearSnapshots {
		dir := config.SnapshotCacheDir()
		if err := os.RemoveAll(dir); err != nil {
			log.Fatalf("deleting snapshot cache: %v", err)
		}
		fmt.Printf("deleted %s\n", dir)
	}
}
