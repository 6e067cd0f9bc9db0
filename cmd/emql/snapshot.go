package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/koba/emql/internal/logging"
	"github.com/koba/emql/internal/storage"
)

var outputDir string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <database> [file]",
	Short: "Copy a database into a sqlite snapshot file",
	Long: `Copy every table of a database into a standalone sqlite file. The copy can be
compared later with 'emql diff <file>:<database> <database>'.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&outputDir, "output-dir", "./snapshots", "Output directory for snapshots")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	snap, err := loadSnapshot(ctx, sess.store, args[0])
	if err != nil {
		return err
	}

	// Generate snapshot filename
	var filename string
	if len(args) > 1 {
		filename = args[1]
		if !strings.HasSuffix(filename, ".db") {
			filename += ".db"
		}
	} else {
		timestamp := time.Now().Format("2006-01-02-15-04-05")
		filename = fmt.Sprintf("%s-%s.db", snap.Database, timestamp)
	}
	outputPath := filepath.Join(outputDir, filename)

	// Write the copy
	fmt.Fprintf(cmd.OutOrStdout(), "Creating snapshot: %s\n", outputPath)
	dst, err := storage.Open(ctx, storage.Config{Backend: storage.BackendSQLite, Path: outputPath},
		storage.WithLogger(logging.WithDatabase(sess.logger, snap.Database)))
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer dst.Close()

	if err := storage.Restore(ctx, dst, snap.Database, snap); err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	rows := 0
	for _, table := range snap.Tables {
		rows += len(table.Records)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot created successfully: %s (%s tables, %s rows)\n",
		outputPath, humanize.Comma(int64(len(snap.Tables))), humanize.Comma(int64(rows)))
	return nil
}

// loadSnapshot reads a database from the session store, or from a snapshot
// file when ref has the form <file.db>:<database>
func loadSnapshot(ctx context.Context, store *storage.SQLStore, ref string) (*storage.Snapshot, error) {
	path, name, ok := strings.Cut(ref, ":")
	if !ok || !strings.HasSuffix(path, ".db") {
		snap, err := store.Snapshot(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to load database %s: %w", ref, err)
		}
		return snap, nil
	}

	file, err := storage.Open(ctx, storage.Config{Backend: storage.BackendSQLite, Path: path})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer file.Close()

	snap, err := file.Snapshot(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load database %s from %s: %w", name, path, err)
	}
	return snap, nil
}
