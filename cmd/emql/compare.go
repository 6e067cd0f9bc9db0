package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/koba/emql/internal/diff"
	"github.com/koba/emql/internal/generator"
	"github.com/koba/emql/internal/storage"
)

var diffCmd = &cobra.Command{
	Use:   "diff <database1> <database2>",
	Short: "Compare two databases",
	Long: `Compare the schema and data of two databases and display the differences.
Either side may be read from a snapshot file as <file.db>:<database>.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate <database1> <database2>",
	Short: "Generate migration statements",
	Long: `Generate emql statements that bring database1 to the state of database2.
Changes the dialect cannot express (dropped tables, altered columns) are reported on stderr.`,
	Args: cobra.ExactArgs(2),
	RunE: runMigrate,
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	snap1, snap2, err := loadPair(ctx, sess.store, args[0], args[1])
	if err != nil {
		return err
	}

	// Compare snapshots
	fmt.Fprintf(cmd.OutOrStdout(), "=== Comparing %s and %s ===\n\n", args[0], args[1])
	result := diff.Compare(snap1, snap2)

	// Display differences
	diff.Display(cmd.OutOrStdout(), result)
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	snap1, snap2, err := loadPair(ctx, sess.store, args[0], args[1])
	if err != nil {
		return err
	}

	// Compare snapshots
	result := diff.Compare(snap1, snap2)

	// Generate migration statements
	sql, warnings := generator.GenerateSQL(result, snap1.Database)
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	fmt.Fprint(cmd.OutOrStdout(), sql)
	return nil
}

// loadPair loads both sides of a comparison concurrently
func loadPair(ctx context.Context, store *storage.SQLStore, ref1, ref2 string) (*storage.Snapshot, *storage.Snapshot, error) {
	var snap1, snap2 *storage.Snapshot

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap1, err = loadSnapshot(ctx, store, ref1)
		return err
	})
	g.Go(func() error {
		var err error
		snap2, err = loadSnapshot(ctx, store, ref2)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return snap1, snap2, nil
}
