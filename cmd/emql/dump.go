package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koba/emql/internal/generator"
)

var dumpAs string

var dumpCmd = &cobra.Command{
	Use:   "dump <database>",
	Short: "Print a database as emql statements",
	Long:  `Print CREATE and INSERT statements that rebuild the database. The output can be replayed with 'emql exec -f'.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpAs, "as", "", "Database name used in the output (default: the dumped database)")
}

func runDump(cmd *cobra.Command, args []string) error {
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

	name := dumpAs
	if name == "" {
		name = snap.Database
	}

	fmt.Fprint(cmd.OutOrStdout(), generator.Dump(snap, name))
	return nil
}
