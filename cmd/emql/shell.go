package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koba/emql/internal/executor"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive session",
	Long:  `Read statements interactively. A statement runs once a line ends with ';'. Type \q or sair to leave.`,
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func init() {
	shellCmd.Flags().StringVarP(&database, "database", "d", "", "Database to select on start")
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	e := executor.New(sess.store, executor.WithLogger(sess.logger), executor.WithDatabase(database))
	out := cmd.OutOrStdout()

	return readLoop(cmd.InOrStdin(), out, e.Database, func(text string) {
		// Failures are already rendered; the session goes on
		_ = runScript(ctx, e, text, out)
	})
}

// readLoop collects lines into statements and hands each complete one to run
func readLoop(in io.Reader, out io.Writer, database func() string, run func(string)) error {
	scanner := bufio.NewScanner(in)
	var pending strings.Builder

	prompt := func() {
		if pending.Len() > 0 {
			fmt.Fprint(out, "   ...> ")
			return
		}
		fmt.Fprintf(out, "emql[%s]> ", database())
	}

	prompt()
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if pending.Len() == 0 {
			switch strings.ToLower(trimmed) {
			case `\q`, "sair", "exit", "quit":
				return nil
			case "":
				prompt()
				continue
			}
		}

		pending.WriteString(line)
		pending.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			run(pending.String())
			pending.Reset()
		}
		prompt()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	// Run what is left without a closing ';'
	if strings.TrimSpace(pending.String()) != "" {
		run(pending.String())
	}
	fmt.Fprintln(out)
	return nil
}
