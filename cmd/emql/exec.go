package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/koba/emql/internal/ast"
	"github.com/koba/emql/internal/executor"
	"github.com/koba/emql/internal/parser"
)

var (
	database  string
	inputFile string
)

var execCmd = &cobra.Command{
	Use:   "exec [statements]",
	Short: "Execute statements",
	Long:  `Execute ';'-separated statements given as an argument, read from a file with --file, or read from stdin.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExec,
}

func init() {
	execCmd.Flags().StringVarP(&database, "database", "d", "", "Database to select before running")
	execCmd.Flags().StringVarP(&inputFile, "file", "f", "", "Read statements from this file ('-' for stdin)")
}

func runExec(cmd *cobra.Command, args []string) error {
	text, err := readStatements(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	e := executor.New(sess.store, executor.WithLogger(sess.logger), executor.WithDatabase(database))
	return runScript(ctx, e, text, cmd.OutOrStdout())
}

// readStatements returns the argument, the --file contents or stdin
func readStatements(stdin io.Reader, args []string) (string, error) {
	switch {
	case len(args) > 0 && inputFile != "":
		return "", errors.New("give statements either as an argument or with --file")
	case len(args) > 0:
		return args[0], nil
	case inputFile != "" && inputFile != "-":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", inputFile, err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
}

// runScript parses text and executes its statements one by one, rendering
// each result. It stops at the first failing statement.
func runScript(ctx context.Context, e *executor.Executor, text string, w io.Writer) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	stmt, err := parser.ParseString(text)
	if err != nil {
		renderError(w, err)
		return err
	}

	stmts := []ast.Statement{stmt}
	if list, ok := stmt.(*ast.StatementList); ok {
		stmts = list.Statements
	}

	for i, s := range stmts {
		start := time.Now()
		result, err := e.Execute(ctx, s)
		if err != nil {
			renderError(w, err)
			if len(stmts) > 1 {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
			return err
		}
		renderResult(w, result, time.Since(start))
	}
	return nil
}
