package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ZaguanLabs/godeepl"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newBatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Translate a file with one text per line (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			texts, err := readLines(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if len(texts) == 0 {
				return fmt.Errorf("%s has no text to translate", args[0])
			}

			tr, release, err := a.translator(cmd.Context(),
				godeepl.WithBatchConcurrency(a.v.GetInt(keyConcurrency)),
			)
			if err != nil {
				return err
			}
			defer release()

			batch, err := tr.TranslateBatch(cmd.Context(), texts, a.v.GetString(keyFrom), a.v.GetString(keyTo))
			if err != nil {
				return err
			}

			if a.v.GetBool(keyJSON) {
				return writeJSON(a.stdout, batch)
			}
			renderBatch(a.stdout, batch)
			return nil
		},
	}

	addLangFlags(cmd)
	cmd.Flags().Bool(keyJSON, false, "print the batch result as JSON")
	cmd.Flags().Int(keyConcurrency, 1, "items translated at the same time")
	return cmd
}

// readLines returns the non-blank lines of path, or of stdin for "-".
func readLines(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path) // #nosec G304 - CLI tool reads user-specified files
		if err != nil {
			return nil, fmt.Errorf("reading file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}

func renderBatch(w io.Writer, batch *godeepl.BatchResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Original", "Translation", "Status"})

	for _, item := range batch.Results {
		status, translated := "ok", item.TranslatedText
		if !item.Success {
			status, translated = "failed", item.Error
		}
		t.AppendRow(table.Row{item.Index + 1, item.OriginalText, translated, status})
	}

	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d/%d ok", batch.SuccessCount, batch.TotalCount),
		fmt.Sprintf("%.1f%% (%d cached)", batch.SuccessRate, batch.CachedCount),
		batch.Method,
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 48},
		{Number: 3, WidthMax: 48},
		{Number: 4, Align: text.AlignCenter},
	})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
}
