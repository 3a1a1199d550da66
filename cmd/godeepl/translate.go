package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ZaguanLabs/godeepl"
	"github.com/spf13/cobra"
)

func newTranslateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate text (reads stdin when no text is given)",
		Example: `  godeepl translate --to de "Hello world"
  echo "Bonjour" | godeepl translate --to en-gb --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("no text to translate")
			}

			tr, release, err := a.translator(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			res, err := tr.TranslateRequest(cmd.Context(), godeepl.Request{
				Text:        text,
				SourceLang:  a.v.GetString(keyFrom),
				TargetLang:  a.v.GetString(keyTo),
				TagHandling: godeepl.TagHandling(a.v.GetString(keyTagHandling)),
			})
			if err != nil {
				return err
			}

			if a.v.GetBool(keyJSON) {
				return writeJSON(a.stdout, res)
			}
			fmt.Fprintln(a.stdout, res.Data)
			return nil
		},
	}

	addLangFlags(cmd)
	cmd.Flags().Bool(keyJSON, false, "print the full result as JSON")
	return cmd
}

func addLangFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(keyFrom, "f", godeepl.AutoLang, "source language, or auto")
	cmd.Flags().StringP(keyTo, "t", "", "target language (e.g. DE, EN-GB, ZH-HANT); required")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
