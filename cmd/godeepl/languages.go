package main

import (
	"github.com/ZaguanLabs/godeepl"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type languageInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func newLanguagesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List supported language codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			codes := godeepl.SupportedLanguages()
			langs := make([]languageInfo, len(codes))
			for i, code := range codes {
				langs[i] = languageInfo{Code: code, Name: godeepl.LanguageName(code)}
			}

			if a.v.GetBool(keyJSON) {
				return writeJSON(a.stdout, langs)
			}

			t := table.NewWriter()
			t.SetOutputMirror(a.stdout)
			t.AppendHeader(table.Row{"Code", "Language"})
			for _, l := range langs {
				t.AppendRow(table.Row{l.Code, l.Name})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}
	cmd.Flags().Bool(keyJSON, false, "print the list as JSON")
	return cmd
}
