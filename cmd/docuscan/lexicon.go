package main

import (
	"github.com/spf13/cobra"

	"github.com/kirillkom/docuscan/internal/core/classification"
)

func lexiconCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Print the effective keyword lexicon as YAML",
		Long:  "Prints the built-in lexicon, or the result of applying --file overrides to it.\nThe output is a valid override file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lexicon, err := classification.LoadLexiconFile(path)
			if err != nil {
				return err
			}
			out, err := classification.MarshalLexiconYAML(lexicon)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "lexicon override YAML file")
	return cmd
}
