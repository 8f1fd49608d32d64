package main

import (
	"github.com/spf13/cobra"

	"github.com/cognicore/nlpingest/pkg/nlpingest/model"
)

func newConvertModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "convert-model <in> <out>",
		Short:   "Re-encode a model file",
		Long:    "Reads a model in YAML or binary form and writes it in the format implied by the output extension (.yaml/.yml or binary).",
		Example: "nlp-ingest convert-model en-ner-persons.yaml en-ner-persons.bin",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := model.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := model.WriteFile(args[1], m); err != nil {
				return err
			}
			cmd.Printf("wrote %s model %q (%d features) to %s\n", m.Family(), m.Name(), m.NumFeatures(), args[1])
			return nil
		},
	}
}
