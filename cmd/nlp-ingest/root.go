package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nlp-ingest",
		Short:         "Extract entities and part-of-speech tags from documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newKindsCmd(), newConvertModelCmd())
	return root
}
