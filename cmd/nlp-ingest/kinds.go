package main

import (
	"github.com/spf13/cobra"

	"github.com/cognicore/nlpingest/pkg/nlpingest"
	"github.com/cognicore/nlpingest/pkg/nlpingest/config"
)

func newKindsCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List the entity kinds the configured models provide",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg.Pipeline = nil
			cfg.Sink.SQLite = ""

			svc, err := nlpingest.Open(cmd.Context(), nlpingest.Options{Config: cfg})
			if err != nil {
				return err
			}
			defer svc.Close()

			d := svc.Describe()
			for _, kind := range d.EntityKinds {
				cmd.Println(kind)
			}
			if d.POS {
				cmd.Println("pos: available")
			} else {
				cmd.Println("pos: not loaded")
			}
			for _, f := range d.Failures {
				cmd.PrintErrln("failed:", f)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "nlp.yaml", "configuration file")
	return cmd
}
