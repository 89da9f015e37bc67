package main

import (
	"fmt"
	"time"

	"github.com/myrjola/interrogation/internal/errors"
	"github.com/myrjola/interrogation/internal/repositories"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (app *application) logsCmd() *cobra.Command {
	var (
		personID int64
		limit    int
		asYAML   bool
	)
	cmd := &cobra.Command{
		Use:     "logs",
		GroupID: "data",
		Short:   "Print the persisted game log",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := app.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer app.closeDatabase(ctx, db)

			entries, err := repositories.NewGameLogRepository(db, app.logger).List(ctx, personID, limit)
			if err != nil {
				return errors.Wrap(err, "list game logs")
			}
			if asYAML {
				out, err := yaml.Marshal(entries)
				if err != nil {
					return errors.Wrap(err, "marshal game logs")
				}
				_, err = cmd.OutOrStdout().Write(out)
				return errors.Wrap(err, "write game logs")
			}
			for _, e := range entries {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  #%-3d %-13s %s\n",
					e.Timestamp.UTC().Format(time.RFC3339), e.PersonID, e.Action, e.Details)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&personID, "person", 0, "only show entries of this person id")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many entries")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print YAML instead of text")
	return cmd
}
