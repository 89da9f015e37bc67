package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/myrjola/interrogation/internal/errors"
	"github.com/myrjola/interrogation/internal/models"
	"github.com/myrjola/interrogation/internal/repositories"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var ErrInvalidRoster = errors.NewSentinel("invalid roster file")

// rosterFile is the YAML document read by the seed command.
//
//	suspects:
//	  - name: Charlie Wilson
//	    rank: senior_commander
//	    exposed: false
type rosterFile struct {
	Suspects []models.Person `yaml:"suspects"`
}

func (app *application) seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:     "seed --file roster.yaml",
		GroupID: "data",
		Short:   "Add suspects from a YAML file",
		Long: `Adds the suspects listed in a YAML file to the People table.
A missing rank is drawn when the game starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			suspects, err := readRoster(file)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := app.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer app.closeDatabase(ctx, db)

			inserted, err := repositories.NewPeopleRepository(db, app.logger).Insert(ctx, suspects)
			if err != nil {
				return errors.Wrap(err, "insert suspects")
			}
			for _, p := range inserted {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s.\n", p.ID, p.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML roster file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readRoster(path string) ([]models.Person, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read roster file")
	}
	var doc rosterFile
	if err = yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrInvalidRoster, errors.Wrap(err, "parse roster file"))
	}
	if len(doc.Suspects) == 0 {
		return nil, errors.Wrap(ErrInvalidRoster, "no suspects")
	}
	for i := range doc.Suspects {
		p := &doc.Suspects[i]
		p.ID = 0
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, errors.Wrap(ErrInvalidRoster, "suspect without name")
		}
		if p.Rank != "" {
			if p.Rank, err = models.ParseRank(string(p.Rank)); err != nil {
				return nil, errors.Join(ErrInvalidRoster, err)
			}
		}
	}
	return doc.Suspects, nil
}
