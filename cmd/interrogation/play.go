package main

import (
	"log/slog"
	"math/rand/v2"

	"github.com/myrjola/interrogation/internal/ai"
	"github.com/myrjola/interrogation/internal/console"
	"github.com/myrjola/interrogation/internal/errors"
	"github.com/myrjola/interrogation/internal/game"
	"github.com/myrjola/interrogation/internal/random"
	"github.com/myrjola/interrogation/internal/repositories"
	"github.com/myrjola/interrogation/internal/roster"
	"github.com/spf13/cobra"
)

// play loads the roster and runs the console until the player exits.
func (app *application) play(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, err := app.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer app.closeDatabase(ctx, db)

	people := repositories.NewPeopleRepository(db, app.logger)
	logs := repositories.NewGameLogRepository(db, app.logger)

	seed := app.cfg.Seed
	if seed == 0 {
		if seed, err = random.Seed(); err != nil {
			return errors.Wrap(err, "draw seed")
		}
	}
	app.logger.LogAttrs(ctx, slog.LevelInfo, "starting game", slog.Int64("seed", seed))
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1)) //nolint:gosec // game randomness

	persons, err := people.List(ctx)
	if err != nil {
		return errors.Wrap(err, "load roster")
	}
	if err = people.SaveRanks(ctx, roster.AssignRanks(persons, app.cfg.ForcedRank(), rng)); err != nil {
		return errors.Wrap(err, "save ranks")
	}

	controller := game.NewController(
		roster.New(persons, rng.Int64),
		repositories.NewActionLogSink(logs, people),
		app.logger,
		game.Config{Rand: rng, Now: nil},
	)

	var responder ai.Responder = ai.ScriptedResponder{}
	if app.cfg.OpenAIAPIKey != "" {
		responder = ai.NewClient(app.cfg.OpenAIAPIKey, app.cfg.OpenAIModel, app.cfg.OpenAITimeout(), responder,
			app.logger)
	}

	return console.New(controller, responder, cmd.InOrStdin(), cmd.OutOrStdout(), app.logger).Run(ctx)
}
