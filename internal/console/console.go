// Package console runs the line-oriented command loop that drives a game.Controller.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/myrjola/interrogation/internal/ai"
	"github.com/myrjola/interrogation/internal/errors"
	"github.com/myrjola/interrogation/internal/game"
	"github.com/myrjola/interrogation/internal/sensors"
	"golang.org/x/term"
)

const prompt = "> "

type Console struct {
	controller *game.Controller
	responder  ai.Responder
	in         io.Reader
	out        io.Writer
	logger     *slog.Logger
	commands   map[string]command
	order      []string
}

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

// errExit ends the loop without an error.
var errExit = errors.NewSentinel("exit")

// New creates a console reading commands from in and writing game output to out.
func New(
	controller *game.Controller,
	responder ai.Responder,
	in io.Reader,
	out io.Writer,
	logger *slog.Logger,
) *Console {
	if responder == nil {
		responder = ai.ScriptedResponder{}
	}
	c := &Console{
		controller: controller,
		responder:  responder,
		in:         in,
		out:        out,
		logger:     logger.With(slog.String("source", "Console")),
		commands:   nil,
		order:      nil,
	}
	c.register()
	return c
}

// Run reads commands until exit or end of input.
func (c *Console) Run(ctx context.Context) error {
	interactive := isTerminal(c.in)
	scanner := bufio.NewScanner(c.in)

	c.println("Welcome to the Interrogation Game!")
	v := c.controller.CheckVictory()
	c.printf("%d suspects in custody, %d exposed. Type help for a list of commands.\n", v.Total, v.Exposed)

	for {
		if interactive {
			c.printf("%s", prompt)
		}
		if !scanner.Scan() {
			break
		}
		if err := c.Execute(ctx, scanner.Text()); err != nil {
			if errors.Is(err, errExit) {
				c.println("Thanks for playing!")
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "run console")
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read input")
	}
	return nil
}

// Execute runs a single input line. Game errors are reported to the player and do not end the loop.
func (c *Console) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	cmd, ok := c.commands[name]
	if !ok {
		if sensor, err := sensors.Parse(name); err == nil && len(fields) == 1 {
			cmd = command{usage: "", help: "", run: func(ctx context.Context, _ []string) error {
				return c.attachNext(ctx, sensor)
			}}
		} else {
			c.printf("Unknown command %q. Type help for a list of commands.\n", fields[0])
			return nil
		}
	}

	err := cmd.run(ctx, fields[1:])
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errExit):
		return err
	case errors.Is(err, game.ErrPersistence):
		c.println("Warning: the action was applied but could not be saved.")
		return nil
	default:
		c.logger.LogAttrs(ctx, slog.LevelDebug, "command rejected",
			slog.String("command", name), errors.SlogError(err))
		c.println(describe(err))
		return nil
	}
}

func (c *Console) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(c.out, format, args...); err != nil {
		c.logger.LogAttrs(context.Background(), slog.LevelError, "could not write output", errors.SlogError(err))
	}
}

func (c *Console) println(s string) {
	c.printf("%s\n", s)
}

// describe turns a rejected operation into feedback for the player.
func describe(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidSensor):
		return "Unknown sensor type. Use list_sensors to see the catalog."
	case errors.Is(err, game.ErrInvalidSlot):
		return fmt.Sprintf("Slots are numbered 0 to %d.", sensors.Capacity-1)
	case errors.Is(err, game.ErrSlotExhausted):
		return "Every slot is in use. Remove a sensor first."
	case errors.Is(err, game.ErrSlotOccupied):
		return "That slot already holds a sensor."
	case errors.Is(err, game.ErrDuplicateSensor):
		return "That sensor type is already attached."
	case errors.Is(err, game.ErrEmptySlot):
		return "That slot is empty."
	case errors.Is(err, game.ErrUnknownSuspect):
		return "No suspect with that id. Use roster to list suspects."
	case errors.Is(err, game.ErrSuspectExposed):
		return "That suspect has already been exposed."
	case errors.Is(err, game.ErrNoEligibleTargets):
		return "Every suspect has been exposed. Mission complete!"
	case errors.Is(err, game.ErrNoTarget):
		return "No target selected. Use start to pick one."
	case errors.Is(err, game.ErrTargetResolved):
		return "The target has been exposed. Use start to interrogate the next suspect."
	case errors.Is(err, game.ErrNoSensorsAttached):
		return "Attach at least one sensor before activating."
	case errors.Is(err, game.ErrSensorRecharging):
		return "A sensor is still recharging. Use status to see when it is ready, or end_turn to wait."
	case errors.Is(err, game.ErrSensorBroken):
		return "A sensor is broken. Remove it and attach a new one."
	default:
		var usage usageError
		if errors.As(err, &usage) {
			return usage.Error()
		}
		return "Something went wrong: " + err.Error()
	}
}

type usageError struct {
	usage string
}

func (e usageError) Error() string {
	return "Usage: " + e.usage
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
