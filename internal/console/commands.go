package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/myrjola/interrogation/internal/errors"
	"github.com/myrjola/interrogation/internal/game"
	"github.com/myrjola/interrogation/internal/policy"
	"github.com/myrjola/interrogation/internal/sensors"
)

func (c *Console) register() {
	c.commands = make(map[string]command)
	add := func(name, usage, help string, run func(ctx context.Context, args []string) error) {
		c.commands[name] = command{usage: usage, help: help, run: run}
		c.order = append(c.order, name)
	}
	add("start", "start [id]", "interrogate a suspect, by default the next unexposed one", c.start)
	add("attach", "attach <slot> <sensor>", "attach a sensor to a slot", c.attach)
	add("remove", "remove <slot>", "remove the sensor in a slot", c.remove)
	add("activate", "activate", "activate the attached sensors and end the turn", c.activate)
	add("end_turn", "end_turn", "end the turn without activating", c.endTurn)
	add("check_victory", "check_victory", "report whether the target and the roster are exposed", c.checkVictory)
	add("list_sensors", "list_sensors", "list the sensor catalog", c.listSensors)
	add("status", "status", "show the turn, the target and the attached sensors", c.status)
	add("roster", "roster", "list the suspects", c.roster)
	add("interrogate", "interrogate <question>", "question the target; costs no turn", c.interrogate)
	add("help", "help", "show this help", c.help)
	add("exit", "exit", "quit the game", func(context.Context, []string) error { return errExit })
	c.commands["quit"] = c.commands["exit"]
}

// applied reports whether an operation changed the game, possibly without being saved.
func applied(err error) bool {
	return err == nil || errors.Is(err, game.ErrPersistence)
}

func (c *Console) start(ctx context.Context, args []string) error {
	var id int64
	if len(args) > 1 {
		return usageError{usage: c.commands["start"].usage}
	}
	if len(args) == 1 {
		var err error
		if id, err = strconv.ParseInt(args[0], 10, 64); err != nil || id <= 0 {
			return usageError{usage: c.commands["start"].usage}
		}
	}
	res, err := c.controller.Start(ctx, id)
	if applied(err) {
		c.printf("Interrogating #%d %s (%s). Turn %d.\n",
			res.Target.ID, res.Target.Name, res.Target.Rank.Title(), res.Turn)
	}
	return err
}

func (c *Console) attach(ctx context.Context, args []string) error {
	if len(args) != 2 { //nolint:mnd // slot and sensor
		return usageError{usage: c.commands["attach"].usage}
	}
	slot, err := parseSlot(args[0])
	if err != nil {
		return err
	}
	return c.attachSlot(ctx, slot, args[1])
}

// attachNext attaches sensor to the lowest free slot.
func (c *Console) attachNext(ctx context.Context, sensor sensors.Type) error {
	slot := 0
	for i, t := range c.controller.Session().Attached {
		if !t.Valid() {
			slot = i
			break
		}
	}
	return c.attachSlot(ctx, slot, sensor.String())
}

func (c *Console) attachSlot(ctx context.Context, slot int, sensor string) error {
	_, err := c.controller.Attach(ctx, slot, sensor)
	if applied(err) {
		c.printf("Attached %s sensor to slot %d (%d/%d slots used).\n",
			c.controller.Session().Attached[slot], slot, c.controller.Session().Attached.Count(), sensors.Capacity)
	}
	return err
}

func (c *Console) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError{usage: c.commands["remove"].usage}
	}
	slot, err := parseSlot(args[0])
	if err != nil {
		return err
	}
	if _, err = c.controller.Remove(ctx, slot); applied(err) {
		c.printf("Removed the sensor from slot %d.\n", slot)
	}
	return err
}

func (c *Console) activate(ctx context.Context, _ []string) error {
	res, err := c.controller.Activate(ctx)
	if applied(err) {
		c.printf("Activation result: %s.\n", res.Match)
		c.printEffects(res)
		s := c.controller.Session()
		for slot, sensor := range s.Attached {
			if readiness, _ := s.Readiness(slot); readiness == game.Broken && res.State != game.Resolved {
				c.printf("The %s sensor in slot %d is worn out after %d activations. Replace it.\n",
					sensor, slot, sensors.MaxActivations)
			}
		}
		c.printTurn(res)
	}
	return err
}

func (c *Console) endTurn(ctx context.Context, _ []string) error {
	res, err := c.controller.EndTurn(ctx)
	if applied(err) {
		c.println("Turn ended.")
		c.printEffects(res)
		c.printTurn(res)
	}
	return err
}

func (c *Console) checkVictory(_ context.Context, _ []string) error {
	v := c.controller.CheckVictory()
	if target, ok := c.controller.Target(); ok {
		if v.TargetExposed {
			c.printf("%s has been exposed.\n", target.Name)
		} else {
			c.printf("%s has not been exposed yet.\n", target.Name)
		}
	} else {
		c.println("No target selected.")
	}
	c.printf("Exposed suspects: %d/%d.\n", v.Exposed, v.Total)
	if v.Complete() {
		c.println("All suspects have been exposed. Mission complete!")
	}
	return nil
}

func (c *Console) listSensors(_ context.Context, _ []string) error {
	for _, t := range sensors.All() {
		cooldown := "no cooldown"
		if t.Cooldown() > 0 {
			cooldown = fmt.Sprintf("cooldown %d", t.Cooldown())
		}
		c.printf("  %-9s %-12s %s\n", t, cooldown, t.Description())
	}
	c.printf("Sensors wear out after %d activations.\n", sensors.MaxActivations)
	return nil
}

func (c *Console) status(_ context.Context, _ []string) error {
	s := c.controller.Session()
	c.printf("Turn %d, %s.\n", s.Turn, s.State)
	target, ok := c.controller.Target()
	if !ok {
		c.println("No target selected.")
		return nil
	}
	c.printf("Target: #%d %s (%s).\n", target.ID, target.Name, target.Rank.Title())
	for slot, t := range s.Attached {
		switch readiness, left := s.Readiness(slot); readiness {
		case game.Recharging:
			c.printf("  slot %d: %s (recharging, %d turns left)\n", slot, t, left)
		case game.Broken:
			c.printf("  slot %d: %s (broken)\n", slot, t)
		case game.Ready:
			c.printf("  slot %d: %s\n", slot, t)
		}
	}
	return nil
}

func (c *Console) roster(_ context.Context, _ []string) error {
	for _, s := range c.controller.Suspects() {
		state := "at large"
		if s.IsExposed {
			state = "exposed"
		}
		c.printf("  #%-3d %-20s %-20s %s\n", s.ID, s.Name, s.Rank.Title(), state)
	}
	return nil
}

func (c *Console) interrogate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError{usage: c.commands["interrogate"].usage}
	}
	target, ok := c.controller.Target()
	if !ok {
		return errors.Wrap(game.ErrNoTarget, "interrogate")
	}
	answer, err := c.responder.Respond(ctx, target, strings.Join(args, " "))
	if err != nil {
		return errors.Wrap(err, "respond")
	}
	c.printf("%s: %s\n", target.Name, answer)
	return nil
}

func (c *Console) help(_ context.Context, _ []string) error {
	c.println("Commands:")
	for _, name := range c.order {
		cmd := c.commands[name]
		c.printf("  %-24s %s\n", cmd.usage, cmd.help)
	}
	c.println("A sensor name on its own attaches it to the first free slot.")
	return nil
}

func (c *Console) printEffects(res game.Result) {
	for _, effect := range res.Effects {
		switch effect {
		case policy.Counterattack:
			c.printf("%s counterattacked and destroyed one of your sensors!\n", res.Target.Name)
		case policy.Reset:
			c.printf("%s regrouped: every sensor was cleared and the weakness changed.\n", res.Target.Name)
		case policy.Exposed:
			c.printf("%s has been exposed!\n", res.Target.Name)
			if c.controller.CheckVictory().Complete() {
				c.println("All suspects have been exposed. Mission complete!")
			} else {
				c.println("Suspects remain at large. Use start to interrogate the next one.")
			}
		case policy.NoEffect:
		}
	}
}

func (c *Console) printTurn(res game.Result) {
	if res.State != game.Resolved {
		c.printf("Turn %d.\n", res.Turn)
	}
}

func parseSlot(s string) (int, error) {
	slot, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrap(game.ErrInvalidSlot, fmt.Sprintf("parse slot %q", s))
	}
	return slot, nil
}
