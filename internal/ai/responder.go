// Package ai answers questions put to a suspect during interrogation.
package ai

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/myrjola/interrogation/internal/models"
)

// Responder produces what the suspect says when questioned.
type Responder interface {
	Respond(ctx context.Context, suspect models.Suspect, question string) (string, error)
}

var temperaments = map[models.Rank]string{
	models.RankFootSoldier:        "a nervous foot soldier who knows little and fears a lot",
	models.RankSquadLeader:        "a defiant squad leader who protects the squad with short hostile remarks",
	models.RankSeniorCommander:    "a calculating senior commander who deflects with veiled threats and half-truths",
	models.RankOrganizationLeader: "the patient leader of the organization, amused by the questioning and admitting nothing",
}

var scripted = map[models.Rank][]string{
	models.RankFootSoldier: {
		"I-I don't know anything, I swear! I just do what they tell me.",
		"Please, I only carried the packages. Nobody tells me anything.",
		"You've got the wrong guy. Ask someone higher up!",
	},
	models.RankSquadLeader: {
		"You'll get nothing from me.",
		"My people are loyal. Are yours?",
		"Ask all you want. The answer is still no.",
	},
	models.RankSeniorCommander: {
		"Interesting question. Have you considered who sent you here?",
		"Some answers cost more than you can afford.",
		"I have seen better interrogators give up sooner.",
	},
	models.RankOrganizationLeader: {
		"Take your time. I have all of it.",
		"Every question you ask tells me more than my answer would tell you.",
		"You are still playing the game I designed.",
	},
}

// Temperament describes how a suspect of the rank behaves under questioning.
func Temperament(rank models.Rank) string {
	if t, ok := temperaments[rank]; ok {
		return t
	}
	return temperaments[models.RankFootSoldier]
}

// ScriptedResponder picks a canned line by rank. The same question to the same suspect gets the same answer.
type ScriptedResponder struct{}

func (ScriptedResponder) Respond(_ context.Context, suspect models.Suspect, question string) (string, error) {
	lines, ok := scripted[suspect.Rank]
	if !ok {
		lines = scripted[models.RankFootSoldier]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(suspect.Name))
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(question))))
	return lines[h.Sum32()%uint32(len(lines))], nil //nolint:gosec // len is tiny
}
