// Package command decodes player actions once at the adapter boundary.
package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aaronzipp/you-are-officially-mafia/internal/game"
)

// Kind identifies a player action
type Kind int

const (
	_ Kind = iota
	Vote
	Skip
	RevealMayor
	EndDay
	NightKill
	NightSkip
	EndNight
	Start
	Leave
)

var kindNames = map[Kind]string{
	Vote:        "vote",
	Skip:        "skip",
	RevealMayor: "reveal_mayor",
	EndDay:      "end_day",
	NightKill:   "night_kill",
	NightSkip:   "night_skip",
	EndNight:    "end_night",
	Start:       "start",
	Leave:       "leave",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// needsTarget lists the kinds that carry a player id
var needsTarget = map[Kind]bool{
	Vote:      true,
	NightKill: true,
}

// Command is a decoded player action
type Command struct {
	Kind   Kind
	Target string
}

// Parse decodes action identifiers such as "vote_<id>", "night_kill_<id>",
// "skip" or "end_day".
func Parse(action string) (Command, error) {
	action = strings.TrimSpace(action)
	// Longest names first so "night_kill_" is not read as a bare kind.
	for _, k := range []Kind{NightKill, NightSkip, RevealMayor, EndNight, EndDay, Vote, Skip, Start, Leave} {
		name := kindNames[k]
		if needsTarget[k] {
			if target, ok := strings.CutPrefix(action, name+"_"); ok {
				return New(k, target)
			}
			continue
		}
		if action == name {
			return Command{Kind: k}, nil
		}
	}
	return Command{}, fmt.Errorf("%w: unknown action %q", game.ErrValidation, action)
}

// New builds a command, checking that targeted kinds carry a target
func New(k Kind, target string) (Command, error) {
	target = strings.TrimSpace(target)
	if needsTarget[k] && target == "" {
		return Command{}, fmt.Errorf("%w: %s needs a target", game.ErrValidation, k)
	}
	if !needsTarget[k] {
		target = ""
	}
	return Command{Kind: k, Target: target}, nil
}

// Message is the JSON envelope websocket clients send
type Message struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
}

// Decode reads a websocket JSON message into a command
func Decode(payload []byte) (Command, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Command{}, fmt.Errorf("%w: malformed message: %v", game.ErrValidation, err)
	}
	for k, name := range kindNames {
		if name == msg.Type {
			return New(k, msg.Target)
		}
	}
	return Command{}, fmt.Errorf("%w: unknown message type %q", game.ErrValidation, msg.Type)
}
