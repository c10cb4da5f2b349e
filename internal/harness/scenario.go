package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted match with expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RuleSet names the game to play.
	RuleSet string `yaml:"ruleset"`

	// Seed seeds the match RNG.
	Seed string `yaml:"seed"`

	// Players are the seated players, in seat order.
	Players []string `yaml:"players"`

	// Options tune the rule-set (for skirmish: target, hand_limit).
	Options map[string]int `yaml:"options,omitempty"`

	// MatchID is the id the match is stored under. Defaults to
	// "test-match-default".
	MatchID string `yaml:"match_id,omitempty"`

	// Steps are the commands to issue.
	Steps []Step `yaml:"steps"`

	// Assertions check the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step issues one command.
type Step struct {
	// Command is the command type, e.g. "core.advance_phase".
	Command string `yaml:"command"`

	// Player issues the command.
	Player string `yaml:"player"`

	// Payload holds the command fields.
	Payload map[string]any `yaml:"payload,omitempty"`

	// Pick sets payload.option_id to the option at this index of the
	// pending interaction.
	Pick *int `yaml:"pick,omitempty"`

	// Expect is the expected outcome. Nil expects success.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step's outcome.
type Expect struct {
	// Error is the expected error code. Empty expects success.
	Error string `yaml:"error,omitempty"`

	// Reason is the expected error reason, checked when set.
	Reason string `yaml:"reason,omitempty"`

	// Events are the exact event types a successful step logs, checked
	// when set.
	Events []string `yaml:"events,omitempty"`
}

// Assertion checks the final state or the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Phase is the expected phase (phase).
	Phase string `yaml:"phase,omitempty"`

	// StateID is the expected state id (state_id).
	StateID *int64 `yaml:"state_id,omitempty"`

	// Absent expects no pending interaction or open window.
	Absent bool `yaml:"absent,omitempty"`

	// ID matches the interaction or window id.
	ID string `yaml:"id,omitempty"`

	// Kind matches the interaction kind (interaction).
	Kind string `yaml:"kind,omitempty"`

	// Player is the interaction's player (interaction) or the scored
	// player (score).
	Player string `yaml:"player,omitempty"`

	// WindowType matches the window type (window).
	WindowType string `yaml:"window_type,omitempty"`

	// Holder is the responder holding priority (window).
	Holder string `yaml:"holder,omitempty"`

	// Event is the counted event type (event_count).
	Event string `yaml:"event,omitempty"`

	// Count is the expected count (event_count).
	Count *int `yaml:"count,omitempty"`

	// Score is the expected score (score).
	Score *int `yaml:"score,omitempty"`
}

// Assertion type constants.
const (
	AssertPhase       = "phase"
	AssertStateID     = "state_id"
	AssertInteraction = "interaction"
	AssertWindow      = "window"
	AssertEventCount  = "event_count"
	AssertScore       = "score"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and assertion shapes.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RuleSet == "" {
		return fmt.Errorf("ruleset is required")
	}
	if s.Seed == "" {
		return fmt.Errorf("seed is required")
	}
	if len(s.Players) == 0 {
		return fmt.Errorf("players is required")
	}
	for i, step := range s.Steps {
		if step.Command == "" {
			return fmt.Errorf("steps[%d]: command is required", i)
		}
		if step.Player == "" {
			return fmt.Errorf("steps[%d]: player is required", i)
		}
		if step.Pick != nil && *step.Pick < 0 {
			return fmt.Errorf("steps[%d]: pick must be non-negative", i)
		}
		if e := step.Expect; e != nil && e.Error != "" && len(e.Events) > 0 {
			return fmt.Errorf("steps[%d]: expect cannot list events for a failing step", i)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertPhase:
		if a.Phase == "" {
			return fmt.Errorf("assertions[%d]: phase is required for phase", index)
		}
	case AssertStateID:
		if a.StateID == nil {
			return fmt.Errorf("assertions[%d]: state_id is required for state_id", index)
		}
	case AssertInteraction, AssertWindow:
		// Every field is optional; an empty assertion expects something pending.
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for event_count", index)
		}
	case AssertScore:
		if a.Player == "" || a.Score == nil {
			return fmt.Errorf("assertions[%d]: player and score are required for score", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
