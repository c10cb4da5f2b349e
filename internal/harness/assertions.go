package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/turnstile/internal/game"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		outcome := "ok"
		if !ev.OK {
			outcome = ev.Error
			if ev.Reason != "" {
				outcome += "/" + ev.Reason
			}
		}
		fmt.Fprintf(&buf, "  [%d] %s %s -> %s (state %d)\n", ev.Step, ev.Player, ev.Command, outcome, ev.StateID)
	}

	return buf.String()
}

func fail(trace []TraceEvent, typ, expected, actual string) error {
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Trace: trace}
}

func assertPhase(r *Result, v View, a Assertion) error {
	if v.Phase != a.Phase {
		return fail(r.Trace, AssertPhase, fmt.Sprintf("phase %q", a.Phase), fmt.Sprintf("phase %q", v.Phase))
	}
	return nil
}

func assertStateID(r *Result, v View, a Assertion) error {
	if v.StateID != *a.StateID {
		return fail(r.Trace, AssertStateID, fmt.Sprintf("state id %d", *a.StateID), fmt.Sprintf("state id %d", v.StateID))
	}
	return nil
}

func assertInteraction(r *Result, v View, a Assertion) error {
	cur := v.Interaction
	if a.Absent {
		if cur != nil {
			return fail(r.Trace, AssertInteraction, "no pending interaction", fmt.Sprintf("%s (%s for %s)", cur.ID, cur.Kind, cur.PlayerID))
		}
		return nil
	}
	if cur == nil {
		return fail(r.Trace, AssertInteraction, "a pending interaction", "none")
	}

	var diffs []string
	if a.ID != "" && cur.ID != a.ID {
		diffs = append(diffs, fmt.Sprintf("id %q != %q", cur.ID, a.ID))
	}
	if a.Kind != "" && cur.Kind != a.Kind {
		diffs = append(diffs, fmt.Sprintf("kind %q != %q", cur.Kind, a.Kind))
	}
	if a.Player != "" && string(cur.PlayerID) != a.Player {
		diffs = append(diffs, fmt.Sprintf("player %q != %q", cur.PlayerID, a.Player))
	}
	if len(diffs) > 0 {
		return fail(r.Trace, AssertInteraction, describe(a.ID, a.Kind, a.Player), strings.Join(diffs, ", "))
	}
	return nil
}

func assertWindow(r *Result, v View, a Assertion) error {
	w := v.Window
	if a.Absent {
		if w != nil {
			return fail(r.Trace, AssertWindow, "no open window", fmt.Sprintf("%s held by %s", w.ID, w.Holder()))
		}
		return nil
	}
	if w == nil {
		return fail(r.Trace, AssertWindow, "an open window", "none")
	}

	var diffs []string
	if a.ID != "" && w.ID != a.ID {
		diffs = append(diffs, fmt.Sprintf("id %q != %q", w.ID, a.ID))
	}
	if a.WindowType != "" && w.Type != a.WindowType {
		diffs = append(diffs, fmt.Sprintf("type %q != %q", w.Type, a.WindowType))
	}
	if a.Holder != "" && string(w.Holder()) != a.Holder {
		diffs = append(diffs, fmt.Sprintf("holder %q != %q", w.Holder(), a.Holder))
	}
	if len(diffs) > 0 {
		return fail(r.Trace, AssertWindow, describe(a.ID, a.WindowType, a.Holder), strings.Join(diffs, ", "))
	}
	return nil
}

func assertEventCount(r *Result, a Assertion) error {
	if got := r.countEvents(a.Event); got != *a.Count {
		return fail(r.Trace, AssertEventCount,
			fmt.Sprintf("%s logged %d times", a.Event, *a.Count),
			fmt.Sprintf("%s logged %d times", a.Event, got))
	}
	return nil
}

func assertScore(r *Result, v View, a Assertion) error {
	if v.Scores == nil {
		return fail(r.Trace, AssertScore, "a rule-set that keeps score", "no scores")
	}
	got, ok := v.Scores[game.PlayerID(a.Player)]
	if !ok {
		return fail(r.Trace, AssertScore, fmt.Sprintf("score for %s", a.Player), "player not seated")
	}
	if got != *a.Score {
		return fail(r.Trace, AssertScore,
			fmt.Sprintf("%s scored %d", a.Player, *a.Score),
			fmt.Sprintf("%s scored %d", a.Player, got))
	}
	return nil
}

func describe(parts ...string) string {
	var set []string
	for _, p := range parts {
		if p != "" {
			set = append(set, p)
		}
	}
	if len(set) == 0 {
		return "anything pending"
	}
	return strings.Join(set, " ")
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(r *Result, assertions []Assertion, v View) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertPhase:
			err = assertPhase(r, v, a)
		case AssertStateID:
			err = assertStateID(r, v, a)
		case AssertInteraction:
			err = assertInteraction(r, v, a)
		case AssertWindow:
			err = assertWindow(r, v, a)
		case AssertEventCount:
			err = assertEventCount(r, a)
		case AssertScore:
			err = assertScore(r, v, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}
