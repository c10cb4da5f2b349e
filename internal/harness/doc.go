// Package harness runs scripted matches as executable tests.
//
// A scenario names a rule-set, a seed and the seated players, then lists
// commands with the outcome each is expected to have. The harness plays
// the scenario through engine.Execute, records every applied command in an
// in-memory store, checks assertions against the final state and replays
// the stored log to prove the run was deterministic.
//
// # Scenario Format
//
//	name: t1_repeated_response
//	description: "A repeated answer is rejected"
//	ruleset: skirmish
//	seed: t1
//	players: [P0, P1]
//	options: { hand_limit: 5 }
//	steps:
//	  - command: core.advance_phase
//	    player: P0
//	    expect:
//	      events: [skirmish.drew, core.interaction_queued, core.advance_halted]
//	  - command: core.respond_interaction
//	    player: P0
//	    payload: { interaction_id: discard-1 }
//	    pick: 0
//	  - command: core.respond_interaction
//	    player: P0
//	    payload: { interaction_id: discard-1, option_id: c00 }
//	    expect: { error: INTERACTION_MISMATCH, reason: not_found }
//	assertions:
//	  - type: phase
//	    phase: play
//	  - type: state_id
//	    state_id: 2
//
// pick fills payload.option_id with the option at that index of the
// pending interaction, for options that depend on the shuffle.
//
// # Assertion Types
//
//   - phase: the final phase
//   - state_id: the final state id
//   - interaction: the pending interaction (kind, player, id) or absent
//   - window: the top response window (window_type, holder, id) or absent
//   - event_count: how many logged events had a given type
//   - score: a player's score, for rule-sets that keep one
//
// # Deterministic Testing
//
// Command timestamps come from testutil.CommandClock and the match id
// from testutil.FixedIDGenerator, so the same scenario always produces the
// same trace. RunWithGolden compares that trace with
// testdata/golden/<name>.golden.
package harness
