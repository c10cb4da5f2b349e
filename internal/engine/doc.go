// Package engine implements the turnstile command pipeline.
//
// The engine turns a command into events and a new match state. It knows
// nothing about any particular game: rule-sets plug in through RuleSet and
// systems plug in through the hook interfaces in system.go.
//
// ARCHITECTURE:
//
// Single-Writer Pipeline:
// Execute is a pure function of (config, state, command, rng position).
// The server calls it from one goroutine per match; clients call the very
// same function to predict. Waiting for a player is never a blocked call:
// it is data (an interaction or a response window) in the returned state.
//
// Command Processing Flow:
//  1. Gate: game-over check, then every CommandGate system in order
//  2. Validate: RuleSet.Validate against the domain state
//  3. Execute: a CommandHandler system claims core commands, otherwise
//     RuleSet.Execute produces events
//  4. Reduce: events are folded into the domain state
//  5. Post-process: AfterCommand hooks run over each new batch of events,
//     deriving further events until nothing new is produced; then the
//     game-over check
//  6. Log: every event is appended to the event stream with a fresh id
//  7. Commit: StateID is incremented and the RNG cursor recorded
//
// Steps 1-5 may re-enter for internal commands (Context.Dispatch).
//
// CRITICAL PATTERNS:
//
// All-or-nothing: Execute works on a cloned state and a cloned RNG. Any
// error leaves the caller's state and RNG exactly as they were.
//
// Bounded re-entrancy: each invocation carries a budget of event batches
// and dispatch depth taken from Config.Limits, so runaway trigger chains
// end in a typed QUOTA_EXCEEDED error instead of a hang.
//
// Per-invocation idempotency: Context.Once deduplicates work keyed by a
// subject and an event ordinal, so the same derived event reaching two
// post-processing hooks cannot fire an effect twice. The set lives only as
// long as one Execute call and is never persisted.
//
// Determinism: no wall clock, no map iteration in ordering decisions, no
// randomness outside the supplied rng.Source.
package engine
