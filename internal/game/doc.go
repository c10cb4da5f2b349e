// Package game defines the vocabulary shared by every turnstile package:
// commands, events, their payload variants, the payload registry used to
// decode them, and the typed error taxonomy returned by the pipeline.
//
// Commands are requests ("please do X"). Events are facts ("X happened").
// Events are the only way domain state changes: a rule-set folds them into
// its domain value through a pure reduce function.
//
// Payloads are tagged variants. Each concrete payload type reports its own
// tag through CommandType/EventType and rule-sets dispatch on them with a
// type switch. Payloads owned by the engine's systems additionally implement
// SystemPayload so the domain fold can skip them.
package game
