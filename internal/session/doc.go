// Package session hosts live matches.
//
// A Session owns one match: its state, its RNG and the players seated in
// it. Commands reach the session through an inbox and are applied one at a
// time by the session's run loop, so a match never needs locking around
// engine.Execute. Applied commands are recorded before they are committed
// and then broadcast to subscribers as transport.Update values.
//
// A Manager creates, resumes and tracks sessions. Handler exposes sessions
// over websockets: a connection names a match and a player, receives a
// compressed Sync on connect, submits commands and receives every Update
// plus Rejects for its own commands.
package session
