// Package client is the optimistic client engine.
//
// The client runs the same engine.Execute the server runs. Commands whose
// type the rule-set's tables mark deterministic are predicted locally on
// top of the confirmed state plus every pending command, and the predicted
// tip is rendered straight away. Updates from the server are reconciled
// against the FIFO pending list: the oldest pending command is either
// confirmed, or the client rolls back to the server state and replays what
// is still pending.
//
// The confirmed state always equals the last state the server sent. The
// client only decides what to show in between.
//
// An Engine is owned by one goroutine and is not safe for concurrent use.
package client
