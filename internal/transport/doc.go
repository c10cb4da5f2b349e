// Package transport defines the messages exchanged between a match host
// and its clients and their JSON encoding.
//
// Four message kinds travel in an Envelope: sync (full snapshot on
// connect), update (state after every applied command), submit (a client
// command) and reject (a refusal sent to the issuer only). Inbound frames
// are checked against embedded JSON schemas before any payload is decoded.
// Sync frames are large and may be zstd-compressed.
package transport
