package store

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/roach88/turnstile/internal/canonical"
	"github.com/roach88/turnstile/internal/game"
)

var (
	snapshotEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	snapshotDecoder, _ = zstd.NewReader(nil)
)

// marshalBody converts a command or event to canonical JSON TEXT.
func marshalBody(v any) (string, error) {
	data, err := canonical.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal body: %w", err)
	}
	return string(data), nil
}

func marshalPlayers(players []game.PlayerID) (string, error) {
	if players == nil {
		players = []game.PlayerID{}
	}
	data, err := json.Marshal(players)
	if err != nil {
		return "", fmt.Errorf("marshal players: %w", err)
	}
	return string(data), nil
}

func unmarshalPlayers(data string) ([]game.PlayerID, error) {
	var players []game.PlayerID
	if err := json.Unmarshal([]byte(data), &players); err != nil {
		return nil, fmt.Errorf("unmarshal players: %w", err)
	}
	return players, nil
}

func marshalOutcome(o *game.Outcome) (any, error) {
	if o == nil {
		return nil, nil
	}
	data, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("marshal outcome: %w", err)
	}
	return string(data), nil
}

func unmarshalOutcome(data *string) (*game.Outcome, error) {
	if data == nil {
		return nil, nil
	}
	var o game.Outcome
	if err := json.Unmarshal([]byte(*data), &o); err != nil {
		return nil, fmt.Errorf("unmarshal outcome: %w", err)
	}
	return &o, nil
}

// compressSnapshot encodes state as canonical JSON and compresses it.
func compressSnapshot(state any) ([]byte, error) {
	data, err := canonical.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return snapshotEncoder.EncodeAll(data, nil), nil
}

func decompressSnapshot(blob []byte) ([]byte, error) {
	data, err := snapshotDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	return data, nil
}
