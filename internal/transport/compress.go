package transport

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var (
	zenc, _ = zstd.NewWriter(nil)
	zdec, _ = zstd.NewReader(nil)
)

// CompressSync zstd-compresses an encoded frame. Sync frames carry the whole
// domain state and are sent compressed as binary websocket messages.
func CompressSync(frame []byte) []byte {
	return zenc.EncodeAll(frame, make([]byte, 0, len(frame)/2))
}

// DecompressSync reverses CompressSync.
func DecompressSync(data []byte) ([]byte, error) {
	out, err := zdec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}
