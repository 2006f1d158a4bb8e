package storage

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Toolchain output is mostly repeated compiler diagnostics; it is stored
// zstd-compressed.
var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func zstdCodec() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// compress returns the zstd frame for s, or nil for an empty string.
func compress(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	enc, _, err := zstdCodec()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll([]byte(s), nil), nil
}

// decompress reverses compress.
func decompress(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	_, dec, err := zstdCodec()
	if err != nil {
		return "", err
	}
	out, err := dec.DecodeAll(b, nil)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
