// Package codec compresses snapshot payloads with zstd.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// maxDecodedSize bounds what Decompress will allocate for one payload.
const maxDecodedSize = 256 << 20

// magic is the zstd frame header.
var magic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ErrNotCompressed is returned by Decompress for input without a zstd frame.
var ErrNotCompressed = errors.New("codec: input is not zstd compressed")

var (
	encoderOnce sync.Once
	decoderOnce sync.Once
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
	encoderErr  error
	decoderErr  error
)

func getEncoder() (*zstd.Encoder, error) {
	encoderOnce.Do(func() {
		encoder, encoderErr = zstd.NewWriter(
			nil,
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithZeroFrames(true),
		)
	})
	return encoder, encoderErr
}

func getDecoder() (*zstd.Decoder, error) {
	decoderOnce.Do(func() {
		decoder, decoderErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize))
	})
	return decoder, decoderErr
}

// IsCompressed reports whether data starts with a zstd frame header.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

func Compress(data []byte) ([]byte, error) {
	enc, err := getEncoder()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func Decompress(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return nil, ErrNotCompressed
	}
	dec, err := getDecoder()
	if err != nil {
		return nil, err
	}
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	return out, nil
}
