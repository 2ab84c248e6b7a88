package cache

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Payload markers written as the first byte of every Redis value.
const (
	markerRaw  byte = 0
	markerZstd byte = 1
)

// Compressor compresses cache payloads before they leave the process.
type Compressor interface {
	Compress(val []byte) ([]byte, error)
	Decompress(val []byte) ([]byte, error)
}

// ZstdCompressor is a Compressor backed by klauspost/compress.
type ZstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCompressor creates a reusable zstd encoder/decoder pair.
func NewZstdCompressor() (*ZstdCompressor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &ZstdCompressor{encoder: encoder, decoder: decoder}, nil
}

// Compress implements Compressor.
func (z *ZstdCompressor) Compress(val []byte) ([]byte, error) {
	return z.encoder.EncodeAll(val, make([]byte, 0, len(val)/2)), nil
}

// Decompress implements Compressor.
func (z *ZstdCompressor) Decompress(val []byte) ([]byte, error) {
	return z.decoder.DecodeAll(val, nil)
}

// pack prefixes data with a marker byte, compressing it when it is at least
// threshold bytes long and a compressor is available.
func pack(c Compressor, threshold int, data []byte) ([]byte, error) {
	if c == nil || threshold <= 0 || len(data) < threshold {
		return append([]byte{markerRaw}, data...), nil
	}
	compressed, err := c.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}
	return append([]byte{markerZstd}, compressed...), nil
}

// unpack reverses pack.
func unpack(c Compressor, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidEntry
	}
	switch data[0] {
	case markerRaw:
		return data[1:], nil
	case markerZstd:
		if c == nil {
			return nil, fmt.Errorf("%w: compressed payload without compressor", ErrInvalidEntry)
		}
		return c.Decompress(data[1:])
	default:
		return nil, fmt.Errorf("%w: unknown payload marker %d", ErrInvalidEntry, data[0])
	}
}
