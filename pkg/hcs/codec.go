package hcs

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// Codec selects how message payloads are encoded on the topic.
type Codec string

const (
	CodecRaw    Codec = "raw"
	CodecBrotli Codec = "brotli"
)

// ParseCodec accepts "", "raw" and "brotli".
func ParseCodec(value string) (Codec, error) {
	switch Codec(strings.ToLower(strings.TrimSpace(value))) {
	case "", CodecRaw:
		return CodecRaw, nil
	case CodecBrotli:
		return CodecBrotli, nil
	default:
		return "", fmt.Errorf("unsupported message codec %q", value)
	}
}

func (c Codec) Encode(payload []byte) ([]byte, error) {
	switch c {
	case "", CodecRaw:
		return payload, nil
	case CodecBrotli:
		var buffer bytes.Buffer
		writer := brotli.NewWriterLevel(&buffer, brotli.BestCompression)
		if _, err := writer.Write(payload); err != nil {
			return nil, fmt.Errorf("failed to compress message: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("failed to finalize compressed message: %w", err)
		}
		return buffer.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported message codec %q", string(c))
	}
}

func (c Codec) Decode(payload []byte) ([]byte, error) {
	switch c {
	case "", CodecRaw:
		return payload, nil
	case CodecBrotli:
		decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(payload)))
		if err != nil {
			return nil, fmt.Errorf("failed to decompress message: %w", err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("unsupported message codec %q", string(c))
	}
}
