// Package codec frames live-sync messages for the wire.
//
// The json codec sends text frames as-is. The snappy and zstd codecs
// compress the same JSON document into binary frames.
package codec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// ErrUnknownCodec reports a codec name that is not registered.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec transforms encoded message bytes for transport.
type Codec interface {
	Name() string
	Encode(payload []byte) ([]byte, error)
	Decode(frame []byte) ([]byte, error)
	// Binary reports whether frames must be sent as binary messages.
	Binary() bool
}

// Lookup returns the codec registered under name. An empty name selects json.
func Lookup(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON{}, nil
	case "snappy":
		return Snappy{}, nil
	case "zstd":
		z, err := sharedZstd()
		if err != nil {
			return nil, err
		}
		return z, nil
	default:
		return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownCodec, name, strings.Join(Names(), ", "))
	}
}

// Names lists the registered codecs.
func Names() []string {
	names := []string{"json", "snappy", "zstd"}
	sort.Strings(names)
	return names
}

// JSON passes payloads through unchanged.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Encode(payload []byte) ([]byte, error) { return payload, nil }

func (JSON) Decode(frame []byte) ([]byte, error) { return frame, nil }

func (JSON) Binary() bool { return false }

// Snappy compresses payloads with the snappy block format.
type Snappy struct{}

func (Snappy) Name() string { return "snappy" }

func (Snappy) Encode(payload []byte) ([]byte, error) {
	return snappy.Encode(nil, payload), nil
}

func (Snappy) Decode(frame []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, frame)
	if err != nil {
		return nil, fmt.Errorf("snappy decode: %w", err)
	}
	return out, nil
}

func (Snappy) Binary() bool { return true }

// Zstd compresses payloads with zstandard. Encoder and decoder are safe for
// concurrent EncodeAll/DecodeAll calls.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstd builds a zstd codec at the fastest compression level.
func NewZstd() (*Zstd, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Zstd{enc: enc, dec: dec}, nil
}

var (
	zstdOnce  sync.Once
	zstdCodec *Zstd
	zstdErr   error
)

func sharedZstd() (*Zstd, error) {
	zstdOnce.Do(func() {
		zstdCodec, zstdErr = NewZstd()
	})
	return zstdCodec, zstdErr
}

func (z *Zstd) Name() string { return "zstd" }

func (z *Zstd) Encode(payload []byte) ([]byte, error) {
	return z.enc.EncodeAll(payload, nil), nil
}

func (z *Zstd) Decode(frame []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(frame, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

func (z *Zstd) Binary() bool { return true }
