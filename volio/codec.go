// Package volio stores grids, label buffers and seed sets on disk.
//
// Every file is a single container:
//
//	magic "VXC1" | uint32 header length (LE) | CBOR header | payload
//
// The header is encoded with Core Deterministic CBOR and describes the
// payload kind, its geometry, the compression applied to it, the
// uncompressed length and a keyed BLAKE3 digest of the uncompressed bytes.
// Samples are little-endian: float64 for grids, uint16 for labels. Seed
// sets carry a CBOR-encoded seeds.Set as payload.
package volio

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Sentinel errors for container handling.
var (
	// ErrMagic indicates the input is not a voxcut container.
	ErrMagic = errors.New("volio: bad magic")
	// ErrKind indicates a container of an unexpected payload kind.
	ErrKind = errors.New("volio: unexpected payload kind")
	// ErrChecksum indicates the payload digest does not match the header.
	ErrChecksum = errors.New("volio: payload checksum mismatch")
	// ErrCorrupt indicates a truncated or inconsistent container.
	ErrCorrupt = errors.New("volio: corrupt container")
	// ErrCompression indicates an unknown compression tag.
	ErrCompression = errors.New("volio: unknown compression")
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("volio: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		MaxArrayElements: 1 << 27,
	}.DecMode()
	if err != nil {
		panic("volio: CBOR decoder initialization failed: " + err.Error())
	}
}

func marshal(v any) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("volio: cbor encode: %w", err)
	}

	return b, nil
}

func unmarshal(data []byte, v any) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: cbor decode: %w", ErrCorrupt, err)
	}

	return nil
}
