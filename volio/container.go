package volio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/katalvlaran/voxcut/volume"
)

// Version is the container format written by this package.
const Version = 1

const (
	// maxHeaderBytes bounds the header read before decoding.
	maxHeaderBytes = 1 << 20
	// maxPayloadBytes bounds the uncompressed size any header may declare.
	maxPayloadBytes = 1 << 40
	// maxSeedBytes bounds seed payloads, which carry no geometry.
	maxSeedBytes = 1 << 30
)

var magic = [4]byte{'V', 'X', 'C', '1'}

// payloadKey is the BLAKE3 key for payload digests: ASCII, zero-padded.
var payloadKey = [32]byte{
	'v', 'o', 'x', 'c', 'u', 't', '.', 'v', 'o', 'l', 'i', 'o', '.',
	'p', 'a', 'y', 'l', 'o', 'a', 'd',
}

// Kind is the payload type of a container.
type Kind uint8

const (
	// KindGrid holds a volume.Grid with float64 samples.
	KindGrid Kind = 1
	// KindLabels holds a uint16 label buffer over a region.
	KindLabels Kind = 2
	// KindSeeds holds a CBOR-encoded seeds.Set.
	KindSeeds Kind = 3
)

// String returns the name of k.
func (k Kind) String() string {
	switch k {
	case KindGrid:
		return "grid"
	case KindLabels:
		return "labels"
	case KindSeeds:
		return "seeds"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Header describes a container payload.
type Header struct {
	Version uint8 `cbor:"1,keyasint"`
	Kind    Kind  `cbor:"2,keyasint"`
	// Extent, Spacing and Components describe grids.
	Extent     volume.Size    `cbor:"3,keyasint"`
	Spacing    volume.Spacing `cbor:"4,keyasint"`
	Components int            `cbor:"5,keyasint,omitempty"`
	// Region is the area a label buffer covers, or the full extent of a grid.
	Region volume.Region `cbor:"6,keyasint"`
	// Compression is the encoding actually applied, which may be None even
	// when another was requested.
	Compression Compression `cbor:"7,keyasint"`
	// Size is the uncompressed payload length, Stored the on-disk one.
	Size   int `cbor:"8,keyasint"`
	Stored int `cbor:"9,keyasint"`
	// Checksum is the keyed BLAKE3 digest of the uncompressed payload.
	Checksum [32]byte `cbor:"10,keyasint"`
}

// Digest returns the payload digest stored in headers.
func Digest(payload []byte) [32]byte {
	h, err := blake3.NewKeyed(payloadKey[:])
	if err != nil {
		panic("volio: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = h.Write(payload)
	var sum [32]byte
	copy(sum[:], h.Sum(nil))

	return sum
}

// Encode writes one container holding payload. h supplies kind and
// geometry; Version, Compression, Size, Stored and Checksum are filled in.
func Encode(w io.Writer, h Header, payload []byte, c Compression) error {
	stored, used, err := compress(payload, c)
	if err != nil {
		return err
	}
	h.Version = Version
	h.Compression = used
	h.Size = len(payload)
	h.Stored = len(stored)
	h.Checksum = Digest(payload)

	hdr, err := marshal(h)
	if err != nil {
		return err
	}
	var pre [8]byte
	copy(pre[:4], magic[:])
	binary.LittleEndian.PutUint32(pre[4:], uint32(len(hdr)))
	for _, b := range [][]byte{pre[:], hdr, stored} {
		if _, err = w.Write(b); err != nil {
			return fmt.Errorf("volio: write: %w", err)
		}
	}

	return nil
}

// ReadHeader reads and decodes the header, leaving r at the payload.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	var pre [8]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return h, fmt.Errorf("%w: preamble: %w", ErrCorrupt, err)
	}
	if [4]byte(pre[:4]) != magic {
		return h, ErrMagic
	}
	n := binary.LittleEndian.Uint32(pre[4:])
	if n == 0 || n > maxHeaderBytes {
		return h, fmt.Errorf("%w: header length %d", ErrCorrupt, n)
	}
	hdr := make([]byte, n)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return h, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	if err := unmarshal(hdr, &h); err != nil {
		return h, err
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: version %d", ErrCorrupt, h.Version)
	}
	if h.Size < 0 || h.Stored < 0 {
		return h, fmt.Errorf("%w: negative payload length", ErrCorrupt)
	}
	want, err := payloadSize(h)
	if err != nil {
		return h, err
	}
	switch {
	case want >= 0 && h.Size != want:
		return h, fmt.Errorf("%w: payload size %d, geometry needs %d", ErrCorrupt, h.Size, want)
	case want < 0 && h.Size > maxSeedBytes:
		return h, fmt.Errorf("%w: payload size %d exceeds %d", ErrCorrupt, h.Size, maxSeedBytes)
	case h.Compression == None && h.Stored != h.Size:
		return h, fmt.Errorf("%w: stored %d bytes uncompressed, size %d", ErrCorrupt, h.Stored, h.Size)
	}

	return h, nil
}

// payloadSize returns the uncompressed length implied by the header
// geometry, or -1 for kinds without geometry.
func payloadSize(h Header) (int, error) {
	var factors []int
	switch h.Kind {
	case KindGrid:
		factors = []int{h.Extent.X, h.Extent.Y, h.Extent.Z, max(h.Components, 1), 8}
	case KindLabels:
		factors = []int{h.Region.Size.X, h.Region.Size.Y, h.Region.Size.Z, 2}
	default:
		return -1, nil
	}
	n := 1
	for _, f := range factors {
		if f < 0 || (f > 0 && n > maxPayloadBytes/f) {
			return 0, fmt.Errorf("%w: geometry exceeds %d bytes", ErrCorrupt, maxPayloadBytes)
		}
		n *= f
	}

	return n, nil
}

// Decode reads one container and returns its header and verified,
// uncompressed payload.
func Decode(r io.Reader) (Header, []byte, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return h, nil, err
	}
	// grows with the bytes actually present, not with the declared length
	stored, err := io.ReadAll(io.LimitReader(r, int64(h.Stored)))
	if err != nil {
		return h, nil, fmt.Errorf("%w: payload: %w", ErrCorrupt, err)
	}
	if len(stored) != h.Stored {
		return h, nil, fmt.Errorf("%w: payload truncated at %d of %d bytes", ErrCorrupt, len(stored), h.Stored)
	}
	payload, err := decompress(stored, h.Compression, h.Size)
	if err != nil {
		return h, nil, err
	}
	if Digest(payload) != h.Checksum {
		return h, nil, ErrChecksum
	}

	return h, payload, nil
}

func expect(h Header, k Kind) error {
	if h.Kind != k {
		return fmt.Errorf("%w: want %s, got %s", ErrKind, k, h.Kind)
	}

	return nil
}

// WriteFile creates path (and its directory) and passes a buffered writer
// to write.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("volio: create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("volio: create: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err = write(bw); err != nil {
		_ = f.Close()
		return err
	}
	if err = bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("volio: flush: %w", err)
	}

	return f.Close()
}

// ReadFile opens path and passes a buffered reader to read.
func ReadFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("volio: open: %w", err)
	}
	defer f.Close()

	return read(bufio.NewReader(f))
}
