package volio

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the payload encoding. Values are stored in the
// header and must not change.
type Compression uint8

const (
	// None stores the payload as is.
	None Compression = 0
	// LZ4 is block-mode LZ4: fast, moderate ratio.
	LZ4 Compression = 1
	// Zstd is zstd at the default level.
	Zstd Compression = 2
)

// String returns the configuration name of c.
func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrCompression, name)
	}
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("volio: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("volio: zstd decoder initialization failed: " + err.Error())
	}
}

// compress encodes data with c. When the result would not be smaller, it
// returns data unchanged with None.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	switch c {
	case None:
		return data, None, nil
	case LZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("volio: lz4 compress: %w", err)
		}
		if n == 0 || n >= len(data) {
			return data, None, nil
		}

		return dst[:n], LZ4, nil
	case Zstd:
		out := zstdEncoder.EncodeAll(data, nil)
		if len(out) >= len(data) {
			return data, None, nil
		}

		return out, Zstd, nil
	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrCompression, uint8(c))
	}
}

// decompress reverses compress; size is the uncompressed length.
func decompress(data []byte, c Compression, size int) ([]byte, error) {
	switch c {
	case None:
		if len(data) != size {
			return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(data), size)
		}

		return data, nil
	case LZ4:
		dst := make([]byte, size)
		n, err := lz4.UncompressBlock(data, dst)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
		}
		if n != size {
			return nil, fmt.Errorf("%w: lz4 produced %d bytes, header says %d", ErrCorrupt, n, size)
		}

		return dst, nil
	case Zstd:
		out, err := zstdDecoder.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("%w: zstd produced %d bytes, header says %d", ErrCorrupt, len(out), size)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrCompression, uint8(c))
	}
}
