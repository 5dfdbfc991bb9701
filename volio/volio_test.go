package volio_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/voxcut/label"
	"github.com/katalvlaran/voxcut/seeds"
	"github.com/katalvlaran/voxcut/volio"
	"github.com/katalvlaran/voxcut/volume"
)

func stepGrid(t *testing.T) *volume.Grid {
	t.Helper()
	ext := volume.Size{X: 16, Y: 8, Z: 4}
	data := make([]float64, ext.Len())
	for v := range data {
		if v%ext.X < ext.X/2 {
			data[v] = 200
		}
	}
	g, err := volume.NewGrid(ext, volume.Spacing{X: 1, Y: 1, Z: 2.5}, data)
	require.NoError(t, err)

	return g
}

func TestGridRoundTrip(t *testing.T) {
	for _, c := range []volio.Compression{volio.None, volio.LZ4, volio.Zstd} {
		t.Run(c.String(), func(t *testing.T) {
			g := stepGrid(t)
			var buf bytes.Buffer
			require.NoError(t, volio.WriteGrid(&buf, g, c))

			h, err := volio.ReadHeader(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, volio.KindGrid, h.Kind)
			assert.Equal(t, c, h.Compression, "step data compresses")
			assert.Equal(t, 8*len(g.Data), h.Size)
			if c != volio.None {
				assert.Less(t, h.Stored, h.Size)
			}

			got, err := volio.ReadGrid(&buf)
			require.NoError(t, err)
			assert.Equal(t, g, got)
		})
	}
}

func TestIncompressibleFallsBack(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	payload := make([]byte, 4096)
	for i := 0; i < len(payload); i += 8 {
		binary.LittleEndian.PutUint64(payload[i:], rng.Uint64())
	}
	for _, c := range []volio.Compression{volio.LZ4, volio.Zstd} {
		var buf bytes.Buffer
		require.NoError(t, volio.Encode(&buf, volio.Header{Kind: volio.KindGrid}, payload, c))
		h, got, err := volio.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, volio.None, h.Compression, c.String())
		assert.Equal(t, payload, got)
	}
}

func TestLabelsRoundTrip(t *testing.T) {
	r := volume.Region{Origin: volume.Index{X: 2, Y: 1, Z: 3}, Size: volume.Size{X: 3, Y: 2, Z: 2}}
	b := &label.Buffer[uint16]{Region: r, Data: []uint16{1, 0, 0, 1, 1, 7, 0, 0, 0, 1, 1, 1}}
	var buf bytes.Buffer
	require.NoError(t, volio.WriteLabels(&buf, b, volio.Zstd))

	got, err := volio.ReadLabels(&buf)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	bad := &label.Buffer[uint16]{Region: r, Data: []uint16{1}}
	assert.ErrorIs(t, volio.WriteLabels(&buf, bad, volio.None), label.ErrSizeMismatch)
}

func TestSeedsRoundTrip(t *testing.T) {
	s := seeds.Set{
		Foreground: []volume.Index{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}},
		Background: []volume.Index{{X: 0, Y: 0, Z: 0}},
	}
	var buf bytes.Buffer
	require.NoError(t, volio.WriteSeeds(&buf, s, volio.LZ4))

	got, err := volio.ReadSeeds(&buf)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestDeterministic(t *testing.T) {
	g := stepGrid(t)
	var a, b bytes.Buffer
	require.NoError(t, volio.WriteGrid(&a, g, volio.Zstd))
	require.NoError(t, volio.WriteGrid(&b, g, volio.Zstd))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestDecodeErrors(t *testing.T) {
	var buf bytes.Buffer
	b := &label.Buffer[uint16]{Region: volume.RegionOf(volume.Size{X: 4, Y: 1, Z: 1}), Data: []uint16{1, 0, 1, 0}}
	require.NoError(t, volio.WriteLabels(&buf, b, volio.None))
	good := buf.Bytes()

	t.Run("Checksum", func(t *testing.T) {
		raw := bytes.Clone(good)
		raw[len(raw)-1] ^= 0xff
		_, err := volio.ReadLabels(bytes.NewReader(raw))
		assert.ErrorIs(t, err, volio.ErrChecksum)
	})
	t.Run("Magic", func(t *testing.T) {
		raw := bytes.Clone(good)
		raw[0] = 'Z'
		_, err := volio.ReadLabels(bytes.NewReader(raw))
		assert.ErrorIs(t, err, volio.ErrMagic)
	})
	t.Run("Truncated", func(t *testing.T) {
		_, err := volio.ReadLabels(bytes.NewReader(good[:len(good)-3]))
		assert.ErrorIs(t, err, volio.ErrCorrupt)
		_, err = volio.ReadLabels(bytes.NewReader(good[:5]))
		assert.ErrorIs(t, err, volio.ErrCorrupt)
	})
	t.Run("Kind", func(t *testing.T) {
		_, err := volio.ReadGrid(bytes.NewReader(good))
		assert.ErrorIs(t, err, volio.ErrKind)
		_, err = volio.ReadSeeds(bytes.NewReader(good))
		assert.ErrorIs(t, err, volio.ErrKind)
	})
	t.Run("Compression", func(t *testing.T) {
		err := volio.Encode(&bytes.Buffer{}, volio.Header{Kind: volio.KindSeeds}, []byte{1}, volio.Compression(9))
		assert.ErrorIs(t, err, volio.ErrCompression)
	})
}

// rawContainer frames h and payload without the checks Encode applies.
func rawContainer(t *testing.T, h volio.Header, payload []byte) []byte {
	t.Helper()
	hdr, err := cbor.Marshal(h)
	require.NoError(t, err)
	out := append([]byte("VXC1"), binary.LittleEndian.AppendUint32(nil, uint32(len(hdr)))...)
	out = append(out, hdr...)

	return append(out, payload...)
}

// TestDeclaredSizes rejects headers whose lengths disagree with their
// geometry or exceed the payload present, before allocating for them.
func TestDeclaredSizes(t *testing.T) {
	region := volume.RegionOf(volume.Size{X: 4, Y: 1, Z: 1})
	cases := map[string]volio.Header{
		"StoredBeyondData": {Kind: volio.KindLabels, Region: region, Compression: volio.Zstd, Size: 8, Stored: 1 << 50},
		"SizeVsGeometry":   {Kind: volio.KindLabels, Region: region, Size: 1 << 40, Stored: 1 << 40},
		"GeometryOverflow": {Kind: volio.KindGrid, Extent: volume.Size{X: 1 << 30, Y: 1 << 30, Z: 1 << 30}, Size: 8, Stored: 8},
		"HugeSeeds":        {Kind: volio.KindSeeds, Compression: volio.Zstd, Size: 1 << 40, Stored: 4},
		"NoneMismatch":     {Kind: volio.KindLabels, Region: region, Size: 8, Stored: 4},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			h.Version = volio.Version
			_, _, err := volio.Decode(bytes.NewReader(rawContainer(t, h, []byte{1, 2, 3, 4})))
			assert.ErrorIs(t, err, volio.ErrCorrupt)
		})
	}

	// a well-formed frame passes the same path
	payload := []byte{1, 0, 0, 0, 1, 0, 0, 0}
	h := volio.Header{Version: volio.Version, Kind: volio.KindLabels, Region: region, Size: 8, Stored: 8, Checksum: volio.Digest(payload)}
	b, err := volio.ReadLabels(bytes.NewReader(rawContainer(t, h, payload)))
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 0, 1, 0}, b.Data)
}

func TestParseCompression(t *testing.T) {
	for _, c := range []volio.Compression{volio.None, volio.LZ4, volio.Zstd} {
		got, err := volio.ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := volio.ParseCompression("brotli")
	assert.ErrorIs(t, err, volio.ErrCompression)
}

func TestFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "volume.vxc")
	g := stepGrid(t)
	require.NoError(t, volio.WriteFile(path, func(w io.Writer) error {
		return volio.WriteGrid(w, g, volio.Zstd)
	}))
	got, err := volio.ReadFile(path, volio.ReadGrid)
	require.NoError(t, err)
	assert.Equal(t, g, got)

	_, err = volio.ReadFile(filepath.Join(t.TempDir(), "missing"), volio.ReadGrid)
	assert.Error(t, err)
}
