package volio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/katalvlaran/voxcut/label"
	"github.com/katalvlaran/voxcut/seeds"
	"github.com/katalvlaran/voxcut/volume"
)

// WriteGrid stores g with its extent, spacing and component count.
func WriteGrid(w io.Writer, g *volume.Grid, c Compression) error {
	if err := g.Validate(); err != nil {
		return err
	}
	payload := make([]byte, 8*len(g.Data))
	for i, x := range g.Data {
		binary.LittleEndian.PutUint64(payload[8*i:], math.Float64bits(x))
	}

	return Encode(w, Header{
		Kind:       KindGrid,
		Extent:     g.Extent,
		Spacing:    g.Spacing,
		Components: g.Components,
		Region:     volume.RegionOf(g.Extent),
	}, payload, c)
}

// ReadGrid loads a grid container. The result is validated like NewVectorGrid.
func ReadGrid(r io.Reader) (*volume.Grid, error) {
	h, payload, err := Decode(r)
	if err != nil {
		return nil, err
	}
	if err = expect(h, KindGrid); err != nil {
		return nil, err
	}
	comps := h.Components
	if comps < 1 {
		comps = 1
	}
	if want := 8 * h.Extent.Len() * comps; len(payload) != want {
		return nil, fmt.Errorf("%w: grid payload is %d bytes, want %d", ErrCorrupt, len(payload), want)
	}
	data := make([]float64, len(payload)/8)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[8*i:]))
	}

	return volume.NewVectorGrid(h.Extent, h.Spacing, comps, data)
}

// WriteLabels stores a region label buffer.
func WriteLabels(w io.Writer, b *label.Buffer[uint16], c Compression) error {
	if len(b.Data) != b.Region.Len() {
		return fmt.Errorf("%w: buffer has %d voxels, region %s has %d", label.ErrSizeMismatch, len(b.Data), b.Region, b.Region.Len())
	}
	payload := make([]byte, 2*len(b.Data))
	for i, x := range b.Data {
		binary.LittleEndian.PutUint16(payload[2*i:], x)
	}

	return Encode(w, Header{
		Kind:    KindLabels,
		Extent:  b.Region.Size,
		Spacing: volume.Isotropic(),
		Region:  b.Region,
	}, payload, c)
}

// ReadLabels loads a label container.
func ReadLabels(r io.Reader) (*label.Buffer[uint16], error) {
	h, payload, err := Decode(r)
	if err != nil {
		return nil, err
	}
	if err = expect(h, KindLabels); err != nil {
		return nil, err
	}
	if want := 2 * h.Region.Len(); len(payload) != want {
		return nil, fmt.Errorf("%w: label payload is %d bytes, want %d", ErrCorrupt, len(payload), want)
	}
	b := &label.Buffer[uint16]{Region: h.Region, Data: make([]uint16, len(payload)/2)}
	for i := range b.Data {
		b.Data[i] = binary.LittleEndian.Uint16(payload[2*i:])
	}

	return b, nil
}

// WriteSeeds stores a seed set.
func WriteSeeds(w io.Writer, s seeds.Set, c Compression) error {
	payload, err := marshal(s)
	if err != nil {
		return err
	}

	return Encode(w, Header{Kind: KindSeeds}, payload, c)
}

// ReadSeeds loads a seed set container.
func ReadSeeds(r io.Reader) (seeds.Set, error) {
	var s seeds.Set
	h, payload, err := Decode(r)
	if err != nil {
		return s, err
	}
	if err = expect(h, KindSeeds); err != nil {
		return s, err
	}
	if err = unmarshal(payload, &s); err != nil {
		return s, err
	}

	return s, nil
}
