package graphcut_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/voxcut/graphcut"
	"github.com/katalvlaran/voxcut/seeds"
	"github.com/katalvlaran/voxcut/volume"
)

// ExampleSegment cuts a 6×1×1 step edge between two seeds.
func ExampleSegment() {
	ext := volume.Size{X: 6, Y: 1, Z: 1}
	grid, _ := volume.NewGrid(ext, volume.Isotropic(), []float64{10, 12, 11, 90, 92, 91})

	p := graphcut.DefaultParameters()
	p.Sigma = 5
	p.UseForegroundBackground = false

	res, err := graphcut.Segment(context.Background(), graphcut.Input{
		Grid:   grid,
		Region: volume.RegionOf(ext),
		Seeds: seeds.Set{
			Foreground: []volume.Index{{X: 0}},
			Background: []volume.Index{{X: 5}},
		},
	}, p)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(res.Labels.Data)
	// Output:
	// [1 1 1 0 0 0]
}
