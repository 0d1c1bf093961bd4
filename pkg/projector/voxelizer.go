// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package projector

import (
	"strings"

	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/pcseg/pkg/pointcloud"
	"github.com/pkg/errors"
)

// Views is a set of 2D projections of a voxel grid. Each view is the max-pooling of the grid along one axis.
type Views uint8

const (
	// ViewH projects along the first spatial axis (H or X).
	ViewH Views = 1 << iota
	// ViewW projects along the second spatial axis (W or Y).
	ViewW
	// ViewZ projects along the third spatial axis (Z).
	ViewZ
)

var viewLetters = []struct {
	view   Views
	letter byte
	axis   int
}{
	{ViewH, 'H', -3},
	{ViewW, 'W', -2},
	{ViewZ, 'Z', -1},
}

// ParseViews parses a combination of the letters "H", "W" and "Z" (case-insensitive). Repeated letters are
// ignored. It returns an error if no view is selected or if there are unknown letters.
func ParseViews(s string) (Views, error) {
	var views Views
	for _, r := range strings.ToUpper(s) {
		found := false
		for _, vl := range viewLetters {
			if r == rune(vl.letter) {
				views |= vl.view
				found = true
				break
			}
		}
		if !found {
			return 0, errors.Errorf("invalid view %q in %q: valid views are combinations of \"H\", \"W\" and \"Z\"", r, s)
		}
	}
	if views == 0 {
		return 0, errors.New("no view selected: at least one of \"H\", \"W\" or \"Z\" is required")
	}
	return views, nil
}

// String returns the letters of the views, always in the order "HWZ".
func (v Views) String() string {
	var sb strings.Builder
	for _, vl := range viewLetters {
		if v&vl.view != 0 {
			sb.WriteByte(vl.letter)
		}
	}
	return sb.String()
}

// Count returns the number of views selected.
func (v Views) Count() int {
	count := 0
	for _, vl := range viewLetters {
		if v&vl.view != 0 {
			count++
		}
	}
	return count
}

// Voxelizer scatters points onto a dense cubic grid, with max aggregation per cell, and projects the grid
// to 2D views.
type Voxelizer struct {
	// Channels is the number of features of each point.
	Channels int

	// Resolution of the grid on each of the 3 axes.
	Resolution int

	// Views generated by Project.
	Views Views
}

// NewVoxelizer validates the configuration and returns a Voxelizer.
// views is a combination of "H", "W" and "Z", see ParseViews.
func NewVoxelizer(channels, resolution int, views string) (*Voxelizer, error) {
	if channels <= 0 {
		return nil, errors.Errorf("voxelizer requires channels > 0, got %d", channels)
	}
	if resolution <= 0 {
		return nil, errors.Errorf("voxelizer requires resolution > 0, got %d", resolution)
	}
	parsedViews, err := ParseViews(views)
	if err != nil {
		return nil, err
	}
	return &Voxelizer{Channels: channels, Resolution: resolution, Views: parsedViews}, nil
}

// NewVoxelizerFromContext creates a Voxelizer with the resolution and views configured in ctx
// (ParamResolution and ParamViews).
func NewVoxelizerFromContext(ctx *context.Context, channels int) (*Voxelizer, error) {
	return NewVoxelizer(channels,
		context.GetParamOr(ctx, ParamResolution, DefaultResolution),
		context.GetParamOr(ctx, ParamViews, DefaultViews))
}

// Voxelize returns the projected views of the voxelized points, see Grid and Project.
func (v *Voxelizer) Voxelize(coords, features *Node, numBatches int) *Node {
	return v.Project(v.Grid(coords, features, numBatches))
}

// Grid scatters the points onto a dense grid shaped `[numBatches, channels, resolution, resolution, resolution]`.
//
//   - coords: `[numPoints, 4]`, the first 3 columns are normalized to [0, 1] (see CropBoxes), the last one is
//     the batch index (the box index after cropping).
//   - features: `[numPoints, channels]`.
//
// Normalized coordinates are scaled by the resolution and floored, a coordinate of 1.0 is placed in the last cell.
// Cells with more than one point take the max of each channel, and cells without points are 0. Points with a
// coordinate outside [0, 1], or whose batch index is outside [0, numBatches), are dropped.
func (v *Voxelizer) Grid(coords, features *Node, numBatches int) *Node {
	return v.GridMasked(coords, features, nil, numBatches)
}

// GridMasked is like Grid, but only the points where mask (shaped `[numPoints]`) is true are considered.
// If mask is nil, all points are considered.
func (v *Voxelizer) GridMasked(coords, features, mask *Node, numBatches int) *Node {
	g := coords.Graph()
	if coords.Rank() != 2 || coords.Shape().Dimensions[1] != pointcloud.CoordsDim {
		exceptions.Panicf("Voxelizer: coords must be shaped [numPoints, %d], got %s", pointcloud.CoordsDim, coords.Shape())
	}
	numPoints := coords.Shape().Dimensions[0]
	if features.Rank() != 2 || features.Shape().Dimensions[0] != numPoints || features.Shape().Dimensions[1] != v.Channels {
		exceptions.Panicf("Voxelizer: features must be shaped [%d, %d], got %s", numPoints, v.Channels, features.Shape())
	}
	if numBatches <= 0 {
		exceptions.Panicf("Voxelizer: numBatches must be > 0, got %d", numBatches)
	}
	res := v.Resolution
	dtype := features.DType()

	xyz := Slice(coords, AxisRange(), AxisRange(0, 3))
	inGrid := ReduceLogicalAnd(LogicalAnd(
		GreaterOrEqual(xyz, ScalarZero(g, xyz.DType())),
		LessOrEqual(xyz, ScalarOne(g, xyz.DType()))), -1) // [numPoints]
	cells := Floor(MulScalar(xyz, float64(res)))
	cells = ConvertDType(ClipScalar(cells, 0, float64(res-1)), dtypes.Int32)

	batch := Slice(coords, AxisRange(), AxisElem(3)) // [numPoints, 1]
	valid := LogicalAnd(
		GreaterOrEqual(batch, ScalarZero(g, batch.DType())),
		LessThan(batch, Scalar(g, batch.DType(), float64(numBatches))))
	valid = LogicalAnd(Reshape(valid, numPoints), inGrid)
	if mask != nil {
		valid = LogicalAnd(valid, mask)
	}
	batch = ConvertDType(ClipScalar(batch, 0, float64(numBatches-1)), dtypes.Int32)
	indices := Concatenate([]*Node{batch, cells}, -1) // [numPoints, 4]

	lowest := Infinity(g, dtype, -1)
	updates := Where(valid, features, lowest)
	grid := BroadcastToDims(lowest, numBatches, res, res, res, v.Channels)
	grid = ScatterMax(grid, indices, updates, false, false)
	grid = Where(Equal(grid, lowest), ZerosLike(grid), grid)
	return TransposeAllAxes(grid, 0, 4, 1, 2, 3)
}

// Project max-pools the grid `[numBatches, channels, R, R, R]` along the axes of the selected views,
// in the order H, W, Z, and concatenates them along the batch axis: the output is shaped
// `[numViews*numBatches, channels, R, R]`.
func (v *Voxelizer) Project(grid *Node) *Node {
	dims := grid.Shape().Dimensions
	if grid.Rank() != 5 {
		exceptions.Panicf("Voxelizer.Project: grid must be shaped [batch, channels, R, R, R], got %s", grid.Shape())
	}
	if dims[2] != v.Resolution || dims[3] != v.Resolution || dims[4] != v.Resolution {
		exceptions.Panicf("Voxelizer.Project: grid %s doesn't match the configured resolution %d", grid.Shape(), v.Resolution)
	}
	if dims[1] != v.Channels {
		exceptions.Panicf("Voxelizer.Project: grid %s doesn't match the configured channels %d", grid.Shape(), v.Channels)
	}
	if v.Views == 0 {
		exceptions.Panicf("Voxelizer.Project: no view selected")
	}
	projections := make([]*Node, 0, v.Views.Count())
	for _, vl := range viewLetters {
		if v.Views&vl.view != 0 {
			projections = append(projections, ReduceMax(grid, vl.axis))
		}
	}
	if len(projections) == 1 {
		return projections[0]
	}
	return Concatenate(projections, 0)
}
