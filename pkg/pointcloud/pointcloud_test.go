// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package pointcloud

import (
	"testing"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestBoxValidate(t *testing.T) {
	good := Box{Center: r3.Vec{X: 1, Y: 2, Z: 3}, Size: r3.Vec{X: 1, Y: 1, Z: 1}}
	require.NoError(t, good.Validate())
	assert.Equal(t, r3.Vec{X: 0.5, Y: 1.5, Z: 2.5}, good.Min())
	assert.Equal(t, r3.Vec{X: 1.5, Y: 2.5, Z: 3.5}, good.Max())

	flat := good
	flat.Size.Z = 0
	require.Error(t, flat.Validate())

	negative := good
	negative.Batch = -1
	require.Error(t, negative.Validate())

	require.NoError(t, ValidateBoxes([]Box{good}, 1))
	require.Error(t, ValidateBoxes([]Box{good, {Center: good.Center, Size: good.Size, Batch: 1}}, 1))
}

func TestParseBoxes(t *testing.T) {
	withBatch := tensors.FromValue([][]float32{
		{0, 0, 0, 1, 2, 3, 1},
		{1, 1, 1, 2, 2, 2, 0},
	})
	boxes, err := ParseBoxes(withBatch, 7)
	require.NoError(t, err)
	want := []Box{
		{Center: r3.Vec{}, Size: r3.Vec{X: 1, Y: 2, Z: 3}, Batch: 1},
		{Center: r3.Vec{X: 1, Y: 1, Z: 1}, Size: r3.Vec{X: 2, Y: 2, Z: 2}, Batch: 0},
	}
	if diff := cmp.Diff(want, boxes); diff != "" {
		t.Errorf("ParseBoxes() mismatch (-want +got):\n%s", diff)
	}

	proposals := tensors.FromValue([][]float64{{0, 0, 0, 1, 2, 3}})
	boxes, err = ParseBoxes(proposals, 3)
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, 3, boxes[0].Batch)

	_, err = ParseBoxes(tensors.FromValue([][]float32{{1, 2, 3}}), 0)
	require.Error(t, err)
	_, err = ParseBoxes(tensors.FromValue([][]int32{{1, 2, 3, 4, 5, 6}}), 0)
	require.Error(t, err)

	// Round trip through the tensor representation.
	asTensor, err := BoxesTensor(want, dtypes.Float64)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0, 0, 1, 2, 3, 1}, {1, 1, 1, 2, 2, 2, 0}}, asTensor.Value())
}

func TestTransform(t *testing.T) {
	tr := IdentityTransform(2)
	require.NoError(t, tr.Validate(2))
	require.Error(t, tr.Validate(3))

	rotations, centers, offsets, axisAlign, err := tr.Tensors(dtypes.Float32)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 3}, rotations.Shape().Dimensions)
	assert.Equal(t, []int{2, 3}, centers.Shape().Dimensions)
	assert.Equal(t, []int{2, 3}, offsets.Shape().Dimensions)
	assert.Equal(t, []int{2, 4, 4}, axisAlign.Shape().Dimensions)
	assert.Equal(t, []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
		tensors.MustCopyFlatData[float32](axisAlign))

	// 90 degrees around Z with row vectors: (x, y, z) · R = (-y, x, z).
	tr.Rotations[1] = mat.NewDense(3, 3, []float64{
		0, 1, 0,
		-1, 0, 0,
		0, 0, 1,
	})
	tr.Offsets[1] = r3.Vec{X: 1}
	tr.Centers[1] = r3.Vec{Z: 10}
	got := tr.ApplyTo(r3.Vec{X: 2, Y: 3, Z: 4}, 1)
	assert.InDelta(t, -3.0, got.X, 1e-9)
	assert.InDelta(t, 1.0, got.Y, 1e-9)
	assert.InDelta(t, 14.0, got.Z, 1e-9)

	// Per batch axis alignment, batch 1 scales by 2 and shifts Y by 1.
	tr.AxisAlign = []mat.Matrix{identity4, mat.NewDense(4, 4, []float64{
		2, 0, 0, 0,
		0, 2, 0, 1,
		0, 0, 2, 0,
		0, 0, 0, 1,
	})}
	require.NoError(t, tr.Validate(2))
	got = tr.ApplyTo(r3.Vec{X: 2, Y: 3, Z: 4}, 1)
	assert.InDelta(t, -6.0, got.X, 1e-9)
	assert.InDelta(t, 3.0, got.Y, 1e-9)
	assert.InDelta(t, 28.0, got.Z, 1e-9)
	assert.Equal(t, r3.Vec{X: 2, Y: 3, Z: 4}, tr.ApplyTo(r3.Vec{X: 2, Y: 3, Z: 4}, 0))

	tr.AxisAlign = []mat.Matrix{mat.NewDense(3, 3, nil)}
	require.Error(t, tr.Validate(2))
}

func TestPack(t *testing.T) {
	// 2 boxes, 3 points.
	boxCoords := tensors.FromValue([][][]float32{
		{{0, 0, 0, 0}, {0.5, 0.5, 0.5, 0}, {1, 1, 1, 0}},
		{{0, 0, 0, 1}, {0, 0, 0, 1}, {1, 1, 1, 1}},
	})
	mask := tensors.FromValue([][]bool{
		{true, false, true},
		{false, false, true},
	})
	features := tensors.FromValue([][]float64{{10, 11}, {20, 21}, {30, 31}})
	cloud, err := Pack(boxCoords, mask, features)
	require.NoError(t, err)
	assert.Equal(t, 2, cloud.NumBatches)
	assert.Equal(t, 3, cloud.NumPoints())
	assert.Equal(t, [][]float32{{0, 0, 0, 0}, {1, 1, 1, 0}, {1, 1, 1, 1}}, cloud.Coords.Value())
	assert.Equal(t, [][]float64{{10, 11}, {30, 31}, {30, 31}}, cloud.Features.Value())

	// Nothing selected.
	empty, err := Pack(boxCoords, tensors.FromValue([][]bool{{false, false, false}, {false, false, false}}), features)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumPoints())
	assert.Equal(t, 2, empty.NumChannels())

	// Mismatched mask.
	_, err = Pack(boxCoords, tensors.FromValue([][]bool{{true, true, true}}), features)
	require.Error(t, err)
}

func TestNewCloud(t *testing.T) {
	coords := tensors.FromValue([][]float32{{0, 0, 0, 0}, {1, 1, 1, 0}})
	_, err := NewCloud(coords, tensors.FromValue([][]float32{{1}, {2}}), 1)
	require.NoError(t, err)
	_, err = NewCloud(coords, tensors.FromValue([][]float32{{1}}), 1)
	require.Error(t, err)
	_, err = NewCloud(tensors.FromValue([][]float32{{0, 0, 0}}), tensors.FromValue([][]float32{{1}}), 1)
	require.Error(t, err)
}
