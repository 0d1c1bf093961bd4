// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package pointcloud

import (
	"fmt"
	"math"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// BoxDim is the size of the last axis of a boxes tensor: center (3), lengths (3) and batch index.
const BoxDim = 7

// Box is an axis-aligned crop region, in the reference frame of its scene (after the scene's Transform).
type Box struct {
	Center r3.Vec

	// Size holds the full length of the box along each axis.
	Size r3.Vec

	// Batch is the index of the scene the box refers to.
	Batch int
}

// Min returns the lowest corner of the box.
func (b Box) Min() r3.Vec { return r3.Sub(b.Center, r3.Scale(0.5, b.Size)) }

// Max returns the highest corner of the box.
func (b Box) Max() r3.Vec { return r3.Add(b.Center, r3.Scale(0.5, b.Size)) }

// Validate returns an error for degenerate boxes: non-finite values, non-positive lengths or
// a negative batch index.
func (b Box) Validate() error {
	for axis, v := range [...]float64{b.Center.X, b.Center.Y, b.Center.Z, b.Size.X, b.Size.Y, b.Size.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("box %s has a non-finite value at position %d", b, axis)
		}
	}
	if b.Size.X <= 0 || b.Size.Y <= 0 || b.Size.Z <= 0 {
		return errors.Errorf("degenerate box %s: all lengths must be > 0", b)
	}
	if b.Batch < 0 {
		return errors.Errorf("box %s has a negative batch index", b)
	}
	return nil
}

// String implements fmt.Stringer.
func (b Box) String() string {
	return fmt.Sprintf("Box{center=(%g, %g, %g), size=(%g, %g, %g), batch=%d}",
		b.Center.X, b.Center.Y, b.Center.Z, b.Size.X, b.Size.Y, b.Size.Z, b.Batch)
}

// ValidateBoxes validates each box and checks that they refer to one of the numBatches scenes.
func ValidateBoxes(boxes []Box, numBatches int) error {
	for ii, box := range boxes {
		if err := box.Validate(); err != nil {
			return errors.WithMessagef(err, "boxes[%d]", ii)
		}
		if box.Batch >= numBatches {
			return errors.Errorf("boxes[%d] refers to batch %d, but there are only %d batches", ii, box.Batch, numBatches)
		}
	}
	return nil
}

// ParseBoxes converts a tensor of boxes to a slice of Box.
//
// The tensor can be shaped `[numBoxes, 7]`, where the last column is the batch index, or
// `[numBoxes, 6]`, as stored by the proposal files, in which case all boxes are assigned to batch.
// Float32 and Float64 tensors are accepted.
func ParseBoxes(t *tensors.Tensor, batch int) ([]Box, error) {
	shape := t.Shape()
	if shape.Rank() != 2 || (shape.Dimensions[1] != BoxDim && shape.Dimensions[1] != BoxDim-1) {
		return nil, errors.Errorf("boxes must be shaped [numBoxes, %d] or [numBoxes, %d], got %s", BoxDim, BoxDim-1, shape)
	}
	flat, err := FlatFloat64(t)
	if err != nil {
		return nil, err
	}
	numBoxes, width := shape.Dimensions[0], shape.Dimensions[1]
	boxes := make([]Box, numBoxes)
	for ii := range boxes {
		row := flat[ii*width : (ii+1)*width]
		boxes[ii] = Box{
			Center: r3.Vec{X: row[0], Y: row[1], Z: row[2]},
			Size:   r3.Vec{X: row[3], Y: row[4], Z: row[5]},
			Batch:  batch,
		}
		if width == BoxDim {
			boxes[ii].Batch = int(row[6])
		}
	}
	return boxes, nil
}

// BoxesTensor converts boxes to a `[numBoxes, 7]` tensor of the given float dtype.
func BoxesTensor(boxes []Box, dtype dtypes.DType) (*tensors.Tensor, error) {
	flat := make([]float64, 0, len(boxes)*BoxDim)
	for _, b := range boxes {
		flat = append(flat, b.Center.X, b.Center.Y, b.Center.Z, b.Size.X, b.Size.Y, b.Size.Z, float64(b.Batch))
	}
	return FloatTensor(dtype, flat, len(boxes), BoxDim)
}

// FlatFloat64 returns a copy of the tensor's flat values as float64. Only float tensors are accepted.
func FlatFloat64(t *tensors.Tensor) ([]float64, error) {
	var flat64 []float64
	err := t.ConstFlatData(func(flat any) {
		switch values := flat.(type) {
		case []float64:
			flat64 = make([]float64, len(values))
			copy(flat64, values)
		case []float32:
			flat64 = make([]float64, len(values))
			for ii, v := range values {
				flat64[ii] = float64(v)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if flat64 == nil {
		return nil, errors.Errorf("tensor dtype %s not supported, only Float32 and Float64", t.DType())
	}
	return flat64, nil
}

// FloatTensor creates a tensor of the given float dtype from float64 values.
func FloatTensor(dtype dtypes.DType, flat []float64, dimensions ...int) (*tensors.Tensor, error) {
	switch dtype {
	case dtypes.Float64:
		return tensors.FromFlatDataAndDimensions(flat, dimensions...), nil
	case dtypes.Float32:
		flat32 := make([]float32, len(flat))
		for ii, v := range flat {
			flat32[ii] = float32(v)
		}
		return tensors.FromFlatDataAndDimensions(flat32, dimensions...), nil
	default:
		return nil, errors.Errorf("dtype %s not supported, only Float32 and Float64", dtype)
	}
}
