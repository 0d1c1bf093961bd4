// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package pointcloud holds the host-side types of a batched point cloud: the points themselves
// (coordinates and features), the boxes used to crop them and the per-scene transforms that map
// raw coordinates into the boxes' frame.
//
// Coordinates are stored as a `[numPoints, 4]` tensor, where the last column is the index of the
// scene (the "batch id") the point belongs to. Features are stored as a `[numPoints, numChannels]`
// tensor, in the same order as the coordinates.
//
// The numeric work happens in the graph packages (see package projector); this package only
// validates, converts and packs tensors.
package pointcloud

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// CoordsDim is the size of the last axis of the coordinates: x, y, z and the batch (or box) index.
const CoordsDim = 4

// Cloud is a batch of point clouds.
type Cloud struct {
	// Coords shaped `[numPoints, 4]`: (x, y, z, batch_id).
	Coords *tensors.Tensor

	// Features shaped `[numPoints, numChannels]`.
	Features *tensors.Tensor

	// NumBatches is the number of scenes (or boxes, after cropping) referred by the last column of Coords.
	NumBatches int
}

// NewCloud validates and returns a Cloud.
func NewCloud(coords, features *tensors.Tensor, numBatches int) (*Cloud, error) {
	c := &Cloud{Coords: coords, Features: features, NumBatches: numBatches}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the shapes and dtypes of the cloud.
func (c *Cloud) Validate() error {
	if c.Coords == nil || c.Features == nil {
		return errors.New("point cloud requires both coordinates and features")
	}
	coordsShape, featuresShape := c.Coords.Shape(), c.Features.Shape()
	if coordsShape.Rank() != 2 || coordsShape.Dimensions[1] != CoordsDim {
		return errors.Errorf("point cloud coordinates must be shaped [numPoints, %d], got %s", CoordsDim, coordsShape)
	}
	if featuresShape.Rank() != 2 {
		return errors.Errorf("point cloud features must be shaped [numPoints, numChannels], got %s", featuresShape)
	}
	if coordsShape.Dimensions[0] != featuresShape.Dimensions[0] {
		return errors.Errorf("point cloud has %d coordinates but %d features", coordsShape.Dimensions[0], featuresShape.Dimensions[0])
	}
	if !coordsShape.DType.IsFloat() || !featuresShape.DType.IsFloat() {
		return errors.Errorf("point cloud coordinates (%s) and features (%s) must be floats", coordsShape.DType, featuresShape.DType)
	}
	if c.NumBatches < 0 {
		return errors.Errorf("invalid number of batches %d", c.NumBatches)
	}
	return nil
}

// NumPoints in the cloud.
func (c *Cloud) NumPoints() int { return c.Coords.Shape().Dimensions[0] }

// NumChannels is the dimension of the features of each point.
func (c *Cloud) NumChannels() int { return c.Features.Shape().Dimensions[1] }

// String implements fmt.Stringer.
func (c *Cloud) String() string {
	return fmt.Sprintf("Cloud(%d points, %d channels, %d batches)", c.NumPoints(), c.NumChannels(), c.NumBatches)
}

// Pack compacts a per-box crop, computed with static shapes, into a Cloud.
//
// boxCoords is shaped `[numBoxes, numPoints, 4]` with the last column holding the box index, mask is
// shaped `[numBoxes, numPoints]` and features is the original `[numPoints, numChannels]` features.
// The selected rows are concatenated box after box, preserving the points order within each box.
//
// If nothing is selected, it returns a cloud with 0 points.
func Pack(boxCoords, mask, features *tensors.Tensor) (*Cloud, error) {
	coordsShape, maskShape, featuresShape := boxCoords.Shape(), mask.Shape(), features.Shape()
	if coordsShape.Rank() != 3 || coordsShape.Dimensions[2] != CoordsDim {
		return nil, errors.Errorf("box coordinates must be shaped [numBoxes, numPoints, %d], got %s", CoordsDim, coordsShape)
	}
	numBoxes, numPoints := coordsShape.Dimensions[0], coordsShape.Dimensions[1]
	if maskShape.DType != dtypes.Bool || maskShape.Rank() != 2 ||
		maskShape.Dimensions[0] != numBoxes || maskShape.Dimensions[1] != numPoints {
		return nil, errors.Errorf("mask must be Bool[%d, %d], got %s", numBoxes, numPoints, maskShape)
	}
	if featuresShape.Rank() != 2 || featuresShape.Dimensions[0] != numPoints {
		return nil, errors.Errorf("features must be shaped [%d, numChannels], got %s", numPoints, featuresShape)
	}

	// Collect the (box, point) pairs selected.
	type selection struct{ box, point int }
	var selected []selection
	tensors.MustConstFlatData[bool](mask, func(flat []bool) {
		for ii, isSelected := range flat {
			if isSelected {
				selected = append(selected, selection{box: ii / numPoints, point: ii % numPoints})
			}
		}
	})

	numChannels := featuresShape.Dimensions[1]
	packedCoords := tensors.FromShape(shapes.Make(coordsShape.DType, len(selected), CoordsDim))
	packedFeatures := tensors.FromShape(shapes.Make(featuresShape.DType, len(selected), numChannels))
	if len(selected) > 0 {
		coordsRowBytes := CoordsDim * coordsShape.DType.Size()
		err := copyRows(boxCoords, packedCoords, coordsRowBytes, func(ii int) int {
			return selected[ii].box*numPoints + selected[ii].point
		})
		if err != nil {
			return nil, errors.WithMessage(err, "while packing coordinates")
		}
		featuresRowBytes := numChannels * featuresShape.DType.Size()
		err = copyRows(features, packedFeatures, featuresRowBytes, func(ii int) int {
			return selected[ii].point
		})
		if err != nil {
			return nil, errors.WithMessage(err, "while packing features")
		}
	}
	return NewCloud(packedCoords, packedFeatures, numBoxes)
}

// copyRows copies rows of rowBytes from the `from` tensor into `to`: row ii of `to` is row
// srcRow(ii) of `from`.
func copyRows(from, to *tensors.Tensor, rowBytes int, srcRow func(ii int) int) error {
	if rowBytes == 0 {
		return nil
	}
	var errTo error
	errFrom := from.ConstBytes(func(src []byte) {
		errTo = to.MutableBytes(func(dst []byte) {
			numRows := len(dst) / rowBytes
			for ii := range numRows {
				start := srcRow(ii) * rowBytes
				copy(dst[ii*rowBytes:(ii+1)*rowBytes], src[start:start+rowBytes])
			}
		})
	})
	if errFrom != nil {
		return errFrom
	}
	return errTo
}
