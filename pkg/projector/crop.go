// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package projector

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/pcseg/pkg/pointcloud"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// TransformNodes is the graph version of pointcloud.Transform, see pointcloud.Transform.Tensors.
type TransformNodes struct {
	// Rotations shaped [numBatches, 3, 3].
	Rotations *Node
	// Centers shaped [numBatches, 3].
	Centers *Node
	// Offsets shaped [numBatches, 3].
	Offsets *Node
	// AxisAlign shaped [numBatches, 4, 4].
	AxisAlign *Node
}

// CropBoxes selects, for each box, the points of the box's scene that fall inside it, and normalizes
// their coordinates to [0, 1] within the box.
//
// All boxes are processed at once, with static shapes:
//
//   - coords: `[numPoints, 4]`, with (x, y, z, batch_id).
//   - boxes: `[numBoxes, 7]`, with (center_x, center_y, center_z, length_x, length_y, length_z, batch_id).
//   - tr: the per-scene transform, applied to the points before testing whether they are inside the box.
//
// It returns:
//
//   - boxCoords: `[numBoxes, numPoints, 4]`, the normalized coordinates of every point relative to every box,
//     with the last column set to the box index. Points not selected have their coordinates set to 0.
//   - mask: `[numBoxes, numPoints]`, true for the points inside the box.
//
// The per-axis normalization uses only the selected points of the box. Axes where the selected points have zero
// extent are handled according to policy. A box without points simply has an all-false mask row.
//
// Use pointcloud.Pack to concatenate the selected rows.
func CropBoxes(coords, boxes *Node, tr TransformNodes, policy ExtentPolicy) (boxCoords, mask *Node) {
	g := coords.Graph()
	dtype := coords.DType()
	if coords.Rank() != 2 || coords.Shape().Dimensions[1] != pointcloud.CoordsDim {
		exceptions.Panicf("CropBoxes: coords must be shaped [numPoints, %d], got %s", pointcloud.CoordsDim, coords.Shape())
	}
	if boxes.Rank() != 2 || boxes.Shape().Dimensions[1] != pointcloud.BoxDim {
		exceptions.Panicf("CropBoxes: boxes must be shaped [numBoxes, %d], got %s", pointcloud.BoxDim, boxes.Shape())
	}
	numPoints, numBoxes := coords.Shape().Dimensions[0], boxes.Shape().Dimensions[0]
	boxes = ConvertDType(boxes, dtype)

	// Box limits and batch.
	center := Slice(boxes, AxisRange(), AxisRange(0, 3))
	halfLength := DivScalar(Slice(boxes, AxisRange(), AxisRange(3, 6)), 2)
	lowCorner := broadcastPerPoint(Sub(center, halfLength), numPoints)
	highCorner := broadcastPerPoint(Add(center, halfLength), numPoints)
	boxBatch := Reshape(Slice(boxes, AxisRange(), AxisElem(6)), numBoxes)

	points := transformPoints(coords, boxBatch, tr)

	// Select points of the box's batch that are inside the box.
	pointBatch := Reshape(Slice(coords, AxisRange(), AxisElem(3)), numPoints)
	mask = Equal(
		BroadcastToDims(InsertAxes(pointBatch, 0), numBoxes, numPoints),
		BroadcastToDims(InsertAxes(boxBatch, -1), numBoxes, numPoints))
	inside := LogicalAnd(GreaterOrEqual(points, lowCorner), LessOrEqual(points, highCorner))
	for axis := range 3 {
		mask = LogicalAnd(mask, Reshape(Slice(inside, AxisRange(), AxisRange(), AxisElem(axis)), numBoxes, numPoints))
	}

	normalized := normalizeSelected(points, mask, policy)
	boxIndex := Iota(g, shapes.Make(dtype, numBoxes, numPoints, 1), 0)
	boxCoords = Concatenate([]*Node{normalized, boxIndex}, -1)
	return
}

// broadcastPerPoint converts a per-box vector `[numBoxes, 3]` to `[numBoxes, numPoints, 3]`.
func broadcastPerPoint(x *Node, numPoints int) *Node {
	dims := x.Shape().Dimensions
	return BroadcastToDims(InsertAxes(x, 1), dims[0], numPoints, dims[1])
}

// transformPoints returns the coordinates of all points in the frame of each box's scene:
// `[numBoxes, numPoints, 3]`.
func transformPoints(coords, boxBatch *Node, tr TransformNodes) *Node {
	g := coords.Graph()
	dtype := coords.DType()
	numPoints, numBoxes := coords.Shape().Dimensions[0], boxBatch.Shape().Dimensions[0]

	// Per-box transforms, gathered from the box's batch index.
	batchIndices := InsertAxes(ConvertDType(boxBatch, dtypes.Int32), -1)
	rotations := Gather(ConvertDType(tr.Rotations, dtype), batchIndices)  // [numBoxes, 3, 3]
	centers := Gather(ConvertDType(tr.Centers, dtype), batchIndices)      // [numBoxes, 3]
	offsets := Gather(ConvertDType(tr.Offsets, dtype), batchIndices)      // [numBoxes, 3]
	axisAlign := Gather(ConvertDType(tr.AxisAlign, dtype), batchIndices) // [numBoxes, 4, 4]

	xyz := Slice(coords, AxisRange(), AxisRange(0, 3))
	points := BroadcastToDims(InsertAxes(xyz, 0), numBoxes, numPoints, 3)
	points = Sub(points, broadcastPerPoint(offsets, numPoints))
	points = Einsum("mni,mij->mnj", points, rotations)
	points = Add(points, broadcastPerPoint(centers, numPoints))

	// Homogeneous coordinates, multiplied by the transposed axis alignment matrix.
	points = Concatenate([]*Node{points, Ones(g, shapes.Make(dtype, numBoxes, numPoints, 1))}, -1)
	points = Einsum("mni,mji->mnj", points, axisAlign)
	return Slice(points, AxisRange(), AxisRange(), AxisRange(0, 3))
}

// normalizeSelected min-max normalizes the points `[numBoxes, numPoints, 3]` per box and per axis, considering only
// the points selected by mask `[numBoxes, numPoints]`. Points not selected are set to 0.
func normalizeSelected(points, mask *Node, policy ExtentPolicy) *Node {
	g := points.Graph()
	dtype := points.DType()
	dims := points.Shape().Dimensions
	numPoints := dims[1]
	mask3D := BroadcastToDims(InsertAxes(mask, -1), dims...)

	lowest := MaskedReduceMin(points, mask3D, 1)
	highest := MaskedReduceMax(points, mask3D, 1)
	extent := Sub(highest, lowest)

	// Boxes without points have lowest > highest: they are also treated as zero extent, and
	// they are fully masked anyway.
	zeroExtent := LessOrEqual(extent, ScalarZero(g, dtype))
	extent = Where(zeroExtent, ScalarOne(g, dtype), extent)

	// Selected values on a zero extent axis are all equal to the minimum, so they become 0 here.
	normalized := Sub(points, broadcastPerPoint(lowest, numPoints))
	normalized = Div(normalized, broadcastPerPoint(extent, numPoints))
	if policy == ExtentCenter {
		zeroExtentPerPoint := BroadcastToDims(InsertAxes(zeroExtent, 1), dims...)
		normalized = Where(zeroExtentPerPoint, Scalar(g, dtype, 0.5), normalized)
	}
	return Where(mask3D, normalized, ZerosLike(normalized))
}

// Cropper executes CropBoxes on host point clouds and packs the results.
//
// It caches the compiled graphs per input shapes, so it should be reused across calls.
type Cropper struct {
	backend backends.Backend
	policy  ExtentPolicy
	exec    *Exec
}

// NewCropper creates a Cropper for the given backend.
func NewCropper(backend backends.Backend, policy ExtentPolicy) *Cropper {
	c := &Cropper{backend: backend, policy: policy}
	c.exec = MustNewExec(backend, func(inputs []*Node) (boxCoords, mask *Node) {
		tr := TransformNodes{Rotations: inputs[2], Centers: inputs[3], Offsets: inputs[4], AxisAlign: inputs[5]}
		return CropBoxes(inputs[0], inputs[1], tr, c.policy)
	})
	return c
}

// Crop returns the concatenation, box after box, of the points of cloud inside each of the boxes, with their
// coordinates normalized to [0, 1] within the box, and the batch column replaced by the box index.
// The returned Cloud has NumBatches set to the number of boxes.
//
// Degenerate boxes (see pointcloud.Box.Validate) are rejected with an error. Boxes with no points contribute
// no rows.
func (c *Cropper) Crop(cloud *pointcloud.Cloud, boxes []pointcloud.Box, tr *pointcloud.Transform) (*pointcloud.Cloud, error) {
	if err := cloud.Validate(); err != nil {
		return nil, err
	}
	if err := pointcloud.ValidateBoxes(boxes, cloud.NumBatches); err != nil {
		return nil, err
	}
	if err := tr.Validate(cloud.NumBatches); err != nil {
		return nil, err
	}
	dtype := cloud.Coords.DType()
	if len(boxes) == 0 || cloud.NumPoints() == 0 {
		return pointcloud.NewCloud(
			tensors.FromShape(shapes.Make(dtype, 0, pointcloud.CoordsDim)),
			tensors.FromShape(shapes.Make(cloud.Features.DType(), 0, cloud.NumChannels())),
			len(boxes))
	}
	boxesT, err := pointcloud.BoxesTensor(boxes, dtype)
	if err != nil {
		return nil, err
	}
	rotations, centers, offsets, axisAlign, err := tr.Tensors(dtype)
	if err != nil {
		return nil, err
	}

	var boxCoords, mask *tensors.Tensor
	err = exceptions.TryCatch[error](func() {
		var execErr error
		boxCoords, mask, execErr = c.exec.Exec2(cloud.Coords, boxesT, rotations, centers, offsets, axisAlign)
		if execErr != nil {
			panic(execErr)
		}
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to crop %d boxes from %s", len(boxes), cloud)
	}
	cropped, err := pointcloud.Pack(boxCoords, mask, cloud.Features)
	if err != nil {
		return nil, err
	}
	klog.V(2).Infof("cropped %d boxes from %s: %d points selected", len(boxes), cloud, cropped.NumPoints())
	return cropped, nil
}
