// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package projector implements the point cloud side of a weakly-supervised segmentation model: boxes proposed
// over a scene are cropped out of the point cloud (CropBoxes), each point is classified as foreground or background
// (Matting), and the per-point class probabilities are voxelized and projected to 2D views (Voxelizer), which can
// then be compared against image or text embeddings.
//
// The graph building functions panic on invalid inputs (with exceptions.Panicf), as usual in GoMLX. The host-side
// helpers (Cropper, NewVoxelizer) return errors.
package projector

import (
	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
)

// ViewMasks runs the matting head over the cropped points and voxelizes the resulting class probabilities.
//
//   - coords: `[numPoints, 4]` cropped coordinates, normalized to [0, 1], with the box index in the last column.
//   - features: `[numPoints, numChannels]`.
//   - numBoxes: number of boxes referred by the coordinates.
//
// It returns the matting logits `[numPoints, matting_channels]` and the view masks
// `[numViews*numBoxes, matting_channels, R, R]`.
// The voxelizer must be configured with as many channels as the matting head outputs.
func ViewMasks(ctx *context.Context, voxelizer *Voxelizer, coords, features *Node, numBoxes int) (logits, viewMasks *Node) {
	coords, logits = Matting(ctx, coords, features)
	numClasses := logits.Shape().Dimensions[1]
	if numClasses != voxelizer.Channels {
		exceptions.Panicf("ViewMasks: matting head outputs %d channels, but the voxelizer is configured for %d",
			numClasses, voxelizer.Channels)
	}
	probabilities := Softmax(logits, -1)
	viewMasks = voxelizer.Voxelize(coords, probabilities, numBoxes)
	return
}
