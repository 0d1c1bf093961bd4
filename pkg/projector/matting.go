// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package projector

import (
	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers"
)

// Matting is a per-point linear projection of the features to ParamMattingChannels outputs (by default 2: the
// foreground and background logits). The coordinates are returned unchanged.
//
// Its weights are created under the scope "matting" of ctx.
//
//   - coords: `[numPoints, 4]`.
//   - features: `[numPoints, numChannels]`.
//   - logits: `[numPoints, matting_channels]`.
func Matting(ctx *context.Context, coords, features *Node) (sameCoords, logits *Node) {
	outChannels := context.GetParamOr(ctx, ParamMattingChannels, DefaultMattingChannels)
	if outChannels <= 0 {
		exceptions.Panicf("Matting: %q must be > 0, got %d", ParamMattingChannels, outChannels)
	}
	if features.Rank() != 2 {
		exceptions.Panicf("Matting: features must be shaped [numPoints, numChannels], got %s", features.Shape())
	}
	logits = layers.Dense(ctx.In("matting"), features, true, outChannels)
	return coords, logits
}
