// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package projector

import (
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/pkg/errors"
)

const (
	// ParamMattingChannels is the context hyperparameter with the number of outputs of the matting head.
	// It defaults to 2 (foreground and background logits).
	ParamMattingChannels = "matting_channels"

	// ParamResolution is the context hyperparameter with the voxel grid resolution (the same on the 3 axes).
	// It defaults to 256.
	ParamResolution = "voxel_resolution"

	// ParamViews is the context hyperparameter with the projections generated by the voxelizer,
	// any combination of "H", "W" and "Z". It defaults to "HWZ".
	ParamViews = "voxel_views"

	// ParamZeroExtent is the context hyperparameter with the ExtentPolicy used when cropping.
	// It defaults to "skip".
	ParamZeroExtent = "crop_zero_extent"
)

const (
	DefaultMattingChannels = 2
	DefaultResolution      = 256
	DefaultViews           = "HWZ"
)

// ExtentPolicy defines how cropped coordinates are normalized along an axis where all the selected points
// have the same value (zero extent), which would otherwise be a division by zero.
type ExtentPolicy int

//go:generate go tool enumer -type=ExtentPolicy -trimprefix=Extent -transform=snake -output=gen_extentpolicy_enumer.go params.go

const (
	// ExtentSkip doesn't scale the zero-extent axis: since values are shifted by their minimum, they become 0.
	ExtentSkip ExtentPolicy = iota

	// ExtentCenter places the points at 0.5 on the zero-extent axis.
	ExtentCenter
)

// ExtentPolicyFromContext returns the ExtentPolicy configured in ctx (ParamZeroExtent).
func ExtentPolicyFromContext(ctx *context.Context) (ExtentPolicy, error) {
	name := context.GetParamOr(ctx, ParamZeroExtent, ExtentSkip.String())
	policy, err := ExtentPolicyString(name)
	if err != nil {
		return ExtentSkip, errors.Wrapf(err, "invalid value for hyperparameter %q", ParamZeroExtent)
	}
	return policy, nil
}
