// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers"
	"github.com/gomlx/pcseg/pkg/losses"
	"github.com/gomlx/pcseg/pkg/projector"
)

const (
	paramNumScenes      = "num_scenes"
	paramPointsPerScene = "points_per_scene"
	paramNumFeatures    = "num_features"
	paramSceneSeed      = "scene_seed"
	paramTrainSteps     = "train_steps"
	paramBatchSize      = "batch_size"
	paramNumCheckpoints = "num_checkpoints"
	paramPlotSteps      = "plot_steps"
)

// CreateDefaultContext sets the context with the default hyperparameters of the demo.
func CreateDefaultContext() *context.Context {
	ctx := context.New()
	ctx.SetParams(map[string]any{
		// Synthetic scenes: each one has a single spherical object, with random points around it.
		paramNumScenes:      3,
		paramPointsPerScene: 2_000,
		paramNumFeatures:    4,
		paramSceneSeed:      42,

		// Training of the matting head.
		paramTrainSteps:              300,
		paramBatchSize:               256,
		paramNumCheckpoints:          3,
		paramPlotSteps:               10, // Steps between points of the training plot.
		optimizers.ParamOptimizer:    "adam",
		optimizers.ParamLearningRate: 0.01,
		losses.ParamLoss:             losses.NameClassification.String(),
		losses.ParamLabelKind:        losses.LabelKindSparseIndex.String(),

		// Projection.
		projector.ParamMattingChannels: projector.DefaultMattingChannels,
		projector.ParamZeroExtent:      projector.ExtentSkip.String(),
		projector.ParamResolution:      32, // Smaller than the default, the demo runs on CPU.
		projector.ParamViews:           projector.DefaultViews,
	})
	return ctx
}
