// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// pcseg demonstrates the point cloud segmentation ops on synthetic scenes: it crops boxes around objects, trains
// the matting head to separate the object points from the background, and projects the per-point class
// probabilities of each box to 2D view masks.
//
// Hyperparameters can be changed with -set, e.g.: pcseg -set="voxel_resolution=64;voxel_views=HZ".
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/context/checkpoints"
	"github.com/gomlx/gomlx/pkg/ml/datasets"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/gomlx/gomlx/pkg/ml/train/metrics"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers"
	"github.com/gomlx/gomlx/ui/commandline"
	"github.com/gomlx/pcseg/pkg/losses"
	"github.com/gomlx/pcseg/pkg/pointcloud"
	"github.com/gomlx/pcseg/pkg/projector"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	_ "github.com/gomlx/gomlx/backends/default"
)

var flagCheckpoint = flag.String("checkpoint", "", "Directory to save and load checkpoints of the matting head. "+
	"If left empty, no checkpoints are created.")

func main() {
	ctx := CreateDefaultContext()
	settings := commandline.CreateContextSettingsFlag(ctx, "")
	klog.InitFlags(nil)
	flag.Parse()
	paramsSet := must.M1(commandline.ParseContextSettings(ctx, *settings))
	backend := backends.MustNew()
	fmt.Printf("Backend: %s, %s\n", backend.Name(), backend.Description())

	err := exceptions.TryCatch[error](func() {
		must.M(run(ctx, backend, *flagCheckpoint, paramsSet))
	})
	if err != nil {
		klog.Fatalf("Failed with error: %+v", err)
	}
}

func run(ctx *context.Context, backend backends.Backend, checkpointPath string, paramsSet []string) error {
	var checkpoint *checkpoints.Handler
	if checkpointPath != "" {
		var err error
		checkpoint, err = checkpoints.Build(ctx).Dir(checkpointPath).
			Keep(context.GetParamOr(ctx, paramNumCheckpoints, 3)).
			ExcludeParams(paramsSet...).
			Done()
		if err != nil {
			return err
		}
		fmt.Printf("Checkpoint: %q\n", checkpoint.Dir())
	}

	rng := rand.New(rand.NewSource(int64(context.GetParamOr(ctx, paramSceneSeed, 42))))
	scenes, err := synthesizeScenes(rng,
		context.GetParamOr(ctx, paramNumScenes, 3),
		context.GetParamOr(ctx, paramPointsPerScene, 2_000),
		context.GetParamOr(ctx, paramNumFeatures, 4))
	if err != nil {
		return err
	}
	fmt.Printf("Scenes: %s, %d boxes\n", scenes.cloud, len(scenes.boxes))
	logBoxes(scenes.boxes)

	policy, err := projector.ExtentPolicyFromContext(ctx)
	if err != nil {
		return err
	}
	cropped, err := projector.NewCropper(backend, policy).Crop(scenes.cloud, scenes.boxes, scenes.transform)
	if err != nil {
		return err
	}
	if cropped.NumPoints() == 0 {
		return errors.New("no points inside the boxes")
	}
	features, labels := splitLabels(cropped)
	fmt.Printf("Cropped: %d points in %d boxes\n", cropped.NumPoints(), cropped.NumBatches)

	if err := trainMatting(ctx, backend, checkpoint, rng, cropped.Coords, features, labels); err != nil {
		return err
	}

	voxelizer, err := projector.NewVoxelizerFromContext(ctx,
		context.GetParamOr(ctx, projector.ParamMattingChannels, projector.DefaultMattingChannels))
	if err != nil {
		return err
	}
	acc, viewMasks, err := projectViews(ctx.Reuse(), backend, voxelizer, cropped, features, labels)
	if err != nil {
		return err
	}
	fmt.Printf("Matting accuracy: %.2f%%\n", 100*acc)
	fmt.Printf("View masks (%s views x %d boxes): %s\n", voxelizer.Views, cropped.NumBatches, viewMasks.Shape())
	return nil
}

// projectViews runs the matting head on the cropped points and returns its accuracy on the labels (see
// losses.SparseAccuracy) and the view masks of the boxes.
func projectViews(ctx *context.Context, backend backends.Backend, voxelizer *projector.Voxelizer,
	cropped *pointcloud.Cloud, features, labels *tensors.Tensor) (acc float64, viewMasks *tensors.Tensor, err error) {
	numBoxes := cropped.NumBatches
	exec := context.MustNewExec(backend, ctx, func(ctx *context.Context, coords, features, labels *Node) []*Node {
		logits, viewMasks := projector.ViewMasks(ctx, voxelizer, coords, features, numBoxes)
		return []*Node{losses.SparseAccuracy(logits, labels), viewMasks}
	})
	var accT *tensors.Tensor
	accT, viewMasks, err = exec.Exec2(cropped.Coords, features, labels)
	if err != nil {
		return
	}
	acc = shapes.ConvertTo[float64](accT.Value())
	return
}

// trainMatting trains the matting head on the cropped points, with the loss configured in the context.
// If checkpoint is not nil, it is saved every minute and at the end of the training, along with a plot
// of the training metrics (TrainingPlotFileName).
func trainMatting(ctx *context.Context, backend backends.Backend, checkpoint *checkpoints.Handler, rng *rand.Rand,
	coords, features, labels *tensors.Tensor) error {
	lossFn, err := losses.FromContext(ctx)
	if err != nil {
		return err
	}
	numPoints := coords.Shape().Dimensions[0]
	batchSize := min(context.GetParamOr(ctx, paramBatchSize, 256), numPoints)
	ds, err := datasets.InMemoryFromData(backend, "cropped points", []any{coords, features}, []any{labels})
	if err != nil {
		return err
	}
	ds = ds.WithRand(rng).Infinite(true).Shuffle().BatchSize(batchSize, false)

	modelFn := func(ctx *context.Context, _ any, inputs []*Node) []*Node {
		_, logits := projector.Matting(ctx, inputs[0], inputs[1])
		return []*Node{logits}
	}
	trainer := train.NewTrainer(backend, ctx, modelFn, lossFn, optimizers.FromContext(ctx),
		[]metrics.Interface{losses.NewMovingAverageSparseAccuracy("Moving Average Accuracy", "~acc", 0.01)}, // trainMetrics
		nil) // evalMetrics
	loop := train.NewLoop(trainer)
	commandline.AttachProgressBar(loop)
	var curves *trainingCurves
	if checkpoint != nil {
		train.PeriodicCallback(loop, time.Minute, true, "saving checkpoint", 100,
			func(_ *train.Loop, _ []*tensors.Tensor) error {
				return checkpoint.Save()
			})
		curves = recordTrainingCurves(loop, context.GetParamOr(ctx, paramPlotSteps, 10))
	}
	if _, err = loop.RunSteps(ds, context.GetParamOr(ctx, paramTrainSteps, 300)); err != nil {
		return err
	}
	if curves != nil {
		return curves.Save(filepath.Join(checkpoint.Dir(), TrainingPlotFileName))
	}
	return nil
}

// logBoxes logs the boxes of the scenes at verbosity 1.
func logBoxes(boxes []pointcloud.Box) {
	for ii, box := range boxes {
		klog.V(1).Infof("boxes[%d] = %s", ii, box)
	}
}
