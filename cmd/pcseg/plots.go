// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// TrainingPlotFileName is the name of the plot of the training metrics saved in the checkpoint directory.
const TrainingPlotFileName = "training_metrics.png"

// trainingCurves collects the training metrics during a training loop.
type trainingCurves struct {
	names  []string
	curves []plotter.XYs
}

// recordTrainingCurves collects the train metrics of loop every n steps and at the end of the loop.
// The "Batch Loss" is skipped, it fluctuates too much to be informative.
func recordTrainingCurves(loop *train.Loop, n int) *trainingCurves {
	c := &trainingCurves{}
	lastStep := -1
	collect := func(loop *train.Loop, metrics []*tensors.Tensor) error {
		if loop.LoopStep == lastStep {
			return nil
		}
		lastStep = loop.LoopStep
		for ii, desc := range loop.Trainer.TrainMetrics() {
			if desc.Name() == "Batch Loss" {
				continue
			}
			c.add(desc.Name(), float64(loop.LoopStep), shapes.ConvertTo[float64](metrics[ii].Value()))
		}
		return nil
	}
	train.EveryNSteps(loop, n, "training curves", 200, collect)
	loop.OnEnd("training curves", 200, collect)
	return c
}

// add a point to the curve of metric name.
func (c *trainingCurves) add(name string, step, value float64) {
	for ii, existing := range c.names {
		if existing == name {
			c.curves[ii] = append(c.curves[ii], plotter.XY{X: step, Y: value})
			return
		}
	}
	c.names = append(c.names, name)
	c.curves = append(c.curves, plotter.XYs{{X: step, Y: value}})
}

// Save the curves as a PNG image in filePath.
func (c *trainingCurves) Save(filePath string) error {
	if len(c.names) == 0 {
		return errors.New("no training metrics were collected")
	}
	p := plot.New()
	p.Title.Text = "Matting head training"
	p.X.Label.Text = "steps"
	p.Legend.Top = true
	for ii, name := range c.names {
		line, err := plotter.NewLine(c.curves[ii])
		if err != nil {
			return errors.Wrapf(err, "failed to plot %q", name)
		}
		line.Color = plotutil.Color(ii)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, filePath); err != nil {
		return errors.Wrapf(err, "failed to save training plot to %q", filePath)
	}
	return nil
}
