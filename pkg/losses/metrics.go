// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package losses

import (
	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/train/metrics"
)

// SparseAccuracy returns the fraction of examples whose argmax of logits `[batchSize, numClasses]` is the label
// `[batchSize]`, skipping the labels equal to IgnoreIndex. It is 0 if all labels are ignored.
func SparseAccuracy(logits, labels *Node) *Node {
	g := logits.Graph()
	dtype := logits.DType()
	if logits.Rank() != 2 || labels.Rank() != 1 || labels.Shape().Dimensions[0] != logits.Shape().Dimensions[0] ||
		!labels.DType().IsInt() {
		exceptions.Panicf("SparseAccuracy: logits must be shaped [batchSize, numClasses] and labels [batchSize] integers, "+
			"got logits %s and labels %s", logits.Shape(), labels.Shape())
	}
	valid := NotEqual(labels, Scalar(g, labels.DType(), IgnoreIndex))
	correct := LogicalAnd(valid, Equal(ArgMax(logits, -1, labels.DType()), labels))
	count := ReduceAllSum(ConvertDType(valid, dtype))
	return Div(ReduceAllSum(ConvertDType(correct, dtype)), Max(count, ScalarOne(g, dtype)))
}

func sparseAccuracyGraph(_ *context.Context, labels, predictions []*Node) *Node {
	return SparseAccuracy(predictions[0], labels[0])
}

// NewMovingAverageSparseAccuracy returns a training metric with the moving average of SparseAccuracy.
// A typical value of newExampleWeight is 0.01.
func NewMovingAverageSparseAccuracy(name, shortName string, newExampleWeight float64) metrics.Interface {
	return metrics.NewExponentialMovingAverageMetric(name, shortName, metrics.AccuracyMetricType,
		sparseAccuracyGraph, nil, newExampleWeight)
}

// NewMeanSparseAccuracy returns an evaluation metric with the mean of SparseAccuracy.
func NewMeanSparseAccuracy(name, shortName string) metrics.Interface {
	return metrics.NewMeanMetric(name, shortName, metrics.AccuracyMetricType, sparseAccuracyGraph, nil)
}
