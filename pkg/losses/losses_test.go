// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package losses

import (
	"testing"

	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/graph/graphtest"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/gomlx/gomlx/backends/default"
)

const deltaForTests = 1e-4

func TestTextContrastive(t *testing.T) {
	graphtest.RunTestGraphFn(t, "two texts", func(g *Graph) (inputs, outputs []*Node) {
		pc := Const(g, [][]float32{{1, 0}, {0, 1}})
		text := Const(g, [][][]float32{{{1, 0}, {0, 1}}})
		hasText := Const(g, []int32{0})
		inputs = []*Node{pc, text, hasText}
		outputs = []*Node{TextContrastive(pc, text, hasText)}
		return
	}, []any{
		// Mean of log(1+e^-1) and log(1+e^1).
		float32(0.8132617),
	}, deltaForTests)

	// Each text points to its own scene: it matches the scene embedding exactly.
	graphtest.RunTestGraphFn(t, "one text per scene", func(g *Graph) (inputs, outputs []*Node) {
		pc := Const(g, [][]float32{{10, 0}, {0, 10}})
		text := Const(g, [][][]float32{{{0, 1}}, {{1, 0}}})
		hasText := Const(g, []int64{1, 0})
		inputs = []*Node{hasText}
		outputs = []*Node{TextContrastive(pc, text, hasText)}
		return
	}, []any{
		// log(1+e^-10)
		float32(4.539890e-05),
	}, deltaForTests)
}

func TestTextContrastiveNoText(t *testing.T) {
	graphtest.RunTestGraphFn(t, "no texts", func(g *Graph) (inputs, outputs []*Node) {
		pc := Const(g, [][]float32{{1, 2}, {3, 4}})
		text := Zeros(g, shapes.Make(dtypes.Float32, 0, 3, 2))
		hasText := Zeros(g, shapes.Make(dtypes.Int32, 0))
		loss := TextContrastive(pc, text, hasText)
		grad := Gradient(loss, pc)[0]
		inputs = []*Node{pc}
		outputs = []*Node{loss, grad}
		return
	}, []any{
		float32(0),
		[][]float32{{0, 0}, {0, 0}},
	}, deltaForTests)
}

func TestClassificationOneHot(t *testing.T) {
	graphtest.RunTestGraphFn(t, "multi-label", func(g *Graph) (inputs, outputs []*Node) {
		logits := Const(g, [][]float32{{0, 0}, {2, -1}})
		labels := Const(g, [][]float32{{1, 0}, {1, 0}})
		inputs = []*Node{logits, labels}
		outputs = []*Node{Classification(logits, labels, LabelKindOneHot)}
		return
	}, []any{
		// Mean of log(2), log(2), log(1+e^-2) and log(1+e^-1).
		float32(0.4566210),
	}, deltaForTests)
}

func TestClassificationSparse(t *testing.T) {
	graphtest.RunTestGraphFn(t, "ignored positions", func(g *Graph) (inputs, outputs []*Node) {
		logits := Const(g, [][]float32{{0, 0}, {1, 0}, {0, 3}})
		labels := Const(g, []int32{0, IgnoreIndex, 1})
		inputs = []*Node{labels}
		outputs = []*Node{Classification(logits, labels, LabelKindSparseIndex)}
		return
	}, []any{
		// Mean of log(2) and log(1+e^-3).
		float32(0.3708673),
	}, deltaForTests)

	// The ignored row would dominate the mean if it were counted.
	graphtest.RunTestGraphFn(t, "ignored row with large logits", func(g *Graph) (inputs, outputs []*Node) {
		logits := Const(g, [][]float32{{0, 0}, {-20, 20}})
		labels := Const(g, []int32{0, IgnoreIndex})
		loss := Classification(logits, labels, LabelKindSparseIndex)
		inputs = []*Node{logits, labels}
		outputs = []*Node{loss, Gradient(loss, logits)[0]}
		return
	}, []any{
		// log(2)
		float32(0.6931472),
		[][]float32{{-0.5, 0.5}, {0, 0}},
	}, deltaForTests)

	graphtest.RunTestGraphFn(t, "all ignored", func(g *Graph) (inputs, outputs []*Node) {
		logits := Const(g, [][]float32{{0, 5}, {1, 0}})
		labels := Const(g, []int32{IgnoreIndex, IgnoreIndex})
		loss := Classification(logits, labels, LabelKindSparseIndex)
		inputs = []*Node{labels}
		outputs = []*Node{loss, Gradient(loss, logits)[0]}
		return
	}, []any{
		float32(0),
		[][]float32{{0, 0}, {0, 0}},
	}, deltaForTests)
}

// buildError returns the error of building and executing fn with the given arguments.
func buildError(fn func(a, b *Node) *Node, args ...any) error {
	backend := graphtest.BuildTestBackend()
	return exceptions.TryCatch[error](func() {
		exec := MustNewExec(backend, fn)
		if _, err := exec.Exec1(args...); err != nil {
			panic(err)
		}
	})
}

func TestClassificationInvalidLabels(t *testing.T) {
	logits := [][]float32{{0, 0}, {1, 0}}
	err := buildError(func(logits, labels *Node) *Node {
		return Classification(logits, labels, LabelKindOneHot)
	}, logits, []int32{0, 1})
	require.Error(t, err)

	err = buildError(func(logits, labels *Node) *Node {
		return Classification(logits, labels, LabelKindSparseIndex)
	}, logits, [][]float32{{1, 0}, {0, 1}})
	require.Error(t, err)

	err = buildError(func(logits, labels *Node) *Node {
		return Classification(logits, labels, LabelKind(7))
	}, logits, []int32{0, 1})
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	_, err := New(Name(3), Config{})
	require.Error(t, err)
	_, err = New(NameClassification, Config{LabelKind: LabelKind(-1)})
	require.Error(t, err)

	lossFn, err := New(NameClassification, Config{LabelKind: LabelKindOneHot})
	require.NoError(t, err)
	exec := MustNewExec(backend, func(logits, labels *Node) *Node {
		return lossFn([]*Node{labels}, []*Node{logits})
	})
	loss, err := exec.Exec1([][]float32{{0, 0}}, [][]float32{{1, 0}})
	require.NoError(t, err)
	assert.InDelta(t, float32(0.6931472), loss.Value(), deltaForTests)

	ctx := context.New()
	_, err = FromContext(ctx)
	require.Error(t, err, "loss hyperparameter not set")

	ctx.SetParam(ParamLoss, "hinge")
	_, err = FromContext(ctx)
	require.Error(t, err)

	ctx.SetParams(map[string]any{ParamLoss: "text_contrastive", ParamLabelKind: "dense"})
	_, err = FromContext(ctx)
	require.Error(t, err)

	ctx.SetParam(ParamLabelKind, LabelKindSparseIndex.String())
	lossFn, err = FromContext(ctx)
	require.NoError(t, err)
	exec = MustNewExec(backend, func(pc, text, hasText *Node) *Node {
		return lossFn([]*Node{hasText}, []*Node{pc, text})
	})
	loss, err = exec.Exec1([][]float32{{1, 0}, {0, 1}}, [][][]float32{{{1, 0}, {0, 1}}}, []int32{0})
	require.NoError(t, err)
	assert.InDelta(t, float32(0.8132617), loss.Value(), deltaForTests)

	assert.Equal(t, []string{"text_contrastive", "classification"}, NameStrings())
	assert.Equal(t, []string{"one_hot", "sparse_index"}, LabelKindStrings())
}

func TestSparseAccuracy(t *testing.T) {
	graphtest.RunTestGraphFn(t, "SparseAccuracy", func(g *Graph) (inputs, outputs []*Node) {
		logits := Const(g, [][]float32{{1, 0}, {0, 1}, {0, 1}, {5, -5}})
		labels := Const(g, []int32{0, 0, 1, IgnoreIndex})
		inputs = []*Node{labels}
		outputs = []*Node{
			SparseAccuracy(logits, labels),
			SparseAccuracy(logits, Const(g, []int32{IgnoreIndex, IgnoreIndex, IgnoreIndex, IgnoreIndex})),
		}
		return
	}, []any{
		float32(2.0 / 3.0),
		float32(0),
	}, deltaForTests)
}
