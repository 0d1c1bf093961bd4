// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package losses implements the losses used to train the point cloud segmentation model: TextContrastive, which
// aligns scene embeddings with the embeddings of their captions, and Classification, for scene level (multi-label)
// and point level (sparse, with ignored positions) classification.
//
// They can be called directly when building a graph, or through the registry (New, FromContext), which returns
// them with the signature of GoMLX's losses.LossFn, ready to be used by train.Trainer.
package losses

import (
	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	trainlosses "github.com/gomlx/gomlx/pkg/ml/train/losses"
)

// IgnoreIndex is the sparse label value of positions excluded from the Classification loss.
const IgnoreIndex = -100

// LabelKind defines the layout of the labels given to Classification.
type LabelKind int

//go:generate go tool enumer -type=LabelKind -trimprefix=LabelKind -transform=snake -output=gen_labelkind_enumer.go losses.go

const (
	// LabelKindOneHot labels are shaped like the logits `[batchSize, numClasses]`, with 1 for the classes present
	// and 0 otherwise (multi-hot is accepted).
	LabelKindOneHot LabelKind = iota

	// LabelKindSparseIndex labels are shaped `[batchSize]`, with the index of the true class, or IgnoreIndex.
	LabelKindSparseIndex
)

// TextContrastive returns the contrastive loss between scene embeddings and text embeddings.
//
//   - pc: scene embeddings shaped `[numScenes, embedDim]`.
//   - text: text embeddings shaped `[numTexts, textsPerScene, embedDim]`.
//   - hasText: integer `[numTexts]`, the index of the scene described by each group of texts.
//
// The similarity of each text with every scene is used as logits of a classification over the scenes, whose
// target is the scene given by hasText. The cross-entropy is averaged over all texts.
//
// If there are no texts (numTexts == 0) it returns a scalar zero of pc's dtype, which can be used like any other
// loss: its gradient is 0.
func TextContrastive(pc, text, hasText *Node) *Node {
	g := pc.Graph()
	if pc.Rank() != 2 {
		exceptions.Panicf("TextContrastive: pc must be shaped [numScenes, embedDim], got %s", pc.Shape())
	}
	embedDim := pc.Shape().Dimensions[1]
	if text.Rank() != 3 || text.Shape().Dimensions[2] != embedDim {
		exceptions.Panicf("TextContrastive: text must be shaped [numTexts, textsPerScene, %d], got %s", embedDim, text.Shape())
	}
	numTexts, textsPerScene := text.Shape().Dimensions[0], text.Shape().Dimensions[1]
	if hasText.Rank() != 1 || hasText.Shape().Dimensions[0] != numTexts || !hasText.DType().IsInt() {
		exceptions.Panicf("TextContrastive: hasText must be an integer tensor shaped [%d], got %s", numTexts, hasText.Shape())
	}
	if numTexts == 0 {
		return ScalarZero(g, pc.DType())
	}

	similarity := Einsum("tkm,bm->tkb", ConvertDType(text, pc.DType()), pc) // [numTexts, textsPerScene, numScenes]
	labels := BroadcastToDims(Reshape(hasText, numTexts, 1, 1), numTexts, textsPerScene, 1)
	return trainlosses.SparseCategoricalCrossEntropyLogits([]*Node{labels}, []*Node{similarity})
}

// Classification returns the classification loss of logits shaped `[batchSize, numClasses]`, for the given kind
// of labels:
//
//   - LabelKindOneHot: labels shaped `[batchSize, numClasses]`. It returns the multi-label soft margin loss,
//     that is, the binary cross-entropy of each class averaged over classes and examples.
//   - LabelKindSparseIndex: integer labels shaped `[batchSize]`. It returns the cross-entropy averaged over the
//     examples whose label is not IgnoreIndex. If all examples are ignored, the loss is 0.
//
// It panics if labels don't match the kind.
func Classification(logits, labels *Node, kind LabelKind) *Node {
	if logits.Rank() != 2 {
		exceptions.Panicf("Classification: logits must be shaped [batchSize, numClasses], got %s", logits.Shape())
	}
	switch kind {
	case LabelKindOneHot:
		if !labels.Shape().EqualDimensions(logits.Shape()) {
			exceptions.Panicf("Classification: %s labels must have the same dimensions as logits %s, got %s",
				kind, logits.Shape(), labels.Shape())
		}
		return trainlosses.BinaryCrossentropyLogits([]*Node{labels}, []*Node{logits})
	case LabelKindSparseIndex:
		return sparseClassification(logits, labels)
	default:
		exceptions.Panicf("Classification: unknown label kind %s", kind)
		return nil
	}
}

func sparseClassification(logits, labels *Node) *Node {
	g := logits.Graph()
	batchSize := logits.Shape().Dimensions[0]
	if labels.Rank() != 1 || labels.Shape().Dimensions[0] != batchSize || !labels.DType().IsInt() {
		exceptions.Panicf("Classification: %s labels must be integers shaped [%d], got %s",
			LabelKindSparseIndex, batchSize, labels.Shape())
	}
	valid := NotEqual(labels, Scalar(g, labels.DType(), IgnoreIndex))
	labels = Where(valid, labels, ZerosLike(labels))

	// The mask makes the mean skip ignored positions, and its denominator is at least 1, so a batch with
	// everything ignored has a 0 loss and 0 gradients.
	return trainlosses.SparseCategoricalCrossEntropyLogits([]*Node{InsertAxes(labels, -1), valid}, []*Node{logits})
}
