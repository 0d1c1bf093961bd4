// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package losses

import (
	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	trainlosses "github.com/gomlx/gomlx/pkg/ml/train/losses"
	"github.com/pkg/errors"
)

// Name of a registered loss.
type Name int

//go:generate go tool enumer -type=Name -trimprefix=Name -transform=snake -output=gen_name_enumer.go registry.go

const (
	// NameTextContrastive is the TextContrastive loss.
	// Its LossFn takes labels = {hasText} and predictions = {pc, text}.
	NameTextContrastive Name = iota

	// NameClassification is the Classification loss, with the Config.LabelKind labels.
	// Its LossFn takes labels = {labels} and predictions = {logits}.
	NameClassification
)

const (
	// ParamLoss is the context hyperparameter with the name of the loss, see Name.
	ParamLoss = "loss"

	// ParamLabelKind is the context hyperparameter with the LabelKind used by the Classification loss.
	// It defaults to "sparse_index".
	ParamLabelKind = "label_kind"
)

// Config holds the options of the registered losses.
type Config struct {
	// LabelKind of the labels given to the Classification loss.
	LabelKind LabelKind
}

// Factory creates a loss function for the given configuration.
type Factory func(cfg Config) trainlosses.LossFn

// KnownLosses maps the registered loss names to their factories.
var KnownLosses = map[Name]Factory{
	NameTextContrastive: func(_ Config) trainlosses.LossFn {
		return func(labels, predictions []*Node) *Node {
			if len(labels) != 1 || len(predictions) != 2 {
				exceptions.Panicf("loss %s expects labels={hasText} and predictions={pc, text}, got %d labels and %d predictions",
					NameTextContrastive, len(labels), len(predictions))
			}
			return TextContrastive(predictions[0], predictions[1], labels[0])
		}
	},
	NameClassification: func(cfg Config) trainlosses.LossFn {
		return func(labels, predictions []*Node) *Node {
			if len(labels) != 1 || len(predictions) != 1 {
				exceptions.Panicf("loss %s expects labels={labels} and predictions={logits}, got %d labels and %d predictions",
					NameClassification, len(labels), len(predictions))
			}
			return Classification(predictions[0], labels[0], cfg.LabelKind)
		}
	},
}

// New returns the loss function registered under name.
func New(name Name, cfg Config) (trainlosses.LossFn, error) {
	factory, found := KnownLosses[name]
	if !found {
		return nil, errors.Errorf("unknown loss %s, valid values are %q", name, NameStrings())
	}
	if !cfg.LabelKind.IsALabelKind() {
		return nil, errors.Errorf("invalid label kind %s for loss %s", cfg.LabelKind, name)
	}
	return factory(cfg), nil
}

// FromContext returns the loss function configured in ctx by the hyperparameters ParamLoss (required) and
// ParamLabelKind.
func FromContext(ctx *context.Context) (trainlosses.LossFn, error) {
	lossName := context.GetParamOr(ctx, ParamLoss, "")
	if lossName == "" {
		return nil, errors.Errorf("hyperparameter %q not set, valid values are %q", ParamLoss, NameStrings())
	}
	name, err := NameString(lossName)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid value for hyperparameter %q", ParamLoss)
	}
	kind, err := LabelKindString(context.GetParamOr(ctx, ParamLabelKind, LabelKindSparseIndex.String()))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid value for hyperparameter %q", ParamLabelKind)
	}
	return New(name, Config{LabelKind: kind})
}
