// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"path/filepath"
	"testing"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/core/tensors/numpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	dir := t.TempDir()
	*flagRows = 1

	proposalsPath := filepath.Join(dir, "proposals.npy")
	proposals := tensors.FromValue([][]float32{
		{0, 0, 0, 1, 1, 1},
		{1, 2, 3, 0, 1, 1}, // Zero length on X.
		{1, 2, 3, 2, 2, 2},
	})
	require.NoError(t, numpy.ToNpyFile(proposals, proposalsPath))
	otherPath := filepath.Join(dir, "other.npy")
	require.NoError(t, numpy.ToNpyFile(tensors.FromValue([]float64{1, 2, 3}), otherPath))

	loaded, err := loadAll([]string{proposalsPath, otherPath}, 2)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, []int{3, 6}, loaded[0].Shape().Dimensions)
	assert.Equal(t, 1, report(proposalsPath, loaded[0]))

	// Arrays that are not boxes are only summarized.
	assert.Equal(t, 0, report(otherPath, loaded[1]))

	_, err = loadAll([]string{proposalsPath, filepath.Join(dir, "missing.npy")}, 1)
	require.Error(t, err)
}
