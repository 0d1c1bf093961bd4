// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package pointcloud

import (
	"math"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"k8s.io/klog/v2"
)

// Transform maps the raw coordinates of each scene into the frame the boxes are defined in:
//
//	p' = AxisAlign · [ (p - Offsets[b]) · Rotations[b] + Centers[b], 1 ]
//
// where b is the scene (batch) index of the point.
type Transform struct {
	// Rotations holds one 3x3 matrix per scene.
	Rotations []mat.Matrix

	// Centers holds one center offset per scene, added after the rotation.
	Centers []r3.Vec

	// Offsets holds one translation per scene, subtracted before the rotation.
	Offsets []r3.Vec

	// AxisAlign holds either one 4x4 matrix shared by all scenes, or one per scene.
	AxisAlign []mat.Matrix
}

var identity3 = mat.NewDiagDense(3, []float64{1, 1, 1})
var identity4 = mat.NewDiagDense(4, []float64{1, 1, 1, 1})

// IdentityTransform returns a Transform that leaves the coordinates of numBatches scenes unchanged.
func IdentityTransform(numBatches int) *Transform {
	tr := &Transform{
		Rotations: make([]mat.Matrix, numBatches),
		Centers:   make([]r3.Vec, numBatches),
		Offsets:   make([]r3.Vec, numBatches),
		AxisAlign: []mat.Matrix{identity4},
	}
	for ii := range tr.Rotations {
		tr.Rotations[ii] = identity3
	}
	return tr
}

// Validate checks that the transform covers numBatches scenes with matrices of the right dimensions.
//
// Rotations whose determinant is not ±1 are accepted (scaling is a valid use), but logged at verbosity 1.
func (tr *Transform) Validate(numBatches int) error {
	if len(tr.Rotations) != numBatches || len(tr.Centers) != numBatches || len(tr.Offsets) != numBatches {
		return errors.Errorf("transform must have one rotation, center and offset per batch (%d), got %d, %d and %d",
			numBatches, len(tr.Rotations), len(tr.Centers), len(tr.Offsets))
	}
	if len(tr.AxisAlign) != 1 && len(tr.AxisAlign) != numBatches {
		return errors.Errorf("transform must have 1 or %d axis alignment matrices, got %d", numBatches, len(tr.AxisAlign))
	}
	for ii, rot := range tr.Rotations {
		if rot == nil {
			return errors.Errorf("transform rotation #%d is nil", ii)
		}
		if r, c := rot.Dims(); r != 3 || c != 3 {
			return errors.Errorf("transform rotation #%d must be 3x3, got %dx%d", ii, r, c)
		}
		if det := mat.Det(rot); math.Abs(math.Abs(det)-1) > 1e-3 {
			klog.V(1).Infof("transform rotation #%d is not orthonormal (det=%g)", ii, det)
		}
	}
	for ii, align := range tr.AxisAlign {
		if align == nil {
			return errors.Errorf("transform axis alignment #%d is nil", ii)
		}
		if r, c := align.Dims(); r != 4 || c != 4 {
			return errors.Errorf("transform axis alignment #%d must be 4x4, got %dx%d", ii, r, c)
		}
	}
	return nil
}

// Tensors converts the transform to tensors of the given float dtype:
//
//   - rotations: `[numBatches, 3, 3]`
//   - centers: `[numBatches, 3]`
//   - offsets: `[numBatches, 3]`
//   - axisAlign: `[numBatches, 4, 4]`, a shared matrix is repeated for every batch.
func (tr *Transform) Tensors(dtype dtypes.DType) (rotations, centers, offsets, axisAlign *tensors.Tensor, err error) {
	numBatches := len(tr.Rotations)
	if err = tr.Validate(numBatches); err != nil {
		return
	}
	rotations, err = FloatTensor(dtype, flattenMatrices(tr.Rotations, numBatches), numBatches, 3, 3)
	if err != nil {
		return
	}
	centers, err = FloatTensor(dtype, flattenVecs(tr.Centers), numBatches, 3)
	if err != nil {
		return
	}
	offsets, err = FloatTensor(dtype, flattenVecs(tr.Offsets), numBatches, 3)
	if err != nil {
		return
	}
	axisAlign, err = FloatTensor(dtype, flattenMatrices(tr.AxisAlign, numBatches), numBatches, 4, 4)
	return
}

// flattenMatrices in row-major order. If there is only one matrix, it is repeated count times.
func flattenMatrices(matrices []mat.Matrix, count int) []float64 {
	var flat []float64
	for ii := range count {
		m := matrices[0]
		if len(matrices) > 1 {
			m = matrices[ii]
		}
		rows, cols := m.Dims()
		for r := range rows {
			for c := range cols {
				flat = append(flat, m.At(r, c))
			}
		}
	}
	return flat
}

func flattenVecs(vecs []r3.Vec) []float64 {
	flat := make([]float64, 0, 3*len(vecs))
	for _, v := range vecs {
		flat = append(flat, v.X, v.Y, v.Z)
	}
	return flat
}

// ApplyTo transforms a single point of the given batch, following the same formula used by the graph
// cropping. Useful to position boxes relative to known raw points.
func (tr *Transform) ApplyTo(p r3.Vec, batch int) r3.Vec {
	shifted := r3.Sub(p, tr.Offsets[batch])
	var rotated mat.VecDense
	rotated.MulVec(tr.Rotations[batch].T(), mat.NewVecDense(3, []float64{shifted.X, shifted.Y, shifted.Z}))
	center := tr.Centers[batch]

	align := tr.AxisAlign[0]
	if len(tr.AxisAlign) > 1 {
		align = tr.AxisAlign[batch]
	}
	homogeneous := mat.NewVecDense(4, []float64{
		rotated.AtVec(0) + center.X, rotated.AtVec(1) + center.Y, rotated.AtVec(2) + center.Z, 1})
	var aligned mat.VecDense
	aligned.MulVec(align, homogeneous)
	return r3.Vec{X: aligned.AtVec(0), Y: aligned.AtVec(1), Z: aligned.AtVec(2)}
}
