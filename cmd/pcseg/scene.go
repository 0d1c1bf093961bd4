// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"math"
	"math/rand"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/pcseg/pkg/losses"
	"github.com/gomlx/pcseg/pkg/pointcloud"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	sceneHalfSize   = 5.0
	objectRadius    = 1.5
	ignoreMargin    = 0.2
	objectFraction  = 0.3
	foregroundShift = 2.0
)

// scene is a batch of synthetic scenes, each with one spherical object.
type scene struct {
	// cloud features carry the point label in the last column, so it follows the points through cropping.
	cloud     *pointcloud.Cloud
	transform *pointcloud.Transform
	boxes     []pointcloud.Box
}

func randomVec(rng *rand.Rand, halfSize float64) r3.Vec {
	return r3.Vec{
		X: (2*rng.Float64() - 1) * halfSize,
		Y: (2*rng.Float64() - 1) * halfSize,
		Z: (2*rng.Float64() - 1) * halfSize,
	}
}

// rotationZ returns the rotation of angle radians around Z, for row vectors.
func rotationZ(angle float64) *mat.Dense {
	sin, cos := math.Sincos(angle)
	return mat.NewDense(3, 3, []float64{
		cos, sin, 0,
		-sin, cos, 0,
		0, 0, 1,
	})
}

// synthesizeScenes creates numScenes scenes, each with a random rotation and offset. Points close to the object
// are labeled 1, points far from it 0, and points near its surface are ignored (losses.IgnoreIndex).
//
// Each scene gets one box around its object and one box at a random position. An extra box far from everything
// exercises boxes without points.
func synthesizeScenes(rng *rand.Rand, numScenes, pointsPerScene, numFeatures int) (*scene, error) {
	if numScenes <= 0 || pointsPerScene <= 0 || numFeatures <= 0 {
		return nil, errors.Errorf("invalid scene configuration: %d scenes, %d points per scene, %d features",
			numScenes, pointsPerScene, numFeatures)
	}
	numPoints := numScenes * pointsPerScene
	coords := make([]float32, 0, numPoints*pointcloud.CoordsDim)
	features := make([]float32, 0, numPoints*(numFeatures+1))
	tr := pointcloud.IdentityTransform(numScenes)
	var boxes []pointcloud.Box
	objectBoxSize := r3.Vec{X: 2*objectRadius + 1, Y: 2*objectRadius + 1, Z: 2*objectRadius + 1}
	for batch := range numScenes {
		tr.Rotations[batch] = rotationZ(2 * math.Pi * rng.Float64())
		tr.Offsets[batch] = randomVec(rng, 1)
		object := randomVec(rng, sceneHalfSize-objectRadius)
		for range pointsPerScene {
			p := randomVec(rng, sceneHalfSize)
			if rng.Float64() < objectFraction {
				p = r3.Add(object, randomVec(rng, objectRadius+ignoreMargin))
			}
			label := float32(0)
			switch dist := r3.Norm(r3.Sub(p, object)); {
			case dist < objectRadius-ignoreMargin:
				label = 1
			case dist < objectRadius+ignoreMargin:
				label = losses.IgnoreIndex
			}
			coords = append(coords, float32(p.X), float32(p.Y), float32(p.Z), float32(batch))
			for ii := range numFeatures {
				value := rng.NormFloat64()
				if ii == 0 && label == 1 {
					value += foregroundShift
				}
				features = append(features, float32(value))
			}
			features = append(features, label)
		}
		boxes = append(boxes,
			pointcloud.Box{Center: tr.ApplyTo(object, batch), Size: objectBoxSize, Batch: batch},
			pointcloud.Box{Center: tr.ApplyTo(randomVec(rng, sceneHalfSize), batch), Size: r3.Vec{X: 3, Y: 3, Z: 3}, Batch: batch})
	}
	boxes = append(boxes, pointcloud.Box{
		Center: r3.Vec{X: 100 * sceneHalfSize, Y: 100 * sceneHalfSize, Z: 100 * sceneHalfSize},
		Size:   r3.Vec{X: 1, Y: 1, Z: 1},
	})

	cloud, err := pointcloud.NewCloud(
		tensors.FromFlatDataAndDimensions(coords, numPoints, pointcloud.CoordsDim),
		tensors.FromFlatDataAndDimensions(features, numPoints, numFeatures+1),
		numScenes)
	if err != nil {
		return nil, err
	}
	return &scene{cloud: cloud, transform: tr, boxes: boxes}, nil
}

// splitLabels separates the label column (the last one) from the features of a cropped cloud.
// Labels are returned as Int32 shaped [numPoints].
func splitLabels(cloud *pointcloud.Cloud) (features, labels *tensors.Tensor) {
	numPoints, width := cloud.NumPoints(), cloud.NumChannels()
	flat := tensors.MustCopyFlatData[float32](cloud.Features)
	flatFeatures := make([]float32, 0, numPoints*(width-1))
	flatLabels := make([]int32, numPoints)
	for ii := range numPoints {
		row := flat[ii*width : (ii+1)*width]
		flatFeatures = append(flatFeatures, row[:width-1]...)
		flatLabels[ii] = int32(row[width-1])
	}
	return tensors.FromFlatDataAndDimensions(flatFeatures, numPoints, width-1),
		tensors.FromFlatDataAndDimensions(flatLabels, numPoints)
}
