// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// proposals prints a summary of precomputed box proposal files (.npy arrays shaped [numBoxes, 6] or
// [numBoxes, 7]) and reports degenerate boxes.
//
// Usage:
//
//	proposals [-rows=10] [-batch=0] [-parallelism=N] <file.npy> [<file.npy> ...]
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/core/tensors/numpy"
	"github.com/gomlx/pcseg/pkg/pointcloud"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

var (
	flagRows  = flag.Int("rows", 10, "Number of boxes to list for each file. Set to 0 to list none, -1 to list all.")
	flagBatch = flag.Int("batch", 0, "Batch index assigned to the boxes of files without a batch column ([numBoxes, 6]).")

	flagParallelism = flag.Int("parallelism", runtime.NumCPU(), "Maximum number of files loaded in parallel.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		klog.Errorf("Missing proposals file to read from. See 'proposals -help'")
		os.Exit(1)
	}
	proposals := must.M1(loadAll(args, *flagParallelism))
	var numInvalid int
	for ii, filePath := range args {
		numInvalid += report(filePath, proposals[ii])
	}
	if numInvalid > 0 {
		os.Exit(2)
	}
}

// loadAll loads the .npy files concurrently, at most parallelism at a time.
func loadAll(filePaths []string, parallelism int) ([]*tensors.Tensor, error) {
	results := make([]*tensors.Tensor, len(filePaths))
	var eg errgroup.Group
	eg.SetLimit(max(parallelism, 1))
	for ii, filePath := range filePaths {
		eg.Go(func() error {
			t, err := numpy.FromNpyFile(filePath)
			if err != nil {
				return errors.WithMessagef(err, "failed to load proposals from %q", filePath)
			}
			results[ii] = t
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// report prints the summary of one file and returns the number of degenerate boxes found.
func report(filePath string, proposals *tensors.Tensor) int {
	fmt.Println(titleStyle.Render(filePath))

	table := newPlainTable(false)
	table.Row("shape", proposals.Shape().String())
	table.Row("dtype", proposals.DType().String())
	table.Row("# values", humanize.Comma(int64(proposals.Size())))
	table.Row("# bytes", humanize.Bytes(uint64(proposals.Memory())))

	boxes, err := pointcloud.ParseBoxes(proposals, *flagBatch)
	if err != nil {
		// Not a boxes array: the summary above is all we can say about it.
		table.Row("boxes", fmt.Sprintf("%v", err))
		fmt.Println(table.Render())
		return 0
	}
	table.Row("# boxes", humanize.Comma(int64(len(boxes))))
	var invalid []int
	for ii, box := range boxes {
		if err := box.Validate(); err != nil {
			klog.V(1).Infof("%s: boxes[%d]: %v", filePath, ii, err)
			invalid = append(invalid, ii)
		}
	}
	table.Row("# degenerate", humanize.Comma(int64(len(invalid))))
	fmt.Println(table.Render())

	listBoxes(boxes, invalid)
	return len(invalid)
}

func listBoxes(boxes []pointcloud.Box, invalid []int) {
	numRows := *flagRows
	if numRows < 0 || numRows > len(boxes) {
		numRows = len(boxes)
	}
	if numRows == 0 {
		return
	}
	isInvalid := make(map[int]bool, len(invalid))
	for _, ii := range invalid {
		isInvalid[ii] = true
	}
	table := newPlainTable(true)
	table.Row("#", "center", "size", "batch", "valid")
	for ii, box := range boxes[:numRows] {
		table.Row(
			humanize.Comma(int64(ii)),
			fmt.Sprintf("(%.3f, %.3f, %.3f)", box.Center.X, box.Center.Y, box.Center.Z),
			fmt.Sprintf("(%.3f, %.3f, %.3f)", box.Size.X, box.Size.Y, box.Size.Z),
			fmt.Sprintf("%d", box.Batch),
			fmt.Sprintf("%v", !isInvalid[ii]))
	}
	fmt.Println(table.Render())
	if numRows < len(boxes) {
		fmt.Printf("... %s more boxes\n", humanize.Comma(int64(len(boxes)-numRows)))
	}
}
