// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// copyright_header adds the license header to the Go files of the repository that are missing it.
//
// With -check it only lists the files missing the header, and exits with an error if there are any.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagProject = flag.String("project", "GoMLX", "Project name to use in the copyright header.")
	flagCheck   = flag.Bool("check", false, "Only list the files missing the header, don't change them.")
)

// headerScanLines is the number of lines searched for an existing header.
const headerScanLines = 50

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [path ...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAdds the copyright header to Go files missing it. Default path is the current directory.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	header := fmt.Sprintf("// Copyright 2023-2026 The %s Authors. SPDX-License-Identifier: Apache-2.0\n", *flagProject)
	roots := flag.Args()
	if len(roots) == 0 {
		roots = []string{"."}
	}
	var missing []string
	for _, root := range roots {
		files, err := goFiles(root)
		if err != nil {
			klog.Fatalf("Failed to list Go files in %q: %+v", root, err)
		}
		for _, path := range files {
			changed, err := processFile(path, header, *flagCheck)
			if err != nil {
				klog.Fatalf("Failed to process %q: %+v", path, err)
			}
			if changed {
				missing = append(missing, path)
			}
		}
	}
	if *flagCheck && len(missing) > 0 {
		for _, path := range missing {
			fmt.Println(path)
		}
		klog.Errorf("%d files missing the copyright header", len(missing))
		os.Exit(1)
	}
}

// goFiles lists the non-generated Go files under root. Hidden directories, vendor and directories starting with
// "_" (ignored by the Go tool) are skipped.
func goFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(name, ".go") && !strings.HasPrefix(name, "gen_") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// processFile adds the header to the file if it is missing. It returns whether the file was (or, if dryRun,
// would be) changed.
func processFile(path, header string, dryRun bool) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %q", path)
	}
	newContent, changed := addHeader(content, header)
	if !changed || dryRun {
		return changed, nil
	}
	klog.V(1).Infof("Adding header to %s", path)
	if err := os.WriteFile(path, newContent, 0644); err != nil {
		return false, errors.Wrapf(err, "failed to write %q", path)
	}
	return true, nil
}

// addHeader returns content with the header inserted, after the build constraints if there are any.
// If a copyright line already exists in the first lines it returns content unchanged and false.
func addHeader(content []byte, header string) ([]byte, bool) {
	lines := bytes.Split(content, []byte("\n"))
	lastBuildTag := -1
	for ii, line := range lines {
		if ii > headerScanLines {
			break
		}
		trimmed := bytes.TrimSpace(line)
		if bytes.HasPrefix(trimmed, []byte("// Copyright")) {
			return content, false
		}
		if bytes.HasPrefix(trimmed, []byte("//go:build")) || bytes.HasPrefix(trimmed, []byte("// +build")) {
			lastBuildTag = ii
		}
	}

	var buf bytes.Buffer
	if lastBuildTag >= 0 {
		buf.Write(bytes.Join(lines[:lastBuildTag+1], []byte("\n")))
		buf.WriteString("\n\n")
		lines = lines[lastBuildTag+1:]
		// Drop the blank lines between the build tags and the rest, the header brings its own.
		for len(lines) > 0 && len(bytes.TrimSpace(lines[0])) == 0 {
			lines = lines[1:]
		}
	}
	buf.WriteString(header)
	buf.WriteString("\n")
	buf.Write(bytes.Join(lines, []byte("\n")))
	return buf.Bytes(), true
}
