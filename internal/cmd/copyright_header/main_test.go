// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = "// Copyright 2023-2026 The Test Authors. SPDX-License-Identifier: Apache-2.0\n"

func TestAddHeader(t *testing.T) {
	got, changed := addHeader([]byte("package foo\n"), testHeader)
	assert.True(t, changed)
	assert.Equal(t, testHeader+"\npackage foo\n", string(got))

	got, changed = addHeader([]byte("//go:build linux\n\npackage foo\n"), testHeader)
	assert.True(t, changed)
	assert.Equal(t, "//go:build linux\n\n"+testHeader+"\npackage foo\n", string(got))

	withHeader := []byte(testHeader + "\npackage foo\n")
	got, changed = addHeader(withHeader, testHeader)
	assert.False(t, changed)
	assert.Equal(t, withHeader, got)
}

func TestGoFiles(t *testing.T) {
	root := t.TempDir()
	for _, path := range []string{
		"a.go", "gen_a_enumer.go", "README.md",
		"pkg/b.go", "_examples/c.go", ".git/d.go", "vendor/e.go",
	} {
		path = filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("package x\n"), 0644))
	}
	files, err := goFiles(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(root, "a.go"), filepath.Join(root, "pkg/b.go")}, files)

	changed, err := processFile(files[0], testHeader, true)
	require.NoError(t, err)
	assert.True(t, changed)
	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "package x\n", string(content), "dry run must not change files")

	changed, err = processFile(files[0], testHeader, false)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = processFile(files[0], testHeader, false)
	require.NoError(t, err)
	assert.False(t, changed)
}
