// Package testutil provides small helpers shared by this module's test
// files for loading fixtures out of a package's testdata directory.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// LoadJSON loads JSON file contents from the caller's testdata directory
// into target.
func LoadJSON(t *testing.T, filename string, target interface{}) {
	b := loadBytes(t, fmt.Sprintf("testdata/%v", filename), 2)
	if err := json.Unmarshal(b, &target); err != nil {
		t.Fatal(fmt.Errorf("testutil.LoadJSON failure: %w", err))
	}
}

// LoadBytes loads raw file contents from the caller's testdata directory.
func LoadBytes(t *testing.T, name string) []byte {
	return loadBytes(t, fmt.Sprintf("testdata/%v", name), 2)
}

func loadBytes(t *testing.T, name string, callDepth int) []byte {
	_, b, _, _ := runtime.Caller(callDepth)
	basepath := filepath.Dir(b)

	path := filepath.Join(basepath, name) // relative path
	bytes, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return bytes
}
