// Package filex writes generated reports to the local filesystem.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureSubDir creates dirName under the working directory if needed and
// returns its absolute path.
func EnsureSubDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// WriteInSubDir stores data as fileName inside dirName (see EnsureSubDir)
// and returns the full path of the written file.
func WriteInSubDir(dirName, fileName string, data []byte) (string, error) {
	dir, err := EnsureSubDir(dirName)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, filepath.Base(fileName))
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}
