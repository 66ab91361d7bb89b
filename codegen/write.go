package codegen

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dropbox/abicheck/errors"
)

// Write stores files under dir, creating it when needed.
func Write(dir string, files []File) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "cannot create %s", dir)
	}
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Content, 0644); err != nil {
			return errors.Wrapf(err, "cannot write %s", path)
		}
	}
	return nil
}

// Diff returns a unified diff from the file on disk to the rendered one, or
// an empty string when they are identical.  A missing file diffs against
// nothing.
func Diff(dir string, f File) (string, error) {
	path := filepath.Join(dir, f.Name)
	current, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "cannot read %s", path)
	}
	if bytes.Equal(current, f.Content) && err == nil {
		return "", nil
	}
	diff, diffErr := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(current)),
		B:        difflib.SplitLines(string(f.Content)),
		FromFile: path,
		ToFile:   path + " (generated)",
		Context:  3,
	})
	if diffErr != nil {
		return "", errors.Wrapf(diffErr, "cannot diff %s", path)
	}
	if os.IsNotExist(err) {
		diff = "missing " + path + "\n" + diff
	}
	return diff, nil
}

// Check fails with an InvalidContract error when any generated file under
// dir is missing or differs from what the contract renders today.
func Check(dir string, files []File) error {
	var stale []string
	for _, f := range files {
		diff, err := Diff(dir, f)
		if err != nil {
			return err
		}
		if diff != "" {
			stale = append(stale, diff)
		}
	}
	if len(stale) > 0 {
		return errors.NewKindf(
			errors.InvalidContract,
			"generated files are out of date with the contract:\n%s",
			strings.Join(stale, "\n"))
	}
	return nil
}
