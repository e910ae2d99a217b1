package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNotFound is returned when a saved request, collection or environment
// does not exist.
var ErrNotFound = errors.New("not found")

var slugInvalid = regexp.MustCompile(`[^a-z0-9_-]+`)

// Slug turns a display name into a file name stem.
func Slug(name string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}

// withinBase resolves path and rejects anything outside baseDir, so names
// like "../../etc/passwd" cannot escape the project folder.
func withinBase(path, baseDir string) (string, error) {
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(baseDir, target)
	}

	absPath, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}

	if absPath != absBase && !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("access denied: %s is outside %s", path, baseDir)
	}
	return absPath, nil
}

// RequestsDir returns the directory for requests outside any collection.
func RequestsDir(baseDir string) string {
	return filepath.Join(baseDir, "requests")
}

// CollectionsDir returns the directory holding one subdirectory per collection.
func CollectionsDir(baseDir string) string {
	return filepath.Join(baseDir, "collections")
}

// EnvironmentsDir returns the environments directory.
func EnvironmentsDir(baseDir string) string {
	return filepath.Join(baseDir, "environments")
}

func requestPath(baseDir string, req SavedRequest) (string, error) {
	stem := Slug(req.Name)
	if stem == "" {
		return "", fmt.Errorf("invalid request name %q", req.Name)
	}

	collection, folder := Slug(req.Collection), Slug(req.Folder)
	if (req.Collection != "" && collection == "") || (req.Folder != "" && folder == "") {
		return "", fmt.Errorf("invalid collection or folder name for %q", req.Name)
	}

	var rel string
	switch {
	case collection == "":
		if folder != "" {
			return "", errors.New("a folder requires a collection")
		}
		rel = filepath.Join("requests", stem+".yaml")
	case folder == "":
		rel = filepath.Join("collections", collection, stem+".yaml")
	default:
		rel = filepath.Join("collections", collection, folder, stem+".yaml")
	}
	return withinBase(rel, baseDir)
}
