package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// collectionFile holds collection metadata inside its directory. Slugs never
// start with a dot, so it cannot collide with a request file.
const collectionFile = ".collection.yaml"

// SaveRequest writes req under baseDir and returns the file path. New
// requests get an ID and creation time; saving into a collection creates the
// collection and registers the folder when needed.
func SaveRequest(baseDir string, req SavedRequest) (string, error) {
	if req.URL == "" {
		return "", errors.New("url is required")
	}

	filePath, err := requestPath(baseDir, req)
	if err != nil {
		return "", err
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	if req.Collection != "" {
		if err := ensureCollection(baseDir, req.Collection, req.Folder); err != nil {
			return "", err
		}
	}

	if err := writeYAML(filePath, req); err != nil {
		return "", err
	}
	return filePath, nil
}

// LoadRequest finds a saved request by name. A loose request under
// requests/ wins over collection members with the same name.
func LoadRequest(baseDir, name string) (*SavedRequest, error) {
	stem := Slug(name)
	if stem == "" {
		return nil, fmt.Errorf("invalid request name %q", name)
	}

	loose, err := withinBase(filepath.Join("requests", stem+".yaml"), baseDir)
	if err != nil {
		return nil, err
	}
	if req, err := readRequest(loose); err == nil {
		return req, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	all, err := ListRequests(baseDir)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Name == name || Slug(all[i].Name) == stem {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("request %q: %w", name, ErrNotFound)
}

// ListRequests returns every saved request: loose requests first, then each
// collection in name order.
func ListRequests(baseDir string) ([]SavedRequest, error) {
	var out []SavedRequest

	loose, err := readRequestsIn(RequestsDir(baseDir))
	if err != nil {
		return nil, err
	}
	sortByName(loose)
	out = append(out, loose...)

	collections, err := ListCollections(baseDir)
	if err != nil {
		return nil, err
	}
	for _, c := range collections {
		members, err := ListByCollection(baseDir, c.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, members...)
	}
	return out, nil
}

// ListCollections returns the collections under baseDir sorted by name.
func ListCollections(baseDir string) ([]Collection, error) {
	dir := CollectionsDir(baseDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collections directory: %w", err)
	}

	var out []Collection
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		c, err := readCollection(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListByCollection returns the members of a collection: requests without a
// folder first, then folders by position. Inside a folder requests are
// ordered by position, then name.
func ListByCollection(baseDir, collection string) ([]SavedRequest, error) {
	slug := Slug(collection)
	if slug == "" {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}
	dir, err := withinBase(filepath.Join("collections", slug), baseDir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("collection %q: %w", collection, ErrNotFound)
	}

	meta, err := readCollection(dir)
	if err != nil {
		return nil, err
	}

	var members []SavedRequest
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) || d.Name() == collectionFile {
			return nil
		}
		req, err := readRequest(path)
		if err != nil {
			return err
		}
		members = append(members, *req)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list collection %q: %w", collection, err)
	}

	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if pa, pb := meta.folderPosition(a.Folder), meta.folderPosition(b.Folder); pa != pb {
			return pa < pb
		}
		if a.Folder != b.Folder {
			return a.Folder < b.Folder
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.Name < b.Name
	})
	return members, nil
}

func ensureCollection(baseDir, name, folder string) error {
	dir, err := withinBase(filepath.Join("collections", Slug(name)), baseDir)
	if err != nil {
		return err
	}

	meta, err := readCollection(dir)
	if err != nil {
		return err
	}
	meta.Name = name

	if folder != "" && meta.folderPosition(folder) == len(meta.Folders) {
		meta.Folders = append(meta.Folders, Folder{Name: folder, Position: len(meta.Folders)})
	}
	return writeYAML(filepath.Join(dir, collectionFile), meta)
}

// readCollection reads the metadata in dir. A directory without metadata is
// a collection named after the directory.
func readCollection(dir string) (Collection, error) {
	c := Collection{Name: filepath.Base(dir)}

	data, err := os.ReadFile(filepath.Join(dir, collectionFile))
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("failed to read collection: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to parse collection %s: %w", dir, err)
	}
	return c, nil
}

func readRequest(filePath string) (*SavedRequest, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var req SavedRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	return &req, nil
}

func readRequestsIn(dir string) ([]SavedRequest, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	var out []SavedRequest
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		req, err := readRequest(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, nil
}

func writeYAML(filePath string, v any) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func sortByName(reqs []SavedRequest) {
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].Name < reqs[j].Name })
}
