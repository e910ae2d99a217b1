package storage

import (
	"time"

	"github.com/blackcoderx/courier/pkg/assert"
	"github.com/blackcoderx/courier/pkg/exchange"
)

// SavedRequest is a named request snapshot stored as YAML.
type SavedRequest struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	Collection string    `yaml:"collection,omitempty"`
	Folder     string    `yaml:"folder,omitempty"`
	Position   int       `yaml:"position,omitempty"` // Order inside the folder
	CreatedAt  time.Time `yaml:"created_at"`

	exchange.Request `yaml:",inline"`

	Assertions []assert.Assertion `yaml:"assertions,omitempty"`
	Schema     string             `yaml:"schema,omitempty"` // JSON Schema for the response data
}

// Collection groups saved requests into ordered folders.
type Collection struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Folders     []Folder `yaml:"folders,omitempty"`
}

// Folder is a named subdivision of a collection.
type Folder struct {
	Name     string `yaml:"name"`
	Position int    `yaml:"position"`
}

// folderPosition returns the position of name, or -1 for requests that sit
// directly in the collection.
func (c Collection) folderPosition(name string) int {
	if name == "" {
		return -1
	}
	for _, f := range c.Folders {
		if f.Name == name {
			return f.Position
		}
	}
	return len(c.Folders)
}
