package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/skaia3d/sceneforge/scene"
)

// cacheEntry is the stored fingerprint of one exported mesh. Vertex and
// edge counts stand in for full content hashing; non-polygonal data blocks
// carry a dirty flag instead and always miss while it is set.
type cacheEntry struct {
	Verts  int          `json:"verts"`
	Edges  int          `json:"edges"`
	Layout VertexLayout `json:"layout"`
}

// ExportCache decides whether a mesh needs regeneration between export runs.
type ExportCache struct {
	Entries map[string]*cacheEntry `json:"entries"`
	path    string
}

func NewExportCache() *ExportCache {
	return &ExportCache{Entries: map[string]*cacheEntry{}}
}

// LoadExportCache reads a cache file; a missing or unreadable file yields an
// empty cache, never an error.
func LoadExportCache(path string) *ExportCache {
	c := NewExportCache()
	c.path = path
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	if err := json.Unmarshal(data, c); err != nil {
		c.Entries = map[string]*cacheEntry{}
	}
	return c
}

// Fresh reports whether the mesh's cached fingerprint and layout signature
// both match, meaning regeneration can be skipped. Callers must still check
// that the exported artifact exists.
func (c *ExportCache) Fresh(name string, m *scene.Mesh, layout VertexLayout) bool {
	if m.NonPolygonal && m.Dirty {
		return false
	}
	e, ok := c.Entries[name]
	if !ok {
		return false
	}
	return e.Verts == len(m.Vertices) && e.Edges == m.EdgeCount && e.Layout == layout
}

// Update records the fingerprint of a freshly exported mesh.
func (c *ExportCache) Update(name string, m *scene.Mesh, layout VertexLayout) {
	c.Entries[name] = &cacheEntry{
		Verts:  len(m.Vertices),
		Edges:  m.EdgeCount,
		Layout: layout,
	}
}

// Save writes the cache next to the export output.
func (c *ExportCache) Save() error {
	if c.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}
