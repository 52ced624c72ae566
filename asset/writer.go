package asset

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// Ext is the suffix of written scene and mesh documents.
	Ext = ".arm"
	// MeshDir is the subdirectory holding per-mesh companion documents.
	MeshDir = "meshes"
)

// Store writes documents under a root directory and answers artifact
// existence queries for the incremental cache.
type Store struct {
	Dir      string
	Compress bool
	// Minimize drops indentation from uncompressed documents.
	Minimize bool
}

func NewStore(dir string, compress bool) *Store {
	return &Store{Dir: dir, Compress: compress}
}

// ScenePath returns the path the scene document for name is written to.
func (s *Store) ScenePath(name string) string {
	return filepath.Join(s.Dir, name+Ext)
}

// MeshPath returns the path of a standalone mesh document.
func (s *Store) MeshPath(id string) string {
	return filepath.Join(s.Dir, MeshDir, "mesh_"+id+Ext)
}

// WriteScene writes the scene document for doc.Name.
func (s *Store) WriteScene(doc *Document) error {
	return s.write(s.ScenePath(doc.Name), doc)
}

// WriteMesh writes one mesh as a standalone document so unchanged meshes can
// be skipped on later exports.
func (s *Store) WriteMesh(id string, mesh *MeshData) error {
	doc := &Document{Name: "mesh_" + id, MeshDatas: []*MeshData{mesh}}
	return s.write(s.MeshPath(id), doc)
}

// HasMesh reports whether the companion document for a mesh id exists on
// disk. A cache hit without the artifact still forces a re-export.
func (s *Store) HasMesh(id string) bool {
	_, err := os.Stat(s.MeshPath(id))
	return err == nil
}

func (s *Store) write(path string, doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("asset: create dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("asset: create %s: %w", path, err)
	}
	defer f.Close()
	if s.Compress {
		zw := gzip.NewWriter(f)
		if err := json.NewEncoder(zw).Encode(doc); err != nil {
			zw.Close()
			return fmt.Errorf("asset: encode %s: %w", path, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("asset: compress %s: %w", path, err)
		}
		return nil
	}
	enc := json.NewEncoder(f)
	if !s.Minimize {
		enc.SetIndent("", "\t")
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("asset: encode %s: %w", path, err)
	}
	return nil
}

// Load reads a document back, transparently handling gzip.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var head [2]byte
	if _, err := f.Read(head[:]); err != nil {
		return nil, fmt.Errorf("asset: read %s: %w", path, err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	var doc Document
	if head[0] == 0x1f && head[1] == 0x8b {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("asset: gzip %s: %w", path, err)
		}
		defer zr.Close()
		if err := json.NewDecoder(zr).Decode(&doc); err != nil {
			return nil, fmt.Errorf("asset: decode %s: %w", path, err)
		}
		return &doc, nil
	}
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("asset: decode %s: %w", path, err)
	}
	return &doc, nil
}
