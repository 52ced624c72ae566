package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Load reads a scene snapshot from a YAML or JSON file, chosen by extension.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return Parse(data)
	}
	return nil, fmt.Errorf("unsupported snapshot type: %v", path)
}

// Parse decodes a YAML scene snapshot.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	s.applyDefaults()
	s.Init()
	return &s, nil
}

// ParseJSON decodes a JSON scene snapshot.
func ParseJSON(data []byte) (*Scene, error) {
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	s.applyDefaults()
	s.Init()
	return &s, nil
}

func (s *Scene) applyDefaults() {
	if s.FPS == 0 {
		s.FPS = 25
	}
	if s.FrameEnd < s.FrameStart {
		s.FrameEnd = s.FrameStart
	}
	ident := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	for _, o := range s.Objects {
		if o.MatrixLocal == ([16]float32{}) {
			o.MatrixLocal = ident
		}
		if o.MatrixWorld == ([16]float32{}) {
			o.MatrixWorld = o.MatrixLocal
		}
		if o.RotationMode == "" {
			o.RotationMode = "XYZ"
		}
		if o.Scale == ([3]float32{}) {
			o.Scale = [3]float32{1, 1, 1}
		}
		if o.DeltaScale == ([3]float32{}) {
			o.DeltaScale = [3]float32{1, 1, 1}
		}
		if o.RotationQuaternion == ([4]float32{}) {
			o.RotationQuaternion = [4]float32{1, 0, 0, 0} // w,x,y,z
		}
	}
	for _, a := range s.Armatures {
		for _, b := range a.Bones {
			if b.MatrixLocal == ([16]float32{}) {
				b.MatrixLocal = ident
			}
		}
	}
}
