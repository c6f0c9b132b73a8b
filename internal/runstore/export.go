// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes run id with its choices to dir/<id>.yaml and returns
// the written path. An empty dir means <data-dir>/exports.
func (s *Store) ExportYAML(ctx context.Context, id, dir string) (string, error) {
	rec, err := s.Run(ctx, id)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(&rec)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport(dir, id+".yaml", data)
}

// ExportJSON writes run id with its choices to dir/<id>.json and returns
// the written path. An empty dir means <data-dir>/exports.
func (s *Store) ExportJSON(ctx context.Context, id, dir string) (string, error) {
	rec, err := s.Run(ctx, id)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport(dir, id+".json", append(data, '\n'))
}

func (s *Store) writeExport(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = filepath.Join(s.dataDir, exportDir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}
