package ethartifact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadFoundryOut registers every artifact of a forge build directory, laid out
// as out/<Source>.sol/<Contract>.json. Duplicate contract names from different
// sources keep the last one read.
func LoadFoundryOut(dir string) (*ContractRegistry, error) {
	registry := NewContractRegistry()
	if err := registry.LoadFoundryOut(dir); err != nil {
		return nil, err
	}
	return registry, nil
}

func (c *ContractRegistry) LoadFoundryOut(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("ethartifact: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("ethartifact: %s is not a directory", dir)
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" || !strings.HasSuffix(filepath.Dir(path), ".sol") {
			return nil
		}

		foundryArtifact, err := ParseFoundryArtifactFile(path)
		if err != nil {
			return fmt.Errorf("ethartifact: %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		// forge names clashing contracts Name.0.8.20.json
		if i := strings.Index(name, "."); i > 0 {
			name = name[:i]
		}

		artifact, err := foundryArtifact.toRawArtifact(name).Artifact()
		if err != nil {
			return fmt.Errorf("ethartifact: %s: %w", path, err)
		}
		return c.Add(artifact)
	})
}
