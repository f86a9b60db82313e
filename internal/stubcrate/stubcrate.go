// Package stubcrate fabricates an empty placeholder crate so the desktop
// workspace builds without access to the private plugin library. The real
// crate, when present, is never touched.
package stubcrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// Defaults for the private dependency the workspace expects.
const (
	DefaultName    = "glass"
	DefaultVersion = "0.0.0"
)

// ErrManifestExists is returned when a crate manifest is already present at
// the target path, real or otherwise.
var ErrManifestExists = errors.New("crate manifest already exists")

type manifest struct {
	Package pkg `toml:"package"`
}

type pkg struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Edition string `toml:"edition"`
}

// ManifestPath returns where the crate manifest lives under the workspace
// root.
func ManifestPath(root, name string) string {
	return filepath.Join(root, "crates", name, "Cargo.toml")
}

// Generate creates crates/<name>/ under root with a minimal manifest and an
// empty library source file. If a manifest already exists there, it returns
// ErrManifestExists and leaves the filesystem unchanged.
func Generate(root, name, version string) error {
	if name == "" {
		name = DefaultName
	}
	if version == "" {
		version = DefaultVersion
	}

	manifestPath := ManifestPath(root, name)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("%w at %s: remove the real crate first", ErrManifestExists, manifestPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("check %s: %w", manifestPath, err)
	}

	srcDir := filepath.Join(root, "crates", name, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", srcDir, err)
	}

	b, err := toml.Marshal(manifest{
		Package: pkg{Name: name, Version: version, Edition: "2021"},
	})
	if err != nil {
		return fmt.Errorf("serialize manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", manifestPath, err)
	}

	libPath := filepath.Join(srcDir, "lib.rs")
	if err := os.WriteFile(libPath, nil, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", libPath, err)
	}

	return nil
}
