// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

// Package storage persists fitted pipelines.
//
// A pipeline is gob encoded, checksummed with SHA-256 and gzip compressed into
// one file named {name}_v{version}.gob.gz. Saving a pipeline removes every
// other version of the same name, so a directory holds at most one pipeline
// per name and the server always loads the one the training job wrote last.
//
// # Thread Safety
//
// All Store methods are safe for concurrent use.
package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/cantine/internal/logging"
	"github.com/tomtom215/cantine/internal/pipeline"
)

const fileSuffix = ".gob.gz"

// ErrNotFound is returned when no pipeline file matches.
var ErrNotFound = errors.New("storage: pipeline not found")

// Metadata describes a stored pipeline.
type Metadata struct {
	// Name is the pipeline name (e.g. "attendance_regression").
	Name string `json:"name"`

	// Version is the package version the pipeline was trained with.
	Version string `json:"version"`

	TrainedAt time.Time `json:"trained_at"`
	SavedAt   time.Time `json:"saved_at"`

	// TrainRows is the number of rows the regressor was fitted on.
	TrainRows int `json:"train_rows"`

	// Checksum is the SHA-256 of the uncompressed gob payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`
}

// storedFile is the on-disk format.
type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// Store reads and writes pipeline files in one directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

// NewStore creates baseDir if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.baseDir }

// Save writes p as name/version and removes the other versions of name.
func (s *Store) Save(ctx context.Context, name, version string, p *pipeline.Pipeline) (*Metadata, error) {
	if err := checkName(name, version); err != nil {
		return nil, err
	}
	if p == nil || !p.Fitted {
		return nil, pipeline.ErrNotFitted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(p); err != nil {
		return nil, fmt.Errorf("encode pipeline: %w", err)
	}
	hash := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compress pipeline: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	meta := Metadata{
		Name:      name,
		Version:   version,
		TrainedAt: p.TrainedAt,
		SavedAt:   time.Now().UTC(),
		TrainRows: p.TrainRows,
		Checksum:  hex.EncodeToString(hash[:]),
		SizeBytes: int64(compressed.Len()),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write to a temp file and rename so a reader never sees a partial file.
	final := s.path(name, version)
	tmp, err := os.CreateTemp(s.baseDir, ".tmp-"+name+"-*")
	if err != nil {
		return nil, fmt.Errorf("create pipeline file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }() //nolint:errcheck // no-op after a successful rename

	if err := gob.NewEncoder(tmp).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return nil, fmt.Errorf("write pipeline file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close pipeline file: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return nil, fmt.Errorf("install pipeline file: %w", err)
	}

	if err := s.removeOthers(name, version); err != nil {
		return nil, err
	}

	logging.Info().
		Str("name", name).
		Str("version", version).
		Int64("size_bytes", meta.SizeBytes).
		Str("path", final).
		Msg("Saved pipeline")
	return &meta, nil
}

// Load reads name/version. An empty version loads the single stored version
// of name.
func (s *Store) Load(ctx context.Context, name, version string) (*pipeline.Pipeline, *Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == "" {
		versions, err := s.versions(name)
		if err != nil {
			return nil, nil, err
		}
		if len(versions) == 0 {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		version = versions[len(versions)-1]
	}
	if err := checkName(name, version); err != nil {
		return nil, nil, err
	}

	sf, err := readFile(s.path(name, version))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s version %s", ErrNotFound, name, version)
	}
	if err != nil {
		return nil, nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress pipeline: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("read decompressed data: %w", err)
	}
	hash := sha256.Sum256(raw)
	if got := hex.EncodeToString(hash[:]); got != sf.Metadata.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, got)
	}

	var p pipeline.Pipeline
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&p); err != nil {
		return nil, nil, fmt.Errorf("decode pipeline: %w", err)
	}
	if !p.Fitted {
		return nil, nil, &pipeline.ConfigurationError{Stage: "storage", Reason: "stored pipeline is not fitted"}
	}
	return &p, &sf.Metadata, nil
}

// List returns the metadata of every stored pipeline, sorted by name.
func (s *Store) List(ctx context.Context) ([]Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var out []Metadata
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		sf, err := readFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			logging.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping unreadable pipeline file")
			continue
		}
		out = append(out, sf.Metadata)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// versions lists the stored versions of name in lexical order.
func (s *Store) versions(name string) ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		n, v, ok := parseFilename(entry.Name())
		if ok && n == name {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

// removeOthers deletes every version of name except keep.
func (s *Store) removeOthers(name, keep string) error {
	versions, err := s.versions(name)
	if err != nil {
		return err
	}
	for _, v := range versions {
		if v == keep {
			continue
		}
		if err := os.Remove(s.path(name, v)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove old pipeline %s version %s: %w", name, v, err)
		}
		logging.Debug().Str("name", name).Str("version", v).Msg("Removed old pipeline version")
	}
	return nil
}

func (s *Store) path(name, version string) string {
	return filepath.Join(s.baseDir, name+"_v"+version+fileSuffix)
}

// parseFilename splits "attendance_regression_v1.2.0.gob.gz" on the last "_v".
func parseFilename(file string) (name, version string, ok bool) {
	base, found := strings.CutSuffix(file, fileSuffix)
	if !found {
		return "", "", false
	}
	i := strings.LastIndex(base, "_v")
	if i <= 0 || i+2 >= len(base) {
		return "", "", false
	}
	return base[:i], base[i+2:], true
}

func checkName(name, version string) error {
	if name == "" || version == "" {
		return &pipeline.ConfigurationError{Stage: "storage", Reason: "pipeline name and version are required"}
	}
	if strings.ContainsAny(name+version, `/\`) || strings.Contains(version, "_v") {
		return &pipeline.ConfigurationError{Stage: "storage", Reason: fmt.Sprintf("invalid pipeline name %q version %q", name, version)}
	}
	return nil
}

func readFile(path string) (*storedFile, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from a validated name and version
	if err != nil {
		return nil, fmt.Errorf("open pipeline file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read pipeline file: %w", err)
	}
	return &sf, nil
}
