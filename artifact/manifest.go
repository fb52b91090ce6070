package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	manifestPrefix  = "MANIFEST"
	CurrentFileName = "CURRENT"
	CurrentVersion  = 1
)

// Manifest stamps one persisted generation of the artifact set.
//
// The generation is monotonically increasing: every successful Save bumps it,
// so a reader holding an older CURRENT value can detect staleness without
// parsing the artifacts themselves.
type Manifest struct {
	Version    int    `json:"version"`
	Generation uint64 `json:"generation"`
	Rows       int    `json:"rows"`
	Dimension  int    `json:"dimension"`
	Codec      string `json:"codec"`
}

// loadManifest reads the CURRENT pointer and the manifest it names.
// ok=false means no manifest has been written yet.
func (s *Set) loadManifest() (*Manifest, bool, error) {
	content, found, err := s.readFile(CurrentFileName)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	data, found, err := s.readFile(string(content))
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, &ErrCorruptArtifact{
			Detail: fmt.Sprintf("CURRENT names %s but the file is absent", content),
		}
	}

	var m Manifest
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, false, &ErrCorruptArtifact{Detail: "manifest does not decode", cause: err}
	}
	if m.Version != CurrentVersion {
		return nil, false, &ErrCorruptArtifact{
			Detail: fmt.Sprintf("unsupported manifest version %d (expected %d)", m.Version, CurrentVersion),
		}
	}

	return &m, true, nil
}

// saveManifest writes a new manifest generation and repoints CURRENT at it.
// Both writes go through the temp-file + rename discipline.
func (s *Set) saveManifest(m *Manifest) error {
	m.Version = CurrentVersion

	filename := fmt.Sprintf("%s-%06d.json", manifestPrefix, m.Generation)

	data, err := s.codec.Marshal(m)
	if err != nil {
		return err
	}

	if err := s.writeFileAtomic(filename, func(w io.Writer) error {
		_, werr := w.Write(data)
		return werr
	}); err != nil {
		return err
	}

	if err := s.writeFileAtomic(CurrentFileName, func(w io.Writer) error {
		_, werr := w.Write([]byte(filename))
		return werr
	}); err != nil {
		return err
	}

	// Older manifest generations are garbage, not history; drop them.
	s.pruneManifests(filename)

	return nil
}

func (s *Set) pruneManifests(keep string) {
	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if name == keep || filepath.Ext(name) != ".json" {
			continue
		}
		if len(name) > len(manifestPrefix) && name[:len(manifestPrefix)] == manifestPrefix {
			_ = s.fs.Remove(filepath.Join(s.dir, name))
		}
	}
}

// readFile returns the named file's contents, or found=false when absent.
func (s *Set) readFile(name string) ([]byte, bool, error) {
	f, err := s.fs.OpenFile(filepath.Join(s.dir, name), os.O_RDONLY, 0)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// writeFileAtomic writes a file via temp file, sync and rename so readers
// never observe a half-written artifact under its final name.
func (s *Set) writeFileAtomic(name string, write func(w io.Writer) error) error {
	path := filepath.Join(s.dir, name)
	tmpPath := path + ".tmp"

	f, err := s.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if err := write(f); err != nil {
		f.Close()
		_ = s.fs.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = s.fs.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmpPath)
		return err
	}

	if err := s.fs.Rename(tmpPath, path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return err
	}
	return nil
}
