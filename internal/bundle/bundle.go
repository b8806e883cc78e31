// Package bundle resolves notification sound assets.
//
// The default sound for every category is compiled into the binary. A
// directory bundle can shadow individual files, and absolute paths or
// file:// URLs are read straight from disk.
package bundle

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmylchreest/chime/internal/config"
	"github.com/jmylchreest/chime/internal/sound"
)

// EmbeddedSounds contains the bundled default sounds.
//
//go:embed sounds/*.wav
var EmbeddedSounds embed.FS

// SourceEmbedded is the Source reported for bundled sounds.
const SourceEmbedded = "embedded"

// SourceFile is the Source reported for sounds resolved from a file path.
const SourceFile = "file"

// Entry describes an asset available in a bundle.
type Entry struct {
	Name   string `json:"name" yaml:"name"`
	Size   int64  `json:"size" yaml:"size"`
	Source string `json:"source" yaml:"source"`
}

// Bundle is a named set of sound files with an optional fallback.
type Bundle struct {
	fsys     fs.FS
	source   string
	dir      string
	fallback *Bundle
}

// Embedded returns the bundle of sounds compiled into the binary.
func Embedded() *Bundle {
	sub, err := fs.Sub(EmbeddedSounds, "sounds")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(err)
	}
	return &Bundle{fsys: sub, source: SourceEmbedded}
}

// NewDir returns a bundle backed by dir. Files not found in dir are looked
// up in fallback, which may be nil.
func NewDir(dir string, fallback *Bundle) *Bundle {
	dir = absPath(config.ExpandPath(dir))
	return &Bundle{
		fsys:     os.DirFS(dir),
		source:   dir,
		dir:      dir,
		fallback: fallback,
	}
}

// New returns the bundle described by an assets directory setting:
// the embedded bundle when dir is empty, otherwise dir over the embedded bundle.
func New(dir string) *Bundle {
	if dir == "" {
		return Embedded()
	}
	return NewDir(dir, Embedded())
}

// Dir returns the directory backing the bundle, or "" for the embedded bundle.
func (b *Bundle) Dir() string {
	return b.dir
}

// Source describes where the bundle reads from.
func (b *Bundle) Source() string {
	return b.source
}

// Resolve implements sound.Bundle.
func (b *Bundle) Resolve(ref string) (sound.Asset, error) {
	if ref == "" {
		return sound.Asset{}, fmt.Errorf("%w: empty reference", sound.ErrAssetNotFound)
	}

	if strings.HasPrefix(ref, "file://") {
		u, err := url.Parse(ref)
		if err != nil {
			return sound.Asset{}, fmt.Errorf("%w: %w", sound.ErrAssetNotFound, err)
		}
		return resolveFile(absPath(u.Path))
	}

	if isPath(ref) {
		return resolveFile(absPath(config.ExpandPath(ref)))
	}

	for cur := b; cur != nil; cur = cur.fallback {
		if asset, ok := cur.lookup(ref); ok {
			return asset, nil
		}
	}
	return sound.Asset{}, fmt.Errorf("%w: %s", sound.ErrAssetNotFound, ref)
}

// Describe resolves ref and reports where it was found. Files outside the
// bundle report SourceFile.
func (b *Bundle) Describe(ref string) (Entry, error) {
	asset, err := b.Resolve(ref)
	if err != nil {
		return Entry{}, err
	}

	source := SourceFile
	if prefix, ok := strings.CutSuffix(asset.Key, ":"+asset.Name); ok && asset.Key != asset.Name {
		source = prefix
	}
	return Entry{Name: asset.Name, Size: asset.Size, Source: source}, nil
}

// lookup finds name in this bundle only.
func (b *Bundle) lookup(name string) (sound.Asset, bool) {
	if !fs.ValidPath(name) {
		return sound.Asset{}, false
	}
	info, err := fs.Stat(b.fsys, name)
	if err != nil || !info.Mode().IsRegular() {
		return sound.Asset{}, false
	}

	fsys := b.fsys
	return sound.Asset{
		Key:  b.source + ":" + name,
		Name: name,
		Size: info.Size(),
		Open: func() (io.ReadSeekCloser, error) {
			return openSeekable(fsys, name)
		},
	}, true
}

// List returns the assets visible through the bundle, shadowed names removed.
func (b *Bundle) List() ([]Entry, error) {
	seen := make(map[string]bool)
	var entries []Entry

	for cur := b; cur != nil; cur = cur.fallback {
		dirEntries, err := fs.ReadDir(cur.fsys, ".")
		if err != nil {
			if cur.dir != "" && os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to list %s: %w", cur.source, err)
		}

		for _, de := range dirEntries {
			if de.IsDir() || seen[de.Name()] || !isAudioFile(de.Name()) {
				continue
			}
			info, err := de.Info()
			if err != nil {
				continue
			}
			seen[de.Name()] = true
			entries = append(entries, Entry{
				Name:   de.Name(),
				Size:   info.Size(),
				Source: cur.source,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func resolveFile(path string) (sound.Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return sound.Asset{}, fmt.Errorf("%w: %w", sound.ErrAssetNotFound, err)
	}
	if !info.Mode().IsRegular() {
		return sound.Asset{}, fmt.Errorf("%w: %s is not a regular file", sound.ErrAssetNotFound, path)
	}

	return sound.Asset{
		Key:  path,
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadSeekCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// openSeekable opens name, buffering it when the filesystem's files cannot seek.
func openSeekable(fsys fs.FS, name string) (io.ReadSeekCloser, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	if rsc, ok := f.(io.ReadSeekCloser); ok {
		return rsc, nil
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return nopCloser{bytes.NewReader(data)}, nil
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }

// absPath returns path in the clean absolute form file watchers report.
func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func isPath(ref string) bool {
	return filepath.IsAbs(ref) || strings.HasPrefix(ref, "~") || strings.ContainsRune(ref, os.PathSeparator)
}

func isAudioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav", ".ogg", ".mp3":
		return true
	}
	return false
}
