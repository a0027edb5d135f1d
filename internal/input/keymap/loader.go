package keymap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for keymap files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported keymap format")

// Format is a keymap file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Loader loads keymaps from configuration files.
type Loader struct {
	// searchPaths are directories to search for keymap files.
	searchPaths []string
}

// NewLoader creates a new keymap loader.
func NewLoader() *Loader {
	return &Loader{
		searchPaths: make([]string, 0),
	}
}

// AddSearchPath adds a directory to search for keymap files.
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// LoadFile loads and validates a keymap file.
func (l *Loader) LoadFile(path string) (*Keymap, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, &LoadError{Path: path, Binding: -1, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Binding: -1, Err: fmt.Errorf("opening keymap file: %w", err)}
	}
	defer f.Close()

	km, err := l.LoadReader(f, format)
	if err != nil {
		return nil, &LoadError{Path: path, Binding: -1, Err: err}
	}
	km.Source = path
	if km.Name == "" {
		km.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := km.Validate(); err != nil {
		return nil, err
	}
	return km, nil
}

// LoadReader decodes a keymap in the given format. It does not validate.
func (l *Loader) LoadReader(r io.Reader, format Format) (*Keymap, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading keymap: %w", err)
	}

	var km Keymap
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&km)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&km)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&km)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding keymap: %w", err)
	}

	return &km, nil
}

// LoadAll loads every keymap file in the search paths, sorted by path.
// Files that fail to load are returned in the joined error; the rest are
// still returned.
func (l *Loader) LoadAll() ([]*Keymap, error) {
	var paths []string
	for _, dir := range l.searchPaths {
		for _, pattern := range []string{"*.json", "*.yaml", "*.yml", "*.toml"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				continue
			}
			paths = append(paths, matches...)
		}
	}
	sort.Strings(paths)

	keymaps := make([]*Keymap, 0, len(paths))
	var errs []error
	for _, path := range paths {
		km, err := l.LoadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		keymaps = append(keymaps, km)
	}

	return keymaps, errors.Join(errs...)
}

// Marshal encodes a keymap in the given format.
func (k *Keymap) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(k, "", "  ")
	case FormatYAML:
		return yaml.Marshal(k)
	case FormatTOML:
		return toml.Marshal(k)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// SaveFile saves a keymap, choosing the format from the file extension.
func (k *Keymap) SaveFile(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	data, err := k.Marshal(format)
	if err != nil {
		return fmt.Errorf("marshaling keymap: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing keymap file: %w", err)
	}

	return nil
}
