package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const listFileName = "_list.json"

type metaJSON struct {
	Name string `json:"name"`
}
type metaListJSON struct {
	Items []metaJSON `json:"items"`
}

// ----- Manager ----- //

// Manager keeps the ordered list of presets in a directory. The order comes
// from _list.json, or from the file names when there is no list file.
//
// A Manager is not safe for concurrent use.
type Manager struct {
	dir   string
	names []string
}

// NewManager reads the list of dir. A missing directory gives an empty list.
func NewManager(dir string) (*Manager, error) {
	m := &Manager{dir: dir}
	if err := m.Refresh(); err != nil {
		return nil, err
	}
	return m, nil
}

// Dir ...
func (m *Manager) Dir() string {
	return m.dir
}

// Names ...
func (m *Manager) Names() []string {
	return m.names
}

// Refresh re-reads the list from disk.
func (m *Manager) Refresh() error {
	bytes, err := os.ReadFile(filepath.Join(m.dir, listFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return m.scan()
	}
	if err != nil {
		return fmt.Errorf("failed to read preset list: %w", err)
	}
	list := &metaListJSON{}
	if err := json.Unmarshal(bytes, list); err != nil {
		return fmt.Errorf("failed to parse preset list: %w", err)
	}
	m.names = m.names[:0]
	for _, item := range list.Items {
		m.names = append(m.names, item.Name)
	}
	return nil
}

func (m *Manager) scan() error {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		m.names = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list presets: %w", err)
	}
	m.names = m.names[:0]
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == listFileName || filepath.Ext(name) != ".json" {
			continue
		}
		m.names = append(m.names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(m.names)
	return nil
}

// Path returns the file of the named preset.
func (m *Manager) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid preset name %q", name)
	}
	return filepath.Join(m.dir, name+".json"), nil
}

// Load ...
func (m *Manager) Load(name string) (*Preset, error) {
	path, err := m.Path(name)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadIndex loads the n-th preset of the list.
func (m *Manager) LoadIndex(n int) (*Preset, string, error) {
	if n < 0 || n >= len(m.names) {
		return nil, "", fmt.Errorf("no preset at %d (%d presets)", n, len(m.names))
	}
	name := m.names[n]
	p, err := m.Load(name)
	return p, name, err
}

// Save writes the preset and appends its name to the list when it is new.
func (m *Manager) Save(name string, p *Preset) error {
	path, err := m.Path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create preset directory: %w", err)
	}
	p.Metadata.Name = name
	if err := p.SaveFile(path); err != nil {
		return err
	}
	for _, n := range m.names {
		if n == name {
			return nil
		}
	}
	m.names = append(m.names, name)
	return m.writeList()
}

func (m *Manager) writeList() error {
	list := &metaListJSON{Items: make([]metaJSON, len(m.names))}
	for i, name := range m.names {
		list.Items[i] = metaJSON{Name: name}
	}
	bytes, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode preset list: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, listFileName), append(bytes, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write preset list: %w", err)
	}
	return nil
}
