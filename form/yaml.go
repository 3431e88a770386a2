package form

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

// document is the on-disk form layout.
type document struct {
	ETag    string `yaml:"etag,omitempty"`
	Version int64  `yaml:"version,omitempty"`
	Rows    []Row  `yaml:"rows"`
}

// MarshalYAML implements yaml.Marshaler.
func (f *Form) MarshalYAML() (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return document{
		ETag:    f.etag,
		Version: int64(f.version),
		Rows:    append([]Row{}, f.rows...),
	}, nil
}

// Export writes the form as YAML.
func (f *Form) Export(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	return enc.Close()
}

// Import replaces rows, etag and version from a YAML document written by Export.
// Rows are not validated here.
func (f *Form) Import(r io.Reader) error {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decode form: %w", err)
	}
	for i := range doc.Rows {
		if doc.Rows[i].ValueType == "" {
			doc.Rows[i].ValueType = "string"
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = doc.Rows
	if f.rows == nil {
		f.rows = []Row{}
	}
	f.etag = doc.ETag
	f.version = model.Revision(doc.Version)
	return nil
}
