// Package project loads the package manifest (xil.yaml, xil.yml or
// xil.toml) that lists the IR files of a build.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// StringFields are the required string fields, checked in this order
// before files.
var StringFields = []string{"apiVersion", "name", "description", "type", "version", "appVersion"}

// Manifest is a validated package manifest.
type Manifest struct {
	Path string `json:"-" yaml:"-"` // absolute path of the manifest file
	Root string `json:"-" yaml:"-"` // directory of the manifest

	APIVersion  string   `json:"apiVersion" yaml:"apiVersion"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Type        string   `json:"type" yaml:"type"`
	Version     string   `json:"version" yaml:"version"`
	AppVersion  string   `json:"appVersion" yaml:"appVersion"`
	Files       []string `json:"files" yaml:"files"`
}

// ValidationError reports the first field that is missing or has the
// wrong type.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("%s: validation error: %s", e.Path, e.Message)
}

// ErrNoManifest is returned by Discover when no manifest exists up the tree.
var ErrNoManifest = errors.New("no xil.yaml, xil.yml or xil.toml found")

// Discover finds the manifest at or above startDir and loads it.
func Discover(startDir string) (*Manifest, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoManifest
	}
	return Load(path)
}

// Load reads, decodes and validates the manifest at path. The format is
// chosen by extension: .toml is TOML, anything else YAML.
func Load(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	raw, err := Decode(data, strings.EqualFold(filepath.Ext(abs), ".toml"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	m, err := Validate(raw)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Path = abs
		}
		return nil, err
	}
	m.Path = abs
	m.Root = filepath.Dir(abs)
	return m, nil
}

// Decode parses manifest text into a generic document.
func Decode(data []byte, isTOML bool) (any, error) {
	if isTOML {
		var doc map[string]any
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
		return doc, nil
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return doc, nil
}

// Validate checks a decoded document and converts it into a Manifest.
// Unknown fields are ignored.
func Validate(doc any) (*Manifest, error) {
	fields, ok := doc.(map[string]any)
	if !ok {
		return nil, &ValidationError{Message: "manifest must be a mapping"}
	}

	values := make(map[string]string, len(StringFields))
	for _, name := range StringFields {
		v, present := fields[name]
		if !present {
			return nil, &ValidationError{Message: fmt.Sprintf("Required field '%s' is missing", name)}
		}
		s, isString := v.(string)
		if !isString {
			return nil, &ValidationError{Message: fmt.Sprintf("Field '%s' must be of type string, but is %s", name, typeName(v))}
		}
		values[name] = s
	}

	v, present := fields["files"]
	if !present {
		return nil, &ValidationError{Message: "Required field 'files' is missing"}
	}
	list, isList := v.([]any)
	if !isList {
		return nil, &ValidationError{Message: fmt.Sprintf("Field 'files' must be a list, but is %s", typeName(v))}
	}
	files := make([]string, len(list))
	for i, item := range list {
		s, isString := item.(string)
		if !isString {
			return nil, &ValidationError{Message: fmt.Sprintf("Element %d in 'files' must be a string, but is %s", i, typeName(item))}
		}
		files[i] = s
	}

	return &Manifest{
		APIVersion:  values["apiVersion"],
		Name:        values["name"],
		Description: values["description"],
		Type:        values["type"],
		Version:     values["version"],
		AppVersion:  values["appVersion"],
		Files:       files,
	}, nil
}

// typeName names the type of a decoded value the way manifest authors
// know it from YAML tooling.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case string:
		return "str"
	case bool:
		return "bool"
	case time.Time:
		return "datetime"
	case []any, []map[string]any:
		return "list"
	case map[string]any:
		return "dict"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map:
		return "dict"
	}
	return fmt.Sprintf("%T", v)
}

// ResolvedFiles returns Files as clean paths; relative entries are taken
// relative to the manifest directory.
func (m *Manifest) ResolvedFiles() []string {
	out := make([]string, len(m.Files))
	for i, f := range m.Files {
		f = filepath.FromSlash(f)
		if !filepath.IsAbs(f) {
			f = filepath.Join(m.Root, f)
		}
		out[i] = filepath.Clean(f)
	}
	return out
}
