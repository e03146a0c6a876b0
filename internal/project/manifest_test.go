package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `apiVersion: v1
name: hello
description: sample
type: application
version: "0.1.0"
appVersion: "1.0"
files:
  - main.xil
  - lib/util.xil
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xil.yaml")
	writeFile(t, path, validYAML)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Name)
	assert.Equal(t, "0.1.0", m.Version)
	assert.Equal(t, []string{"main.xil", "lib/util.xil"}, m.Files)
	assert.Equal(t, []string{
		filepath.Join(dir, "main.xil"),
		filepath.Join(dir, "lib", "util.xil"),
	}, m.ResolvedFiles())
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xil.toml")
	writeFile(t, path, `apiVersion = "v1"
name = "hello"
description = "sample"
type = "application"
version = "0.1.0"
appVersion = "1.0"
files = ["main.xil"]
`)
	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", m.APIVersion)
	assert.Equal(t, []string{"main.xil"}, m.Files)
	assert.Equal(t, dir, m.Root)
}

func TestValidateMessages(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
		msg  string
	}{
		{"missing first", "name: x\n", "Required field 'apiVersion' is missing"},
		{"int version", "apiVersion: v1\nname: n\ndescription: d\ntype: t\nversion: 1\nappVersion: a\nfiles: []\n",
			"Field 'version' must be of type string, but is int"},
		{"float version", "apiVersion: v1\nname: n\ndescription: d\ntype: t\nversion: 1.5\nappVersion: a\nfiles: []\n",
			"Field 'version' must be of type string, but is float"},
		{"null name", "apiVersion: v1\nname:\ndescription: d\ntype: t\nversion: v\nappVersion: a\nfiles: []\n",
			"Field 'name' must be of type string, but is NoneType"},
		{"missing files", "apiVersion: v1\nname: n\ndescription: d\ntype: t\nversion: v\nappVersion: a\n",
			"Required field 'files' is missing"},
		{"files scalar", "apiVersion: v1\nname: n\ndescription: d\ntype: t\nversion: v\nappVersion: a\nfiles: main.xil\n",
			"Field 'files' must be a list, but is str"},
		{"files map", "apiVersion: v1\nname: n\ndescription: d\ntype: t\nversion: v\nappVersion: a\nfiles: {a: b}\n",
			"Field 'files' must be a list, but is dict"},
		{"bad element", "apiVersion: v1\nname: n\ndescription: d\ntype: t\nversion: v\nappVersion: a\nfiles: [a.xil, 3, true]\n",
			"Element 1 in 'files' must be a string, but is int"},
		{"bool element", "apiVersion: v1\nname: n\ndescription: d\ntype: t\nversion: v\nappVersion: a\nfiles: [a.xil, true]\n",
			"Element 1 in 'files' must be a string, but is bool"},
		{"not a mapping", "- a\n- b\n", "manifest must be a mapping"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Decode([]byte(tc.doc), false)
			require.NoError(t, err)
			_, err = Validate(doc)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.msg, verr.Message)
		})
	}
}

func TestValidateTOMLTypes(t *testing.T) {
	doc, err := Decode([]byte("apiVersion = 1\n"), true)
	require.NoError(t, err)
	_, err = Validate(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Field 'apiVersion' must be of type string, but is int")
}

func TestLoadReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xil.yml")
	writeFile(t, path, "name: x\n")
	_, err := Load(path)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, path, verr.Path)
	assert.Equal(t, path+": validation error: Required field 'apiVersion' is missing", err.Error())
}

func TestLoadSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xil.yaml")
	writeFile(t, path, "files: [unterminated\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "xil.yaml"), validYAML)
	nested := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	m, err := Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "xil.yaml"), m.Path)

	gotRoot, ok, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, root, gotRoot)
}

func TestDiscoverPrefersYAML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "xil.toml"), "")
	writeFile(t, filepath.Join(root, "xil.yaml"), validYAML)
	path, ok, err := FindManifest(root)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "xil.yaml"), path)
}

func TestDigest(t *testing.T) {
	a, b := HashBytes([]byte("a")), HashBytes([]byte("b"))
	assert.NotEqual(t, Combine(a, b), Combine(b, a))
	assert.Equal(t, "ca978112ca1bbdcafac231b39a23dc4da786eff8147c4e72b9807785afee48bb", a.String())
}
