// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Yaml represents a [Source] where its underlying format is YAML.
type Yaml struct {
	r io.Reader
}

// FromYaml returns a source which will apply its config from YAML
// values parsed from the given io.Reader.
func FromYaml(r io.Reader) Yaml {
	return Yaml{r: r}
}

// FromYamlFile returns a source which reads YAML from the file at
// path. The file is opened lazily so a missing file surfaces when the
// sources are read, not when they are declared.
func FromYamlFile(path string) Yaml {
	return Yaml{r: &lazyFile{path: path}}
}

// InvalidYamlError occurs if the underlying io.Reader contains
// invalid YAML.
type InvalidYamlError struct {
	cause error
}

// Error implements the error interface.
func (e InvalidYamlError) Error() string {
	return fmt.Sprintf("invalid yaml: %s", e.cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e InvalidYamlError) Unwrap() error {
	return e.cause
}

// Apply implements the [Source] interface.
func (src Yaml) Apply(store Store) error {
	if c, ok := src.r.(io.Closer); ok {
		defer c.Close()
	}

	b, err := io.ReadAll(src.r)
	if err != nil {
		return err
	}

	m := make(map[string]any)
	err = yaml.Unmarshal(b, &m)
	if err != nil {
		return InvalidYamlError{cause: err}
	}
	return Map(m).Apply(store)
}

type lazyFile struct {
	path string
	f    *os.File
}

func (r *lazyFile) Read(b []byte) (int, error) {
	if r.f == nil {
		f, err := os.Open(r.path)
		if err != nil {
			return 0, err
		}
		r.f = f
	}
	return r.f.Read(b)
}

func (r *lazyFile) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
