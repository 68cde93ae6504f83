// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"strings"
)

// Env represents a [Source] where its underlying values are extracted
// from environment variables carrying a common prefix. The prefix is
// stripped, the remainder is lowercased and double underscores become
// nesting, so SICHAT_TLS__CERTIFICATE_PATH sets tls.certificate_path.
type Env struct {
	prefix  string
	environ func() []string
}

// FromEnv returns a [Source] which will apply its config from the
// environment variables of the current process.
func FromEnv(prefix string) Env {
	return Env{
		prefix:  prefix,
		environ: os.Environ,
	}
}

// Apply implements the [Source] interface.
func (src Env) Apply(store Store) error {
	for _, pair := range src.environ() {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || !strings.HasPrefix(k, src.prefix) {
			continue
		}

		k = strings.ToLower(strings.TrimPrefix(k, src.prefix))
		k = strings.ReplaceAll(k, "__", ".")

		err := store.Set(k, v)
		if err != nil {
			return err
		}
	}
	return nil
}
