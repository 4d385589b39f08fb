// Package profilestore loads conformance profiles from YAML or TOML files.
package profilestore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/usecase/profile"
)

// Loader implements profile.Loader over the filesystem.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

var _ profile.Loader = (*Loader)(nil)

func (l *Loader) LoadProfile(path string) (*profile.Profile, error) {
	return LoadProfile(path)
}

// LoadProfile reads path, choosing the decoder by extension (.toml, else YAML).
func LoadProfile(path string) (*profile.Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "profilestore.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	var dto ProfileDTO
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = decodeTOML(b, &dto)
	} else {
		err = decodeYAML(b, &dto)
	}
	if err != nil {
		return nil, &domain.OpError{
			Op:   "profilestore.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	return MapProfile(path, dto)
}

// Unknown keys are errors: a misspelled "strategy" would otherwise silently
// fall back to the default strategy.
func decodeYAML(b []byte, dto *ProfileDTO) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(dto); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeTOML(b []byte, dto *ProfileDTO) error {
	md, err := toml.Decode(string(b), dto)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown field(s): %s", strings.Join(keys, ", "))
	}
	return nil
}
