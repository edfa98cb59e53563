package cohort

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	errNoBase     = errors.New("cohort has no base source")
	errNoPath     = errors.New("source has no path")
	errNoKey      = errors.New("source has no key column")
	errBadSuffix  = errors.New("source has no collision suffix")
	errNoCohorts  = errors.New("manifest defines no cohorts")
	errUnknownRef = errors.New("unknown cohort")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Source describes one delimited input file of a cohort.
type Source struct {
	Name        string `yaml:"name"`
	Path        string `yaml:"path"`
	KeyColumn   string `yaml:"key_column"`
	Suffix      string `yaml:"suffix"`
	TransposeOn string `yaml:"transpose_on,omitempty"`
}

// Cohort is a clinical base plus the sources joined onto it, in order.
type Cohort struct {
	Base    Source   `yaml:"base"`
	Sources []Source `yaml:"sources"`
	Output  string   `yaml:"output"`
}

// Manifest is the YAML description of every cohort the consolidate stage
// knows how to build.
type Manifest struct {
	Cohorts map[string]Cohort `yaml:"cohorts"`
}

func LoadManifest(path string) (Manifest, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func (m Manifest) Validate() error {
	if len(m.Cohorts) == 0 {
		return ValidationError{reason: errNoCohorts}
	}
	for name, c := range m.Cohorts {
		if strings.TrimSpace(c.Base.Path) == "" {
			return ValidationError{reason: fmt.Errorf("cohort %s: %w", name, errNoBase)}
		}
		if strings.TrimSpace(c.Base.KeyColumn) == "" {
			return ValidationError{reason: fmt.Errorf("cohort %s base: %w", name, errNoKey)}
		}
		for _, src := range c.Sources {
			if strings.TrimSpace(src.Path) == "" {
				return ValidationError{reason: fmt.Errorf("cohort %s source %s: %w", name, src.Name, errNoPath)}
			}
			if strings.TrimSpace(src.KeyColumn) == "" && strings.TrimSpace(src.TransposeOn) == "" {
				return ValidationError{reason: fmt.Errorf("cohort %s source %s: %w", name, src.Name, errNoKey)}
			}
			if strings.TrimSpace(src.Suffix) == "" {
				return ValidationError{reason: fmt.Errorf("cohort %s source %s: %w", name, src.Name, errBadSuffix)}
			}
		}
	}
	return nil
}

// Get returns one cohort definition by name.
func (m Manifest) Get(name string) (Cohort, error) {
	c, ok := m.Cohorts[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Cohort{}, ValidationError{reason: fmt.Errorf("%s: %w", name, errUnknownRef)}
	}
	return c, nil
}

// Names lists the configured cohorts.
func (m Manifest) Names() []string {
	out := make([]string, 0, len(m.Cohorts))
	for name := range m.Cohorts {
		out = append(out, name)
	}
	return out
}
