package source

import (
	"fmt"

	"github.com/lysyi3m/regcheck/app/registry"
)

// Configuration types

type Config struct {
	Name     string          // Derived from filename (without .yml extension)
	Domain   registry.Domain `yaml:"domain"`
	URL      string          `yaml:"url"` // may contain {date}; empty for upload-only sources
	Referer  string          `yaml:"referer"`
	Local    ConfigLocal     `yaml:"local"`
	Settings ConfigSettings  `yaml:"settings"`
}

type ConfigLocal struct {
	Path  string `yaml:"path"`
	Sheet string `yaml:"sheet"` // empty = first sheet
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds, 0 = on demand only
	Timeout         int  `yaml:"timeout"`          // seconds
}

// Scheduled reports whether the source is refreshed by the scheduler.
func (c *Config) Scheduled() bool {
	return c.Settings.Enabled && c.URL != "" && c.Settings.RefreshInterval > 0
}

// Which input of a run could not be acquired.
const (
	OriginRegistry = "registry"
	OriginLocal    = "local book"
	OriginDocument = "document"
)

// AcquisitionError reports an input that could not be downloaded, opened or
// parsed. Source is one of the Origin constants.
type AcquisitionError struct {
	Domain registry.Domain
	Source string
	Err    error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Domain, e.Source, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

func acquisitionError(domain registry.Domain, origin string, err error) error {
	return &AcquisitionError{Domain: domain, Source: origin, Err: err}
}
