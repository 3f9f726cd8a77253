package export

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Profile is an export configuration file. It bundles the options of a
// recurring export (filter, format, redaction) so teams can share them.
//
//	[export]
//	filter = "errors-only"
//	format = "markdown"
//	title = "Checkout regression run"
//	redact_params = ["password", "token"]
type Profile struct {
	Export ProfileExport `toml:"export"`
}

// ProfileExport is the [export] table of a profile file.
type ProfileExport struct {
	Filter       string   `toml:"filter"`
	Format       string   `toml:"format"`
	Title        string   `toml:"title"`
	RedactParams []string `toml:"redact_params"`
}

// LoadProfile reads and validates a TOML profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p Profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	if _, err := ParseFilter(p.Export.Filter); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	switch p.Export.Format {
	case "", "markdown", "md", "html", "json":
	default:
		return nil, fmt.Errorf("profile %s: unknown format %q", path, p.Export.Format)
	}
	return &p, nil
}

// Options converts the profile into rendering options.
func (p *Profile) Options() Options {
	filter, _ := ParseFilter(p.Export.Filter)
	return Options{
		Filter:       filter,
		Title:        p.Export.Title,
		RedactParams: p.Export.RedactParams,
	}
}
