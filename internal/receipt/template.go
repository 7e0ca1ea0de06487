package receipt

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultWidth is the column count of an 80mm thermal roll in Font A.
const DefaultWidth = 42

// Template holds the fixed header and footer printed around every receipt.
type Template struct {
	PharmacyName string   `yaml:"pharmacy_name"`
	Registration string   `yaml:"registration"`
	Address      string   `yaml:"address"`
	Phone        string   `yaml:"phone"`
	Currency     string   `yaml:"currency"`
	Footer       []string `yaml:"footer"`
	Width        int      `yaml:"width"`
	Timezone     string   `yaml:"timezone"`

	location *time.Location
}

// DefaultTemplate returns the stock pharmacy header and footer.
func DefaultTemplate() Template {
	return Template{
		PharmacyName: "Abdullah Pharmacy",
		Registration: "REG # 40125-PK",
		Address:      "3 Marla Scheme Near Cricket Stadium Chakwal",
		Phone:        "TEL: +923005471567",
		Currency:     "PKR",
		Footer: []string{
			"STAY HEALTHY, STAY SAFE",
			"NO RETURNS ON SOLD MEDICINES",
			"POWERED BY ABDULLAH SYSTEMS",
		},
		Width: DefaultWidth,
	}
}

// LoadTemplate reads a YAML template. Fields left out of the file keep
// their defaults.
func LoadTemplate(path string) (Template, error) {
	tmpl := DefaultTemplate()
	data, err := os.ReadFile(path)
	if err != nil {
		return tmpl, fmt.Errorf("read receipt template: %w", err)
	}
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return DefaultTemplate(), fmt.Errorf("parse receipt template %s: %w", path, err)
	}
	if tmpl.Timezone != "" {
		loc, err := time.LoadLocation(tmpl.Timezone)
		if err != nil {
			return DefaultTemplate(), fmt.Errorf("receipt template timezone: %w", err)
		}
		tmpl.location = loc
	}
	return tmpl, nil
}

// WithLocation returns a copy of t that prints timestamps in loc.
func (t Template) WithLocation(loc *time.Location) Template {
	t.location = loc
	return t
}

func (t Template) width() int {
	if t.Width < 24 {
		return DefaultWidth
	}
	return t.Width
}

func (t Template) loc() *time.Location {
	if t.location == nil {
		return time.Local
	}
	return t.location
}
