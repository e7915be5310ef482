package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration — time.Duration, который читается из YAML-строк вида "30s", "5m".
type Duration time.Duration

// UnmarshalYAML реализует yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML реализует yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration возвращает стандартный time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }
