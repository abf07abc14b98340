package snapshot

import (
	"encoding/json"
)

// MarshalJSON encodes the redacted view only.  Raw values have no
// serialized form.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Redacted())
}

// MarshalYAML implements yaml.Marshaler (gopkg.in/yaml.v3) with the same
// redacted view.
func (s *Snapshot) MarshalYAML() (any, error) {
	return s.Redacted(), nil
}
