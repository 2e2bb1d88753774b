package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/sakif/interview-tracker/internal/model"
)

// encode renders a candidate as JSON text for a jsonb parameter.
func encode(c *model.Candidate) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("postgres: encoding candidate %s: %w", c.ID, err)
	}
	return string(b), nil
}

// decode parses a jsonb column. Defaults are not applied here so that a
// document written back after a mutation keeps unset fields unset.
func decode(doc []byte) (*model.Candidate, error) {
	var c model.Candidate
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, fmt.Errorf("postgres: decoding candidate: %w", err)
	}
	return &c, nil
}
