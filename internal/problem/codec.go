package problem

import (
	"encoding/json"
	"io"

	"github.com/copyleftdev/brainwall/internal/errors"
)

// Decode reads and validates a problem.
func Decode(r io.Reader) (*Problem, error) {
	var p Problem
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, errors.Wrap(err, "failed to decode problem").
			WithComponent("problem").WithOperation("decode")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
