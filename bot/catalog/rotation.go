package catalog

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrEmptyRotation is a configuration error: a rotation needs at least one photo.
var ErrEmptyRotation = errors.New("empty photo rotation")

// ErrTextFormat is a configuration error: a text override has more format verbs
// than the notice supplies arguments for.
var ErrTextFormat = errors.New("invalid text format")

// Rotation is a fixed pool of interchangeable photos.
type Rotation struct {
	items []string
}

func NewRotation(name string, items []string) (*Rotation, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRotation, name)
	}
	return &Rotation{items: append([]string(nil), items...)}, nil
}

// Pick returns a uniformly random element. Repeats are allowed.
func (r *Rotation) Pick() string {
	return r.items[rand.IntN(len(r.items))]
}
