package render

import (
	"gitreel/internal/pkg/errors"
)

// FindComposition returns the composition with the given ID, or a
// composition-not-found error if the bundle does not define it.
func FindComposition(comps []Composition, id string) (Composition, error) {
	for _, c := range comps {
		if c.ID == id {
			return c, nil
		}
	}
	return Composition{}, errors.CompositionNotFound(id)
}
