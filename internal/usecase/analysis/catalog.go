package analysis

import (
	"fmt"

	"tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/errors"
)

// Catalog is the ordered candidate move list of a session. The order is the tie-break
// order for ideal moves and the order of every reported move list.
type Catalog struct {
	entries []tsumego.CatalogEntry
}

func NewCatalog(root tsumego.Position, enumerator MoveEnumerator) (*Catalog, error) {
	if enumerator == nil {
		return nil, errors.ErrSessionNotInitialized
	}
	entries, err := enumerator.RootMoves(root)
	if err != nil {
		return nil, fmt.Errorf("enumerate root moves: %w", err)
	}
	return &Catalog{entries: append([]tsumego.CatalogEntry(nil), entries...)}, nil
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entries must not be modified by the caller.
func (c *Catalog) Entries() []tsumego.CatalogEntry {
	if c == nil {
		return nil
	}
	return c.entries
}
