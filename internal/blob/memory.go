package blob

import (
	memorystore "medportal/internal/infra/blob/memory"
)

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memorystore.New() }

// Tamperable is implemented by stores that can overwrite payload bytes in
// place, which integrity checks are tested against.
type Tamperable interface {
	Corrupt(key string, data []byte) bool
}
