package blob

import (
	"medportal/internal/infra/blob/fs"
)

// NewFilesystem constructs a filesystem-backed Store rooted at root.
func NewFilesystem(root string) (Store, error) {
	store, err := fs.New(root)
	if err != nil {
		return nil, err
	}
	return store, nil
}
