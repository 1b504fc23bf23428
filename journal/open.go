package journal

import "fmt"

const (
	TypeFile   = "file"
	TypeSQLite = "sqlite"
)

// Backend selects and locates a Store implementation.
type Backend struct {
	Type   string // "file" or "sqlite"
	Dir    string // file
	DBPath string // sqlite
}

// Open returns the Store described by b.
func Open(b Backend, opts Options) (Store, error) {
	switch b.Type {
	case TypeFile, "":
		s, err := NewFileStore(b.Dir, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	case TypeSQLite:
		s, err := NewSQLite(b.DBPath, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: unknown journal type %q", ErrInvalidInput, b.Type)
}
