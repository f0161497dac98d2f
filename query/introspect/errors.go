package introspect

import "errors"

var (
	// ErrUnsupportedProvider is returned for catalog questions a provider
	// cannot answer, such as listing SQLite databases.
	ErrUnsupportedProvider = errors.New("unsupported database provider")
	// ErrCatalogQuery wraps failures reading the server catalog.
	ErrCatalogQuery = errors.New("catalog query failed")
)
