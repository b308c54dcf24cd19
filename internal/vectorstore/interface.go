// Package vectorstore stores chunk embeddings. Every published document
// version lives in its own collection and readers address it through an
// alias, so a version becomes visible only once it is complete.
package vectorstore

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_vector_store.go -package=mocks github.com/dgallion1/regchunk/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with its payload.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// CollectionInfo describes a collection's shape and size.
type CollectionInfo struct {
	VectorSize  int
	PointsCount int
	Status      string
}

// VectorStore defines the vector storage operations. Search and
// CollectionInfo accept an alias wherever a collection name is expected.
type VectorStore interface {
	// EnsureCollection creates the collection, or checks its vector size if it exists.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// Upsert writes points and returns once they are durable and searchable.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the k nearest points to query.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)

	// DropCollection deletes a collection. Dropping a missing collection is not an error.
	DropCollection(ctx context.Context, collection string) error

	// CollectionInfo reports vector size and point count.
	CollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error)

	// SwapAlias points alias at collection in one step and returns the
	// collection it pointed at before, or "" if it did not exist.
	SwapAlias(ctx context.Context, alias, collection string) (string, error)

	// ResolveAlias returns the collection behind alias, or "" if there is none.
	ResolveAlias(ctx context.Context, alias string) (string, error)

	// DeleteAlias removes alias. Removing a missing alias is not an error.
	DeleteAlias(ctx context.Context, alias string) error
}
