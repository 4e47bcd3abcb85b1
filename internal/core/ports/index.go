package ports

import "context"

// Embedder computes vector embeddings for text. May fail with
// domain.ErrRateLimited on API throttling.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Vector is one entry of the external vector index.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]string
}

// Match is a ranked query result.
type Match struct {
	ID    string
	Score float32
}

// VectorIndex is the external vector database.
type VectorIndex interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, vectors []Vector) error
	Fetch(ctx context.Context, ids []string) ([]Vector, error)
	Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]Match, error)
}

// ObjectStore is the external object/graph store. AddObject and AddReference
// queue into a batch; Flush pushes queued objects before queued references so
// no dangling reference spans a crash boundary at song granularity.
type ObjectStore interface {
	EnsureSchema(ctx context.Context) error

	// AddObject queues an object and returns its content-derived identity.
	// Adding the same class and key again yields the same identity.
	AddObject(className string, properties map[string]any) string

	// Exists reports whether an object with the given identity was already
	// committed by a previous run or flush.
	Exists(ctx context.Context, className, id string) (bool, error)

	AddReference(fromID, fromClass, property, toID, toClass string)

	Flush(ctx context.Context) error

	// Discard drops everything queued since the last Flush. Callers use it
	// to abandon a partially queued unit of work so a later Flush cannot
	// commit it.
	Discard()
}
