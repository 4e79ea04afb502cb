package docstore

import (
	"context"
	"fmt"
)

// ViewModel is a document persisted by a Repository. Its serialized form must
// carry the same identifier under the "id" property.
type ViewModel interface {
	DocumentID() string
}

// CollectionLink addresses a collection inside a database.
type CollectionLink struct {
	Database   string
	Collection string
}

func (l CollectionLink) String() string {
	return fmt.Sprintf("dbs/%s/colls/%s", l.Database, l.Collection)
}

// DocumentClient is the subset of a document database the repository needs.
// Implementations report backend failures as *StatusError.
type DocumentClient interface {
	EnsureDatabase(ctx context.Context, database string) error
	DeleteDatabase(ctx context.Context, database string) error

	CollectionExists(ctx context.Context, link CollectionLink) (bool, error)
	CreateCollection(ctx context.Context, link CollectionLink) error
	DeleteCollection(ctx context.Context, link CollectionLink) error

	CreateDocument(ctx context.Context, link CollectionLink, id string, doc any) error
	ReplaceDocument(ctx context.Context, link CollectionLink, id string, doc any) error
	DeleteDocument(ctx context.Context, link CollectionLink, id string) error
}
