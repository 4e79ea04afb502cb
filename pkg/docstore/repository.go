package docstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"
)

// Store owns the backend client, the collection link cache and the write
// executor shared by every Repository of one database.
type Store struct {
	client   DocumentClient
	database string
	links    *LinkCache
	exec     *WriteExecutor
	logger   zerolog.Logger
}

// NewStore creates a Store for the database named in settings.
func NewStore(client DocumentClient, settings Settings, logger zerolog.Logger, opts ...ExecutorOption) (*Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if settings.DatabaseID == "" {
		return nil, errors.New("docstore: database id cannot be empty")
	}
	if settings.MaxAttempts > 0 {
		opts = append([]ExecutorOption{WithMaxAttempts(settings.MaxAttempts)}, opts...)
	}
	return &Store{
		client:   client,
		database: settings.DatabaseID,
		links:    NewLinkCache(),
		exec:     NewWriteExecutor(logger, opts...),
		logger:   logger.With().Str("component", "DocumentStore").Str("database", settings.DatabaseID).Logger(),
	}, nil
}

// EnsureDatabase creates the database if the backend has no such database yet.
func (s *Store) EnsureDatabase(ctx context.Context) error {
	if err := s.client.EnsureDatabase(ctx, s.database); err != nil {
		return fmt.Errorf("failed to ensure database '%s': %w", s.database, err)
	}
	return nil
}

// DeleteDatabase deletes the database and forgets every cached collection link.
func (s *Store) DeleteDatabase(ctx context.Context) error {
	s.logger.Info().Msg("Deleting database")
	defer s.links.Reset()
	if err := s.client.DeleteDatabase(ctx, s.database); err != nil {
		return fmt.Errorf("failed to delete database '%s': %w", s.database, err)
	}
	return nil
}

// CollectionLink resolves the link for a collection, creating the collection on first use.
func (s *Store) CollectionLink(ctx context.Context, collection string) (CollectionLink, error) {
	return s.links.Get(ctx, collection, func(ctx context.Context) (CollectionLink, error) {
		link := CollectionLink{Database: s.database, Collection: collection}
		exists, err := s.client.CollectionExists(ctx, link)
		if err != nil {
			return CollectionLink{}, fmt.Errorf("failed to check existence of collection '%s': %w", link, err)
		}
		if !exists {
			s.logger.Info().Str("collection", collection).Msg("Creating collection")
			if err := s.client.CreateCollection(ctx, link); err != nil {
				return CollectionLink{}, fmt.Errorf("failed to create collection '%s': %w", link, err)
			}
		}
		return link, nil
	})
}

// Truncate deletes a whole collection. The next write recreates it.
func (s *Store) Truncate(ctx context.Context, collection string) error {
	s.logger.Info().Str("collection", collection).Msg("Deleting collection")
	link, err := s.CollectionLink(ctx, collection)
	if err != nil {
		return err
	}
	if err := s.client.DeleteCollection(ctx, link); err != nil {
		return fmt.Errorf("failed to delete collection '%s': %w", link, err)
	}
	s.links.Invalidate(collection)
	return nil
}

// CollectionName returns the collection used for documents of type T: the
// name of T with any pointer indirection removed.
func CollectionName[T any]() string {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// Repository writes view models of one type to their own collection.
type Repository[T ViewModel] struct {
	store      *Store
	collection string
}

// NewRepository creates a Repository for T on the store.
func NewRepository[T ViewModel](store *Store) *Repository[T] {
	return &Repository[T]{store: store, collection: CollectionName[T]()}
}

// Collection returns the collection name used for T.
func (r *Repository[T]) Collection() string { return r.collection }

// CollectionLink resolves, and if needed creates, the collection for T.
func (r *Repository[T]) CollectionLink(ctx context.Context) (CollectionLink, error) {
	return r.store.CollectionLink(ctx, r.collection)
}

// Insert creates a new document, retrying while the backend throttles.
func (r *Repository[T]) Insert(ctx context.Context, item T) error {
	link, err := r.CollectionLink(ctx)
	if err != nil {
		return err
	}
	return r.store.exec.Insert(ctx, r.store.client, link, item)
}

// InsertMany inserts items in order and stops at the first failure.
// Items before the failing one stay inserted.
func (r *Repository[T]) InsertMany(ctx context.Context, items []T) error {
	link, err := r.CollectionLink(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := r.store.exec.Insert(ctx, r.store.client, link, item); err != nil {
			return err
		}
	}
	return nil
}

// Update replaces an existing document.
func (r *Repository[T]) Update(ctx context.Context, item T) error {
	link, err := r.CollectionLink(ctx)
	if err != nil {
		return err
	}
	return r.store.exec.Replace(ctx, r.store.client, link, item)
}

// Delete removes a document. Deleting a missing document is an error.
func (r *Repository[T]) Delete(ctx context.Context, item T) error {
	link, err := r.CollectionLink(ctx)
	if err != nil {
		return err
	}
	return r.store.exec.Delete(ctx, r.store.client, link, item.DocumentID())
}

// Truncate deletes the collection for T.
func (r *Repository[T]) Truncate(ctx context.Context) error {
	return r.store.Truncate(ctx, r.collection)
}
