package docstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// --- Adapter for Google Cloud Firestore ---
// The database is fixed when the *firestore.Client is built, and collections
// exist implicitly, so the database and collection checks are no-ops.

type firestoreClient struct {
	client *firestore.Client
}

// NewFirestoreClient wraps an existing *firestore.Client. The caller owns the client's lifecycle.
func NewFirestoreClient(client *firestore.Client) (DocumentClient, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &firestoreClient{client: client}, nil
}

func (f *firestoreClient) EnsureDatabase(_ context.Context, _ string) error { return nil }

// DeleteDatabase deletes every document of every top-level collection.
func (f *firestoreClient) DeleteDatabase(ctx context.Context, _ string) error {
	it := f.client.Collections(ctx)
	for {
		col, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fromFirestoreError(err)
		}
		if err := f.deleteDocuments(ctx, col); err != nil {
			return err
		}
	}
}

func (f *firestoreClient) CollectionExists(_ context.Context, _ CollectionLink) (bool, error) {
	return true, nil
}

func (f *firestoreClient) CreateCollection(_ context.Context, _ CollectionLink) error { return nil }

func (f *firestoreClient) DeleteCollection(ctx context.Context, link CollectionLink) error {
	return f.deleteDocuments(ctx, f.client.Collection(link.Collection))
}

func (f *firestoreClient) CreateDocument(ctx context.Context, link CollectionLink, id string, doc any) error {
	_, err := f.client.Collection(link.Collection).Doc(id).Create(ctx, doc)
	return fromFirestoreError(err)
}

// ReplaceDocument overwrites the document; like Cosmos it fails when the document is missing.
func (f *firestoreClient) ReplaceDocument(ctx context.Context, link CollectionLink, id string, doc any) error {
	ref := f.client.Collection(link.Collection).Doc(id)
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Set(ref, doc)
	}, firestore.MaxAttempts(1))
	return fromFirestoreError(err)
}

func (f *firestoreClient) DeleteDocument(ctx context.Context, link CollectionLink, id string) error {
	_, err := f.client.Collection(link.Collection).Doc(id).Delete(ctx, firestore.Exists)
	return fromFirestoreError(err)
}

func (f *firestoreClient) deleteDocuments(ctx context.Context, col *firestore.CollectionRef) error {
	bw := f.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob

	refs := col.DocumentRefs(ctx)
	for {
		ref, err := refs.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			bw.End()
			return fromFirestoreError(err)
		}
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to queue delete of '%s': %w", ref.Path, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fromFirestoreError(err)
		}
	}
	return nil
}

// fromFirestoreError converts a gRPC status error into a *StatusError.
// ResourceExhausted is Firestore's throttling signal; its RetryInfo detail,
// when present, becomes the retry-after hint.
func fromFirestoreError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	se := &StatusError{StatusCode: httpStatusFromCode(st.Code()), Err: err}
	if st.Code() == codes.ResourceExhausted {
		for _, d := range st.Details() {
			if ri, ok := d.(*errdetails.RetryInfo); ok {
				se.RetryAfter = ri.GetRetryDelay().AsDuration()
			}
		}
	}
	return se
}

func httpStatusFromCode(c codes.Code) int {
	switch c {
	case codes.OK:
		return http.StatusOK
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Canceled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}
