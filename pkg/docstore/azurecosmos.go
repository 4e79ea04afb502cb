package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
)

const (
	cosmosRetryAfterHeader = "x-ms-retry-after-ms"
	partitionKeyPath       = "/id"
)

// cosmosRetryStatusCodes leaves 429 out so throttling reaches the WriteExecutor.
var cosmosRetryStatusCodes = []int{
	http.StatusRequestTimeout,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// --- Adapter for Azure Cosmos DB ---
// Containers are partitioned on /id; documents are marshalled with encoding/json.

type cosmosClient struct {
	client *azcosmos.Client
}

// NewCosmosClient creates a DocumentClient over an Azure Cosmos DB account.
func NewCosmosClient(connectionString string) (DocumentClient, error) {
	opts := &azcosmos.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{StatusCodes: cosmosRetryStatusCodes},
		},
	}
	client, err := azcosmos.NewClientFromConnectionString(connectionString, opts)
	if err != nil {
		return nil, fmt.Errorf("azcosmos.NewClientFromConnectionString: %w", err)
	}
	return NewCosmosClientAdapter(client)
}

// NewCosmosClientAdapter wraps an existing *azcosmos.Client.
func NewCosmosClientAdapter(client *azcosmos.Client) (DocumentClient, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &cosmosClient{client: client}, nil
}

func (c *cosmosClient) EnsureDatabase(ctx context.Context, database string) error {
	_, err := c.client.CreateDatabase(ctx, azcosmos.DatabaseProperties{ID: database}, nil)
	if err != nil && StatusCode(fromCosmosError(err)) == http.StatusConflict {
		return nil
	}
	return fromCosmosError(err)
}

func (c *cosmosClient) DeleteDatabase(ctx context.Context, database string) error {
	db, err := c.client.NewDatabase(database)
	if err != nil {
		return err
	}
	_, err = db.Delete(ctx, nil)
	return fromCosmosError(err)
}

func (c *cosmosClient) CollectionExists(ctx context.Context, link CollectionLink) (bool, error) {
	container, err := c.client.NewContainer(link.Database, link.Collection)
	if err != nil {
		return false, err
	}
	_, err = container.Read(ctx, nil)
	if err == nil {
		return true, nil
	}
	err = fromCosmosError(err)
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (c *cosmosClient) CreateCollection(ctx context.Context, link CollectionLink) error {
	db, err := c.client.NewDatabase(link.Database)
	if err != nil {
		return err
	}
	_, err = db.CreateContainer(ctx, azcosmos.ContainerProperties{
		ID: link.Collection,
		PartitionKeyDefinition: azcosmos.PartitionKeyDefinition{
			Paths: []string{partitionKeyPath},
		},
	}, nil)
	return fromCosmosError(err)
}

func (c *cosmosClient) DeleteCollection(ctx context.Context, link CollectionLink) error {
	container, err := c.client.NewContainer(link.Database, link.Collection)
	if err != nil {
		return err
	}
	_, err = container.Delete(ctx, nil)
	return fromCosmosError(err)
}

func (c *cosmosClient) CreateDocument(ctx context.Context, link CollectionLink, id string, doc any) error {
	container, body, err := c.prepare(link, doc)
	if err != nil {
		return err
	}
	_, err = container.CreateItem(ctx, azcosmos.NewPartitionKeyString(id), body, nil)
	return fromCosmosError(err)
}

func (c *cosmosClient) ReplaceDocument(ctx context.Context, link CollectionLink, id string, doc any) error {
	container, body, err := c.prepare(link, doc)
	if err != nil {
		return err
	}
	_, err = container.ReplaceItem(ctx, azcosmos.NewPartitionKeyString(id), id, body, nil)
	return fromCosmosError(err)
}

func (c *cosmosClient) DeleteDocument(ctx context.Context, link CollectionLink, id string) error {
	container, err := c.client.NewContainer(link.Database, link.Collection)
	if err != nil {
		return err
	}
	_, err = container.DeleteItem(ctx, azcosmos.NewPartitionKeyString(id), id, nil)
	return fromCosmosError(err)
}

func (c *cosmosClient) prepare(link CollectionLink, doc any) (*azcosmos.ContainerClient, []byte, error) {
	container, err := c.client.NewContainer(link.Database, link.Collection)
	if err != nil {
		return nil, nil, err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal document for '%s': %w", link, err)
	}
	return container, body, nil
}

// fromCosmosError converts an azcore.ResponseError into a *StatusError.
func fromCosmosError(err error) error {
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return err
	}
	se := &StatusError{StatusCode: respErr.StatusCode, Err: err}
	if respErr.StatusCode == http.StatusTooManyRequests && respErr.RawResponse != nil {
		se.RetryAfter = retryAfter(respErr.RawResponse.Header)
	}
	return se
}

// retryAfter reads the Cosmos millisecond hint, falling back to the standard
// Retry-After header in seconds.
func retryAfter(h http.Header) time.Duration {
	if v := h.Get(cosmosRetryAfterHeader); v != "" {
		if ms, err := strconv.ParseFloat(v, 64); err == nil && ms > 0 {
			return time.Duration(ms * float64(time.Millisecond))
		}
	}
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
