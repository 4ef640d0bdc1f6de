package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"fintrack/internal/core"
)

// Resource names as used in logs, metrics and refresh events.
const (
	ResourceAccounts     = "accounts"
	ResourceTransactions = "transactions"
	ResourceBudgets      = "budgets"
	ResourceCategories   = "categories"
	ResourceCharts       = "charts"
	ResourceAuth         = "auth"
)

// Operation names reported to the Observer.
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpRemove = "remove"
)

// Saved is the result of a create or update. Record is decoded from the
// response body, so it may be only partially filled when the backend answers
// with an acknowledgement instead of the full record.
type Saved[T any] struct {
	Record  T
	ID      string
	Message string
}

// Ack acknowledges a removal. Message is informational only.
type Ack struct {
	ID      string
	Message string
}

type envelope struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Resource is a CRUD collection of records of type T.
type Resource[T any] struct {
	client     *Client
	name       string
	collection string
}

// NewResource binds a collection path such as "/api/accounts/" to c.
func NewResource[T any](c *Client, name, collection string) *Resource[T] {
	return &Resource[T]{client: c, name: name, collection: collection}
}

func (c *Client) Accounts() *Resource[core.Account] {
	return NewResource[core.Account](c, ResourceAccounts, "/api/accounts/")
}

func (c *Client) Transactions() *Resource[core.Transaction] {
	return NewResource[core.Transaction](c, ResourceTransactions, "/api/transactions/")
}

func (c *Client) Budgets() *Resource[core.Budget] {
	return NewResource[core.Budget](c, ResourceBudgets, "/api/budgets")
}

// Name returns the resource name.
func (r *Resource[T]) Name() string {
	return r.name
}

func (r *Resource[T]) itemPath(id string) string {
	return strings.TrimSuffix(r.collection, "/") + "/" + url.PathEscape(id)
}

// List fetches every record. The backend answers either with a bare array
// or with an object keyed by the resource name.
func (r *Resource[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	resp, err := r.client.do(ctx, r.name, OpList, http.MethodGet, r.collection, query, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[T](r.name, resp.body)
}

func decodeList[T any](name string, body []byte) ([]T, error) {
	items := []T{}
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", name, err)
	}
	raw, ok := wrapped[name]
	if !ok {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", name, err)
	}
	return items, nil
}

// Get fetches one record.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	resp, err := r.client.do(ctx, r.name, OpGet, http.MethodGet, r.itemPath(id), nil, nil)
	if err != nil {
		return rec, err
	}
	err = decode(r.name, resp.body, &rec)
	return rec, err
}

// Create posts payload to the collection.
func (r *Resource[T]) Create(ctx context.Context, payload any) (Saved[T], error) {
	resp, err := r.client.do(ctx, r.name, OpCreate, http.MethodPost, r.collection, nil, payload)
	if err != nil {
		return Saved[T]{}, err
	}
	return decodeSaved[T](r.name, resp.body)
}

// Update replaces the record identified by id.
func (r *Resource[T]) Update(ctx context.Context, id string, payload any) (Saved[T], error) {
	resp, err := r.client.do(ctx, r.name, OpUpdate, http.MethodPut, r.itemPath(id), nil, payload)
	if err != nil {
		return Saved[T]{}, err
	}
	saved, err := decodeSaved[T](r.name, resp.body)
	if saved.ID == "" {
		saved.ID = id
	}
	return saved, err
}

// Remove deletes the record identified by id.
func (r *Resource[T]) Remove(ctx context.Context, id string) (Ack, error) {
	resp, err := r.client.do(ctx, r.name, OpRemove, http.MethodDelete, r.itemPath(id), nil, nil)
	if err != nil {
		return Ack{}, err
	}
	var env envelope
	// The message is informational, so an unexpected body is not an error.
	_ = decode(r.name, resp.body, &env)
	if env.ID == "" {
		env.ID = id
	}
	return Ack{ID: env.ID, Message: env.Message}, nil
}

func decodeSaved[T any](name string, body []byte) (Saved[T], error) {
	var saved Saved[T]
	if err := decode(name, body, &saved.Record); err != nil {
		return saved, err
	}
	var env envelope
	_ = decode(name, body, &env)
	saved.ID = env.ID
	saved.Message = env.Message
	return saved, nil
}
