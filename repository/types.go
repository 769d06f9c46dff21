/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/sprout/types"
	"github.com/uptrace/bun"
)

var (
	ErrNotInitialized  = errors.New("database connection is not initialized")
	ErrInvalidEntity   = errors.New("entity must be a bun model with exactly one primary key")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrUnknownRelation = errors.New("unknown relation")
	ErrEmptyUpdate     = errors.New("update requires at least one field")
	ErrMissingID       = errors.New("entity has no primary key value")
)

// Where matches rows whose columns equal the given values. A nil value
// matches NULL.
type Where map[string]any

// Values maps column names to new values for Update.
type Values map[string]any

// Order sorts by one column, ascending unless Desc is set.
type Order struct {
	Column string
	Desc   bool
}

// Asc and Desc build an Order for column.
func Asc(column string) Order  { return Order{Column: column} }
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// FindOptions is the filter, sort and relation set accepted by the read
// operations. Column names are SQL column names; relation names are the Go
// field names of bun relations, dot separated for nested relations.
type FindOptions struct {
	Where     Where
	Order     []Order
	Relations []string
	Offset    int
	Limit     int
}

// UpdateResult reports the outcome of Update.
type UpdateResult struct {
	Affected int64 `json:"affected"`
}

// Connection is the readiness-aware handle a repository is built on.
type Connection interface {
	GetDB() *bun.DB
	IsInitialized() bool
}

// CrudRepository groups the create, save, remove and update operations.
// Reads swallow storage failures; writes return them.
type CrudRepository[T any] interface {
	// Create returns a shallow copy of data. It does not touch the database.
	// Pointer, slice and map fields of the copy share their targets with data.
	Create(data *T) *T

	CreateMany(data []*T) []*T

	// Save inserts data when its primary key is zero or no row has it, and
	// otherwise updates the row with the non-zero fields of data.
	Save(ctx context.Context, data *T) (*T, error)

	// SaveMany saves every entity inside one transaction.
	SaveMany(ctx context.Context, data []*T) ([]*T, error)

	Remove(ctx context.Context, entity *T) (*T, error)

	// RemoveByID looks the row up and removes it. A missing row is (nil, nil).
	RemoveByID(ctx context.Context, id any) (*T, error)

	Update(ctx context.Context, id any, fields Values) (*UpdateResult, error)
}

// QueryRepository groups the read operations. A miss and a failed query both
// yield nil or an empty slice; failures are logged.
type QueryRepository[T any] interface {
	FindOneByID(ctx context.Context, id any) *T
	FindByCondition(ctx context.Context, opts FindOptions) *T
	FindAll(ctx context.Context, opts *FindOptions) []*T
	FindWithRelations(ctx context.Context, opts FindOptions) []*T

	// Preload returns the stored row with the non-zero fields of partial
	// merged in, without writing it.
	Preload(ctx context.Context, partial *T) *T
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Paginate(ctx context.Context, opts FindOptions, page, limit int) (*types.Pagination[T], error)
}

// Repository is the full operation set for one entity type.
type Repository[T any] interface {
	CrudRepository[T]
	QueryRepository[T]
	PageQueryRepository[T]
}

// Option configures a BaseRepository.
type Option func(*options)

type options struct {
	logger *logrus.Logger
}

// WithLogger replaces the REPOSITORY logger.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
