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

package sprout

import (
	"context"

	"github.com/tomoncle/sprout/repository"
	"github.com/tomoncle/sprout/types"
)

type Service[T any] interface {
	// Get returns a single entity by its identifier, or nil.
	Get(ctx context.Context, id any) *T

	// All returns all entities.
	All(ctx context.Context) []*T

	// List returns entities that match the provided options.
	List(ctx context.Context, opts repository.FindOptions) []*T

	// Page returns one page of entities matching opts.
	Page(ctx context.Context, opts repository.FindOptions, page *types.PageRequest) (*types.Pagination[T], error)

	// Save inserts or updates an entity.
	Save(ctx context.Context, model *T) (*T, error)

	// SaveAll saves entities in one transaction.
	SaveAll(ctx context.Context, models ...*T) ([]*T, error)

	// Update sets the given columns of the entity with id.
	Update(ctx context.Context, id any, fields repository.Values) (*repository.UpdateResult, error)

	// Delete removes an entity by its identifier.
	Delete(ctx context.Context, id any) error
}

type baseServiceImpl[T any] struct {
	repo repository.Repository[T]
}

// NewService returns a Service delegating to repo.
func NewService[T any](repo repository.Repository[T]) Service[T] {
	return &baseServiceImpl[T]{repo: repo}
}

// NewServiceFor builds the repository for T on conn and wraps it.
func NewServiceFor[T any](conn repository.Connection, opts ...repository.Option) (Service[T], error) {
	repo, err := repository.NewRepository[T](conn, opts...)
	if err != nil {
		return nil, err
	}
	return NewService[T](repo), nil
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any) *T {
	return s.repo.FindOneByID(ctx, id)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) []*T {
	return s.repo.FindAll(ctx, nil)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, opts repository.FindOptions) []*T {
	return s.repo.FindAll(ctx, &opts)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, opts repository.FindOptions, page *types.PageRequest) (*types.Pagination[T], error) {
	if page == nil {
		page = types.NewDefaultPageRequest()
	}
	return s.repo.Paginate(ctx, opts, page.GetPage(), page.GetLimit())
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model *T) (*T, error) {
	return s.repo.Save(ctx, model)
}

func (s *baseServiceImpl[T]) SaveAll(ctx context.Context, models ...*T) ([]*T, error) {
	return s.repo.SaveMany(ctx, models)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, id any, fields repository.Values) (*repository.UpdateResult, error) {
	return s.repo.Update(ctx, id, fields)
}

// Delete removes the entity with id. A missing entity is not an error; a
// failed lookup is.
func (s *baseServiceImpl[T]) Delete(ctx context.Context, id any) error {
	_, err := s.repo.RemoveByID(ctx, id)
	return err
}
