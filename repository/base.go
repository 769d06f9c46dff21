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
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/sprout/database"
	"github.com/tomoncle/sprout/types"
	"github.com/tomoncle/sprout/utils"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

const LoggerName = "REPOSITORY"

// BaseRepository implements Repository[T] for a bun model T.
type BaseRepository[T any] struct {
	db     *bun.DB
	table  *schema.Table
	pk     *schema.Field
	name   string
	logger *logrus.Logger
}

var _ Repository[struct{}] = (*BaseRepository[struct{}])(nil)

// NewRepository returns a repository for T on conn. It fails with
// ErrNotInitialized when conn is not ready and with ErrInvalidEntity when T
// is not a struct with exactly one primary key.
func NewRepository[T any](conn Connection, opts ...Option) (*BaseRepository[T], error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = utils.NewLogger(LoggerName)
	}

	typ := reflect.TypeOf((*T)(nil)).Elem()
	if conn == nil || !conn.IsInitialized() || conn.GetDB() == nil {
		o.logger.WithField("entity", typ.Name()).Error("repository construction failed: database connection is not initialized")
		return nil, ErrNotInitialized
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidEntity, typ)
	}

	db := conn.GetDB()
	table := db.Table(typ)
	if len(table.PKs) != 1 {
		return nil, fmt.Errorf("%w: %s has %d primary keys", ErrInvalidEntity, typ, len(table.PKs))
	}
	return &BaseRepository[T]{
		db:     db,
		table:  table,
		pk:     table.PKs[0],
		name:   typ.Name(),
		logger: o.logger,
	}, nil
}

// MustNewRepository is like NewRepository but panics on error.
func MustNewRepository[T any](conn Connection, opts ...Option) *BaseRepository[T] {
	r, err := NewRepository[T](conn, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Create copies the struct value only; nested pointers, slices and maps are
// shared with data.
func (r *BaseRepository[T]) Create(data *T) *T {
	entity := new(T)
	if data != nil {
		*entity = *data
	}
	return entity
}

func (r *BaseRepository[T]) CreateMany(data []*T) []*T {
	entities := make([]*T, len(data))
	for i, d := range data {
		entities[i] = r.Create(d)
	}
	return entities
}

func (r *BaseRepository[T]) Save(ctx context.Context, data *T) (*T, error) {
	entity, err := r.save(ctx, r.db, data)
	if err != nil {
		r.logFailure("save", err)
		return nil, err
	}
	return entity, nil
}

func (r *BaseRepository[T]) SaveMany(ctx context.Context, data []*T) ([]*T, error) {
	saved := make([]*T, 0, len(data))
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, d := range data {
			entity, err := r.save(ctx, tx, d)
			if err != nil {
				return err
			}
			saved = append(saved, entity)
		}
		return nil
	})
	if err != nil {
		r.logFailure("saveMany", err, "count", len(data))
		return nil, err
	}
	return saved, nil
}

func (r *BaseRepository[T]) save(ctx context.Context, db bun.IDB, data *T) (*T, error) {
	entity := r.Create(data)
	if !r.hasID(entity) {
		return r.insert(ctx, db, entity)
	}

	existing := new(T)
	err := db.NewSelect().
		Model(existing).
		Where("?TableAlias.? = ?", bun.Ident(r.pk.Name), r.id(entity)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return r.insert(ctx, db, entity)
	}
	if err != nil {
		return nil, err
	}

	r.merge(existing, entity)
	if _, err := db.NewUpdate().Model(existing).WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	return r.reload(ctx, db, existing)
}

func (r *BaseRepository[T]) insert(ctx context.Context, db bun.IDB, entity *T) (*T, error) {
	q := db.NewInsert().Model(entity)
	if r.db.HasFeature(feature.InsertReturning) {
		if _, err := q.Returning("*").Exec(ctx); err != nil {
			return nil, err
		}
		return entity, nil
	}
	if _, err := q.Exec(ctx); err != nil {
		return nil, err
	}
	return r.reload(ctx, db, entity)
}

// reload refreshes entity from its stored row so database defaults are visible.
func (r *BaseRepository[T]) reload(ctx context.Context, db bun.IDB, entity *T) (*T, error) {
	if err := db.NewSelect().Model(entity).WherePK().Scan(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *BaseRepository[T]) FindOneByID(ctx context.Context, id any) *T {
	entity := new(T)
	err := r.db.NewSelect().
		Model(entity).
		Where("?TableAlias.? = ?", bun.Ident(r.pk.Name), id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		r.logRead("findOneById", err, "id", id)
		return nil
	}
	return entity
}

func (r *BaseRepository[T]) FindByCondition(ctx context.Context, opts FindOptions) *T {
	entity := new(T)
	q, err := r.selectQuery(entity, &opts)
	if err != nil {
		r.logFailure("findByCondition", err)
		return nil
	}
	if err := q.Limit(1).Scan(ctx); err != nil {
		r.logRead("findByCondition", err)
		return nil
	}
	return entity
}

func (r *BaseRepository[T]) FindAll(ctx context.Context, opts *FindOptions) []*T {
	return r.find(ctx, "findAll", opts)
}

func (r *BaseRepository[T]) FindWithRelations(ctx context.Context, opts FindOptions) []*T {
	return r.find(ctx, "findWithRelations", &opts)
}

func (r *BaseRepository[T]) find(ctx context.Context, op string, opts *FindOptions) []*T {
	entities := make([]*T, 0)
	q, err := r.selectQuery(&entities, opts)
	if err != nil {
		r.logFailure(op, err)
		return make([]*T, 0)
	}
	if opts != nil {
		if opts.Offset > 0 {
			q = q.Offset(opts.Offset)
		}
		if opts.Limit > 0 {
			q = q.Limit(opts.Limit)
		}
	}
	if err := q.Scan(ctx); err != nil {
		r.logFailure(op, err)
		return make([]*T, 0)
	}
	return entities
}

func (r *BaseRepository[T]) Remove(ctx context.Context, entity *T) (*T, error) {
	if entity == nil || !r.hasID(entity) {
		r.logFailure("remove", ErrMissingID)
		return nil, ErrMissingID
	}
	snapshot := r.Create(entity)
	if _, err := r.db.NewDelete().Model(snapshot).WherePK().Exec(ctx); err != nil {
		r.logFailure("remove", err, "id", r.id(entity))
		return nil, err
	}
	return snapshot, nil
}

// RemoveByID deletes the row with id and returns it. A missing row yields
// (nil, nil). Unlike FindOneByID, a failed lookup is returned.
func (r *BaseRepository[T]) RemoveByID(ctx context.Context, id any) (*T, error) {
	entity := new(T)
	err := r.db.NewSelect().
		Model(entity).
		Where("?TableAlias.? = ?", bun.Ident(r.pk.Name), id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		r.logRead("removeById", err, "id", id)
		return nil, nil
	}
	if err != nil {
		r.logFailure("removeById", err, "id", id)
		return nil, err
	}
	return r.Remove(ctx, entity)
}

func (r *BaseRepository[T]) Preload(ctx context.Context, partial *T) *T {
	if partial == nil || !r.hasID(partial) {
		r.logFailure("preload", ErrMissingID)
		return nil
	}
	loaded := r.Create(partial)
	if err := r.db.NewSelect().Model(loaded).WherePK().Scan(ctx); err != nil {
		r.logRead("preload", err, "id", r.id(partial))
		return nil
	}
	r.merge(loaded, partial)
	return loaded
}

func (r *BaseRepository[T]) Update(ctx context.Context, id any, fields Values) (*UpdateResult, error) {
	if len(fields) == 0 {
		r.logFailure("update", ErrEmptyUpdate, "id", id)
		return nil, ErrEmptyUpdate
	}
	columns := make([]string, 0, len(fields))
	for col := range fields {
		if !r.table.HasField(col) {
			err := fmt.Errorf("%w: %s.%s", ErrUnknownColumn, r.table.Name, col)
			r.logFailure("update", err, "id", id)
			return nil, err
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	q := r.db.NewUpdate().Model((*T)(nil))
	for _, col := range columns {
		q = q.Set("? = ?", bun.Ident(col), fields[col])
	}
	res, err := q.Where("? = ?", bun.Ident(r.pk.Name), id).Exec(ctx)
	if err != nil {
		r.logFailure("update", err, "id", id)
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		r.logFailure("update", err, "id", id)
		return nil, err
	}
	return &UpdateResult{Affected: affected}, nil
}

func (r *BaseRepository[T]) Paginate(ctx context.Context, opts FindOptions, page, limit int) (*types.Pagination[T], error) {
	var entities []*T
	req := types.NewPageRequest(page, limit)
	pagination := types.NewPagination[T](req)

	unordered := opts
	unordered.Order = nil
	query, err := r.selectQuery(&entities, &unordered)
	if err != nil {
		r.logFailure("paginate", err)
		return nil, err
	}
	total, err := query.Count(ctx)
	if err != nil {
		r.logFailure("paginate", err)
		return nil, err
	}
	pagination.Total = total
	if total == 0 {
		return pagination, nil
	}

	query, err = r.selectQuery(&entities, &opts)
	if err != nil {
		r.logFailure("paginate", err)
		return nil, err
	}
	err = query.
		Offset(req.GetOffset()).
		Limit(req.GetLimit()).
		Scan(ctx)
	if err != nil {
		r.logFailure("paginate", err, "page", req.GetPage(), "limit", req.GetLimit())
		return nil, err
	}
	if entities != nil {
		pagination.Data = entities
	}
	return pagination, nil
}

// selectQuery validates opts against the table schema and builds the
// filtered, ordered query. No SQL is issued.
func (r *BaseRepository[T]) selectQuery(model any, opts *FindOptions) (*bun.SelectQuery, error) {
	q := r.db.NewSelect().Model(model)
	if opts == nil {
		return q, nil
	}

	columns := make([]string, 0, len(opts.Where))
	for col := range opts.Where {
		if !r.table.HasField(col) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, r.table.Name, col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)
	for _, col := range columns {
		if val := opts.Where[col]; val == nil {
			q = q.Where("?TableAlias.? IS NULL", bun.Ident(col))
		} else {
			q = q.Where("?TableAlias.? = ?", bun.Ident(col), val)
		}
	}

	for _, o := range opts.Order {
		if !r.table.HasField(o.Column) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, r.table.Name, o.Column)
		}
		if o.Desc {
			q = q.OrderExpr("?TableAlias.? DESC", bun.Ident(o.Column))
		} else {
			q = q.OrderExpr("?TableAlias.? ASC", bun.Ident(o.Column))
		}
	}

	for _, rel := range opts.Relations {
		if !hasRelation(r.table, rel) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, r.name, rel)
		}
		q = q.Relation(rel)
	}
	return q, nil
}

func hasRelation(table *schema.Table, path string) bool {
	for _, name := range strings.Split(path, ".") {
		rel, ok := table.Relations[name]
		if !ok {
			return false
		}
		table = rel.JoinTable
	}
	return true
}

// merge copies the non-zero columns of src onto dst.
func (r *BaseRepository[T]) merge(dst, src *T) {
	dv := reflect.ValueOf(dst).Elem()
	sv := reflect.ValueOf(src).Elem()
	for _, f := range r.table.Fields {
		if f.HasZeroValue(sv) {
			continue
		}
		f.Value(dv).Set(f.Value(sv))
	}
}

func (r *BaseRepository[T]) hasID(entity *T) bool {
	return !r.pk.HasZeroValue(reflect.ValueOf(entity).Elem())
}

func (r *BaseRepository[T]) id(entity *T) any {
	return r.pk.Value(reflect.ValueOf(entity).Elem()).Interface()
}

// logRead logs a failed lookup. A plain miss is not a failure.
func (r *BaseRepository[T]) logRead(op string, err error, kv ...any) {
	if errors.Is(err, sql.ErrNoRows) {
		r.entry(op, kv).Debug("no rows found")
		return
	}
	r.logFailure(op, err, kv...)
}

func (r *BaseRepository[T]) logFailure(op string, err error, kv ...any) {
	e := r.entry(op, kv).WithError(err)
	if is, kind := database.IsSqlError(err); is {
		e = e.WithField("sql_error", kind.String())
	}
	e.Errorf("%s %s failed", r.name, op)
}

func (r *BaseRepository[T]) entry(op string, kv []any) *logrus.Entry {
	fields := logrus.Fields{"op": op, "entity": r.name}
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			fields[key] = kv[i+1]
		}
	}
	return r.logger.WithFields(fields)
}
