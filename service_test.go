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
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/sprout/database"
	"github.com/tomoncle/sprout/repository"
	"github.com/tomoncle/sprout/types"
	"github.com/uptrace/bun"
)

type SystemConfig struct {
	bun.BaseModel `bun:"table:system_config,alias:sc"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	ConfigKey   string    `bun:"config_key,notnull,unique" json:"config_key"`
	ConfigValue string    `bun:"config_value" json:"config_value"`
	ConfigType  string    `bun:"config_type,nullzero,notnull,default:'string'" json:"config_type"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

func newService(t *testing.T) (Service[SystemConfig], database.AbstractDatabaseManager) {
	t.Helper()
	cc := database.DefaultConnectionConfig()
	cc.Type = "sqlite"
	cc.DBName = fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	cc.MaxOpenConns = 1
	cc.Synchronize = true

	dbLogger, _ := test.NewNullLogger()
	registry := database.NewModelRegistry(database.NewModelAdapter((*SystemConfig)(nil), 1))
	manager, err := database.Open(context.Background(), cc, registry, database.NewDefaultLogger(dbLogger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Disconnect() })

	logger, _ := test.NewNullLogger()
	svc, err := NewServiceFor[SystemConfig](manager, repository.WithLogger(logger))
	require.NoError(t, err)
	return svc, manager
}

func TestServiceCrud(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, &SystemConfig{ConfigKey: "site.name", ConfigValue: "sprout"})
	require.NoError(t, err)
	require.NotZero(t, saved.ID)
	assert.Equal(t, "string", saved.ConfigType)
	assert.False(t, saved.CreatedAt.IsZero())

	assert.Equal(t, saved, svc.Get(ctx, saved.ID))

	res, err := svc.Update(ctx, saved.ID, repository.Values{"config_value": "changed"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)
	assert.Equal(t, "changed", svc.Get(ctx, saved.ID).ConfigValue)

	require.NoError(t, svc.Delete(ctx, saved.ID))
	assert.Nil(t, svc.Get(ctx, saved.ID))
	require.NoError(t, svc.Delete(ctx, saved.ID))
}

func TestServiceListAndPage(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	models := make([]*SystemConfig, 12)
	for i := range models {
		typ := "string"
		if i%2 == 0 {
			typ = "int"
		}
		models[i] = &SystemConfig{ConfigKey: fmt.Sprintf("key.%02d", i), ConfigValue: fmt.Sprint(i), ConfigType: typ}
	}
	_, err := svc.SaveAll(ctx, models...)
	require.NoError(t, err)

	assert.Len(t, svc.All(ctx), 12)
	assert.Len(t, svc.List(ctx, repository.FindOptions{Where: repository.Where{"config_type": "int"}}), 6)

	page, err := svc.Page(ctx, repository.FindOptions{Order: []repository.Order{repository.Desc("config_key")}}, types.NewPageRequest(2, 5))
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	require.Len(t, page.Data, 5)
	assert.Equal(t, "key.06", page.Data[0].ConfigKey)

	first, err := svc.Page(ctx, repository.FindOptions{}, nil)
	require.NoError(t, err)
	assert.Len(t, first.Data, 10)
}

func TestServiceDeleteReportsStorageFailure(t *testing.T) {
	svc, manager := newService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, &SystemConfig{ConfigKey: "site.name"})
	require.NoError(t, err)

	_, err = manager.GetDB().NewDropTable().Model((*SystemConfig)(nil)).Exec(ctx)
	require.NoError(t, err)

	assert.Nil(t, svc.Get(ctx, saved.ID))
	assert.Error(t, svc.Delete(ctx, saved.ID))
}

func TestNewServiceForNotInitialized(t *testing.T) {
	logger, _ := test.NewNullLogger()
	manager := database.NewDatabaseManager(nil)

	svc, err := NewServiceFor[SystemConfig](manager, repository.WithLogger(logger))
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, repository.ErrNotInitialized)
}
