package database

import (
	"context"
	"fmt"
)

const StoreMongo = "mongo"

// Open connects to the backend named by store. SQL backends have their schema
// migrated before Open returns.
func Open(ctx context.Context, store, dsn, mongoDatabase string) (Store, error) {
	switch store {
	case DriverPostgres, DriverSqlite:
		return NewSqlCourierRepository(ctx, store, dsn)
	case StoreMongo:
		return NewMongoCourierRepository(ctx, dsn, mongoDatabase)
	default:
		return nil, fmt.Errorf("unknown store %q", store)
	}
}
