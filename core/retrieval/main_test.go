package retrieval

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/hiersearch/database"
	"github.com/siherrmann/hiersearch/helper"
	loadSql "github.com/siherrmann/hiersearch/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	return db
}

// handlers persists indexed trees in the test database
type handlers struct {
	*database.ChunksDBHandler
	*database.EntriesDBHandler
}

func initHandlers(t *testing.T, dim int) *handlers {
	db := initDB(t)

	chunks, err := database.NewChunksDBHandler(db, dim, true)
	require.NoError(t, err)

	entries, err := database.NewEntriesDBHandler(db, true)
	require.NoError(t, err)

	// The container is cleaned up in TestMain
	return &handlers{ChunksDBHandler: chunks, EntriesDBHandler: entries}
}
