package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lista5/filesmanager"
	"github.com/lista5/filesmanager/database/sqlite"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a repo on a fresh in-memory database.
func setupTestRepo(t *testing.T) filesmanager.FileRepo {
	t.Helper()

	ctx := context.Background()
	tables := filesmanager.Tables{Files: "files_" + getRandomString(t)}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	return db.GetRepo()
}

func mustCreate(t *testing.T, repo filesmanager.FileRepo, name string) filesmanager.FileRecord {
	t.Helper()
	rec, err := repo.Create(context.Background(), filesmanager.NewFile{Name: name, URL: "https://signed/" + name})
	require.NoError(t, err)
	return rec
}
