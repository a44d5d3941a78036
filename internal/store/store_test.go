package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t569/scanapi/pkg/endpoints"
	"github.com/t569/scanapi/pkg/errors"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	file, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "scanapi.db"), 4)
	require.NoError(t, err)
	mem, err := OpenSQLite(ctx, ":memory:", 0)
	require.NoError(t, err)

	stores := map[string]Store{
		"sqlite-file":   file,
		"sqlite-memory": mem,
		"memory":        NewMemory(),
	}
	t.Cleanup(func() {
		for _, st := range stores {
			_ = st.Close()
		}
	})
	return stores
}

func newRecord(name string) *endpoints.Record {
	return &endpoints.Record{
		Name:     name,
		URL:      "https://example.com/" + name,
		Digest:   []byte("digest-" + name),
		Artifact: []byte{0x89, 'P', 'N', 'G', byte(len(name))},
	}
}

func acquire(t *testing.T, st Store) Session {
	t.Helper()
	sess, err := st.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Release() })
	return sess
}

func TestSession_InsertAndGet(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := acquire(t, st)

			rec := newRecord("menu")
			require.NoError(t, sess.Insert(ctx, rec))
			assert.NotEmpty(t, rec.ID)
			assert.False(t, rec.CreatedAt.IsZero())

			got, err := sess.GetByName(ctx, "menu")
			require.NoError(t, err)
			assert.Equal(t, rec.ID, got.ID)
			assert.Equal(t, rec.URL, got.URL)
			assert.Equal(t, rec.Digest, got.Digest)
			assert.Equal(t, rec.Artifact, got.Artifact)
			assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
		})
	}
}

func TestSession_GetByNameIsExact(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := acquire(t, st)
			require.NoError(t, sess.Insert(ctx, newRecord("Menu")))

			_, err := sess.GetByName(ctx, "menu")
			assert.True(t, errors.IsNotFound(err))

			_, err = sess.GetByName(ctx, "missing")
			var nf *errors.NotFoundError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, "missing", nf.ID)
		})
	}
}

func TestSession_InsertDuplicateName(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := acquire(t, st)
			require.NoError(t, sess.Insert(ctx, newRecord("dup")))

			err := sess.Insert(ctx, newRecord("dup"))
			require.Error(t, err)
			assert.True(t, errors.IsAlreadyExists(err), "got %v", err)

			n, err := sess.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestSession_ListPagination(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := acquire(t, st)
			for i := 0; i < 5; i++ {
				require.NoError(t, sess.Insert(ctx, newRecord(fmt.Sprintf("ep-%d", i))))
			}

			tests := []struct {
				skip, limit int
				want        []string
			}{
				{0, 100, []string{"ep-0", "ep-1", "ep-2", "ep-3", "ep-4"}},
				{1, 2, []string{"ep-1", "ep-2"}},
				{4, 10, []string{"ep-4"}},
				{5, 10, nil},
				{50, 10, nil},
				{0, 0, nil},
				{1, math.MaxInt, []string{"ep-1", "ep-2", "ep-3", "ep-4"}},
				{math.MaxInt, math.MaxInt, nil},
			}
			for _, tt := range tests {
				recs, err := sess.List(ctx, tt.skip, tt.limit)
				require.NoError(t, err)
				require.NotNil(t, recs)
				names := make([]string, 0, len(recs))
				for _, r := range recs {
					names = append(names, r.Name)
				}
				if tt.want == nil {
					assert.Empty(t, names, "skip=%d limit=%d", tt.skip, tt.limit)
				} else {
					assert.Equal(t, tt.want, names, "skip=%d limit=%d", tt.skip, tt.limit)
				}
			}

			_, err := sess.List(ctx, -1, 10)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestSession_Update(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := acquire(t, st)
			rec := newRecord("upd")
			require.NoError(t, sess.Insert(ctx, rec))

			rec.URL = "https://example.org/new"
			rec.Digest = []byte("new-digest")
			rec.Artifact = []byte("new-artifact")
			require.NoError(t, sess.Update(ctx, rec))

			got, err := sess.GetByName(ctx, "upd")
			require.NoError(t, err)
			assert.Equal(t, "https://example.org/new", got.URL)
			assert.Equal(t, []byte("new-digest"), got.Digest)
			assert.Equal(t, []byte("new-artifact"), got.Artifact)
			assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

			ghost := newRecord("ghost")
			ghost.ID = "does-not-exist"
			assert.True(t, errors.IsNotFound(sess.Update(ctx, ghost)))
		})
	}
}

func TestSession_ConcurrentInsertSameName(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const workers = 8

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				ok, taken int
			)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					sess, err := st.Acquire(ctx)
					if !assert.NoError(t, err) {
						return
					}
					defer sess.Release()
					err = sess.Insert(ctx, newRecord("race"))
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						ok++
					case errors.IsAlreadyExists(err):
						taken++
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, ok)
			assert.Equal(t, workers-1, taken)
		})
	}
}

func TestReleaseTwice(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			sess, err := st.Acquire(context.Background())
			require.NoError(t, err)
			assert.NoError(t, sess.Release())
			assert.NoError(t, sess.Release())
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)

	st, err = Open(ctx, Options{Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	assert.NoError(t, st.Ping(ctx))
	require.NoError(t, st.Close())

	_, err = Open(ctx, Options{Driver: "postgres"})
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = Open(ctx, Options{Driver: DriverSQLite})
	assert.ErrorAs(t, err, &cfgErr)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "again.db")

	first, err := OpenSQLite(ctx, path, 1)
	require.NoError(t, err)
	sess := acquire(t, first)
	require.NoError(t, sess.Insert(ctx, newRecord("kept")))
	require.NoError(t, sess.Release())
	require.NoError(t, first.Close())

	second, err := OpenSQLite(ctx, path, 1)
	require.NoError(t, err)
	defer second.Close()
	sess = acquire(t, second)
	n, err := sess.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("-- only a comment;\nCREATE TABLE a (x INT);\n\nCREATE INDEX i ON a(x);")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a(x)"}, stmts)
}
