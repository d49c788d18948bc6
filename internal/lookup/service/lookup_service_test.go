package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qctrack/qctrack-backend/internal/lookup/cache"
	"github.com/qctrack/qctrack-backend/internal/lookup/domain"
	"github.com/qctrack/qctrack-backend/internal/lookup/repository"
)

func setup(t *testing.T, withCache bool) (*LookupService, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var c *cache.Cache
	var mr *miniredis.Miniredis
	if withCache {
		mr = miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		c = cache.New(client, time.Hour)
	}
	return NewLookupService(repository.New(db), c, nil), mock, mr
}

func TestOptions_MissThenHit(t *testing.T) {
	svc, mock, mr := setup(t, true)
	ctx := context.Background()

	mock.ExpectQuery("FROM divisions").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Civil").AddRow(2, "MEP"))

	opts, err := svc.Options(ctx, domain.KindDivisions, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.Option{{Value: 1, Label: "Civil"}, {Value: 2, Label: "MEP"}}, opts)
	assert.True(t, mr.Exists("qctrack:lookup:divisions:all"))

	// served from cache: no further query expected
	opts, err = svc.Options(ctx, domain.KindDivisions, nil)
	require.NoError(t, err)
	assert.Len(t, opts, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptions_ParentNarrowsOnlyParentKinds(t *testing.T) {
	svc, mock, mr := setup(t, true)
	ctx := context.Background()
	parent := int64(4)

	mock.ExpectQuery("FROM products").WithArgs(parent).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(9, "Towers"))
	mock.ExpectQuery("FROM divisions").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := svc.Options(ctx, domain.KindProducts, &parent)
	require.NoError(t, err)
	_, err = svc.Options(ctx, domain.KindDivisions, &parent)
	require.NoError(t, err)

	assert.True(t, mr.Exists("qctrack:lookup:products:4"))
	assert.True(t, mr.Exists("qctrack:lookup:divisions:all"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptions_CacheDownFallsBackToDatabase(t *testing.T) {
	svc, mock, mr := setup(t, true)
	mr.Close()

	mock.ExpectQuery("FROM resource_roles").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "Checker"))

	opts, err := svc.Options(context.Background(), domain.KindResourceRoles, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.Option{{Value: 3, Label: "Checker"}}, opts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptions_NoCache(t *testing.T) {
	svc, mock, _ := setup(t, false)

	mock.ExpectQuery("FROM projects").
		WillReturnRows(sqlmock.NewRows([]string{"id", "label"}).AddRow(1, "P-001 - Harbour Bridge"))
	mock.ExpectQuery("FROM projects").
		WillReturnRows(sqlmock.NewRows([]string{"id", "label"}).AddRow(1, "P-001 - Harbour Bridge"))

	for i := 0; i < 2; i++ {
		opts, err := svc.Options(context.Background(), domain.KindProjects, nil)
		require.NoError(t, err)
		assert.Equal(t, "P-001 - Harbour Bridge", opts[0].Label)
	}
	assert.NoError(t, mock.ExpectationsWereMet())

	svc.Invalidate(context.Background(), domain.KindProjects)
	assert.NoError(t, svc.Warm(context.Background()))
}

func TestInvalidateThenReload(t *testing.T) {
	svc, mock, mr := setup(t, true)
	ctx := context.Background()

	mock.ExpectQuery("FROM error_categories").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Dimension"))
	mock.ExpectQuery("FROM error_categories").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Dimension").AddRow(2, "Annotation"))

	_, err := svc.Options(ctx, domain.KindErrorCategories, nil)
	require.NoError(t, err)

	svc.Invalidate(ctx, domain.KindErrorCategories)
	assert.False(t, mr.Exists("qctrack:lookup:errorCategories:all"))

	opts, err := svc.Options(ctx, domain.KindErrorCategories, nil)
	require.NoError(t, err)
	assert.Len(t, opts, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type invalidatingLoader struct {
	Loader
	during func()
}

func (l invalidatingLoader) Load(ctx context.Context, kind domain.Kind, parentID *int64) ([]domain.Option, error) {
	opts, err := l.Loader.Load(ctx, kind, parentID)
	l.during()
	return opts, err
}

func TestOptions_InvalidateDuringLoadIsNotRecached(t *testing.T) {
	svc, mock, mr := setup(t, true)
	ctx := context.Background()
	parent := int64(4)

	svc.repo = invalidatingLoader{Loader: svc.repo, during: func() {
		svc.Invalidate(ctx, domain.KindProducts)
	}}

	mock.ExpectQuery("FROM products").WithArgs(parent).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(9, "Towers"))

	opts, err := svc.Options(ctx, domain.KindProducts, &parent)
	require.NoError(t, err)
	assert.Len(t, opts, 1, "the caller still gets what it loaded")
	assert.False(t, mr.Exists("qctrack:lookup:products:4"), "a list read before the invalidation stays out of the cache")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWarm(t *testing.T) {
	svc, mock, mr := setup(t, true)

	for range domain.Kinds {
		mock.ExpectQuery("SELECT id").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "x"))
	}

	require.NoError(t, svc.Warm(context.Background()))
	for _, k := range domain.Kinds {
		assert.True(t, mr.Exists(cache.Key(k, nil)), k)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
