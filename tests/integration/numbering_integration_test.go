package integration

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vendra/backend/internal/domain/numbering"
	"github.com/vendra/backend/internal/domain/shared"
	"github.com/vendra/backend/internal/infrastructure/persistence"
)

func seedSequence(t *testing.T, db *gorm.DB, docType, branch string, next int64) {
	t.Helper()
	require.NoError(t, db.Create(&numbering.SequenceCounter{
		DocumentType:  docType,
		Branch:        branch,
		NextNumber:    next,
		CopiesToPrint: 1,
	}).Error)
}

func TestSequenceAllocation_Concurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewCatalogTestDB(t)
	seedSequence(t, tdb.DB, "FCB", "0001", 1)

	repo := persistence.NewGormSequenceRepository()
	ctx := context.Background()

	const workers = 20
	numbers := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			numbers[i], errs[i] = repo.AllocateNew(ctx, tdb.DB, "FCB", "0001")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}

	// distinct and contiguous from the seeded start
	sort.Strings(numbers)
	for i, n := range numbers {
		assert.Equal(t, numbering.Format(int64(i+1)), n)
	}

	var counter numbering.SequenceCounter
	require.NoError(t, tdb.DB.
		Where("document_type = ? AND branch = ?", "FCB", "0001").
		First(&counter).Error)
	assert.Equal(t, int64(workers+1), counter.NextNumber)
}

func TestSequenceAllocation_RollbackReleasesNumber(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewCatalogTestDB(t)
	seedSequence(t, tdb.DB, "FCB", "0002", 10)

	repo := persistence.NewGormSequenceRepository()
	ctx := context.Background()

	// a failed unit of work gives its number back on rollback
	err := tdb.DB.Transaction(func(tx *gorm.DB) error {
		number, allocErr := repo.Allocate(ctx, tx, "FCB", "0002")
		require.NoError(t, allocErr)
		assert.Equal(t, "00000010", number)
		return assert.AnError
	})
	require.Error(t, err)

	number, err := repo.AllocateNew(ctx, tdb.DB, "FCB", "0002")
	require.NoError(t, err)
	assert.Equal(t, "00000010", number)
}

func TestSequenceAllocation_IndependentKeys(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewCatalogTestDB(t)
	seedSequence(t, tdb.DB, "FCB", "0001", 1)
	seedSequence(t, tdb.DB, "FCB", "0002", 500)
	seedSequence(t, tdb.DB, "PRV", "0001", 1)

	repo := persistence.NewGormSequenceRepository()
	ctx := context.Background()

	n1, err := repo.AllocateNew(ctx, tdb.DB, "FCB", "0001")
	require.NoError(t, err)
	n2, err := repo.AllocateNew(ctx, tdb.DB, "FCB", "0002")
	require.NoError(t, err)
	n3, err := repo.AllocateNew(ctx, tdb.DB, "PRV", "0001")
	require.NoError(t, err)

	assert.Equal(t, "00000001", n1)
	assert.Equal(t, "00000500", n2)
	assert.Equal(t, "00000001", n3)
}

func TestSequenceAllocation_NotConfigured(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewCatalogTestDB(t)
	repo := persistence.NewGormSequenceRepository()

	_, err := repo.AllocateNew(context.Background(), tdb.DB, "FCB", "9999")
	assert.ErrorIs(t, err, shared.ErrSequenceNotConfigured)

	// a failed allocation must not create the counter row
	var count int64
	require.NoError(t, tdb.DB.Model(&numbering.SequenceCounter{}).Count(&count).Error)
	assert.Zero(t, count)
}
