package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservation-service/internal/locks"
	"reservation-service/internal/models"
	"reservation-service/internal/repository"
)

// fakeCatalog implements interfaces.CatalogClient for fallback-path tests
type fakeCatalog struct {
	mu       sync.Mutex
	stock    map[string]int
	getErr   error
	putErr   error
	getCalls int
	putCalls int
}

func newFakeCatalog(stock map[string]int) *fakeCatalog {
	if stock == nil {
		stock = make(map[string]int)
	}
	return &fakeCatalog{stock: stock}
}

func (f *fakeCatalog) GetStock(ctx context.Context, productID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.stock[productID], nil
}

func (f *fakeCatalog) UpdateStock(ctx context.Context, productID string, stockQuantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	f.stock[productID] = stockQuantity
	return nil
}

func newTestLedger(catalog *fakeCatalog) (*Ledger, *repository.MemoryLedgerRepository) {
	repo := repository.NewMemoryLedgerRepository()
	if catalog == nil {
		// A typed nil would not compare equal to nil inside the ledger.
		return NewLedger(repo, nil, locks.NewKeyedMutex()), repo
	}
	return NewLedger(repo, catalog, locks.NewKeyedMutex()), repo
}

func TestReserveAdjustsCounters(t *testing.T) {
	l, repo := newTestLedger(nil)
	ctx := context.Background()

	require.NoError(t, l.Restock(ctx, "p1", 100))

	ok, err := l.Reserve(ctx, "p1", 30)
	require.NoError(t, err)
	assert.True(t, ok)

	row, err := repo.GetLedger(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 100, row.QuantityOnHand)
	assert.Equal(t, 30, row.QuantityReserved)
	assert.Equal(t, 70, row.QuantityAvailable)
}

func TestReserveInsufficientStockLeavesLedgerUnchanged(t *testing.T) {
	l, repo := newTestLedger(nil)
	ctx := context.Background()

	require.NoError(t, l.Restock(ctx, "p1", 70))

	ok, err := l.Reserve(ctx, "p1", 1000)
	require.NoError(t, err)
	assert.False(t, ok)

	row, err := repo.GetLedger(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 70, row.QuantityOnHand)
	assert.Equal(t, 0, row.QuantityReserved)
	assert.Equal(t, 70, row.QuantityAvailable)
}

func TestReserveInvalidInput(t *testing.T) {
	l, _ := newTestLedger(nil)
	ctx := context.Background()

	require.NoError(t, l.Restock(ctx, "p1", 10))

	for _, qty := range []int{0, -5} {
		ok, err := l.Reserve(ctx, "p1", qty)
		assert.NoError(t, err)
		assert.False(t, ok)
	}

	ok, err := l.Reserve(ctx, "", 1)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestConfirmClearsHoldOnly(t *testing.T) {
	l, repo := newTestLedger(nil)
	ctx := context.Background()

	require.NoError(t, l.Restock(ctx, "p1", 100))

	ok, err := l.Reserve(ctx, "p1", 30)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Confirm(ctx, "p1", 30))

	row, err := repo.GetLedger(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 100, row.QuantityOnHand)
	assert.Equal(t, 0, row.QuantityReserved)
	assert.Equal(t, 70, row.QuantityAvailable)
}

func TestReserveAfterConfirmDoesNotResurrectSoldStock(t *testing.T) {
	l, repo := newTestLedger(nil)
	ctx := context.Background()

	require.NoError(t, l.Restock(ctx, "p1", 100))

	ok, err := l.Reserve(ctx, "p1", 60)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, l.Confirm(ctx, "p1", 60))

	// 60 units are sold; only the remaining 40 may ever be reserved again.
	ok, err = l.Reserve(ctx, "p1", 40)
	require.NoError(t, err)
	assert.True(t, ok)

	row, err := repo.GetLedger(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, row.QuantityAvailable)
	assert.Equal(t, 40, row.QuantityReserved)

	ok, err = l.Reserve(ctx, "p1", 60)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReleaseAfterConfirmDoesNotResurrectSoldStock(t *testing.T) {
	l, repo := newTestLedger(nil)
	ctx := context.Background()

	require.NoError(t, l.Restock(ctx, "p1", 100))

	ok, err := l.Reserve(ctx, "p1", 30)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, l.Confirm(ctx, "p1", 30))

	// Releasing after the hold was consumed must not refund sold units.
	require.NoError(t, l.Release(ctx, "p1", 30))

	row, err := repo.GetLedger(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 100, row.QuantityOnHand)
	assert.Equal(t, 0, row.QuantityReserved)
	assert.Equal(t, 70, row.QuantityAvailable)
}

func TestReleaseClampsAtZero(t *testing.T) {
	l, repo := newTestLedger(nil)
	ctx := context.Background()

	require.NoError(t, l.Restock(ctx, "p1", 50))

	ok, err := l.Reserve(ctx, "p1", 10)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Release(ctx, "p1", 25))

	row, err := repo.GetLedger(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, row.QuantityReserved)
	assert.Equal(t, 50, row.QuantityAvailable)
}

func TestReleaseWithoutLedgerRowIsNoOp(t *testing.T) {
	l, repo := newTestLedger(nil)
	ctx := context.Background()

	assert.NoError(t, l.Release(ctx, "missing", 5))

	row, err := repo.GetLedger(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestFallbackMaterializesLedgerRow(t *testing.T) {
	catalog := newFakeCatalog(map[string]int{"p1": 50})
	l, repo := newTestLedger(catalog)
	ctx := context.Background()

	ok, err := l.Reserve(ctx, "p1", 10)
	require.NoError(t, err)
	assert.True(t, ok)

	row, err := repo.GetLedger(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 50, row.QuantityOnHand)
	assert.Equal(t, 10, row.QuantityReserved)
	assert.Equal(t, 40, row.QuantityAvailable)

	// Legacy readers see the decremented quantity.
	assert.Equal(t, 40, catalog.stock["p1"])

	// Future operations use the ledger path, not the catalog.
	ok, err = l.Reserve(ctx, "p1", 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, catalog.getCalls)
}

func TestFallbackCatalogUnreachable(t *testing.T) {
	catalog := newFakeCatalog(nil)
	catalog.getErr = models.ErrCatalogUnavailable
	l, repo := newTestLedger(catalog)
	ctx := context.Background()

	ok, err := l.Reserve(ctx, "p1", 10)
	assert.False(t, ok)
	assert.ErrorIs(t, err, models.ErrCatalogUnavailable)

	row, err := repo.GetLedger(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestFallbackInsufficientLegacyStock(t *testing.T) {
	catalog := newFakeCatalog(map[string]int{"p1": 5})
	l, repo := newTestLedger(catalog)
	ctx := context.Background()

	ok, err := l.Reserve(ctx, "p1", 10)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, catalog.putCalls)

	row, err := repo.GetLedger(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestFallbackWriteFailureAbortsReservation(t *testing.T) {
	catalog := newFakeCatalog(map[string]int{"p1": 50})
	catalog.putErr = errors.New("connection reset")
	l, repo := newTestLedger(catalog)
	ctx := context.Background()

	ok, err := l.Reserve(ctx, "p1", 10)
	assert.False(t, ok)
	assert.Error(t, err)

	row, err := repo.GetLedger(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestStatusDerivesSold(t *testing.T) {
	l, _ := newTestLedger(nil)
	ctx := context.Background()

	require.NoError(t, l.Restock(ctx, "p1", 100))

	ok, err := l.Reserve(ctx, "p1", 30)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, l.Confirm(ctx, "p1", 30))

	status, err := l.Status(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 100, status.Total)
	assert.Equal(t, 70, status.Available)
	assert.Equal(t, 0, status.Reserved)
	assert.Equal(t, 30, status.Sold)
}

func TestStatusFallsBackToCatalog(t *testing.T) {
	catalog := newFakeCatalog(map[string]int{"p1": 25})
	l, _ := newTestLedger(catalog)

	status, err := l.Status(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 25, status.Total)
	assert.Equal(t, 25, status.Available)
	assert.Equal(t, 0, status.Reserved)
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	l, repo := newTestLedger(nil)
	ctx := context.Background()

	const onHand = 50
	const qtyPerReserve = 5
	const goroutines = 40

	require.NoError(t, l.Restock(ctx, "p1", onHand))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Reserve(ctx, "p1", qtyPerReserve)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, onHand/qtyPerReserve, succeeded)

	row, err := repo.GetLedger(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, onHand, row.QuantityReserved)
	assert.Equal(t, 0, row.QuantityAvailable)
	assert.Equal(t, row.QuantityOnHand, row.QuantityAvailable+row.QuantityReserved)
}
