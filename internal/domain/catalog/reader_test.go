package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock implementations ---

type mockFetcher struct {
	ranges       map[string][][]string
	errs         map[string]error
	block        chan struct{}
	failOnCancel bool

	mu    sync.Mutex
	calls map[string]int
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		ranges: make(map[string][][]string),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (m *mockFetcher) FetchRange(ctx context.Context, sheetRange string) ([][]string, error) {
	m.mu.Lock()
	m.calls[sheetRange]++
	m.mu.Unlock()

	if m.failOnCancel {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if m.block != nil {
		<-m.block
	}
	if err := m.errs[sheetRange]; err != nil {
		return nil, err
	}
	return m.ranges[sheetRange], nil
}

var productHeader = []string{"ID", "Name", "Description", "Category", "Price", "Discount", "Stock", "Image", "Active", "BestSeller"}

func productRow(id, name, category, price, active string) []string {
	return []string{id, name, "", category, price, "", "5", "", active, "FALSE"}
}

func newTestReader(fetcher *mockFetcher) *Reader {
	return NewReader(fetcher, DefaultConfig(), zap.NewNop())
}

// --- Tests ---

func TestReader_ListProducts(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.ranges["Katalog!A:J"] = [][]string{
		productHeader,
		productRow("P001", "Brownies", "Cakes", "150000", "TRUE"),
		productRow("P002", "Hidden", "Cakes", "90000", "FALSE"),
		productRow("", "No id", "Cakes", "50000", "TRUE"),
		productRow("P003", "Cookies", "Snacks", "80000", "TRUE"),
	}
	reader := newTestReader(fetcher)

	products, err := reader.ListProducts(context.Background())
	require.NoError(t, err)

	// Inactive and id-less rows are dropped, source order is kept.
	require.Len(t, products, 2)
	assert.Equal(t, "P001", products[0].ID)
	assert.Equal(t, "P003", products[1].ID)
}

func TestReader_ListProducts_EmptySheet(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.ranges["Katalog!A:J"] = [][]string{productHeader}
	reader := newTestReader(fetcher)

	products, err := reader.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)

	// No rows at all behaves the same.
	fetcher.ranges["Katalog!A:J"] = nil
	products, err = reader.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestReader_ListProducts_FetchError(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.errs["Katalog!A:J"] = errors.New("connection refused")
	reader := newTestReader(fetcher)

	_, err := reader.ListProducts(context.Background())
	require.Error(t, err)
	// The transport cause is logged, not surfaced.
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotContains(t, err.Error(), "connection refused")
}

func TestReader_ListProducts_SharedFetch(t *testing.T) {
	fetcher := newMockFetcher()
	release := make(chan struct{})
	fetcher.block = release
	fetcher.ranges["Katalog!A:J"] = [][]string{
		productHeader,
		productRow("P001", "Brownies", "Cakes", "150000", "TRUE"),
	}
	reader := newTestReader(fetcher)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			products, err := reader.ListProducts(context.Background())
			assert.NoError(t, err)
			assert.Len(t, products, 1)
		}()
	}

	// Give every caller time to join the in-flight fetch, then let it finish.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.Equal(t, 1, fetcher.calls["Katalog!A:J"])
}

func TestReader_ListProducts_DetachedFromCallerCancel(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.ranges["Katalog!A:J"] = [][]string{
		productHeader,
		productRow("P001", "Brownies", "Cakes", "150000", "TRUE"),
	}
	fetcher.failOnCancel = true
	reader := newTestReader(fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The shared fetch must not die with the caller that started it.
	products, err := reader.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestReader_GetProduct(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.ranges["Katalog!A:J"] = [][]string{
		productHeader,
		productRow("P001", "Brownies", "Cakes", "150000", "TRUE"),
	}
	reader := newTestReader(fetcher)

	p, err := reader.GetProduct(context.Background(), "P001")
	require.NoError(t, err)
	assert.Equal(t, "Brownies", p.Name)

	_, err = reader.GetProduct(context.Background(), "P999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReader_ListCategories(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.ranges["Katalog!A:J"] = [][]string{
		productHeader,
		productRow("P001", "Brownies", "Cakes", "150000", "TRUE"),
		productRow("P002", "Cookies", "Snacks", "80000", "TRUE"),
		productRow("P003", "Muffin", "Cakes", "60000", "TRUE"),
		productRow("P004", "Uncategorized", "", "10000", "TRUE"),
	}
	reader := newTestReader(fetcher)

	categories, err := reader.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cakes", "Snacks"}, categories)
}

func TestReader_ListTestimonials(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.ranges["Testimoni!A:E"] = [][]string{
		{"ID", "Author", "Type", "Rating", "Comment"},
		{"T01", "Sari", "Reseller", "5", "Mantap"},
		{"", "Anonymous", "", "4", "dropped, no id"},
		{"T02", "Budi", "Customer", "4.5", "Enak"},
	}
	reader := newTestReader(fetcher)

	testimonials := reader.ListTestimonials(context.Background())
	require.Len(t, testimonials, 2)
	assert.Equal(t, "Sari", testimonials[0].AuthorName)
	assert.Equal(t, "Budi", testimonials[1].AuthorName)
}

func TestReader_ListTestimonials_DegradesToEmpty(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.errs["Testimoni!A:E"] = errors.New("quota exceeded")
	reader := newTestReader(fetcher)

	assert.Empty(t, reader.ListTestimonials(context.Background()))
}

func TestReader_TestConnectivity(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.ranges["Katalog!A:J"] = [][]string{
		productHeader,
		productRow("P001", "Brownies", "Cakes", "150000", "TRUE"),
		productRow("P002", "Cookies", "Snacks", "80000", "TRUE"),
	}
	reader := newTestReader(fetcher)

	report := reader.TestConnectivity(context.Background())
	assert.True(t, report.Success)
	assert.Equal(t, "connected successfully, found 2 active products", report.Message)
	assert.Len(t, report.Products, 2)
}

func TestReader_TestConnectivity_Failure(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.errs["Katalog!A:J"] = errors.New("boom")
	reader := newTestReader(fetcher)

	report := reader.TestConnectivity(context.Background())
	assert.False(t, report.Success)
	assert.Equal(t, "connection failed: failed to fetch catalog from sheet", report.Message)
	assert.Empty(t, report.Products)
}
