// Package stock implements the best-effort stock decrement workflow run when
// an order is submitted. Each line item is attempted independently against one
// fetched snapshot of the product sheet, and the caller gets a per-item
// multi-status report rather than an all-or-nothing error: the spreadsheet
// backend has no transactions, so attempt-each, report-each is the achievable
// consistency level.
package stock

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bakeruu/storefront/internal/domain/catalog"
)

// CellWriter performs a raw single-cell update on the backing spreadsheet.
// Writes use elevated credentials, distinct from the read path's key.
type CellWriter interface {
	WriteCell(ctx context.Context, cellRange, value string) error
}

// UpdateItem is one requested decrement. Quantity is validated positive by
// the caller boundary before the workflow runs.
type UpdateItem struct {
	ProductID string
	Quantity  int
}

// UpdateResult reports the outcome for one UpdateItem. NewStock is meaningful
// only when Success is true.
type UpdateResult struct {
	ProductID string
	Success   bool
	Message   string
	NewStock  decimal.Decimal
}

// Config locates the product data within the spreadsheet.
type Config struct {
	// ProductRange is the full range fetched to locate rows, header included.
	ProductRange string
	// SheetName and StockColumn address the written cell: the stock cell of
	// sheet row N is "<SheetName>!<StockColumn><N>".
	SheetName   string
	StockColumn string
}

// DefaultConfig matches the conventional catalog layout.
func DefaultConfig() Config {
	return Config{
		ProductRange: "Katalog!A:J",
		SheetName:    "Katalog",
		StockColumn:  "G",
	}
}

// Service executes stock decrements against the spreadsheet backend.
type Service struct {
	source catalog.RangeFetcher
	writer CellWriter
	cfg    Config
	lg     *zap.Logger
}

// NewService creates a stock Service. Empty config fields fall back to the
// defaults.
func NewService(source catalog.RangeFetcher, writer CellWriter, cfg Config, lg *zap.Logger) *Service {
	def := DefaultConfig()
	if cfg.ProductRange == "" {
		cfg.ProductRange = def.ProductRange
	}
	if cfg.SheetName == "" {
		cfg.SheetName = sheetNameFromRange(cfg.ProductRange, def.SheetName)
	}
	if cfg.StockColumn == "" {
		cfg.StockColumn = def.StockColumn
	}
	return &Service{
		source: source,
		writer: writer,
		cfg:    cfg,
		lg:     lg,
	}
}

func sheetNameFromRange(sheetRange, fallback string) string {
	if i := strings.IndexByte(sheetRange, '!'); i > 0 {
		return sheetRange[:i]
	}
	return fallback
}

// DecreaseStock applies the requested decrements one by one against a single
// fetched snapshot of the product range. New stock values floor at zero; a
// decrement larger than the available stock is not an error. Items are
// processed sequentially in input order and failures never abort the
// remaining items. The returned slice has one result per input item, in input
// order, and the method never returns an error: a failed initial fetch marks
// every item failed with the same message.
func (s *Service) DecreaseStock(ctx context.Context, items []UpdateItem) []UpdateResult {
	rows, err := s.source.FetchRange(ctx, s.cfg.ProductRange)
	if err != nil {
		s.lg.Error("Fetching product range for stock update", zap.Error(err))
		return failAll(items, err.Error())
	}

	if len(rows) <= 1 {
		return failAll(items, "no products found")
	}

	results := make([]UpdateResult, 0, len(items))
	for _, item := range items {
		results = append(results, s.decrementOne(ctx, rows, item))
	}
	return results
}

// decrementOne locates the item's row in the fetched snapshot, computes the
// floored new stock, and writes the single stock cell back.
func (s *Service) decrementOne(ctx context.Context, rows [][]string, item UpdateItem) UpdateResult {
	rowIdx := -1
	for i := 1; i < len(rows); i++ { // skip header row
		if len(rows[i]) > catalog.ColID && rows[i][catalog.ColID] == item.ProductID {
			rowIdx = i
			break
		}
	}
	if rowIdx < 0 {
		return UpdateResult{
			ProductID: item.ProductID,
			Message:   "product not found",
		}
	}

	current := decimal.Zero
	if len(rows[rowIdx]) > catalog.ColStock {
		current = catalog.ParseNumber(rows[rowIdx][catalog.ColStock])
	}

	newStock := current.Sub(decimal.NewFromInt(int64(item.Quantity)))
	if newStock.IsNegative() {
		newStock = decimal.Zero
	}

	// Sheet rows are 1-based and the fetched snapshot includes the header at
	// index 0, so snapshot index maps directly to sheet row index+1.
	cellRange := fmt.Sprintf("%s!%s%d", s.cfg.SheetName, s.cfg.StockColumn, rowIdx+1)
	if err := s.writer.WriteCell(ctx, cellRange, newStock.String()); err != nil {
		s.lg.Error("Writing stock cell",
			zap.String("product_id", item.ProductID),
			zap.String("cell", cellRange),
			zap.Error(err),
		)
		return UpdateResult{
			ProductID: item.ProductID,
			Message:   err.Error(),
		}
	}

	s.lg.Info("Stock updated",
		zap.String("product_id", item.ProductID),
		zap.String("new_stock", newStock.String()),
	)
	return UpdateResult{
		ProductID: item.ProductID,
		Success:   true,
		Message:   fmt.Sprintf("stock updated to %s", newStock.String()),
		NewStock:  newStock,
	}
}

func failAll(items []UpdateItem, message string) []UpdateResult {
	results := make([]UpdateResult, len(items))
	for i, item := range items {
		results[i] = UpdateResult{
			ProductID: item.ProductID,
			Message:   message,
		}
	}
	return results
}
