// Command catalog-export downloads the product catalog and testimonials from
// the backing spreadsheet and writes them as a gzipped JSON snapshot, useful
// for static site builds and offline backups.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bakeruu/storefront/internal/domain/catalog"
	"github.com/bakeruu/storefront/internal/domain/product"
	"github.com/bakeruu/storefront/internal/sheets"
)

func main() {
	var (
		spreadsheetID    = flag.String("spreadsheet", os.Getenv("STORE_SHEETS_SPREADSHEET_ID"), "spreadsheet document ID")
		apiKey           = flag.String("api-key", os.Getenv("STORE_SHEETS_API_KEY"), "sheets API key")
		productRange     = flag.String("product-range", "Katalog!A:J", "range holding product rows")
		testimonialRange = flag.String("testimonial-range", "Testimoni!A:E", "range holding testimonial rows")
		output           = flag.String("o", "catalog.json.gz", "output file")
		timeout          = flag.Duration("timeout", 30*time.Second, "overall export timeout")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *spreadsheetID == "" || *apiKey == "" {
		logger.Error("spreadsheet and api-key are required")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	if err := run(ctx, logger, *spreadsheetID, *apiKey, *productRange, *testimonialRange, *output); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, spreadsheetID, apiKey, productRange, testimonialRange, output string) error {
	client := sheets.New(sheets.Config{
		SpreadsheetID: spreadsheetID,
		APIKey:        apiKey,
	}, zap.NewNop())
	reader := catalog.NewReader(client, catalog.Config{
		ProductRange:     productRange,
		TestimonialRange: testimonialRange,
	}, zap.NewNop())

	start := time.Now()

	// Products and testimonials live in separate ranges, fetch them in
	// parallel.
	var (
		products     []product.Product
		testimonials []product.Testimonial
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = reader.ListProducts(gctx)
		return errors.Wrap(err, "list products")
	})
	g.Go(func() error {
		testimonials = reader.ListTestimonials(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("catalog fetched",
		"products", len(products),
		"testimonials", len(testimonials),
		"elapsed", time.Since(start).Round(time.Millisecond))

	f, err := os.Create(output)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer f.Close()

	gz := pgzip.NewWriter(f)
	if _, err := gz.Write(encodeSnapshot(products, testimonials)); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "close gzip writer")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close output")
	}

	info, err := os.Stat(output)
	if err != nil {
		return errors.Wrap(err, "stat output")
	}
	logger.Info("snapshot written", "file", output, "bytes", info.Size())
	fmt.Printf("exported %d products and %d testimonials to %s\n", len(products), len(testimonials), output)
	return nil
}

func encodeSnapshot(products []product.Product, testimonials []product.Testimonial) []byte {
	e := &jx.Encoder{}
	e.ObjStart()

	e.FieldStart("exportedAt")
	e.Str(time.Now().UTC().Format(time.RFC3339))

	e.FieldStart("products")
	e.ArrStart()
	for _, p := range products {
		encodeProduct(e, p)
	}
	e.ArrEnd()

	e.FieldStart("testimonials")
	e.ArrStart()
	for _, t := range testimonials {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(t.ID)
		e.FieldStart("authorName")
		e.Str(t.AuthorName)
		e.FieldStart("authorType")
		e.Str(t.AuthorType)
		e.FieldStart("rating")
		e.Float64(t.Rating.InexactFloat64())
		e.FieldStart("comment")
		e.Str(t.Comment)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.ObjEnd()
	return e.Bytes()
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("price")
	e.Float64(p.Price.InexactFloat64())
	if p.DiscountedPrice != nil {
		e.FieldStart("discountedPrice")
		e.Float64(p.DiscountedPrice.InexactFloat64())
	}
	e.FieldStart("stock")
	e.Float64(p.Stock.InexactFloat64())
	e.FieldStart("imageUrl")
	e.Str(p.ImageURL)
	e.FieldStart("isBestSeller")
	e.Bool(p.IsBestSeller)
	e.ObjEnd()
}
