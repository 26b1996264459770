package catalog

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bakeruu/storefront/internal/domain/product"
)

// Column positions in the product sheet. The sheet is maintained by hand, so
// the layout is fixed by convention rather than by a header contract:
// A: id, B: name, C: description, D: category, E: price, F: discounted price,
// G: stock, H: image, I: active flag, J: best-seller flag.
const (
	ColID = iota
	ColName
	ColDescription
	ColCategory
	ColPrice
	ColDiscountedPrice
	ColStock
	ColImage
	ColActive
	ColBestSeller
)

// Column positions in the testimonial sheet:
// A: id, B: author name, C: author type, D: rating, E: comment.
const (
	colTestimonialID = iota
	colTestimonialAuthor
	colTestimonialType
	colTestimonialRating
	colTestimonialComment
)

// cell returns the idx-th cell of a possibly ragged row, or "" when the row
// is too short.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

var numberPrefixRe = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber converts a locale-formatted numeric cell into a decimal.
// Comma grouping separators are stripped, then the longest leading numeric
// prefix is parsed, so a hand-edited cell like "12 pcs" keeps its value.
// Input with no numeric prefix yields zero; the parser never fails.
func ParseNumber(raw string) decimal.Decimal {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	prefix := numberPrefixRe.FindString(cleaned)
	if prefix == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseBool reports whether a flag cell is set. Only a case-insensitive
// "TRUE" (surrounding whitespace ignored) counts as true; anything else,
// including an empty cell, is false.
func ParseBool(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "TRUE")
}

var (
	driveFileRe = regexp.MustCompile(`drive\.google\.com/file/d/([a-zA-Z0-9_-]+)`)
	driveUCRe   = regexp.MustCompile(`drive\.google\.com/uc\?.*id=([a-zA-Z0-9_-]+)`)
	driveOpenRe = regexp.MustCompile(`drive\.google\.com/open\?id=([a-zA-Z0-9_-]+)`)
	bareFileIDe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ParseImageURL normalizes the heterogeneous image cell into a directly
// fetchable URL. Non-engineers paste whatever link shape Drive gives them, so
// all known sharing-link shapes resolve to one canonical image-serving URL:
//
//   - bare file id: "ABC123xyz"
//   - share link:   "https://drive.google.com/file/d/ABC123xyz/view"
//   - direct link:  "https://drive.google.com/uc?id=ABC123xyz"
//   - open link:    "https://drive.google.com/open?id=ABC123xyz"
//
// Any other absolute URL (a CDN link, say) passes through unchanged, and
// unrecognized values are returned trimmed rather than rejected.
func ParseImageURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "http") && !strings.Contains(trimmed, "drive.google.com") {
		return trimmed
	}

	for _, re := range []*regexp.Regexp{driveFileRe, driveUCRe, driveOpenRe} {
		if m := re.FindStringSubmatch(trimmed); m != nil {
			return imageServingURL(m[1])
		}
	}

	if !strings.HasPrefix(trimmed, "http") && bareFileIDe.MatchString(trimmed) {
		return imageServingURL(trimmed)
	}

	return trimmed
}

// imageServingURL builds the canonical direct-image URL for a Drive file id.
// The =s0 suffix requests the original size.
func imageServingURL(fileID string) string {
	return "https://lh3.googleusercontent.com/d/" + fileID + "=s0"
}

// RowToProduct maps one raw sheet row into a Product. Missing trailing cells
// default to the zero value of each field.
func RowToProduct(row []string) product.Product {
	price := ParseNumber(cell(row, ColPrice))
	discounted := ParseNumber(cell(row, ColDiscountedPrice))

	p := product.Product{
		ID:           cell(row, ColID),
		Name:         cell(row, ColName),
		Description:  cell(row, ColDescription),
		Category:     cell(row, ColCategory),
		Price:        price,
		Stock:        ParseNumber(cell(row, ColStock)),
		ImageURL:     ParseImageURL(cell(row, ColImage)),
		IsActive:     ParseBool(cell(row, ColActive)),
		IsBestSeller: ParseBool(cell(row, ColBestSeller)),
	}

	// Zero or not-actually-lower values mean "no discount", not "free".
	if discounted.IsPositive() && discounted.LessThan(price) {
		p.DiscountedPrice = &discounted
	}

	return p
}

// RowToTestimonial maps one raw testimonial sheet row into a Testimonial.
func RowToTestimonial(row []string) product.Testimonial {
	return product.Testimonial{
		ID:         cell(row, colTestimonialID),
		AuthorName: cell(row, colTestimonialAuthor),
		AuthorType: cell(row, colTestimonialType),
		Rating:     ParseNumber(cell(row, colTestimonialRating)),
		Comment:    cell(row, colTestimonialComment),
	}
}
