package product

import "github.com/shopspring/decimal"

// Testimonial is a customer review row from the testimonial sheet.
type Testimonial struct {
	ID         string
	AuthorName string
	AuthorType string
	Rating     decimal.Decimal
	Comment    string
}

// Visible reports whether the testimonial may be shown: both the identifier
// and the author name must be non-empty.
func (t Testimonial) Visible() bool {
	return t.ID != "" && t.AuthorName != ""
}
