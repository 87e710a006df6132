// Package saleclient assembles sales on the client side and submits them to
// the back-office API.
package saleclient

import (
	"context"
	"fmt"
	"time"

	"pos-backoffice/pkg/apperr"
	"pos-backoffice/pkg/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductLookup resolves a product's current stock and catalog details.
type ProductLookup interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
}

// Submitter persists an assembled sale.
type Submitter interface {
	CreateSale(ctx context.Context, req *SaleRequest) (*Sale, error)
}

// ItemForm is one line as entered by the cashier.
type ItemForm struct {
	ProductID      uuid.UUID
	Quantity       int
	UnitPrice      *decimal.Decimal
	DiscountAmount decimal.Decimal
}

// Builder collects a sale header and its lines and keeps totals current
// after every change. It is not safe for concurrent use.
type Builder struct {
	Header Header

	lookup  ProductLookup
	items   []Item
	editing string
	totals  pricing.Totals
	seq     int
}

func NewBuilder(lookup ProductLookup) *Builder {
	b := &Builder{lookup: lookup}
	b.recompute()
	return b
}

func (b *Builder) Items() []Item {
	out := make([]Item, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Builder) Totals() pricing.Totals { return b.totals }

// SetHeader replaces the header and recomputes totals for its tax and discount.
func (b *Builder) SetHeader(h Header) {
	b.Header = h
	b.recompute()
}

// Edit marks the line with the given temporary id as the target of the next
// AddOrUpdateItem.
func (b *Builder) Edit(id string) error {
	if b.indexOf(id) < 0 {
		return apperr.NotFound("sale item")
	}
	b.editing = id
	return nil
}

func (b *Builder) Editing() string { return b.editing }

// CancelEdit leaves edit mode without changing any line.
func (b *Builder) CancelEdit() { b.editing = "" }

// AddOrUpdateItem validates form, checks stock for the resulting line quantity
// and then appends, merges or replaces a line. Lines for the same product are
// merged by summing quantities.
func (b *Builder) AddOrUpdateItem(ctx context.Context, form ItemForm) (Item, error) {
	if form.ProductID == uuid.Nil {
		return Item{}, apperr.Validation("product_id", "product is required")
	}
	if form.Quantity <= 0 {
		return Item{}, apperr.Validation("quantity", "quantity must be greater than 0")
	}
	if form.UnitPrice == nil {
		return Item{}, apperr.Validation("unit_price", "unit price is required")
	}
	if form.UnitPrice.IsNegative() || form.DiscountAmount.IsNegative() {
		return Item{}, apperr.Validation("unit_price", "amounts must not be negative")
	}

	product, err := b.lookup.GetProduct(ctx, form.ProductID)
	if err != nil {
		return Item{}, err
	}

	editIdx := b.indexOf(b.editing)
	mergeIdx := -1
	for i, it := range b.items {
		if it.ProductID == form.ProductID && i != editIdx {
			mergeIdx = i
			break
		}
	}

	quantity := form.Quantity
	if mergeIdx >= 0 {
		quantity += b.items[mergeIdx].Quantity
	}
	if quantity > product.CurrentStock {
		return Item{}, &apperr.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.CurrentStock,
		}
	}

	line := Item{
		ProductID:      product.ID,
		ProductName:    product.Name,
		SKU:            product.SKU,
		Barcode:        product.Barcode,
		Quantity:       quantity,
		UnitPrice:      *form.UnitPrice,
		DiscountAmount: form.DiscountAmount,
	}
	if mergeIdx >= 0 {
		line.DiscountAmount = line.DiscountAmount.Add(b.items[mergeIdx].DiscountAmount)
	}
	if line.DiscountAmount.GreaterThan(line.line().Gross()) {
		return Item{}, apperr.Validation("discount_amount", "discount exceeds line amount")
	}

	switch {
	case mergeIdx >= 0:
		line.TempID = b.items[mergeIdx].TempID
		b.items[mergeIdx] = line
		if editIdx >= 0 {
			b.items = append(b.items[:editIdx], b.items[editIdx+1:]...)
		}
	case editIdx >= 0:
		line.TempID = b.items[editIdx].TempID
		b.items[editIdx] = line
	default:
		b.seq++
		line.TempID = fmt.Sprintf("tmp-%d-%d", time.Now().UnixNano(), b.seq)
		b.items = append(b.items, line)
	}

	b.editing = ""
	b.recompute()
	return line, nil
}

// RemoveItem drops the line unconditionally and leaves edit mode.
func (b *Builder) RemoveItem(id string) {
	if i := b.indexOf(id); i >= 0 {
		b.items = append(b.items[:i], b.items[i+1:]...)
	}
	b.editing = ""
	b.recompute()
}

// Request validates the sale for submission. It never touches the network.
func (b *Builder) Request() (*SaleRequest, error) {
	h := b.Header
	switch {
	case h.SaleNumber == "":
		return nil, apperr.Validation("sale_number", "sale number is required")
	case h.CustomerID == uuid.Nil:
		return nil, apperr.Validation("customer_id", "customer is required")
	case h.UserID == uuid.Nil:
		return nil, apperr.Validation("user_id", "user is required")
	case h.StoreID == uuid.Nil:
		return nil, apperr.Validation("store_id", "store is required")
	case len(b.items) == 0:
		return nil, apperr.Validation("items", "at least one item is required")
	}

	items := make([]Item, len(b.items))
	for i, it := range b.items {
		it.TempID = ""
		items[i] = it
	}
	return &SaleRequest{Sale: h, Items: items}, nil
}

// Submit validates and sends the sale. On success the builder is cleared.
func (b *Builder) Submit(ctx context.Context, s Submitter) (*Sale, error) {
	req, err := b.Request()
	if err != nil {
		return nil, err
	}
	sale, err := s.CreateSale(ctx, req)
	if err != nil {
		return nil, err
	}
	b.Reset()
	return sale, nil
}

func (b *Builder) Reset() {
	b.Header = Header{}
	b.items = nil
	b.editing = ""
	b.recompute()
}

func (b *Builder) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, it := range b.items {
		if it.TempID == id {
			return i
		}
	}
	return -1
}

func (b *Builder) recompute() {
	lines := make([]pricing.Line, len(b.items))
	for i, it := range b.items {
		lines[i] = it.line()
	}
	b.totals = pricing.ComputeTotals(lines, b.Header.TaxAmount)
	if b.Header.DiscountAmount != nil {
		b.totals = b.totals.WithDiscountOverride(*b.Header.DiscountAmount)
	}
}
