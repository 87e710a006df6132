package service

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"pos-backoffice/internal/model"
	"pos-backoffice/internal/notify"
	"pos-backoffice/internal/repository"
	"pos-backoffice/internal/testdb"
	"pos-backoffice/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Publish(_ context.Context, e notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	svc      SaleService
	events   *recorder
	customer model.Customer
	store    model.Store
	user     model.User
	widget   model.Product
	gadget   model.Product
}

func newFixture(t *testing.T, restore bool) *fixture {
	t.Helper()
	db := testdb.Open(t)

	f := &fixture{db: db, events: &recorder{}}
	f.customer = model.Customer{Name: "Walk-in"}
	f.store = model.Store{Name: "Main", Code: "MAIN"}
	f.user = model.User{Email: "cashier@example.com", FullName: "Cashier", Role: model.RoleCashier, Password: "x"}
	f.widget = model.Product{SKU: "W-1", Barcode: "111", Name: "Widget", CurrentStock: 10, SellingPrice: dec("2.50")}
	f.gadget = model.Product{SKU: "G-1", Barcode: "222", Name: "Gadget", CurrentStock: 3, SellingPrice: dec("10.00")}
	for _, m := range []interface{}{&f.customer, &f.store, &f.user, &f.widget, &f.gadget} {
		require.NoError(t, db.Create(m).Error)
	}

	f.svc = NewSaleService(
		repository.NewSaleRepo(db),
		repository.NewProductRepo(db),
		repository.NewReferenceRepo(db),
		db,
		f.events,
		log.New(io.Discard, "", 0),
		SaleServiceOptions{RestoreStockOnDelete: restore},
	)
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) request(number string, items ...SaleItemInput) *SaleRequest {
	return &SaleRequest{
		Sale: &SaleInput{
			SaleNumber: number,
			CustomerID: f.customer.ID,
			UserID:     f.user.ID,
			StoreID:    f.store.ID,
		},
		Items: items,
	}
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var p model.Product
	require.NoError(t, f.db.First(&p, "id = ?", id).Error)
	return p.CurrentStock
}

func (f *fixture) actor() notify.Actor {
	return notify.Actor{ID: f.user.ID.String(), Name: f.user.FullName}
}

func TestCreateSaleDecrementsStock(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	req := f.request("S-1",
		SaleItemInput{ProductID: f.widget.ID, Quantity: 4, DiscountAmount: dec("1.00")},
		SaleItemInput{ProductID: f.gadget.ID, Quantity: 1},
	)
	req.Sale.TaxAmount = dec("1.50")

	sale, err := f.svc.CreateSale(ctx, req, f.actor())
	require.NoError(t, err)

	assert.True(t, dec("20.00").Equal(sale.Subtotal), sale.Subtotal.String())
	assert.True(t, dec("1.00").Equal(sale.DiscountAmount))
	assert.True(t, dec("20.50").Equal(sale.TotalAmount), sale.TotalAmount.String())
	assert.Equal(t, model.PaymentCash, sale.PaymentMethod)
	assert.Equal(t, model.DefaultPaymentStatus, sale.PaymentStatus)

	assert.Equal(t, 6, f.stock(t, f.widget.ID))
	assert.Equal(t, 2, f.stock(t, f.gadget.ID))

	assert.Contains(t, f.events.actions(), notify.ActionSaleCreated)
	assert.Contains(t, f.events.actions(), notify.ActionStockChange)
}

func TestCreateSaleSnapshotsItems(t *testing.T) {
	f := newFixture(t, true)

	req := f.request("S-1",
		SaleItemInput{ProductID: f.gadget.ID, Quantity: 1},
		SaleItemInput{ProductID: f.widget.ID, Quantity: 2, UnitPrice: decPtr("2.00")},
	)
	created, err := f.svc.CreateSale(context.Background(), req, f.actor())
	require.NoError(t, err)

	// later product edits must not leak into stored lines
	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", f.widget.ID).Update("name", "Renamed").Error)

	got, err := f.svc.GetSaleWithItems(created.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Items, 2)

	assert.Equal(t, f.gadget.ID, got.Items[0].ProductID)
	assert.True(t, dec("10.00").Equal(got.Items[0].UnitPrice))

	w := got.Items[1]
	assert.Equal(t, "Widget", w.ProductName)
	assert.Equal(t, "W-1", w.SKU)
	assert.Equal(t, "111", w.Barcode)
	assert.Equal(t, 2, w.Quantity)
	assert.True(t, dec("2.00").Equal(w.UnitPrice))
	assert.True(t, dec("4.00").Equal(w.LineTotal))
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	f := newFixture(t, true)

	req := f.request("S-1",
		SaleItemInput{ProductID: f.widget.ID, Quantity: 1},
		SaleItemInput{ProductID: f.gadget.ID, Quantity: 4},
	)
	_, err := f.svc.CreateSale(context.Background(), req, f.actor())
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)

	var stockErr *apperr.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, f.gadget.ID, stockErr.ProductID)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)

	var count int64
	f.db.Model(&model.Sale{}).Count(&count)
	assert.Zero(t, count)
	f.db.Model(&model.SaleItem{}).Count(&count)
	assert.Zero(t, count)
	assert.Equal(t, 10, f.stock(t, f.widget.ID))
	assert.Equal(t, 3, f.stock(t, f.gadget.ID))
	assert.Empty(t, f.events.actions())
}

func TestCreateSaleMergedQuantitiesCheckedTogether(t *testing.T) {
	f := newFixture(t, true)

	req := f.request("S-1",
		SaleItemInput{ProductID: f.gadget.ID, Quantity: 2},
		SaleItemInput{ProductID: f.gadget.ID, Quantity: 2},
	)
	_, err := f.svc.CreateSale(context.Background(), req, f.actor())
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, 3, f.stock(t, f.gadget.ID))
}

func TestCreateSaleValidation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	item := SaleItemInput{ProductID: f.widget.ID, Quantity: 1}

	cases := map[string]func() *SaleRequest{
		"missing header": func() *SaleRequest { return &SaleRequest{Items: []SaleItemInput{item}} },
		"missing sale number": func() *SaleRequest {
			r := f.request("", item)
			return r
		},
		"missing user": func() *SaleRequest {
			r := f.request("S-1", item)
			r.Sale.UserID = uuid.Nil
			return r
		},
		"no items": func() *SaleRequest { return f.request("S-1") },
		"zero quantity": func() *SaleRequest {
			return f.request("S-1", SaleItemInput{ProductID: f.widget.ID})
		},
		"unknown product": func() *SaleRequest {
			return f.request("S-1", SaleItemInput{ProductID: uuid.New(), Quantity: 1})
		},
		"unknown customer": func() *SaleRequest {
			r := f.request("S-1", item)
			r.Sale.CustomerID = uuid.New()
			return r
		},
		"unknown store": func() *SaleRequest {
			r := f.request("S-1", item)
			r.Sale.StoreID = uuid.New()
			return r
		},
		"sub-cent price": func() *SaleRequest {
			return f.request("S-1", SaleItemInput{ProductID: f.widget.ID, Quantity: 1, UnitPrice: decPtr("1.005")})
		},
		"discount above line": func() *SaleRequest {
			return f.request("S-1", SaleItemInput{ProductID: f.widget.ID, Quantity: 1, DiscountAmount: dec("3.00")})
		},
		"bad payment method": func() *SaleRequest {
			r := f.request("S-1", item)
			r.Sale.PaymentMethod = "barter"
			return r
		},
		"negative total": func() *SaleRequest {
			r := f.request("S-1", item)
			r.Sale.DiscountAmount = decPtr("5.00")
			return r
		},
	}

	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateSale(ctx, build(), f.actor())
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Equal(t, 10, f.stock(t, f.widget.ID))
}

func TestCreateSaleDuplicateNumber(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.CreateSale(ctx, f.request("S-1", SaleItemInput{ProductID: f.widget.ID, Quantity: 1}), f.actor())
	require.NoError(t, err)

	_, err = f.svc.CreateSale(ctx, f.request("S-1", SaleItemInput{ProductID: f.widget.ID, Quantity: 1}), f.actor())
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "sale.sale_number", verr.Field)
	assert.Equal(t, 9, f.stock(t, f.widget.ID))
}

// numberCheckRaced reports every sale number as free, like a concurrent create
// that has not committed yet when the check runs.
type numberCheckRaced struct {
	repository.SaleRepository
}

func (numberCheckRaced) SaleNumberTaken(*gorm.DB, string, uuid.UUID) (bool, error) {
	return false, nil
}

func TestCreateSaleDuplicateNumberRace(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	svc := NewSaleService(numberCheckRaced{repository.NewSaleRepo(f.db)}, repository.NewProductRepo(f.db),
		repository.NewReferenceRepo(f.db), f.db, nil, log.New(io.Discard, "", 0), SaleServiceOptions{})

	_, err := svc.CreateSale(ctx, f.request("S-1", SaleItemInput{ProductID: f.widget.ID, Quantity: 1}), f.actor())
	require.NoError(t, err)

	_, err = svc.CreateSale(ctx, f.request("S-1", SaleItemInput{ProductID: f.widget.ID, Quantity: 2}), f.actor())
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "sale.sale_number", verr.Field)
	assert.Equal(t, 9, f.stock(t, f.widget.ID))
}

// racedStock loses the conditional decrement for one product, as if another
// sale took the units after the availability check.
type racedStock struct {
	repository.ProductRepository
	lose uuid.UUID
}

func (r *racedStock) DecrementStock(tx *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	if id == r.lose {
		return false, nil
	}
	return r.ProductRepository.DecrementStock(tx, id, qty)
}

func TestCreateSaleLostStockRaceLeavesNothing(t *testing.T) {
	f := newFixture(t, true)

	// stock is written in id order; lose on the second product so the first
	// decrement and the sale rows are already in the transaction
	second := f.gadget.ID
	if f.gadget.ID.String() < f.widget.ID.String() {
		second = f.widget.ID
	}
	svc := NewSaleService(repository.NewSaleRepo(f.db), &racedStock{repository.NewProductRepo(f.db), second},
		repository.NewReferenceRepo(f.db), f.db, f.events, log.New(io.Discard, "", 0), SaleServiceOptions{})

	_, err := svc.CreateSale(context.Background(), f.request("S-1",
		SaleItemInput{ProductID: f.widget.ID, Quantity: 2},
		SaleItemInput{ProductID: f.gadget.ID, Quantity: 1},
	), f.actor())

	var serr *apperr.InsufficientStockError
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.Equal(t, second, serr.ProductID)

	var sales, items int64
	require.NoError(t, f.db.Model(&model.Sale{}).Count(&sales).Error)
	require.NoError(t, f.db.Model(&model.SaleItem{}).Count(&items).Error)
	assert.Zero(t, sales)
	assert.Zero(t, items)
	assert.Equal(t, 10, f.stock(t, f.widget.ID))
	assert.Equal(t, 3, f.stock(t, f.gadget.ID))
	assert.Empty(t, f.events.actions())
}

func TestTotalInvariant(t *testing.T) {
	f := newFixture(t, true)

	req := f.request("S-1",
		SaleItemInput{ProductID: f.widget.ID, Quantity: 3, DiscountAmount: dec("0.50")},
		SaleItemInput{ProductID: f.gadget.ID, Quantity: 2, DiscountAmount: dec("2.25")},
	)
	req.Sale.TaxAmount = dec("0.99")

	sale, err := f.svc.CreateSale(context.Background(), req, f.actor())
	require.NoError(t, err)

	want := sale.Subtotal.Add(sale.TaxAmount).Sub(sale.DiscountAmount)
	assert.True(t, want.Equal(sale.TotalAmount))

	lines := decimal.Zero
	for _, it := range sale.Items {
		lines = lines.Add(it.LineTotal)
	}
	assert.True(t, lines.Equal(sale.Subtotal.Sub(sale.DiscountAmount)))
}

func TestUpdateSaleReconcilesStock(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	created, err := f.svc.CreateSale(ctx, f.request("S-1",
		SaleItemInput{ProductID: f.widget.ID, Quantity: 5},
		SaleItemInput{ProductID: f.gadget.ID, Quantity: 3},
	), f.actor())
	require.NoError(t, err)
	require.Equal(t, 5, f.stock(t, f.widget.ID))
	require.Equal(t, 0, f.stock(t, f.gadget.ID))

	// the sale already holds all three gadgets, so keeping them must succeed
	updated, err := f.svc.UpdateSale(ctx, created.ID, f.request("S-1",
		SaleItemInput{ProductID: f.gadget.ID, Quantity: 3},
		SaleItemInput{ProductID: f.widget.ID, Quantity: 2},
	), f.actor())
	require.NoError(t, err)

	assert.Equal(t, 8, f.stock(t, f.widget.ID))
	assert.Equal(t, 0, f.stock(t, f.gadget.ID))
	require.Len(t, updated.Items, 2)
	assert.Equal(t, f.gadget.ID, updated.Items[0].ProductID)
	assert.True(t, dec("35.00").Equal(updated.TotalAmount), updated.TotalAmount.String())

	// dropping a product returns its stock
	_, err = f.svc.UpdateSale(ctx, created.ID, f.request("S-1",
		SaleItemInput{ProductID: f.widget.ID, Quantity: 10},
	), f.actor())
	require.NoError(t, err)
	assert.Equal(t, 0, f.stock(t, f.widget.ID))
	assert.Equal(t, 3, f.stock(t, f.gadget.ID))
}

func TestUpdateSaleInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	created, err := f.svc.CreateSale(ctx, f.request("S-1",
		SaleItemInput{ProductID: f.widget.ID, Quantity: 2},
	), f.actor())
	require.NoError(t, err)

	_, err = f.svc.UpdateSale(ctx, created.ID, f.request("S-1",
		SaleItemInput{ProductID: f.widget.ID, Quantity: 1},
		SaleItemInput{ProductID: f.gadget.ID, Quantity: 4},
	), f.actor())
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)

	assert.Equal(t, 8, f.stock(t, f.widget.ID))
	assert.Equal(t, 3, f.stock(t, f.gadget.ID))

	got, err := f.svc.GetSaleWithItems(created.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestUpdateSaleNotFound(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.svc.UpdateSale(context.Background(), uuid.New(), f.request("S-1",
		SaleItemInput{ProductID: f.widget.ID, Quantity: 1},
	), f.actor())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 10, f.stock(t, f.widget.ID))
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	created, err := f.svc.CreateSale(ctx, f.request("S-1",
		SaleItemInput{ProductID: f.widget.ID, Quantity: 4},
	), f.actor())
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSale(ctx, created.ID, f.actor()))
	assert.Equal(t, 10, f.stock(t, f.widget.ID))

	_, err = f.svc.GetSaleWithItems(created.ID.String())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var items int64
	f.db.Model(&model.SaleItem{}).Where("sale_id = ?", created.ID).Count(&items)
	assert.Zero(t, items)

	assert.ErrorIs(t, f.svc.DeleteSale(ctx, created.ID, f.actor()), apperr.ErrNotFound)
}

func TestDeleteSaleKeepsStockWhenRestoreDisabled(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	created, err := f.svc.CreateSale(ctx, f.request("S-1",
		SaleItemInput{ProductID: f.widget.ID, Quantity: 4},
	), f.actor())
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSale(ctx, created.ID, f.actor()))
	assert.Equal(t, 6, f.stock(t, f.widget.ID))
}

func TestDeleteSaleSkipsVanishedProducts(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	created, err := f.svc.CreateSale(ctx, f.request("S-1",
		SaleItemInput{ProductID: f.widget.ID, Quantity: 1},
		SaleItemInput{ProductID: f.gadget.ID, Quantity: 1},
	), f.actor())
	require.NoError(t, err)
	require.NoError(t, f.db.Delete(&model.Product{}, "id = ?", f.gadget.ID).Error)

	require.NoError(t, f.svc.DeleteSale(ctx, created.ID, f.actor()))
	assert.Equal(t, 10, f.stock(t, f.widget.ID))
}

// countingSales fails the test if storage is reached.
type countingSales struct {
	repository.SaleRepository
	calls int
}

func (c *countingSales) FindByID(id uuid.UUID) (*model.Sale, error) {
	c.calls++
	return nil, gorm.ErrRecordNotFound
}

func TestGetSaleRejectsMalformedID(t *testing.T) {
	repo := &countingSales{}
	svc := NewSaleService(repo, nil, nil, nil, nil, nil, SaleServiceOptions{})

	for _, raw := range []string{"", "abc", "{" + uuid.NewString() + "}", "urn:uuid:" + uuid.NewString(), uuid.NewString() + "0"} {
		_, err := svc.GetSaleWithItems(raw)
		assert.ErrorIs(t, err, apperr.ErrValidation, raw)
	}
	assert.Zero(t, repo.calls)

	_, err := svc.GetSaleWithItems(uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 1, repo.calls)
}
