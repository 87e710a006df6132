package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"pos-backoffice/internal/metrics"
	"pos-backoffice/internal/model"
	"pos-backoffice/internal/notify"
	"pos-backoffice/internal/repository"
	"pos-backoffice/pkg/apperr"
	"pos-backoffice/pkg/pricing"
	"pos-backoffice/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleInput struct {
	SaleNumber     string              `json:"sale_number" validate:"required,max=50"`
	CustomerID     uuid.UUID           `json:"customer_id" validate:"uuid_required"`
	UserID         uuid.UUID           `json:"user_id" validate:"uuid_required"`
	StoreID        uuid.UUID           `json:"store_id" validate:"uuid_required"`
	TaxAmount      decimal.Decimal     `json:"tax_amount" validate:"gte=0"`
	DiscountAmount *decimal.Decimal    `json:"discount_amount,omitempty" validate:"omitempty,gte=0"` // header override
	PaymentMethod  model.PaymentMethod `json:"payment_method" validate:"omitempty,oneof=cash card digital gift_card store_credit"`
	PaymentStatus  string              `json:"payment_status" validate:"max=20"`
	Notes          string              `json:"notes"`

	LoyaltyPointsEarned   int `json:"loyalty_points_earned" validate:"gte=0"`
	LoyaltyPointsRedeemed int `json:"loyalty_points_redeemed" validate:"gte=0"`

	SaleDate *time.Time `json:"sale_date,omitempty"`
}

type SaleItemInput struct {
	ProductID      uuid.UUID        `json:"product_id" validate:"uuid_required"`
	Quantity       int              `json:"quantity" validate:"gt=0"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0"` // defaults to the product's selling price
	DiscountAmount decimal.Decimal  `json:"discount_amount" validate:"gte=0"`
}

// SaleRequest is the {sale, items} payload accepted by create and update.
type SaleRequest struct {
	Sale  *SaleInput      `json:"sale" validate:"required"`
	Items []SaleItemInput `json:"items" validate:"dive"`
}

type SaleService interface {
	ListSales() ([]model.Sale, error)
	GetSaleWithItems(id string) (*model.Sale, error)
	CreateSale(ctx context.Context, req *SaleRequest, actor notify.Actor) (*model.Sale, error)
	UpdateSale(ctx context.Context, id uuid.UUID, req *SaleRequest, actor notify.Actor) (*model.Sale, error)
	DeleteSale(ctx context.Context, id uuid.UUID, actor notify.Actor) error
}

type SaleServiceOptions struct {
	// RestoreStockOnDelete returns the quantities of a deleted sale to stock.
	RestoreStockOnDelete bool
}

type saleService struct {
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	refRepo     repository.ReferenceRepository
	db          *gorm.DB
	publisher   notify.Publisher
	logger      *log.Logger
	opts        SaleServiceOptions
}

func NewSaleService(
	sRepo repository.SaleRepository,
	pRepo repository.ProductRepository,
	rRepo repository.ReferenceRepository,
	db *gorm.DB,
	publisher notify.Publisher,
	logger *log.Logger,
	opts SaleServiceOptions,
) SaleService {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &saleService{
		saleRepo:    sRepo,
		productRepo: pRepo,
		refRepo:     rRepo,
		db:          db,
		publisher:   publisher,
		logger:      logger,
		opts:        opts,
	}
}

func (s *saleService) ListSales() ([]model.Sale, error) {
	sales, err := s.saleRepo.FindAll()
	if err != nil {
		return nil, apperr.Persistence("list sales", err)
	}
	return sales, nil
}

// GetSaleWithItems rejects malformed identifiers before touching storage.
func (s *saleService) GetSaleWithItems(id string) (*model.Sale, error) {
	saleID, err := validator.ParseID("id", id)
	if err != nil {
		return nil, err
	}
	sale, err := s.saleRepo.FindByID(saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("sale")
		}
		return nil, apperr.Persistence("get sale", err)
	}
	return sale, nil
}

func (s *saleService) CreateSale(ctx context.Context, req *SaleRequest, actor notify.Actor) (*model.Sale, error) {
	if err := validateSaleRequest(req); err != nil {
		return nil, err
	}

	var created *model.Sale
	var changes []stockChange

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkReferences(tx, req.Sale, uuid.Nil); err != nil {
			return err
		}

		products, err := s.loadProducts(tx, req.Items)
		if err != nil {
			return err
		}
		want := quantities(req.Items)
		if err := checkStock(products, want, nil); err != nil {
			return err
		}

		sale, err := buildSale(req, products)
		if err != nil {
			return err
		}
		sale.CreatedBy = actor.ID
		sale.UpdatedBy = actor.ID

		if err := s.saleRepo.Create(tx, sale); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errSaleNumberTaken()
			}
			return apperr.Persistence("insert sale", err)
		}

		changes, err = s.applyStock(tx, products, want, nil)
		if err != nil {
			return err
		}

		created = sale
		return nil
	})
	if err != nil {
		return nil, s.fail("create sale", err)
	}

	metrics.SalesTotal.WithLabelValues(notify.ActionSaleCreated).Inc()
	amount, _ := created.TotalAmount.Float64()
	metrics.SaleAmount.Observe(amount)
	s.publish(ctx, actor, notify.ActionSaleCreated, created, changes)
	return created, nil
}

func (s *saleService) UpdateSale(ctx context.Context, id uuid.UUID, req *SaleRequest, actor notify.Actor) (*model.Sale, error) {
	if err := validateSaleRequest(req); err != nil {
		return nil, err
	}

	var updated *model.Sale
	var changes []stockChange

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.saleRepo.Lock(tx, id, actor.ID)
		if err != nil {
			return apperr.Persistence("lock sale", err)
		}
		if !ok {
			return apperr.NotFound("sale")
		}

		existing, err := s.saleRepo.FindForUpdate(tx, id)
		if err != nil {
			return apperr.Persistence("load sale", err)
		}

		if err := s.checkReferences(tx, req.Sale, id); err != nil {
			return err
		}

		products, err := s.loadProducts(tx, req.Items)
		if err != nil {
			return err
		}
		want := quantities(req.Items)
		held := heldQuantities(existing.Items)
		if err := checkStock(products, want, held); err != nil {
			return err
		}

		sale, err := buildSale(req, products)
		if err != nil {
			return err
		}
		sale.ID = id
		sale.CreatedAt = existing.CreatedAt
		sale.CreatedBy = existing.CreatedBy
		sale.UpdatedBy = actor.ID
		items := sale.Items
		sale.Items = nil

		if err := s.saleRepo.UpdateHeader(tx, sale); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errSaleNumberTaken()
			}
			return apperr.Persistence("update sale", err)
		}
		if err := s.saleRepo.ReplaceItems(tx, id, items); err != nil {
			return apperr.Persistence("replace sale items", err)
		}

		changes, err = s.applyStock(tx, products, want, held)
		if err != nil {
			return err
		}

		updated, err = s.saleRepo.FindForUpdate(tx, id)
		if err != nil {
			return apperr.Persistence("reload sale", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("update sale", err)
	}

	metrics.SalesTotal.WithLabelValues(notify.ActionSaleUpdated).Inc()
	s.publish(ctx, actor, notify.ActionSaleUpdated, updated, changes)
	return updated, nil
}

func (s *saleService) DeleteSale(ctx context.Context, id uuid.UUID, actor notify.Actor) error {
	var deleted *model.Sale
	var changes []stockChange

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.saleRepo.Lock(tx, id, actor.ID)
		if err != nil {
			return apperr.Persistence("lock sale", err)
		}
		if !ok {
			return apperr.NotFound("sale")
		}

		existing, err := s.saleRepo.FindForUpdate(tx, id)
		if err != nil {
			return apperr.Persistence("load sale", err)
		}
		if err := s.saleRepo.Delete(tx, id); err != nil {
			return apperr.Persistence("delete sale", err)
		}

		if s.opts.RestoreStockOnDelete {
			changes, err = s.applyStock(tx, nil, nil, heldQuantities(existing.Items))
			if err != nil {
				return err
			}
		}
		deleted = existing
		return nil
	})
	if err != nil {
		return s.fail("delete sale", err)
	}

	metrics.SalesTotal.WithLabelValues(notify.ActionSaleDeleted).Inc()
	s.publish(ctx, actor, notify.ActionSaleDeleted, deleted, changes)
	return nil
}

// validateSaleRequest covers everything that can be checked without storage:
// header fields first, then a non-empty item list, then each item.
func validateSaleRequest(req *SaleRequest) error {
	if req == nil || req.Sale == nil {
		return apperr.Validation("sale", "sale is required")
	}
	if err := validator.Check(req.Sale); err != nil {
		return err
	}
	if len(req.Items) == 0 {
		return apperr.Validation("items", "at least one item is required")
	}
	if err := validator.Check(req); err != nil {
		return err
	}

	for _, amt := range []struct {
		field string
		value decimal.Decimal
	}{{"sale.tax_amount", req.Sale.TaxAmount}} {
		if err := checkCents(amt.field, amt.value); err != nil {
			return err
		}
	}
	if req.Sale.DiscountAmount != nil {
		if err := checkCents("sale.discount_amount", *req.Sale.DiscountAmount); err != nil {
			return err
		}
	}
	for i, item := range req.Items {
		if err := checkCents(fmt.Sprintf("items[%d].discount_amount", i), item.DiscountAmount); err != nil {
			return err
		}
		if item.UnitPrice != nil {
			if err := checkCents(fmt.Sprintf("items[%d].unit_price", i), *item.UnitPrice); err != nil {
				return err
			}
		}
	}
	return nil
}

// errSaleNumberTaken covers both the explicit check and a concurrent insert
// that reached the unique index first.
func errSaleNumberTaken() error {
	return apperr.Validation("sale.sale_number", "sale number already exists")
}

func checkCents(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(2)) {
		return apperr.Validation(field, "at most two decimal places allowed")
	}
	return nil
}

func (s *saleService) checkReferences(tx *gorm.DB, in *SaleInput, saleID uuid.UUID) error {
	taken, err := s.saleRepo.SaleNumberTaken(tx, in.SaleNumber, saleID)
	if err != nil {
		return apperr.Persistence("check sale number", err)
	}
	if taken {
		return errSaleNumberTaken()
	}

	refs := []struct {
		field string
		check func(*gorm.DB, uuid.UUID) (bool, error)
		id    uuid.UUID
	}{
		{"sale.customer_id", s.refRepo.CustomerExists, in.CustomerID},
		{"sale.user_id", s.refRepo.UserExists, in.UserID},
		{"sale.store_id", s.refRepo.StoreExists, in.StoreID},
	}
	for _, ref := range refs {
		ok, err := ref.check(tx, ref.id)
		if err != nil {
			return apperr.Persistence("check "+ref.field, err)
		}
		if !ok {
			return apperr.Validation(ref.field, "referenced record does not exist")
		}
	}
	return nil
}

func (s *saleService) loadProducts(tx *gorm.DB, items []SaleItemInput) (map[uuid.UUID]model.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.productRepo.FindByIDs(tx, ids)
	if err != nil {
		return nil, apperr.Persistence("load products", err)
	}
	for i, item := range items {
		if _, ok := products[item.ProductID]; !ok {
			return nil, apperr.Validation(fmt.Sprintf("items[%d].product_id", i), "product not found")
		}
	}
	return products, nil
}

func quantities(items []SaleItemInput) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		out[item.ProductID] += item.Quantity
	}
	return out
}

func heldQuantities(items []model.SaleItem) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		out[item.ProductID] += item.Quantity
	}
	return out
}

// checkStock verifies that stock plus what the sale already holds covers the
// requested quantity of every product.
func checkStock(products map[uuid.UUID]model.Product, want, held map[uuid.UUID]int) error {
	for _, id := range sortedIDs(want, nil) {
		p := products[id]
		available := p.CurrentStock + held[id]
		if want[id] > available {
			metrics.StockRejections.Inc()
			return &apperr.InsufficientStockError{
				ProductID:   id,
				ProductName: p.Name,
				Requested:   want[id],
				Available:   available,
			}
		}
	}
	return nil
}

// buildSale computes the authoritative totals and snapshots product details
// into each line.
func buildSale(req *SaleRequest, products map[uuid.UUID]model.Product) (*model.Sale, error) {
	in := req.Sale
	items := make([]model.SaleItem, len(req.Items))
	lines := make([]pricing.Line, len(req.Items))

	for i, it := range req.Items {
		p := products[it.ProductID]
		price := p.SellingPrice
		if it.UnitPrice != nil {
			price = *it.UnitPrice
		}
		line := pricing.Line{Quantity: it.Quantity, UnitPrice: price, DiscountAmount: it.DiscountAmount}
		if line.DiscountAmount.GreaterThan(line.Gross()) {
			return nil, apperr.Validation(fmt.Sprintf("items[%d].discount_amount", i), "discount exceeds line amount")
		}
		lines[i] = line
		items[i] = model.SaleItem{
			ID:             uuid.New(),
			ProductID:      p.ID,
			Position:       i,
			ProductName:    p.Name,
			SKU:            p.SKU,
			Barcode:        p.Barcode,
			Quantity:       it.Quantity,
			UnitPrice:      price,
			DiscountAmount: it.DiscountAmount,
			LineTotal:      line.Total(),
		}
	}

	totals := pricing.ComputeTotals(lines, in.TaxAmount)
	if in.DiscountAmount != nil {
		totals = totals.WithDiscountOverride(*in.DiscountAmount)
	}
	if totals.TotalAmount.IsNegative() {
		return nil, apperr.Validation("sale.discount_amount", "discount exceeds subtotal plus tax")
	}

	method := in.PaymentMethod
	if method == "" {
		method = model.PaymentCash
	}
	status := in.PaymentStatus
	if status == "" {
		status = model.DefaultPaymentStatus
	}
	soldAt := time.Now()
	if in.SaleDate != nil && !in.SaleDate.IsZero() {
		soldAt = *in.SaleDate
	}

	return &model.Sale{
		SaleNumber:            in.SaleNumber,
		CustomerID:            in.CustomerID,
		UserID:                in.UserID,
		StoreID:               in.StoreID,
		Subtotal:              totals.Subtotal,
		TaxAmount:             totals.TaxAmount,
		DiscountAmount:        totals.DiscountAmount,
		TotalAmount:           totals.TotalAmount,
		PaymentMethod:         method,
		PaymentStatus:         status,
		Notes:                 in.Notes,
		LoyaltyPointsEarned:   in.LoyaltyPointsEarned,
		LoyaltyPointsRedeemed: in.LoyaltyPointsRedeemed,
		SaleDate:              soldAt,
		Items:                 items,
	}, nil
}

type stockChange struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Change    int       `json:"change"`
}

// applyStock moves stock from the held quantities to the wanted ones. Products
// are visited in id order so concurrent sales lock rows in the same order.
func (s *saleService) applyStock(tx *gorm.DB, products map[uuid.UUID]model.Product, want, held map[uuid.UUID]int) ([]stockChange, error) {
	var changes []stockChange
	for _, id := range sortedIDs(want, held) {
		delta := want[id] - held[id]
		switch {
		case delta > 0:
			ok, err := s.productRepo.DecrementStock(tx, id, delta)
			if err != nil {
				return nil, apperr.Persistence("decrement stock", err)
			}
			if !ok {
				// lost a race with another sale since the availability check
				metrics.StockRejections.Inc()
				current := products[id]
				if fresh, err := s.productRepo.FindByIDs(tx, []uuid.UUID{id}); err == nil {
					current = fresh[id]
				}
				return nil, &apperr.InsufficientStockError{
					ProductID:   id,
					ProductName: current.Name,
					Requested:   want[id],
					Available:   current.CurrentStock + held[id],
				}
			}
		case delta < 0:
			if err := s.productRepo.IncrementStock(tx, id, -delta); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					s.logger.Printf("Warning: product %s no longer exists, %d units not restored", id, -delta)
					continue
				}
				return nil, apperr.Persistence("restore stock", err)
			}
		default:
			continue
		}
		changes = append(changes, stockChange{ProductID: id, Name: products[id].Name, Change: -delta})
	}
	return changes, nil
}

func sortedIDs(a, b map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(a)+len(b))
	for id := range a {
		ids = append(ids, id)
	}
	for id := range b {
		if _, ok := a[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// fail keeps domain errors as they are and wraps anything else as a
// persistence failure.
func (s *saleService) fail(op string, err error) error {
	switch {
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrInsufficientStock),
		errors.Is(err, apperr.ErrNotFound):
		return err
	case errors.Is(err, apperr.ErrPersistence):
		s.logger.Printf("%s failed: %v", op, err)
		return err
	default:
		s.logger.Printf("%s failed: %v", op, err)
		return apperr.Persistence(op, err)
	}
}

func (s *saleService) publish(ctx context.Context, actor notify.Actor, action string, sale *model.Sale, changes []stockChange) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	user := actor
	events := []notify.Event{{
		Type:   notify.TypeSale,
		Action: action,
		Data: map[string]interface{}{
			"id":           sale.ID,
			"sale_number":  sale.SaleNumber,
			"total_amount": sale.TotalAmount,
			"items":        len(sale.Items),
		},
		User:    &user,
		Message: fmt.Sprintf("%s %s sale %s", displayName(actor), verbFor(action), sale.SaleNumber),
		At:      time.Now(),
	}}
	for _, c := range changes {
		events = append(events, notify.Event{
			Type:    notify.TypeStock,
			Action:  notify.ActionStockChange,
			Data:    c,
			User:    &user,
			Message: fmt.Sprintf("stock of '%s' changed by %d", c.Name, c.Change),
			At:      time.Now(),
		})
	}

	for _, e := range events {
		if err := s.publisher.Publish(ctx, e); err != nil {
			s.logger.Printf("Warning: failed to publish %s event: %v", e.Action, err)
		}
	}
}

func displayName(a notify.Actor) string {
	if a.Name != "" {
		return a.Name
	}
	if a.ID != "" {
		return a.ID
	}
	return "system"
}

func verbFor(action string) string {
	switch action {
	case notify.ActionSaleCreated:
		return "created"
	case notify.ActionSaleUpdated:
		return "updated"
	default:
		return "deleted"
	}
}
