package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"pos-backoffice/internal/model"
	"pos-backoffice/internal/notify"
	"pos-backoffice/internal/repository"
	"pos-backoffice/pkg/apperr"
	"pos-backoffice/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductInput struct {
	SKU          string          `json:"sku" validate:"required,max=50"`
	Barcode      string          `json:"barcode" validate:"max=64"`
	Name         string          `json:"name" validate:"required,max=255"`
	CurrentStock int             `json:"current_stock" validate:"gte=0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"gte=0"`
}

type RestockInput struct {
	Quantity int    `json:"quantity" validate:"gt=0"`
	Note     string `json:"note"`
}

type ProductService interface {
	GetAllProducts() ([]model.Product, error)
	GetProduct(id string) (*model.Product, error)
	CreateProduct(ctx context.Context, req *ProductInput, actor notify.Actor) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductInput, actor notify.Actor) (*model.Product, error)
	Restock(ctx context.Context, id uuid.UUID, req *RestockInput, actor notify.Actor) (*model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	db          *gorm.DB
	publisher   notify.Publisher
	logger      *log.Logger
}

func NewProductService(pRepo repository.ProductRepository, db *gorm.DB, publisher notify.Publisher, logger *log.Logger) ProductService {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &productService{
		productRepo: pRepo,
		db:          db,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *productService) GetAllProducts() ([]model.Product, error) {
	products, err := s.productRepo.FindAll()
	if err != nil {
		return nil, apperr.Persistence("list products", err)
	}
	return products, nil
}

func (s *productService) GetProduct(id string) (*model.Product, error) {
	productID, err := validator.ParseID("id", id)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product")
		}
		return nil, apperr.Persistence("get product", err)
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, req *ProductInput, actor notify.Actor) (*model.Product, error) {
	if err := s.checkInput(req); err != nil {
		return nil, err
	}

	existing, err := s.productRepo.FindBySKU(req.SKU)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Persistence("check sku", err)
	}
	if existing != nil {
		return nil, apperr.Validation("sku", "SKU already exists")
	}

	product := &model.Product{
		SKU:          req.SKU,
		Barcode:      req.Barcode,
		Name:         req.Name,
		CurrentStock: req.CurrentStock,
		SellingPrice: req.SellingPrice,
	}
	product.CreatedBy = actor.ID
	product.UpdatedBy = actor.ID

	if err := s.productRepo.Create(product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Validation("sku", "SKU already exists")
		}
		return nil, apperr.Persistence("create product", err)
	}

	s.publish(ctx, actor, "product_created", product, fmt.Sprintf("%s created product '%s'", displayName(actor), product.Name))
	return product, nil
}

// UpdateProduct edits catalog fields. Stock is left alone; it only moves
// through sales and restocks.
func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductInput, actor notify.Actor) (*model.Product, error) {
	if err := s.checkInput(req); err != nil {
		return nil, err
	}

	existing, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product")
		}
		return nil, apperr.Persistence("get product", err)
	}

	if req.SKU != existing.SKU {
		other, err := s.productRepo.FindBySKU(req.SKU)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Persistence("check sku", err)
		}
		if other != nil {
			return nil, apperr.Validation("sku", "SKU already exists")
		}
	}

	existing.SKU = req.SKU
	existing.Barcode = req.Barcode
	existing.Name = req.Name
	existing.SellingPrice = req.SellingPrice
	existing.UpdatedBy = actor.ID

	if err := s.productRepo.Update(existing); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Validation("sku", "SKU already exists")
		}
		return nil, apperr.Persistence("update product", err)
	}

	// the stock read above may be stale by now
	updated, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, apperr.Persistence("reload product", err)
	}

	s.publish(ctx, actor, "product_updated", updated, fmt.Sprintf("%s updated product '%s'", displayName(actor), updated.Name))
	return updated, nil
}

func (s *productService) Restock(ctx context.Context, id uuid.UUID, req *RestockInput, actor notify.Actor) (*model.Product, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	var restocked model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.IncrementStock(tx, id, req.Quantity); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("product")
			}
			return apperr.Persistence("restock", err)
		}
		products, err := s.productRepo.FindByIDs(tx, []uuid.UUID{id})
		if err != nil {
			return apperr.Persistence("reload product", err)
		}
		restocked = products[id]
		return nil
	})
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("%s restocked '%s' by %d", displayName(actor), restocked.Name, req.Quantity)
	if req.Note != "" {
		msg += ": " + req.Note
	}
	s.logger.Println(msg)
	s.publish(ctx, actor, notify.ActionStockChange, &restocked, msg)
	return &restocked, nil
}

func (s *productService) checkInput(req *ProductInput) error {
	if req == nil {
		return apperr.Validation("product", "product is required")
	}
	if err := validator.Check(req); err != nil {
		return err
	}
	return checkCents("selling_price", req.SellingPrice)
}

func (s *productService) publish(ctx context.Context, actor notify.Actor, action string, p *model.Product, msg string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	user := actor
	err := s.publisher.Publish(ctx, notify.Event{
		Type:   notify.TypeStock,
		Action: action,
		Data: map[string]interface{}{
			"id":            p.ID,
			"sku":           p.SKU,
			"name":          p.Name,
			"current_stock": p.CurrentStock,
			"selling_price": p.SellingPrice,
		},
		User:    &user,
		Message: msg,
		At:      time.Now(),
	})
	if err != nil {
		s.logger.Printf("Warning: failed to publish %s event: %v", action, err)
	}
}
