package repository

import (
	"time"

	"pos-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	FindAll() ([]model.Sale, error)
	FindByID(id uuid.UUID) (*model.Sale, error)
	FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	Lock(tx *gorm.DB, id uuid.UUID, updatedBy string) (bool, error)
	SaleNumberTaken(tx *gorm.DB, saleNumber string, excludeID uuid.UUID) (bool, error)
	Create(tx *gorm.DB, sale *model.Sale) error
	UpdateHeader(tx *gorm.DB, sale *model.Sale) error
	ReplaceItems(tx *gorm.DB, saleID uuid.UUID, items []model.SaleItem) error
	Delete(tx *gorm.DB, id uuid.UUID) error
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func itemsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *saleRepo) FindAll() ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.Order("sale_date DESC").Order("created_at DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindByID(id uuid.UUID) (*model.Sale, error) {
	return r.FindForUpdate(r.db, id)
}

// FindForUpdate loads a sale with its items using tx.
func (r *saleRepo) FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := tx.Preload("Items", itemsInOrder).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// Lock writes the sale row first thing in tx so concurrent updates and deletes
// of the same sale queue behind each other. It reports false when no sale matched.
func (r *saleRepo) Lock(tx *gorm.DB, id uuid.UUID, updatedBy string) (bool, error) {
	res := tx.Model(&model.Sale{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"updated_at": time.Now(),
		"updated_by": updatedBy,
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *saleRepo) SaleNumberTaken(tx *gorm.DB, saleNumber string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := tx.Model(&model.Sale{}).Where("sale_number = ?", saleNumber)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the header and every item of sale.
func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	return tx.Create(sale).Error
}

// UpdateHeader writes header columns only; items go through ReplaceItems.
func (r *saleRepo) UpdateHeader(tx *gorm.DB, sale *model.Sale) error {
	return tx.Model(sale).Omit("Items", "CreatedAt", "CreatedBy").Select("*").Updates(sale).Error
}

func (r *saleRepo) ReplaceItems(tx *gorm.DB, saleID uuid.UUID, items []model.SaleItem) error {
	if err := tx.Where("sale_id = ?", saleID).Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].SaleID = saleID
	}
	return tx.Create(&items).Error
}

// Delete removes the sale and its items. It returns gorm.ErrRecordNotFound
// when no sale matched.
func (r *saleRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("sale_id = ?", id).Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	res := tx.Delete(&model.Sale{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
