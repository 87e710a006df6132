package repository

import (
	"pos-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferenceRepository answers lookups against the entities a sale points at.
type ReferenceRepository interface {
	CustomerExists(tx *gorm.DB, id uuid.UUID) (bool, error)
	StoreExists(tx *gorm.DB, id uuid.UUID) (bool, error)
	UserExists(tx *gorm.DB, id uuid.UUID) (bool, error)
	ListCustomers() ([]model.Customer, error)
	ListStores() ([]model.Store, error)
	CreateCustomer(c *model.Customer) error
	CreateStore(s *model.Store) error
	FindStoreByCode(code string) (*model.Store, error)
	FindCustomerByName(name string) (*model.Customer, error)
}

type referenceRepo struct {
	db *gorm.DB
}

func NewReferenceRepo(db *gorm.DB) ReferenceRepository {
	return &referenceRepo{db}
}

func exists(tx *gorm.DB, m interface{}, id uuid.UUID) (bool, error) {
	var count int64
	if err := tx.Model(m).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *referenceRepo) CustomerExists(tx *gorm.DB, id uuid.UUID) (bool, error) {
	return exists(tx, &model.Customer{}, id)
}

func (r *referenceRepo) StoreExists(tx *gorm.DB, id uuid.UUID) (bool, error) {
	return exists(tx, &model.Store{}, id)
}

func (r *referenceRepo) UserExists(tx *gorm.DB, id uuid.UUID) (bool, error) {
	return exists(tx, &model.User{}, id)
}

func (r *referenceRepo) ListCustomers() ([]model.Customer, error) {
	var customers []model.Customer
	err := r.db.Order("name ASC").Find(&customers).Error
	return customers, err
}

func (r *referenceRepo) ListStores() ([]model.Store, error) {
	var stores []model.Store
	err := r.db.Order("name ASC").Find(&stores).Error
	return stores, err
}

func (r *referenceRepo) CreateCustomer(c *model.Customer) error {
	return r.db.Create(c).Error
}

func (r *referenceRepo) CreateStore(s *model.Store) error {
	return r.db.Create(s).Error
}

func (r *referenceRepo) FindStoreByCode(code string) (*model.Store, error) {
	var store model.Store
	if err := r.db.Where("code = ?", code).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *referenceRepo) FindCustomerByName(name string) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.Where("name = ?", name).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}
