package repository

import (
	"pos-backoffice/internal/model"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Customer{},
		&model.Store{},
		&model.Product{},
		&model.Sale{},
		&model.SaleItem{},
	)
}
