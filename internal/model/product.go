package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	SKU          string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required"`
	Barcode      string          `gorm:"type:varchar(64);index" json:"barcode"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	CurrentStock int             `gorm:"not null;default:0;check:current_stock >= 0" json:"current_stock" validate:"gte=0"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"selling_price" validate:"gte=0"`
}
