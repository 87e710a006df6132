package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCard        PaymentMethod = "card"
	PaymentDigital     PaymentMethod = "digital"
	PaymentGiftCard    PaymentMethod = "gift_card"
	PaymentStoreCredit PaymentMethod = "store_credit"
)

const DefaultPaymentStatus = "pending"

// Sale is the header of a sale aggregate. Items are owned exclusively by
// their sale and are written and removed together with it.
type Sale struct {
	BaseModel
	SaleNumber string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"sale_number"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	StoreID    uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`

	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus string        `gorm:"type:varchar(20);not null" json:"payment_status"`
	Notes         string        `gorm:"type:text" json:"notes"`

	LoyaltyPointsEarned   int `gorm:"not null;default:0" json:"loyalty_points_earned"`
	LoyaltyPointsRedeemed int `gorm:"not null;default:0" json:"loyalty_points_redeemed"`

	SaleDate time.Time `gorm:"not null;index" json:"sale_date"`

	Items []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// SaleItem is a line of a sale. Product name, SKU, barcode and unit price are
// copied at write time so later product edits do not rewrite history.
type SaleItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	SaleID    uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Position  int       `gorm:"not null;default:0" json:"-"`

	ProductName string `gorm:"type:varchar(255);not null" json:"product_name"`
	SKU         string `gorm:"type:varchar(50)" json:"sku"`
	Barcode     string `gorm:"type:varchar(64)" json:"barcode"`

	Quantity       int             `gorm:"not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	LineTotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`

	CreatedAt time.Time `json:"created_at"`
}

func (i *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
