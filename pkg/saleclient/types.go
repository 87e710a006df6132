package saleclient

import (
	"time"

	"pos-backoffice/pkg/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID           uuid.UUID       `json:"id"`
	SKU          string          `json:"sku"`
	Barcode      string          `json:"barcode"`
	Name         string          `json:"name"`
	CurrentStock int             `json:"current_stock"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

type Header struct {
	SaleNumber     string           `json:"sale_number"`
	CustomerID     uuid.UUID        `json:"customer_id"`
	UserID         uuid.UUID        `json:"user_id"`
	StoreID        uuid.UUID        `json:"store_id"`
	TaxAmount      decimal.Decimal  `json:"tax_amount"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	PaymentMethod  string           `json:"payment_method,omitempty"`
	PaymentStatus  string           `json:"payment_status,omitempty"`
	Notes          string           `json:"notes,omitempty"`

	LoyaltyPointsEarned   int `json:"loyalty_points_earned"`
	LoyaltyPointsRedeemed int `json:"loyalty_points_redeemed"`

	SaleDate *time.Time `json:"sale_date,omitempty"`
}

// Item is a line held by the Builder. TempID and the product snapshot are
// local display state and are not sent.
type Item struct {
	TempID      string `json:"-"`
	ProductName string `json:"-"`
	SKU         string `json:"-"`
	Barcode     string `json:"-"`

	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

func (it Item) line() pricing.Line {
	return pricing.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice, DiscountAmount: it.DiscountAmount}
}

// LineTotal is quantity * unit price less the line discount.
func (it Item) LineTotal() decimal.Decimal { return it.line().Total() }

type SaleRequest struct {
	Sale  Header `json:"sale"`
	Items []Item `json:"items"`
}

type SaleLine struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	SKU            string          `json:"sku"`
	Barcode        string          `json:"barcode"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// Sale is a stored sale as returned by the API.
type Sale struct {
	ID             uuid.UUID       `json:"id"`
	SaleNumber     string          `json:"sale_number"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	UserID         uuid.UUID       `json:"user_id"`
	StoreID        uuid.UUID       `json:"store_id"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentStatus  string          `json:"payment_status"`
	Notes          string          `json:"notes"`
	SaleDate       time.Time       `json:"sale_date"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Items          []SaleLine      `json:"items,omitempty"`
}
