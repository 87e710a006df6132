package repository

import (
	"time"

	"pos-backoffice/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReportRepository interface {
	GetDailySales(startDate, endDate time.Time) ([]DailySales, error)
	GetSalesSummary(startDate, endDate time.Time) (*SalesSummary, error)
	GetTopProducts(startDate, endDate time.Time, limit int) ([]ProductSales, error)
	GetStockStats(lowStockThreshold int) (*StockStats, error)
}

// DailySales is one point of the revenue chart.
type DailySales struct {
	Date    string          `json:"date"`
	Sales   int64           `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
}

type SalesSummary struct {
	Sales     int64           `json:"sales"`
	Revenue   decimal.Decimal `json:"revenue"`
	Tax       decimal.Decimal `json:"tax"`
	Discounts decimal.Decimal `json:"discounts"`
	ItemsSold int64           `json:"items_sold"`
}

type ProductSales struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type StockStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	OutOfStock     int64           `json:"out_of_stock"`
	StockValuation decimal.Decimal `json:"stock_valuation"`
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db}
}

func (r *reportRepo) GetDailySales(startDate, endDate time.Time) ([]DailySales, error) {
	var results []DailySales

	rows, err := r.db.Model(&model.Sale{}).
		Select(`
			DATE(sale_date) as date,
			COUNT(*) as sales,
			COALESCE(SUM(total_amount), 0) as revenue
		`).
		Where("sale_date BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(sale_date)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data DailySales
		if err := rows.Scan(&data.Date, &data.Sales, &data.Revenue); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}

func (r *reportRepo) GetSalesSummary(startDate, endDate time.Time) (*SalesSummary, error) {
	var summary SalesSummary

	row := r.db.Model(&model.Sale{}).
		Select(`
			COUNT(*),
			COALESCE(SUM(total_amount), 0),
			COALESCE(SUM(tax_amount), 0),
			COALESCE(SUM(discount_amount), 0)
		`).
		Where("sale_date BETWEEN ? AND ?", startDate, endDate).
		Row()
	if err := row.Scan(&summary.Sales, &summary.Revenue, &summary.Tax, &summary.Discounts); err != nil {
		return nil, err
	}

	err := r.db.Model(&model.SaleItem{}).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.sale_date BETWEEN ? AND ?", startDate, endDate).
		Select("COALESCE(SUM(sale_items.quantity), 0)").
		Scan(&summary.ItemsSold).Error
	if err != nil {
		return nil, err
	}

	return &summary, nil
}

func (r *reportRepo) GetTopProducts(startDate, endDate time.Time, limit int) ([]ProductSales, error) {
	var results []ProductSales

	rows, err := r.db.Model(&model.SaleItem{}).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Select(`
			sale_items.product_id,
			MAX(sale_items.product_name),
			SUM(sale_items.quantity) as quantity,
			COALESCE(SUM(sale_items.line_total), 0)
		`).
		Where("sales.sale_date BETWEEN ? AND ?", startDate, endDate).
		Group("sale_items.product_id").
		Order("quantity DESC").
		Limit(limit).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data ProductSales
		if err := rows.Scan(&data.ProductID, &data.ProductName, &data.Quantity, &data.Revenue); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}

func (r *reportRepo) GetStockStats(lowStockThreshold int) (*StockStats, error) {
	var stats StockStats

	if err := r.db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Product{}).Where("current_stock < ?", lowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Product{}).Where("current_stock = 0").Count(&stats.OutOfStock).Error; err != nil {
		return nil, err
	}
	row := r.db.Model(&model.Product{}).Select("COALESCE(SUM(current_stock * selling_price), 0)").Row()
	if err := row.Scan(&stats.StockValuation); err != nil {
		return nil, err
	}

	return &stats, nil
}
