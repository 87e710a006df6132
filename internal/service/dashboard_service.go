package service

import (
	"time"

	"pos-backoffice/internal/repository"
	"pos-backoffice/pkg/apperr"
)

const lowStockThreshold = 10

type DashboardService interface {
	GetSalesReport(startDate, endDate time.Time) (*SalesReport, error)
	GetStockStats() (*repository.StockStats, error)
}

type SalesReport struct {
	From        time.Time                 `json:"from"`
	To          time.Time                 `json:"to"`
	Summary     *repository.SalesSummary  `json:"summary"`
	Daily       []repository.DailySales   `json:"daily"`
	TopProducts []repository.ProductSales `json:"top_products"`
}

type dashboardService struct {
	reportRepo repository.ReportRepository
}

func NewDashboardService(reportRepo repository.ReportRepository) DashboardService {
	return &dashboardService{reportRepo: reportRepo}
}

func (s *dashboardService) GetSalesReport(startDate, endDate time.Time) (*SalesReport, error) {
	if endDate.Before(startDate) {
		return nil, apperr.Validation("range", "end date is before start date")
	}

	summary, err := s.reportRepo.GetSalesSummary(startDate, endDate)
	if err != nil {
		return nil, apperr.Persistence("sales summary", err)
	}
	daily, err := s.reportRepo.GetDailySales(startDate, endDate)
	if err != nil {
		return nil, apperr.Persistence("daily sales", err)
	}
	top, err := s.reportRepo.GetTopProducts(startDate, endDate, 5)
	if err != nil {
		return nil, apperr.Persistence("top products", err)
	}

	return &SalesReport{
		From:        startDate,
		To:          endDate,
		Summary:     summary,
		Daily:       daily,
		TopProducts: top,
	}, nil
}

func (s *dashboardService) GetStockStats() (*repository.StockStats, error) {
	stats, err := s.reportRepo.GetStockStats(lowStockThreshold)
	if err != nil {
		return nil, apperr.Persistence("stock stats", err)
	}
	return stats, nil
}
