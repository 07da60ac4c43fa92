package service

import (
	"context"

	"github.com/bbn-nutrition/storefront/internal/config"
	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/repo"
	"github.com/bbn-nutrition/storefront/internal/transport"
)

const (
	dashboardRecentOrders = 5
	dashboardLowStock     = 20
)

type AdminService struct {
	Repo *repo.GormRepo
	Shop config.Shop
}

func (s *AdminService) Dashboard(ctx context.Context) (*transport.Dashboard, error) {
	var (
		d   transport.Dashboard
		err error
	)
	if d.TotalProducts, err = s.Repo.CountProducts(ctx); err != nil {
		return nil, err
	}
	if d.TotalUsers, err = s.Repo.CountUsers(ctx); err != nil {
		return nil, err
	}
	if d.TotalOrders, err = s.Repo.CountOrders(ctx); err != nil {
		return nil, err
	}
	if d.Revenue, err = s.Repo.Revenue(ctx); err != nil {
		return nil, err
	}
	if d.OrdersByStatus, err = s.Repo.CountOrdersByStatus(ctx); err != nil {
		return nil, err
	}
	if d.LowStock, err = s.Repo.LowStockProducts(ctx, s.Shop.LowStockThreshold, dashboardLowStock); err != nil {
		return nil, err
	}
	if d.RecentOrders, err = s.Repo.RecentOrders(ctx, dashboardRecentOrders); err != nil {
		return nil, err
	}
	if d.LowStock == nil {
		d.LowStock = []models.Product{}
	}
	if d.RecentOrders == nil {
		d.RecentOrders = []models.Order{}
	}
	return &d, nil
}
