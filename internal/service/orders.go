package service

import (
	"context"
	"errors"

	"github.com/m3rciful/shopbot/internal/domain"
)

// OrderRepo reads orders.
type OrderRepo interface {
	ByUser(ctx context.Context, userID int64) ([]domain.OrderView, error)
	All(ctx context.Context) ([]domain.OrderView, error)
}

// AdminChecker tells admins apart from customers.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// Orders lists purchases.
type Orders struct {
	repo   OrderRepo
	admins AdminChecker
}

// NewOrders constructs the order service.
func NewOrders(repo OrderRepo, admins AdminChecker) (*Orders, error) {
	if repo == nil || admins == nil {
		return nil, errors.New("service: order repository and admin checker are required")
	}
	return &Orders{repo: repo, admins: admins}, nil
}

// Visible returns the orders userID may see. Admins see every order and
// withBuyers reports that buyer names should be shown.
func (s *Orders) Visible(ctx context.Context, userID int64) (orders []domain.OrderView, withBuyers bool, err error) {
	admin, err := s.admins.IsAdmin(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if admin {
		orders, err = s.repo.All(ctx)
		return orders, true, err
	}
	orders, err = s.repo.ByUser(ctx, userID)
	return orders, false, err
}
