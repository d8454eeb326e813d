package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/metrics"
	"github.com/polimarket/market-service/internal/repository"
)

// FeeTable maps faculty codes to delivery fees.
type FeeTable struct {
	Default   float64
	ByFaculty map[string]float64
}

func (f FeeTable) Lookup(faculty string) float64 {
	key := strings.ToUpper(strings.TrimSpace(faculty))
	for k, v := range f.ByFaculty {
		if strings.ToUpper(k) == key {
			return v
		}
	}

	return f.Default
}

type NewOrder struct {
	ProductID     int64
	Faculty       string
	Building      string
	Classroom     string
	PaymentMethod string
}

type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	fees     FeeTable
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, fees FeeTable) *OrderService {
	return &OrderService{orders: orders, products: products, fees: fees}
}

func (s *OrderService) Fee(faculty string) float64 {
	return s.fees.Lookup(faculty)
}

func (s *OrderService) Create(ctx context.Context, buyerID int64, in NewOrder) (*domain.Order, error) {
	faculty := strings.TrimSpace(in.Faculty)
	building := strings.TrimSpace(in.Building)
	if faculty == "" || building == "" {
		return nil, domain.ErrInvalidInput
	}
	method, err := domain.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	if p.SellerID == buyerID {
		return nil, domain.ErrSelfOrder
	}

	o := &domain.Order{
		BuyerID:       buyerID,
		ProductID:     p.ID,
		SellerID:      p.SellerID,
		Faculty:       faculty,
		Building:      building,
		PaymentMethod: method,
		Fee:           s.fees.Lookup(faculty),
		Status:        domain.OrderPending,
	}
	if c := strings.TrimSpace(in.Classroom); c != "" {
		o.Classroom = &c
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	metrics.OrdersTransitioned.WithLabelValues(string(o.Status)).Inc()

	return o, nil
}

func (s *OrderService) My(ctx context.Context, buyerID int64) ([]domain.Order, error) {
	return s.orders.ListByBuyer(ctx, buyerID)
}

// Available lists pending orders for delivery staff.
func (s *OrderService) Available(ctx context.Context, who domain.Identity) ([]domain.Order, error) {
	if !who.IsDelivery {
		return nil, domain.ErrNotDeliveryStaff
	}

	return s.orders.ListByStatus(ctx, domain.OrderPending)
}

// Accept assigns the order to a delivery agent and opens the delivery chat
// between the buyer and the agent.
func (s *OrderService) Accept(ctx context.Context, orderID int64, who domain.Identity) (*domain.Order, *domain.Chat, error) {
	if !who.IsDelivery {
		return nil, nil, domain.ErrNotDeliveryStaff
	}

	o, err := s.get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if o.BuyerID == who.ID {
		return nil, nil, domain.ErrForbidden
	}
	if !o.Status.CanTransition(domain.OrderAccepted) {
		return nil, nil, domain.ErrInvalidOrderStatus
	}

	o, chat, err := s.orders.Accept(ctx, orderID, who.ID)
	if err != nil {
		return nil, nil, s.mapErr(err)
	}
	metrics.OrdersTransitioned.WithLabelValues(string(o.Status)).Inc()

	return o, chat, nil
}

// Reject is open to the seller of the product and to delivery staff.
func (s *OrderService) Reject(ctx context.Context, orderID int64, who domain.Identity) (*domain.Order, error) {
	o, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.SellerID != who.ID && !who.IsDelivery {
		return nil, domain.ErrForbidden
	}

	return s.transition(ctx, o, domain.OrderRejected)
}

// Complete is reserved to the agent that accepted the order.
func (s *OrderService) Complete(ctx context.Context, orderID int64, who domain.Identity) (*domain.Order, error) {
	o, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.DeliveryID == nil || *o.DeliveryID != who.ID {
		return nil, domain.ErrForbidden
	}

	return s.transition(ctx, o, domain.OrderCompleted)
}

func (s *OrderService) transition(ctx context.Context, o *domain.Order, to domain.OrderStatus) (*domain.Order, error) {
	if !o.Status.CanTransition(to) {
		return nil, domain.ErrInvalidOrderStatus
	}

	updated, err := s.orders.Transition(ctx, o.ID, o.Status, to)
	if err != nil {
		return nil, s.mapErr(err)
	}
	metrics.OrdersTransitioned.WithLabelValues(string(to)).Inc()

	return updated, nil
}

func (s *OrderService) get(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapErr(err)
	}

	return o, nil
}

func (s *OrderService) mapErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return domain.ErrOrderNotFound
	case errors.Is(err, repository.ErrConflict):
		return domain.ErrInvalidOrderStatus
	default:
		return err
	}
}
