package application

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

// createOrder inserts the order inside tx, drawing a fresh code whenever the
// previous one collided. Any other insert failure is returned as is.
func (s *Service) createOrder(ctx context.Context, tx ports.Tx, order *domain.Order) (*domain.Order, error) {
	for attempt := 0; attempt < domain.MaxOrderCodeAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, err
		}
		order.Code = code
		saved, err := tx.CreateOrder(ctx, order)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, ports.ErrOrderCodeTaken) {
			return nil, err
		}
	}
	order.Code = ""
	return nil, domain.ErrOrderCodeExhausted
}

// reserveLines decrements stock for every ordered product, failing on the first
// product stock cannot cover. Products are reserved in ascending id order so
// concurrent checkouts take row locks in the same sequence.
func reserveLines(ctx context.Context, tx ports.Tx, order *domain.Order) error {
	quantities := order.Quantities()
	names := make(map[int64]string, len(order.Lines))
	for _, line := range order.Lines {
		names[line.ProductID] = line.ProductName
	}
	for _, productID := range slices.Sorted(maps.Keys(quantities)) {
		ok, err := tx.ReserveStock(ctx, productID, quantities[productID])
		if err != nil {
			return err
		}
		if !ok {
			return &domain.StockError{
				ProductID:   productID,
				ProductName: names[productID],
				Requested:   quantities[productID],
			}
		}
	}
	return nil
}

func placedEvent(order *domain.Order, at domain.BaseEvent) domain.OrderPlaced {
	return domain.OrderPlaced{
		BaseEvent: at,
		OrderCode: order.Code,
		OwnerID:   order.OwnerID,
		Total:     order.Total,
		Lines:     order.Lines,
	}
}
