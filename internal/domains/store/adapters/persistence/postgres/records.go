package postgres

import (
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	"github.com/Apurer/go-gin-storefront/internal/platform/outbox"
)

// Constraint names the adapter translates into port errors.
const (
	constraintOrderCode      = "uq_orders_order_code"
	constraintPaymentSession = "uq_orders_payment_session_id"
)

type productRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;size:255"`
	Price     int64     `gorm:"column:price"`
	Stock     int32     `gorm:"column:stock;check:chk_products_stock_non_negative,stock >= 0"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type cartItemRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	OwnerID   string    `gorm:"column:owner_id;size:128;uniqueIndex:uq_cart_items_owner_product"`
	ProductID int64     `gorm:"column:product_id;uniqueIndex:uq_cart_items_owner_product"`
	Quantity  int32     `gorm:"column:quantity"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (cartItemRecord) TableName() string { return "cart_items" }

type orderRecord struct {
	ID               int64             `gorm:"primaryKey;column:id"`
	OwnerID          string            `gorm:"column:owner_id;size:128;index"`
	OrderCode        string            `gorm:"column:order_code;size:32;uniqueIndex:uq_orders_order_code"`
	Status           string            `gorm:"column:status;type:varchar(32);index:idx_orders_status_created"`
	Subtotal         int64             `gorm:"column:subtotal"`
	Shipping         int64             `gorm:"column:shipping"`
	Total            int64             `gorm:"column:total"`
	FullName         string            `gorm:"column:full_name"`
	Email            string            `gorm:"column:email"`
	Address          string            `gorm:"column:address"`
	City             string            `gorm:"column:city"`
	Zip              string            `gorm:"column:zip"`
	Country          string            `gorm:"column:country"`
	PaymentSessionID *string           `gorm:"column:payment_session_id;size:255;uniqueIndex:uq_orders_payment_session_id"`
	RefundID         *string           `gorm:"column:refund_id;size:255"`
	Lines            []orderLineRecord `gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time         `gorm:"column:created_at;index:idx_orders_status_created"`
	UpdatedAt        time.Time         `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderLineRecord struct {
	ID          int64  `gorm:"primaryKey;column:id"`
	OrderID     int64  `gorm:"column:order_id;index"`
	ProductID   int64  `gorm:"column:product_id"`
	ProductName string `gorm:"column:product_name"`
	UnitPrice   int64  `gorm:"column:unit_price"`
	Quantity    int32  `gorm:"column:quantity"`
}

func (orderLineRecord) TableName() string { return "order_lines" }

type outboxRecord struct {
	ID        int64      `gorm:"primaryKey;column:id"`
	EventID   string     `gorm:"column:event_id;size:64;uniqueIndex"`
	Topic     string     `gorm:"column:topic;size:255"`
	Key       string     `gorm:"column:key;size:255"`
	Type      string     `gorm:"column:type;size:128"`
	Payload   string     `gorm:"column:payload;type:jsonb"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	SentAt    *time.Time `gorm:"column:sent_at;index"`
}

func (outboxRecord) TableName() string { return "store_outbox" }

type receiptRecord struct {
	EventID    string    `gorm:"primaryKey;column:event_id;size:255"`
	ReceivedAt time.Time `gorm:"column:received_at;index"`
}

func (receiptRecord) TableName() string { return "webhook_receipts" }

func toProductRecord(p domain.Product) productRecord {
	return productRecord{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock}
}

func (r productRecord) toDomain() domain.Product {
	return domain.Product{ID: r.ID, Name: r.Name, Price: r.Price, Stock: r.Stock}
}

func toOrderRecord(order *domain.Order) orderRecord {
	rec := orderRecord{
		ID:        order.ID,
		OwnerID:   order.OwnerID,
		OrderCode: order.Code,
		Status:    string(order.Status),
		Subtotal:  order.Subtotal,
		Shipping:  order.Shipping,
		Total:     order.Total,
		FullName:  order.ShippingInfo.FullName,
		Email:     order.ShippingInfo.Email,
		Address:   order.ShippingInfo.Address,
		City:      order.ShippingInfo.City,
		Zip:       order.ShippingInfo.Zip,
		Country:   order.ShippingInfo.Country,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
	if order.PaymentSessionID != "" {
		session := order.PaymentSessionID
		rec.PaymentSessionID = &session
	}
	if order.RefundID != "" {
		refundID := order.RefundID
		rec.RefundID = &refundID
	}
	rec.Lines = make([]orderLineRecord, 0, len(order.Lines))
	for _, line := range order.Lines {
		rec.Lines = append(rec.Lines, orderLineRecord{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		})
	}
	return rec
}

func (r orderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		ID:       r.ID,
		OwnerID:  r.OwnerID,
		Code:     r.OrderCode,
		Status:   domain.Status(r.Status),
		Subtotal: r.Subtotal,
		Shipping: r.Shipping,
		Total:    r.Total,
		ShippingInfo: domain.ShippingInfo{
			FullName: r.FullName,
			Email:    r.Email,
			Address:  r.Address,
			City:     r.City,
			Zip:      r.Zip,
			Country:  r.Country,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Lines:     make([]domain.OrderLine, 0, len(r.Lines)),
	}
	if r.PaymentSessionID != nil {
		order.PaymentSessionID = *r.PaymentSessionID
	}
	if r.RefundID != nil {
		order.RefundID = *r.RefundID
	}
	for _, line := range r.Lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		})
	}
	return order
}

func toOutboxRecord(rec outbox.Record) outboxRecord {
	return outboxRecord{
		EventID:   rec.EventID,
		Topic:     rec.Topic,
		Key:       rec.Key,
		Type:      rec.Type,
		Payload:   string(rec.Payload),
		CreatedAt: rec.CreatedAt,
	}
}

func (r outboxRecord) toOutbox() outbox.Record {
	return outbox.Record{
		ID:        r.ID,
		EventID:   r.EventID,
		Topic:     r.Topic,
		Key:       r.Key,
		Type:      r.Type,
		Payload:   []byte(r.Payload),
		CreatedAt: r.CreatedAt,
		SentAt:    r.SentAt,
	}
}
