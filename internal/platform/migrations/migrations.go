package migrations

import (
	"time"

	"gorm.io/gorm"
)

// Run applies the checkout schema. Adapters never migrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&cartItemRecord{},
		&orderRecord{},
		&orderLineRecord{},
		&outboxRecord{},
		&receiptRecord{},
	)
}

// Product schema mirrors the store Postgres adapter. Stock can never go negative.
type productRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;size:255;not null"`
	Price     int64     `gorm:"column:price;not null"`
	Stock     int32     `gorm:"column:stock;not null;check:chk_products_stock_non_negative,stock >= 0"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type cartItemRecord struct {
	ID        int64          `gorm:"primaryKey;column:id"`
	OwnerID   string         `gorm:"column:owner_id;size:128;not null;uniqueIndex:uq_cart_items_owner_product"`
	ProductID int64          `gorm:"column:product_id;not null;uniqueIndex:uq_cart_items_owner_product"`
	Product   *productRecord `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Quantity  int32          `gorm:"column:quantity;not null;check:chk_cart_items_quantity_positive,quantity > 0"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (cartItemRecord) TableName() string { return "cart_items" }

// Order schema mirrors the store Postgres adapter. The order code and the
// payment session are unique; several orders may have no session.
type orderRecord struct {
	ID               int64     `gorm:"primaryKey;column:id"`
	OwnerID          string    `gorm:"column:owner_id;size:128;not null;index"`
	OrderCode        string    `gorm:"column:order_code;size:32;not null;uniqueIndex:uq_orders_order_code"`
	Status           string    `gorm:"column:status;type:varchar(32);not null;index:idx_orders_status_created"`
	Subtotal         int64     `gorm:"column:subtotal;not null"`
	Shipping         int64     `gorm:"column:shipping;not null"`
	Total            int64     `gorm:"column:total;not null"`
	FullName         string    `gorm:"column:full_name"`
	Email            string    `gorm:"column:email"`
	Address          string    `gorm:"column:address"`
	City             string    `gorm:"column:city"`
	Zip              string    `gorm:"column:zip"`
	Country          string    `gorm:"column:country"`
	PaymentSessionID *string   `gorm:"column:payment_session_id;size:255;uniqueIndex:uq_orders_payment_session_id"`
	RefundID         *string   `gorm:"column:refund_id;size:255"`
	CreatedAt        time.Time `gorm:"column:created_at;index:idx_orders_status_created"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderLineRecord struct {
	ID          int64        `gorm:"primaryKey;column:id"`
	OrderID     int64        `gorm:"column:order_id;not null;index"`
	Order       *orderRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ProductID   int64        `gorm:"column:product_id;not null"`
	ProductName string       `gorm:"column:product_name;not null"`
	UnitPrice   int64        `gorm:"column:unit_price;not null"`
	Quantity    int32        `gorm:"column:quantity;not null"`
}

func (orderLineRecord) TableName() string { return "order_lines" }

// Outbox rows are written in the same transaction as the state change.
type outboxRecord struct {
	ID        int64      `gorm:"primaryKey;column:id"`
	EventID   string     `gorm:"column:event_id;size:64;not null;uniqueIndex"`
	Topic     string     `gorm:"column:topic;size:255;not null"`
	Key       string     `gorm:"column:key;size:255"`
	Type      string     `gorm:"column:type;size:128;not null"`
	Payload   string     `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	SentAt    *time.Time `gorm:"column:sent_at;index"`
}

func (outboxRecord) TableName() string { return "store_outbox" }

type receiptRecord struct {
	EventID    string    `gorm:"primaryKey;column:event_id;size:255"`
	ReceivedAt time.Time `gorm:"column:received_at;index"`
}

func (receiptRecord) TableName() string { return "webhook_receipts" }
