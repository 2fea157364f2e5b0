package observability

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/application"
	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	storedomain "github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	storeports "github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

const tracerName = "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/observability/service"

// Checkout flows recorded on the orders counter.
const (
	flowImmediate = "immediate"
	flowDeferred  = "deferred"
	flowSettled   = "settled"
)

// Service decorates the checkout service with tracing, logging, and metrics.
type Service struct {
	inner   storeports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core checkout service.
func New(inner storeports.Service, opts ...Option) storeports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.Default(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) Cart(ctx context.Context, ownerID string) (*storetypes.CartView, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.Cart", trace.WithAttributes(attribute.String("owner.id", ownerID)))
	defer span.End()

	result, err := s.inner.Cart(ctx, ownerID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load cart", slog.String("owner.id", ownerID))
	}
	span.SetAttributes(attribute.Int("cart.lines", len(result.Lines)), attribute.Int64("cart.total", result.Total))
	return result, nil
}

func (s *Service) AddCartItem(ctx context.Context, input storetypes.CartItemInput) (*storedomain.CartItem, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.AddCartItem", trace.WithAttributes(cartAttrs(input)...))
	defer span.End()

	result, err := s.inner.AddCartItem(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to add cart item", slog.Int64("product.id", input.ProductID))
	}
	s.logInfo(ctx, "cart item added", slog.String("owner.id", input.OwnerID), slog.Int64("product.id", input.ProductID), slog.Int("quantity", int(result.Quantity)))
	return result, nil
}

func (s *Service) SetCartItemQuantity(ctx context.Context, input storetypes.CartItemInput) error {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.SetCartItemQuantity", trace.WithAttributes(cartAttrs(input)...))
	defer span.End()

	if err := s.inner.SetCartItemQuantity(ctx, input); err != nil {
		return s.handleError(ctx, span, err, "failed to update cart item", slog.Int64("product.id", input.ProductID))
	}
	return nil
}

func (s *Service) RemoveCartItem(ctx context.Context, ownerID string, productID int64) error {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.RemoveCartItem",
		trace.WithAttributes(attribute.String("owner.id", ownerID), attribute.Int64("product.id", productID)))
	defer span.End()

	if err := s.inner.RemoveCartItem(ctx, ownerID, productID); err != nil {
		return s.handleError(ctx, span, err, "failed to remove cart item", slog.Int64("product.id", productID))
	}
	return nil
}

func (s *Service) CheckoutImmediate(ctx context.Context, input storetypes.CheckoutInput) (*storedomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.CheckoutImmediate", trace.WithAttributes(attribute.String("owner.id", input.OwnerID)))
	defer span.End()

	s.logInfo(ctx, "placing order", slog.String("owner.id", input.OwnerID))
	result, err := s.inner.CheckoutImmediate(ctx, input)
	if err != nil {
		s.metrics.recordRejected(ctx, flowImmediate, err)
		return nil, s.handleError(ctx, span, err, "failed to place order", slog.String("owner.id", input.OwnerID))
	}
	span.SetAttributes(orderAttrs(result)...)
	s.metrics.recordPlaced(ctx, flowImmediate)
	s.logInfo(ctx, "order placed", slog.String("order.code", result.Code), slog.Int64("order.total", result.Total))
	return result, nil
}

func (s *Service) BeginDeferredCheckout(ctx context.Context, input storetypes.CheckoutInput) (*storetypes.DeferredCheckout, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.BeginDeferredCheckout", trace.WithAttributes(attribute.String("owner.id", input.OwnerID)))
	defer span.End()

	result, err := s.inner.BeginDeferredCheckout(ctx, input)
	if err != nil {
		s.metrics.recordRejected(ctx, flowDeferred, err)
		return nil, s.handleError(ctx, span, err, "failed to start payment session", slog.String("owner.id", input.OwnerID))
	}
	span.SetAttributes(orderAttrs(result.Order)...)
	s.logInfo(ctx, "payment session started", slog.String("order.code", result.Order.Code), slog.String("session.id", result.SessionID))
	return result, nil
}

func (s *Service) ConfirmCheckout(ctx context.Context, input storetypes.FinalizeInput) (*storedomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.ConfirmCheckout", trace.WithAttributes(attribute.String("session.id", input.SessionID)))
	defer span.End()

	result, err := s.inner.ConfirmCheckout(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to confirm checkout", slog.String("session.id", input.SessionID))
	}
	span.SetAttributes(orderAttrs(result)...)
	return result, nil
}

func (s *Service) Finalize(ctx context.Context, input storetypes.FinalizeInput) (*storedomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.Finalize", trace.WithAttributes(attribute.String("session.id", input.SessionID)))
	defer span.End()

	result, err := s.inner.Finalize(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to finalize order", slog.String("session.id", input.SessionID))
	}
	span.SetAttributes(orderAttrs(result)...)
	s.logInfo(ctx, "order finalized", slog.String("order.code", result.Code), slog.String("status", string(result.Status)))
	return result, nil
}

func (s *Service) FinalizeClaim(ctx context.Context, input storetypes.FinalizeInput) (*storetypes.FinalizeResult, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.FinalizeClaim", trace.WithAttributes(attribute.String("session.id", input.SessionID)))
	defer span.End()

	result, err := s.inner.FinalizeClaim(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to finalize order", slog.String("session.id", input.SessionID))
	}
	span.SetAttributes(orderAttrs(result.Order)...)
	span.SetAttributes(attribute.Bool("finalize.claimed", result.Claimed))
	s.logInfo(ctx, "order finalized",
		slog.String("order.code", result.Order.Code),
		slog.String("status", string(result.Order.Status)),
		slog.Bool("claimed", result.Claimed))
	return result, nil
}

func (s *Service) Compensate(ctx context.Context, input storetypes.CompensateInput) (*storetypes.CompensationResult, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.Compensate",
		trace.WithAttributes(attribute.String("session.id", input.SessionID), attribute.String("compensation.reason", input.Reason)))
	defer span.End()

	result, err := s.inner.Compensate(ctx, input)
	if err != nil {
		if errors.Is(err, application.ErrRefundFailed) {
			s.metrics.recordRefundFailed(ctx)
		}
		return result, s.handleError(ctx, span, err, "compensation failed", slog.String("session.id", input.SessionID))
	}
	s.logCompensation(ctx, input.SessionID, result)
	return result, nil
}

func (s *Service) SettlePayment(ctx context.Context, input storetypes.SettlementInput) (*storetypes.SettlementResult, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.SettlePayment",
		trace.WithAttributes(attribute.String("session.id", input.SessionID), attribute.String("event.id", input.EventID)))
	defer span.End()

	result, err := s.inner.SettlePayment(ctx, input)
	if err != nil {
		if errors.Is(err, application.ErrRefundFailed) {
			s.metrics.recordRefundFailed(ctx)
		}
		return nil, s.handleError(ctx, span, err, "payment settlement failed", slog.String("session.id", input.SessionID))
	}
	span.SetAttributes(attribute.String("settlement.outcome", string(result.Outcome)))
	switch result.Outcome {
	case storetypes.OutcomePlaced:
		s.metrics.recordPlaced(ctx, flowSettled)
	case storetypes.OutcomeCompensated:
		s.metrics.recordCompensated(ctx)
	}
	s.logInfo(ctx, "payment settled",
		slog.String("session.id", input.SessionID),
		slog.String("outcome", string(result.Outcome)),
		slog.String("refund.id", result.RefundID),
		slog.String("reason", result.Reason))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, lookup storetypes.OrderLookup) (*storedomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.GetOrder", trace.WithAttributes(attribute.String("order.code", lookup.Code)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, lookup)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.code", lookup.Code))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, ownerID string) ([]*storedomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.ListOrders", trace.WithAttributes(attribute.String("owner.id", ownerID)))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, ownerID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", slog.String("owner.id", ownerID))
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) ExpirePendingOrders(ctx context.Context, input storetypes.ExpireInput) (int, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.ExpirePendingOrders")
	defer span.End()

	expired, err := s.inner.ExpirePendingOrders(ctx, input)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to expire pending orders")
	}
	span.SetAttributes(attribute.Int("orders.expired", expired))
	s.metrics.recordExpired(ctx, expired)
	if expired > 0 {
		s.logInfo(ctx, "expired pending orders", slog.Int("count", expired), slog.Time("before", input.Before))
	}
	return expired, nil
}

func (s *Service) logCompensation(ctx context.Context, sessionID string, result *storetypes.CompensationResult) {
	if result.Superseded {
		s.logInfo(ctx, "compensation superseded by placed order", slog.String("session.id", sessionID))
		return
	}
	if !result.Refunded {
		s.logInfo(ctx, "compensation already recorded",
			slog.String("session.id", sessionID),
			slog.String("refund.id", result.RefundID))
		return
	}
	s.metrics.recordCompensated(ctx)
	s.logInfo(ctx, "order cancelled and refunded",
		slog.String("session.id", sessionID),
		slog.String("order.code", result.Order.Code),
		slog.String("refund.id", result.RefundID))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	level := slog.LevelError
	if isClientError(err) {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func isClientError(err error) bool {
	return errors.Is(err, application.ErrValidation) ||
		errors.Is(err, application.ErrNotFound) ||
		errors.Is(err, application.ErrBusinessRule)
}

func cartAttrs(input storetypes.CartItemInput) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("owner.id", input.OwnerID),
		attribute.Int64("product.id", input.ProductID),
		attribute.Int("quantity", int(input.Quantity)),
	}
}

func orderAttrs(order *storedomain.Order) []attribute.KeyValue {
	if order == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String("order.code", order.Code),
		attribute.String("order.status", string(order.Status)),
		attribute.Int64("order.total", order.Total),
	}
}

type serviceMetrics struct {
	ordersPlaced    metric.Int64Counter
	checkoutsDenied metric.Int64Counter
	compensations   metric.Int64Counter
	refundFailures  metric.Int64Counter
	ordersExpired   metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersPlaced, _ := m.Int64Counter("checkout.orders_placed", metric.WithDescription("Number of orders placed"))
	checkoutsDenied, _ := m.Int64Counter("checkout.rejected", metric.WithDescription("Number of checkouts rejected"))
	compensations, _ := m.Int64Counter("checkout.compensations", metric.WithDescription("Number of paid orders cancelled and refunded"))
	refundFailures, _ := m.Int64Counter("checkout.refund_failures", metric.WithDescription("Number of refunds that need manual follow-up"))
	ordersExpired, _ := m.Int64Counter("checkout.orders_expired", metric.WithDescription("Number of abandoned pending orders cancelled"))
	return serviceMetrics{
		ordersPlaced:    ordersPlaced,
		checkoutsDenied: checkoutsDenied,
		compensations:   compensations,
		refundFailures:  refundFailures,
		ordersExpired:   ordersExpired,
	}
}

func (m serviceMetrics) recordPlaced(ctx context.Context, flow string) {
	if m.ordersPlaced != nil {
		m.ordersPlaced.Add(ctx, 1, metric.WithAttributes(attribute.String("checkout.flow", flow)))
	}
}

func (m serviceMetrics) recordRejected(ctx context.Context, flow string, err error) {
	if m.checkoutsDenied == nil {
		return
	}
	reason := "error"
	switch {
	case errors.Is(err, storedomain.ErrOutOfStock):
		reason = "out_of_stock"
	case errors.Is(err, storedomain.ErrEmptyCart):
		reason = "empty_cart"
	case errors.Is(err, application.ErrValidation):
		reason = "validation"
	case errors.Is(err, application.ErrExternalService):
		reason = "payment_provider"
	}
	m.checkoutsDenied.Add(ctx, 1, metric.WithAttributes(
		attribute.String("checkout.flow", flow),
		attribute.String("reason", reason),
	))
}

func (m serviceMetrics) recordCompensated(ctx context.Context) {
	if m.compensations != nil {
		m.compensations.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordRefundFailed(ctx context.Context) {
	if m.refundFailures != nil {
		m.refundFailures.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordExpired(ctx context.Context, n int) {
	if m.ordersExpired != nil && n > 0 {
		m.ordersExpired.Add(ctx, int64(n))
	}
}

var _ storeports.Service = (*Service)(nil)
