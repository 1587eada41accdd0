package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"jacareparts/backend/internal/cache"
	"jacareparts/backend/internal/domain"
	"jacareparts/backend/internal/store"
	"jacareparts/backend/internal/store/memory"
)

func newTestService() *Service {
	repo := memory.New()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(repo, cache.NoopProductCache{}, logger, Options{
		ShopName:        "AUTOPEÇAS JACARÉ",
		CatalogCacheTTL: time.Second,
	})
}

func newTestServiceWithRestock() *Service {
	repo := memory.New()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(repo, cache.NoopProductCache{}, logger, Options{
		RestockOnCancel: true,
	})
}

func mustCreateProduct(t *testing.T, svc *Service, sku string, salePrice string, costPrice string, stock int) *domain.Product {
	t.Helper()
	product, err := svc.CreateProduct(context.Background(), domain.ProductCreateRequest{
		SKU:         sku,
		Description: "Peça " + sku,
		SalePrice:   decimal.RequireFromString(salePrice),
		CostPrice:   decimal.RequireFromString(costPrice),
		StockQty:    stock,
		MinStockQty: 1,
	})
	if err != nil {
		t.Fatalf("create product %s failed: %v", sku, err)
	}
	return product
}

func mustCommitOrder(t *testing.T, svc *Service, lines []domain.CartLineRequest) *domain.Order {
	t.Helper()
	order, err := svc.CommitOrder(context.Background(), domain.OrderCreateRequest{
		PaymentMethod: domain.PaymentMethodCash,
		Lines:         lines,
	})
	if err != nil {
		t.Fatalf("commit order failed: %v", err)
	}
	return order
}

func TestRegisterPurchaseWeightedAverage(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "FLT-100", "10.00", "4.0000", 10)

	_, err := svc.RegisterPurchase(context.Background(), domain.PurchaseCreateRequest{
		ProductID: product.ID,
		Qty:       10,
		UnitCost:  decimal.RequireFromString("5.00"),
	})
	if err != nil {
		t.Fatalf("register purchase failed: %v", err)
	}

	updated, err := svc.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if updated.StockQty != 20 {
		t.Fatalf("expected stock 20, got %d", updated.StockQty)
	}
	if updated.CostPrice.StringFixed(4) != "4.5000" {
		t.Fatalf("expected weighted cost 4.5000, got %s", updated.CostPrice.StringFixed(4))
	}
}

func TestRegisterPurchaseIntoEmptyStockAdoptsUnitCost(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "FLT-101", "10.00", "0.0000", 0)

	_, err := svc.RegisterPurchase(context.Background(), domain.PurchaseCreateRequest{
		ProductID: product.ID,
		Qty:       5,
		UnitCost:  decimal.RequireFromString("7.3333"),
	})
	if err != nil {
		t.Fatalf("register purchase failed: %v", err)
	}

	updated, _ := svc.GetProduct(context.Background(), product.ID)
	if updated.CostPrice.StringFixed(4) != "7.3333" {
		t.Fatalf("expected cost 7.3333, got %s", updated.CostPrice.StringFixed(4))
	}
	if updated.StockQty != 5 {
		t.Fatalf("expected stock 5, got %d", updated.StockQty)
	}
}

func TestRegisterPurchaseRejectsBadInput(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "FLT-102", "10.00", "1.0000", 1)

	_, err := svc.RegisterPurchase(context.Background(), domain.PurchaseCreateRequest{
		ProductID: product.ID,
		Qty:       0,
		UnitCost:  decimal.RequireFromString("1.00"),
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for zero qty, got %v", err)
	}

	_, err = svc.RegisterPurchase(context.Background(), domain.PurchaseCreateRequest{
		ProductID: product.ID,
		Qty:       1,
		UnitCost:  decimal.RequireFromString("-1.00"),
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for negative cost, got %v", err)
	}

	_, err = svc.RegisterPurchase(context.Background(), domain.PurchaseCreateRequest{
		ProductID: "prd-missing",
		Qty:       1,
		UnitCost:  decimal.RequireFromString("1.00"),
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}

func TestBuildCartLinePricing(t *testing.T) {
	svc := newTestService()
	first := mustCreateProduct(t, svc, "PRC-100", "100.00", "50.0000", 10)
	second := mustCreateProduct(t, svc, "PRC-050", "50.00", "25.0000", 10)

	cart, err := svc.BuildCartLine(context.Background(), domain.Cart{}, domain.CartLineRequest{
		ProductID: first.ID, Qty: 2, DiscountPct: 10,
	})
	if err != nil {
		t.Fatalf("first cart line failed: %v", err)
	}
	cart, err = svc.BuildCartLine(context.Background(), cart, domain.CartLineRequest{
		ProductID: second.ID, Qty: 1, DiscountPct: 0,
	})
	if err != nil {
		t.Fatalf("second cart line failed: %v", err)
	}

	if len(cart.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Subtotal.StringFixed(2) != "180.00" {
		t.Fatalf("expected first subtotal 180.00, got %s", cart.Lines[0].Subtotal.StringFixed(2))
	}
	if cart.Lines[1].Subtotal.StringFixed(2) != "50.00" {
		t.Fatalf("expected second subtotal 50.00, got %s", cart.Lines[1].Subtotal.StringFixed(2))
	}
	if cart.Total().StringFixed(2) != "230.00" {
		t.Fatalf("expected total 230.00, got %s", cart.Total().StringFixed(2))
	}
}

func TestBuildCartLineRejectsUnknownDiscount(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "PRC-101", "10.00", "5.0000", 10)

	_, err := svc.BuildCartLine(context.Background(), domain.Cart{}, domain.CartLineRequest{
		ProductID: product.ID, Qty: 1, DiscountPct: 12,
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for discount 12, got %v", err)
	}
}

func TestBuildCartLineDoesNotMutateInput(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "PRC-102", "10.00", "5.0000", 10)

	original := domain.Cart{}
	withLine, err := svc.BuildCartLine(context.Background(), original, domain.CartLineRequest{
		ProductID: product.ID, Qty: 1, DiscountPct: 0,
	})
	if err != nil {
		t.Fatalf("cart line failed: %v", err)
	}
	if len(original.Lines) != 0 {
		t.Fatalf("input cart was mutated")
	}
	if len(withLine.Lines) != 1 {
		t.Fatalf("expected returned cart with 1 line, got %d", len(withLine.Lines))
	}
}

func TestCommitOrderDecrementsStock(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "ORD-100", "20.00", "10.0000", 8)

	order := mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: product.ID, Qty: 3, DiscountPct: 5},
	})

	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if order.Total.StringFixed(2) != "57.00" {
		t.Fatalf("expected total 57.00, got %s", order.Total.StringFixed(2))
	}

	updated, _ := svc.GetProduct(context.Background(), product.ID)
	if updated.StockQty != 5 {
		t.Fatalf("expected stock 5 after commit, got %d", updated.StockQty)
	}
}

func TestCommitOrderInsufficientStockRollsBack(t *testing.T) {
	svc := newTestService()
	ok := mustCreateProduct(t, svc, "ORD-101", "20.00", "10.0000", 10)
	short := mustCreateProduct(t, svc, "ORD-102", "30.00", "15.0000", 1)

	_, err := svc.CommitOrder(context.Background(), domain.OrderCreateRequest{
		PaymentMethod: domain.PaymentMethodPix,
		Lines: []domain.CartLineRequest{
			{ProductID: ok.ID, Qty: 2},
			{ProductID: short.ID, Qty: 5},
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	okAfter, _ := svc.GetProduct(context.Background(), ok.ID)
	shortAfter, _ := svc.GetProduct(context.Background(), short.ID)
	if okAfter.StockQty != 10 || shortAfter.StockQty != 1 {
		t.Fatalf("stock changed on failed order: %d, %d", okAfter.StockQty, shortAfter.StockQty)
	}

	orders, _ := svc.ListOrders(context.Background(), "", 10)
	if len(orders) != 0 {
		t.Fatalf("expected no stored orders, got %d", len(orders))
	}
}

func TestCommitOrderRejectsEmptyCartAndBadPayment(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "ORD-103", "20.00", "10.0000", 10)

	_, err := svc.CommitOrder(context.Background(), domain.OrderCreateRequest{
		PaymentMethod: domain.PaymentMethodCash,
	})
	if !errors.Is(err, store.ErrEmptyOrder) {
		t.Fatalf("expected empty order error, got %v", err)
	}

	_, err = svc.CommitOrder(context.Background(), domain.OrderCreateRequest{
		PaymentMethod: "check",
		Lines:         []domain.CartLineRequest{{ProductID: product.ID, Qty: 1}},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for payment method, got %v", err)
	}
}

func TestCommitOrderRejectsUnknownCustomer(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "ORD-104", "20.00", "10.0000", 10)

	_, err := svc.CommitOrder(context.Background(), domain.OrderCreateRequest{
		CustomerID:    "cus-missing",
		PaymentMethod: domain.PaymentMethodCash,
		Lines:         []domain.CartLineRequest{{ProductID: product.ID, Qty: 2}},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for unknown customer, got %v", err)
	}

	after, err := svc.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if after.StockQty != 10 {
		t.Fatalf("expected stock untouched after rejected order, got %d", after.StockQty)
	}

	customer, err := svc.CreateCustomer(context.Background(), domain.Customer{Name: "João"})
	if err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	order, err := svc.CommitOrder(context.Background(), domain.OrderCreateRequest{
		CustomerID:    customer.ID,
		PaymentMethod: domain.PaymentMethodCash,
		Lines:         []domain.CartLineRequest{{ProductID: product.ID, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("commit with known customer failed: %v", err)
	}
	if order.CustomerID != customer.ID {
		t.Fatalf("expected customer %s on order, got %s", customer.ID, order.CustomerID)
	}
}

func TestTransitionOrdersIsIdempotent(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "TRN-100", "20.00", "10.0000", 10)
	order := mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: product.ID, Qty: 1},
	})

	first, err := svc.TransitionOrders(context.Background(), domain.OrderTransitionRequest{
		OrderIDs: []string{order.ID, "ord-unknown"},
		Target:   domain.OrderStatusCompleted,
	})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if len(first.Moved) != 1 || len(first.Skipped) != 1 {
		t.Fatalf("expected 1 moved and 1 skipped, got %d/%d", len(first.Moved), len(first.Skipped))
	}

	second, err := svc.TransitionOrders(context.Background(), domain.OrderTransitionRequest{
		OrderIDs: []string{order.ID, "ord-unknown"},
		Target:   domain.OrderStatusCompleted,
	})
	if err != nil {
		t.Fatalf("second transition failed: %v", err)
	}
	if len(second.Moved) != 0 || len(second.Skipped) != 2 {
		t.Fatalf("expected rerun to move nothing, got %d/%d", len(second.Moved), len(second.Skipped))
	}
}

func TestTransitionOrdersDuplicateIDMovesOnce(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "TRN-103", "20.00", "10.0000", 10)
	order := mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: product.ID, Qty: 1},
	})

	result, err := svc.TransitionOrders(context.Background(), domain.OrderTransitionRequest{
		OrderIDs: []string{order.ID, order.ID},
		Target:   domain.OrderStatusCompleted,
	})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if len(result.Moved) != 1 || len(result.Skipped) != 1 {
		t.Fatalf("expected duplicate id to move once and skip once, got %d/%d", len(result.Moved), len(result.Skipped))
	}

	got, err := svc.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != domain.OrderStatusCompleted {
		t.Fatalf("expected completed status, got %s", got.Status)
	}
}

func TestCancelDoesNotRestockByDefault(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "TRN-101", "20.00", "10.0000", 10)
	order := mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: product.ID, Qty: 4},
	})

	_, err := svc.TransitionOrders(context.Background(), domain.OrderTransitionRequest{
		OrderIDs: []string{order.ID},
		Target:   domain.OrderStatusCancelled,
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	updated, _ := svc.GetProduct(context.Background(), product.ID)
	if updated.StockQty != 6 {
		t.Fatalf("expected stock to stay at 6 after cancel, got %d", updated.StockQty)
	}
}

func TestCancelRestocksWhenPolicyEnabled(t *testing.T) {
	svc := newTestServiceWithRestock()
	product := mustCreateProduct(t, svc, "TRN-102", "20.00", "10.0000", 10)
	order := mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: product.ID, Qty: 4},
	})

	_, err := svc.TransitionOrders(context.Background(), domain.OrderTransitionRequest{
		OrderIDs: []string{order.ID},
		Target:   domain.OrderStatusCancelled,
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	updated, _ := svc.GetProduct(context.Background(), product.ID)
	if updated.StockQty != 10 {
		t.Fatalf("expected stock restored to 10, got %d", updated.StockQty)
	}
}

func TestTransitionRejectsBadTarget(t *testing.T) {
	svc := newTestService()

	_, err := svc.TransitionOrders(context.Background(), domain.OrderTransitionRequest{
		OrderIDs: []string{"ord-any"},
		Target:   domain.OrderStatusPending,
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func completeOrder(t *testing.T, svc *Service, orderID string) {
	t.Helper()
	_, err := svc.TransitionOrders(context.Background(), domain.OrderTransitionRequest{
		OrderIDs: []string{orderID},
		Target:   domain.OrderStatusCompleted,
	})
	if err != nil {
		t.Fatalf("complete order failed: %v", err)
	}
}

func TestRegisterReturnRestocksNewCondition(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "RET-100", "20.00", "10.0000", 10)
	order := mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: product.ID, Qty: 3},
	})
	completeOrder(t, svc, order.ID)

	ret, err := svc.RegisterReturn(context.Background(), domain.ReturnCreateRequest{
		OrderID:   order.ID,
		ProductID: product.ID,
		Qty:       2,
		Condition: domain.ReturnConditionNew,
		Reason:    "cliente desistiu",
	})
	if err != nil {
		t.Fatalf("register return failed: %v", err)
	}
	if !ret.Restocked {
		t.Fatalf("expected new condition to restock")
	}

	updated, _ := svc.GetProduct(context.Background(), product.ID)
	if updated.StockQty != 9 {
		t.Fatalf("expected stock 9 after restock, got %d", updated.StockQty)
	}
}

func TestRegisterReturnDamagedSkipsRestock(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "RET-101", "20.00", "10.0000", 10)
	order := mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: product.ID, Qty: 3},
	})
	completeOrder(t, svc, order.ID)

	ret, err := svc.RegisterReturn(context.Background(), domain.ReturnCreateRequest{
		OrderID:   order.ID,
		ProductID: product.ID,
		Qty:       1,
		Condition: domain.ReturnConditionDamaged,
	})
	if err != nil {
		t.Fatalf("register return failed: %v", err)
	}
	if ret.Restocked {
		t.Fatalf("expected damaged condition to skip restock")
	}

	updated, _ := svc.GetProduct(context.Background(), product.ID)
	if updated.StockQty != 7 {
		t.Fatalf("expected stock to stay at 7, got %d", updated.StockQty)
	}
}

func TestRegisterReturnHonorsRestockOverride(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "RET-102", "20.00", "10.0000", 10)
	order := mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: product.ID, Qty: 2},
	})
	completeOrder(t, svc, order.ID)

	restock := true
	ret, err := svc.RegisterReturn(context.Background(), domain.ReturnCreateRequest{
		OrderID:   order.ID,
		ProductID: product.ID,
		Qty:       1,
		Condition: domain.ReturnConditionDamaged,
		Restock:   &restock,
	})
	if err != nil {
		t.Fatalf("register return failed: %v", err)
	}
	if !ret.Restocked {
		t.Fatalf("expected override to force restock")
	}
}

func TestRegisterReturnOverReturnGuard(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "RET-103", "20.00", "10.0000", 10)
	order := mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: product.ID, Qty: 3},
	})
	completeOrder(t, svc, order.ID)

	_, err := svc.RegisterReturn(context.Background(), domain.ReturnCreateRequest{
		OrderID:   order.ID,
		ProductID: product.ID,
		Qty:       3,
		Condition: domain.ReturnConditionNew,
	})
	if err != nil {
		t.Fatalf("returning exactly the sold qty should pass: %v", err)
	}

	_, err = svc.RegisterReturn(context.Background(), domain.ReturnCreateRequest{
		OrderID:   order.ID,
		ProductID: product.ID,
		Qty:       1,
		Condition: domain.ReturnConditionNew,
	})
	if !errors.Is(err, store.ErrOverReturn) {
		t.Fatalf("expected over-return error, got %v", err)
	}
}

func TestRegisterReturnRequiresCompletedOrder(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "RET-104", "20.00", "10.0000", 10)
	order := mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: product.ID, Qty: 1},
	})

	_, err := svc.RegisterReturn(context.Background(), domain.ReturnCreateRequest{
		OrderID:   order.ID,
		ProductID: product.ID,
		Qty:       1,
		Condition: domain.ReturnConditionNew,
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for pending order, got %v", err)
	}
}

func TestRegisterReturnUnknownProductOnOrder(t *testing.T) {
	svc := newTestService()
	sold := mustCreateProduct(t, svc, "RET-105", "20.00", "10.0000", 10)
	other := mustCreateProduct(t, svc, "RET-106", "20.00", "10.0000", 10)
	order := mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: sold.ID, Qty: 1},
	})
	completeOrder(t, svc, order.ID)

	_, err := svc.RegisterReturn(context.Background(), domain.ReturnCreateRequest{
		OrderID:   order.ID,
		ProductID: other.ID,
		Qty:       1,
		Condition: domain.ReturnConditionNew,
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for product missing from order, got %v", err)
	}
}

func TestBuildCouponIsDeterministic(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "CUP-100", "35.50", "20.0000", 10)
	order := mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: product.ID, Qty: 2, DiscountPct: 10},
	})

	first, err := svc.BuildCoupon(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("first coupon failed: %v", err)
	}
	second, err := svc.BuildCoupon(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("second coupon failed: %v", err)
	}
	if first.Text != second.Text {
		t.Fatalf("coupon reprints differ")
	}
	if first.Text == "" {
		t.Fatalf("coupon text is empty")
	}

	_, err = svc.BuildCoupon(context.Background(), "ord-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for unknown order, got %v", err)
	}
}

func TestBuildCouponAlignsMultibyteText(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "CUP-101", "35.50", "20.0000", 10)
	order := mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: product.ID, Qty: 1},
	})

	coupon, err := svc.BuildCoupon(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("coupon failed: %v", err)
	}

	lines := strings.Split(coupon.Text, "\n")
	// "AUTOPEÇAS JACARÉ" and "CUPOM NÃO FISCAL" are both 16 runes, so
	// centering on a 40-column slip leaves 12 leading spaces.
	if lines[0] != strings.Repeat(" ", 12)+"AUTOPEÇAS JACARÉ" {
		t.Fatalf("shop name not centered by rune count: %q", lines[0])
	}
	if lines[1] != strings.Repeat(" ", 12)+"CUPOM NÃO FISCAL" {
		t.Fatalf("header not centered by rune count: %q", lines[1])
	}
	for i, line := range lines {
		if utf8.RuneCountInString(line) > 40 {
			t.Fatalf("line %d exceeds 40 columns: %q", i, line)
		}
	}
}

func TestBuildQuoteHTML(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "QUO-100", "99.90", "60.0000", 10)

	cart, err := svc.BuildCartLine(context.Background(), domain.Cart{}, domain.CartLineRequest{
		ProductID: product.ID, Qty: 1, DiscountPct: 5,
	})
	if err != nil {
		t.Fatalf("cart line failed: %v", err)
	}

	html, err := svc.BuildQuoteHTML(context.Background(), cart, "Maria")
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if html == "" {
		t.Fatalf("quote html is empty")
	}

	_, err = svc.BuildQuoteHTML(context.Background(), domain.Cart{}, "")
	if !errors.Is(err, store.ErrEmptyOrder) {
		t.Fatalf("expected empty order error for empty cart, got %v", err)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	svc := newTestService()

	expense, err := svc.CreateExpense(context.Background(), domain.ExpenseCreateRequest{
		Type:   domain.ExpenseTypeRent,
		Amount: decimal.RequireFromString("1500.00"),
		DueAt:  time.Now().UTC().AddDate(0, 0, 7),
	})
	if err != nil {
		t.Fatalf("create expense failed: %v", err)
	}
	if expense.Status != domain.ExpenseStatusPending {
		t.Fatalf("expected pending expense, got %s", expense.Status)
	}

	paid, err := svc.PayExpense(context.Background(), expense.ID)
	if err != nil {
		t.Fatalf("pay expense failed: %v", err)
	}
	if paid.Status != domain.ExpenseStatusPaid || paid.PaidAt == nil {
		t.Fatalf("expected paid expense with PaidAt set")
	}

	_, err = svc.PayExpense(context.Background(), expense.ID)
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error on double pay, got %v", err)
	}

	_, err = svc.CreateExpense(context.Background(), domain.ExpenseCreateRequest{
		Type:   "vacation",
		Amount: decimal.RequireFromString("10.00"),
		DueAt:  time.Now().UTC(),
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for unknown type, got %v", err)
	}
}

func TestStockReportTotals(t *testing.T) {
	svc := newTestService()
	mustCreateProduct(t, svc, "REP-100", "10.00", "4.0000", 10)
	mustCreateProduct(t, svc, "REP-101", "20.00", "2.5000", 4)

	rep, err := svc.StockReport(context.Background())
	if err != nil {
		t.Fatalf("stock report failed: %v", err)
	}
	if len(rep.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rep.Rows))
	}
	if rep.TotalStockValue.StringFixed(2) != "50.00" {
		t.Fatalf("expected total stock value 50.00, got %s", rep.TotalStockValue.StringFixed(2))
	}
}

func TestSalesSummaryCountsCompletedOnly(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "SUM-100", "100.00", "50.0000", 20)

	completed := mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: product.ID, Qty: 2, DiscountPct: 10},
	})
	completeOrder(t, svc, completed.ID)
	mustCommitOrder(t, svc, []domain.CartLineRequest{
		{ProductID: product.ID, Qty: 1},
	})

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)
	summary, err := svc.SalesSummary(context.Background(), from, to)
	if err != nil {
		t.Fatalf("sales summary failed: %v", err)
	}
	if summary.OrderCount != 1 {
		t.Fatalf("expected 1 completed order, got %d", summary.OrderCount)
	}
	if summary.GrossTotal.StringFixed(2) != "180.00" {
		t.Fatalf("expected gross 180.00, got %s", summary.GrossTotal.StringFixed(2))
	}
	if summary.DiscountTotal.StringFixed(2) != "20.00" {
		t.Fatalf("expected discount 20.00, got %s", summary.DiscountTotal.StringFixed(2))
	}
}

func TestSearchAndLowStock(t *testing.T) {
	svc := newTestService()
	mustCreateProduct(t, svc, "SRC-100", "10.00", "5.0000", 0)
	mustCreateProduct(t, svc, "SRC-101", "10.00", "5.0000", 50)

	found, err := svc.SearchProducts(context.Background(), "src-100", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 match, got %d", len(found))
	}

	_, err = svc.SearchProducts(context.Background(), "  ", 10)
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for blank query, got %v", err)
	}

	low, err := svc.ListLowStock(context.Background())
	if err != nil {
		t.Fatalf("low stock failed: %v", err)
	}
	if len(low) != 1 || low[0].SKU != "SRC-100" {
		t.Fatalf("expected only SRC-100 below minimum, got %d", len(low))
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateProduct(context.Background(), domain.ProductCreateRequest{
		SKU:         "",
		Description: "sem sku",
		SalePrice:   decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for missing sku, got %v", err)
	}

	mustCreateProduct(t, svc, "DUP-100", "10.00", "5.0000", 1)
	_, err = svc.CreateProduct(context.Background(), domain.ProductCreateRequest{
		SKU:         "dup-100",
		Description: "duplicado",
		SalePrice:   decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for duplicate sku, got %v", err)
	}
}

func TestDeactivatedProductLeavesCartAndOrders(t *testing.T) {
	svc := newTestService()
	product := mustCreateProduct(t, svc, "DEA-100", "10.00", "5.0000", 10)

	if err := svc.DeactivateProduct(context.Background(), product.ID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	_, err := svc.BuildCartLine(context.Background(), domain.Cart{}, domain.CartLineRequest{
		ProductID: product.ID, Qty: 1,
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for deactivated product in cart, got %v", err)
	}

	_, err = svc.CommitOrder(context.Background(), domain.OrderCreateRequest{
		PaymentMethod: domain.PaymentMethodCash,
		Lines:         []domain.CartLineRequest{{ProductID: product.ID, Qty: 1}},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for deactivated product in order, got %v", err)
	}
}
