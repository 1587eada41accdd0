package store

import (
	"context"
	"errors"
	"time"

	"jacareparts/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOverReturn        = errors.New("return exceeds sold quantity")
	ErrEmptyOrder        = errors.New("order has no lines")
)

type Repository interface {
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)

	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	GetSupplierByID(ctx context.Context, id string) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)

	CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)

	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
	ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeactivateProduct(ctx context.Context, id string, at time.Time) error
	SearchProducts(ctx context.Context, query string, limit int) ([]domain.Product, error)
	ListLowStock(ctx context.Context) ([]domain.Product, error)

	// ApplyReceipt stores the receipt and folds it into the product's stock
	// and weighted-average cost in one transaction.
	ApplyReceipt(ctx context.Context, receipt domain.PurchaseReceipt) (*domain.PurchaseReceipt, error)
	ListPurchaseHistory(ctx context.Context, productID string, limit int) ([]domain.PurchaseHistoryEntry, error)

	// CreateOrder stores the header and lines and decrements stock per line.
	// Any line short on stock fails the whole order with ErrInsufficientStock.
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, status string, limit int) ([]domain.Order, error)
	// TransitionOrders moves pending orders to the target status. Ids that are
	// no longer pending (or unknown) are reported as skipped, never an error.
	TransitionOrders(ctx context.Context, ids []string, target string, restockOnCancel bool, at time.Time) (*domain.TransitionResult, error)

	// CreateReturn verifies the order is completed, the product is on it and
	// the cumulative returned qty stays within the sold qty, then stores the
	// return and restocks when asked, all in one transaction.
	CreateReturn(ctx context.Context, ret domain.Return) (*domain.Return, error)
	GetReturnedQty(ctx context.Context, orderID string, productID string) (int, error)
	ListReturns(ctx context.Context, orderID string, limit int) ([]domain.Return, error)

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context, status string) ([]domain.Expense, error)
	PayExpense(ctx context.Context, id string, paidAt time.Time) (*domain.Expense, error)

	GetSalesSummary(ctx context.Context, from time.Time, to time.Time) (*domain.SalesSummary, error)
	GetExpenseSummary(ctx context.Context, from time.Time, to time.Time) (*domain.ExpenseSummary, error)
}
