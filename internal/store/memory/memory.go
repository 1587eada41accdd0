// Package memory keeps the whole repository in process memory. It backs the
// unit tests and lets the server run without Postgres.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"jacareparts/backend/internal/domain"
	"jacareparts/backend/internal/store"
)

type Store struct {
	mu sync.RWMutex

	customers  map[string]domain.Customer
	suppliers  map[string]domain.Supplier
	categories map[string]domain.Category
	products   map[string]domain.Product
	receipts   map[string]domain.PurchaseReceipt
	orders     map[string]domain.Order
	returns    map[string]domain.Return
	expenses   map[string]domain.Expense
}

func New() *Store {
	return &Store{
		customers:  make(map[string]domain.Customer),
		suppliers:  make(map[string]domain.Supplier),
		categories: make(map[string]domain.Category),
		products:   make(map[string]domain.Product),
		receipts:   make(map[string]domain.PurchaseReceipt),
		orders:     make(map[string]domain.Order),
		returns:    make(map[string]domain.Return),
		expenses:   make(map[string]domain.Expense),
	}
}

// NewSeeded returns a store with a small parts catalog so the server is
// usable out of the box.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	catEngine := domain.Category{ID: "cat-engine", Name: "Motor"}
	catBrakes := domain.Category{ID: "cat-brakes", Name: "Freios"}
	catElectric := domain.Category{ID: "cat-electric", Name: "Elétrica"}
	s.categories[catEngine.ID] = catEngine
	s.categories[catBrakes.ID] = catBrakes
	s.categories[catElectric.ID] = catElectric

	sup := domain.Supplier{
		ID:            "sup-moto-distrib",
		TradeName:     "Moto Distribuidora Ltda",
		TaxID:         "12.345.678/0001-90",
		Phone:         "11 4002-8922",
		ContactPerson: "Carlos",
		CreatedAt:     now,
	}
	s.suppliers[sup.ID] = sup

	cust := domain.Customer{
		ID:        "cus-walkin",
		Name:      "Balcão",
		CreatedAt: now,
	}
	s.customers[cust.ID] = cust

	seedProducts := []domain.Product{
		{
			ID: "prd-oil-filter", SKU: "FLT-001", Description: "Filtro de óleo CB 300",
			Brand: "Vedamotors", CostPrice: decimal.RequireFromString("12.5000"),
			SalePrice: decimal.RequireFromString("29.90"), StockQty: 24, MinStockQty: 5,
			CategoryID: catEngine.ID, SupplierID: sup.ID, BikeModel: "CB 300", BikeYear: "2015",
			Active: true, CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "prd-brake-pad", SKU: "FRE-010", Description: "Pastilha de freio dianteira Titan 160",
			Brand: "Cobreq", CostPrice: decimal.RequireFromString("18.0000"),
			SalePrice: decimal.RequireFromString("45.00"), StockQty: 12, MinStockQty: 4,
			CategoryID: catBrakes.ID, SupplierID: sup.ID, BikeModel: "Titan 160", BikeYear: "2020",
			Active: true, CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "prd-spark-plug", SKU: "ELE-022", Description: "Vela de ignição NGK CPR8EA-9",
			Brand: "NGK", CostPrice: decimal.RequireFromString("9.2000"),
			SalePrice: decimal.RequireFromString("22.50"), StockQty: 40, MinStockQty: 10,
			CategoryID: catElectric.ID, SupplierID: sup.ID,
			Active: true, CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "prd-chain-kit", SKU: "TRA-015", Description: "Kit relação Fazer 250",
			Brand: "Vaz", CostPrice: decimal.RequireFromString("95.0000"),
			SalePrice: decimal.RequireFromString("189.90"), StockQty: 3, MinStockQty: 5,
			CategoryID: catEngine.ID, SupplierID: sup.ID, BikeModel: "Fazer 250", BikeYear: "2018",
			Active: true, CreatedAt: now, UpdatedAt: now,
		},
	}
	for _, p := range seedProducts {
		s.products[p.ID] = p
	}

	return s
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.customers[customer.ID] = customer
	out := customer
	return &out, nil
}

func (s *Store) GetCustomerByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := customer
	return &out, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.Customer) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.suppliers[supplier.ID] = supplier
	out := supplier
	return &out, nil
}

func (s *Store) GetSupplierByID(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, ok := s.suppliers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := supplier
	return &out, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		out = append(out, sup)
	}
	slices.SortFunc(out, func(a, b domain.Supplier) int {
		return strings.Compare(a.TradeName, b.TradeName)
	})
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if strings.EqualFold(existing.Name, category.Name) {
			return nil, store.ErrValidation
		}
	}
	s.categories[category.ID] = category
	out := category
	return &out, nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.Category) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.products {
		if strings.EqualFold(existing.SKU, product.SKU) {
			return nil, store.ErrValidation
		}
	}
	s.products[product.ID] = product
	out := product
	return &out, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := product
	return &out, nil
}

func (s *Store) GetProductBySKU(_ context.Context, sku string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, product := range s.products {
		if strings.EqualFold(product.SKU, sku) {
			out := product
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListProducts(_ context.Context, includeInactive bool) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !includeInactive && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sortProducts(out)
	return out, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return nil, store.ErrNotFound
	}

	existing.Description = product.Description
	existing.Brand = product.Brand
	existing.SalePrice = product.SalePrice
	existing.MinStockQty = product.MinStockQty
	existing.CategoryID = product.CategoryID
	existing.SupplierID = product.SupplierID
	existing.BikeModel = product.BikeModel
	existing.BikeYear = product.BikeYear
	existing.UpdatedAt = product.UpdatedAt
	s.products[product.ID] = existing

	out := existing
	return &out, nil
}

func (s *Store) DeactivateProduct(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok {
		return store.ErrNotFound
	}
	product.Active = false
	product.UpdatedAt = at
	s.products[id] = product
	return nil
}

func (s *Store) SearchProducts(_ context.Context, query string, limit int) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Product, 0)
	for _, p := range s.products {
		if !p.Active {
			continue
		}
		haystack := strings.ToLower(p.Description + " " + p.SKU + " " + p.Brand)
		if strings.Contains(haystack, needle) {
			out = append(out, p)
		}
	}
	sortProducts(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListLowStock(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0)
	for _, p := range s.products {
		if p.Active && p.StockQty <= p.MinStockQty {
			out = append(out, p)
		}
	}
	sortProducts(out)
	return out, nil
}

func (s *Store) ApplyReceipt(_ context.Context, receipt domain.PurchaseReceipt) (*domain.PurchaseReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[receipt.ProductID]
	if !ok {
		return nil, store.ErrNotFound
	}

	oldQty := decimal.NewFromInt(int64(product.StockQty))
	addQty := decimal.NewFromInt(int64(receipt.Qty))
	newQty := oldQty.Add(addQty)
	if newQty.IsZero() {
		product.CostPrice = receipt.UnitCost.Round(4)
	} else {
		total := oldQty.Mul(product.CostPrice).Add(addQty.Mul(receipt.UnitCost))
		product.CostPrice = total.Div(newQty).Round(4)
	}
	product.StockQty += receipt.Qty
	product.UpdatedAt = receipt.CreatedAt
	s.products[product.ID] = product

	s.receipts[receipt.ID] = receipt
	out := receipt
	return &out, nil
}

func (s *Store) ListPurchaseHistory(_ context.Context, productID string, limit int) ([]domain.PurchaseHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PurchaseHistoryEntry, 0, len(s.receipts))
	for _, r := range s.receipts {
		if productID != "" && r.ProductID != productID {
			continue
		}
		entry := domain.PurchaseHistoryEntry{Receipt: r}
		if p, ok := s.products[r.ProductID]; ok {
			entry.ProductSKU = p.SKU
			entry.ProductDescription = p.Description
		}
		if sup, ok := s.suppliers[r.SupplierID]; ok {
			entry.SupplierTradeName = sup.TradeName
		}
		out = append(out, entry)
	}
	slices.SortFunc(out, func(a, b domain.PurchaseHistoryEntry) int {
		return b.Receipt.ReceivedAt.Compare(a.Receipt.ReceivedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(order.Lines) == 0 {
		return nil, store.ErrEmptyOrder
	}
	if order.CustomerID != "" {
		if _, ok := s.customers[order.CustomerID]; !ok {
			return nil, store.ErrNotFound
		}
	}

	// Check every line before touching stock so a late failure cannot leave
	// a partial decrement behind.
	needed := make(map[string]int)
	for _, line := range order.Lines {
		needed[line.ProductID] += line.Qty
	}
	for productID, qty := range needed {
		product, ok := s.products[productID]
		if !ok {
			return nil, store.ErrNotFound
		}
		if product.StockQty < qty {
			return nil, store.ErrInsufficientStock
		}
	}

	for productID, qty := range needed {
		product := s.products[productID]
		product.StockQty -= qty
		product.UpdatedAt = order.CreatedAt
		s.products[productID] = product
	}

	s.orders[order.ID] = cloneOrder(order)
	out := cloneOrder(order)
	return &out, nil
}

func (s *Store) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneOrder(order)
	return &out, nil
}

func (s *Store) ListOrders(_ context.Context, status string, limit int) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	slices.SortFunc(out, func(a, b domain.Order) int {
		return b.PlacedAt.Compare(a.PlacedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) TransitionOrders(_ context.Context, ids []string, target string, restockOnCancel bool, at time.Time) (*domain.TransitionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := domain.TransitionResult{Moved: []string{}, Skipped: []string{}}
	for _, id := range ids {
		order, ok := s.orders[id]
		if !ok || order.Status != domain.OrderStatusPending {
			result.Skipped = append(result.Skipped, id)
			continue
		}

		order.Status = target
		s.orders[id] = order
		result.Moved = append(result.Moved, id)

		if target == domain.OrderStatusCancelled && restockOnCancel {
			for _, line := range order.Lines {
				if product, ok := s.products[line.ProductID]; ok {
					product.StockQty += line.Qty
					product.UpdatedAt = at
					s.products[line.ProductID] = product
				}
			}
		}
	}
	return &result, nil
}

func (s *Store) CreateReturn(_ context.Context, ret domain.Return) (*domain.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[ret.OrderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if order.Status != domain.OrderStatusCompleted {
		return nil, store.ErrValidation
	}

	sold := 0
	for _, line := range order.Lines {
		if line.ProductID == ret.ProductID {
			sold += line.Qty
		}
	}
	if sold == 0 {
		return nil, store.ErrNotFound
	}

	returned := s.returnedQtyLocked(ret.OrderID, ret.ProductID)
	if returned+ret.Qty > sold {
		return nil, store.ErrOverReturn
	}

	if ret.Restocked {
		product, ok := s.products[ret.ProductID]
		if !ok {
			return nil, store.ErrNotFound
		}
		product.StockQty += ret.Qty
		product.UpdatedAt = ret.ReturnedAt
		s.products[ret.ProductID] = product
	}

	s.returns[ret.ID] = ret
	out := ret
	return &out, nil
}

func (s *Store) GetReturnedQty(_ context.Context, orderID string, productID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.returnedQtyLocked(orderID, productID), nil
}

func (s *Store) ListReturns(_ context.Context, orderID string, limit int) ([]domain.Return, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Return, 0, len(s.returns))
	for _, r := range s.returns {
		if orderID != "" && r.OrderID != orderID {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b domain.Return) int {
		return b.ReturnedAt.Compare(a.ReturnedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expenses[expense.ID] = expense
	out := expense
	return &out, nil
}

func (s *Store) ListExpenses(_ context.Context, status string) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b domain.Expense) int {
		return a.DueAt.Compare(b.DueAt)
	})
	return out, nil
}

func (s *Store) PayExpense(_ context.Context, id string, paidAt time.Time) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expense, ok := s.expenses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if expense.Status != domain.ExpenseStatusPending {
		return nil, store.ErrValidation
	}

	expense.Status = domain.ExpenseStatusPaid
	at := paidAt
	expense.PaidAt = &at
	s.expenses[id] = expense

	out := expense
	return &out, nil
}

func (s *Store) GetSalesSummary(_ context.Context, from time.Time, to time.Time) (*domain.SalesSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.SalesSummary{From: from, To: to, GrossTotal: decimal.Zero, DiscountTotal: decimal.Zero}
	for _, o := range s.orders {
		if o.Status != domain.OrderStatusCompleted {
			continue
		}
		if o.PlacedAt.Before(from) || o.PlacedAt.After(to) {
			continue
		}
		summary.OrderCount++
		summary.GrossTotal = summary.GrossTotal.Add(o.Total)
		for _, line := range o.Lines {
			discount := line.UnitPrice.
				Mul(decimal.NewFromInt(int64(line.Qty))).
				Mul(decimal.NewFromInt(int64(line.DiscountPct))).
				Div(decimal.NewFromInt(100))
			summary.DiscountTotal = summary.DiscountTotal.Add(discount)
		}
	}
	summary.GrossTotal = summary.GrossTotal.Round(2)
	summary.DiscountTotal = summary.DiscountTotal.Round(2)
	return &summary, nil
}

func (s *Store) GetExpenseSummary(_ context.Context, from time.Time, to time.Time) (*domain.ExpenseSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.ExpenseSummary{
		From: from, To: to,
		PendingTotal: decimal.Zero,
		PaidTotal:    decimal.Zero,
		ByType:       make(map[string]decimal.Decimal),
	}
	for _, e := range s.expenses {
		if e.DueAt.Before(from) || e.DueAt.After(to) {
			continue
		}
		switch e.Status {
		case domain.ExpenseStatusPending:
			summary.PendingTotal = summary.PendingTotal.Add(e.Amount)
		case domain.ExpenseStatusPaid:
			summary.PaidTotal = summary.PaidTotal.Add(e.Amount)
		}
		current, ok := summary.ByType[e.Type]
		if !ok {
			current = decimal.Zero
		}
		summary.ByType[e.Type] = current.Add(e.Amount)
	}
	summary.PendingTotal = summary.PendingTotal.Round(2)
	summary.PaidTotal = summary.PaidTotal.Round(2)
	return &summary, nil
}

func (s *Store) returnedQtyLocked(orderID string, productID string) int {
	total := 0
	for _, r := range s.returns {
		if r.OrderID == orderID && r.ProductID == productID {
			total += r.Qty
		}
	}
	return total
}

func sortProducts(products []domain.Product) {
	slices.SortFunc(products, func(a, b domain.Product) int {
		return strings.Compare(a.Description, b.Description)
	})
}

func cloneOrder(order domain.Order) domain.Order {
	out := order
	out.Lines = slices.Clone(order.Lines)
	return out
}
