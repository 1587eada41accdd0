// Package service holds the business rules: catalog upkeep, the stock
// ledger, the sales order workflow, returns and expenses. Persistence and
// transport stay out.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"jacareparts/backend/internal/cache"
	"jacareparts/backend/internal/domain"
	"jacareparts/backend/internal/store"
	"jacareparts/backend/internal/xid"
)

const productCacheKey = "products"

type Options struct {
	ShopName        string
	CatalogCacheTTL time.Duration
	RestockOnCancel bool
}

type Service struct {
	repo            store.Repository
	cache           cache.ProductCache
	log             *logrus.Logger
	shopName        string
	catalogTTL      time.Duration
	restockOnCancel bool
}

func New(repo store.Repository, productCache cache.ProductCache, logger *logrus.Logger, opts Options) *Service {
	if opts.CatalogCacheTTL <= 0 {
		opts.CatalogCacheTTL = 30 * time.Second
	}
	if opts.ShopName == "" {
		opts.ShopName = "AUTOPEÇAS JACARÉ"
	}
	return &Service{
		repo:            repo,
		cache:           productCache,
		log:             logger,
		shopName:        opts.ShopName,
		catalogTTL:      opts.CatalogCacheTTL,
		restockOnCancel: opts.RestockOnCancel,
	}
}

func (s *Service) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	customer.Name = strings.TrimSpace(customer.Name)
	if customer.Name == "" {
		return nil, store.ErrValidation
	}

	customer.ID = xid.New("cus")
	customer.CreatedAt = time.Now().UTC()
	return s.repo.CreateCustomer(ctx, customer)
}

func (s *Service) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	if strings.TrimSpace(id) == "" {
		return nil, store.ErrValidation
	}
	return s.repo.GetCustomerByID(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.TradeName = strings.TrimSpace(supplier.TradeName)
	if supplier.TradeName == "" {
		return nil, store.ErrValidation
	}

	supplier.ID = xid.New("sup")
	supplier.CreatedAt = time.Now().UTC()
	return s.repo.CreateSupplier(ctx, supplier)
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return nil, store.ErrValidation
	}

	category.ID = xid.New("cat")
	return s.repo.CreateCategory(ctx, category)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Description = strings.TrimSpace(req.Description)
	if req.SKU == "" || req.Description == "" {
		return nil, store.ErrValidation
	}
	if !req.SalePrice.IsPositive() || req.CostPrice.IsNegative() {
		return nil, store.ErrValidation
	}
	if req.StockQty < 0 || req.MinStockQty < 0 {
		return nil, store.ErrValidation
	}
	if _, err := s.repo.GetProductBySKU(ctx, req.SKU); err == nil {
		return nil, store.ErrValidation
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:          xid.New("prd"),
		SKU:         req.SKU,
		Description: req.Description,
		Brand:       strings.TrimSpace(req.Brand),
		CostPrice:   req.CostPrice.Round(4),
		SalePrice:   req.SalePrice.Round(2),
		StockQty:    req.StockQty,
		MinStockQty: req.MinStockQty,
		CategoryID:  strings.TrimSpace(req.CategoryID),
		SupplierID:  strings.TrimSpace(req.SupplierID),
		BikeModel:   strings.TrimSpace(req.BikeModel),
		BikeYear:    strings.TrimSpace(req.BikeYear),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return created, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, store.ErrValidation
	}
	return s.repo.GetProductByID(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	if includeInactive {
		return s.repo.ListProducts(ctx, true)
	}

	cached, hit, err := s.cache.Get(ctx, productCacheKey)
	if err != nil {
		s.log.WithError(err).Warn("product cache read failed")
	}
	if hit {
		return cached, nil
	}

	products, err := s.repo.ListProducts(ctx, false)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, productCacheKey, products, s.catalogTTL); err != nil {
		s.log.WithError(err).Warn("product cache write failed")
	}
	return products, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (*domain.Product, error) {
	id = strings.TrimSpace(id)
	req.Description = strings.TrimSpace(req.Description)
	if id == "" || req.Description == "" {
		return nil, store.ErrValidation
	}
	if !req.SalePrice.IsPositive() || req.MinStockQty < 0 {
		return nil, store.ErrValidation
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Description = req.Description
	product.Brand = strings.TrimSpace(req.Brand)
	product.SalePrice = req.SalePrice.Round(2)
	product.MinStockQty = req.MinStockQty
	product.CategoryID = strings.TrimSpace(req.CategoryID)
	product.SupplierID = strings.TrimSpace(req.SupplierID)
	product.BikeModel = strings.TrimSpace(req.BikeModel)
	product.BikeYear = strings.TrimSpace(req.BikeYear)
	product.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.UpdateProduct(ctx, *product)
	if err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return updated, nil
}

func (s *Service) DeactivateProduct(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return store.ErrValidation
	}
	if err := s.repo.DeactivateProduct(ctx, id, time.Now().UTC()); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

func (s *Service) SearchProducts(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, store.ErrValidation
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.SearchProducts(ctx, query, limit)
}

func (s *Service) ListLowStock(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListLowStock(ctx)
}

func (s *Service) RegisterPurchase(ctx context.Context, req domain.PurchaseCreateRequest) (*domain.PurchaseReceipt, error) {
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" || req.Qty < 1 {
		return nil, store.ErrValidation
	}
	if req.UnitCost.IsNegative() {
		return nil, store.ErrValidation
	}

	now := time.Now().UTC()
	receivedAt := now
	if req.ReceivedAt != nil {
		receivedAt = req.ReceivedAt.UTC()
	}

	receipt := domain.PurchaseReceipt{
		ID:              xid.New("rcv"),
		ProductID:       req.ProductID,
		SupplierID:      strings.TrimSpace(req.SupplierID),
		ReceivedAt:      receivedAt,
		InvoiceIssuedAt: req.InvoiceIssuedAt,
		Qty:             req.Qty,
		UnitCost:        req.UnitCost.Round(4),
		InvoiceNumber:   strings.TrimSpace(req.InvoiceNumber),
		CreatedAt:       now,
	}

	created, err := s.repo.ApplyReceipt(ctx, receipt)
	if err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return created, nil
}

func (s *Service) ListPurchaseHistory(ctx context.Context, productID string, limit int) ([]domain.PurchaseHistoryEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return s.repo.ListPurchaseHistory(ctx, strings.TrimSpace(productID), limit)
}

// BuildCartLine prices one line and appends it to the cart. The stock check
// here is advisory; CommitOrder re-checks inside the transaction.
func (s *Service) BuildCartLine(ctx context.Context, cart domain.Cart, req domain.CartLineRequest) (domain.Cart, error) {
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" || req.Qty < 1 {
		return domain.Cart{}, store.ErrValidation
	}
	if !isAllowedDiscount(req.DiscountPct) {
		return domain.Cart{}, store.ErrValidation
	}

	product, err := s.repo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return domain.Cart{}, err
	}
	if !product.Active {
		return domain.Cart{}, store.ErrNotFound
	}
	if product.StockQty < req.Qty {
		return domain.Cart{}, store.ErrInsufficientStock
	}

	line := domain.CartLine{
		ProductID:   product.ID,
		SKU:         product.SKU,
		Description: product.Description,
		Qty:         req.Qty,
		UnitPrice:   product.SalePrice,
		DiscountPct: req.DiscountPct,
		Subtotal:    lineSubtotal(product.SalePrice, req.Qty, req.DiscountPct),
	}

	out := domain.Cart{Lines: make([]domain.CartLine, 0, len(cart.Lines)+1)}
	out.Lines = append(out.Lines, cart.Lines...)
	out.Lines = append(out.Lines, line)
	return out, nil
}

func (s *Service) CommitOrder(ctx context.Context, req domain.OrderCreateRequest) (*domain.Order, error) {
	if len(req.Lines) == 0 {
		return nil, store.ErrEmptyOrder
	}
	if !isValidPaymentMethod(req.PaymentMethod) {
		return nil, store.ErrValidation
	}
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID != "" {
		if _, err := s.repo.GetCustomerByID(ctx, customerID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	orderID := xid.New("ord")
	total := decimal.Zero
	lines := make([]domain.OrderLine, 0, len(req.Lines))
	for _, lineReq := range req.Lines {
		lineReq.ProductID = strings.TrimSpace(lineReq.ProductID)
		if lineReq.ProductID == "" || lineReq.Qty < 1 {
			return nil, store.ErrValidation
		}
		if !isAllowedDiscount(lineReq.DiscountPct) {
			return nil, store.ErrValidation
		}

		product, err := s.repo.GetProductByID(ctx, lineReq.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.Active {
			return nil, store.ErrNotFound
		}

		subtotal := lineSubtotal(product.SalePrice, lineReq.Qty, lineReq.DiscountPct)
		lines = append(lines, domain.OrderLine{
			ID:          xid.New("lin"),
			OrderID:     orderID,
			ProductID:   product.ID,
			Qty:         lineReq.Qty,
			UnitPrice:   product.SalePrice,
			DiscountPct: lineReq.DiscountPct,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}

	order := domain.Order{
		ID:            orderID,
		CustomerID:    customerID,
		PlacedAt:      now,
		Total:         total.Round(2),
		Status:        domain.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
		Lines:         lines,
		CreatedAt:     now,
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return created, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, store.ErrValidation
	}
	return s.repo.GetOrderByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, status string, limit int) ([]domain.Order, error) {
	status = strings.TrimSpace(status)
	if status != "" && !isValidOrderStatus(status) {
		return nil, store.ErrValidation
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return s.repo.ListOrders(ctx, status, limit)
}

// TransitionOrders moves pending orders to completed or cancelled. Rerunning
// the same request moves nothing and reports everything skipped.
func (s *Service) TransitionOrders(ctx context.Context, req domain.OrderTransitionRequest) (*domain.TransitionResult, error) {
	if len(req.OrderIDs) == 0 {
		return nil, store.ErrValidation
	}
	if req.Target != domain.OrderStatusCompleted && req.Target != domain.OrderStatusCancelled {
		return nil, store.ErrValidation
	}

	result, err := s.repo.TransitionOrders(ctx, req.OrderIDs, req.Target, s.restockOnCancel, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if req.Target == domain.OrderStatusCancelled && s.restockOnCancel && len(result.Moved) > 0 {
		s.invalidateCatalog(ctx)
	}
	return result, nil
}

func (s *Service) BuildCoupon(ctx context.Context, orderID string) (*domain.CouponDocument, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, store.ErrValidation
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	customerName := ""
	if order.CustomerID != "" {
		customer, err := s.repo.GetCustomerByID(ctx, order.CustomerID)
		if err == nil {
			customerName = customer.Name
		}
	}

	width := 40
	lines := []string{
		center(s.shopName, width),
		center("CUPOM NÃO FISCAL", width),
		strings.Repeat("=", width),
		"Pedido : " + order.ID,
		"Data   : " + order.PlacedAt.Format("02/01/2006 15:04"),
	}
	if customerName != "" {
		lines = append(lines, "Cliente: "+customerName)
	}
	lines = append(lines, strings.Repeat("-", width))
	for _, line := range order.Lines {
		description := line.ProductID
		if product, err := s.repo.GetProductByID(ctx, line.ProductID); err == nil {
			description = product.Description
		}
		lines = append(lines, truncate(description, width))
		detail := fmt.Sprintf("  %dx %s", line.Qty, line.UnitPrice.StringFixed(2))
		if line.DiscountPct > 0 {
			detail += fmt.Sprintf(" -%d%%", line.DiscountPct)
		}
		amount := line.Subtotal.StringFixed(2)
		lines = append(lines, detail+strings.Repeat(" ", maxInt(1, width-utf8.RuneCountInString(detail)-len(amount)))+amount)
	}
	totalLabel := "TOTAL"
	totalValue := order.Total.StringFixed(2)
	lines = append(lines,
		strings.Repeat("-", width),
		totalLabel+strings.Repeat(" ", maxInt(1, width-utf8.RuneCountInString(totalLabel)-len(totalValue)))+totalValue,
		"Pagamento: "+paymentMethodLabel(order.PaymentMethod),
		strings.Repeat("=", width),
		center("Obrigado e volte sempre!", width),
		"",
	)

	return &domain.CouponDocument{
		OrderID:  order.ID,
		Text:     strings.Join(lines, "\n"),
		FileName: fmt.Sprintf("cupom-%s.txt", order.ID),
	}, nil
}

// quoteHTMLTmpl renders a printable quote from a cart. User-controlled
// fields are auto-escaped by html/template.
var quoteHTMLTmpl = template.Must(template.New("quote").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Orçamento</title>
  <style>
    body { font-family: monospace; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    .num { text-align: right; }
    h2, h3 { margin-bottom: 4px; }
  </style>
</head>
<body>
  <h2>{{.ShopName}}</h2>
  <h3>Orçamento</h3>
  <p>Data: {{.Date}}</p>
  {{if .CustomerName}}<p>Cliente: {{.CustomerName}}</p>{{end}}
  <table>
    <thead><tr><th>Item</th><th>Qtd</th><th>Unitário</th><th>Desc.</th><th>Subtotal</th></tr></thead>
    <tbody>{{range .Lines}}<tr><td>{{.Description}}</td><td class="num">{{.Qty}}</td><td class="num">{{.UnitPrice}}</td><td class="num">{{.DiscountPct}}%</td><td class="num">{{.Subtotal}}</td></tr>{{end}}</tbody>
  </table>
  <h3>Total: {{.Total}}</h3>
  <p>Orçamento sem valor fiscal, válido por 7 dias.</p>
</body>
</html>
`))

func (s *Service) BuildQuoteHTML(ctx context.Context, cart domain.Cart, customerName string) (string, error) {
	if len(cart.Lines) == 0 {
		return "", store.ErrEmptyOrder
	}

	type quoteLine struct {
		Description string
		Qty         int
		UnitPrice   string
		DiscountPct int
		Subtotal    string
	}
	data := struct {
		ShopName     string
		Date         string
		CustomerName string
		Lines        []quoteLine
		Total        string
	}{
		ShopName:     s.shopName,
		Date:         time.Now().UTC().Format("02/01/2006"),
		CustomerName: strings.TrimSpace(customerName),
		Total:        cart.Total().StringFixed(2),
	}
	for _, line := range cart.Lines {
		data.Lines = append(data.Lines, quoteLine{
			Description: line.Description,
			Qty:         line.Qty,
			UnitPrice:   line.UnitPrice.StringFixed(2),
			DiscountPct: line.DiscountPct,
			Subtotal:    line.Subtotal.StringFixed(2),
		})
	}

	var buf bytes.Buffer
	if err := quoteHTMLTmpl.Execute(&buf, data); err != nil {
		s.log.WithError(err).Warn("quote rendering failed")
		return "", err
	}
	return buf.String(), nil
}

func (s *Service) RegisterReturn(ctx context.Context, req domain.ReturnCreateRequest) (*domain.Return, error) {
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.OrderID == "" || req.ProductID == "" || req.Qty < 1 {
		return nil, store.ErrValidation
	}
	req.Condition = strings.ToLower(strings.TrimSpace(req.Condition))
	if !isValidCondition(req.Condition) {
		return nil, store.ErrValidation
	}

	// Advisory pre-check so callers get a clean error before the store
	// re-validates inside its transaction.
	order, err := s.repo.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusCompleted {
		return nil, store.ErrValidation
	}
	sold := 0
	for _, line := range order.Lines {
		if line.ProductID == req.ProductID {
			sold += line.Qty
		}
	}
	if sold == 0 {
		return nil, store.ErrNotFound
	}
	returned, err := s.repo.GetReturnedQty(ctx, req.OrderID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if returned+req.Qty > sold {
		return nil, store.ErrOverReturn
	}

	restock := req.Condition == domain.ReturnConditionNew
	if req.Restock != nil {
		restock = *req.Restock
	}

	ret := domain.Return{
		ID:         xid.New("ret"),
		OrderID:    req.OrderID,
		ProductID:  req.ProductID,
		Qty:        req.Qty,
		Condition:  req.Condition,
		Restocked:  restock,
		Reason:     strings.TrimSpace(req.Reason),
		ReturnedAt: time.Now().UTC(),
	}

	created, err := s.repo.CreateReturn(ctx, ret)
	if err != nil {
		return nil, err
	}
	if created.Restocked {
		s.invalidateCatalog(ctx)
	}
	return created, nil
}

func (s *Service) ListReturns(ctx context.Context, orderID string, limit int) ([]domain.Return, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return s.repo.ListReturns(ctx, strings.TrimSpace(orderID), limit)
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (*domain.Expense, error) {
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	if !isValidExpenseType(req.Type) {
		return nil, store.ErrValidation
	}
	if !req.Amount.IsPositive() || req.DueAt.IsZero() {
		return nil, store.ErrValidation
	}

	expense := domain.Expense{
		ID:          xid.New("exp"),
		Type:        req.Type,
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount.Round(2),
		DueAt:       req.DueAt.UTC(),
		Status:      domain.ExpenseStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	return s.repo.CreateExpense(ctx, expense)
}

func (s *Service) ListExpenses(ctx context.Context, status string) ([]domain.Expense, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && status != domain.ExpenseStatusPending && status != domain.ExpenseStatusPaid {
		return nil, store.ErrValidation
	}
	return s.repo.ListExpenses(ctx, status)
}

func (s *Service) PayExpense(ctx context.Context, id string) (*domain.Expense, error) {
	if strings.TrimSpace(id) == "" {
		return nil, store.ErrValidation
	}
	return s.repo.PayExpense(ctx, id, time.Now().UTC())
}

func (s *Service) StockReport(ctx context.Context) (*domain.StockReport, error) {
	products, err := s.repo.ListProducts(ctx, false)
	if err != nil {
		return nil, err
	}

	report := domain.StockReport{
		Rows:            make([]domain.StockReportRow, 0, len(products)),
		TotalStockValue: decimal.Zero,
		GeneratedAt:     time.Now().UTC(),
	}
	for _, p := range products {
		value := p.CostPrice.Mul(decimal.NewFromInt(int64(p.StockQty))).Round(2)
		report.Rows = append(report.Rows, domain.StockReportRow{
			SKU:         p.SKU,
			Description: p.Description,
			StockQty:    p.StockQty,
			MinStockQty: p.MinStockQty,
			CostPrice:   p.CostPrice,
			SalePrice:   p.SalePrice,
			StockValue:  value,
			LowStock:    p.StockQty <= p.MinStockQty,
		})
		report.TotalStockValue = report.TotalStockValue.Add(value)
	}
	report.TotalStockValue = report.TotalStockValue.Round(2)
	return &report, nil
}

func (s *Service) SalesSummary(ctx context.Context, from time.Time, to time.Time) (*domain.SalesSummary, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, store.ErrValidation
	}
	return s.repo.GetSalesSummary(ctx, from.UTC(), to.UTC())
}

func (s *Service) ExpenseSummary(ctx context.Context, from time.Time, to time.Time) (*domain.ExpenseSummary, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, store.ErrValidation
	}
	return s.repo.GetExpenseSummary(ctx, from.UTC(), to.UTC())
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, productCacheKey); err != nil {
		s.log.WithError(err).Warn("product cache invalidation failed")
	}
}

func lineSubtotal(unitPrice decimal.Decimal, qty int, discountPct int) decimal.Decimal {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(qty)))
	factor := decimal.NewFromInt(int64(100 - discountPct)).Div(decimal.NewFromInt(100))
	return gross.Mul(factor).Round(2)
}

func isAllowedDiscount(pct int) bool {
	for _, allowed := range domain.AllowedDiscounts {
		if pct == allowed {
			return true
		}
	}
	return false
}

func isValidPaymentMethod(method string) bool {
	switch method {
	case domain.PaymentMethodPix, domain.PaymentMethodCreditCard, domain.PaymentMethodDebitCard, domain.PaymentMethodCash:
		return true
	}
	return false
}

func isValidOrderStatus(status string) bool {
	switch status {
	case domain.OrderStatusPending, domain.OrderStatusCompleted, domain.OrderStatusCancelled:
		return true
	}
	return false
}

func isValidCondition(condition string) bool {
	switch condition {
	case domain.ReturnConditionNew, domain.ReturnConditionDamaged, domain.ReturnConditionScrap:
		return true
	}
	return false
}

func isValidExpenseType(expenseType string) bool {
	switch expenseType {
	case domain.ExpenseTypePayroll, domain.ExpenseTypeRent, domain.ExpenseTypeUtilities,
		domain.ExpenseTypeTaxes, domain.ExpenseTypeMaintenance, domain.ExpenseTypeOther:
		return true
	}
	return false
}

func paymentMethodLabel(method string) string {
	switch method {
	case domain.PaymentMethodPix:
		return "Pix"
	case domain.PaymentMethodCreditCard:
		return "Cartão de Crédito"
	case domain.PaymentMethodDebitCard:
		return "Cartão de Débito"
	case domain.PaymentMethodCash:
		return "Dinheiro"
	}
	return method
}

func center(text string, width int) string {
	n := utf8.RuneCountInString(text)
	if n >= width {
		return text
	}
	pad := (width - n) / 2
	return strings.Repeat(" ", pad) + text
}

func truncate(text string, width int) string {
	if utf8.RuneCountInString(text) <= width {
		return text
	}
	return string([]rune(text)[:width])
}

func maxInt(a int, b int) int {
	if a > b {
		return a
	}
	return b
}
