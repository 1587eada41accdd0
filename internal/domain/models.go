package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentMethodPix        = "pix"
	PaymentMethodCreditCard = "credit_card"
	PaymentMethodDebitCard  = "debit_card"
	PaymentMethodCash       = "cash"
)

const (
	ReturnConditionNew     = "new"
	ReturnConditionDamaged = "damaged"
	ReturnConditionScrap   = "scrap"
)

const (
	ExpenseTypePayroll     = "payroll"
	ExpenseTypeRent        = "rent"
	ExpenseTypeUtilities   = "utilities"
	ExpenseTypeTaxes       = "taxes"
	ExpenseTypeMaintenance = "maintenance"
	ExpenseTypeOther       = "other"
)

const (
	ExpenseStatusPending = "pending"
	ExpenseStatusPaid    = "paid"
)

// AllowedDiscounts are the only discount percentages the counter may apply.
var AllowedDiscounts = []int{0, 5, 10, 15, 20}

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Supplier struct {
	ID            string    `json:"id"`
	TradeName     string    `json:"trade_name"`
	TaxID         string    `json:"tax_id,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	ContactPerson string    `json:"contact_person,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	Brand       string          `json:"brand,omitempty"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	StockQty    int             `json:"stock_qty"`
	MinStockQty int             `json:"min_stock_qty"`
	CategoryID  string          `json:"category_id,omitempty"`
	SupplierID  string          `json:"supplier_id,omitempty"`
	BikeModel   string          `json:"bike_model,omitempty"`
	BikeYear    string          `json:"bike_year,omitempty"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ProductCreateRequest struct {
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	Brand       string          `json:"brand"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	StockQty    int             `json:"stock_qty"`
	MinStockQty int             `json:"min_stock_qty"`
	CategoryID  string          `json:"category_id"`
	SupplierID  string          `json:"supplier_id"`
	BikeModel   string          `json:"bike_model"`
	BikeYear    string          `json:"bike_year"`
}

type ProductUpdateRequest struct {
	Description string          `json:"description"`
	Brand       string          `json:"brand"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	MinStockQty int             `json:"min_stock_qty"`
	CategoryID  string          `json:"category_id"`
	SupplierID  string          `json:"supplier_id"`
	BikeModel   string          `json:"bike_model"`
	BikeYear    string          `json:"bike_year"`
}

type PurchaseReceipt struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	SupplierID      string          `json:"supplier_id,omitempty"`
	ReceivedAt      time.Time       `json:"received_at"`
	InvoiceIssuedAt *time.Time      `json:"invoice_issued_at,omitempty"`
	Qty             int             `json:"qty"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	InvoiceNumber   string          `json:"invoice_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type PurchaseCreateRequest struct {
	ProductID       string          `json:"product_id"`
	SupplierID      string          `json:"supplier_id"`
	ReceivedAt      *time.Time      `json:"received_at"`
	InvoiceIssuedAt *time.Time      `json:"invoice_issued_at"`
	Qty             int             `json:"qty"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	InvoiceNumber   string          `json:"invoice_number"`
}

// PurchaseHistoryEntry is a receipt joined with its product and supplier for
// the purchase history listing.
type PurchaseHistoryEntry struct {
	Receipt            PurchaseReceipt `json:"receipt"`
	ProductSKU         string          `json:"product_sku"`
	ProductDescription string          `json:"product_description"`
	SupplierTradeName  string          `json:"supplier_trade_name,omitempty"`
}

// CartLine is one priced line of an in-progress sale. Subtotal is already
// discounted and rounded to 2 places.
type CartLine struct {
	ProductID   string          `json:"product_id"`
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	Qty         int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct int             `json:"discount_pct"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Cart is a plain value carried between requests by the caller. The same
// product may appear on more than one line with different discounts.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal)
	}
	return total.Round(2)
}

type CartLineRequest struct {
	ProductID   string `json:"product_id"`
	Qty         int    `json:"qty"`
	DiscountPct int    `json:"discount_pct"`
}

type Order struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id,omitempty"`
	PlacedAt      time.Time       `json:"placed_at"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	Lines         []OrderLine     `json:"lines,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type OrderLine struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   string          `json:"product_id"`
	Qty         int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct int             `json:"discount_pct"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderCreateRequest struct {
	CustomerID    string            `json:"customer_id"`
	PaymentMethod string            `json:"payment_method"`
	Lines         []CartLineRequest `json:"lines"`
}

type OrderTransitionRequest struct {
	OrderIDs []string `json:"order_ids"`
	Target   string   `json:"target"`
}

// TransitionResult reports a bulk status change. Skipped holds ids that were
// no longer pending (or unknown) when the transition ran.
type TransitionResult struct {
	Moved   []string `json:"moved"`
	Skipped []string `json:"skipped"`
}

type Return struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	ProductID  string    `json:"product_id"`
	Qty        int       `json:"qty"`
	Condition  string    `json:"condition"`
	Restocked  bool      `json:"restocked"`
	Reason     string    `json:"reason,omitempty"`
	ReturnedAt time.Time `json:"returned_at"`
}

type ReturnCreateRequest struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	Condition string `json:"condition"`
	Reason    string `json:"reason"`
	// Restock overrides the condition default (new restocks, damaged and
	// scrap do not) when set.
	Restock *bool `json:"restock"`
}

// CouponDocument is the non-fiscal coupon for a stored order. Text is a
// deterministic function of the order, so reprints match the original.
type CouponDocument struct {
	OrderID  string `json:"order_id"`
	Text     string `json:"text"`
	FileName string `json:"file_name"`
}

type Expense struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	DueAt       time.Time       `json:"due_at"`
	Status      string          `json:"status"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ExpenseCreateRequest struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueAt       time.Time       `json:"due_at"`
}

type StockReportRow struct {
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	StockQty    int             `json:"stock_qty"`
	MinStockQty int             `json:"min_stock_qty"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	StockValue  decimal.Decimal `json:"stock_value"`
	LowStock    bool            `json:"low_stock"`
}

type StockReport struct {
	Rows            []StockReportRow `json:"rows"`
	TotalStockValue decimal.Decimal  `json:"total_stock_value"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

type SalesSummary struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	OrderCount    int             `json:"order_count"`
	GrossTotal    decimal.Decimal `json:"gross_total"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
}

type ExpenseSummary struct {
	From         time.Time                  `json:"from"`
	To           time.Time                  `json:"to"`
	PendingTotal decimal.Decimal            `json:"pending_total"`
	PaidTotal    decimal.Decimal            `json:"paid_total"`
	ByType       map[string]decimal.Decimal `json:"by_type"`
}
