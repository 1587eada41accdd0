package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"jacareparts/backend/internal/domain"
	"jacareparts/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, tax_id, phone, email, address, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, customer.ID, customer.Name, nullIfEmpty(customer.TaxID), nullIfEmpty(customer.Phone),
		nullIfEmpty(customer.Email), nullIfEmpty(customer.Address), customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	var taxID, phone, email, address sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, tax_id, phone, email, address, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &taxID, &phone, &email, &address, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	c.TaxID = taxID.String
	c.Phone = phone.String
	c.Email = email.String
	c.Address = address.String
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, tax_id, phone, email, address, created_at
		FROM customers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var c domain.Customer
		var taxID, phone, email, address sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &taxID, &phone, &email, &address, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.TaxID = taxID.String
		c.Phone = phone.String
		c.Email = email.String
		c.Address = address.String
		c.CreatedAt = c.CreatedAt.UTC()
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, trade_name, tax_id, phone, email, contact_person, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, supplier.ID, supplier.TradeName, nullIfEmpty(supplier.TaxID), nullIfEmpty(supplier.Phone),
		nullIfEmpty(supplier.Email), nullIfEmpty(supplier.ContactPerson), supplier.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}

	created := supplier
	return &created, nil
}

func (s *Store) GetSupplierByID(ctx context.Context, id string) (*domain.Supplier, error) {
	var sup domain.Supplier
	var taxID, phone, email, contact sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, trade_name, tax_id, phone, email, contact_person, created_at
		FROM suppliers
		WHERE id = $1
	`, id).Scan(&sup.ID, &sup.TradeName, &taxID, &phone, &email, &contact, &sup.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sup.TaxID = taxID.String
	sup.Phone = phone.String
	sup.Email = email.String
	sup.ContactPerson = contact.String
	sup.CreatedAt = sup.CreatedAt.UTC()
	return &sup, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trade_name, tax_id, phone, email, contact_person, created_at
		FROM suppliers
		ORDER BY trade_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 32)
	for rows.Next() {
		var sup domain.Supplier
		var taxID, phone, email, contact sql.NullString
		if err := rows.Scan(&sup.ID, &sup.TradeName, &taxID, &phone, &email, &contact, &sup.CreatedAt); err != nil {
			return nil, err
		}
		sup.TaxID = taxID.String
		sup.Phone = phone.String
		sup.Email = email.String
		sup.ContactPerson = contact.String
		sup.CreatedAt = sup.CreatedAt.UTC()
		suppliers = append(suppliers, sup)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return suppliers, nil
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name)
		VALUES ($1,$2)
	`, category.ID, category.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}

	created := category
	return &created, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 16)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

const productColumns = `id, sku, description, brand, cost_price, sale_price, stock_qty, min_stock_qty,
	category_id, supplier_id, bike_model, bike_year, active, created_at, updated_at`

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, sku, description, brand, cost_price, sale_price, stock_qty, min_stock_qty,
			category_id, supplier_id, bike_model, bike_year, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, product.ID, product.SKU, product.Description, nullIfEmpty(product.Brand),
		product.CostPrice, product.SalePrice, product.StockQty, product.MinStockQty,
		nullIfEmpty(product.CategoryID), nullIfEmpty(product.SupplierID),
		nullIfEmpty(product.BikeModel), nullIfEmpty(product.BikeYear),
		product.Active, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id)
	return scanProductRow(row)
}

func (s *Store) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE lower(sku) = lower($1)
	`, sku)
	return scanProductRow(row)
}

func (s *Store) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE active = true OR $1
		ORDER BY description
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET description = $1, brand = $2, sale_price = $3, min_stock_qty = $4,
			category_id = $5, supplier_id = $6, bike_model = $7, bike_year = $8, updated_at = $9
		WHERE id = $10
	`, product.Description, nullIfEmpty(product.Brand), product.SalePrice, product.MinStockQty,
		nullIfEmpty(product.CategoryID), nullIfEmpty(product.SupplierID),
		nullIfEmpty(product.BikeModel), nullIfEmpty(product.BikeYear), product.UpdatedAt, product.ID)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetProductByID(ctx, product.ID)
}

func (s *Store) DeactivateProduct(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET active = false, updated_at = $1
		WHERE id = $2
	`, at, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SearchProducts(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE active = true
		  AND (description ILIKE $1 OR sku ILIKE $1 OR brand ILIKE $1)
		ORDER BY description
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (s *Store) ListLowStock(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE active = true AND stock_qty <= min_stock_qty
		ORDER BY description
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (s *Store) ApplyReceipt(ctx context.Context, receipt domain.PurchaseReceipt) (*domain.PurchaseReceipt, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var oldQty int
	var oldCost decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		SELECT stock_qty, cost_price
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, receipt.ProductID).Scan(&oldQty, &oldCost)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	newCost := weightedCost(oldQty, oldCost, receipt.Qty, receipt.UnitCost)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO purchase_receipts (id, product_id, supplier_id, received_at, invoice_issued_at,
			qty, unit_cost, invoice_number, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, receipt.ID, receipt.ProductID, nullIfEmpty(receipt.SupplierID), receipt.ReceivedAt,
		nullDate(receipt.InvoiceIssuedAt), receipt.Qty, receipt.UnitCost,
		nullIfEmpty(receipt.InvoiceNumber), receipt.CreatedAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE products
		SET stock_qty = stock_qty + $1, cost_price = $2, updated_at = $3
		WHERE id = $4
	`, receipt.Qty, newCost, receipt.CreatedAt, receipt.ProductID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := receipt
	return &created, nil
}

func (s *Store) ListPurchaseHistory(ctx context.Context, productID string, limit int) ([]domain.PurchaseHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.product_id, r.supplier_id, r.received_at, r.invoice_issued_at,
			r.qty, r.unit_cost, r.invoice_number, r.created_at,
			p.sku, p.description, COALESCE(s.trade_name, '')
		FROM purchase_receipts r
		JOIN products p ON p.id = r.product_id
		LEFT JOIN suppliers s ON s.id = r.supplier_id
		WHERE $1 = '' OR r.product_id = $1
		ORDER BY r.received_at DESC
		LIMIT $2
	`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.PurchaseHistoryEntry, 0, 64)
	for rows.Next() {
		var e domain.PurchaseHistoryEntry
		var supplierID, invoiceNumber sql.NullString
		var issuedAt sql.NullTime
		if err := rows.Scan(&e.Receipt.ID, &e.Receipt.ProductID, &supplierID, &e.Receipt.ReceivedAt,
			&issuedAt, &e.Receipt.Qty, &e.Receipt.UnitCost, &invoiceNumber, &e.Receipt.CreatedAt,
			&e.ProductSKU, &e.ProductDescription, &e.SupplierTradeName); err != nil {
			return nil, err
		}
		e.Receipt.SupplierID = supplierID.String
		e.Receipt.InvoiceNumber = invoiceNumber.String
		if issuedAt.Valid {
			t := issuedAt.Time.UTC()
			e.Receipt.InvoiceIssuedAt = &t
		}
		e.Receipt.ReceivedAt = e.Receipt.ReceivedAt.UTC()
		e.Receipt.CreatedAt = e.Receipt.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if len(order.Lines) == 0 {
		return nil, store.ErrEmptyOrder
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, placed_at, total, status, payment_method, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, order.ID, nullIfEmpty(order.CustomerID), order.PlacedAt, order.Total,
		order.Status, order.PaymentMethod, order.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (id, order_id, product_id, qty, unit_price, discount_pct, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, line.ID, order.ID, line.ProductID, line.Qty, line.UnitPrice, line.DiscountPct, line.Subtotal)
		if err != nil {
			return nil, err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock_qty = stock_qty - $1, updated_at = $2
			WHERE id = $3 AND active = true AND stock_qty >= $1
		`, line.Qty, order.CreatedAt, line.ProductID)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			var exists bool
			err := tx.QueryRowContext(ctx, `
				SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND active = true)
			`, line.ProductID).Scan(&exists)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, store.ErrNotFound
			}
			return nil, store.ErrInsufficientStock
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := order
	return &created, nil
}

func (s *Store) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	var customerID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, placed_at, total, status, payment_method, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&o.ID, &customerID, &o.PlacedAt, &o.Total, &o.Status, &o.PaymentMethod, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	o.CustomerID = customerID.String
	o.PlacedAt = o.PlacedAt.UTC()
	o.CreatedAt = o.CreatedAt.UTC()

	lines, err := s.listOrderLines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines

	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context, status string, limit int) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, placed_at, total, status, payment_method, created_at
		FROM orders
		WHERE $1 = '' OR status = $1
		ORDER BY placed_at DESC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 32)
	for rows.Next() {
		var o domain.Order
		var customerID sql.NullString
		if err := rows.Scan(&o.ID, &customerID, &o.PlacedAt, &o.Total, &o.Status, &o.PaymentMethod, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.CustomerID = customerID.String
		o.PlacedAt = o.PlacedAt.UTC()
		o.CreatedAt = o.CreatedAt.UTC()
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		lines, err := s.listOrderLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}

	return orders, nil
}

func (s *Store) listOrderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, qty, unit_price, discount_pct, subtotal
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0, 8)
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Qty, &l.UnitPrice, &l.DiscountPct, &l.Subtotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

func (s *Store) TransitionOrders(ctx context.Context, ids []string, target string, restockOnCancel bool, at time.Time) (*domain.TransitionResult, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	result := domain.TransitionResult{Moved: []string{}, Skipped: []string{}}
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET status = $1
			WHERE id = $2 AND status = $3
		`, target, id, domain.OrderStatusPending)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		result.Moved = append(result.Moved, id)

		if target == domain.OrderStatusCancelled && restockOnCancel {
			_, err = tx.ExecContext(ctx, `
				UPDATE products p
				SET stock_qty = p.stock_qty + l.qty, updated_at = $2
				FROM (
					SELECT product_id, SUM(qty) AS qty
					FROM order_lines
					WHERE order_id = $1
					GROUP BY product_id
				) l
				WHERE p.id = l.product_id
			`, id, at)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *Store) CreateReturn(ctx context.Context, ret domain.Return) (*domain.Return, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT status
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, ret.OrderID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status != domain.OrderStatusCompleted {
		return nil, store.ErrValidation
	}

	var sold int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(qty), 0)
		FROM order_lines
		WHERE order_id = $1 AND product_id = $2
	`, ret.OrderID, ret.ProductID).Scan(&sold)
	if err != nil {
		return nil, err
	}
	if sold == 0 {
		return nil, store.ErrNotFound
	}

	var returned int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(qty), 0)
		FROM returns
		WHERE order_id = $1 AND product_id = $2
	`, ret.OrderID, ret.ProductID).Scan(&returned)
	if err != nil {
		return nil, err
	}
	if returned+ret.Qty > sold {
		return nil, store.ErrOverReturn
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO returns (id, order_id, product_id, qty, condition, restocked, reason, returned_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, ret.ID, ret.OrderID, ret.ProductID, ret.Qty, ret.Condition, ret.Restocked,
		nullIfEmpty(ret.Reason), ret.ReturnedAt)
	if err != nil {
		return nil, err
	}

	if ret.Restocked {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock_qty = stock_qty + $1, updated_at = $2
			WHERE id = $3
		`, ret.Qty, ret.ReturnedAt, ret.ProductID)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, store.ErrNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := ret
	return &created, nil
}

func (s *Store) GetReturnedQty(ctx context.Context, orderID string, productID string) (int, error) {
	var returned int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(qty), 0)
		FROM returns
		WHERE order_id = $1 AND product_id = $2
	`, orderID, productID).Scan(&returned)
	if err != nil {
		return 0, err
	}
	return returned, nil
}

func (s *Store) ListReturns(ctx context.Context, orderID string, limit int) ([]domain.Return, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, qty, condition, restocked, reason, returned_at
		FROM returns
		WHERE $1 = '' OR order_id = $1
		ORDER BY returned_at DESC
		LIMIT $2
	`, orderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	returns := make([]domain.Return, 0, 16)
	for rows.Next() {
		var r domain.Return
		var reason sql.NullString
		if err := rows.Scan(&r.ID, &r.OrderID, &r.ProductID, &r.Qty, &r.Condition, &r.Restocked, &reason, &r.ReturnedAt); err != nil {
			return nil, err
		}
		r.Reason = reason.String
		r.ReturnedAt = r.ReturnedAt.UTC()
		returns = append(returns, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return returns, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, type, description, amount, due_at, status, paid_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, expense.ID, expense.Type, nullIfEmpty(expense.Description), expense.Amount,
		expense.DueAt, expense.Status, nullTime(expense.PaidAt), expense.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context, status string) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, description, amount, due_at, status, paid_at, created_at
		FROM expenses
		WHERE $1 = '' OR status = $1
		ORDER BY due_at
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 32)
	for rows.Next() {
		var e domain.Expense
		var description sql.NullString
		var paidAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.Type, &description, &e.Amount, &e.DueAt, &e.Status, &paidAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Description = description.String
		if paidAt.Valid {
			t := paidAt.Time.UTC()
			e.PaidAt = &t
		}
		e.DueAt = e.DueAt.UTC()
		e.CreatedAt = e.CreatedAt.UTC()
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return expenses, nil
}

func (s *Store) PayExpense(ctx context.Context, id string, paidAt time.Time) (*domain.Expense, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET status = $1, paid_at = $2
		WHERE id = $3 AND status = $4
	`, domain.ExpenseStatusPaid, paidAt, id, domain.ExpenseStatusPending)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		var exists bool
		err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM expenses WHERE id = $1)
		`, id).Scan(&exists)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, store.ErrNotFound
		}
		return nil, store.ErrValidation
	}

	return s.getExpenseByID(ctx, id)
}

func (s *Store) getExpenseByID(ctx context.Context, id string) (*domain.Expense, error) {
	var e domain.Expense
	var description sql.NullString
	var paidAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, type, description, amount, due_at, status, paid_at, created_at
		FROM expenses
		WHERE id = $1
	`, id).Scan(&e.ID, &e.Type, &description, &e.Amount, &e.DueAt, &e.Status, &paidAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	e.Description = description.String
	if paidAt.Valid {
		t := paidAt.Time.UTC()
		e.PaidAt = &t
	}
	e.DueAt = e.DueAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

func (s *Store) GetSalesSummary(ctx context.Context, from time.Time, to time.Time) (*domain.SalesSummary, error) {
	summary := domain.SalesSummary{From: from, To: to, GrossTotal: decimal.Zero, DiscountTotal: decimal.Zero}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE status = $1 AND placed_at >= $2 AND placed_at <= $3
	`, domain.OrderStatusCompleted, from, to).Scan(&summary.OrderCount, &summary.GrossTotal)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(l.unit_price * l.qty * l.discount_pct / 100.0), 0)
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		WHERE o.status = $1 AND o.placed_at >= $2 AND o.placed_at <= $3
	`, domain.OrderStatusCompleted, from, to).Scan(&summary.DiscountTotal)
	if err != nil {
		return nil, err
	}

	summary.GrossTotal = summary.GrossTotal.Round(2)
	summary.DiscountTotal = summary.DiscountTotal.Round(2)
	return &summary, nil
}

func (s *Store) GetExpenseSummary(ctx context.Context, from time.Time, to time.Time) (*domain.ExpenseSummary, error) {
	summary := domain.ExpenseSummary{
		From: from, To: to,
		PendingTotal: decimal.Zero,
		PaidTotal:    decimal.Zero,
		ByType:       make(map[string]decimal.Decimal),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT type, status, COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE due_at >= $1 AND due_at <= $2
		GROUP BY type, status
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var expenseType, status string
		var amount decimal.Decimal
		if err := rows.Scan(&expenseType, &status, &amount); err != nil {
			return nil, err
		}
		switch status {
		case domain.ExpenseStatusPending:
			summary.PendingTotal = summary.PendingTotal.Add(amount)
		case domain.ExpenseStatusPaid:
			summary.PaidTotal = summary.PaidTotal.Add(amount)
		}
		current, ok := summary.ByType[expenseType]
		if !ok {
			current = decimal.Zero
		}
		summary.ByType[expenseType] = current.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summary.PendingTotal = summary.PendingTotal.Round(2)
	summary.PaidTotal = summary.PaidTotal.Round(2)
	return &summary, nil
}

func scanProductRow(row *sql.Row) (*domain.Product, error) {
	var p domain.Product
	var brand, categoryID, supplierID, bikeModel, bikeYear sql.NullString
	err := row.Scan(&p.ID, &p.SKU, &p.Description, &brand, &p.CostPrice, &p.SalePrice,
		&p.StockQty, &p.MinStockQty, &categoryID, &supplierID, &bikeModel, &bikeYear,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	p.Brand = brand.String
	p.CategoryID = categoryID.String
	p.SupplierID = supplierID.String
	p.BikeModel = bikeModel.String
	p.BikeYear = bikeYear.String
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		var brand, categoryID, supplierID, bikeModel, bikeYear sql.NullString
		if err := rows.Scan(&p.ID, &p.SKU, &p.Description, &brand, &p.CostPrice, &p.SalePrice,
			&p.StockQty, &p.MinStockQty, &categoryID, &supplierID, &bikeModel, &bikeYear,
			&p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Brand = brand.String
		p.CategoryID = categoryID.String
		p.SupplierID = supplierID.String
		p.BikeModel = bikeModel.String
		p.BikeYear = bikeYear.String
		p.CreatedAt = p.CreatedAt.UTC()
		p.UpdatedAt = p.UpdatedAt.UTC()
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// weightedCost folds an incoming receipt into the running average cost,
// rounded to 4 places. An empty position adopts the incoming cost.
func weightedCost(oldQty int, oldCost decimal.Decimal, incomingQty int, incomingCost decimal.Decimal) decimal.Decimal {
	oldQtyDec := decimal.NewFromInt(int64(oldQty))
	incomingQtyDec := decimal.NewFromInt(int64(incomingQty))
	totalQty := oldQtyDec.Add(incomingQtyDec)
	if totalQty.IsZero() {
		return incomingCost.Round(4)
	}
	totalValue := oldQtyDec.Mul(oldCost).Add(incomingQtyDec.Mul(incomingCost))
	return totalValue.Div(totalQty).Round(4)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullDate(val *time.Time) any {
	if val == nil {
		return nil
	}
	t := val.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
