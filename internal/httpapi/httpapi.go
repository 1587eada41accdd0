// Package httpapi exposes the service over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"jacareparts/backend/internal/domain"
	"jacareparts/backend/internal/report"
	"jacareparts/backend/internal/service"
	"jacareparts/backend/internal/store"
)

type API struct {
	svc           *service.Service
	log           *logrus.Logger
	allowedOrigin string
}

func New(svc *service.Service, logger *logrus.Logger, allowedOrigin string) *API {
	return &API{svc: svc, log: logger, allowedOrigin: allowedOrigin}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(a.recoverer)
	r.Use(a.requestLogger)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(a.secureHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Post("/", a.handleCreateCustomer)
			r.Get("/", a.handleListCustomers)
			r.Get("/{id}", a.handleGetCustomer)
		})
		r.Route("/suppliers", func(r chi.Router) {
			r.Post("/", a.handleCreateSupplier)
			r.Get("/", a.handleListSuppliers)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Post("/", a.handleCreateCategory)
			r.Get("/", a.handleListCategories)
		})
		r.Route("/products", func(r chi.Router) {
			r.Post("/", a.handleCreateProduct)
			r.Get("/", a.handleListProducts)
			r.Get("/search", a.handleSearchProducts)
			r.Get("/low-stock", a.handleLowStock)
			r.Get("/{id}", a.handleGetProduct)
			r.Put("/{id}", a.handleUpdateProduct)
			r.Delete("/{id}", a.handleDeactivateProduct)
		})
		r.Route("/purchases", func(r chi.Router) {
			r.Post("/", a.handleRegisterPurchase)
			r.Get("/", a.handleListPurchases)
		})
		r.Post("/carts/lines", a.handleBuildCartLine)
		r.Post("/quotes", a.handleBuildQuote)
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", a.handleCommitOrder)
			r.Get("/", a.handleListOrders)
			r.Post("/transition", a.handleTransitionOrders)
			r.Get("/{id}", a.handleGetOrder)
			r.Get("/{id}/coupon", a.handleCoupon)
		})
		r.Route("/returns", func(r chi.Router) {
			r.Post("/", a.handleRegisterReturn)
			r.Get("/", a.handleListReturns)
		})
		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", a.handleCreateExpense)
			r.Get("/", a.handleListExpenses)
			r.Post("/{id}/pay", a.handlePayExpense)
		})
		r.Route("/reports", func(r chi.Router) {
			r.Get("/stock", a.handleStockReport)
			r.Get("/stock.xlsx", a.handleStockReportXLSX)
			r.Get("/sales", a.handleSalesSummary)
			r.Get("/expenses", a.handleExpenseSummary)
			r.Get("/purchases.xlsx", a.handlePurchaseHistoryXLSX)
		})
	})

	return r
}

func (a *API) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var customer domain.Customer
	if err := decodeJSON(r, &customer); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := a.svc.CreateCustomer(r.Context(), customer)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := a.svc.ListCustomers(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, customers)
}

func (a *API) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := a.svc.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, customer)
}

func (a *API) handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var supplier domain.Supplier
	if err := decodeJSON(r, &supplier); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := a.svc.CreateSupplier(r.Context(), supplier)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := a.svc.ListSuppliers(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, suppliers)
}

func (a *API) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var category domain.Category
	if err := decodeJSON(r, &category); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := a.svc.CreateCategory(r.Context(), category)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.svc.ListCategories(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, categories)
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := a.svc.CreateProduct(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	products, err := a.svc.ListProducts(r.Context(), includeInactive)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, products)
}

func (a *API) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 20, 100)
	products, err := a.svc.SearchProducts(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, products)
}

func (a *API) handleLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := a.svc.ListLowStock(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, products)
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := a.svc.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, product)
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := a.svc.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeactivateProduct(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeactivateProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (a *API) handleRegisterPurchase(w http.ResponseWriter, r *http.Request) {
	var req domain.PurchaseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := a.svc.RegisterPurchase(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 50, 500)
	entries, err := a.svc.ListPurchaseHistory(r.Context(), r.URL.Query().Get("product_id"), limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, entries)
}

func (a *API) handleBuildCartLine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cart domain.Cart            `json:"cart"`
		Line domain.CartLineRequest `json:"line"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	cart, err := a.svc.BuildCartLine(r.Context(), req.Cart, req.Line)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"cart":  cart,
		"total": cart.Total(),
	})
}

func (a *API) handleBuildQuote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cart         domain.Cart `json:"cart"`
		CustomerName string      `json:"customer_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	html, err := a.svc.BuildQuoteHTML(r.Context(), req.Cart, req.CustomerName)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (a *API) handleCommitOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := a.svc.CommitOrder(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 50, 500)
	orders, err := a.svc.ListOrders(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, orders)
}

func (a *API) handleTransitionOrders(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderTransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := a.svc.TransitionOrders(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := a.svc.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, order)
}

func (a *API) handleCoupon(w http.ResponseWriter, r *http.Request) {
	coupon, err := a.svc.BuildCoupon(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "inline; filename="+coupon.FileName)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(coupon.Text))
}

func (a *API) handleRegisterReturn(w http.ResponseWriter, r *http.Request) {
	var req domain.ReturnCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := a.svc.RegisterReturn(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListReturns(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 50, 500)
	returns, err := a.svc.ListReturns(r.Context(), r.URL.Query().Get("order_id"), limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, returns)
}

func (a *API) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req domain.ExpenseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := a.svc.CreateExpense(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := a.svc.ListExpenses(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, expenses)
}

func (a *API) handlePayExpense(w http.ResponseWriter, r *http.Request) {
	paid, err := a.svc.PayExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, paid)
}

func (a *API) handleStockReport(w http.ResponseWriter, r *http.Request) {
	rep, err := a.svc.StockReport(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, rep)
}

func (a *API) handleStockReportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, err := a.svc.StockReport(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=estoque.xlsx")
	if err := report.WriteStockReport(w, rep); err != nil {
		a.log.WithError(err).Error("stock report spreadsheet failed")
	}
}

func (a *API) handlePurchaseHistoryXLSX(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 500, 5000)
	entries, err := a.svc.ListPurchaseHistory(r.Context(), r.URL.Query().Get("product_id"), limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=compras.xlsx")
	if err := report.WritePurchaseHistory(w, entries); err != nil {
		a.log.WithError(err).Error("purchase history spreadsheet failed")
	}
}

func (a *API) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		a.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	summary, err := a.svc.SalesSummary(r.Context(), from, to)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		a.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	summary, err := a.svc.ExpenseSummary(r.Context(), from, to)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, summary)
}

func (a *API) secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		next.ServeHTTP(w, r)
	})
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				a.log.WithField("panic", rec).Error(string(debug.Stack()))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// writeServiceError maps the store sentinels onto HTTP statuses.
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		a.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrValidation), errors.Is(err, store.ErrEmptyOrder):
		a.writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, store.ErrInsufficientStock), errors.Is(err, store.ErrOverReturn):
		a.writeError(w, http.StatusConflict, err)
	default:
		a.writeError(w, http.StatusInternalServerError, err)
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic so driver errors and SQL never leak out.
	msg := err.Error()
	if status >= 500 {
		a.log.WithField("status", status).WithError(err).Error("internal error")
		msg = "internal server error"
	}
	a.writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}
