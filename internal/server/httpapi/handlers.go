package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/dmitrijs2005/trackify/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const defaultRecentActions = 10

// --- auth ---

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := s.svc.Users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": u.ID, "username": u.UserName})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := s.svc.Users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := s.svc.Users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.Users.Logout(r.Context(), req.RefreshToken); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Users.GetUser(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":         u.ID,
		"username":   u.UserName,
		"balance":    u.Balance.StringFixed(2),
		"created_at": u.CreatedAt,
	})
}

// --- wallet ---

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

func (s *Server) wallet(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	limit := defaultRecentActions
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	balance, err := s.svc.Wallet.Balance(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	actions, err := s.svc.Wallet.RecentActions(r.Context(), userID, limit)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	views := make([]actionView, 0, len(actions))
	for _, a := range actions {
		views = append(views, actionView{Timestamp: a.Timestamp, Type: a.Type, Amount: a.Amount.StringFixed(2), Note: a.Note})
	}
	respondJSON(w, http.StatusOK, map[string]any{"balance": balance.StringFixed(2), "actions": views})
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := s.svc.Wallet.Deposit(r.Context(), userIDFrom(r.Context()), req.Amount, req.Note, idempotencyKey(r))
	s.respondReceipt(w, r, receipt, err)
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := s.svc.Wallet.Withdraw(r.Context(), userIDFrom(r.Context()), req.Amount, req.Note, idempotencyKey(r))
	s.respondReceipt(w, r, receipt, err)
}

func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Wallet.Reconcile(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"stored":        rec.Stored.StringFixed(2),
		"ledger_profit": rec.LedgerProfit.StringFixed(2),
		"drift":         rec.Drift.StringFixed(2),
		"balanced":      rec.Balanced(),
	})
}

// --- transactions ---

type recordRequest struct {
	Date          string          `json:"date"`
	Customer      string          `json:"customer"`
	Item          string          `json:"item"`
	PaymentMethod string          `json:"payment_method"`
	Revenue       decimal.Decimal `json:"revenue"`
	Cost          decimal.Decimal `json:"cost"`
	Notes         string          `json:"notes"`
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.svc.Wallet.ListTransactions(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newTransactionViews(txs))
}

func (s *Server) recordTransaction(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var date time.Time
	if strings.TrimSpace(req.Date) != "" {
		d, err := time.Parse(common.DateLayout, strings.TrimSpace(req.Date))
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("date must look like %s", common.DateLayout))
			return
		}
		date = d
	}

	receipt, err := s.svc.Wallet.RecordTransaction(r.Context(), userIDFrom(r.Context()), services.TransactionInput{
		Date:           date,
		Customer:       req.Customer,
		Item:           req.Item,
		PaymentMethod:  req.PaymentMethod,
		Revenue:        req.Revenue,
		Cost:           req.Cost,
		Notes:          req.Notes,
		IdempotencyKey: idempotencyKey(r),
	})
	s.respondReceipt(w, r, receipt, err)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	balance, err := s.svc.Wallet.DeleteTransaction(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"balance": balance.StringFixed(2)})
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	body, contentType, err := s.svc.Reports.Render(r.Context(), userIDFrom(r.Context()), services.FormatCSV)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondFile(w, contentType, "transactions.csv", body)
}

func (s *Server) statementPDF(w http.ResponseWriter, r *http.Request) {
	body, contentType, err := s.svc.Reports.Render(r.Context(), userIDFrom(r.Context()), services.FormatPDF)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondFile(w, contentType, "statement.pdf", body)
}

func (s *Server) archive(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = services.FormatPDF
	}

	key, err := s.svc.Reports.Archive(r.Context(), userIDFrom(r.Context()), format)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	resp := map[string]string{"key": key}
	if link, err := s.svc.Reports.DownloadURL(r.Context(), key); err != nil {
		s.logger.Warn(r.Context(), "presigning archived report failed", "key", key, "err", err)
	} else if link != "" {
		resp["url"] = link
	}
	respondJSON(w, http.StatusCreated, resp)
}

// --- products ---

type productRequest struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	PriceUSD decimal.Decimal `json:"price_usd"`
	Stock    int             `json:"stock"`
}

type buyRequest struct {
	Quantity int `json:"quantity"`
}

// stockRequest either sets the stock level or adjusts it, never both.
type stockRequest struct {
	Stock *int `json:"stock"`
	Delta *int `json:"delta"`
}

// listProducts returns the catalogue; ?name= narrows it to the product
// FindByName resolves.
func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	var (
		ps  []*models.Product
		err error
	)
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		var p *models.Product
		p, err = s.svc.Products.FindByName(r.Context(), name)
		switch {
		case err == nil:
			ps = []*models.Product{p}
		case errors.Is(err, common.ErrorNotFound):
			ps, err = nil, nil
		}
	} else {
		ps, err = s.svc.Products.List(r.Context())
	}
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	out := make([]productView, 0, len(ps))
	for _, p := range ps {
		out = append(out, newProductView(p))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newProductView(p))
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.svc.Products.Update(r.Context(), chi.URLParam(r, "id"), services.ProductInput{
		SKU: req.SKU, Name: req.Name, Category: req.Category, PriceUSD: req.PriceUSD, Stock: req.Stock,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newProductView(p))
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) productStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if (req.Stock == nil) == (req.Delta == nil) {
		respondError(w, http.StatusBadRequest, "exactly one of stock or delta is required")
		return
	}

	id := chi.URLParam(r, "id")
	var (
		p   *models.Product
		err error
	)
	if req.Stock != nil {
		if err = s.svc.Products.SetStock(r.Context(), id, *req.Stock); err == nil {
			p, err = s.svc.Products.Get(r.Context(), id)
		}
	} else {
		p, err = s.svc.Products.AdjustStock(r.Context(), id, *req.Delta)
	}
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newProductView(p))
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.svc.Products.Create(r.Context(), services.ProductInput{
		SKU: req.SKU, Name: req.Name, Category: req.Category, PriceUSD: req.PriceUSD, Stock: req.Stock,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newProductView(p))
}

func (s *Server) buyProduct(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := s.svc.Wallet.BuyItem(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"), req.Quantity, idempotencyKey(r))
	s.respondReceipt(w, r, receipt, err)
}

// --- reporting ---

func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	amount, err := services.ParseAmount(r.URL.Query().Get("amount"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	c := s.svc.Converter.Convert(r.Context(), amount)
	respondJSON(w, http.StatusOK, map[string]any{
		"amount": c.Amount.StringFixed(2),
		"from":   c.From,
		"to":     c.To,
		"result": c.Result.StringFixed(2),
		"live":   c.Live,
	})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Reports.Summary(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newSummaryView(sum))
}

// --- helpers ---

func idempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(common.IdempotencyKeyHeaderName))
}

func (s *Server) respondReceipt(w http.ResponseWriter, r *http.Request, receipt *services.Receipt, err error) {
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	status := http.StatusCreated
	if receipt.Replayed {
		status = http.StatusOK
	}
	respondJSON(w, status, newReceiptView(receipt))
}

func respondFile(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
