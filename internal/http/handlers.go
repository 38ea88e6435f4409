package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"fluxo/internal/cache"
	"fluxo/internal/core"
	"fluxo/internal/services"
	"fluxo/internal/storage"
)

// Response shapes. Amounts are reported both as integer cents and as a
// formatted BRL string.

type transactionRow struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	DaysOverdue int    `json:"days_overdue"`
	Severity    string `json:"severity,omitempty"`
}

type bucketResponse struct {
	TotalCents         int64            `json:"total_cents"`
	Total              string           `json:"total"`
	Count              int              `json:"count"`
	AverageDaysOverdue int              `json:"average_days_overdue"`
	OldestDueDate      string           `json:"oldest_due_date,omitempty"`
	Flagged            int              `json:"flagged,omitempty"`
	Transactions       []transactionRow `json:"transactions"`
}

type summaryResponse struct {
	CompanyID int64          `json:"company_id"`
	AsOf      string         `json:"as_of"`
	Degraded  bool           `json:"degraded,omitempty"`
	Revenues  bucketResponse `json:"revenues"`
	Expenses  bucketResponse `json:"expenses"`
}

func (s *Server) buildBucketResponse(b core.OverdueBucket, today core.Date) bucketResponse {
	resp := bucketResponse{
		TotalCents:         b.Total.Cents,
		Total:              b.Total.String(),
		Count:              b.Count,
		AverageDaysOverdue: b.AverageDaysOverdue,
		Flagged:            b.Flagged,
		Transactions:       make([]transactionRow, 0, len(b.Transactions)),
	}
	if !b.OldestDueDate.IsZero() {
		resp.OldestDueDate = b.OldestDueDate.String()
	}
	for _, t := range b.Transactions {
		row := transactionRow{
			ID:          t.ID,
			Description: t.Description,
			AmountCents: t.Amount.Cents,
			Amount:      t.Amount.String(),
			DueDate:     t.DueDate.String(),
			Status:      string(t.Status),
			DaysOverdue: core.DaysOverdue(t, today),
		}
		if row.DaysOverdue > 0 {
			row.Severity = string(core.ClassifySeverity(row.DaysOverdue))
		}
		resp.Transactions = append(resp.Transactions, row)
	}
	return resp
}

func (s *Server) buildSummaryResponse(companyID int64, summary core.Summary, degraded bool) summaryResponse {
	today := core.Today(s.loc)
	return summaryResponse{
		CompanyID: companyID,
		AsOf:      today.String(),
		Degraded:  degraded,
		Revenues:  s.buildBucketResponse(summary.Revenues, today),
		Expenses:  s.buildBucketResponse(summary.Expenses, today),
	}
}

// handleOverdueSummary serves GET /api/companies/{id}/overdue-summary.
// Failures downgrade to an empty summary with a degraded marker; the
// dashboard must render even when a read fails.
func (s *Server) handleOverdueSummary(w http.ResponseWriter, r *http.Request) {
	s.handleSummary(w, r, "overdue", s.overdueCache, s.reports.OverdueSummary)
}

// handlePendingSummary serves GET /api/companies/{id}/pending-summary.
func (s *Server) handlePendingSummary(w http.ResponseWriter, r *http.Request) {
	s.handleSummary(w, r, "pending", s.pendingCache, s.reports.PendingSummary)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, kind string, c *cache.LRUCache[core.Summary], load func(ctx context.Context, companyID int64) (core.Summary, error)) {
	companyID, ok := parsePathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}

	cacheKey := fmt.Sprintf("%s:%d:%s", kind, companyID, core.Today(s.loc).String())
	if summary, hit := c.Get(cacheKey); hit {
		writeJSON(w, http.StatusOK, s.buildSummaryResponse(companyID, summary, false))
		return
	}

	summary, err := load(r.Context(), companyID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary aggregation failed, serving degraded response",
			"kind", kind,
			"company_id", companyID,
			"error", err)
		writeJSON(w, http.StatusOK, s.buildSummaryResponse(companyID, core.Summary{}, true))
		return
	}

	c.Set(cacheKey, summary)
	writeJSON(w, http.StatusOK, s.buildSummaryResponse(companyID, summary, false))
}

type cashflowResponse struct {
	CompanyID    int64  `json:"company_id"`
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	RevenueCents int64  `json:"revenue_cents"`
	Revenue      string `json:"revenue"`
	ExpenseCents int64  `json:"expense_cents"`
	Expense      string `json:"expense"`
	NetCents     int64  `json:"net_cents"`
	Net          string `json:"net"`
}

// handleCashflow serves GET /api/companies/{id}/cashflow?year=&month=.
func (s *Server) handleCashflow(w http.ResponseWriter, r *http.Request) {
	companyID, ok := parsePathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}

	year, month := parseYearMonth(r, s.loc)

	cf, err := s.reports.MonthCashflow(r.Context(), companyID, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Cashflow query failed",
			"company_id", companyID, "error", err)
		writeError(w, http.StatusInternalServerError, "cashflow query failed")
		return
	}

	net := cf.Net()
	writeJSON(w, http.StatusOK, cashflowResponse{
		CompanyID:    companyID,
		Year:         cf.Year,
		Month:        int(cf.Month),
		RevenueCents: cf.Revenue.Cents,
		Revenue:      cf.Revenue.String(),
		ExpenseCents: cf.Expense.Cents,
		Expense:      cf.Expense.String(),
		NetCents:     net.Cents,
		Net:          net.String(),
	})
}

type projectionResponse struct {
	AccountID      int64  `json:"account_id"`
	AccountName    string `json:"account_name"`
	AccountType    string `json:"account_type"`
	SettledCents   int64  `json:"settled_cents"`
	Settled        string `json:"settled"`
	ProjectedCents *int64 `json:"projected_cents,omitempty"`
	Projected      string `json:"projected,omitempty"`
	HasProjection  bool   `json:"has_projection"`
}

// handleProjectedBalance serves GET /api/accounts/{id}/projected-balance.
func (s *Server) handleProjectedBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := parsePathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	acct, proj, err := s.reports.ProjectedBalance(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		slog.ErrorContext(r.Context(), "Projection query failed",
			"account_id", accountID, "error", err)
		writeError(w, http.StatusInternalServerError, "projection query failed")
		return
	}

	resp := projectionResponse{
		AccountID:     acct.ID,
		AccountName:   acct.Name,
		AccountType:   string(acct.Type),
		SettledCents:  proj.Settled.Cents,
		Settled:       proj.Settled.String(),
		HasProjection: proj.HasProjection,
	}
	if proj.HasProjection {
		cents := proj.Projected.Cents
		resp.ProjectedCents = &cents
		resp.Projected = proj.Projected.String()
	}

	writeJSON(w, http.StatusOK, resp)
}

type generateRequest struct {
	CompanyID int64  `json:"company_id,omitempty"`
	AsOf      string `json:"as_of,omitempty"`
}

type generateResponse struct {
	RunID               string `json:"run_id"`
	AsOf                string `json:"as_of"`
	RulesProcessed      int    `json:"rules_processed"`
	TransactionsCreated int    `json:"transactions_created"`
	RulesSkipped        int    `json:"rules_skipped"`
	Failures            int    `json:"failures"`
	DurationMs          int64  `json:"duration_ms"`
}

// handleGenerate serves POST /api/generate ("Generate Now"). The body is
// optional; an empty body expands every company as of today.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if req.AsOf == "" {
		req.AsOf = r.URL.Query().Get("as_of")
	}

	asOf := core.Today(s.loc)
	if req.AsOf != "" {
		parsed, err := core.ParseDate(req.AsOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid as_of date, want YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	var (
		gr  services.GenerationResult
		err error
	)
	if req.CompanyID > 0 {
		gr, err = s.generator.RunForCompany(ctx, req.CompanyID, asOf)
	} else {
		gr, err = s.generator.Run(ctx, asOf)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Generation run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "generation run failed")
		return
	}

	// New transactions invalidate every cached summary.
	s.overdueCache.Purge()
	s.pendingCache.Purge()

	writeJSON(w, http.StatusOK, generateResponse{
		RunID:               gr.RunID,
		AsOf:                gr.AsOf.String(),
		RulesProcessed:      gr.RulesProcessed,
		TransactionsCreated: gr.TransactionsCreated,
		RulesSkipped:        gr.RulesSkipped,
		Failures:            gr.Failures,
		DurationMs:          gr.Duration.Milliseconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleReady verifies the database is reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.pinger != nil {
		if _, err := s.pinger.ListCompanies(ctx); err != nil {
			slog.ErrorContext(ctx, "Readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
