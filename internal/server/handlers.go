package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/cryptomonth/cryptomonth/internal/advertiser"
	"github.com/cryptomonth/cryptomonth/internal/aggregate"
	"github.com/cryptomonth/cryptomonth/internal/domain"
	"github.com/cryptomonth/cryptomonth/internal/newsletter"
)

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string, retryable bool) {
	requestID, _ := r.Context().Value(requestIDKey).(string)
	s.writeJSON(w, status, errorResponse{Error: msg, Retryable: retryable, RequestID: requestID})
}

// snapshotOr503 resolves the current snapshot, translating the
// no-data condition into a retryable 503.
func (s *Server) snapshotOr503(w http.ResponseWriter, r *http.Request) (*domain.Snapshot, bool) {
	snap, err := s.snapshots.Snapshot(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			s.writeError(w, r, http.StatusServiceUnavailable,
				"no market data available from any source", true)
			return nil, false
		}
		s.log.Error().Err(err).Msg("snapshot failed")
		s.writeError(w, r, http.StatusInternalServerError, "failed to load market data", true)
		return nil, false
	}
	return snap, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type coinsResponse struct {
	Coins     []domain.MarketRecord `json:"coins"`
	Page      int                   `json:"page"`
	PageSize  int                   `json:"pageSize"`
	Total     int                   `json:"total"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

func (s *Server) handleCoins(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshotOr503(w, r)
	if !ok {
		return
	}

	records := snap.Records
	switch view := r.URL.Query().Get("view"); view {
	case "", "all":
	case "gainers":
		records = aggregate.Gainers(records, len(records))
	case "losers":
		records = aggregate.Losers(records, len(records))
	default:
		s.writeError(w, r, http.StatusBadRequest, "view must be all, gainers or losers", false)
		return
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(r, "pageSize", s.cfg.DefaultPageSize)
	if pageSize < 1 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	total := len(records)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	s.writeJSON(w, http.StatusOK, coinsResponse{
		Coins:     records[start:end],
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		UpdatedAt: snap.FetchedAt,
	})
}

func (s *Server) handleCoin(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshotOr503(w, r)
	if !ok {
		return
	}

	symbol := normalizeSymbol(mux.Vars(r)["symbol"])
	for _, rec := range snap.Records {
		if strings.ToUpper(rec.Symbol) == symbol {
			s.writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	s.writeError(w, r, http.StatusNotFound, "symbol not found", false)
}

type subscribeRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body", false)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		s.writeError(w, r, http.StatusBadRequest, "a valid email is required", false)
		return
	}
	if !s.mailer.IsConfigured() {
		s.writeError(w, r, http.StatusServiceUnavailable, "subscriptions are not configured", false)
		return
	}

	if err := s.mailer.Subscribe(r.Context(), req.Email, strings.TrimSpace(req.FirstName)); err != nil {
		s.log.Error().Err(err).Msg("subscribe failed")
		s.writeError(w, r, http.StatusBadGateway, "subscription failed, try again later", true)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]bool{"subscribed": true})
}

func (s *Server) handleAdvertiserWeeks(w http.ResponseWriter, r *http.Request) {
	slots, err := s.advertiser.Weeks(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list weeks failed")
		s.writeError(w, r, http.StatusInternalServerError, "failed to load weeks", true)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"weeks": slots})
}

type submitRequest struct {
	CompanyName  string `json:"companyName"`
	Pitch        string `json:"pitch"`
	ContactEmail string `json:"contactEmail"`
	Website      string `json:"website"`
	WeekStart    string `json:"weekStartDate"`
}

func (s *Server) handleAdvertiserSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body", false)
		return
	}
	if strings.TrimSpace(req.CompanyName) == "" || strings.TrimSpace(req.ContactEmail) == "" ||
		strings.TrimSpace(req.WeekStart) == "" {
		s.writeError(w, r, http.StatusBadRequest,
			"companyName, contactEmail and weekStartDate are required", false)
		return
	}

	sub, err := s.advertiser.Submit(r.Context(), advertiser.Submission{
		CompanyName:  strings.TrimSpace(req.CompanyName),
		Pitch:        strings.TrimSpace(req.Pitch),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		Website:      strings.TrimSpace(req.Website),
		WeekStart:    strings.TrimSpace(req.WeekStart),
	})
	switch {
	case errors.Is(err, advertiser.ErrUnknownWeek):
		s.writeError(w, r, http.StatusBadRequest, "week is not in the bookable range", false)
		return
	case errors.Is(err, advertiser.ErrSlotTaken):
		s.writeError(w, r, http.StatusConflict, "week slot is already reserved", false)
		return
	case err != nil:
		s.log.Error().Err(err).Msg("submission failed")
		s.writeError(w, r, http.StatusInternalServerError, "failed to save submission", true)
		return
	}
	s.writeJSON(w, http.StatusCreated, sub)
}

type paymentIntentRequest struct {
	SubmissionID string `json:"submissionId"`
}

func (s *Server) handlePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SubmissionID == "" {
		s.writeError(w, r, http.StatusBadRequest, "submissionId is required", false)
		return
	}
	if !s.payments.IsConfigured() {
		s.writeError(w, r, http.StatusServiceUnavailable, "payments are not configured", false)
		return
	}

	intent, err := s.payments.CreateIntent(r.Context(), req.SubmissionID, "")
	if err != nil {
		s.log.Error().Err(err).Msg("create payment intent failed")
		s.writeError(w, r, http.StatusBadGateway, "failed to create payment intent", true)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"paymentIntentId": intent.ID,
		"clientSecret":    intent.ClientSecret,
		"amount":          intent.Amount,
		"currency":        intent.Currency,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Snapshot(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrNoData) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, "no market data available", status)
		return
	}

	var sponsor *newsletter.Sponsor
	if cur, err := s.advertiser.Current(r.Context()); err == nil && cur != nil {
		sponsor = &newsletter.Sponsor{
			CompanyName: cur.CompanyName,
			Pitch:       cur.Pitch,
			Website:     cur.Website,
			WeekStart:   cur.WeekStart,
			WeekEnd:     cur.WeekEnd,
		}
	}

	html, err := newsletter.Render(newsletter.Input{
		Records:      snap.Records,
		BaseURL:      s.cfg.BaseURL,
		DisplayDate:  time.Now().UTC().Format("January 2, 2006"),
		GainersLimit: s.cfg.GainersLimit,
		LosersLimit:  s.cfg.LosersLimit,
		Sponsor:      sponsor,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("render preview failed")
		http.Error(w, "failed to render newsletter", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s.writeError(w, r, http.StatusNotFound, "endpoint not found", false)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
