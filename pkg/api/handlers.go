package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"dex-swap/pkg/history"
	"dex-swap/pkg/market"
	"dex-swap/pkg/parser"
	"dex-swap/pkg/quote"
	"dex-swap/pkg/settings"
)

type errorResponse struct {
	Error string `json:"error"`
}

type quoteResponse struct {
	quote.Quote
	ImpactLevel quote.ImpactLevel `json:"impact_level"`
}

type historyResponse struct {
	Address      string          `json:"address"`
	Transactions []history.Entry `json:"transactions"`
}

type tokensResponse struct {
	Tokens []market.Token `json:"tokens"`
}

// settingsPatch carries the preferences a PUT changes; absent fields are kept
type settingsPatch struct {
	Theme    *string `json:"theme"`
	Language *string `json:"language"`
	Currency *string `json:"currency"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := parser.NormalizeTokenSymbol(q.Get("from"))
	to := parser.NormalizeTokenSymbol(q.Get("to"))
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	slippage := s.config.DefaultSlippage
	if raw := q.Get("slippage"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v >= 100 {
			writeError(w, http.StatusBadRequest, "slippage must be a number in [0, 100)")
			return
		}
		slippage = v
	}

	result := s.deps.Calculator.Compute(q.Get("amount"), from, to, slippage)
	level := result.ImpactLevel()
	s.metrics.QuotesComputed.WithLabelValues(string(level)).Inc()

	writeJSON(w, http.StatusOK, quoteResponse{Quote: result, ImpactLevel: level})
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tokensResponse{Tokens: s.deps.Registry.List()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	txs, err := s.deps.History.Transactions(r.Context(), address)
	if err != nil {
		if errors.Is(err, history.ErrInvalidAddress) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.metrics.HistoryErrors.Inc()
		log.Warn().Err(err).Str("address", address).Msg("History lookup failed")
		writeError(w, http.StatusBadGateway, "transaction history unavailable, retry later")
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Address:      strings.ToLower(address),
		Transactions: history.Annotate(txs, address),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Settings.Preferences())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var patch settingsPatch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	next := s.deps.Settings.Preferences()
	if patch.Theme != nil {
		next.Theme = settings.Theme(*patch.Theme)
	}
	if patch.Language != nil {
		next.Language = *patch.Language
	}
	if patch.Currency != nil {
		next.Currency = *patch.Currency
	}

	if err := s.deps.Settings.UpdatePreferences(next); err != nil {
		if errors.Is(err, settings.ErrInvalidValue) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("Failed to save preferences")
		writeError(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}

	s.metrics.SettingsWrites.Inc()
	writeJSON(w, http.StatusOK, s.deps.Settings.Preferences())
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Wallet.Snapshot())
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if account := r.URL.Query().Get("account"); account != "" {
		writeJSON(w, http.StatusOK, s.deps.Activity.ListByAccount(account))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Activity.List())
}
