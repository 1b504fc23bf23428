package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/market"
	"github.com/rustyeddy/tradejournal/risk"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// sizingRequest accepts prices as JSON numbers or numeric strings.
type sizingRequest struct {
	Instrument      string      `json:"instrument"`
	Direction       string      `json:"direction"`
	EntryPrice      json.Number `json:"entry_price"`
	StopLossPrice   json.Number `json:"stop_loss_price"`
	TakeProfitPrice json.Number `json:"take_profit_price"`
	RiskAmount      json.Number `json:"risk_amount"`
}

func (req sizingRequest) inputs() (risk.Inputs, error) {
	in, err := risk.ParseInputs(risk.RawInputs{
		Instrument:      req.Instrument,
		Direction:       req.Direction,
		EntryPrice:      req.EntryPrice.String(),
		StopLossPrice:   req.StopLossPrice.String(),
		TakeProfitPrice: req.TakeProfitPrice.String(),
		RiskAmount:      req.RiskAmount.String(),
	})
	if err != nil {
		return risk.Inputs{}, err
	}
	in.Instrument = market.NormalizeInstrument(in.Instrument)
	return in, nil
}

type tradeRequest struct {
	sizingRequest
	Pair               string `json:"pair"`
	Result             string `json:"result"`
	Observation        string `json:"observation"`
	PreTradeAttachment string `json:"pre_trade_attachment"`
}

type outcomeRequest struct {
	Result              *string `json:"result"`
	Observation         *string `json:"observation"`
	PostTradeAttachment *string `json:"post_trade_attachment"`
}

type sizingResponse struct {
	Instrument     string              `json:"instrument"`
	LotSize        decimal.Decimal     `json:"lot_size"`
	ExpectedProfit decimal.NullDecimal `json:"expected_profit"`
	PipSize        decimal.Decimal     `json:"pip_size"`
	StopPips       decimal.Decimal     `json:"stop_pips"`
	TargetPips     decimal.NullDecimal `json:"target_pips"`
	RR             decimal.Decimal     `json:"rr"`
	Warnings       []risk.Violation    `json:"warnings,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req sizingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.inputs()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.sizer.Compute(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sizingResponse{
		Instrument:     in.Instrument,
		LotSize:        res.LotSize,
		ExpectedProfit: res.ExpectedProfit,
		PipSize:        res.PipSize,
		StopPips:       res.StopPips,
		TargetPips:     res.TargetPips,
		RR:             res.RR,
		Warnings:       risk.Evaluate(s.policy, in, res).Violations,
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.inputs()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := journal.ParseOutcome(req.Result)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.sizer.Compute(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	d := journal.NewDraft(in, res)
	d.Pair = req.Pair
	d.Result = result
	d.Observation = req.Observation
	d.PreTradeAttachment = req.PreTradeAttachment

	rec, err := s.store.Append(r.Context(), s.scope(r), d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/trades/"+rec.ID)
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	trades, err := s.listFiltered(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	trades, err := s.listFiltered(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="trades.csv"`)
	if err := journal.WriteCSV(w, trades); err != nil {
		s.log.WithError(err).Error("csv export write failed")
	}
}

func (s *Server) handleExportOrg(w http.ResponseWriter, r *http.Request) {
	trades, err := s.listFiltered(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, journal.FormatTradesOrg(trades)); err != nil {
		s.log.WithError(err).Error("org export write failed")
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	trades, err := s.listFiltered(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, journal.Summarize(trades))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), s.scope(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateOutcome(w http.ResponseWriter, r *http.Request) {
	var req outcomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u := journal.OutcomeUpdate{
		Observation:         req.Observation,
		PostTradeAttachment: req.PostTradeAttachment,
	}
	if req.Result != nil {
		o, err := journal.ParseOutcome(*req.Result)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		u.Result = &o
	}

	rec, err := s.store.UpdateOutcome(r.Context(), s.scope(r), chi.URLParam(r, "id"), u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), s.scope(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listFiltered(r *http.Request) ([]journal.TradeRecord, error) {
	f, err := journal.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		return nil, err
	}
	return s.store.List(r.Context(), s.scope(r), f)
}

// decodeJSON decodes exactly one JSON value and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode body: %v", risk.ErrInvalidInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: body must contain a single JSON object", risk.ErrInvalidInput)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, journal.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, journal.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, journal.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	log := s.log.WithError(err).WithField("scope", string(s.scope(r)))
	if status >= http.StatusInternalServerError {
		// storage details stay in the log
		msg = http.StatusText(status)
		log.Error("request failed")
	} else {
		log.Debug("request rejected")
	}
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("response encode failed")
	}
}
