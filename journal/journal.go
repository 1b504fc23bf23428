// journal/journal.go
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/tradejournal/risk"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidInput is shared with the risk package so callers can
	// match either with one errors.Is.
	ErrInvalidInput = risk.ErrInvalidInput

	ErrNotFound           = errors.New("trade not found")
	ErrStorageUnavailable = errors.New("journal storage unavailable")
)

// Scope partitions a journal, usually by user. It is opaque to the
// journal; "" is the default scope.
type Scope string

type Outcome string

const (
	Unset     Outcome = ""
	Win       Outcome = "win"
	Loss      Outcome = "loss"
	Breakeven Outcome = "breakeven"
)

func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(strings.ToLower(strings.TrimSpace(s))); o {
	case Unset, Win, Loss, Breakeven:
		return o, nil
	}
	return "", fmt.Errorf("%w: unknown result %q", ErrInvalidInput, s)
}

func (o Outcome) Valid() bool {
	switch o {
	case Unset, Win, Loss, Breakeven:
		return true
	}
	return false
}

// Complete reports whether the trade has a recorded result.
func (o Outcome) Complete() bool {
	return o != Unset
}

// TradeRecord is one journal entry. LotSize and ExpectedProfit are
// computed when the record is created and never change afterwards.
type TradeRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Instrument string         `json:"instrument"`
	Pair       string         `json:"pair"`
	Direction  risk.Direction `json:"direction"`

	EntryPrice      decimal.Decimal     `json:"entry_price"`
	StopLossPrice   decimal.Decimal     `json:"stop_loss_price"`
	TakeProfitPrice decimal.NullDecimal `json:"take_profit_price"`
	RiskAmount      decimal.Decimal     `json:"risk_amount"`

	LotSize        decimal.Decimal     `json:"lot_size"`
	ExpectedProfit decimal.NullDecimal `json:"expected_profit"`

	Result              Outcome `json:"result"`
	Observation         string  `json:"observation"`
	PreTradeAttachment  string  `json:"pre_trade_attachment"`
	PostTradeAttachment string  `json:"post_trade_attachment"`
}

// Complete reports whether the trade has been closed out with a result.
func (t TradeRecord) Complete() bool {
	return t.Result.Complete()
}

// Draft is a TradeRecord before the store assigns ID and CreatedAt.
type Draft struct {
	Instrument string
	Pair       string
	Direction  risk.Direction

	EntryPrice      decimal.Decimal
	StopLossPrice   decimal.Decimal
	TakeProfitPrice decimal.NullDecimal
	RiskAmount      decimal.Decimal

	LotSize        decimal.Decimal
	ExpectedProfit decimal.NullDecimal

	Result              Outcome
	Observation         string
	PreTradeAttachment  string
	PostTradeAttachment string
}

// NewDraft bundles sizing inputs with the sizer's output.
func NewDraft(in risk.Inputs, res risk.Result) Draft {
	return Draft{
		Instrument:      in.Instrument,
		Direction:       in.Direction,
		EntryPrice:      in.EntryPrice,
		StopLossPrice:   in.StopLossPrice,
		TakeProfitPrice: in.TakeProfitPrice,
		RiskAmount:      in.RiskAmount,
		LotSize:         res.LotSize,
		ExpectedProfit:  res.ExpectedProfit,
	}
}

// Validate rejects drafts that could not have come out of the sizer.
func (d Draft) Validate() error {
	in := risk.Inputs{
		Direction:       d.Direction,
		EntryPrice:      d.EntryPrice,
		StopLossPrice:   d.StopLossPrice,
		TakeProfitPrice: d.TakeProfitPrice,
		RiskAmount:      d.RiskAmount,
	}
	if err := in.Validate(); err != nil {
		return err
	}
	if err := risk.CheckMagnitude("lot_size", d.LotSize); err != nil {
		return err
	}
	if d.LotSize.IsNegative() {
		return fmt.Errorf("%w: lot_size must not be negative", ErrInvalidInput)
	}
	if d.ExpectedProfit.Valid {
		if err := risk.CheckMagnitude("expected_profit", d.ExpectedProfit.Decimal); err != nil {
			return err
		}
	}
	if d.ExpectedProfit.Valid && d.ExpectedProfit.Decimal.IsNegative() {
		return fmt.Errorf("%w: expected_profit must not be negative", ErrInvalidInput)
	}
	if d.ExpectedProfit.Valid != d.TakeProfitPrice.Valid {
		return fmt.Errorf("%w: expected_profit requires take_profit_price", ErrInvalidInput)
	}
	if !d.Result.Valid() {
		return fmt.Errorf("%w: unknown result %q", ErrInvalidInput, d.Result)
	}
	return nil
}

func (d Draft) record(id string, created time.Time) TradeRecord {
	return TradeRecord{
		ID:                  id,
		CreatedAt:           created,
		Instrument:          d.Instrument,
		Pair:                d.Pair,
		Direction:           d.Direction,
		EntryPrice:          d.EntryPrice,
		StopLossPrice:       d.StopLossPrice,
		TakeProfitPrice:     d.TakeProfitPrice,
		RiskAmount:          d.RiskAmount,
		LotSize:             d.LotSize,
		ExpectedProfit:      d.ExpectedProfit,
		Result:              d.Result,
		Observation:         d.Observation,
		PreTradeAttachment:  d.PreTradeAttachment,
		PostTradeAttachment: d.PostTradeAttachment,
	}
}

// check reports why a stored record could not have come from Append or
// UpdateOutcome.
func (t TradeRecord) check() error {
	if t.ID == "" {
		return errors.New("missing id")
	}
	return Draft{
		Direction:       t.Direction,
		EntryPrice:      t.EntryPrice,
		StopLossPrice:   t.StopLossPrice,
		TakeProfitPrice: t.TakeProfitPrice,
		RiskAmount:      t.RiskAmount,
		LotSize:         t.LotSize,
		ExpectedProfit:  t.ExpectedProfit,
		Result:          t.Result,
	}.Validate()
}

// OutcomeUpdate closes out a trade. Nil fields are left unchanged.
type OutcomeUpdate struct {
	Result              *Outcome
	Observation         *string
	PostTradeAttachment *string
}

func (u OutcomeUpdate) Validate() error {
	if u.Result != nil && !u.Result.Valid() {
		return fmt.Errorf("%w: unknown result %q", ErrInvalidInput, *u.Result)
	}
	return nil
}

func (u OutcomeUpdate) apply(t *TradeRecord) {
	if u.Result != nil {
		t.Result = *u.Result
	}
	if u.Observation != nil {
		t.Observation = *u.Observation
	}
	if u.PostTradeAttachment != nil {
		t.PostTradeAttachment = *u.PostTradeAttachment
	}
}

type Filter string

const (
	FilterNone       Filter = ""
	FilterComplete   Filter = "complete"
	FilterIncomplete Filter = "incomplete"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterNone, FilterComplete, FilterIncomplete:
		return f, nil
	case "none", "all":
		return FilterNone, nil
	}
	return "", fmt.Errorf("%w: unknown filter %q", ErrInvalidInput, s)
}

// Match reports whether t belongs in a listing with filter f.
func (f Filter) Match(t TradeRecord) bool {
	switch f {
	case FilterComplete:
		return t.Complete()
	case FilterIncomplete:
		return !t.Complete()
	}
	return true
}

// Store persists trade records per scope. List returns records newest
// first. Every mutating call is durable before it returns.
type Store interface {
	Append(ctx context.Context, scope Scope, d Draft) (TradeRecord, error)
	Get(ctx context.Context, scope Scope, id string) (TradeRecord, error)
	UpdateOutcome(ctx context.Context, scope Scope, id string, u OutcomeUpdate) (TradeRecord, error)
	// Delete is a no-op when id does not exist.
	Delete(ctx context.Context, scope Scope, id string) error
	List(ctx context.Context, scope Scope, f Filter) ([]TradeRecord, error)
	Close() error
}

func notFound(scope Scope, id string) error {
	return fmt.Errorf("%w: %q in scope %q", ErrNotFound, id, scope)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
