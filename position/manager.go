// Package position runs the trading cycle for one symbol: enter, watch the
// take-profit and stop-loss thresholds, exit, re-enter below the exit, and
// halt after a run of losses.
package position

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rustyeddy/spottrader/broker"
	"github.com/rustyeddy/spottrader/journal"
	"github.com/rustyeddy/spottrader/market"
	"github.com/rustyeddy/spottrader/pkg/id"
	"github.com/rustyeddy/spottrader/risk"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Manager is not safe for concurrent use; Run is its only loop.
type Manager struct {
	deps    Deps
	sess    Session
	cons    market.SymbolConstraints
	policy  risk.Policy
	breaker *risk.LossBreaker
	log     *logrus.Entry

	state State
	pos   *Position
	// pending is the re-entry price waiting for RetryReentry.
	pending decimal.Decimal
	report  Report
}

func NewManager(sess Session, deps Deps) (*Manager, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if sess.Symbol == "" {
		sess.Symbol = deps.Constraints.Symbol
	}
	if sess.Symbol != deps.Constraints.Symbol {
		return nil, errors.Errorf("position: session symbol %s does not match constraints for %s", sess.Symbol, deps.Constraints.Symbol)
	}
	if sess.Interval <= 0 {
		sess.Interval = DefaultInterval
	}
	if sess.OrderType == "" {
		sess.OrderType = broker.Market
	}

	return &Manager{
		deps:    deps,
		sess:    sess,
		cons:    deps.Constraints,
		policy:  sess.policy(),
		breaker: risk.NewLossBreaker(sess.MaxLossCount),
		log:     deps.Log.WithFields(logrus.Fields{"component": "position", "symbol": sess.Symbol}),
		state:   Idle,
		report:  Report{Symbol: sess.Symbol},
	}, nil
}

func (m *Manager) State() State { return m.state }

// Position returns a copy of the open position, or nil when flat.
func (m *Manager) Position() *Position {
	if m.pos == nil {
		return nil
	}
	p := *m.pos
	return &p
}

func (m *Manager) ConsecutiveLosses() int { return m.breaker.Count() }

func (m *Manager) Report() Report {
	r := m.report
	r.State = m.state
	r.ConsecutiveLosses = m.breaker.Count()
	r.Position = m.Position()
	return r
}

func (m *Manager) fatal(reason string, err error) error {
	m.state = Halted
	m.pos = nil
	fe := &FatalError{Reason: reason, Err: err}
	m.log.Error(fe.Error())
	return fe
}

// Start sizes and places the first entry. Every failure here is fatal and
// leaves the manager Halted.
func (m *Manager) Start(ctx context.Context) error {
	if m.state != Idle {
		return errors.Errorf("position: start from state %s", m.state)
	}

	free, err := m.deps.Balances.Available(ctx, m.cons.QuoteAsset)
	if err != nil {
		return m.fatal("read quote balance", err)
	}
	alloc := risk.Allocation(free, m.sess.AllocationPct)
	if alloc.LessThan(m.cons.MinNotional) {
		return m.fatal("allocation "+alloc.String()+" below min notional "+m.cons.MinNotional.String(), nil)
	}

	var ref, limit decimal.Decimal
	switch m.sess.OrderType {
	case broker.Limit:
		limit = market.RoundPrice(m.sess.LimitPrice, m.cons.TickSize)
		if limit.LessThan(m.cons.MinPrice) || !limit.IsPositive() {
			return m.fatal("limit price "+limit.String()+" below min price "+m.cons.MinPrice.String(), nil)
		}
		ref = limit
	case broker.Market:
		ref, err = m.deps.Prices.LastPrice(ctx, m.sess.Symbol)
		if err != nil {
			return m.fatal("read last price", err)
		}
	default:
		return m.fatal("unsupported order type "+string(m.sess.OrderType), nil)
	}

	size := risk.Calculate(risk.Inputs{
		FreeQuote:      free,
		AllocationPct:  m.sess.AllocationPct,
		ReferencePrice: ref,
		Constraints:    m.cons,
	})
	if size.Qty.LessThan(m.cons.MinQty) || !size.Qty.IsPositive() {
		return m.fatal("quantity "+size.Qty.String()+" below min quantity "+m.cons.MinQty.String(), nil)
	}
	if size.Notional.LessThan(m.cons.MinNotional) {
		return m.fatal("notional "+size.Notional.String()+" below min notional "+m.cons.MinNotional.String(), nil)
	}
	if size.Capped {
		m.log.Warnf("quantity capped at max quantity %s", m.cons.MaxQty)
	}

	m.log.WithFields(logrus.Fields{
		"allocation": size.Allocation.String(),
		"qty":        size.Qty.String(),
		"reference":  ref.String(),
		"type":       m.sess.OrderType,
	}).Info("entering position")

	m.state = Entering
	res := m.deps.Orders.PlaceEntry(ctx, m.sess.OrderType, size.Qty, limit)
	if !res.Success {
		if res.Executed {
			m.log.WithField("order_id", res.OrderID).Error("entry executed but reported failure, check the account")
		}
		return m.fatal("entry failed", errors.New(res.Reason))
	}
	m.open(res.OrderID, res.Price, res.Qty)
	return nil
}

func (m *Manager) open(orderID string, price, qty decimal.Decimal) {
	entry := market.RoundPrice(price, m.cons.TickSize)
	th := m.policy.Thresholds(entry, m.cons.TickSize)
	now := m.deps.Clock.Now()

	m.pos = &Position{
		ID:           id.At(now),
		Symbol:       m.sess.Symbol,
		Qty:          qty,
		EntryPrice:   entry,
		TakeProfit:   th.TakeProfit,
		StopLoss:     th.StopLoss,
		EntryOrderID: orderID,
		OpenedAt:     now,
	}
	m.pending = decimal.Zero
	m.state = Open

	m.log.WithFields(logrus.Fields{
		"entry":       entry.String(),
		"qty":         qty.String(),
		"take_profit": th.TakeProfit.String(),
		"stop_loss":   th.StopLoss.String(),
		"reward_risk": risk.RR(entry, th).StringFixed(2),
	}).Info("position open")
}

// Tick runs one monitoring cycle. Recoverable failures are logged and
// reported through the Outcome; the next Tick retries.
func (m *Manager) Tick(ctx context.Context) Outcome {
	switch m.state {
	case Halted:
		return Stopped
	case Open, Closed:
	default:
		return Holding
	}

	price, err := m.deps.Prices.LastPrice(ctx, m.sess.Symbol)
	if err != nil {
		m.log.WithError(err).Warn("price unavailable, retrying next cycle")
		return NoPrice
	}

	if m.state == Closed {
		m.log.WithField("price", price.String()).Info("no open position")
		if m.sess.RetryReentry && m.pending.IsPositive() && m.reenter(ctx, m.pending) {
			return Reentered
		}
		return Flat
	}

	switch {
	case price.GreaterThanOrEqual(m.pos.TakeProfit):
		m.log.WithField("price", price.String()).Infof("take profit %s reached", m.pos.TakeProfit)
		return m.exit(ctx, true, price)
	case price.LessThanOrEqual(m.pos.StopLoss):
		m.log.WithField("price", price.String()).Warnf("stop loss %s reached", m.pos.StopLoss)
		return m.exit(ctx, false, price)
	}
	m.log.WithField("price", price.String()).Debug("holding")
	return Holding
}

func (m *Manager) exit(ctx context.Context, profit bool, last decimal.Decimal) Outcome {
	m.state = Exiting

	free, err := m.deps.Balances.Available(ctx, m.cons.BaseAsset)
	if err != nil {
		m.log.WithError(err).Error("read base balance for exit")
		m.state = Open
		return ExitFailed
	}
	qty := market.RoundQuantity(free, m.cons.StepSize)
	if qty.LessThan(m.cons.MinQty) || !qty.IsPositive() {
		m.log.Warnf("sellable %s %s below min quantity %s", qty, m.cons.BaseAsset, m.cons.MinQty)
		m.state = Open
		return ExitFailed
	}

	res := m.deps.Orders.PlaceExit(ctx, qty, decimal.Zero)
	if !res.Success {
		m.log.Errorf("exit failed, retrying next cycle: %s", res.Reason)
		m.state = Open
		return ExitFailed
	}
	sell := res.Price
	if !sell.IsPositive() {
		sell = last
	}

	m.record(profit, sell, res.Qty)
	m.pos = nil
	m.state = Closed

	out := StopLossExit
	if profit {
		out = TakeProfitExit
	}
	if m.breaker.Record(profit) {
		m.state = Halted
		m.log.Errorf("halted after %d consecutive losses", m.breaker.Count())
		return out
	}

	target := risk.ReentryTarget(sell, profit, m.cons.TickSize)
	if target.LessThan(m.cons.MinPrice) || !target.IsPositive() {
		m.log.Warnf("re-entry price %s below min price %s, staying flat", target, m.cons.MinPrice)
		return out
	}
	m.pending = target
	m.reenter(ctx, target)
	return out
}

// reenter places the limit buy below the last exit. Any failure leaves the
// manager Closed; it is never fatal.
func (m *Manager) reenter(ctx context.Context, target decimal.Decimal) bool {
	log := m.log.WithField("target", target.String())
	if !m.sess.RetryReentry {
		m.pending = decimal.Zero
	}

	free, err := m.deps.Balances.Available(ctx, m.cons.QuoteAsset)
	if err != nil {
		log.WithError(err).Warn("re-entry skipped, quote balance unavailable")
		return false
	}
	size := risk.Calculate(risk.Inputs{
		FreeQuote:      free,
		AllocationPct:  m.sess.AllocationPct,
		ReferencePrice: target,
		Constraints:    m.cons,
	})
	if dec := risk.CheckOrder(m.cons, size.Qty, target, true); !dec.Allowed {
		log.Warnf("re-entry skipped: %v", dec.Err())
		return false
	}

	log.WithField("qty", size.Qty.String()).Info("re-entering")
	res := m.deps.Orders.PlaceEntry(ctx, broker.Limit, size.Qty, target)
	if !res.Success {
		if res.Executed {
			log.WithField("order_id", res.OrderID).Error("re-entry executed but reported failure, check the account")
		} else {
			log.Warnf("re-entry failed: %s", res.Reason)
		}
		return false
	}
	m.open(res.OrderID, res.Price, res.Qty)
	return true
}

func (m *Manager) record(profit bool, sell, qty decimal.Decimal) {
	p := m.pos
	if qty.IsZero() {
		qty = p.Qty
	}
	pnl := risk.RealizedPnL(p.EntryPrice, sell, qty)

	m.report.RoundTrips++
	m.report.RealizedPnL = m.report.RealizedPnL.Add(pnl)
	reason := journal.ReasonStopLoss
	streak := m.breaker.Count() + 1
	if profit {
		m.report.Wins++
		reason = journal.ReasonTakeProfit
		streak = 0
	} else {
		m.report.Losses++
	}

	rec := journal.TradeRecord{
		TradeID:    p.ID,
		Symbol:     p.Symbol,
		Qty:        qty,
		EntryPrice: p.EntryPrice,
		ExitPrice:  sell,
		OpenTime:   p.OpenedAt,
		CloseTime:  m.deps.Clock.Now(),
		RealizedPL: pnl,
		Reason:     reason,
		LossStreak: streak,
	}
	if err := m.deps.Journal.RecordTrade(rec); err != nil {
		m.log.WithError(err).Error("journal trade")
	}
	m.log.WithFields(logrus.Fields{
		"exit":        sell.String(),
		"realized_pl": pnl.String(),
		"return_pct":  risk.ReturnPct(p.EntryPrice, sell).StringFixed(2),
		"loss_streak": streak,
	}).Infof("round trip closed (%s)", reason)
}

// Run starts the session and ticks every interval until the session halts
// or ctx is cancelled. Cancellation is a clean stop, not an error.
func (m *Manager) Run(ctx context.Context) (Report, error) {
	if err := m.Start(ctx); err != nil {
		if ctx.Err() != nil {
			m.log.Info("stopped before the first entry completed")
			return m.Report(), nil
		}
		return m.Report(), err
	}

	for m.state != Halted {
		if err := m.deps.Clock.Sleep(ctx, m.sess.Interval); err != nil {
			m.log.Info("shutting down")
			return m.Report(), nil
		}
		m.Tick(ctx)
	}
	m.log.Infof("session halted, final consecutive loss count %d", m.breaker.Count())
	return m.Report(), nil
}
