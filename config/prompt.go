package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

type question struct {
	label string
	dst   *string
	// ask reports whether the question applies; nil always applies.
	ask func() bool
}

func (c *Config) questions(live bool) []question {
	isLive := func() bool { return live }
	isLimit := func() bool { return strings.EqualFold(c.Trading.OrderType, "LIMIT") }
	return []question{
		{label: "Binance API key", dst: &c.Exchange.APIKey, ask: isLive},
		{label: "Binance API secret", dst: &c.Exchange.APISecret, ask: isLive},
		{label: "Symbol (e.g. BNBUSDT)", dst: &c.Trading.Symbol},
		{label: "Order type (MARKET or LIMIT)", dst: &c.Trading.OrderType},
		{label: "Limit entry price", dst: &c.Trading.LimitPrice, ask: isLimit},
		{label: "Allocation % of free quote balance", dst: &c.Trading.AllocationPct},
		{label: "Take profit %", dst: &c.Trading.ProfitPct},
		{label: "Stop loss %", dst: &c.Trading.LossPct},
	}
}

// Missing lists the labels of the operator inputs that are still empty.
func (c *Config) Missing(live bool) []string {
	var out []string
	for _, q := range c.questions(live) {
		if *q.dst == "" && (q.ask == nil || q.ask()) {
			out = append(out, q.label)
		}
	}
	return out
}

// Prompt asks on out, and reads from in, for every operator input still
// empty. Answers are not validated here.
func (c *Config) Prompt(in io.Reader, out io.Writer, live bool) error {
	r := bufio.NewReader(in)
	for _, q := range c.questions(live) {
		if *q.dst != "" || (q.ask != nil && !q.ask()) {
			continue
		}
		fmt.Fprintf(out, "%s: ", q.label)
		line, err := r.ReadString('\n')
		answer := strings.TrimSpace(line)
		if err != nil && (err != io.EOF || answer == "") {
			return errors.Wrapf(err, "read %s", q.label)
		}
		*q.dst = answer
	}
	return nil
}
