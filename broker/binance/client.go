// Package binance implements broker.Gateway over the Binance spot REST API.
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rustyeddy/spottrader/broker"
	"github.com/rustyeddy/spottrader/pkg/clock"
)

const (
	DefaultBaseURL = "https://api.binance.com"
	// TestnetURL is the spot testnet, handy with testnet keys.
	TestnetURL = "https://testnet.binance.vision"

	DefaultRecvWindow = 5000 * time.Millisecond
	DefaultTimeout    = 10 * time.Second

	apiKeyHeader = "X-MBX-APIKEY"
)

type Config struct {
	APIKey     string
	APISecret  string
	BaseURL    string
	RecvWindow time.Duration
	Timeout    time.Duration
	// Clock stamps signed requests; defaults to the wall clock.
	Clock clock.Clock
}

// Client is safe for concurrent use. It never retries and does no
// client-side rate limiting; 429 and 418 surface as rate-limit errors.
type Client struct {
	http       *resty.Client
	key        string
	secret     []byte
	recvWindow int64
	clock      clock.Clock

	mu     sync.Mutex
	offset time.Duration
	// incs holds tick and step sizes seen by SymbolInfo, keyed by symbol.
	incs map[string]increments
}

var _ broker.Gateway = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RecvWindow <= 0 {
		cfg.RecvWindow = DefaultRecvWindow
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}

	h := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "spottrader")

	return &Client{
		http:       h,
		key:        cfg.APIKey,
		secret:     []byte(cfg.APISecret),
		recvWindow: cfg.RecvWindow.Milliseconds(),
		incs:       make(map[string]increments),
		clock:      cfg.Clock,
	}
}

// SyncTime measures the offset between the exchange clock and the local
// clock and applies it to every later signed request.
func (c *Client) SyncTime(ctx context.Context) (time.Duration, error) {
	before := c.clock.Now()
	server, err := c.ServerTime(ctx)
	if err != nil {
		return 0, err
	}
	after := c.clock.Now()
	mid := before.Add(after.Sub(before) / 2)
	off := server.Sub(mid)

	c.mu.Lock()
	c.offset = off
	c.mu.Unlock()
	return off, nil
}

func (c *Client) timestamp() int64 {
	c.mu.Lock()
	off := c.offset
	c.mu.Unlock()
	return c.clock.Now().Add(off).UnixMilli()
}

func (c *Client) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// signedQuery adds timestamp and recvWindow to params and returns the query
// string with its signature appended last.
func (c *Client) signedQuery(params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("recvWindow", strconv.FormatInt(c.recvWindow, 10))
	params.Set("timestamp", strconv.FormatInt(c.timestamp(), 10))
	qs := params.Encode()
	return qs + "&signature=" + c.sign(qs)
}

// The query string goes on the URL as built so the signed order is the
// order sent.
func (c *Client) public(ctx context.Context, op string, params url.Values, out any) error {
	path := op
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	resp, err := c.http.R().SetContext(ctx).Get(path)
	return decode(op, resp, err, out)
}

func (c *Client) signed(ctx context.Context, method, op string, params url.Values, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(apiKeyHeader, c.key).
		Execute(method, op+"?"+c.signedQuery(params))
	return decode(op, resp, err, out)
}
