// Package currency converts USD amounts into a target currency using a
// remote exchange-rate endpoint, falling back to a fixed rate whenever the
// endpoint cannot be used.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/trackify/internal/logging"
	"github.com/dmitrijs2005/trackify/internal/metrics"
	"github.com/dmitrijs2005/trackify/internal/netx"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL      = "https://api.exchangerate.host"
	DefaultTarget       = "PHP"
	DefaultFallbackRate = 56.0

	connectTimeout = 6 * time.Second
	requestTimeout = 8 * time.Second
)

// Conversion is the outcome of Convert. Live is false when the fallback
// rate was used.
type Conversion struct {
	Amount decimal.Decimal
	Result decimal.Decimal
	From   string
	To     string
	Live   bool
}

type Options struct {
	BaseURL      string
	To           string
	FallbackRate float64
	Logger       logging.Logger
	Metrics      *metrics.Metrics
	// HTTPClient overrides the default client with connect and request
	// timeouts.
	HTTPClient *http.Client
}

type Converter struct {
	baseURL  string
	to       string
	fallback decimal.Decimal
	client   *http.Client
	logger   logging.Logger
	metrics  *metrics.Metrics
}

func NewConverter(opts Options) *Converter {
	c := &Converter{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		to:       strings.ToUpper(strings.TrimSpace(opts.To)),
		fallback: decimal.NewFromFloat(opts.FallbackRate),
		client:   opts.HTTPClient,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.to == "" {
		c.to = DefaultTarget
	}
	if opts.FallbackRate <= 0 {
		c.fallback = decimal.NewFromFloat(DefaultFallbackRate)
	}
	if c.client == nil {
		c.client = netx.NewClient(connectTimeout, requestTimeout)
	}
	if c.logger == nil {
		c.logger = logging.Nop()
	}
	c.logger = c.logger.With("module", "currency")
	return c
}

func (c *Converter) Target() string {
	return c.to
}

// Convert never fails; any problem with the remote call results in the
// fallback rate being applied.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal) Conversion {
	result, err := c.fetch(ctx, amount)
	if err != nil {
		c.logger.Warn(ctx, "exchange rate lookup failed, using fallback rate",
			"to", c.to, "fallback_rate", c.fallback.String(), "err", err)
		c.metrics.CurrencyConversion(false)
		return c.ConvertUsingFallback(amount)
	}

	c.metrics.CurrencyConversion(true)
	return Conversion{Amount: amount, Result: result, From: "USD", To: c.to, Live: true}
}

// ConvertUsingFallback applies the configured fixed rate without any
// network I/O.
func (c *Converter) ConvertUsingFallback(amount decimal.Decimal) Conversion {
	return Conversion{
		Amount: amount,
		Result: amount.Mul(c.fallback),
		From:   "USD",
		To:     c.to,
	}
}

type convertResponse struct {
	Result *decimal.Decimal `json:"result"`
	Rate   *decimal.Decimal `json:"rate"`
	Info   struct {
		Rate *decimal.Decimal `json:"rate"`
	} `json:"info"`
}

func (c *Converter) fetch(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("from", "USD")
	q.Set("to", c.to)
	q.Set("amount", amount.String())

	body, err := netx.GetJSON(ctx, c.client, c.baseURL+"/convert?"+q.Encode())
	if err != nil {
		return decimal.Zero, err
	}

	var resp convertResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("malformed response: %w", err)
	}

	switch {
	case resp.Result != nil:
		return *resp.Result, nil
	case resp.Rate != nil:
		return amount.Mul(*resp.Rate), nil
	case resp.Info.Rate != nil:
		return amount.Mul(*resp.Info.Rate), nil
	}
	return decimal.Zero, fmt.Errorf("response has neither result nor rate")
}
