package binance

import (
	"encoding/json"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rustyeddy/spottrader/broker"
)

// Exchange error codes with a fixed meaning here.
const (
	codeInvalidSignature = -1022
	codeInvalidSymbol    = -1121
	codeUnknownOrder     = -2011
	codeNoSuchOrder      = -2013
	codeBadAPIKey        = -2014
	codeRejectedAPIKey   = -2015
)

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func classify(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &broker.Error{Kind: broker.KindNetwork, Op: op, Err: err}
	}
	if resp.IsSuccess() {
		return nil
	}

	e := &broker.Error{Op: op, Status: resp.StatusCode()}
	var body apiError
	if json.Unmarshal(resp.Body(), &body) == nil && (body.Code != 0 || body.Msg != "") {
		e.Code = body.Code
		e.Msg = body.Msg
	} else {
		e.Msg = http.StatusText(e.Status)
	}

	switch st := e.Status; {
	case st == http.StatusTooManyRequests || st == http.StatusTeapot:
		e.Kind = broker.KindRateLimit
	case st == http.StatusUnauthorized || st == http.StatusForbidden:
		e.Kind = broker.KindAuth
	case e.Code == codeBadAPIKey || e.Code == codeRejectedAPIKey || e.Code == codeInvalidSignature:
		e.Kind = broker.KindAuth
	case st >= 500:
		e.Kind = broker.KindNetwork
	case st >= 400:
		e.Kind = broker.KindRejected
	}

	switch e.Code {
	case codeInvalidSymbol:
		e.Err = broker.ErrUnknownSymbol
	case codeNoSuchOrder, codeUnknownOrder:
		e.Err = broker.ErrNotFound
	}
	return e
}

func decode(op string, resp *resty.Response, err error, out any) error {
	if err := classify(op, resp, err); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &broker.Error{Kind: broker.KindUnknown, Op: op, Status: resp.StatusCode(), Err: errors.Wrap(err, "decode response")}
	}
	return nil
}
