// Package oanda fetches candles from the OANDA v3 REST API.
package oanda

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	PracticeURL = "https://api-fxpractice.oanda.com"
	LiveURL     = "https://api-fxtrade.oanda.com"
)

type Client struct {
	BaseURL string // e.g. https://api-fxpractice.oanda.com
	Token   string
	HTTP    *http.Client

	// IncludeIncomplete keeps the still-forming latest candle in provider
	// results.
	IncludeIncomplete bool
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func BaseURL(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "practice", "demo":
		return PracticeURL, nil
	case "live", "trade":
		return LiveURL, nil
	default:
		return "", fmt.Errorf("unknown OANDA env %q (want practice|live)", env)
	}
}
