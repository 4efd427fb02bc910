// Package api is the HTTP plumbing under the interpretation client and the
// execution gateway: one pooled client per backend with httptrace-derived
// timing metrics on every call.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"vira/log"
)

// ServiceError carries a non-2xx response verbatim: Status is the server's
// status line ("500 Internal Server Error"), which already includes the code.
type ServiceError struct {
	Code   int
	Status string
}

func (e *ServiceError) Error() string {
	return "server responded with " + e.Status
}

type Metrics struct {
	DNS        time.Duration
	TCP        time.Duration
	TLS        time.Duration
	TTFB       time.Duration
	Download   time.Duration
	Total      time.Duration
	ConnReused bool
}

type Response struct {
	Body       []byte
	StatusCode int
	Header     http.Header
	Metrics    *Metrics
}

type Client struct {
	base   string
	token  string
	client *http.Client
}

// New builds a client for the given API base URL (e.g.
// "http://localhost:8000/api"). token, when non-empty, is sent as a Bearer
// credential; refreshing it is someone else's problem.
func New(base, token string) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) Base() string { return c.base }

// Warm pre-establishes the TCP+TLS connection so the first real request
// doesn't pay the handshake.
func (c *Client) Warm() {
	req, err := http.NewRequest(http.MethodHead, c.base, nil)
	if err != nil {
		return
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// Do executes the request with client tracing attached. A non-2xx status is
// returned as *ServiceError alongside the response, whose body is still
// populated.
func (c *Client) Do(req *http.Request) (*Response, error) {
	metrics := &Metrics{}
	var dnsStart, tcpStart, tlsStart, wroteRequest, firstByte time.Time

	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			metrics.ConnReused = info.Reused
		},
		DNSStart:          func(_ httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone:           func(_ httptrace.DNSDoneInfo) { metrics.DNS = time.Since(dnsStart) },
		ConnectStart:      func(_, _ string) { tcpStart = time.Now() },
		ConnectDone:       func(_, _ string, _ error) { metrics.TCP = time.Since(tcpStart) },
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone:  func(_ tls.ConnectionState, _ error) { metrics.TLS = time.Since(tlsStart) },
		WroteRequest:      func(_ httptrace.WroteRequestInfo) { wroteRequest = time.Now() },
		GotFirstResponseByte: func() {
			firstByte = time.Now()
			metrics.TTFB = firstByte.Sub(wroteRequest)
		},
	}

	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	reqStart := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !firstByte.IsZero() {
		metrics.Download = time.Since(firstByte)
	}
	metrics.Total = time.Since(reqStart)

	log.Request(req.URL.Path, log.RequestMetrics{
		DNSMs:      float64(metrics.DNS) / float64(time.Millisecond),
		TCPMs:      float64(metrics.TCP) / float64(time.Millisecond),
		TLSMs:      float64(metrics.TLS) / float64(time.Millisecond),
		TTFBMs:     float64(metrics.TTFB) / float64(time.Millisecond),
		TotalMs:    float64(metrics.Total) / float64(time.Millisecond),
		ConnReused: metrics.ConnReused,
	})

	r := &Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Metrics:    metrics,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return r, &ServiceError{Code: resp.StatusCode, Status: resp.Status}
	}
	return r, nil
}

// PostJSON marshals body and POSTs it to base+path.
func (c *Client) PostJSON(ctx context.Context, path string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(req)
}

// PostMultipart uploads data as a single file field plus optional extra
// string fields.
func (c *Client) PostMultipart(ctx context.Context, path, field, filename string, data []byte, extra map[string]string) (*Response, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	for k, v := range extra {
		writer.WriteField(k, v)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.Do(req)
}

// Get fetches base+path.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}
