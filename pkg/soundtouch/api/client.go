// Package api is the request/response side of the device protocol: XML
// over HTTP on port 8090 and DLNA SOAP on port 8091.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/apperrors"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/xmlq"
)

const (
	DefaultPort     = 8090
	DefaultDLNAPort = 8091
	DefaultTimeout  = 10 * time.Second

	userAgent = "soundtouch-hub-go"
)

// Config configures a Client. Zero values take the defaults.
type Config struct {
	Port       int
	DLNAPort   int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the HTTP API of one device.
type Client struct {
	host       string
	port       int
	dlnaPort   int
	httpClient *http.Client
}

// NewClient creates a client for host.
func NewClient(host string, cfg Config) *Client {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.DLNAPort == 0 {
		cfg.DLNAPort = DefaultDLNAPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: cfg.Timeout}).DialContext,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		host:       host,
		port:       cfg.Port,
		dlnaPort:   cfg.DLNAPort,
		httpClient: httpClient,
	}
}

// Host returns the device host.
func (c *Client) Host() string {
	return c.host
}

// Port returns the HTTP API port.
func (c *Client) Port() int {
	return c.port
}

// DLNAPort returns the DLNA port.
func (c *Client) DLNAPort() int {
	return c.dlnaPort
}

func (c *Client) baseURL(port int) string {
	return "http://" + net.JoinHostPort(c.host, strconv.Itoa(port))
}

// getDocument fetches path and parses the answer.
func (c *Client) getDocument(ctx context.Context, path string) (*etree.Document, error) {
	payload, err := c.do(ctx, http.MethodGet, c.baseURL(c.port)+path, nil, nil)
	if err != nil {
		return nil, err
	}
	return xmlq.Parse(payload)
}

// post sends an XML body to path.
func (c *Client) post(ctx context.Context, path, body string) error {
	_, err := c.do(ctx, http.MethodPost, c.baseURL(c.port)+path, []byte(body), map[string]string{
		"Content-Type": "application/xml",
	})
	return err
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, headers map[string]string) ([]byte, error) {
	op := method + " " + url

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, apperrors.NewTransportError(op, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, apperrors.NewTimeoutError(op, err)
		}
		return nil, apperrors.NewTransportError(op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewTransportError(op, err)
	}

	if resp.StatusCode >= 400 {
		return nil, apperrors.NewRejectedError(op, resp.StatusCode)
	}
	return payload, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// render serializes a request element built with etree.
func render(el *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("render %s: %w", el.Tag, err)
	}
	return out, nil
}
