package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-web/internal/domain"
)

const (
	opCreateTicket  = "create_ticket"
	opGetTicket     = "get_ticket"
	opGetHistory    = "get_ticket_history"
	opListTickets   = "list_tickets"
	opUpdateStatus  = "update_ticket_status"
	requestIDHeader = "X-Request-Id"
)

// Recorder receives one observation per API call.
type Recorder interface {
	RecordUpstream(operation string, ok bool, duration time.Duration)
}

// Config configures a Client. BaseURL is required; the rest is optional.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
	Recorder   Recorder
}

// Client calls the remote ticket API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
	recorder   Recorder
}

// New builds a client for cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("apiclient: base url required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: base url must be absolute, got %q", raw)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		logger:     logger,
		recorder:   cfg.Recorder,
	}, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type ticketListResponse struct {
	Tickets []domain.Ticket `json:"tickets"`
}

type historyResponse struct {
	History []domain.HistoryEntry `json:"history"`
}

// CreateTicket submits a new ticket and returns the server representation,
// which always carries the assigned ticket id.
func (c *Client) CreateTicket(ctx context.Context, input domain.NewTicket) (*domain.Ticket, error) {
	var created domain.Ticket
	if err := c.do(ctx, opCreateTicket, http.MethodPost, c.endpoint(nil, "api", "tickets"), input, &created); err != nil {
		return nil, c.fail(opCreateTicket, "failed to create ticket", err)
	}
	if created.ID == "" {
		return nil, c.fail(opCreateTicket, "failed to create ticket", errors.New("response missing ticket_id"))
	}
	return &created, nil
}

// GetTicket fetches one ticket. A JSON null body yields (nil, nil).
func (c *Client) GetTicket(ctx context.Context, id domain.TicketID) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	if err := c.do(ctx, opGetTicket, http.MethodGet, c.endpoint(nil, "api", "tickets", id.String()), nil, &ticket); err != nil {
		return nil, c.fail(opGetTicket, "failed to fetch ticket details", err)
	}
	return ticket, nil
}

// GetTicketHistory fetches the status history of a ticket in server order.
func (c *Client) GetTicketHistory(ctx context.Context, id domain.TicketID) ([]domain.HistoryEntry, error) {
	var resp historyResponse
	if err := c.do(ctx, opGetHistory, http.MethodGet, c.endpoint(nil, "api", "tickets", id.String(), "history"), nil, &resp); err != nil {
		return nil, c.fail(opGetHistory, "failed to fetch ticket history", err)
	}
	if resp.History == nil {
		resp.History = []domain.HistoryEntry{}
	}
	return resp.History, nil
}

// ListTickets fetches tickets, filtered server-side when status is set.
func (c *Client) ListTickets(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	var query url.Values
	if status != "" {
		query = url.Values{"status": []string{string(status)}}
	}
	var resp ticketListResponse
	if err := c.do(ctx, opListTickets, http.MethodGet, c.endpoint(query, "api", "tickets"), nil, &resp); err != nil {
		return nil, c.fail(opListTickets, "failed to fetch tickets", err)
	}
	if resp.Tickets == nil {
		resp.Tickets = []domain.Ticket{}
	}
	return resp.Tickets, nil
}

// UpdateTicketStatus transitions a ticket and returns the server response
// untouched. Every call appends history on the server side unless the
// server decides otherwise.
func (c *Client) UpdateTicketStatus(ctx context.Context, id domain.TicketID, change domain.StatusChange) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, opUpdateStatus, http.MethodPut, c.endpoint(nil, "api", "tickets", id.String(), "status"), change, &raw); err != nil {
		return nil, c.fail(opUpdateStatus, "failed to update ticket status", err)
	}
	return raw, nil
}

// Ping checks that the API answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(nil), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) endpoint(query url.Values, segments ...string) string {
	u := *c.baseURL
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.Join(escaped, "/")
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body any, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.recorder != nil {
			c.recorder.RecordUpstream(op, err == nil, time.Since(start))
		}
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		req.Header.Set(requestIDHeader, rid)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ticket api http error: %s", resp.Status)
	}
	if !json.Valid(data) {
		return errors.New("ticket api returned malformed json")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) fail(op, message string, cause error) error {
	c.logger.Warn("ticket api call failed", zap.String("operation", op), zap.Error(cause))
	return failed(op, message, cause)
}

type requestIDKey struct{}

// WithRequestID attaches a request id that outgoing calls forward.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
