// Package client talks to the ledger HTTP API. It backs the watch command.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/eduserv/ledger/internal/app/models/dto"
	"github.com/eduserv/ledger/internal/pkg/apperrors"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
	// RequestsPerSecond caps outgoing calls; zero means unlimited.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client is a typed wrapper over /api/v1.
type Client struct {
	base    *url.URL
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

// New validates the base URL and builds a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", opts.BaseURL)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &Client{base: base, token: opts.Token, http: httpClient, limiter: limiter}, nil
}

// APIError is a non-2xx reply. It unwraps to the matching apperrors kind.
type APIError struct {
	Status  int
	Code    dto.ErrorCode
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("api %d %s: %s (field %s)", e.Status, e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return apperrors.ErrValidationFailed
	case http.StatusNotFound:
		return apperrors.ErrResourceNotFound
	case http.StatusConflict:
		return apperrors.ErrConflict
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusForbidden:
		return apperrors.ErrPermissionDenied
	}
	return nil
}

type envelope[T any] struct {
	Success bool             `json:"success"`
	Data    T                `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

func do[T any](ctx context.Context, c *Client, method, path string, query url.Values, body interface{}) (T, error) {
	var zero T
	if err := c.limiter.Wait(ctx); err != nil {
		return zero, err
	}

	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return zero, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return zero, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return zero, fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Field = env.Error.Field
		}
		return zero, apiErr
	}
	return env.Data, nil
}

// ListStudents returns the registry, optionally narrowed by bucket and query.
func (c *Client) ListStudents(ctx context.Context, bucket, q string) ([]dto.StudentResponse, error) {
	query := url.Values{}
	if bucket != "" {
		query.Set("bucket", bucket)
	}
	if q != "" {
		query.Set("q", q)
	}
	return do[[]dto.StudentResponse](ctx, c, http.MethodGet, "/students", query, nil)
}

// Summary returns bucket counts and totals.
func (c *Client) Summary(ctx context.Context) (dto.SummaryResponse, error) {
	return do[dto.SummaryResponse](ctx, c, http.MethodGet, "/students/summary", nil, nil)
}

// ListPrograms returns the program catalog.
func (c *Client) ListPrograms(ctx context.Context) ([]dto.ProgramResponse, error) {
	return do[[]dto.ProgramResponse](ctx, c, http.MethodGet, "/programs", nil, nil)
}

// ListFees returns the fee catalog.
func (c *Client) ListFees(ctx context.Context) ([]dto.FeeResponse, error) {
	return do[[]dto.FeeResponse](ctx, c, http.MethodGet, "/fees", nil, nil)
}

// QueryExpenses returns the expense report for an optional range.
func (c *Client) QueryExpenses(ctx context.Context, startDate, endDate string) (dto.ExpenseReportResponse, error) {
	query := url.Values{}
	if startDate != "" {
		query.Set("start_date", startDate)
	}
	if endDate != "" {
		query.Set("end_date", endDate)
	}
	return do[dto.ExpenseReportResponse](ctx, c, http.MethodGet, "/expenses", query, nil)
}

// Balance returns one student's balance breakdown.
func (c *Client) Balance(ctx context.Context, studentID int64) (dto.BalanceResponse, error) {
	return do[dto.BalanceResponse](ctx, c, http.MethodGet, "/students/"+strconv.FormatInt(studentID, 10)+"/balance", nil, nil)
}

// RecordPayment posts one payment for a student.
func (c *Client) RecordPayment(ctx context.Context, studentID int64, req dto.RecordPaymentRequest) (dto.PaymentResponse, error) {
	return do[dto.PaymentResponse](ctx, c, http.MethodPost, "/students/"+strconv.FormatInt(studentID, 10)+"/payments", nil, req)
}
