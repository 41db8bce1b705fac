package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultPaystackBaseURL = "https://api.paystack.co"

// PaystackProvider verifies transactions against the Paystack REST API.
type PaystackProvider struct {
	BaseURL    string
	SecretKey  string
	MaxTries   uint
	RetryDelay time.Duration

	client *http.Client
	log    *zap.Logger
	tracer trace.Tracer
	// observe is called with the duration of every HTTP attempt.
	observe func(ctx context.Context, d time.Duration, statusCode int)
}

type PaystackOption func(*PaystackProvider)

// WithHTTPClient replaces the default client (tests point it at httptest servers).
func WithHTTPClient(c *http.Client) PaystackOption {
	return func(p *PaystackProvider) { p.client = c }
}

func WithLogger(log *zap.Logger) PaystackOption {
	return func(p *PaystackProvider) { p.log = log }
}

// WithRetry sets the total number of attempts and the pause between them.
func WithRetry(maxTries uint, delay time.Duration) PaystackOption {
	return func(p *PaystackProvider) {
		p.MaxTries = maxTries
		p.RetryDelay = delay
	}
}

// WithObserver registers a callback for per-attempt latency.
func WithObserver(fn func(ctx context.Context, d time.Duration, statusCode int)) PaystackOption {
	return func(p *PaystackProvider) { p.observe = fn }
}

func NewPaystackProvider(baseURL, secretKey string, timeout time.Duration, opts ...PaystackOption) *PaystackProvider {
	if baseURL == "" {
		baseURL = defaultPaystackBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &PaystackProvider{
		BaseURL:    baseURL,
		SecretKey:  secretKey,
		MaxTries:   2,
		RetryDelay: 500 * time.Millisecond,
		client:     &http.Client{Timeout: timeout},
		log:        zap.NewNop(),
		tracer:     otel.Tracer("payment/paystack"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PaystackProvider) Configured() bool {
	return p.SecretKey != ""
}

// retryableError marks a failed attempt that is worth repeating (transport error or 5xx).
type retryableError struct {
	statusCode int
	err        error
}

func (e *retryableError) Error() string {
	if e.statusCode > 0 {
		return fmt.Sprintf("paystack verify: %d", e.statusCode)
	}
	return fmt.Sprintf("paystack verify: %v", e.err)
}

func (e *retryableError) Unwrap() error { return e.err }

// VerifyTransaction calls GET /transaction/verify/:reference. Any JSON body below 500 is
// decoded and returned as-is, including status=false envelopes; callers decide what to trust.
func (p *PaystackProvider) VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	ctx, span := p.tracer.Start(ctx, "paystack.VerifyTransaction",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("payment.reference", reference)),
	)
	defer span.End()

	endpoint := p.BaseURL + "/transaction/verify/" + url.PathEscape(reference)
	tries := p.MaxTries
	if tries == 0 {
		tries = 1
	}
	op := func() (*VerifyResponse, error) {
		return p.doVerify(ctx, endpoint)
	}
	out, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.RetryDelay)),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(func(err error, next time.Duration) {
			p.log.Warn("paystack verify attempt failed, retrying",
				zap.String("reference", reference),
				zap.Duration("backoff", next),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Bool("payment.verified", out.Verified()))
	span.SetStatus(codes.Ok, "")
	return out, nil
}

func (p *PaystackProvider) doVerify(ctx context.Context, endpoint string) (*VerifyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+p.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.record(ctx, start, 0)
		return nil, &retryableError{err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	p.record(ctx, start, resp.StatusCode)
	if err != nil {
		return nil, &retryableError{err: err}
	}
	p.log.Debug("paystack verify response",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &retryableError{statusCode: resp.StatusCode}
	}
	var out VerifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("paystack verify: decode %d response: %w", resp.StatusCode, err))
	}
	out.Raw = json.RawMessage(body)
	return &out, nil
}

func (p *PaystackProvider) record(ctx context.Context, start time.Time, statusCode int) {
	if p.observe != nil {
		p.observe(ctx, time.Since(start), statusCode)
	}
}
