package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storefront/config"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/telemetry"
	"storefront/pkg/payment"
)

// AuditRecorder persists verification outcomes. Implemented by repository.VerificationAuditRepository.
type AuditRecorder interface {
	Create(ctx context.Context, a *models.VerificationAudit) error
}

// VerifyRequest is one buyer's request to exchange a transaction reference for files.
type VerifyRequest struct {
	Reference string
	// Cart is the client-held cart, consulted only when transaction metadata carries none.
	Cart json.RawMessage

	RequestID string
	ClientIP  string
	UserAgent string
}

// Outcome pairs the HTTP status with the body to send.
type Outcome struct {
	Code   int
	Result models.VerificationResult
}

// VerificationService checks a payment with the processor and maps the paid cart to download URLs.
// It keeps no state between calls: a reference can be redeemed any number of times.
type VerificationService struct {
	cfg       config.VerificationConfig
	verifier  payment.Verifier
	catalog   *catalog.Catalog
	audit     AuditRecorder
	publisher events.Publisher
	metrics   *telemetry.Metrics
	log       *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewVerificationService(
	cfg config.VerificationConfig,
	verifier payment.Verifier,
	cat *catalog.Catalog,
	audit AuditRecorder,
	publisher events.Publisher,
	metrics *telemetry.Metrics,
	log *zap.Logger,
) *VerificationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &VerificationService{
		cfg:       cfg,
		verifier:  verifier,
		catalog:   cat,
		audit:     audit,
		publisher: publisher,
		metrics:   metrics,
		log:       log.With(zap.String("component", "verify")),
		tracer:    otel.Tracer("service/verification"),
		now:       time.Now,
	}
}

func (s *VerificationService) Verify(ctx context.Context, req VerifyRequest) Outcome {
	ctx, span := s.tracer.Start(ctx, "VerificationService.Verify")
	defer span.End()

	ref := strings.TrimSpace(req.Reference)
	log := s.log.With(zap.String("reference", ref), zap.String("request_id", req.RequestID))
	span.SetAttributes(attribute.String("payment.reference", ref))

	out := s.verify(ctx, log, ref, req)

	reason := out.Result.Reason
	s.metrics.RecordVerification(ctx, out.Result.Status, reason, len(out.Result.Files))
	span.SetAttributes(attribute.String("verify.outcome", out.Result.Status))
	if out.Result.Status == domain.ResultSuccess {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, reason)
	}
	return out
}

func (s *VerificationService) verify(ctx context.Context, log *zap.Logger, ref string, req VerifyRequest) Outcome {
	if ref == "" {
		return fail(http.StatusBadRequest, domain.ReasonMissingReference, "Missing reference")
	}
	if !s.verifier.Configured() {
		log.Error("payment processor secret is not configured")
		return fail(http.StatusInternalServerError, domain.ReasonServerNotConfigured, "Server not configured")
	}

	resp, err := s.verifier.VerifyTransaction(ctx, ref)
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			log.Error("payment processor secret is not configured")
			return fail(http.StatusInternalServerError, domain.ReasonServerNotConfigured, "Server not configured")
		}
		log.Error("processor verification call failed", zap.Error(err))
		return fail(http.StatusInternalServerError, domain.ReasonServerError, "Server error")
	}

	audit := &models.VerificationAudit{
		Reference: ref,
		Outcome:   domain.AuditOutcomeRejected,
		RequestID: req.RequestID,
		IP:        req.ClientIP,
		UserAgent: truncate(req.UserAgent, 512),
	}

	if !resp.Verified() {
		log.Warn("processor returned unexpected verification response",
			zap.Bool("status", resp.Status),
			zap.String("message", resp.Message),
		)
		out := fail(http.StatusBadRequest, domain.ReasonProcessorVerificationFailed, "Paystack verification failed")
		out.Result.Detail = resp.Raw
		s.record(ctx, log, audit, out)
		return out
	}

	tx := resp.Data
	audit.TxStatus = tx.Status
	audit.Received = tx.Amount
	audit.Currency = tx.Currency
	if tx.Status != domain.TxStatusSuccess {
		log.Info("transaction not successful", zap.String("tx_status", tx.Status))
		out := fail(http.StatusBadRequest, domain.ReasonTransactionNotSuccessful, "Transaction not successful")
		out.Result.TxStatus = tx.Status
		s.record(ctx, log, audit, out)
		return out
	}

	items, source := s.resolveCart(log, tx.Metadata, req.Cart)
	usedFallback := source == cart.SourceClient
	audit.CartSource = string(source)
	audit.UsedFallback = usedFallback

	expected := cart.ExpectedMinorAmount(items)
	audit.Expected = expected
	if expected != tx.Amount {
		log.Warn("amount mismatch",
			zap.Int64("expected", expected),
			zap.Int64("received", tx.Amount),
			zap.String("cart_source", string(source)),
		)
		out := fail(http.StatusBadRequest, domain.ReasonAmountMismatch, "Amount mismatch")
		out.Result.Expected = &expected
		received := tx.Amount
		out.Result.Received = &received
		out.Result.UsedFallback = usedFallback
		s.record(ctx, log, audit, out)
		return out
	}

	files, unmapped := s.catalog.Resolve(items)
	if len(unmapped) > 0 {
		log.Warn("cart items without mapped files", zap.Strings("items", unmapped))
	}
	if len(files) == 0 {
		log.Warn("no files mapped for cart items", zap.Int("items", len(items)))
	}

	out := Outcome{Code: http.StatusOK, Result: models.Succeeded(files, usedFallback)}
	audit.Outcome = domain.AuditOutcomeFulfilled
	audit.FileCount = len(files)
	s.record(ctx, log, audit, out)
	s.publish(ctx, log, ref, tx, items, files, usedFallback, req.RequestID)
	log.Info("verification fulfilled",
		zap.Int64("amount", tx.Amount),
		zap.Int("files", len(files)),
		zap.Bool("used_fallback", usedFallback),
	)
	return out
}

// resolveCart prefers processor-held metadata and only falls back to the client cart
// when metadata has none and the fallback is enabled.
func (s *VerificationService) resolveCart(log *zap.Logger, metadata, clientCart json.RawMessage) ([]cart.Item, cart.Source) {
	items, source := cart.FromMetadata(metadata)
	if source != cart.SourceNone {
		return items, source
	}
	if !s.cfg.AllowClientCart || len(clientCart) == 0 {
		return nil, cart.SourceNone
	}
	items, err := cart.ParseItems(clientCart)
	if err != nil || len(items) == 0 {
		return nil, cart.SourceNone
	}
	log.Warn("transaction metadata has no cart, using client-supplied cart")
	return items, cart.SourceClient
}

func (s *VerificationService) record(ctx context.Context, log *zap.Logger, a *models.VerificationAudit, out Outcome) {
	if s.audit == nil {
		return
	}
	a.Reason = out.Result.Reason
	if err := s.audit.Create(ctx, a); err != nil {
		log.Warn("failed to write verification audit", zap.Error(err))
	}
}

func (s *VerificationService) publish(ctx context.Context, log *zap.Logger, ref string, tx *payment.Transaction, items []cart.Item, files []string, usedFallback bool, requestID string) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Key())
	}
	err := s.publisher.PublishFulfillment(ctx, events.FulfillmentEvent{
		Reference:    ref,
		Amount:       tx.Amount,
		Currency:     tx.Currency,
		Files:        files,
		ItemIDs:      ids,
		UsedFallback: usedFallback,
		RequestID:    requestID,
		VerifiedAt:   s.now().UTC(),
	})
	if err != nil {
		log.Warn("failed to publish fulfillment event", zap.Error(err))
	}
}

func fail(code int, reason, message string) Outcome {
	return Outcome{Code: code, Result: models.Failed(reason, message)}
}

// truncate caps s at n bytes without splitting a rune. Invalid UTF-8 is dropped
// so the value always fits a utf8mb4 column.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
