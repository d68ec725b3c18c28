package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/warehouse-manage/api/internal/domain"
	"github.com/warehouse-manage/api/internal/repositories"
)

const (
	defaultAttemptTTL     = 15 * time.Minute
	defaultReceiptTimeout = 10 * time.Second
)

var (
	// ErrSubmissionCustomerRequired indicates no customer was selected.
	ErrSubmissionCustomerRequired = errors.New("submission: customer is required")
	// ErrSubmissionDelivererRequired indicates no deliverer was selected.
	ErrSubmissionDelivererRequired = errors.New("submission: deliverer is required")
	// ErrSubmissionDateRequired indicates a place order is missing its delivery date.
	ErrSubmissionDateRequired = errors.New("submission: delivery date is required")
	// ErrSubmissionNoLines indicates the order has no complete line items.
	ErrSubmissionNoLines = errors.New("submission: at least one complete line is required")
	// ErrSubmissionAttemptNotFound indicates the attempt id is unknown or expired.
	ErrSubmissionAttemptNotFound = errors.New("submission: attempt not found")
	// ErrSubmissionInvalidState indicates the attempt cannot transition from its current state.
	ErrSubmissionInvalidState = errors.New("submission: attempt state invalid")
	// ErrSubmissionFailed indicates the order store rejected the payload. The
	// attempt keeps its payload so the caller can retry without re-entering data.
	ErrSubmissionFailed = errors.New("submission: order creation failed")
)

// attemptState tracks one submission attempt through the gate machine.
type attemptState string

const (
	stateForecasting          attemptState = "forecasting"
	stateAwaitingConfirmation attemptState = "awaiting_confirmation"
	stateCommitting           attemptState = "committing"
	stateFailed               attemptState = "failed"
)

// submissionAttempt freezes the payload and forecast report produced at
// forecast time. Confirm commits exactly this snapshot; live edits made while
// the shortage warning is showing are never picked up.
type submissionAttempt struct {
	ID        string
	State     attemptState
	Payload   repositories.OrderCreateRequest
	Breakdown domain.OrderBreakdown
	Report    domain.ForecastReport
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// SubmissionWorkflowDeps bundles the collaborators the workflow requires.
type SubmissionWorkflowDeps struct {
	Catalog     CatalogService
	Resolver    UnitResolver
	Pricing     OrderPricingEngine
	Forecast    ForecastEngine
	Orders      repositories.OrderRepository
	Receipts    repositories.ReceiptRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
	// AttemptTTL bounds how long a parked shortage confirmation stays valid.
	AttemptTTL time.Duration
	// ReceiptTimeout bounds the fire-and-forget receipt render call.
	ReceiptTimeout time.Duration
}

type submissionWorkflow struct {
	catalog  CatalogService
	resolver UnitResolver
	pricing  OrderPricingEngine
	forecast ForecastEngine
	orders   repositories.OrderRepository
	receipts repositories.ReceiptRepository

	now            func() time.Time
	newID          func() string
	logger         func(context.Context, string, map[string]any)
	attemptTTL     time.Duration
	receiptTimeout time.Duration

	mu       sync.Mutex
	attempts map[string]*submissionAttempt
}

// NewSubmissionWorkflow wires dependencies into a concrete SubmissionWorkflow.
func NewSubmissionWorkflow(deps SubmissionWorkflowDeps) (SubmissionWorkflow, error) {
	if deps.Catalog == nil {
		return nil, errors.New("submission workflow: catalog service is required")
	}
	if deps.Resolver == nil {
		return nil, errors.New("submission workflow: unit resolver is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("submission workflow: pricing engine is required")
	}
	if deps.Forecast == nil {
		return nil, errors.New("submission workflow: forecast engine is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("submission workflow: order repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	ttl := deps.AttemptTTL
	if ttl <= 0 {
		ttl = defaultAttemptTTL
	}
	receiptTimeout := deps.ReceiptTimeout
	if receiptTimeout <= 0 {
		receiptTimeout = defaultReceiptTimeout
	}

	return &submissionWorkflow{
		catalog:  deps.Catalog,
		resolver: deps.Resolver,
		pricing:  deps.Pricing,
		forecast: deps.Forecast,
		orders:   deps.Orders,
		receipts: deps.Receipts,
		now: func() time.Time {
			return clock().UTC()
		},
		newID:          idGen,
		logger:         logger,
		attemptTTL:     ttl,
		receiptTimeout: receiptTimeout,
		attempts:       make(map[string]*submissionAttempt),
	}, nil
}

// Submit validates the draft, normalizes its line items, and either commits
// directly or parks behind the shortage gate. No network call happens before
// validation passes.
func (w *submissionWorkflow) Submit(ctx context.Context, cmd SubmitOrderCommand) (SubmissionResult, error) {
	order := cmd.Order
	if err := w.validate(order, cmd.PlaceOrder); err != nil {
		return SubmissionResult{}, err
	}

	catalog, err := w.catalog.LoadCatalog(ctx)
	if err != nil {
		return SubmissionResult{}, err
	}

	payload, normalized, err := w.buildPayload(order, catalog)
	if err != nil {
		return SubmissionResult{}, err
	}
	breakdown := w.pricing.Quote(normalized)

	runForecast := order.DeliveryDate != nil && !order.DeliveryDate.IsZero() && !cmd.Force
	if !runForecast {
		created, err := w.commit(ctx, payload)
		if err != nil {
			return SubmissionResult{}, err
		}
		return SubmissionResult{Status: SubmissionCommitted, Order: created, Breakdown: breakdown}, nil
	}

	attempt := w.newAttempt(payload, breakdown)
	report, err := w.forecast.Forecast(ctx, *order.DeliveryDate, normalized.Lines)
	if err != nil {
		w.dropAttempt(attempt.ID)
		return SubmissionResult{}, err
	}

	// The attempt may have been cancelled while the projection call was in
	// flight; a stale response must not advance the machine.
	if !w.finishForecast(attempt.ID, report) {
		w.logger(ctx, "submission.stale_forecast_discarded", map[string]any{"attemptId": attempt.ID})
		return SubmissionResult{}, ErrSubmissionAttemptNotFound
	}

	if report.HasAnyShortage {
		w.logger(ctx, "submission.shortage_gate", map[string]any{
			"attemptId": attempt.ID,
			"lines":     len(report.Lines),
		})
		return SubmissionResult{
			Status:    SubmissionAwaitingConfirmation,
			AttemptID: attempt.ID,
			Breakdown: breakdown,
			Report:    &report,
		}, nil
	}

	created, err := w.commitAttempt(ctx, attempt.ID)
	if err != nil {
		// The caller never learned this attempt id, so the retained payload
		// would be unreachable; drop it and let a resubmit re-forecast.
		w.dropAttempt(attempt.ID)
		return SubmissionResult{}, err
	}
	return SubmissionResult{Status: SubmissionCommitted, Order: created, Breakdown: breakdown, Report: &report}, nil
}

// Confirm resumes a parked attempt, committing the exact line set that was
// forecast. It never re-forecasts. A failed attempt may be confirmed again to
// retry the commit with the preserved payload.
func (w *submissionWorkflow) Confirm(ctx context.Context, cmd ConfirmSubmissionCommand) (SubmissionResult, error) {
	attemptID := strings.TrimSpace(cmd.AttemptID)
	if attemptID == "" {
		return SubmissionResult{}, fmt.Errorf("%w: attempt id is required", ErrSubmissionAttemptNotFound)
	}

	w.mu.Lock()
	attempt, ok := w.lookupLocked(attemptID)
	if !ok {
		w.mu.Unlock()
		return SubmissionResult{}, fmt.Errorf("%w: %s", ErrSubmissionAttemptNotFound, attemptID)
	}
	if attempt.State != stateAwaitingConfirmation && attempt.State != stateFailed {
		state := attempt.State
		w.mu.Unlock()
		return SubmissionResult{}, fmt.Errorf("%w: cannot confirm from %s", ErrSubmissionInvalidState, state)
	}
	attempt.State = stateCommitting
	attempt.UpdatedAt = w.now()
	breakdown := attempt.Breakdown
	report := attempt.Report
	w.mu.Unlock()

	created, err := w.commitAttempt(ctx, attemptID)
	if err != nil {
		return SubmissionResult{}, err
	}
	return SubmissionResult{
		Status:    SubmissionCommitted,
		AttemptID: attemptID,
		Order:     created,
		Breakdown: breakdown,
		Report:    &report,
	}, nil
}

// Cancel discards a parked attempt along with its payload and report.
func (w *submissionWorkflow) Cancel(ctx context.Context, cmd CancelSubmissionCommand) error {
	attemptID := strings.TrimSpace(cmd.AttemptID)
	if attemptID == "" {
		return fmt.Errorf("%w: attempt id is required", ErrSubmissionAttemptNotFound)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.lookupLocked(attemptID); !ok {
		return fmt.Errorf("%w: %s", ErrSubmissionAttemptNotFound, attemptID)
	}
	delete(w.attempts, attemptID)
	w.logger(ctx, "submission.cancelled", map[string]any{"attemptId": attemptID})
	return nil
}

func (w *submissionWorkflow) validate(order domain.Order, placeOrder bool) error {
	if strings.TrimSpace(order.CustomerID) == "" {
		return ErrSubmissionCustomerRequired
	}
	if strings.TrimSpace(order.DeliverID) == "" {
		return ErrSubmissionDelivererRequired
	}
	if placeOrder && (order.DeliveryDate == nil || order.DeliveryDate.IsZero()) {
		return ErrSubmissionDateRequired
	}
	for _, line := range order.Lines {
		if line.Complete() {
			return nil
		}
	}
	return ErrSubmissionNoLines
}

// buildPayload resolves every complete line against the catalog, producing
// the normalized creation payload and a copy of the order whose lines carry
// the resolved identities. Resolution failures abort the whole order; nothing
// is ever partially submitted.
func (w *submissionWorkflow) buildPayload(order domain.Order, catalog Catalog) (repositories.OrderCreateRequest, domain.Order, error) {
	normalized := order
	normalized.Lines = make([]domain.LineSelection, 0, len(order.Lines))
	payloadLines := make([]repositories.OrderCreateLine, 0, len(order.Lines))

	for _, line := range order.Lines {
		if !line.Complete() {
			continue
		}
		resolved, err := w.resolver.Resolve(line.Selection, catalog)
		if err != nil {
			return repositories.OrderCreateRequest{}, domain.Order{}, err
		}
		line.ProductID = resolved.ProductID
		line.PackageProductID = resolved.PackageProductID
		normalized.Lines = append(normalized.Lines, line)
		payloadLines = append(payloadLines, repositories.OrderCreateLine{
			ProductID:        resolved.ProductID,
			PackageProductID: resolved.PackageProductID,
			Amount:           *line.Amount,
			Price:            *line.Price,
			Sale:             line.Sale,
		})
	}

	payload := repositories.OrderCreateRequest{
		CustomerID:            strings.TrimSpace(order.CustomerID),
		DeliverID:             strings.TrimSpace(order.DeliverID),
		Sale:                  order.Sale,
		AmountCustomerPayment: order.AmountCustomerPayment,
		ShipCost:              order.ShipCost,
		DeliveryDate:          order.DeliveryDate,
		CreatedBy:             strings.TrimSpace(order.CreatedBy),
		Lines:                 payloadLines,
	}
	return payload, normalized, nil
}

func (w *submissionWorkflow) newAttempt(payload repositories.OrderCreateRequest, breakdown domain.OrderBreakdown) *submissionAttempt {
	now := w.now()
	attempt := &submissionAttempt{
		ID:        w.newID(),
		State:     stateForecasting,
		Payload:   payload,
		Breakdown: breakdown,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(w.attemptTTL),
	}
	w.mu.Lock()
	w.purgeExpiredLocked(now)
	w.attempts[attempt.ID] = attempt
	w.mu.Unlock()
	return attempt
}

// finishForecast moves a still-live forecasting attempt to its post-forecast
// state in one step: parked awaiting confirmation when the report shows
// shortages, committing otherwise. A cancel landing anywhere around the
// projection call leaves the attempt gone and the stale report discarded;
// there is no window where a dead attempt id can surface as parked.
func (w *submissionWorkflow) finishForecast(attemptID string, report domain.ForecastReport) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	attempt, ok := w.lookupLocked(attemptID)
	if !ok || attempt.State != stateForecasting {
		return false
	}
	if report.HasAnyShortage {
		attempt.State = stateAwaitingConfirmation
	} else {
		attempt.State = stateCommitting
	}
	attempt.Report = report
	attempt.UpdatedAt = w.now()
	return true
}

func (w *submissionWorkflow) dropAttempt(attemptID string) {
	w.mu.Lock()
	delete(w.attempts, attemptID)
	w.mu.Unlock()
}

// commitAttempt hands the frozen payload to the order store. Success removes
// the attempt and fires the receipt render; failure parks it in the failed
// state with the payload intact so Confirm can retry.
func (w *submissionWorkflow) commitAttempt(ctx context.Context, attemptID string) (domain.CreatedOrder, error) {
	w.mu.Lock()
	attempt, ok := w.lookupLocked(attemptID)
	if !ok {
		w.mu.Unlock()
		return domain.CreatedOrder{}, fmt.Errorf("%w: %s", ErrSubmissionAttemptNotFound, attemptID)
	}
	payload := attempt.Payload
	w.mu.Unlock()

	created, err := w.commit(ctx, payload)
	if err != nil {
		w.mu.Lock()
		if attempt, ok := w.lookupLocked(attemptID); ok {
			attempt.State = stateFailed
			attempt.UpdatedAt = w.now()
		}
		w.mu.Unlock()
		return domain.CreatedOrder{}, err
	}

	w.dropAttempt(attemptID)
	return created, nil
}

func (w *submissionWorkflow) commit(ctx context.Context, payload repositories.OrderCreateRequest) (domain.CreatedOrder, error) {
	created, err := w.orders.CreateOrder(ctx, payload)
	if err != nil {
		w.logger(ctx, "submission.create_failed", map[string]any{
			"customerId": payload.CustomerID,
			"lines":      len(payload.Lines),
			"error":      err.Error(),
		})
		return domain.CreatedOrder{}, fmt.Errorf("%w: %s", ErrSubmissionFailed, err.Error())
	}

	w.printReceipt(ctx, created)
	return created, nil
}

// printReceipt renders the order receipt in the background. Render failures
// are logged and swallowed; the order stays committed either way.
func (w *submissionWorkflow) printReceipt(ctx context.Context, created domain.CreatedOrder) {
	if w.receipts == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		renderCtx, cancel := context.WithTimeout(detached, w.receiptTimeout)
		defer cancel()
		if _, err := w.receipts.RenderReceipt(renderCtx, repositories.ReceiptRequest{OrderID: created.ID}); err != nil {
			w.logger(renderCtx, "submission.receipt_failed", map[string]any{
				"orderId": created.ID,
				"error":   err.Error(),
			})
		}
	}()
}

// lookupLocked fetches a live attempt, evicting it when expired. Callers must
// hold the mutex.
func (w *submissionWorkflow) lookupLocked(attemptID string) (*submissionAttempt, bool) {
	attempt, ok := w.attempts[attemptID]
	if !ok {
		return nil, false
	}
	if w.now().After(attempt.ExpiresAt) {
		delete(w.attempts, attemptID)
		return nil, false
	}
	return attempt, true
}

func (w *submissionWorkflow) purgeExpiredLocked(now time.Time) {
	for id, attempt := range w.attempts {
		if now.After(attempt.ExpiresAt) {
			delete(w.attempts, id)
		}
	}
}
