package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domain "github.com/warehouse-manage/api/internal/domain"
	"github.com/warehouse-manage/api/internal/repositories"
)

type stubCatalogService struct {
	loadCatalogFn func(ctx context.Context) (Catalog, error)
}

func (s *stubCatalogService) LoadCatalog(ctx context.Context) (Catalog, error) {
	if s.loadCatalogFn != nil {
		return s.loadCatalogFn(ctx)
	}
	return testCatalog(), nil
}

type stubForecastEngine struct {
	forecastFn func(ctx context.Context, deliveryDate domain.Date, lines []domain.LineSelection) (domain.ForecastReport, error)
}

func (s *stubForecastEngine) Forecast(ctx context.Context, deliveryDate domain.Date, lines []domain.LineSelection) (domain.ForecastReport, error) {
	if s.forecastFn != nil {
		return s.forecastFn(ctx, deliveryDate, lines)
	}
	return domain.ForecastReport{DeliveryDate: deliveryDate}, nil
}

type stubOrderRepository struct {
	mu            sync.Mutex
	createOrderFn func(ctx context.Context, req repositories.OrderCreateRequest) (domain.CreatedOrder, error)
	requests      []repositories.OrderCreateRequest
}

func (s *stubOrderRepository) CreateOrder(ctx context.Context, req repositories.OrderCreateRequest) (domain.CreatedOrder, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.createOrderFn != nil {
		return s.createOrderFn(ctx, req)
	}
	return domain.CreatedOrder{ID: "order-1", Total: 0}, nil
}

func (s *stubOrderRepository) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubOrderRepository) lastRequest(t *testing.T) repositories.OrderCreateRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		t.Fatal("expected at least one CreateOrder call")
	}
	return s.requests[len(s.requests)-1]
}

type stubReceiptRepository struct {
	renderReceiptFn func(ctx context.Context, req repositories.ReceiptRequest) (repositories.Receipt, error)
}

func (s *stubReceiptRepository) RenderReceipt(ctx context.Context, req repositories.ReceiptRequest) (repositories.Receipt, error) {
	if s.renderReceiptFn != nil {
		return s.renderReceiptFn(ctx, req)
	}
	return repositories.Receipt{OrderID: req.OrderID}, nil
}

type workflowHarness struct {
	workflow SubmissionWorkflow
	orders   *stubOrderRepository
	forecast *stubForecastEngine
	clock    *time.Time
}

func newWorkflowHarness(t *testing.T, mutate func(deps *SubmissionWorkflowDeps)) *workflowHarness {
	t.Helper()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	orders := &stubOrderRepository{}
	forecast := &stubForecastEngine{}

	deps := SubmissionWorkflowDeps{
		Catalog:     &stubCatalogService{},
		Resolver:    NewUnitResolver(),
		Pricing:     NewOrderPricingEngine(),
		Forecast:    forecast,
		Orders:      orders,
		Clock:       func() time.Time { return now },
		IDGenerator: func() string { return "attempt-1" },
	}
	if mutate != nil {
		mutate(&deps)
	}

	workflow, err := NewSubmissionWorkflow(deps)
	if err != nil {
		t.Fatalf("new submission workflow: %v", err)
	}
	return &workflowHarness{workflow: workflow, orders: orders, forecast: forecast, clock: &now}
}

func draftOrder() domain.Order {
	return domain.Order{
		CustomerID: "cust-1",
		DeliverID:  "deliver-1",
		CreatedBy:  "user-1",
		Lines: []domain.LineSelection{
			completeLine("prod-1", 2, 2000, 0),
			{Selection: domain.PackageRef("pkg-1"), Amount: int64Ptr(1), Price: int64Ptr(100000)},
		},
	}
}

func shortageReport(date domain.Date) domain.ForecastReport {
	return domain.ForecastReport{
		DeliveryDate: date,
		Lines: []domain.ForecastLine{
			{ProductID: "prod-1", RequiredQuantity: 2, EstimatedQuantity: 0, Shortage: 2, HasShortage: true},
		},
		HasAnyShortage: true,
	}
}

func TestSubmitValidation(t *testing.T) {
	h := newWorkflowHarness(t, nil)

	cases := []struct {
		name    string
		mutate  func(cmd *SubmitOrderCommand)
		wantErr error
	}{
		{
			name:    "missing customer",
			mutate:  func(cmd *SubmitOrderCommand) { cmd.Order.CustomerID = "  " },
			wantErr: ErrSubmissionCustomerRequired,
		},
		{
			name:    "missing deliverer",
			mutate:  func(cmd *SubmitOrderCommand) { cmd.Order.DeliverID = "" },
			wantErr: ErrSubmissionDelivererRequired,
		},
		{
			name: "place order without delivery date",
			mutate: func(cmd *SubmitOrderCommand) {
				cmd.PlaceOrder = true
				cmd.Order.DeliveryDate = nil
			},
			wantErr: ErrSubmissionDateRequired,
		},
		{
			name: "no complete lines",
			mutate: func(cmd *SubmitOrderCommand) {
				cmd.Order.Lines = []domain.LineSelection{
					{Selection: domain.ProductRef("prod-1"), Amount: int64Ptr(1)},
				}
			},
			wantErr: ErrSubmissionNoLines,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := SubmitOrderCommand{Order: draftOrder()}
			tc.mutate(&cmd)
			if _, err := h.workflow.Submit(context.Background(), cmd); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
	if h.orders.calls() != 0 {
		t.Fatalf("expected no CreateOrder calls for invalid drafts, got %d", h.orders.calls())
	}
}

func TestSubmitPlainOrderCommitsWithoutForecast(t *testing.T) {
	h := newWorkflowHarness(t, nil)
	h.forecast.forecastFn = func(context.Context, domain.Date, []domain.LineSelection) (domain.ForecastReport, error) {
		t.Fatal("forecast must not run for orders without a delivery date")
		return domain.ForecastReport{}, nil
	}

	result, err := h.workflow.Submit(context.Background(), SubmitOrderCommand{Order: draftOrder()})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != SubmissionCommitted {
		t.Fatalf("expected committed, got %s", result.Status)
	}
	if result.Order.ID != "order-1" {
		t.Fatalf("expected created order id order-1, got %s", result.Order.ID)
	}

	req := h.orders.lastRequest(t)
	if len(req.Lines) != 2 {
		t.Fatalf("expected two normalized lines, got %d", len(req.Lines))
	}
	pkgLine := req.Lines[1]
	if pkgLine.ProductID != "prod-1" {
		t.Fatalf("expected package line resolved to underlying product, got %s", pkgLine.ProductID)
	}
	if pkgLine.PackageProductID == nil || *pkgLine.PackageProductID != "pkg-1" {
		t.Fatalf("expected package product id pkg-1, got %v", pkgLine.PackageProductID)
	}
}

func TestSubmitResolutionFailureAbortsWholeOrder(t *testing.T) {
	h := newWorkflowHarness(t, nil)

	order := draftOrder()
	order.Lines[1].Selection = domain.PackageRef("missing")

	_, err := h.workflow.Submit(context.Background(), SubmitOrderCommand{Order: order})
	if !errors.Is(err, ErrSelectionUnknownPackage) {
		t.Fatalf("expected ErrSelectionUnknownPackage, got %v", err)
	}
	if h.orders.calls() != 0 {
		t.Fatal("expected nothing submitted when any line fails to resolve")
	}
}

func TestSubmitCleanForecastCommits(t *testing.T) {
	h := newWorkflowHarness(t, nil)

	date := domain.NewDate(2026, 4, 1)
	order := draftOrder()
	order.DeliveryDate = &date

	result, err := h.workflow.Submit(context.Background(), SubmitOrderCommand{Order: order, PlaceOrder: true})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != SubmissionCommitted {
		t.Fatalf("expected committed after clean forecast, got %s", result.Status)
	}
	if result.Report == nil {
		t.Fatal("expected the forecast report on the result")
	}
	if req := h.orders.lastRequest(t); req.DeliveryDate == nil || !req.DeliveryDate.Time().Equal(date.Time()) {
		t.Fatalf("expected delivery date forwarded, got %v", req.DeliveryDate)
	}
}

func TestSubmitShortageParksAttempt(t *testing.T) {
	h := newWorkflowHarness(t, nil)
	h.forecast.forecastFn = func(_ context.Context, date domain.Date, _ []domain.LineSelection) (domain.ForecastReport, error) {
		return shortageReport(date), nil
	}

	date := domain.NewDate(2026, 4, 1)
	order := draftOrder()
	order.DeliveryDate = &date

	result, err := h.workflow.Submit(context.Background(), SubmitOrderCommand{Order: order, PlaceOrder: true})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != SubmissionAwaitingConfirmation {
		t.Fatalf("expected awaiting confirmation, got %s", result.Status)
	}
	if result.AttemptID == "" {
		t.Fatal("expected an attempt id for the parked submission")
	}
	if result.Report == nil || !result.Report.HasAnyShortage {
		t.Fatal("expected the shortage report on the result")
	}
	if h.orders.calls() != 0 {
		t.Fatal("expected no CreateOrder call while parked behind the gate")
	}
}

func TestSubmitForceSkipsForecast(t *testing.T) {
	h := newWorkflowHarness(t, nil)
	h.forecast.forecastFn = func(context.Context, domain.Date, []domain.LineSelection) (domain.ForecastReport, error) {
		t.Fatal("forecast must not run when forced")
		return domain.ForecastReport{}, nil
	}

	date := domain.NewDate(2026, 4, 1)
	order := draftOrder()
	order.DeliveryDate = &date

	result, err := h.workflow.Submit(context.Background(), SubmitOrderCommand{Order: order, PlaceOrder: true, Force: true})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != SubmissionCommitted {
		t.Fatalf("expected committed, got %s", result.Status)
	}
}

func TestConfirmCommitsFrozenPayload(t *testing.T) {
	h := newWorkflowHarness(t, nil)
	h.forecast.forecastFn = func(_ context.Context, date domain.Date, _ []domain.LineSelection) (domain.ForecastReport, error) {
		return shortageReport(date), nil
	}

	date := domain.NewDate(2026, 4, 1)
	order := draftOrder()
	order.DeliveryDate = &date

	parked, err := h.workflow.Submit(context.Background(), SubmitOrderCommand{Order: order, PlaceOrder: true})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	confirmed, err := h.workflow.Confirm(context.Background(), ConfirmSubmissionCommand{AttemptID: parked.AttemptID})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != SubmissionCommitted {
		t.Fatalf("expected committed, got %s", confirmed.Status)
	}

	req := h.orders.lastRequest(t)
	if len(req.Lines) != 2 || req.CustomerID != "cust-1" {
		t.Fatalf("expected the payload frozen at forecast time, got %+v", req)
	}

	// The attempt is consumed; a second confirm finds nothing.
	if _, err := h.workflow.Confirm(context.Background(), ConfirmSubmissionCommand{AttemptID: parked.AttemptID}); !errors.Is(err, ErrSubmissionAttemptNotFound) {
		t.Fatalf("expected ErrSubmissionAttemptNotFound on re-confirm, got %v", err)
	}
}

func TestConfirmUnknownAttempt(t *testing.T) {
	h := newWorkflowHarness(t, nil)

	if _, err := h.workflow.Confirm(context.Background(), ConfirmSubmissionCommand{AttemptID: "nope"}); !errors.Is(err, ErrSubmissionAttemptNotFound) {
		t.Fatalf("expected ErrSubmissionAttemptNotFound, got %v", err)
	}
	if _, err := h.workflow.Confirm(context.Background(), ConfirmSubmissionCommand{}); !errors.Is(err, ErrSubmissionAttemptNotFound) {
		t.Fatalf("expected ErrSubmissionAttemptNotFound for blank id, got %v", err)
	}
}

func TestCancelDiscardsAttempt(t *testing.T) {
	h := newWorkflowHarness(t, nil)
	h.forecast.forecastFn = func(_ context.Context, date domain.Date, _ []domain.LineSelection) (domain.ForecastReport, error) {
		return shortageReport(date), nil
	}

	date := domain.NewDate(2026, 4, 1)
	order := draftOrder()
	order.DeliveryDate = &date

	parked, err := h.workflow.Submit(context.Background(), SubmitOrderCommand{Order: order, PlaceOrder: true})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := h.workflow.Cancel(context.Background(), CancelSubmissionCommand{AttemptID: parked.AttemptID}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := h.workflow.Confirm(context.Background(), ConfirmSubmissionCommand{AttemptID: parked.AttemptID}); !errors.Is(err, ErrSubmissionAttemptNotFound) {
		t.Fatalf("expected cancelled attempt gone, got %v", err)
	}
	if err := h.workflow.Cancel(context.Background(), CancelSubmissionCommand{AttemptID: parked.AttemptID}); !errors.Is(err, ErrSubmissionAttemptNotFound) {
		t.Fatalf("expected second cancel to report not found, got %v", err)
	}
	if h.orders.calls() != 0 {
		t.Fatal("expected no CreateOrder call for a cancelled attempt")
	}
}

func TestCancelDuringForecastDiscardsStaleResult(t *testing.T) {
	h := newWorkflowHarness(t, nil)

	// The attempt id generator is deterministic, so the forecast stub can
	// cancel the in-flight attempt before returning, simulating a user who
	// dismissed the dialog while the projection call was still running.
	h.forecast.forecastFn = func(ctx context.Context, date domain.Date, _ []domain.LineSelection) (domain.ForecastReport, error) {
		if err := h.workflow.Cancel(ctx, CancelSubmissionCommand{AttemptID: "attempt-1"}); err != nil {
			t.Fatalf("cancel during forecast: %v", err)
		}
		return shortageReport(date), nil
	}

	date := domain.NewDate(2026, 4, 1)
	order := draftOrder()
	order.DeliveryDate = &date

	result, err := h.workflow.Submit(context.Background(), SubmitOrderCommand{Order: order, PlaceOrder: true})
	if !errors.Is(err, ErrSubmissionAttemptNotFound) {
		t.Fatalf("expected stale forecast discarded, got %v", err)
	}
	if result.Status == SubmissionAwaitingConfirmation {
		t.Fatal("a cancelled attempt must never surface as awaiting confirmation")
	}
	if h.orders.calls() != 0 {
		t.Fatal("expected no CreateOrder call after a stale forecast")
	}
	// The shortage report arriving after the cancel must not resurrect the
	// attempt in any state.
	if _, err := h.workflow.Confirm(context.Background(), ConfirmSubmissionCommand{AttemptID: "attempt-1"}); !errors.Is(err, ErrSubmissionAttemptNotFound) {
		t.Fatalf("expected cancelled attempt to stay gone, got %v", err)
	}
}

func TestConfirmRetriesAfterCommitFailure(t *testing.T) {
	h := newWorkflowHarness(t, nil)
	h.forecast.forecastFn = func(_ context.Context, date domain.Date, _ []domain.LineSelection) (domain.ForecastReport, error) {
		return shortageReport(date), nil
	}
	fail := true
	h.orders.createOrderFn = func(context.Context, repositories.OrderCreateRequest) (domain.CreatedOrder, error) {
		if fail {
			return domain.CreatedOrder{}, errors.New("upstream rejected")
		}
		return domain.CreatedOrder{ID: "order-2"}, nil
	}

	date := domain.NewDate(2026, 4, 1)
	order := draftOrder()
	order.DeliveryDate = &date

	parked, err := h.workflow.Submit(context.Background(), SubmitOrderCommand{Order: order, PlaceOrder: true})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := h.workflow.Confirm(context.Background(), ConfirmSubmissionCommand{AttemptID: parked.AttemptID}); !errors.Is(err, ErrSubmissionFailed) {
		t.Fatalf("expected ErrSubmissionFailed, got %v", err)
	}

	// The payload survives the failure; confirming again retries the commit.
	fail = false
	confirmed, err := h.workflow.Confirm(context.Background(), ConfirmSubmissionCommand{AttemptID: parked.AttemptID})
	if err != nil {
		t.Fatalf("retry confirm: %v", err)
	}
	if confirmed.Order.ID != "order-2" {
		t.Fatalf("expected retried order committed, got %+v", confirmed.Order)
	}
}

func TestCleanForecastCommitFailureDropsAttempt(t *testing.T) {
	h := newWorkflowHarness(t, nil)
	h.orders.createOrderFn = func(context.Context, repositories.OrderCreateRequest) (domain.CreatedOrder, error) {
		return domain.CreatedOrder{}, errors.New("upstream rejected")
	}

	date := domain.NewDate(2026, 4, 1)
	order := draftOrder()
	order.DeliveryDate = &date

	if _, err := h.workflow.Submit(context.Background(), SubmitOrderCommand{Order: order, PlaceOrder: true}); !errors.Is(err, ErrSubmissionFailed) {
		t.Fatalf("expected ErrSubmissionFailed, got %v", err)
	}

	// The caller never saw an attempt id, so nothing may linger waiting for a
	// confirm that cannot come; a resubmit starts over.
	if _, err := h.workflow.Confirm(context.Background(), ConfirmSubmissionCommand{AttemptID: "attempt-1"}); !errors.Is(err, ErrSubmissionAttemptNotFound) {
		t.Fatalf("expected failed clean-path attempt dropped, got %v", err)
	}
}

func TestAttemptExpiresAfterTTL(t *testing.T) {
	h := newWorkflowHarness(t, func(deps *SubmissionWorkflowDeps) {
		deps.AttemptTTL = 5 * time.Minute
	})
	h.forecast.forecastFn = func(_ context.Context, date domain.Date, _ []domain.LineSelection) (domain.ForecastReport, error) {
		return shortageReport(date), nil
	}

	date := domain.NewDate(2026, 4, 1)
	order := draftOrder()
	order.DeliveryDate = &date

	parked, err := h.workflow.Submit(context.Background(), SubmitOrderCommand{Order: order, PlaceOrder: true})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	*h.clock = h.clock.Add(6 * time.Minute)

	if _, err := h.workflow.Confirm(context.Background(), ConfirmSubmissionCommand{AttemptID: parked.AttemptID}); !errors.Is(err, ErrSubmissionAttemptNotFound) {
		t.Fatalf("expected expired attempt treated as not found, got %v", err)
	}
}

func TestReceiptFailureDoesNotFailOrder(t *testing.T) {
	rendered := make(chan string, 1)
	h := newWorkflowHarness(t, func(deps *SubmissionWorkflowDeps) {
		deps.Receipts = &stubReceiptRepository{
			renderReceiptFn: func(_ context.Context, req repositories.ReceiptRequest) (repositories.Receipt, error) {
				rendered <- req.OrderID
				return repositories.Receipt{}, errors.New("printer offline")
			},
		}
	})

	result, err := h.workflow.Submit(context.Background(), SubmitOrderCommand{Order: draftOrder()})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != SubmissionCommitted {
		t.Fatalf("expected committed despite receipt failure, got %s", result.Status)
	}

	select {
	case orderID := <-rendered:
		if orderID != "order-1" {
			t.Fatalf("expected receipt render for order-1, got %s", orderID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected the receipt render to fire")
	}
}

func TestCatalogFailurePropagates(t *testing.T) {
	h := newWorkflowHarness(t, func(deps *SubmissionWorkflowDeps) {
		deps.Catalog = &stubCatalogService{
			loadCatalogFn: func(context.Context) (Catalog, error) {
				return Catalog{}, ErrCatalogUnavailable
			},
		}
	})

	if _, err := h.workflow.Submit(context.Background(), SubmitOrderCommand{Order: draftOrder()}); !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
	if h.orders.calls() != 0 {
		t.Fatal("expected no CreateOrder call when the catalog fails to load")
	}
}

func TestForecastFailureDropsAttempt(t *testing.T) {
	h := newWorkflowHarness(t, nil)
	h.forecast.forecastFn = func(context.Context, domain.Date, []domain.LineSelection) (domain.ForecastReport, error) {
		return domain.ForecastReport{}, ErrForecastUnavailable
	}

	date := domain.NewDate(2026, 4, 1)
	order := draftOrder()
	order.DeliveryDate = &date

	if _, err := h.workflow.Submit(context.Background(), SubmitOrderCommand{Order: order, PlaceOrder: true}); !errors.Is(err, ErrForecastUnavailable) {
		t.Fatalf("expected ErrForecastUnavailable, got %v", err)
	}
	if _, err := h.workflow.Confirm(context.Background(), ConfirmSubmissionCommand{AttemptID: "attempt-1"}); !errors.Is(err, ErrSubmissionAttemptNotFound) {
		t.Fatalf("expected dropped attempt, got %v", err)
	}
}
