package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/warehouse-manage/api/internal/domain"
	"github.com/warehouse-manage/api/internal/platform/httpx"
	"github.com/warehouse-manage/api/internal/services"
)

const maxOrderBodySize = 256 * 1024

// OrderHandlers exposes order composition, forecasting, and submission endpoints.
type OrderHandlers struct {
	workflow services.SubmissionWorkflow
	pricing  services.OrderPricingEngine
	forecast services.ForecastEngine
	catalog  services.CatalogService
	resolver services.UnitResolver
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(workflow services.SubmissionWorkflow, pricing services.OrderPricingEngine, forecast services.ForecastEngine, catalog services.CatalogService, resolver services.UnitResolver) *OrderHandlers {
	return &OrderHandlers{
		workflow: workflow,
		pricing:  pricing,
		forecast: forecast,
		catalog:  catalog,
		resolver: resolver,
	}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.submitOrder)
	r.Post("/quote", h.quoteOrder)
	r.Post("/forecast", h.forecastOrder)
}

// PlaceOrderRoutes registers the /place-orders endpoints.
func (h *OrderHandlers) PlaceOrderRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.submitPlaceOrder)
}

// SubmissionRoutes registers the parked submission endpoints.
func (h *OrderHandlers) SubmissionRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/{attemptID}:confirm", h.confirmSubmission)
	r.Post("/{attemptID}:cancel", h.cancelSubmission)
}

type orderLineRequest struct {
	Selection string `json:"selection"`
	Amount    *int64 `json:"amount"`
	Price     *int64 `json:"price"`
	Sale      int64  `json:"sale"`
}

type orderRequest struct {
	CustomerID            string             `json:"customerId"`
	DeliverID             string             `json:"deliverId"`
	Sale                  int64              `json:"sale"`
	AmountCustomerPayment int64              `json:"amountCustomerPayment"`
	ShipCost              int64              `json:"shipCost"`
	DeliveryDate          *domain.Date       `json:"deliveryDate"`
	CreatedBy             string             `json:"createdBy"`
	Force                 bool               `json:"force"`
	Lines                 []orderLineRequest `json:"lines"`
}

type forecastRequest struct {
	DeliveryDate domain.Date        `json:"deliveryDate"`
	Lines        []orderLineRequest `json:"lines"`
}

type lineBreakdownPayload struct {
	Selection        string  `json:"selection,omitempty"`
	ProductID        string  `json:"productId,omitempty"`
	PackageProductID *string `json:"packageProductId,omitempty"`
	Amount           int64   `json:"amount"`
	Price            int64   `json:"price"`
	Sale             int64   `json:"sale"`
	Subtotal         int64   `json:"subtotal"`
	Total            int64   `json:"total"`
	DisplayTotal     int64   `json:"displayTotal"`
	Complete         bool    `json:"complete"`
}

type breakdownPayload struct {
	GrandTotal            int64                  `json:"grandTotal"`
	OrderSale             int64                  `json:"orderSale"`
	OrderTotal            int64                  `json:"orderTotal"`
	DisplayTotal          int64                  `json:"displayTotal"`
	ShipCost              int64                  `json:"shipCost"`
	AmountCustomerPayment int64                  `json:"amountCustomerPayment"`
	RemainingAmount       int64                  `json:"remainingAmount"`
	Lines                 []lineBreakdownPayload `json:"lines"`
}

type forecastLinePayload struct {
	ProductName       string  `json:"productName"`
	ProductID         string  `json:"productId"`
	PackageProductID  *string `json:"packageProductId,omitempty"`
	RequiredQuantity  int64   `json:"requiredQuantity"`
	EstimatedQuantity int64   `json:"estimatedQuantity"`
	CurrentQuantity   int64   `json:"currentQuantity"`
	Shortage          int64   `json:"shortage"`
	HasShortage       bool    `json:"hasShortage"`
}

type forecastReportPayload struct {
	DeliveryDate   domain.Date           `json:"deliveryDate"`
	HasAnyShortage bool                  `json:"hasAnyShortage"`
	Lines          []forecastLinePayload `json:"lines"`
}

type submissionResponse struct {
	Status    string                 `json:"status"`
	AttemptID string                 `json:"attemptId,omitempty"`
	OrderID   string                 `json:"orderId,omitempty"`
	Total     int64                  `json:"total,omitempty"`
	Breakdown breakdownPayload       `json:"breakdown"`
	Forecast  *forecastReportPayload `json:"forecast,omitempty"`
}

func (h *OrderHandlers) quoteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pricing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_unavailable", "pricing engine unavailable", http.StatusServiceUnavailable))
		return
	}

	var req orderRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}
	order, ok := buildOrder(ctx, w, req)
	if !ok {
		return
	}
	if !h.resolveLines(ctx, w, order.Lines) {
		return
	}

	breakdown := h.pricing.Quote(order)
	writeJSONResponse(w, http.StatusOK, buildBreakdownPayload(breakdown))
}

func (h *OrderHandlers) submitOrder(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, false)
}

func (h *OrderHandlers) submitPlaceOrder(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, true)
}

func (h *OrderHandlers) submit(w http.ResponseWriter, r *http.Request, placeOrder bool) {
	ctx := r.Context()
	if h.workflow == nil {
		httpx.WriteError(ctx, w, httpx.NewError("workflow_unavailable", "submission workflow unavailable", http.StatusServiceUnavailable))
		return
	}

	var req orderRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}
	order, ok := buildOrder(ctx, w, req)
	if !ok {
		return
	}

	result, err := h.workflow.Submit(ctx, services.SubmitOrderCommand{
		Order:      order,
		PlaceOrder: placeOrder,
		Force:      req.Force,
	})
	if err != nil {
		writeWorkflowError(ctx, w, err)
		return
	}

	status := http.StatusCreated
	if result.Status == services.SubmissionAwaitingConfirmation {
		status = http.StatusAccepted
	}
	writeJSONResponse(w, status, buildSubmissionResponse(result))
}

func (h *OrderHandlers) forecastOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.forecast == nil {
		httpx.WriteError(ctx, w, httpx.NewError("forecast_unavailable", "forecast engine unavailable", http.StatusServiceUnavailable))
		return
	}

	var req forecastRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	lines, ok := buildLines(ctx, w, req.Lines)
	if !ok {
		return
	}
	if !h.resolveLines(ctx, w, lines) {
		return
	}

	report, err := h.forecast.Forecast(ctx, req.DeliveryDate, lines)
	if err != nil {
		writeWorkflowError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildForecastPayload(report))
}

func (h *OrderHandlers) confirmSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.workflow == nil {
		httpx.WriteError(ctx, w, httpx.NewError("workflow_unavailable", "submission workflow unavailable", http.StatusServiceUnavailable))
		return
	}

	attemptID := strings.TrimSpace(chi.URLParam(r, "attemptID"))
	result, err := h.workflow.Confirm(ctx, services.ConfirmSubmissionCommand{AttemptID: attemptID})
	if err != nil {
		writeWorkflowError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildSubmissionResponse(result))
}

func (h *OrderHandlers) cancelSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.workflow == nil {
		httpx.WriteError(ctx, w, httpx.NewError("workflow_unavailable", "submission workflow unavailable", http.StatusServiceUnavailable))
		return
	}

	attemptID := strings.TrimSpace(chi.URLParam(r, "attemptID"))
	if err := h.workflow.Cancel(ctx, services.CancelSubmissionCommand{AttemptID: attemptID}); err != nil {
		writeWorkflowError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) bool {
	body := http.MaxBytesReader(w, r.Body, maxOrderBodySize)
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
			return false
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is not valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

func buildOrder(ctx context.Context, w http.ResponseWriter, req orderRequest) (domain.Order, bool) {
	lines, ok := buildLines(ctx, w, req.Lines)
	if !ok {
		return domain.Order{}, false
	}

	order := domain.Order{
		CustomerID:            strings.TrimSpace(req.CustomerID),
		DeliverID:             strings.TrimSpace(req.DeliverID),
		Lines:                 lines,
		Sale:                  req.Sale,
		AmountCustomerPayment: req.AmountCustomerPayment,
		ShipCost:              req.ShipCost,
		CreatedBy:             strings.TrimSpace(req.CreatedBy),
	}
	if req.DeliveryDate != nil && !req.DeliveryDate.IsZero() {
		date := *req.DeliveryDate
		order.DeliveryDate = &date
	}
	return order, true
}

func buildLines(ctx context.Context, w http.ResponseWriter, reqLines []orderLineRequest) ([]domain.LineSelection, bool) {
	lines := make([]domain.LineSelection, 0, len(reqLines))
	for _, reqLine := range reqLines {
		ref, err := domain.ParseSelectionRef(reqLine.Selection)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
			return nil, false
		}
		lines = append(lines, domain.LineSelection{
			Selection: ref,
			Amount:    reqLine.Amount,
			Price:     reqLine.Price,
			Sale:      reqLine.Sale,
		})
	}
	return lines, true
}

// resolveLines fills in the product identity behind each complete line, the
// same resolution the submission workflow performs before committing. Quote
// breakdowns and forecast requirement rows must name concrete products, not
// raw selections.
func (h *OrderHandlers) resolveLines(ctx context.Context, w http.ResponseWriter, lines []domain.LineSelection) bool {
	hasComplete := false
	for _, line := range lines {
		if line.Complete() {
			hasComplete = true
			break
		}
	}
	if !hasComplete {
		return true
	}

	if h.catalog == nil || h.resolver == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return false
	}
	catalog, err := h.catalog.LoadCatalog(ctx)
	if err != nil {
		writeWorkflowError(ctx, w, err)
		return false
	}

	for i := range lines {
		if !lines[i].Complete() {
			continue
		}
		resolved, err := h.resolver.Resolve(lines[i].Selection, catalog)
		if err != nil {
			writeWorkflowError(ctx, w, err)
			return false
		}
		lines[i].ProductID = resolved.ProductID
		lines[i].PackageProductID = resolved.PackageProductID
	}
	return true
}

func buildBreakdownPayload(breakdown domain.OrderBreakdown) breakdownPayload {
	lines := make([]lineBreakdownPayload, len(breakdown.Lines))
	for i, line := range breakdown.Lines {
		lines[i] = lineBreakdownPayload{
			Selection:        line.Selection.String(),
			ProductID:        line.ProductID,
			PackageProductID: line.PackageProductID,
			Amount:           line.Amount,
			Price:            line.Price,
			Sale:             line.Sale,
			Subtotal:         line.Subtotal,
			Total:            line.Total,
			DisplayTotal:     line.DisplayTotal,
			Complete:         line.Complete,
		}
	}
	return breakdownPayload{
		GrandTotal:            breakdown.GrandTotal,
		OrderSale:             breakdown.OrderSale,
		OrderTotal:            breakdown.OrderTotal,
		DisplayTotal:          breakdown.DisplayTotal,
		ShipCost:              breakdown.ShipCost,
		AmountCustomerPayment: breakdown.AmountCustomerPayment,
		RemainingAmount:       breakdown.RemainingAmount,
		Lines:                 lines,
	}
}

func buildForecastPayload(report domain.ForecastReport) forecastReportPayload {
	lines := make([]forecastLinePayload, len(report.Lines))
	for i, line := range report.Lines {
		lines[i] = forecastLinePayload{
			ProductName:       line.ProductName,
			ProductID:         line.ProductID,
			PackageProductID:  line.PackageProductID,
			RequiredQuantity:  line.RequiredQuantity,
			EstimatedQuantity: line.EstimatedQuantity,
			CurrentQuantity:   line.CurrentQuantity,
			Shortage:          line.Shortage,
			HasShortage:       line.HasShortage,
		}
	}
	return forecastReportPayload{
		DeliveryDate:   report.DeliveryDate,
		HasAnyShortage: report.HasAnyShortage,
		Lines:          lines,
	}
}

func buildSubmissionResponse(result services.SubmissionResult) submissionResponse {
	resp := submissionResponse{
		Status:    string(result.Status),
		AttemptID: result.AttemptID,
		OrderID:   result.Order.ID,
		Total:     result.Order.Total,
		Breakdown: buildBreakdownPayload(result.Breakdown),
	}
	if result.Report != nil {
		payload := buildForecastPayload(*result.Report)
		resp.Forecast = &payload
	}
	return resp
}

func writeWorkflowError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSubmissionCustomerRequired),
		errors.Is(err, services.ErrSubmissionDelivererRequired),
		errors.Is(err, services.ErrSubmissionDateRequired),
		errors.Is(err, services.ErrSubmissionNoLines),
		errors.Is(err, services.ErrForecastInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("validation_failed", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrSelectionUnknownProduct),
		errors.Is(err, services.ErrSelectionUnknownPackage),
		errors.Is(err, services.ErrSelectionInvalidPackage),
		errors.Is(err, services.ErrSelectionEmpty):
		httpx.WriteError(ctx, w, httpx.NewError("resolution_failed", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrSubmissionAttemptNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("attempt_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrSubmissionInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("attempt_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrForecastUnavailable),
		errors.Is(err, services.ErrCatalogUnavailable),
		errors.Is(err, services.ErrSubmissionFailed):
		httpx.WriteError(ctx, w, httpx.NewError("upstream_failed", err.Error(), http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
