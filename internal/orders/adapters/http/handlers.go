package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dejobratic/orderdesk/internal/orders/app"
	"github.com/dejobratic/orderdesk/internal/orders/app/commands"
	"github.com/dejobratic/orderdesk/internal/orders/app/queries"
	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
	"github.com/dejobratic/orderdesk/internal/query"
)

const (
	idempotencyHeader = "Idempotency-Key"
	paginationHeader  = "X-Pagination"
)

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service *app.Service
	logger  *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register binds the order handlers to the provided router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.createOrder)
		r.Route("/{orderID}", func(r chi.Router) {
			r.Get("/", h.getOrder)
			r.Put("/", h.updateOrder)
			r.Delete("/", h.deleteOrder)
			r.Get("/status", h.getOrderStatus)
			r.Patch("/status", h.changeStatus)
			r.Patch("/route", h.assignRoute)
		})
	})
	r.Get("/v1/customers/{customerID}/orders", h.customerOrders)
	r.Route("/v1/reports", func(r chi.Router) {
		r.Get("/pending-deliveries", h.pendingDeliveries)
		r.Get("/completed-deliveries", h.completedDeliveries)
		r.Get("/dashboard", h.dashboard)
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idemKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))

	if idemKey != "" {
		stored, err := h.service.GetIdempotentResponse(ctx, idemKey)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		if stored != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(stored.StatusCode)
			_, _ = w.Write(stored.Body)
			return
		}
	}

	var payload createOrderRequest
	if !h.decode(w, r, &payload) {
		return
	}
	cmd, err := payload.command()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	order, err := h.service.CreateOrder(ctx, cmd)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	body, err := json.Marshal(map[string]any{"order": order})
	if err != nil {
		h.writeServiceError(w, r, fmt.Errorf("encode order: %w", err))
		return
	}

	if idemKey != "" {
		stored := ports.StoredResponse{StatusCode: http.StatusCreated, Body: body, OrderID: order.ID}
		if err := h.service.SaveIdempotentResponse(ctx, idemKey, stored); err != nil {
			// The order exists; a lost key only means a retry creates another one.
			h.logger.WarnContext(ctx, "failed to save idempotent response",
				"idempotency_key", idemKey, "order_id", order.ID, "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", fmt.Sprintf("/v1/orders/%d", order.ID))
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderID")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderID")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	view, err := h.service.GetOrderStatus(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderID")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var payload updateOrderRequest
	if !h.decode(w, r, &payload) {
		return
	}
	cmd, err := payload.command(id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	order, err := h.service.UpdateOrder(r.Context(), cmd)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderID")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var payload changeStatusRequest
	if !h.decode(w, r, &payload) {
		return
	}
	order, err := h.service.ChangeStatus(r.Context(), commands.ChangeStatusCommand{
		OrderID: id,
		Status:  payload.Status,
		RouteID: payload.RouteID,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) assignRoute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderID")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var payload assignRouteRequest
	if !h.decode(w, r, &payload) {
		return
	}
	order, err := h.service.AssignRoute(r.Context(), commands.AssignRouteCommand{OrderID: id, RouteID: payload.RouteID})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderID")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	p := newParams(r)
	q := queries.ListOrdersQuery{
		Page:      p.pageRequest(),
		Filter:    p.orderFilter(),
		BaseRoute: "/v1/orders",
	}
	if p.err != nil {
		h.writeServiceError(w, r, p.err)
		return
	}

	page, err := h.service.ListOrders(r.Context(), q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writePage(w, page, page)
}

func (h *Handler) customerOrders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "customerID")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	p := newParams(r)
	q := queries.CustomerOrdersQuery{
		CustomerID: id,
		Page:       p.pageRequest(),
		Status:     p.status("status"),
	}
	if p.err != nil {
		h.writeServiceError(w, r, p.err)
		return
	}

	page, err := h.service.CustomerOrders(r.Context(), q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writePage(w, page, page)
}

func (h *Handler) pendingDeliveries(w http.ResponseWriter, r *http.Request) {
	q, ok := h.reportQuery(w, r, "/v1/reports/pending-deliveries")
	if !ok {
		return
	}
	report, err := h.service.PendingDeliveries(r.Context(), q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writePage(w, report.Deliveries, report)
}

func (h *Handler) completedDeliveries(w http.ResponseWriter, r *http.Request) {
	q, ok := h.reportQuery(w, r, "/v1/reports/completed-deliveries")
	if !ok {
		return
	}
	report, err := h.service.CompletedDeliveries(r.Context(), q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writePage(w, report.Deliveries, report)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) reportQuery(w http.ResponseWriter, r *http.Request, baseRoute string) (queries.ReportQuery, bool) {
	p := newParams(r)
	q := queries.ReportQuery{
		Page:      p.pageRequest(),
		Filter:    p.reportFilter(),
		BaseRoute: baseRoute,
	}
	if p.err != nil {
		h.writeServiceError(w, r, p.err)
		return q, false
	}
	return q, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

// writeServiceError maps the error taxonomy onto status codes. Unexpected
// errors are logged and their detail withheld from the client.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": validation.Error(),
			"field": validation.Field,
		})
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ports.ErrStaleData):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// pagination is the X-Pagination header payload.
type pagination struct {
	TotalCount  int    `json:"total_count"`
	PageSize    int    `json:"page_size"`
	CurrentPage int    `json:"current_page"`
	TotalPages  int    `json:"total_pages"`
	HasNext     bool   `json:"has_next"`
	HasPrevious bool   `json:"has_previous"`
	Next        string `json:"next,omitempty"`
	Previous    string `json:"previous,omitempty"`
}

func writePage[T any](w http.ResponseWriter, page query.Page[T], body any) {
	header, err := json.Marshal(pagination{
		TotalCount:  page.TotalCount,
		PageSize:    page.PageSize,
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
		HasNext:     page.HasNext,
		HasPrevious: page.HasPrevious,
		Next:        page.Links.Next,
		Previous:    page.Links.Previous,
	})
	if err == nil {
		w.Header().Set(paginationHeader, string(header))
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
