// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"petshop/internal/pkg/session"
	"petshop/internal/service/order/application"
	"petshop/internal/service/order/domain"
)

// OrderHandler 封装了结算与订单查询的 HTTP 处理器
type OrderHandler struct {
	service    *application.CheckoutService
	sessionMgr *session.Manager
}

func NewOrderHandler(service *application.CheckoutService, sessionMgr *session.Manager) *OrderHandler {
	return &OrderHandler{service: service, sessionMgr: sessionMgr}
}

// RegisterRoutes 注册买家侧路由，全部要求登录会话
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/checkout/quote", session.RequireAuth(h.sessionMgr, h.handleQuote))
	mux.HandleFunc("/checkout/confirm", session.RequireAuth(h.sessionMgr, h.handleConfirm))
	mux.HandleFunc("/orders", session.RequireAuth(h.sessionMgr, h.handleListMine))
	mux.HandleFunc("/orders/get", session.RequireAuth(h.sessionMgr, h.handleGet))
}

// RegisterAdminRoutes 注册后台订单管理路由
func (h *OrderHandler) RegisterAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/admin/orders", session.RequireAdmin(h.sessionMgr, h.handleAdminList))
	mux.HandleFunc("/admin/orders/update_status", session.RequireAdmin(h.sessionMgr, h.handleUpdateStatus))
}

type quoteRequest struct {
	SelectedItems  []string `json:"selectedItems"`
	VoucherCode    string   `json:"voucherCode"`
	ShippingMethod string   `json:"shippingMethod"`
}

func (h *OrderHandler) handleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	sess, _ := session.FromContext(r.Context())

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	quote, err := h.service.PrepareQuote(ctx, sess.Username, req.SelectedItems, req.VoucherCode, req.ShippingMethod)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, quote)
}

type confirmRequest struct {
	SelectedItems  []string `json:"selectedItems"`
	VoucherCode    string   `json:"voucherCode"`
	ShippingMethod string   `json:"shippingMethod"`
	ShippingName   string   `json:"shippingName"`
	ShippingPhone  string   `json:"shippingPhone"`
	Address        string   `json:"address"`
	PaymentMethod  string   `json:"paymentMethod"`
	IdempotencyKey string   `json:"idempotencyKey"`
}

func (h *OrderHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	sess, _ := session.FromContext(r.Context())

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.service.ConfirmOrder(ctx, application.CheckoutRequest{
		UserID:         sess.Username,
		SelectedItems:  req.SelectedItems,
		VoucherCode:    req.VoucherCode,
		ShippingMethod: req.ShippingMethod,
		ShippingName:   req.ShippingName,
		ShippingPhone:  req.ShippingPhone,
		Address:        req.Address,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		http.Error(w, err.Error(), businessStatusCode(err))
		return
	}
	writeJSON(w, order)
}

func (h *OrderHandler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	sess, _ := session.FromContext(r.Context())

	orders, err := h.service.ListUserOrders(ctx, sess.Username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, orders)
}

func (h *OrderHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	sess, _ := session.FromContext(r.Context())

	order, err := h.service.GetOrder(ctx, r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, err.Error(), businessStatusCode(err))
		return
	}
	// 普通用户只能看自己的订单
	if order.UserID != sess.Username && !sess.IsAdmin() {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	writeJSON(w, order)
}

func (h *OrderHandler) handleAdminList(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	orders, err := h.service.ListAllOrders(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, orders)
}

type updateStatusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.service.UpdateOrderStatus(ctx, req.OrderID, domain.Status(req.Status))
	if err != nil {
		http.Error(w, err.Error(), businessStatusCode(err))
		return
	}
	writeJSON(w, order)
}

func businessStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptySelection),
		errors.Is(err, domain.ErrMissingAddress),
		errors.Is(err, domain.ErrMissingRecipient):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
