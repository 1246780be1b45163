// internal/service/cart/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"petshop/internal/pkg/money"
	"petshop/internal/pkg/session"
	"petshop/internal/service/cart/application"
	"petshop/internal/service/cart/domain"
)

// CartHandler 封装了 cart 服务的 HTTP 处理器
type CartHandler struct {
	service    *application.CartService
	sessionMgr *session.Manager
}

func NewCartHandler(service *application.CartService, sessionMgr *session.Manager) *CartHandler {
	return &CartHandler{service: service, sessionMgr: sessionMgr}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *CartHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/cart/add", session.RequireAuth(h.sessionMgr, h.handleAdd))
	mux.HandleFunc("/cart/update_quantity", session.RequireAuth(h.sessionMgr, h.handleUpdateQuantity))
	mux.HandleFunc("/cart/remove", session.RequireAuth(h.sessionMgr, h.handleRemove))
	mux.HandleFunc("/cart/clear", session.RequireAuth(h.sessionMgr, h.handleClear))
	mux.HandleFunc("/cart", session.RequireAuth(h.sessionMgr, h.handleList))
}

// addItemRequest 是客户端传来的商品展示数据。
// price 保持成字符串：历史客户端既发数字也发 "1.234.567đ"，在这里统一归一化。
type addItemRequest struct {
	ProductID   string `json:"productId"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

func (h *CartHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	sess, _ := session.FromContext(r.Context())

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProductID == "" {
		http.Error(w, "productId is required", http.StatusBadRequest)
		return
	}

	quantity, err := h.service.AddToCart(ctx, sess.Username, domain.CartLine{
		ProductID:   req.ProductID,
		Name:        req.Name,
		Image:       req.Image,
		Description: req.Description,
		UnitPrice:   money.ParsePrice(req.Price), // 价格归一化的唯一入口
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"productId": req.ProductID, "quantity": quantity})
}

func (h *CartHandler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	sess, _ := session.FromContext(r.Context())

	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateQuantity(ctx, sess.Username, req.ProductID, req.Quantity); err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, domain.ErrLineNotFound) {
			statusCode = http.StatusNotFound
		}
		http.Error(w, err.Error(), statusCode)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (h *CartHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	sess, _ := session.FromContext(r.Context())

	productID := r.URL.Query().Get("productId")
	if productID == "" {
		http.Error(w, "productId is required", http.StatusBadRequest)
		return
	}
	if err := h.service.RemoveFromCart(ctx, sess.Username, productID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	sess, _ := session.FromContext(r.Context())

	if err := h.service.ClearCart(ctx, sess.Username); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (h *CartHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	sess, _ := session.FromContext(r.Context())

	lines, err := h.service.Lines(ctx, sess.Username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"lines":         lines,
		"totalQuantity": domain.TotalQuantity(lines),
		"totalPrice":    domain.TotalPrice(lines),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
