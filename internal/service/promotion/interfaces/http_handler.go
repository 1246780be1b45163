// internal/service/promotion/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"petshop/internal/pkg/session"
	"petshop/internal/service/promotion/application"
	"petshop/internal/service/promotion/domain"
)

// PromotionHandler 封装了 promotion 服务的 HTTP 处理器
type PromotionHandler struct {
	service    *application.PromotionService
	sessionMgr *session.Manager
}

// NewPromotionHandler 创建一个新的 HTTP 处理器实例
func NewPromotionHandler(service *application.PromotionService, sessionMgr *session.Manager) *PromotionHandler {
	return &PromotionHandler{service: service, sessionMgr: sessionMgr}
}

// RegisterRoutes 注册面向买家的路由
func (h *PromotionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/vouchers", h.handleList)
	mux.HandleFunc("/vouchers/claim", session.RequireAuth(h.sessionMgr, h.handleClaim))
}

// RegisterAdminRoutes 注册后台管理路由，全部要求管理员会话
func (h *PromotionHandler) RegisterAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/admin/vouchers", session.RequireAdmin(h.sessionMgr, h.handleAdminList))
	mux.HandleFunc("/admin/vouchers/save", session.RequireAdmin(h.sessionMgr, h.handleAdminSave))
	mux.HandleFunc("/admin/vouchers/delete", session.RequireAdmin(h.sessionMgr, h.handleAdminDelete))
}

type voucherView struct {
	Code           string `json:"code"`
	Description    string `json:"description"`
	DiscountType   string `json:"discountType"`
	DiscountValue  string `json:"discountValue"`
	MinOrderAmount string `json:"minOrderAmount"`
	ExpirationDate string `json:"expirationDate"`
	Quantity       int    `json:"quantity"`
	UsedCount      int    `json:"usedCount"`
	Remaining      int    `json:"remaining"`
	RuleDefinition string `json:"ruleDefinition,omitempty"`
}

func toView(v *domain.Voucher) voucherView {
	return voucherView{
		Code:           v.Code,
		Description:    v.Description,
		DiscountType:   string(v.DiscountType),
		DiscountValue:  v.DiscountValue.String(),
		MinOrderAmount: v.MinOrderAmount.String(),
		ExpirationDate: v.ExpirationDate.Format(time.RFC3339),
		Quantity:       v.Quantity,
		UsedCount:      v.UsedCount,
		Remaining:      v.Remaining(),
		RuleDefinition: v.RuleDefinition,
	}
}

func (h *PromotionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	vouchers, err := h.service.ListVouchers(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]voucherView, len(vouchers))
	for i, v := range vouchers {
		views[i] = toView(v)
	}
	writeJSON(w, views)
}

func (h *PromotionHandler) handleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	voucher, err := h.service.ClaimVoucher(ctx, req.Code)
	if err != nil {
		var statusCode int
		switch {
		case errors.Is(err, domain.ErrVoucherNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, domain.ErrVoucherExhausted):
			statusCode = http.StatusForbidden
		default:
			statusCode = http.StatusInternalServerError
		}
		http.Error(w, err.Error(), statusCode)
		return
	}
	writeJSON(w, toView(voucher))
}

func (h *PromotionHandler) handleAdminList(w http.ResponseWriter, r *http.Request) {
	h.handleList(w, r)
}

type saveVoucherRequest struct {
	Code           string `json:"code"`
	Description    string `json:"description"`
	DiscountType   string `json:"discountType"`
	DiscountValue  string `json:"discountValue"`
	MinOrderAmount string `json:"minOrderAmount"`
	ExpirationDate string `json:"expirationDate"`
	Quantity       int    `json:"quantity"`
	RuleDefinition string `json:"ruleDefinition"`
}

func (h *PromotionHandler) handleAdminSave(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req saveVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	discountValue, err := decimal.NewFromString(req.DiscountValue)
	if err != nil {
		http.Error(w, "invalid discountValue", http.StatusBadRequest)
		return
	}
	minOrder, err := decimal.NewFromString(req.MinOrderAmount)
	if err != nil {
		http.Error(w, "invalid minOrderAmount", http.StatusBadRequest)
		return
	}
	expiration, err := time.Parse(time.RFC3339, req.ExpirationDate)
	if err != nil {
		http.Error(w, "invalid expirationDate", http.StatusBadRequest)
		return
	}

	voucher := &domain.Voucher{
		Code:           req.Code,
		Description:    req.Description,
		DiscountType:   domain.DiscountType(req.DiscountType),
		DiscountValue:  discountValue,
		MinOrderAmount: minOrder,
		ExpirationDate: expiration,
		Quantity:       req.Quantity,
		RuleDefinition: req.RuleDefinition,
	}
	if err := h.service.SaveVoucher(ctx, voucher); err != nil {
		statusCode := http.StatusBadRequest
		if errors.Is(err, domain.ErrDuplicateCode) {
			statusCode = http.StatusConflict
		}
		http.Error(w, err.Error(), statusCode)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (h *PromotionHandler) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteVoucher(ctx, code); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
