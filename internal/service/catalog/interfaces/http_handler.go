// internal/service/catalog/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"petshop/internal/pkg/money"
	"petshop/internal/pkg/session"
	"petshop/internal/service/catalog/application"
	"petshop/internal/service/catalog/domain"
)

// CatalogHandler 封装了商品目录的 HTTP 处理器
type CatalogHandler struct {
	service    *application.CatalogService
	sessionMgr *session.Manager
}

func NewCatalogHandler(service *application.CatalogService, sessionMgr *session.Manager) *CatalogHandler {
	return &CatalogHandler{service: service, sessionMgr: sessionMgr}
}

// RegisterRoutes 注册买家侧路由。商品浏览不要求登录，发布评价要求登录。
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/products", h.handleList)
	mux.HandleFunc("/products/get", h.handleGet)
	mux.HandleFunc("/products/reviews", h.handleListReviews)
	mux.HandleFunc("/products/reviews/add", session.RequireAuth(h.sessionMgr, h.handleAddReview))
}

// RegisterAdminRoutes 注册后台商品管理路由
func (h *CatalogHandler) RegisterAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/admin/products", session.RequireAdmin(h.sessionMgr, h.handleList))
	mux.HandleFunc("/admin/products/save", session.RequireAdmin(h.sessionMgr, h.handleSave))
	mux.HandleFunc("/admin/products/delete", session.RequireAdmin(h.sessionMgr, h.handleDelete))
}

type productView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Price         string `json:"price"`
	StockQuantity int    `json:"stockQuantity"`
	Status        string `json:"status"`
	Image         string `json:"image"`
	Description   string `json:"description"`
}

func toView(p *domain.Product) productView {
	return productView{
		ID:            p.ID,
		Name:          p.Name,
		Category:      p.Category,
		Price:         p.Price.String(),
		StockQuantity: p.StockQuantity,
		Status:        string(p.Status()),
		Image:         p.Image,
		Description:   p.Description,
	}
}

func (h *CatalogHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	products, err := h.service.ListProducts(ctx, r.URL.Query().Get("category"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = toView(p)
	}
	writeJSON(w, views)
}

func (h *CatalogHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	product, err := h.service.GetProduct(ctx, r.URL.Query().Get("id"))
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, toView(product))
}

type saveProductRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Price         string `json:"price"` // 接受 "1.234.567đ" 或纯数字
	StockQuantity int    `json:"stockQuantity"`
	Image         string `json:"image"`
	Description   string `json:"description"`
}

func (h *CatalogHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req saveProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// 价格在此归一化，解析失败按 0 处理
	price := money.ParsePrice(req.Price)
	if parsed, err := decimal.NewFromString(req.Price); err == nil {
		price = parsed
	}

	product := &domain.Product{
		ID:            req.ID,
		Name:          req.Name,
		Category:      req.Category,
		Price:         price,
		StockQuantity: req.StockQuantity,
		Image:         req.Image,
		Description:   req.Description,
	}
	if err := h.service.SaveProduct(ctx, product); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (h *CatalogHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	id := r.URL.Query().Get("id")
	if err := h.service.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

type addReviewRequest struct {
	ProductID string `json:"productId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (h *CatalogHandler) handleAddReview(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	sess, _ := session.FromContext(r.Context())

	var req addReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	review, err := h.service.AddReview(ctx, req.ProductID, sess.Username, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidRating):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, review)
}

func (h *CatalogHandler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	reviews, err := h.service.ListReviews(ctx, r.URL.Query().Get("productId"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, reviews)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
