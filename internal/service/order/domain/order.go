// internal/service/order/domain/order.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status 是订单生命周期状态。历史数据里混有越南语标签，
// 这里沿用同一套字符串值，避免给存量订单做迁移。
type Status string

const (
	StatusPending   Status = "Chờ xác nhận" // 待确认
	StatusConfirmed Status = "Đã xác nhận"  // 已确认
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Đã hủy" // 已取消
)

// validTransitions 定义了后台允许的状态流转。
// 终态（Delivered / Đã hủy）不允许再变更。
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
}

// CanTransitionTo 判断订单能否从当前状态流转到目标状态
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// OrderLine 是下单时刻的商品快照。商品后续改价、改名都不影响已生成的订单。
type OrderLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// LineTotal 返回行小计
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order 聚合根。金额字段全部是下单时刻的快照值。
type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Lines         []OrderLine     `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingFee   decimal.Decimal `json:"shippingFee"`
	Discount      decimal.Decimal `json:"discount"`
	FinalAmount   decimal.Decimal `json:"finalAmount"`
	VoucherCode   string          `json:"voucherCode,omitempty"`
	ShippingName  string          `json:"shippingName"`
	ShippingPhone string          `json:"shippingPhone"`
	Address       string          `json:"address"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Transition 执行一次状态流转，非法流转返回 ErrInvalidTransition
func (o *Order) Transition(target Status) error {
	if !o.Status.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	o.Status = target
	return nil
}

// OrderPlacedEvent 是下单成功后发往消息队列的事件载荷
type OrderPlacedEvent struct {
	OrderID     string `json:"orderId"`
	UserID      string `json:"userId"`
	FinalAmount string `json:"finalAmount"`
	CreatedAt   string `json:"createdAt"`
}
