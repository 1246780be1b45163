// internal/service/promotion/infrastructure/mapper.go
package infrastructure

import (
	"petshop/internal/service/promotion/domain"
)

// toDomainVoucher 将数据库模型转换为领域模型
func toDomainVoucher(model *VoucherModel) *domain.Voucher {
	if model == nil {
		return nil
	}
	return &domain.Voucher{
		ID:             int64(model.ID),
		Code:           model.Code,
		Description:    model.Description,
		DiscountType:   domain.DiscountType(model.DiscountType),
		DiscountValue:  model.DiscountValue,
		MinOrderAmount: model.MinOrderAmount,
		ExpirationDate: model.ExpirationDate,
		Quantity:       model.Quantity,
		UsedCount:      model.UsedCount,
		RuleDefinition: model.RuleDefinition,
	}
}

// fromDomainVoucher 将领域模型转换为数据库模型 (用于创建/更新)
func fromDomainVoucher(dmn *domain.Voucher) *VoucherModel {
	if dmn == nil {
		return nil
	}
	m := &VoucherModel{
		Code:           dmn.Code,
		Description:    dmn.Description,
		DiscountType:   string(dmn.DiscountType),
		DiscountValue:  dmn.DiscountValue,
		MinOrderAmount: dmn.MinOrderAmount,
		ExpirationDate: dmn.ExpirationDate,
		Quantity:       dmn.Quantity,
		UsedCount:      dmn.UsedCount,
		RuleDefinition: dmn.RuleDefinition,
	}
	m.ID = uint(dmn.ID)
	return m
}
