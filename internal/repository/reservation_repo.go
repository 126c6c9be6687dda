package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace_engine_v1/internal/model"
)

// ReservationRepository 库存预占仓储
type ReservationRepository interface {
	// ReleaseExpired 释放过期预占：归还库存并标记为 expired，返回释放条数
	ReleaseExpired(ctx context.Context, now time.Time) (int64, error)
}

type reservationRepo struct {
	db *gorm.DB
}

// NewReservationRepository 创建库存预占仓储
func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

func (r *reservationRepo) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	var released int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var expired []model.StockReservation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ? AND expires_at <= ?", model.ReservationStatusHeld, now).
			Find(&expired).Error; err != nil {
			return err
		}

		for _, res := range expired {
			// 状态条件保证同一预占只归还一次
			result := tx.Model(&model.StockReservation{}).
				Where("id = ? AND status = ?", res.ID, model.ReservationStatusHeld).
				Updates(map[string]interface{}{
					"status":     model.ReservationStatusExpired,
					"updated_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				continue
			}

			if err := tx.Model(&model.Product{}).
				Where("id = ?", res.ProductID).
				Update("stock_quantity", gorm.Expr("stock_quantity + ?", res.Quantity)).Error; err != nil {
				return err
			}
			released++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}
