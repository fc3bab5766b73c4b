package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"supporter-agent-go/internal/model"
)

// TransactionRepository 接口定义了捐赠交易的读取操作。
type TransactionRepository interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Transaction, error)
	SummaryForUser(ctx context.Context, userID string) (*model.DonationSummary, error)
}

// transactionRepository 是 TransactionRepository 的 GORM 实现。
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建一个新的 TransactionRepository 实例。
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// ListByUser 按时间倒序返回用户已完成的交易。
func (r *transactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Transaction, error) {
	var txs []model.Transaction
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.TransactionCompleted).
		Order("timestamp desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&txs).Error
	return txs, err
}

// SummaryForUser 聚合用户已完成交易的捐赠汇总。
// 没有交易时返回全零汇总而非错误。
func (r *transactionRepository) SummaryForUser(ctx context.Context, userID string) (*model.DonationSummary, error) {
	var agg struct {
		Total   float64
		Count   int64
		Latest  *time.Time
	}

	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count, MAX(timestamp) AS latest").
		Where("user_id = ? AND status = ?", userID, model.TransactionCompleted).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	summary := model.ZeroDonationSummary(userID)
	if agg.Count > 0 {
		summary.TotalAmount = agg.Total
		summary.TransactionCount = int(agg.Count)
		summary.AverageAmount = agg.Total / float64(agg.Count)
		// 建议下次捐赠额：略高于历史均值，取整
		summary.SuggestedNextAmount = float64(int(summary.AverageAmount*1.2 + 0.5))
		summary.LastDonationDate = agg.Latest
	}
	return &summary, nil
}
