package model

import "time"

// TransactionStatus 标识交易状态。
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction 代表一笔捐赠交易。
type Transaction struct {
	TransactionID string            `gorm:"primaryKey;size:64" json:"transactionId"`
	UserID        string            `gorm:"index;size:64" json:"userId"`
	Type          string            `gorm:"size:32" json:"type"` // one_time / recurring
	Amount        float64           `json:"amount"`
	Currency      string            `gorm:"size:8" json:"currency"`
	Status        TransactionStatus `gorm:"size:16" json:"status"`
	Timestamp     time.Time         `json:"timestamp"`
	PaymentMethod string            `gorm:"size:32" json:"paymentMethod"`
	CampaignID    string            `gorm:"size:64" json:"campaignId,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// DonationSummary 是某个用户的捐赠汇总。下游失败时回退为全零汇总。
type DonationSummary struct {
	UserID              string     `json:"userId"`
	TotalAmount         float64    `json:"totalAmount"`
	TransactionCount    int        `json:"transactionCount"`
	AverageAmount       float64    `json:"averageAmount"`
	SuggestedNextAmount float64    `json:"suggestedNextAmount"`
	LastDonationDate    *time.Time `json:"lastDonationDate,omitempty"`
}

// ZeroDonationSummary 返回指定用户的全零捐赠汇总。
func ZeroDonationSummary(userID string) DonationSummary {
	return DonationSummary{UserID: userID}
}
