package model

import "time"

// CommunicationPreferences 代表用户的沟通渠道偏好。
type CommunicationPreferences struct {
	Email              bool   `json:"email"`
	SMS                bool   `json:"sms"`
	Phone              bool   `json:"phone"`
	PreferredFrequency string `json:"preferredFrequency"`
}

// UserProfile 代表一个支持者的档案快照。
type UserProfile struct {
	UserID   string `gorm:"primaryKey;size:64" json:"userId"`
	Email    string `gorm:"size:255" json:"email"`
	Name     string `gorm:"size:255" json:"name"`
	Location string `gorm:"size:255" json:"location,omitempty"`

	// 捐赠汇总字段（与交易表的权威数据相比只是快照）
	TotalDonations    float64    `json:"totalDonations"`
	DonationCount     int        `json:"donationCount"`
	FirstDonationDate *time.Time `json:"firstDonationDate,omitempty"`
	LastDonationDate  *time.Time `json:"lastDonationDate,omitempty"`

	HasAttendedEvents bool `json:"hasAttendedEvents"`
	HasFundraised     bool `json:"hasFundraised"`
	HasVolunteered    bool `json:"hasVolunteered"`

	// 与癌症的个人关联
	PersonallyAffected bool   `json:"personallyAffected"`
	LovedOneAffected   bool   `json:"lovedOneAffected"`
	CancerType         string `gorm:"size:64" json:"cancerType,omitempty"`

	Interests                []string                 `gorm:"serializer:json" json:"interests"`
	CommunicationPreferences CommunicationPreferences `gorm:"serializer:json" json:"communicationPreferences"`

	ConsentGiven bool      `json:"consentGiven"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// DefaultProfile 返回一个空档案，作为缺失用户的回退。
func DefaultProfile(userID string) UserProfile {
	return UserProfile{
		UserID:    userID,
		Interests: []string{},
		CommunicationPreferences: CommunicationPreferences{
			Email:              true,
			PreferredFrequency: "monthly",
		},
	}
}

// EngagementType 标识一条参与记录的类型。
type EngagementType string

const (
	EngagementDonation  EngagementType = "donation"
	EngagementEvent     EngagementType = "event"
	EngagementVolunteer EngagementType = "volunteer"
	EngagementFundraise EngagementType = "fundraise"
	EngagementCampaign  EngagementType = "campaign"
	EngagementSearch    EngagementType = "search"
)

// EngagementRecord 代表一次用户参与事件（捐赠、活动、搜索、营销触达）。
// 参与历史是只追加的有序序列，永不收缩。
type EngagementRecord struct {
	RecordID  string         `gorm:"primaryKey;size:64" json:"recordId"`
	UserID    string         `gorm:"index;size:64" json:"userId"`
	Type      EngagementType `gorm:"size:32" json:"type"`
	Timestamp time.Time      `json:"timestamp"`

	DonationAmount float64 `json:"donationAmount,omitempty"`
	EventName      string  `gorm:"size:255" json:"eventName,omitempty"`
	CampaignName   string  `gorm:"size:255" json:"campaignName,omitempty"`

	ImpactDescription string            `gorm:"size:512" json:"impactDescription,omitempty"`
	Metadata          map[string]string `gorm:"serializer:json" json:"metadata,omitempty"`
}

func (EngagementRecord) TableName() string {
	return "engagement_records"
}
