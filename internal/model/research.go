package model

import "time"

// ResearchPaper 代表一篇由慈善机构资助的研究论文。
// ObjectKey 指向对象存储中的全文 PDF；DownloadURL 是按需生成的预签名地址。
type ResearchPaper struct {
	PaperID         string    `gorm:"primaryKey;size:64" json:"paperId"`
	Title           string    `gorm:"size:512" json:"title"`
	Authors         []string  `gorm:"serializer:json" json:"authors"`
	Journal         string    `gorm:"size:255" json:"journal"`
	PublicationDate time.Time `json:"publicationDate"`
	Abstract        string    `gorm:"type:text" json:"abstract"`

	Tags         []string `gorm:"serializer:json" json:"tags"`
	CancerTypes  []string `gorm:"serializer:json" json:"cancerTypes"`
	ResearchArea string   `gorm:"size:128" json:"researchArea"`

	Citations  int  `json:"citations"`
	IsFeatured bool `gorm:"index" json:"isFeatured"`

	ObjectKey   string `gorm:"size:512" json:"-"`
	DownloadURL string `gorm:"-" json:"downloadUrl,omitempty"`
}

func (ResearchPaper) TableName() string {
	return "research_papers"
}

// PaperFilters 是研究论文检索的过滤条件。
type PaperFilters struct {
	CancerTypes  []string `json:"cancerTypes,omitempty"`
	ResearchArea string   `json:"researchArea,omitempty"`
	Limit        int      `json:"limit,omitempty"`
}
