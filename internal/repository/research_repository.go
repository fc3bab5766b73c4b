package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"supporter-agent-go/internal/model"
)

// ResearchRepository 接口定义了研究论文目录的读取操作。
type ResearchRepository interface {
	FindByID(ctx context.Context, paperID string) (*model.ResearchPaper, error)
	ListFeatured(ctx context.Context, filters model.PaperFilters) ([]model.ResearchPaper, error)
}

// researchRepository 是 ResearchRepository 的 GORM 实现。
type researchRepository struct {
	db *gorm.DB
}

// NewResearchRepository 创建一个新的 ResearchRepository 实例。
func NewResearchRepository(db *gorm.DB) ResearchRepository {
	return &researchRepository{db: db}
}

// FindByID 按论文 ID 查找，不存在时返回 model.ErrNotFound。
func (r *researchRepository) FindByID(ctx context.Context, paperID string) (*model.ResearchPaper, error) {
	var paper model.ResearchPaper
	err := r.db.WithContext(ctx).Where("paper_id = ?", paperID).First(&paper).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

// ListFeatured 按过滤条件返回精选论文，按引用数倒序。
func (r *researchRepository) ListFeatured(ctx context.Context, filters model.PaperFilters) ([]model.ResearchPaper, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 5
	}

	q := r.db.WithContext(ctx).
		Where("is_featured = ?", true).
		Order("citations desc").
		Limit(limit)

	if filters.ResearchArea != "" {
		q = q.Where("research_area = ?", filters.ResearchArea)
	}

	var papers []model.ResearchPaper
	if err := q.Find(&papers).Error; err != nil {
		return nil, err
	}

	// 癌种过滤在 JSON 列上进行，改在内存中收窄
	if len(filters.CancerTypes) > 0 {
		wanted := make(map[string]struct{}, len(filters.CancerTypes))
		for _, t := range filters.CancerTypes {
			wanted[t] = struct{}{}
		}
		filtered := papers[:0]
		for _, p := range papers {
			for _, t := range p.CancerTypes {
				if _, ok := wanted[t]; ok {
					filtered = append(filtered, p)
					break
				}
			}
		}
		papers = filtered
	}

	return papers, nil
}
