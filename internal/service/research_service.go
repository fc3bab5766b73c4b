package service

import (
	"context"
	"time"

	"supporter-agent-go/internal/model"
	"supporter-agent-go/internal/repository"
	"supporter-agent-go/pkg/log"
	"supporter-agent-go/pkg/storage"
)

// downloadURLExpiry 是论文全文下载链接的有效期。
const downloadURLExpiry = time.Hour

// ResearchService 接口定义了研究论文目录的业务操作。
type ResearchService interface {
	GetFeatured(ctx context.Context, filters model.PaperFilters) ([]model.ResearchPaper, error)
	GetPaper(ctx context.Context, paperID string) (*model.ResearchPaper, error)
}

type researchService struct {
	researchRepo repository.ResearchRepository
	bucketName   string
}

// NewResearchService 创建一个新的 ResearchService 实例。
func NewResearchService(researchRepo repository.ResearchRepository, bucketName string) ResearchService {
	return &researchService{researchRepo: researchRepo, bucketName: bucketName}
}

// GetFeatured 返回精选论文并附带预签名下载链接。
// 目录查询失败时返回空列表而非错误。
func (s *researchService) GetFeatured(ctx context.Context, filters model.PaperFilters) ([]model.ResearchPaper, error) {
	papers, err := s.researchRepo.ListFeatured(ctx, filters)
	if err != nil {
		log.Warnw("featured paper lookup failed, serving empty list", "err", err)
		return []model.ResearchPaper{}, nil
	}

	for i := range papers {
		s.attachDownloadURL(&papers[i])
	}
	return papers, nil
}

// GetPaper 按 ID 返回论文并附带预签名下载链接。
func (s *researchService) GetPaper(ctx context.Context, paperID string) (*model.ResearchPaper, error) {
	if paperID == "" {
		return nil, model.ErrValidation
	}

	paper, err := s.researchRepo.FindByID(ctx, paperID)
	if err != nil {
		return nil, err
	}
	s.attachDownloadURL(paper)
	return paper, nil
}

// attachDownloadURL 为论文生成预签名下载链接。失败只记日志，链接留空。
func (s *researchService) attachDownloadURL(paper *model.ResearchPaper) {
	if paper.ObjectKey == "" {
		return
	}
	url, err := storage.GetPresignedURL(s.bucketName, paper.ObjectKey, downloadURLExpiry)
	if err != nil {
		log.Warnw("failed to presign paper download url", "paperId", paper.PaperID, "err", err)
		return
	}
	paper.DownloadURL = url
}
