package service

import (
	"github.com/tilequote/quote-api/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func paginated(data interface{}, total int64, page, pageSize int) *domain.PaginatedResponse {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &domain.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// Line items are copied so stored records never share
// backing arrays with request payloads or each other.

func copyTiles(items []domain.TileItem) []domain.TileItem {
	out := make([]domain.TileItem, len(items))
	copy(out, items)
	return out
}

func copyMaterials(items []domain.MaterialItem) []domain.MaterialItem {
	out := make([]domain.MaterialItem, len(items))
	copy(out, items)
	return out
}

func copyChecklist(items []domain.ChecklistItem) []domain.ChecklistItem {
	out := make([]domain.ChecklistItem, len(items))
	copy(out, items)
	return out
}

func copyNumberPtr(n *domain.Number) *domain.Number {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
