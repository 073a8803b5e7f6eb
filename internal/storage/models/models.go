package models

import (
	"time"

	"gorm.io/datatypes"
)

// JobProfile 岗位画像表，保存一套可复用的关键词筛选规格
// 内置画像 (IsDefault=true) 只读，不允许更新和删除
type JobProfile struct {
	ProfileID          string         `gorm:"type:char(36);primaryKey"`
	Name               string         `gorm:"type:varchar(255);not null"`
	Description        string         `gorm:"type:text"`
	Category           string         `gorm:"type:varchar(100);index:idx_job_profiles_category"`
	KeywordsJSON       datatypes.JSON `gorm:"type:json;not null"` // 关键词列表
	DoubleWeightJSON   datatypes.JSON `gorm:"type:json"`          // 双倍权重子集
	MinScore           int            `gorm:"type:int;default:0"` // 画像级的分数阈值，0表示使用全局默认
	IsDefault          bool           `gorm:"type:boolean;default:false;index:idx_job_profiles_is_default"`
	CreatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (JobProfile) TableName() string {
	return "job_profiles"
}

// ResumeRecord 简历上传记录表，记录每次上传的元信息和分析结论
type ResumeRecord struct {
	RecordID       string         `gorm:"type:char(36);primaryKey"` // UUIDv7，按时间有序
	Filename       string         `gorm:"type:varchar(512);not null;index:idx_resume_records_filename"`
	ContentMD5     string         `gorm:"type:char(32);not null;uniqueIndex:idx_resume_records_md5_unique"`
	ObjectKey      string         `gorm:"type:varchar(1024)"` // MinIO中的对象键
	FileSize       int64          `gorm:"type:bigint"`
	Status         string         `gorm:"type:varchar(50);default:'PENDING';index:idx_resume_records_status"`
	Score          *int           `gorm:"type:int"` // 扫描件为NULL
	IsImageBased   bool           `gorm:"type:boolean;default:false"`
	AnalysisJSON   datatypes.JSON `gorm:"type:json"` // 完整分析结果快照
	AISummary      *string        `gorm:"type:text"`
	SubmittedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_resume_records_submitted_at"`
	UpdatedAt      time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (ResumeRecord) TableName() string {
	return "resume_records"
}
