package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-filter-go/internal/storage"
	"resume-filter-go/internal/storage/models"
	"resume-filter-go/internal/utils"
)

// 画像接口层错误
var (
	// ErrProfileValidation 画像字段校验失败
	ErrProfileValidation = errors.New("岗位画像字段校验失败")
)

// ProfileHandler 岗位画像处理器
type ProfileHandler struct {
	storage *storage.Storage
}

// NewProfileHandler 创建岗位画像处理器
func NewProfileHandler(st *storage.Storage) *ProfileHandler {
	return &ProfileHandler{storage: st}
}

// JobProfileView 岗位画像的对外表示
type JobProfileView struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Category             string   `json:"category"`
	Keywords             []string `json:"keywords"`
	DoubleWeightKeywords []string `json:"double_weight_keywords"`
	MinScore             int      `json:"min_score,omitempty"`
	IsDefault            bool     `json:"is_default"`
}

// JobProfilesResponse 画像列表响应
type JobProfilesResponse struct {
	Profiles   []JobProfileView `json:"profiles"`
	Categories []string         `json:"categories"`
}

// viewFromModel 将数据库模型转换为对外表示
func viewFromModel(m *models.JobProfile) JobProfileView {
	return JobProfileView{
		ID:                   m.ProfileID,
		Name:                 m.Name,
		Description:          m.Description,
		Category:             m.Category,
		Keywords:             utils.ParseJSONArray(m.KeywordsJSON),
		DoubleWeightKeywords: utils.ParseJSONArray(m.DoubleWeightJSON),
		MinScore:             m.MinScore,
		IsDefault:            m.IsDefault,
	}
}

// validateProfile 校验画像字段，双权重词必须是关键词的子集
func validateProfile(view *JobProfileView) error {
	if strings.TrimSpace(view.Name) == "" {
		return fmt.Errorf("%w: 名称不能为空", ErrProfileValidation)
	}
	if len(view.Keywords) == 0 {
		return fmt.Errorf("%w: 关键词不能为空", ErrProfileValidation)
	}

	keywordSet := make(map[string]bool, len(view.Keywords))
	for _, kw := range view.Keywords {
		keywordSet[strings.ToLower(strings.TrimSpace(kw))] = true
	}
	for _, kw := range view.DoubleWeightKeywords {
		if !keywordSet[strings.ToLower(strings.TrimSpace(kw))] {
			return fmt.Errorf("%w: 双权重词 %q 不在关键词列表中", ErrProfileValidation, kw)
		}
	}
	return nil
}

// HandleListProfiles 列出岗位画像及全部分类，category非空时只返回该分类下的画像
func (h *ProfileHandler) HandleListProfiles(ctx context.Context, category string) (*JobProfilesResponse, error) {
	var profiles []models.JobProfile
	var err error
	if category != "" {
		profiles, err = h.storage.MySQL.ListJobProfilesByCategory(ctx, category)
	} else {
		profiles, err = h.storage.MySQL.ListJobProfiles(ctx)
	}
	if err != nil {
		return nil, err
	}
	categories, err := h.storage.MySQL.ListProfileCategories(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]JobProfileView, 0, len(profiles))
	for i := range profiles {
		views = append(views, viewFromModel(&profiles[i]))
	}
	return &JobProfilesResponse{Profiles: views, Categories: categories}, nil
}

// HandleGetProfile 按ID查询画像
func (h *ProfileHandler) HandleGetProfile(ctx context.Context, profileID string) (*JobProfileView, error) {
	profile, err := h.storage.MySQL.GetJobProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	view := viewFromModel(profile)
	return &view, nil
}

// HandleCreateProfile 创建自定义画像
func (h *ProfileHandler) HandleCreateProfile(ctx context.Context, view *JobProfileView) (*JobProfileView, error) {
	if err := validateProfile(view); err != nil {
		return nil, err
	}

	model := &models.JobProfile{
		ProfileID:        view.ID,
		Name:             view.Name,
		Description:      view.Description,
		Category:         view.Category,
		KeywordsJSON:     utils.ConvertArrayToJSON(view.Keywords),
		DoubleWeightJSON: utils.ConvertArrayToJSON(view.DoubleWeightKeywords),
		MinScore:         view.MinScore,
		IsDefault:        false,
	}
	if err := h.storage.MySQL.CreateJobProfile(ctx, model); err != nil {
		return nil, err
	}

	created := viewFromModel(model)
	return &created, nil
}

// HandleUpdateProfile 更新自定义画像，内置画像拒绝更新
func (h *ProfileHandler) HandleUpdateProfile(ctx context.Context, profileID string, view *JobProfileView) (*JobProfileView, error) {
	if err := validateProfile(view); err != nil {
		return nil, err
	}

	model := &models.JobProfile{
		ProfileID:        profileID,
		Name:             view.Name,
		Description:      view.Description,
		Category:         view.Category,
		KeywordsJSON:     utils.ConvertArrayToJSON(view.Keywords),
		DoubleWeightJSON: utils.ConvertArrayToJSON(view.DoubleWeightKeywords),
		MinScore:         view.MinScore,
	}
	if err := h.storage.MySQL.UpdateJobProfile(ctx, model); err != nil {
		return nil, err
	}

	return h.HandleGetProfile(ctx, profileID)
}

// HandleDeleteProfile 删除自定义画像，内置画像拒绝删除
func (h *ProfileHandler) HandleDeleteProfile(ctx context.Context, profileID string) error {
	return h.storage.MySQL.DeleteJobProfile(ctx, profileID)
}
