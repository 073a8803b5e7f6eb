package analyzer

import (
	"regexp"
	"strings"

	"resume-filter-go/internal/utils"
)

// RegionPresenceDetector 基于地域标记词的位置信号探测器
// 标记词做整词匹配，电话国际区号做子串匹配；任一命中即判定为存在，倾向于多报而不是漏报
type RegionPresenceDetector struct {
	markerRes []*regexp.Regexp
	dialCodes []string
}

// NewRegionPresenceDetector 根据标记词和区号列表构建探测器，标记词在构建时编译为整词正则
func NewRegionPresenceDetector(markers []string, dialCodes []string) *RegionPresenceDetector {
	d := &RegionPresenceDetector{
		dialCodes: dialCodes,
	}
	for _, m := range markers {
		m = utils.NormalizeText(m)
		if m == "" {
			continue
		}
		pattern := `\b` + regexp.QuoteMeta(m) + `\b`
		if re, err := regexp.Compile(pattern); err == nil {
			d.markerRes = append(d.markerRes, re)
		}
	}
	return d
}

// Detect 在规范化文本中扫描地域信号
func (d *RegionPresenceDetector) Detect(text string) bool {
	normalized := utils.NormalizeText(text)
	for _, re := range d.markerRes {
		if re.MatchString(normalized) {
			return true
		}
	}
	for _, code := range d.dialCodes {
		if code == "" {
			continue
		}
		if strings.Contains(normalized, strings.ToLower(code)) {
			return true
		}
	}
	return false
}
