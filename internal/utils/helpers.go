package utils

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"gorm.io/datatypes"
)

// StringPtr 返回字符串的指针
func StringPtr(s string) *string {
	return &s
}

// BoolPtr 返回布尔值的指针
func BoolPtr(b bool) *bool {
	return &b
}

// CalculateMD5 计算字节切片的MD5哈希
func CalculateMD5(data []byte) string {
	hasher := md5.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// KeywordSpecHash 计算关键词规格的稳定哈希，用作缓存键的一部分。
// 关键词先统一小写并排序，保证同一规格的不同写法得到相同哈希。
func KeywordSpecHash(keywords, doubleWeight []string) string {
	normalize := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			out = append(out, strings.ToLower(strings.TrimSpace(s)))
		}
		sort.Strings(out)
		return out
	}

	payload := strings.Join(normalize(keywords), ",") + "|" + strings.Join(normalize(doubleWeight), ",")
	return CalculateMD5([]byte(payload))
}

// ConvertArrayToJSON 将字符串数组转换为JSON列类型
func ConvertArrayToJSON(arr []string) datatypes.JSON {
	if len(arr) == 0 {
		return datatypes.JSON("[]")
	}

	jsonBytes, err := json.Marshal(arr)
	if err != nil {
		// 简单数组序列化失败时退回空数组，调用方不需要处理错误
		return datatypes.JSON("[]")
	}

	return datatypes.JSON(jsonBytes)
}

// ParseJSONArray 将JSON列类型解析回字符串数组
func ParseJSONArray(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
