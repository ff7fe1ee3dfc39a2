package labeler

import "strings"

// Một số danh từ bất quy tắc hay gặp trong mô tả repository
var irregularSingulars = map[string]string{
	"children": "child",
	"indices":  "index",
	"matrices": "matrix",
	"people":   "person",
	"vertices": "vertex",
}

// Các từ kết thúc bằng s nhưng không phải số nhiều
var notPlural = map[string]bool{
	"analysis":   true,
	"canvas":     true,
	"chaos":      true,
	"cors":       true,
	"css":        true,
	"ios":        true,
	"kubernetes": true,
	"nodejs":     true,
	"redis":      true,
	"sass":       true,
	"series":     true,
	"status":     true,
}

// singularNoun trả về dạng số ít của một token nếu khác chính nó,
// ngược lại trả về chuỗi rỗng. Quy tắc đơn giản thay cho thư viện inflect.
func singularNoun(token string) string {
	if len(token) < 3 || notPlural[token] {
		return ""
	}
	if s, ok := irregularSingulars[token]; ok {
		return s
	}

	switch {
	case strings.HasSuffix(token, "ies") && len(token) > 4:
		return token[:len(token)-3] + "y"
	case strings.HasSuffix(token, "sses"),
		strings.HasSuffix(token, "xes"),
		strings.HasSuffix(token, "zes"),
		strings.HasSuffix(token, "ches"),
		strings.HasSuffix(token, "shes"):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ss"),
		strings.HasSuffix(token, "us"),
		strings.HasSuffix(token, "is"):
		return ""
	case strings.HasSuffix(token, "s"):
		return token[:len(token)-1]
	}
	return ""
}
