package model

import "unicode/utf8"

// TruncateString cắt chuỗi xuống độ dài tối đa cho phép nếu chuỗi dài
// hơn giới hạn. Điểm cắt lùi về ranh giới rune gần nhất để không tạo
// ra UTF-8 hỏng giữa một ký tự nhiều byte.
func TruncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
