// Gói labeler sinh nhãn phân loại cho item từ mô tả tự do, dựa trên
// vocabulary các topic đã biết trong catalog.

package labeler

import (
	"regexp"
	"strings"

	gorseapi "github.com/thep200/star-syncer/internal/gorse_api"
)

// Các nhãn đồng thời là category của item
var categorySet = map[string]bool{
	"book": true,
	"game": true,
}

var (
	tokenRegexp = regexp.MustCompile(`[a-z0-9]+(?:[-+#.][a-z0-9]+)*`)
	urlRegexp   = regexp.MustCompile(`https?://(www\.)?[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b([-a-zA-Z0-9()@:%_+.~#?&/=]*)`)
)

type Labeler struct {
	Vocab     *Vocabulary
	Stopwords map[string]bool
	Blocklist map[string]bool
}

func NewLabeler(vocab *Vocabulary) (*Labeler, error) {
	return &Labeler{
		Vocab:     vocab,
		Stopwords: DefaultStopwords(),
		Blocklist: DefaultBlocklist(),
	}, nil
}

// GenerateCategories trả về các nhãn đồng thời là category
func GenerateCategories(labels []string) []string {
	categories := []string{}
	for _, label := range labels {
		if categorySet[label] {
			categories = append(categories, label)
		}
	}
	return categories
}

// Extract tìm các topic trong vocabulary xuất hiện trong đoạn text.
// Topic một từ phải khớp chính xác với một token, topic nhiều từ khớp
// theo chuỗi con của câu đã nối bằng dấu gạch ngang.
func (l *Labeler) Extract(text string) []string {
	if text == "" {
		return []string{}
	}

	tokens := tokenRegexp.FindAllString(strings.ToLower(text), -1)

	// Thêm dạng số ít của token vào danh sách ứng viên,
	// giữ lại cả hai dạng
	appendTokens := []string{}
	for _, token := range tokens {
		if singular := singularNoun(token); singular != "" {
			appendTokens = append(appendTokens, singular)
		}
	}
	tokens = append(tokens, appendTokens...)

	tokenSet := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		tokenSet[token] = true
	}
	sentence := strings.Join(tokens, "-")

	labels := []string{}
	for _, label := range l.Vocab.Terms() {
		if !strings.Contains(label, "-") {
			if tokenSet[label] {
				labels = append(labels, label)
			}
		} else {
			if strings.Contains(sentence, label) {
				labels = append(labels, label)
			}
		}
	}
	return labels
}

// Optimize làm giàu nhãn của item từ phần mô tả. Trả về nil khi không
// có gì thay đổi, orchestrator dùng tín hiệu này để bỏ qua các lần ghi
// thừa vào store.
func (l *Labeler) Optimize(item gorseapi.Item) *gorseapi.Item {
	// Bắt buộc phải có mô tả
	if item.Comment == "" {
		return nil
	}

	// Bỏ URL khỏi mô tả trước khi match
	description := urlRegexp.ReplaceAllString(item.Comment, "")

	extracted := l.Extract(description)
	if len(extracted) == 0 {
		return nil
	}

	merged := append(extracted, item.Labels...)

	// Bỏ stop words, blocklist và trùng lặp
	seen := map[string]bool{}
	labels := []string{}
	for _, label := range merged {
		if l.Stopwords[label] || l.Blocklist[label] || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}

	categories := GenerateCategories(labels)

	if len(labels) == len(item.Labels) && len(categories) == len(item.Categories) {
		return nil
	}

	item.Labels = labels
	item.Categories = categories
	return &item
}
