// Vocabulary là snapshot bất biến các topic đã biết, dựng một lần cho mỗi
// batch job bằng cách quét toàn bộ catalog và đếm tần suất nhãn.
// Chỉ giữ các topic xuất hiện đủ thường xuyên và không nằm trong blocklist.

package labeler

import (
	"context"
	"sort"

	gorseapi "github.com/thep200/star-syncer/internal/gorse_api"
)

type Vocabulary struct {
	terms []string
}

// NewVocabulary quét toàn bộ catalog trong store theo từng trang và
// đếm số lần xuất hiện của mỗi nhãn
func NewVocabulary(ctx context.Context, gorse *gorseapi.Caller, pageSize int, minFreq int, blocklist map[string]bool) (*Vocabulary, error) {
	topicCount := map[string]int{}
	cursor := ""
	for {
		items, nextCursor, err := gorse.GetItems(ctx, pageSize, cursor)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			for _, topic := range item.Labels {
				topicCount[topic]++
			}
		}
		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	terms := make([]string, 0, len(topicCount))
	for topic, count := range topicCount {
		if count >= minFreq && !blocklist[topic] {
			terms = append(terms, topic)
		}
	}
	// Thứ tự ổn định để kết quả extract có thể lặp lại
	sort.Strings(terms)

	return &Vocabulary{terms: terms}, nil
}

// NewVocabularyFromTerms tạo snapshot trực tiếp từ danh sách topic,
// dùng trong test
func NewVocabularyFromTerms(terms []string) *Vocabulary {
	sorted := make([]string, len(terms))
	copy(sorted, terms)
	sort.Strings(sorted)
	return &Vocabulary{terms: sorted}
}

func (v *Vocabulary) Terms() []string {
	return v.terms
}

func (v *Vocabulary) Len() int {
	return len(v.terms)
}
