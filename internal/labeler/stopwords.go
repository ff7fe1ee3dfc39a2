package labeler

// Stop words tiếng Anh, rút gọn từ danh sách của NLTK
var defaultStopwords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true,
	"all": true, "an": true, "and": true, "any": true, "are": true,
	"as": true, "at": true, "be": true, "because": true, "been": true,
	"before": true, "being": true, "below": true, "between": true, "both": true,
	"but": true, "by": true, "can": true, "did": true, "do": true,
	"does": true, "doing": true, "down": true, "during": true, "each": true,
	"few": true, "for": true, "from": true, "further": true, "had": true,
	"has": true, "have": true, "having": true, "he": true, "her": true,
	"here": true, "hers": true, "him": true, "his": true, "how": true,
	"i": true, "if": true, "in": true, "into": true, "is": true,
	"it": true, "its": true, "just": true, "me": true, "more": true,
	"most": true, "my": true, "no": true, "nor": true, "not": true,
	"now": true, "of": true, "off": true, "on": true, "once": true,
	"only": true, "or": true, "other": true, "our": true, "out": true,
	"over": true, "own": true, "same": true, "she": true, "should": true,
	"so": true, "some": true, "such": true, "than": true, "that": true,
	"the": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true, "through": true,
	"to": true, "too": true, "under": true, "until": true, "up": true,
	"very": true, "was": true, "we": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true, "who": true,
	"whom": true, "why": true, "will": true, "with": true, "you": true,
	"your": true, "yours": true,
}

// Blocklist các từ quá chung chung để làm nhãn, theo danh sách
// blocklist.txt của hệ thống cũ
var defaultBlocklist = map[string]bool{
	"app":         true,
	"application": true,
	"awesome":     true,
	"code":        true,
	"demo":        true,
	"example":     true,
	"examples":    true,
	"framework":   true,
	"free":        true,
	"github":      true,
	"hello-world": true,
	"interview":   true,
	"language":    true,
	"learn":       true,
	"learning":    true,
	"library":     true,
	"list":        true,
	"open-source": true,
	"opensource":  true,
	"project":     true,
	"repo":        true,
	"repository":  true,
	"sample":      true,
	"simple":      true,
	"software":    true,
	"template":    true,
	"tool":        true,
	"tools":       true,
	"tutorial":    true,
	"tutorials":   true,
	"website":     true,
}

func DefaultStopwords() map[string]bool {
	return defaultStopwords
}

func DefaultBlocklist() map[string]bool {
	return defaultBlocklist
}
