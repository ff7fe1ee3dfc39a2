// Cấu trúc dữ liệu trao đổi với Gorse recommendation store

package gorseapi

// Item là một bản ghi catalog trong recommendation store.
// ItemId có dạng owner:name viết thường.
type Item struct {
	ItemId     string   `json:"ItemId"`
	Timestamp  string   `json:"Timestamp"`
	Labels     []string `json:"Labels"`
	Categories []string `json:"Categories"`
	Comment    string   `json:"Comment"`
}

// Feedback là một tương tác quan sát được giữa user và item
type Feedback struct {
	FeedbackType string `json:"FeedbackType"`
	UserId       string `json:"UserId"`
	ItemId       string `json:"ItemId"`
	Timestamp    string `json:"Timestamp"`
}

// User là bản ghi user kèm nhãn để seed tín hiệu cold-start
type User struct {
	UserId string   `json:"UserId"`
	Labels []string `json:"Labels"`
}

// ItemPatch là các trường cập nhật một phần cho item đã tồn tại
type ItemPatch struct {
	Timestamp  *string  `json:"Timestamp,omitempty"`
	Labels     []string `json:"Labels,omitempty"`
	Categories []string `json:"Categories,omitempty"`
	Comment    *string  `json:"Comment,omitempty"`
}

type itemsPageResponse struct {
	Items  []Item `json:"Items"`
	Cursor string `json:"Cursor"`
}
