package model

// SyncMessage là yêu cầu đồng bộ một user, gửi qua Kafka
// từ cronjob tới consumer
type SyncMessage struct {
	Login       string `json:"login"`
	AccessToken string `json:"access_token"`
}
