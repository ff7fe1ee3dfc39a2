package cfg

type MockLoader struct{}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{}, nil
}

func (yl *MockLoader) Load() (*Config, error) {
	return &Config{
		// App
		App: App{
			Name:    "star-syncer",
			Version: "0.0.1",
		},

		// Mysql
		Mysql: Mysql{
			Host:                  "127.0.0.1",
			Password:              "root",
			Username:              "root",
			Port:                  "3306",
			Database:              "star_syncer",
			MaxIdleConnection:     10,
			MaxOpenConnection:     100,
			MaxLifeTimeConnection: 3600,
		},

		// GithubApi
		GithubApi: GithubApi{
			AccessToken:       "",
			GraphqlUrl:        "https://api.github.com/graphql",
			ApiUrl:            "https://api.github.com",
			StarredPageSize:   10,
			RequestsPerSecond: 10,
			ThrottleDelay:     200,
			RateLimitResetMin: 30,
		},

		// Gorse
		Gorse: Gorse{
			Address:      "http://127.0.0.1:8088",
			ApiKey:       "",
			ItemPageSize: 1000,
		},

		// Loki
		Loki: Loki{
			PushUrl: "",
		},

		// Kafka
		Kafka: Kafka{
			Brokers: []string{"127.0.0.1:9092"},
			Producer: KafkaProducer{
				TopicSync: "star-syncer.sync",
			},
		},

		// Syncer
		Syncer: Syncer{
			StarThreshold:    100,
			MaxItemsPerRun:   100,
			Workers:          5,
			MinTopicFreq:     5,
			MaxCommentLength: 1000,
			StaleAfterHours:  24,
		},
	}, nil
}
