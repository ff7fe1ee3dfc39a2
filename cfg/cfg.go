package cfg

type (
	App struct {
		Name    string
		Version string
	}

	Mysql struct {
		Host                  string
		Port                  string
		Username              string
		Password              string
		Database              string
		MaxIdleConnection     int
		MaxOpenConnection     int
		MaxLifeTimeConnection int
	}

	GithubApi struct {
		AccessToken       string
		GraphqlUrl        string
		ApiUrl            string
		StarredPageSize   int
		RequestsPerSecond int
		ThrottleDelay     int
		RateLimitResetMin int
	}

	Gorse struct {
		Address      string
		ApiKey       string
		ItemPageSize int
	}

	Loki struct {
		PushUrl string
	}

	Kafka struct {
		Brokers  []string
		Producer KafkaProducer
	}

	KafkaProducer struct {
		TopicSync string
	}

	Syncer struct {
		StarThreshold    int
		MaxItemsPerRun   int
		Workers          int
		MinTopicFreq     int
		MaxCommentLength int
		StaleAfterHours  int
	}
)

type Config struct {
	App       App
	Mysql     Mysql
	GithubApi GithubApi
	Gorse     Gorse
	Loki      Loki
	Kafka     Kafka
	Syncer    Syncer
}
