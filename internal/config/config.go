package config

type Config struct {
	BaseURL  string
	HttpPort int
	Db       struct {
		Dsn         string
		Automigrate bool
	}
	Jwt struct {
		SecretKey string
	}
	Notifications struct {
		// Email receives server-error reports; OpsEmail receives risk alerts.
		Email    string
		OpsEmail string
	}
	Smtp struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Ledger struct {
		BulkWorkers int
	}
	RedisServer  string
	RedisDB      int
	KafkaServers string
}
