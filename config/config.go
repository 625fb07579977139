package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server Server
	Mongo  Mongo
	Redis  Redis
	Nats   Nats
	JWT    JWT
}

type Server struct {
	Addr          string // listen address, e.g. ":8090"
	GatewayID     string // node id, participates in presence keys and relay tagging
	NodeID        int64  // snowflake node bits
	SendQueueSize int    // per-connection outbound buffer
}

type Mongo struct {
	URI         string
	Database    string
	MaxPoolSize uint64
}

type Redis struct {
	Addr     string // empty disables the presence mirror
	Password string
	DB       int
	TTL      time.Duration
}

type Nats struct {
	URL string // empty disables the cross-node relay
}

type JWT struct {
	Secret string
	Alg    string
}

// Load reads config/<name>.yaml, with COOKTALK_* env overrides
// (e.g. COOKTALK_REDIS_ADDR).
func Load(name string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COOKTALK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8090")
	v.SetDefault("server.gatewayid", "gw-1")
	v.SetDefault("server.nodeid", 1)
	v.SetDefault("server.sendqueuesize", 256)
	v.SetDefault("mongo.database", "cooktalk")
	v.SetDefault("mongo.maxpoolsize", 100)
	v.SetDefault("redis.ttl", 2*time.Minute)
	v.SetDefault("jwt.alg", "HS256")
	// declared empty so env overrides bind through Unmarshal
	v.SetDefault("jwt.secret", "")
	v.SetDefault("mongo.uri", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("nats.url", "")

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, env/defaults still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
