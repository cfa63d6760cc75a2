package bootstrap

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort        string        `mapstructure:"SERVER_PORT"`
	RedisUrl          string        `mapstructure:"REDIS_URL"`
	RedisPassword     string        `mapstructure:"REDIS_PASSWORD"`
	MongoUri          string        `mapstructure:"MONGO_URI"`
	MongoDatabase     string        `mapstructure:"MONGO_DATABASE"`
	IsLocalCors       bool          `mapstructure:"LOCAL_CORS"`
	CollectionsFile   string        `mapstructure:"COLLECTIONS_FILE"`
	GraphDir          string        `mapstructure:"GRAPH_DIR"`
	BadgerPath        string        `mapstructure:"BADGER_PATH"`
	AnalysisCacheTTL  time.Duration `mapstructure:"ANALYSIS_CACHE_TTL"`
	AnalysisGrpcAddr  string        `mapstructure:"ANALYSIS_GRPC_ADDR"`
	AnalysisGrpcPort  string        `mapstructure:"ANALYSIS_GRPC_PORT"`
	VerifyParallelism int           `mapstructure:"VERIFY_PARALLELISM"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8361")
	v.SetDefault("MONGO_DATABASE", "tsumego")
	v.SetDefault("ANALYSIS_CACHE_TTL", time.Hour)
	v.SetDefault("ANALYSIS_GRPC_PORT", "8362")
	v.SetDefault("VERIFY_PARALLELISM", 4)
}

// Setup reads the .env file at cfgPath. Environment variables override file values.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(cfgPath)
	v.SetConfigType("env")
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
