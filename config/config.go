// config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server    ServerConfiguration
	Redis     RedisConfiguration
	Audit     AuditConfiguration
	Ledger    LedgerConfiguration
	Consensus ConsensusConfiguration
	Sandbox   SandboxConfiguration
	Token     TokenConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr string
}

// AuditConfiguration stores settings for the Elasticsearch decision trail
type AuditConfiguration struct {
	ElasticsearchURL string
}

// LedgerConfiguration stores the attestation ledger endpoint settings
type LedgerConfiguration struct {
	URL     string
	Timeout string
}

// ConsensusConfiguration stores evaluator endpoints and verdict thresholds
type ConsensusConfiguration struct {
	Evaluators   []string
	Timeout      string
	MinAgreement float64
	MaxStdDev    float64
}

// SandboxConfiguration stores resource limits for script execution
type SandboxConfiguration struct {
	CPUSeconds     int
	MemoryKB       int
	OutputMaxBytes int
}

// TokenConfiguration stores token service settings
type TokenConfiguration struct {
	Issuer   string
	Audience string
	TTL      string
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("audit.elasticsearchURL", "http://localhost:9200")
	viper.SetDefault("ledger.url", "https://civic-protocol-core-ledger.onrender.com")
	viper.SetDefault("ledger.timeout", "3s")
	viper.SetDefault("consensus.evaluators", []string{
		"https://aurea.svc/assess",
		"https://eve.svc/assess",
		"https://atlas.svc/assess",
		"https://zeus.svc/assess",
	})
	viper.SetDefault("consensus.timeout", "4s")
	viper.SetDefault("consensus.minAgreement", 0.90)
	viper.SetDefault("consensus.maxStdDev", 0.15)
	viper.SetDefault("sandbox.cpuSeconds", 2)
	viper.SetDefault("sandbox.memoryKB", 262144) // 256 MB
	viper.SetDefault("sandbox.outputMaxBytes", 2048)
	viper.SetDefault("token.issuer", "kaizen-gatekeeper")
	viper.SetDefault("token.audience", "kaizen-internal")
	viper.SetDefault("token.ttl", "30s")
	viper.SetDefault("ratelimit.requests", 100)
	viper.SetDefault("ratelimit.duration", "1m")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	// Unmarshal the configuration into the Configuration struct
	err := viper.Unmarshal(&config)
	if err != nil {
		return err
	}

	return nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat64 retrieves a float64 value from the configuration
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetStringSlice retrieves a string slice value from the configuration
func GetStringSlice(key string) []string {
	return viper.GetStringSlice(key)
}

// GetStringMapStringSlice retrieves a map of string slices from the configuration
func GetStringMapStringSlice(key string) map[string][]string {
	return viper.GetStringMapStringSlice(key)
}
