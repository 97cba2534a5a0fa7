package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Gateway struct {
		Port        string `mapstructure:"port"`
		UpstreamURL string `mapstructure:"upstream_url"`
	} `mapstructure:"gateway"`
	JWT struct {
		// SecretKey is the single shared secret between the auth server and
		// the gateway. It is distributed out-of-band; there is no live key
		// exchange between the two processes. Must be at least 64 bytes.
		SecretKey          string `mapstructure:"secret_key"`
		AccessTokenMinutes int    `mapstructure:"access_token_minutes"`
	} `mapstructure:"jwt"`
	RefreshToken struct {
		TTLHours int `mapstructure:"ttl_hours"`
	} `mapstructure:"refresh_token"`
	ResetToken struct {
		TTLHours int `mapstructure:"ttl_hours"`
	} `mapstructure:"reset_token"`
	RateLimit struct {
		AuthPerMinute int `mapstructure:"auth_per_minute"`
		APIPerMinute  int `mapstructure:"api_per_minute"`
		// TrustProxyHeader keys budgets on X-Forwarded-For. Enable only when
		// the service sits behind a proxy that overwrites the header.
		TrustProxyHeader bool `mapstructure:"trust_proxy_header"`
	} `mapstructure:"rate_limit"`
	Mail struct {
		Host         string `mapstructure:"host"`
		Port         string `mapstructure:"port"`
		From         string `mapstructure:"from"`
		ResetBaseURL string `mapstructure:"reset_base_url"`
	} `mapstructure:"mail"`
}

var AppConfig Config

func LoadConfig(path string) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	viper.SetDefault("jwt.access_token_minutes", 15)
	viper.SetDefault("refresh_token.ttl_hours", 720)
	viper.SetDefault("reset_token.ttl_hours", 24)
	viper.SetDefault("rate_limit.auth_per_minute", 10)
	viper.SetDefault("rate_limit.api_per_minute", 100)
	viper.SetDefault("rate_limit.trust_proxy_header", false)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
