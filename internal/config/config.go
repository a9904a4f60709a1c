package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	JWT struct {
		SigningKey string `yaml:"signing_key"`
	} `yaml:"jwt"`
	Robokassa struct {
		MerchantLogin  string `yaml:"merchant_login"`
		Password1      string `yaml:"password1"`
		Password2      string `yaml:"password2"`
		TestPassword1  string `yaml:"test_password1"`
		TestPassword2  string `yaml:"test_password2"`
		IsTest         bool   `yaml:"is_test"`
		BaseURL        string `yaml:"base_url"`
		StatusURL      string `yaml:"status_url"`
		SuccessPageURL string `yaml:"success_page_url"`
		FailPageURL    string `yaml:"fail_page_url"`
	} `yaml:"robokassa"`
	Firebase struct {
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firebase"`
	Storage struct {
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
		Endpoint  string `yaml:"endpoint"`
	} `yaml:"storage"`
}

func LoadConfig() Config {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		log.Fatalf("Failed to unmarshal config data: %v", err)
	}

	// секреты можно переопределить через окружение
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("ROBOKASSA_PASSWORD1"); v != "" {
		cfg.Robokassa.Password1 = v
	}
	if v := os.Getenv("ROBOKASSA_PASSWORD2"); v != "" {
		cfg.Robokassa.Password2 = v
	}
	if v := os.Getenv("JWT_SIGNING_KEY"); v != "" {
		cfg.JWT.SigningKey = v
	}
	return cfg
}
