package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env-default:"local"`
	WhatsApp struct {
		AccessToken   string `yaml:"access_token" env-default:""`
		VerifyToken   string `yaml:"verify_token" env-default:""`
		AppSecret     string `yaml:"app_secret" env-default:""`
		PhoneNumberID string `yaml:"phone_number_id" env-default:""`
	} `yaml:"whatsapp"`
	Telegram struct {
		ApiKey  string `yaml:"api_key" env-default:""`
		AdminId int64  `yaml:"admin_id" env-default:"0"`
		BotName string `yaml:"bot_name" env-default:"MudaBotAlerts"`
		Enabled bool   `yaml:"enabled" env-default:"false"`
	} `yaml:"telegram"`
	OpenAI struct {
		ApiKey string `yaml:"api_key" env-default:""`
		Model  string `yaml:"model" env-default:"gpt-4o-mini"`
	} `yaml:"openai"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:"admin"`
		Password string `yaml:"password" env-default:"pass"`
		Database string `yaml:"database" env-default:""`
	} `yaml:"mongo"`
	Redis struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Addr     string `yaml:"addr" env-default:"127.0.0.1:6379"`
		Password string `yaml:"password" env-default:""`
		DB       int    `yaml:"db" env-default:"0"`
	} `yaml:"redis"`
	Intake struct {
		MinReplySeconds   int `yaml:"min_reply_seconds" env-default:"2"`
		SessionTTLMinutes int `yaml:"session_ttl_minutes" env-default:"30"`
		CollabTimeoutSecs int `yaml:"collab_timeout_seconds" env-default:"60"`
		SweepIntervalMins int `yaml:"sweep_interval_minutes" env-default:"5"`
	} `yaml:"intake"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env-default:"9200"`
	} `yaml:"listen"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
