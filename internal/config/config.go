package config

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// ErrConfiguration marks a configuration the bot cannot serve with.
var ErrConfiguration = errors.New("configuration error")

// DurationChoice maps a duration button payload to a wait length.
type DurationChoice struct {
	Payload string        `yaml:"payload" validate:"required"`
	Label   string        `yaml:"label" validate:"required"`
	Wait    time.Duration `yaml:"wait" validate:"gt=0"`
}

type Config struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	Telegram struct {
		ApiKey  string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		AdminId int64  `yaml:"admin_id" env-default:"0"`
		BotName string `yaml:"bot_name" env-default:"SobakenBot"`
		Enabled bool   `yaml:"enabled" env-default:"false"`
	} `yaml:"telegram"`
	Conversation struct {
		StatusPhrase     string           `yaml:"status_phrase" env-default:"How is my dog?" validate:"required"`
		ReminderAfter    time.Duration    `yaml:"reminder_after" env-default:"10s" validate:"gt=0"`
		StatusPhotoDelay time.Duration    `yaml:"status_photo_delay" env-default:"10s" validate:"gt=0"`
		Durations        []DurationChoice `yaml:"durations" validate:"dive"`
	} `yaml:"conversation"`
	Catalog struct {
		Texts  map[string]string `yaml:"texts"`
		Photos struct {
			Resting []string `yaml:"resting" validate:"min=1,dive,required"`
			Walk    []string `yaml:"walk" validate:"min=1,dive,required"`
		} `yaml:"photos"`
	} `yaml:"catalog"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:"admin"`
		Password string `yaml:"password" env-default:"pass"`
		Database string `yaml:"database" env-default:"sobaken"`
	} `yaml:"mongo"`
	Listen struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		BindIP  string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port    string `yaml:"port" env-default:"9100"`
		ApiKey  string `yaml:"key" env:"LISTEN_KEY" env-default:""`
	} `yaml:"listen"`
}

// DefaultDurations are used when the config file lists none.
func DefaultDurations() []DurationChoice {
	return []DurationChoice{
		{Payload: "10", Label: "In 10 minutes", Wait: 10 * time.Minute},
		{Payload: "60", Label: "In 1 hour", Wait: time.Hour},
	}
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	once.Do(func() {
		conf, err := Load(path)
		if err != nil {
			desc, _ := cleanenv.GetDescription(&Config{}, nil)
			log.Fatal(fmt.Errorf("%s; %s", err, desc))
		}
		instance = conf
	})
	return instance
}

// Load reads the file at path, applies env overrides and validates the result.
func Load(path string) (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if len(conf.Conversation.Durations) == 0 {
		conf.Conversation.Durations = DefaultDurations()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	seen := make(map[string]bool, len(c.Conversation.Durations))
	for _, d := range c.Conversation.Durations {
		if seen[d.Payload] {
			return fmt.Errorf("%w: duplicate duration payload %q", ErrConfiguration, d.Payload)
		}
		seen[d.Payload] = true
	}
	if len(seen) == 0 {
		return fmt.Errorf("%w: no duration choices", ErrConfiguration)
	}
	return nil
}
