package conf

import (
	"fmt"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
	"os"
	"time"
)

// 配置加载（数据库、日志、策略参数等）

type Db struct {
	Enabled  bool   `yaml:"enabled"`
	DbName   string `yaml:"dbname"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	FileName   string `yaml:"file-name"`
	TimeFormat string `yaml:"time-format"`
	MaxSize    int    `yaml:"max-size"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAge     int    `yaml:"max-age"`
	Compress   bool   `yaml:"compress"`
	LocalTime  bool   `yaml:"local-time"`
	Console    bool   `yaml:"console"`
}

type KafkaConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
}

// JournalConfig 交易流水的本地 JSON 文件
type JournalConfig struct {
	Path string `yaml:"path"`
}

// MarketConfig 策略交易的市场
type MarketConfig struct {
	ID              string `yaml:"id" validate:"required"`
	Name            string `yaml:"name" validate:"required"`
	BaseCurrency    string `yaml:"base-currency" validate:"required"`
	CounterCurrency string `yaml:"counter-currency" validate:"required"`
}

// StrategyConfig 策略名称和原始参数，参数的解析与校验由策略自己完成
type StrategyConfig struct {
	Name  string         `yaml:"name" validate:"required"`
	Items map[string]any `yaml:"items"`
}

// BacktestConfig 回测模拟器的默认参数
type BacktestConfig struct {
	Samples        int           `yaml:"samples" validate:"gte=1"`
	StartPrice     float64       `yaml:"start-price" validate:"gt=0"`
	Spread         string        `yaml:"spread"`
	InitialBase    string        `yaml:"initial-base"`
	InitialCounter string        `yaml:"initial-counter"`
	CrossingFills  bool          `yaml:"crossing-fills"`
	CycleInterval  time.Duration `yaml:"cycle-interval"`
}

type Config struct {
	AppName      string `yaml:"app_name"`
	Listen       string `yaml:"listen"`
	Mode         string `yaml:"mode"`
	Language     string `yaml:"language"`
	MaxPingCount int    `yaml:"max-ping-count"`

	Db       `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Journal  JournalConfig  `yaml:"journal"`
	Market   MarketConfig   `yaml:"market"`
	Strategy StrategyConfig `yaml:"strategy"`
	Backtest BacktestConfig `yaml:"backtest"`
}

var AppConfig Config

func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("Read config file error %w", err)
	}
	if err := yaml.Unmarshal(data, &AppConfig); err != nil {
		return fmt.Errorf("Unmarshal config yaml error: %w", err)
	}
	if err := AppConfig.Validate(); err != nil {
		return fmt.Errorf("Validate config error: %w", err)
	}
	return nil
}

// Validate 校验市场、策略和回测段
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c.Market); err != nil {
		return err
	}
	if err := v.Struct(c.Strategy); err != nil {
		return err
	}
	return v.Struct(c.Backtest)
}
