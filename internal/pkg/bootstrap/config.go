// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"sync"

	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config 是整个模块的运行时配置。
// 先读 YAML 文件，再用环境变量覆盖关键的基础设施地址，
// 保证容器环境下不改文件也能起服务。
type Config struct {
	App struct {
		// 运费表：配送方式 -> 固定运费（整数盾）。用户只能二选一，不按地址/重量计价。
		ShippingFees map[string]int64 `yaml:"shippingFees"`
		// 会话空闲超时（分钟），超时后服务端自动登出
		SessionIdleMinutes int `yaml:"sessionIdleMinutes"`
		FeatureFlags       struct {
			// 是否启用优惠券上的 CEL 扩展规则（关掉时只做基础资格校验）
			EnableVoucherRules bool `yaml:"enableVoucherRules"`
		} `yaml:"featureFlags"`
	} `yaml:"app"`

	Infra struct {
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		Mysql struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Database string `yaml:"database"`
		} `yaml:"mysql"`
		Kafka struct {
			Brokers    []string `yaml:"brokers"`
			OrderTopic string   `yaml:"orderTopic"`
		} `yaml:"kafka"`
		Zookeeper struct {
			Addrs []string `yaml:"addrs"`
		} `yaml:"zookeeper"`
	} `yaml:"infra"`

	Auth struct {
		// 外部用户中心的基础地址，登录/找回密码/OTP 都走它
		BaseURL string `yaml:"baseURL"`
	} `yaml:"auth"`
}

var (
	currentConfig Config
	configOnce    sync.Once
)

// Init 加载配置，进程启动时调用一次。
func Init() {
	configOnce.Do(func() {
		currentConfig = defaultConfig()

		path := getEnv("CONFIG_PATH", "configs/config.yaml")
		raw, err := os.ReadFile(path)
		if err != nil {
			zlog.Warn().Str("path", path).Err(err).Msg("config file not readable, using defaults")
		} else if err := yaml.Unmarshal(raw, &currentConfig); err != nil {
			zlog.Fatal().Str("path", path).Err(err).Msg("config file is not valid yaml")
		}

		applyEnvOverrides(&currentConfig)
	})
}

// GetCurrentConfig 返回当前配置。必须先调用 Init。
func GetCurrentConfig() *Config {
	return &currentConfig
}

func defaultConfig() Config {
	var c Config
	c.App.ShippingFees = map[string]int64{
		"standard": 20000,
		"express":  45000,
	}
	c.App.SessionIdleMinutes = 30
	c.App.FeatureFlags.EnableVoucherRules = true
	c.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	c.Infra.Redis.Addr = "localhost:6379"
	c.Infra.Mysql.Host = "localhost"
	c.Infra.Mysql.Port = 3306
	c.Infra.Mysql.User = "petshop"
	c.Infra.Mysql.Password = "petshop"
	c.Infra.Mysql.Database = "petshop"
	c.Infra.Kafka.Brokers = []string{"localhost:9092"}
	c.Infra.Kafka.OrderTopic = "order-placed"
	c.Infra.Zookeeper.Addrs = []string{"localhost:2181"}
	c.Auth.BaseURL = "http://localhost:3000"
	return c
}

func applyEnvOverrides(c *Config) {
	if v, ok := os.LookupEnv("JAEGER_ENDPOINT"); ok {
		c.Infra.Jaeger.Endpoint = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		c.Infra.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("MYSQL_HOST"); ok {
		c.Infra.Mysql.Host = v
	}
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		c.Infra.Kafka.Brokers = []string{v}
	}
	if v, ok := os.LookupEnv("ZOOKEEPER_ADDRS"); ok {
		c.Infra.Zookeeper.Addrs = []string{v}
	}
	if v, ok := os.LookupEnv("AUTH_BASE_URL"); ok {
		c.Auth.BaseURL = v
	}
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
