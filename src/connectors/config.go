package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BaseURL      string        `envconfig:"OMS_BASE_URL" default:"http://localhost:8000"`
	APIToken     string        `envconfig:"OMS_API_TOKEN"`
	Timeout      time.Duration `envconfig:"OMS_TIMEOUT" default:"15s"`
	RetryCount   int           `envconfig:"OMS_RETRY_COUNT" default:"0"`
	RetryWait    time.Duration `envconfig:"OMS_RETRY_WAIT" default:"500ms"`
	RetryMaxWait time.Duration `envconfig:"OMS_RETRY_MAX_WAIT" default:"8s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
