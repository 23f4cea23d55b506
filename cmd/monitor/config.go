package monitor

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	EnablePoller bool `envconfig:"ENABLE_POLLER" default:"true"`
	EnableServer bool `envconfig:"ENABLE_SERVER" default:"true"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
