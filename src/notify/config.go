package notify

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	History int `envconfig:"NOTICE_HISTORY" default:"50"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
