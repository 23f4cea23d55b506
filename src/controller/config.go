package controller

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"order_monitor"`
	// Level written on captured exceptions: debug | info | warn | error | fatal
	CaptureLevel string `envconfig:"CAPTURE_LEVEL" default:"error"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
