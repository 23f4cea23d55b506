package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"ordermonitor/src/model"
)

type Config struct {
	OpenOrdersPeriod    time.Duration `envconfig:"OPEN_ORDERS_PERIOD" default:"5s"`
	WatchedOrdersPeriod time.Duration `envconfig:"WATCHED_ORDERS_PERIOD" default:"5s"`
	MaintenancePeriod   time.Duration `envconfig:"MAINTENANCE_PERIOD" default:"30s"`
	OpenOrdersPair      string        `envconfig:"OPEN_ORDERS_PAIR"`
	OpenOrdersStatus    string        `envconfig:"OPEN_ORDERS_STATUS"`
	OpenOrdersExchange  string        `envconfig:"OPEN_ORDERS_EXCHANGE"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// Filter returns the open-order filter configured through the environment.
func (c Config) Filter() model.OpenOrderFilter {
	return model.OpenOrderFilter{Pair: c.OpenOrdersPair, Status: c.OpenOrdersStatus, Exchange: c.OpenOrdersExchange}
}
