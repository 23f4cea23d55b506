package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"ordermonitor/cmd/monitor"
	"ordermonitor/src/connectors"
	"ordermonitor/src/database"
	"ordermonitor/src/repository"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Order Monitor CMD"
	app.Usage = "Open-order monitoring and maintenance orchestration"
	app.Version = Version
	app.Before = setupLogger

	app.Commands = []cli.Command{
		monitorCMD,
		statusCMD,
		exceptionsCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	monitorCMD = cli.Command{
		Name:        "monitor",
		Usage:       "run the order monitor",
		Action:      monitorAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the pollers and the HTTP/WebSocket surface`,
	}
	statusCMD = cli.Command{
		Name:      "status",
		Usage:     "print the maintenance status and events",
		Action:    statusAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.DurationFlag{Name: "timeout", Value: 15 * time.Second, Usage: "request timeout"},
		},
		Description: `Query the order-management API once`,
	}
	exceptionsCMD = cli.Command{
		Name:      "exceptions",
		Usage:     "list journaled exceptions",
		Action:    exceptionsAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "module", Usage: "filter by module (bulk, maintenance, orders)"},
			cli.StringFlag{Name: "level", Usage: "filter by level"},
			cli.IntFlag{Name: "limit", Value: 20, Usage: "maximum rows"},
		},
		Description: `Read the exception journal (requires ENABLE_DB=true)`,
	}
)

// setupLogger applies LOG_LEVEL and LOG_FORMAT.
func setupLogger(_ *cli.Context) error {
	config := database.GetConfig()
	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", config.LogLevel, err)
	}
	logrus.SetLevel(level)
	if config.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func monitorAction(_ *cli.Context) error {

	logrus.Info("Starting monitor CMD")

	m := &monitor.Monitor{}
	if err := m.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func statusAction(c *cli.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
	defer cancel()

	client := connectors.NewOMSClientFromEnv()
	status, err := client.GetMaintenanceStatus(ctx)
	if err != nil {
		return err
	}
	events, err := client.ListMaintenanceEvents(ctx)
	if err != nil {
		return err
	}

	return printJSON(map[string]interface{}{
		"enabled": status.Enabled,
		"events":  events,
	})
}

func exceptionsAction(c *cli.Context) error {
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to open exception journal")
		return err
	}
	defer func() { _ = database.Close() }()

	repo := repository.NewExceptionRepository()
	out, err := repo.FindLatest(context.Background(), repository.ExceptionFilter{
		Module: c.String("module"),
		Level:  c.String("level"),
		Limit:  c.Int("limit"),
	})
	if err != nil {
		return err
	}
	return printJSON(out)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
