package monitor

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ordermonitor/src/bulk"
	"ordermonitor/src/connectors"
	"ordermonitor/src/controller"
	"ordermonitor/src/database"
	"ordermonitor/src/executors"
	"ordermonitor/src/maintenance"
	"ordermonitor/src/metrics"
	"ordermonitor/src/monitor"
	"ordermonitor/src/notify"
	"ordermonitor/src/repository"
	"ordermonitor/src/server"
)

// Components is the assembled order monitor.
type Components struct {
	Monitor     *monitor.Monitor
	Poller      *executors.Poller
	Actions     *controller.OrderActions
	Bulk        *bulk.Coordinator
	Maintenance *maintenance.Controller
	Exceptions  *repository.ExceptionRepository
	Metrics     *metrics.Metrics
}

// Wire connects the components around api. journal may be nil.
func Wire(
	api connectors.OrderManagementAPI,
	pollConfig executors.Config,
	notifier *notify.Notifier,
	m *metrics.Metrics,
	journal *repository.ExceptionRepository,
) *Components {
	var recorder controller.ExceptionRecorder
	if journal != nil {
		recorder = journal
	}

	mon := monitor.New(notifier, m)
	poller := executors.NewPoller(pollConfig, api, mon, m)
	maint := maintenance.NewController(api, mon, poller, notifier, m,
		maintenance.CaptureFunc(controller.Capturer(recorder, "maintenance")))
	coordinator := bulk.NewCoordinator(api, mon, poller, notifier, m,
		bulk.CaptureFunc(controller.Capturer(recorder, "bulk")))
	mon.Attach(poller, coordinator, maint)

	return &Components{
		Monitor:     mon,
		Poller:      poller,
		Actions:     controller.NewOrderActions(api, poller, notifier, controller.Capturer(recorder, "orders")),
		Bulk:        coordinator,
		Maintenance: maint,
		Exceptions:  journal,
		Metrics:     m,
	}
}

// Deps returns the route dependencies.
func (c *Components) Deps() server.Deps {
	return server.Deps{
		Monitor:     c.Monitor,
		Actions:     c.Actions,
		Bulk:        c.Bulk,
		Maintenance: c.Maintenance,
		Exceptions:  c.Exceptions,
		Metrics:     c.Metrics,
	}
}

type Monitor struct{}

// Start runs the poller and the HTTP surface until SIGINT or SIGTERM.
func (t *Monitor) Start() error {
	config := GetConfig()
	if !config.EnablePoller && !config.EnableServer {
		return errors.New("nothing to run: ENABLE_POLLER and ENABLE_SERVER are both false")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to open exception journal")
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close exception journal")
		}
	}()

	c := Wire(
		connectors.NewOMSClientFromEnv(),
		executors.GetConfig(),
		notify.NewFromConfig(),
		metrics.New(),
		repository.NewExceptionRepository(),
	)

	g, gctx := errgroup.WithContext(ctx)
	if config.EnablePoller {
		g.Go(func() error {
			if err := c.Poller.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			c.Poller.Stop()
			return nil
		})
	}
	if config.EnableServer {
		port := server.GetConfig().Port
		g.Go(func() error {
			return server.Run(gctx, port, server.NewRouter(c.Deps()))
		})
	}

	logrus.WithFields(logrus.Fields{
		"poller": config.EnablePoller,
		"server": config.EnableServer,
	}).Info("order monitor started")

	return g.Wait()
}
