package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/sirupsen/logrus"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/coordinator"
	"github.com/cwuctl/controller/pkg/device"
	"github.com/cwuctl/controller/pkg/device/dummy"
	"github.com/cwuctl/controller/pkg/device/ecodan"
	"github.com/cwuctl/controller/pkg/energy"
	"github.com/cwuctl/controller/pkg/mbus"
	"github.com/cwuctl/controller/pkg/meter"
	"github.com/cwuctl/controller/pkg/modbusclient"
	"github.com/cwuctl/controller/pkg/mqtt"
	"github.com/cwuctl/controller/pkg/notify"
)

// how old a cached room or meter sample may be before the snapshot treats
// the sensor as gone
const (
	sensorMaxAge = 10 * time.Minute
	meterMaxAge  = 5 * time.Minute

	persistInterval  = 15 * time.Minute
	mbusPollInterval = 30 * time.Second
)

type App struct {
	wg     *sync.WaitGroup
	cli    *config.CliConfig
	store  *config.Store
	dev    device.Device
	coord  *coordinator.Coordinator
	broker *mqtt.Broker

	sensors  *mqtt.Sensors
	meters   *meter.Cache
	notifier *notify.Notifier
	holidays *holidays

	closeDevice func() error
}

func New(cli *config.CliConfig) *App {
	return &App{
		wg:      &sync.WaitGroup{},
		cli:     cli,
		sensors: mqtt.NewSensors(),
		meters:  &meter.Cache{},
	}
}

func (a *App) Start(ctx context.Context) error {
	cfg, err := config.LoadFile(a.cli.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.store = config.NewStore(cfg)

	if err := a.setupDevice(); err != nil {
		return err
	}

	persisted, err := loadState(a.cli.StateFile)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	operating := config.Mode(a.cli.Mode)
	if persisted != nil && persisted.Mode.Valid() {
		operating = persisted.Mode
	}
	if !operating.Valid() {
		return fmt.Errorf("invalid operating mode %q", operating)
	}

	ledger := energy.NewLedger(energy.AttributeByState, time.Now())
	if persisted != nil {
		ledger.Restore(persisted.Today, persisted.Yesterday)
	}

	a.coord = coordinator.New(a.store, a.dev, operating, ledger)
	a.notifier = notify.New(a.setupNotifyPublisher())
	a.holidays = newHolidays(a.cli.CalendarURL)

	a.broker = mqtt.NewBroker(a.sensors, a.meters, &commandAdapter{coord: a.coord})
	if err := a.broker.Start(ctx, a.wg, a.cli.MQTTAddress); err != nil {
		return fmt.Errorf("start broker: %w", err)
	}

	if a.cli.MbusDevice != "" {
		m := mbus.New(a.cli.MbusDevice)
		m.Poll(ctx, a.wg, a.meters, "garo-GNM3D-MBUS", "1", mbusPollInterval)
	}

	a.holidays.start(ctx, a.wg)

	a.wg.Add(1)
	go a.controllerLoop(ctx)
	return nil
}

func (a *App) Wait() {
	a.wg.Wait()
}

func (a *App) setupDevice() error {
	switch a.cli.DeviceType {
	case "ecodan":
		handler := modbus.NewTCPClientHandler(a.cli.Address)
		handler.Timeout = 10 * time.Second
		handler.SlaveId = 1
		mc := modbusclient.New(modbus.NewClient(handler), handler.Close)
		a.dev = ecodan.New(mc, false)
		a.closeDevice = handler.Close
	case "dummy":
		a.dev = dummy.New()
	default:
		return fmt.Errorf("unknown device type %q", a.cli.DeviceType)
	}
	return nil
}

func (a *App) setupNotifyPublisher() notify.Publisher {
	if a.cli.NotifyBroker == "" {
		return nil
	}
	pub, err := notify.NewPahoPublisher(a.cli.NotifyBroker)
	if err != nil {
		// alerting is best effort, the controller must come up anyway
		logrus.Errorf("notify broker unavailable: %s", err)
		return nil
	}
	return pub
}

func (a *App) controllerLoop(ctx context.Context) {
	defer a.wg.Done()
	defer a.shutdown()

	interval := time.Duration(a.cli.TickSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastPersist := time.Now()

	a.tick(ctx, time.Now())
	for {
		select {
		case now := <-ticker.C:
			a.tick(ctx, now)
			if now.Sub(lastPersist) >= persistInterval {
				a.persist()
				lastPersist = now
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) tick(ctx context.Context, now time.Time) {
	tickCtx, cancel := context.WithTimeout(ctx, time.Duration(a.cli.TickSeconds)*time.Second)
	defer cancel()

	snap := a.assembleSnapshot(now)

	p, err := a.coord.Tick(tickCtx, now, snap, a.holidays.isHoliday(now))
	if err != nil {
		logrus.Errorf("tick: %s", err)
		return
	}

	a.notifier.Dispatch(now, p.Events)
	if err := a.broker.PublishState(p); err != nil {
		logrus.Errorf("publish state: %s", err)
	}
}

func (a *App) persist() {
	if err := saveState(a.cli.StateFile, &persistedState{
		Mode:      a.coord.Mode(),
		Today:     a.coord.Today(),
		Yesterday: a.coord.Yesterday(),
	}); err != nil {
		logrus.Errorf("save state: %s", err)
	}
}

func (a *App) shutdown() {
	a.persist()
	if a.closeDevice != nil {
		if err := a.closeDevice(); err != nil {
			logrus.Errorf("close device: %s", err)
		}
	}
}
