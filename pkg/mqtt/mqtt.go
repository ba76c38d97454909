package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	mqttv2 "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/sirupsen/logrus"

	"github.com/cwuctl/controller/pkg/meter"
)

const (
	topicState    = "cwuctl/state"
	topicCommands = "cwuctl/cmd/#"
	topicSensors  = "cwuctl/sensors/#"
	topicP1ib     = "p1ib/sensor_state"
)

// Commands is what arrives over the command topics. The coordinator
// implements it through a thin adapter in the app.
type Commands interface {
	ForceCircuit(circuit string, d time.Duration) error
	CancelOverride()
	SetMode(m string) error
	SetEnabled(enabled bool)
	SetCWUTarget(t float64)
}

// Broker embeds an MQTT broker so sensors and dashboards need no external
// one. The inline client feeds the sensor and meter caches and dispatches
// commands.
type Broker struct {
	server  *mqttv2.Server
	sensors *Sensors
	meters  *meter.Cache
	cmds    Commands
}

func NewBroker(sensors *Sensors, meters *meter.Cache, cmds Commands) *Broker {
	return &Broker{
		server: mqttv2.New(&mqttv2.Options{
			InlineClient: true,
		}),
		sensors: sensors,
		meters:  meters,
		cmds:    cmds,
	}
}

// Start brings the broker up on addr and subscribes the inline client.
// Runs until ctx is cancelled.
func (b *Broker) Start(ctx context.Context, wg *sync.WaitGroup, addr string) error {
	wg.Add(1)

	// Allow all connections.
	_ = b.server.AddHook(new(auth.AllowHook), nil)

	tcp := listeners.NewTCP(listeners.Config{ID: "t1", Address: addr})
	if err := b.server.AddListener(tcp); err != nil {
		return err
	}

	if err := b.server.Serve(); err != nil {
		return err
	}

	if err := b.server.Subscribe(topicSensors, 1, b.onSensor); err != nil {
		return err
	}
	if err := b.server.Subscribe(topicP1ib, 2, b.onMeter); err != nil {
		return err
	}
	if err := b.server.Subscribe(topicCommands, 3, b.onCommand); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		b.server.Close()
		wg.Done()
	}()
	return nil
}

func (b *Broker) onSensor(cl *mqttv2.Client, sub packets.Subscription, pk packets.Packet) {
	if err := b.sensors.handle(pk.TopicName, pk.Payload, time.Now()); err != nil {
		logrus.Warnf("mqtt: sensor %s: %s", pk.TopicName, err)
	}
}

func (b *Broker) onMeter(cl *mqttv2.Client, sub packets.Subscription, pk packets.Packet) {
	p1ib := &P1ib{}
	if err := json.Unmarshal(pk.Payload, p1ib); err != nil {
		logrus.Warnf("mqtt: meter payload: %s", err)
		return
	}
	b.meters.Set(p1ib.AsMeterData(cl.ID, time.Now()))
}

func (b *Broker) onCommand(cl *mqttv2.Client, sub packets.Subscription, pk packets.Packet) {
	if err := dispatchCommand(b.cmds, pk.TopicName, pk.Payload); err != nil {
		logrus.Errorf("mqtt: command %s: %s", pk.TopicName, err)
	}
}

// PublishState publishes v retained on the state topic.
func (b *Broker) PublishState(v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.server.Publish(topicState, body, true, 0)
}

// Publish sends a non-retained message, used for notifications.
func (b *Broker) Publish(topic string, body []byte) error {
	return b.server.Publish(topic, body, false, 0)
}
