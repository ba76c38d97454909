// Package notify fans controller events out to the log and, when a broker
// is configured, to an external MQTT topic for alerting.
package notify

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/cwuctl/controller/pkg/mode"
)

const Topic = "cwuctl/notify"

// Publisher delivers a notification payload somewhere.
type Publisher interface {
	Publish(topic string, body []byte) error
	Close() error
}

// PahoPublisher publishes to an external MQTT broker, for installations
// where alerting lives outside the embedded one.
type PahoPublisher struct {
	client paho.Client
}

func NewPahoPublisher(broker string) (*PahoPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("cwuctl-notify").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return &PahoPublisher{client: client}, nil
}

func (p *PahoPublisher) Publish(topic string, body []byte) error {
	// QoS 1, alerts should survive a flaky link
	token := p.client.Publish(topic, 1, false, body)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *PahoPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}

type payload struct {
	Time    time.Time      `json:"time"`
	Kind    mode.EventKind `json:"kind"`
	Message string         `json:"message"`
}

// Notifier deduplicates events so a persisting condition alerts once, not
// every tick. The active set resets when a tick produces no events of that
// kind anymore.
type Notifier struct {
	pub    Publisher
	active map[mode.EventKind]string
	mutex  sync.Mutex
}

func New(pub Publisher) *Notifier {
	return &Notifier{
		pub:    pub,
		active: make(map[mode.EventKind]string),
	}
}

// Dispatch logs and publishes the tick's events. Informational events pass
// through undeduplicated.
func (n *Notifier) Dispatch(now time.Time, events []mode.Event) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	seen := make(map[mode.EventKind]bool)
	for _, e := range events {
		seen[e.Kind] = true
		if e.Kind != mode.EventInfo && n.active[e.Kind] == e.Message {
			continue
		}
		n.active[e.Kind] = e.Message
		n.send(now, e)
	}

	for kind := range n.active {
		if !seen[kind] {
			delete(n.active, kind)
		}
	}
}

func (n *Notifier) send(now time.Time, e mode.Event) {
	logrus.WithFields(logrus.Fields{
		"kind": e.Kind,
	}).Warn(e.Message)

	if n.pub == nil {
		return
	}
	body, err := json.Marshal(payload{Time: now, Kind: e.Kind, Message: e.Message})
	if err != nil {
		logrus.Errorf("notify: marshal: %s", err)
		return
	}
	if err := n.pub.Publish(Topic, body); err != nil {
		logrus.Errorf("notify: publish: %s", err)
	}
}
