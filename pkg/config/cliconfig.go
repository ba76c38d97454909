package config

import "sync"

type CliConfig struct {
	DeviceType string `default:"ecodan"`
	Address    string `default:"127.0.0.1:502"`

	MQTTAddress  string `default:":1883"`
	NotifyBroker string `default:"tcp://127.0.0.1:1883"`

	CalendarURL string

	ConfigFile string `default:"/etc/cwuctl/config.json"`
	StateFile  string `default:"/var/lib/cwuctl/state.json"`

	MbusDevice string

	TickSeconds int `default:"30"`

	Mode string `default:"winter"`

	LogLevel string `default:"info"`
}

// Store holds the current domain config and supports whole-struct swaps.
// Strategies receive the pointer for one tick and never see partial updates.
type Store struct {
	mutex sync.RWMutex
	cfg   *Config
}

func NewStore(c *Config) *Store {
	return &Store{cfg: c}
}

func (s *Store) Current() *Config {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.cfg
}

// Swap validates and replaces the whole config. Invalid input is rejected
// and the previous config stays active.
func (s *Store) Swap(c *Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mutex.Lock()
	s.cfg = c
	s.mutex.Unlock()
	return nil
}
