package meter

import (
	"sync"
	"time"
)

// Data is one observation from a power meter or PV inverter. Import and
// export counters reset on the hour, matching what the p1ib bridge reports.
type Data struct {
	Id              string    `json:"id"`
	Model           string    `json:"model"`
	Time            time.Time `json:"time"`
	CurrentW        float64   `json:"w,omitempty"`
	HourlyImportKWh float64   `json:"hourly_import_kwh,omitempty"`
	HourlyExportKWh float64   `json:"hourly_export_kwh,omitempty"`
	PVPowerW        float64   `json:"pv_w,omitempty"`
}

// HourBalanceKWh is exported minus imported energy since the top of the
// hour. Positive means surplus.
func (d *Data) HourBalanceKWh() float64 {
	return d.HourlyExportKWh - d.HourlyImportKWh
}

type Cache struct {
	data *Data
	sync.RWMutex
}

func (c *Cache) Get() *Data {
	c.RLock()
	defer c.RUnlock()
	return c.data
}

// Fresh returns the cached observation if it is younger than maxAge.
func (c *Cache) Fresh(now time.Time, maxAge time.Duration) *Data {
	c.RLock()
	defer c.RUnlock()
	if c.data == nil || now.Sub(c.data.Time) > maxAge {
		return nil
	}
	return c.data
}

func (c *Cache) Set(d *Data) {
	c.Lock()
	c.data = d
	c.Unlock()
}
