package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var httpClient = &http.Client{
	Timeout: time.Second * 30,
}

// holidays fetches public-holiday dates from a calendar endpoint and caches
// them. Without a URL every day counts as a workday; the weekend tariff
// rule works regardless.
type holidays struct {
	url   string
	dates map[string]bool
	mutex sync.RWMutex
}

func newHolidays(url string) *holidays {
	return &holidays{
		url:   url,
		dates: make(map[string]bool),
	}
}

func (h *holidays) isHoliday(t time.Time) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.dates[t.Format("2006-01-02")]
}

// start refreshes the calendar once at startup and then daily.
func (h *holidays) start(ctx context.Context, wg *sync.WaitGroup) {
	if h.url == "" {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := h.fetch(ctx); err != nil {
			logrus.Errorf("holidays: %s", err)
		}
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := h.fetch(ctx); err != nil {
					logrus.Errorf("holidays: %s", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (h *holidays) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", h.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("error fetching holiday calendar StatusCode: %d", resp.StatusCode)
	}

	var dates []string
	if err := json.NewDecoder(resp.Body).Decode(&dates); err != nil {
		return err
	}

	fresh := make(map[string]bool, len(dates))
	for _, d := range dates {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("bad date %q in calendar: %w", d, err)
		}
		fresh[d] = true
	}

	h.mutex.Lock()
	h.dates = fresh
	h.mutex.Unlock()
	logrus.Debugf("holidays: loaded %d dates", len(fresh))
	return nil
}
