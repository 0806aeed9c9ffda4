package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HoursMap holds opening spans per weekday key ("mon".."sun"), e.g. ["10:00-21:00"].
type HoursMap map[string][]string

type PickupConfig struct {
	Enabled        bool `json:"enabled" mapstructure:"enabled"`
	MinLeadMinutes int  `json:"minLeadMinutes" mapstructure:"min_lead_minutes"`
	MaxLeadMinutes int  `json:"maxLeadMinutes" mapstructure:"max_lead_minutes"`
	BufferMinutes  int  `json:"bufferMinutes" mapstructure:"buffer_minutes"`
}

type Store struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Timezone     string        `json:"timezone"`
	Online       bool          `json:"online"`
	Phone        string        `json:"phone,omitempty"`
	Address      string        `json:"address,omitempty"`
	Announcement string        `json:"announcement,omitempty"`
	Hours        HoursMap      `json:"hours,omitempty"`
	Pickup       *PickupConfig `json:"pickup,omitempty"`
}

var weekdayKeys = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// IsOpenAt reports whether t falls inside one of the store's spans for that weekday,
// evaluated in the store's timezone. A store without hours is closed.
func (s Store) IsOpenAt(t time.Time) bool {
	if len(s.Hours) == 0 {
		return false
	}
	if s.Timezone != "" {
		if loc, err := time.LoadLocation(s.Timezone); err == nil {
			t = t.In(loc)
		}
	}
	minute := t.Hour()*60 + t.Minute()
	for _, span := range s.Hours[weekdayKeys[t.Weekday()]] {
		start, end, err := parseSpan(span)
		if err != nil {
			continue
		}
		if minute >= start && minute <= end {
			return true
		}
	}
	return false
}

// AcceptsOrders is the pickup gate: online, pickup not disabled, and open at t.
func (s Store) AcceptsOrders(t time.Time) bool {
	if !s.Online {
		return false
	}
	if s.Pickup != nil && !s.Pickup.Enabled {
		return false
	}
	return s.IsOpenAt(t)
}

func parseSpan(span string) (int, int, error) {
	parts := strings.Split(span, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid span %q", span)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseClock(s string) (int, error) {
	hm := strings.SplitN(strings.TrimSpace(s), ":", 2)
	h, err := strconv.Atoi(hm[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	m := 0
	if len(hm) == 2 {
		if m, err = strconv.Atoi(hm[1]); err != nil {
			return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
		}
	}
	return h*60 + m, nil
}
