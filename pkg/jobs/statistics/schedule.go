package statistics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DateLayout is the date format of schedule entries (MM/DD/YYYY).
const DateLayout = "01/02/2006"

// ScheduleEntry is the circulating supply on one day.
type ScheduleEntry struct {
	Date   string `yaml:"date"`
	Supply string `yaml:"supply"`
}

// Schedule is the token release schedule.
type Schedule []ScheduleEntry

// LoadSchedule reads a YAML list of {date, supply} entries.
func LoadSchedule(path string) (Schedule, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}
	return ParseSchedule(data)
}

// ParseSchedule decodes a YAML schedule.
func ParseSchedule(data []byte) (Schedule, error) {
	var s Schedule
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schedule: %w", err)
	}
	return s, nil
}

// SupplyOn returns the scheduled supply for the calendar day of t.
func (s Schedule) SupplyOn(t time.Time) (decimal.Decimal, error) {
	day := t.Format(DateLayout)
	for _, e := range s {
		if e.Date != day {
			continue
		}
		d, err := decimal.NewFromString(e.Supply)
		if err != nil {
			return decimal.Zero, fmt.Errorf("supply for %s: %w", day, err)
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s", ErrNoScheduleEntry, day)
}
