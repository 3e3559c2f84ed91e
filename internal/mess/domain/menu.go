package domain

import (
	"strings"
	"time"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
)

// DayKeys は献立表の行。先頭の Common は全曜日共通の行。
var DayKeys = []string{"Common", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// MealSlots は朝食・昼食・夕食の3枠。
type MealSlots [3]string

// DefaultTimings はまだ献立が保存されていない場合の食事時間帯。
var DefaultTimings = MealSlots{"8:00 AM - 9:00 AM", "1:00 PM - 2:00 PM", "8:00 PM - 9:00 PM"}

// Menu はシステムに1件だけ存在する週間献立。
type Menu struct {
	Days      map[string]MealSlots
	Timings   MealSlots
	UpdatedAt *time.Time
	UpdatedBy string
}

func EmptyMenu() Menu {
	days := make(map[string]MealSlots, len(DayKeys))
	for _, key := range DayKeys {
		days[key] = MealSlots{}
	}
	return Menu{Days: days, Timings: DefaultTimings}
}

// DayRow は献立表1行分。
type DayRow struct {
	Day   string
	Slots MealSlots
}

// Rows は DayKeys の順で全行を返す。欠けている曜日は空欄。
func (m Menu) Rows() []DayRow {
	rows := make([]DayRow, 0, len(DayKeys))
	for _, key := range DayKeys {
		rows = append(rows, DayRow{Day: key, Slots: m.Days[key]})
	}
	return rows
}

func canonicalDayKey(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	for _, key := range DayKeys {
		if strings.EqualFold(key, trimmed) {
			return key, true
		}
	}
	return "", false
}

// NormalizeDays はリクエストの days を8曜日すべて揃った形に変換する。
// 未知の曜日キーや4枠以上の指定は入力エラー。
func NormalizeDays(raw map[string][]string) (map[string]MealSlots, error) {
	if raw == nil {
		return nil, apperr.Validation("Days are required")
	}
	days := make(map[string]MealSlots, len(DayKeys))
	for _, key := range DayKeys {
		days[key] = MealSlots{}
	}
	for rawKey, values := range raw {
		key, ok := canonicalDayKey(rawKey)
		if !ok {
			return nil, apperr.Validation("Unknown day: %s", rawKey)
		}
		slots, err := NormalizeSlots(values)
		if err != nil {
			return nil, apperr.Validation("%s: at most 3 meal slots are allowed", key)
		}
		days[key] = slots
	}
	return days, nil
}

// NormalizeSlots は最大3要素の配列を MealSlots に詰める。
func NormalizeSlots(values []string) (MealSlots, error) {
	var slots MealSlots
	if len(values) > len(slots) {
		return slots, apperr.Validation("at most 3 entries are allowed")
	}
	for i, v := range values {
		slots[i] = strings.TrimSpace(v)
	}
	return slots, nil
}
