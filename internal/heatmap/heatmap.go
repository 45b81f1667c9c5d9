// Package heatmap は日付キーの導出と、日付→回数マッピングの集計・表示用変換を提供する。
// サーバー側の集計とゲストモードの両方が同じ日付キー規則を使う。
package heatmap

import (
	"sort"
	"time"
)

// DateLayout は日付キーの形式。
const DateLayout = "2006-01-02"

// DefaultWeeks はカレンダー表示のデフォルト週数。
const DefaultWeeks = 52

// Clock は現在時刻の取得を抽象化する。
type Clock interface {
	Now() time.Time
}

// UTCClock はシステム時刻をUTCで返すClock。
// 日付キーは常にUTCで導出する。
type UTCClock struct{}

// Now は現在時刻をUTCで返す。
func (UTCClock) Now() time.Time {
	return time.Now().UTC()
}

// DayKey は時刻tのUTC日付キーを返す。
func DayKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Today はClockから見た今日の日付キーを返す。
func Today(c Clock) string {
	return DayKey(c.Now())
}

// Entry は1日分の集計値。
type Entry struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// FromEntries はEntryの列を日付→回数のマッピングに変換する。
// 同じ日付が複数ある場合は合算する。
func FromEntries(entries []Entry) map[string]int {
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		if e.Count == 0 {
			continue
		}
		counts[e.Date] += e.Count
	}
	return counts
}

// Entries は日付→回数のマッピングを日付昇順のEntry列に変換する。
// 回数0の日は含めない。
func Entries(counts map[string]int) []Entry {
	entries := make([]Entry, 0, len(counts))
	for date, count := range counts {
		if count == 0 {
			continue
		}
		entries = append(entries, Entry{Date: date, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})
	return entries
}

// Level は回数を0〜4の濃淡レベルに変換する。
func Level(count int) int {
	switch {
	case count <= 0:
		return 0
	case count < 2:
		return 1
	case count < 4:
		return 2
	case count < 6:
		return 3
	default:
		return 4
	}
}

// Grid はtodayで終わるweeks*7日分の密な配列を返す。
// 活動のない日は0で埋める。先頭が最も古い日。
func Grid(counts map[string]int, today time.Time, weeks int) []Entry {
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	days := weeks * 7
	end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	grid := make([]Entry, days)
	for i := 0; i < days; i++ {
		date := end.AddDate(0, 0, -(days - 1 - i)).Format(DateLayout)
		grid[i] = Entry{Date: date, Count: counts[date]}
	}
	return grid
}
