package model

import "time"

// Goal はカウント可能な目標を表す。
// Current は追跡操作でのみ増加し、減少させる操作は存在しない。
type Goal struct {
	ID        string
	UserID    string
	Name      string
	Target    int
	Current   int
	Color     string
	CreatedAt time.Time
}

// Ratio は進捗率を[0, 1]の範囲で返す。
// Targetが0以下の場合は0を返す。
func (g *Goal) Ratio() float64 {
	if g.Target <= 0 || g.Current <= 0 {
		return 0
	}
	r := float64(g.Current) / float64(g.Target)
	if r > 1 {
		return 1
	}
	return r
}

// Thought は日々の振り返りメモを表す。作成後は削除以外で変更されない。
type Thought struct {
	ID     string
	UserID string
	Text   string
	Date   time.Time
}

// TrackingEvent は目標ごと・日ごとの追跡回数を表す。
// (GoalID, Date) の組は一意で、同日の再追跡はCountを加算する。
type TrackingEvent struct {
	ID     string
	GoalID string
	UserID string
	Date   string // YYYY-MM-DD
	Count  int
}
