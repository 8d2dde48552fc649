package clock

import (
	"sync"
	"time"
)

// Clock 业务时间源
//
// 所有签到、签退与时长计算都从同一个 Clock 取时间，测试中注入 Fixed。
type Clock interface {
	Now() time.Time
	// Location 计算"当天"使用的时区
	Location() *time.Location
}

type realClock struct {
	loc *time.Location
}

// New 创建系统时钟
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &realClock{loc: loc}
}

func (c *realClock) Now() time.Time           { return time.Now().In(c.loc) }
func (c *realClock) Location() *time.Location { return c.loc }

// Fixed 可手动拨动的时钟，用于测试
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed 创建停在 t 的时钟，时区取 t 自身的时区
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fixed) Location() *time.Location {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now.Location()
}

// Set 将时钟拨到 t
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Advance 时钟前进 d
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Today 返回 now 在 loc 时区下的日历日，以 UTC 零点表示（与 date 列一致）
func Today(c Clock) time.Time {
	return DateOf(c.Now(), c.Location())
}

// DateOf 返回 t 在 loc 时区下的日历日，以 UTC 零点表示
func DateOf(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}
