package dto

// ── 考勤模块 DTO ──

// DateRangeQuery 日期区间（YYYY-MM-DD，闭区间），留空使用默认回看天数
type DateRangeQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
}

// ShiftListRequest 待确认班次查询参数
type ShiftListRequest struct {
	DateRangeQuery
	Store string `form:"store"`
}

// ConfirmAllRequest 批量确认请求
// 管理员只能确认本门店；超级管理员不填 store 时确认全部门店
type ConfirmAllRequest struct {
	Store string `json:"store"`
	From  string `json:"from" binding:"omitempty,datetime=2006-01-02"`
	To    string `json:"to"   binding:"omitempty,datetime=2006-01-02"`
}

// ConfirmAllResponse 批量确认结果
type ConfirmAllResponse struct {
	Confirmed int64 `json:"confirmed"`
}

// ShiftResponse 班次
type ShiftResponse struct {
	ID          string   `json:"id"`
	IdentityID  string   `json:"identity_id"`
	DisplayName string   `json:"display_name,omitempty"`
	Date        string   `json:"date"`
	Status      string   `json:"status"`
	CheckIn     string   `json:"check_in"`
	CheckOut    string   `json:"check_out,omitempty"`
	Hours       *float64 `json:"hours,omitempty"`
	Confirmed   bool     `json:"confirmed"`
	Note        string   `json:"note,omitempty"`
}

// WeekdayHours 按星期汇总
type WeekdayHours struct {
	Weekday string  `json:"weekday"`
	Days    int     `json:"days"`
	Hours   float64 `json:"hours"`
}

// HoursStatsResponse 工时统计
type HoursStatsResponse struct {
	IdentityID    string         `json:"identity_id"`
	From          string         `json:"from"`
	To            string         `json:"to"`
	TotalHours    float64        `json:"total_hours"`
	CompletedDays int            `json:"completed_days"`
	AverageHours  float64        `json:"average_hours"`
	ByWeekday     []WeekdayHours `json:"by_weekday"`
}
