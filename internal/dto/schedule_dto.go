package dto

// ScheduleRequest selects the date window for a schedule view.
type ScheduleRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

// ScheduleDay groups the sessions of a single calendar day.
type ScheduleDay struct {
	Date      string             `json:"date"`
	Instances []InstanceResponse `json:"instances"`
}

// ScheduleResponse is the materialized range view returned to API clients.
type ScheduleResponse struct {
	From     string        `json:"from"`
	To       string        `json:"to"`
	Days     []ScheduleDay `json:"days"`
	CacheHit bool          `json:"cache_hit"`
}
