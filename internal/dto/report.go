package dto

// PunctualityBuckets counts how sign-ins landed relative to the start time.
type PunctualityBuckets struct {
	Early  int `json:"early"`
	OnTime int `json:"on_time"`
	Late   int `json:"late"`
}

// FacilitatorCount counts transitions taken by one coordinator.
type FacilitatorCount struct {
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Count     int    `db:"count" json:"count"`
}

// FacilitatorStats breaks down who monitored the event.
type FacilitatorStats struct {
	SignIns  []FacilitatorCount `json:"sign_ins"`
	SignOuts []FacilitatorCount `json:"sign_outs"`
}

// EventReport summarises one activity's attendance outcome.
type EventReport struct {
	Title           string             `json:"title"`
	Date            string             `json:"date"`
	Campus          string             `json:"campus"`
	TotalSpots      int                `json:"total_spots"`
	RSVPCount       int                `json:"rsvp_count"`
	AttendedCount   int                `json:"attended_count"`
	AttendanceRate  float64            `json:"attendance_rate"`
	TotalHours      float64            `json:"total_hours"`
	Punctuality     PunctualityBuckets `json:"punctuality"`
	CampusBreakdown map[string]int     `json:"campus_breakdown,omitempty"`
	Facilitators    FacilitatorStats   `json:"facilitators"`
}

// QuarterEvent is one activity listed in a quarterly report.
type QuarterEvent struct {
	Title  string `json:"title"`
	Date   string `json:"date"`
	Campus string `json:"campus"`
}

// QuarterCampusStats ranks one campus within a quarter.
type QuarterCampusStats struct {
	Name            string  `json:"name"`
	RSVPs           int     `json:"rsvps"`
	Attended        int     `json:"attended"`
	AttendanceRate  float64 `json:"attendance_rate"`
	PunctualityRate float64 `json:"punctuality_rate"`
}

// QuarterReport covers one quarter of the year.
type QuarterReport struct {
	Quarter     string               `json:"quarter"`
	Events      []QuarterEvent       `json:"events"`
	CampusStats []QuarterCampusStats `json:"campus_stats"`
}

// MilestoneQualifiers lists students cleared for the milestone events.
type MilestoneQualifiers struct {
	HikingTrip []string `json:"hiking_trip"`
	AnnualCamp []string `json:"annual_camp"`
}
