package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cshaw-hub/hub-api/internal/dto"
	"github.com/cshaw-hub/hub-api/internal/models"
	"github.com/cshaw-hub/hub-api/internal/repository"
	appErrors "github.com/cshaw-hub/hub-api/pkg/errors"
	"github.com/cshaw-hub/hub-api/pkg/export"
)

// Punctuality windows relative to the activity start. Earlier than 15
// minutes before counts as early, more than 5 minutes after as late.
const (
	earlyWindow = 15 * time.Minute
	lateWindow  = 5 * time.Minute
)

type reportRepository interface {
	FacilitatorStats(ctx context.Context, activityID string) (*dto.FacilitatorStats, error)
	QuarterlyRows(ctx context.Context, year int) ([]repository.QuarterlyRow, error)
}

type reportActivityReader interface {
	FindByID(ctx context.Context, id string) (*models.Activity, error)
}

type reportSignupReader interface {
	ListByActivity(ctx context.Context, activityID string) ([]models.AttendanceRecord, error)
}

// ReportService builds per-event and quarterly attendance reports.
type ReportService struct {
	reports    reportRepository
	activities reportActivityReader
	signups    reportSignupReader
	logger     *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(reports reportRepository, activities reportActivityReader, signups reportSignupReader, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:    reports,
		activities: activities,
		signups:    signups,
		logger:     logger,
	}
}

// EventReport summarises one activity: turnout, hours, punctuality buckets,
// campus breakdown and the facilitators who monitored it.
func (s *ReportService) EventReport(ctx context.Context, activityID string) (*dto.EventReport, error) {
	activity, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}

	records, err := s.signups.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}

	report := &dto.EventReport{
		Title:      activity.Title,
		Date:       activity.StartTime.Format("02 Jan 2006"),
		Campus:     string(activity.Campus),
		TotalSpots: activity.TotalSpots,
		RSVPCount:  len(records),
	}

	campusBreakdown := map[string]int{}
	for i := range records {
		record := &records[i]
		if record.Attended {
			report.AttendedCount++
			report.TotalHours += record.HoursEarned
			campusBreakdown[string(record.StudentCampus)]++
		}
		if record.SignInTime != nil {
			bucketSignIn(&report.Punctuality, *record.SignInTime, activity.StartTime)
		}
	}
	report.TotalHours = round2(report.TotalHours)
	if report.RSVPCount > 0 {
		report.AttendanceRate = round2(float64(report.AttendedCount) / float64(report.RSVPCount) * 100)
	}
	if len(campusBreakdown) > 0 {
		report.CampusBreakdown = campusBreakdown
	}

	facilitators, err := s.reports.FacilitatorStats(ctx, activityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facilitator stats")
	}
	report.Facilitators = *facilitators

	return report, nil
}

// QuarterlyReport groups a year's activities into quarters and ranks the
// campuses inside each quarter by attendance rate.
func (s *ReportService) QuarterlyReport(ctx context.Context, year int) ([]dto.QuarterReport, error) {
	rows, err := s.reports.QuarterlyRows(ctx, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quarterly data")
	}

	type campusAgg struct {
		rsvps    int
		attended int
		punctual int
		signIns  int
	}
	type quarterAgg struct {
		events   map[string]dto.QuarterEvent
		starts   map[string]time.Time
		campuses map[string]*campusAgg
	}

	quarters := map[int]*quarterAgg{}
	for _, row := range rows {
		q := (int(row.StartTime.Month())-1)/3 + 1
		agg := quarters[q]
		if agg == nil {
			agg = &quarterAgg{
				events:   map[string]dto.QuarterEvent{},
				starts:   map[string]time.Time{},
				campuses: map[string]*campusAgg{},
			}
			quarters[q] = agg
		}
		if _, seen := agg.events[row.ActivityID]; !seen {
			agg.events[row.ActivityID] = dto.QuarterEvent{
				Title:  row.Title,
				Date:   row.StartTime.Format("02 Jan 2006"),
				Campus: string(row.Campus),
			}
			agg.starts[row.ActivityID] = row.StartTime
		}
		if row.StudentCampus == nil {
			continue
		}
		campus := string(*row.StudentCampus)
		stats := agg.campuses[campus]
		if stats == nil {
			stats = &campusAgg{}
			agg.campuses[campus] = stats
		}
		stats.rsvps++
		if row.Attended != nil && *row.Attended {
			stats.attended++
		}
		if row.SignInTime != nil {
			stats.signIns++
			if !row.SignInTime.After(row.StartTime.Add(lateWindow)) {
				stats.punctual++
			}
		}
	}

	reports := make([]dto.QuarterReport, 0, len(quarters))
	for q := 1; q <= 4; q++ {
		agg := quarters[q]
		if agg == nil {
			continue
		}
		report := dto.QuarterReport{Quarter: fmt.Sprintf("Q%d %d", q, year)}

		ids := make([]string, 0, len(agg.events))
		for id := range agg.events {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return agg.starts[ids[i]].Before(agg.starts[ids[j]]) })
		for _, id := range ids {
			report.Events = append(report.Events, agg.events[id])
		}

		for campus, stats := range agg.campuses {
			entry := dto.QuarterCampusStats{
				Name:     campus,
				RSVPs:    stats.rsvps,
				Attended: stats.attended,
			}
			if stats.rsvps > 0 {
				entry.AttendanceRate = round2(float64(stats.attended) / float64(stats.rsvps) * 100)
			}
			if stats.signIns > 0 {
				entry.PunctualityRate = round2(float64(stats.punctual) / float64(stats.signIns) * 100)
			}
			report.CampusStats = append(report.CampusStats, entry)
		}
		sort.Slice(report.CampusStats, func(i, j int) bool {
			a, b := report.CampusStats[i], report.CampusStats[j]
			if a.AttendanceRate != b.AttendanceRate {
				return a.AttendanceRate > b.AttendanceRate
			}
			return a.Name < b.Name
		})

		reports = append(reports, report)
	}
	return reports, nil
}

// EventDataset flattens the event report for CSV/PDF export.
func (s *ReportService) EventDataset(ctx context.Context, activityID string) (*export.Dataset, error) {
	activity, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	records, err := s.signups.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}

	dataset := &export.Dataset{
		Title:   fmt.Sprintf("%s - %s", activity.Title, activity.StartTime.Format("02 Jan 2006")),
		Headers: []string{"Student", "Email", "Campus", "Role", "Status", "Sign In", "Sign Out", "Hours"},
	}
	for i := range records {
		record := &records[i]
		role := string(models.RoleTypeGeneral)
		if record.RoleLabel != nil {
			role = *record.RoleLabel
		}
		dataset.Rows = append(dataset.Rows, []string{
			fmt.Sprintf("%s %s", record.StudentName, record.StudentSurname),
			record.StudentEmail,
			string(record.StudentCampus),
			role,
			string(record.Status()),
			formatClock(record.SignInTime),
			formatClock(record.SignOutTime),
			fmt.Sprintf("%.2f", record.HoursEarned),
		})
	}
	return dataset, nil
}

// QuarterlyDataset flattens the quarterly campus rankings for CSV/PDF export.
func (s *ReportService) QuarterlyDataset(ctx context.Context, year int) (*export.Dataset, error) {
	reports, err := s.QuarterlyReport(ctx, year)
	if err != nil {
		return nil, err
	}

	dataset := &export.Dataset{
		Title:   fmt.Sprintf("Quarterly Report %d", year),
		Headers: []string{"Quarter", "Campus", "RSVPs", "Attended", "Attendance %", "Punctuality %"},
	}
	for _, quarter := range reports {
		for _, campus := range quarter.CampusStats {
			dataset.Rows = append(dataset.Rows, []string{
				quarter.Quarter,
				campus.Name,
				fmt.Sprintf("%d", campus.RSVPs),
				fmt.Sprintf("%d", campus.Attended),
				fmt.Sprintf("%.2f", campus.AttendanceRate),
				fmt.Sprintf("%.2f", campus.PunctualityRate),
			})
		}
	}
	return dataset, nil
}

func bucketSignIn(buckets *dto.PunctualityBuckets, signIn, start time.Time) {
	switch {
	case signIn.Before(start.Add(-earlyWindow)):
		buckets.Early++
	case signIn.After(start.Add(lateWindow)):
		buckets.Late++
	default:
		buckets.OnTime++
	}
}

func formatClock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
