package services

import (
	"context"
	"sort"
	"time"

	"portfolio-backend/internal/models"
)

const (
	analyticsMonths = 6
	recentContacts  = 5
)

type AnalyticsService struct {
	contacts ContactStore
	projects ProjectStore
	now      func() time.Time
}

func NewAnalyticsService(contacts ContactStore, projects ProjectStore) *AnalyticsService {
	return &AnalyticsService{contacts: contacts, projects: projects, now: time.Now}
}

func (s *AnalyticsService) Get(ctx context.Context) (*models.Analytics, error) {
	contacts, err := s.contacts.List(ctx)
	if err != nil {
		return nil, err
	}
	projectCount, err := s.projects.Count(ctx)
	if err != nil {
		return nil, err
	}
	return BuildAnalytics(contacts, projectCount, s.now()), nil
}

// BuildAnalytics summarises contacts over the six calendar months ending with
// now's month (oldest first, UTC) and picks the five newest submissions.
func BuildAnalytics(contacts []models.Contact, projectCount int, now time.Time) *models.Analytics {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	months := make([]models.MonthCount, analyticsMonths)
	index := make(map[string]int, analyticsMonths)
	for i := 0; i < analyticsMonths; i++ {
		label := first.AddDate(0, i-(analyticsMonths-1), 0).Format("Jan 2006")
		months[i] = models.MonthCount{Month: label}
		index[label] = i
	}

	for _, c := range contacts {
		if c.Timestamp.IsZero() {
			continue
		}
		if i, ok := index[c.Timestamp.UTC().Format("Jan 2006")]; ok {
			months[i].Count++
		}
	}

	sorted := make([]models.Contact, len(contacts))
	copy(sorted, contacts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if len(sorted) > recentContacts {
		sorted = sorted[:recentContacts]
	}

	return &models.Analytics{
		TotalContacts:   len(contacts),
		NewContacts:     len(contacts),
		TotalProjects:   projectCount,
		ContactsByMonth: months,
		RecentContacts:  sorted,
	}
}
