package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"studystreak-backend/internal/models"
)

const (
	splitThresholdMinutes = 180
	partMinutes           = 120
)

var defaultStudyHours = []int{9, 14, 19}

// WorkClassification is what a description of work maps to.
type WorkClassification struct {
	StudyType       string `json:"study_type"`
	Subject         string `json:"subject"`
	DurationMinutes int    `json:"duration_minutes"`
}

// WorkClassifier maps a free-text description of work to a classification.
type WorkClassifier interface {
	Classify(ctx context.Context, description string) (WorkClassification, error)
}

type keywordRule struct {
	words []string
	value string
	mins  int
}

var studyTypeRules = []keywordRule{
	{[]string{"pset", "problem set", "homework", "assignment"}, "Problem Set", 180},
	{[]string{"exam", "test", "midterm", "final"}, "Exam Preparation", 240},
	{[]string{"project", "paper", "essay", "report"}, "Project Work", 200},
	{[]string{"read", "reading", "textbook", "chapter"}, "Reading & Notes", 90},
	{[]string{"code", "programming", "debug", "algorithm"}, "Coding Practice", 150},
}

var subjectRules = []keywordRule{
	{words: []string{"math", "calculus", "algebra", "statistics"}, value: "Mathematics"},
	{words: []string{"physics", "chemistry", "biology", "science"}, value: "Science"},
	{words: []string{"cs", "computer science", "programming", "code"}, value: "Computer Science"},
	{words: []string{"english", "literature", "writing", "essay"}, value: "English/Literature"},
	{words: []string{"history", "social studies", "politics"}, value: "History"},
}

// ClassifyByKeywords applies the built-in keyword rules.
func ClassifyByKeywords(description string) WorkClassification {
	lower := strings.ToLower(description)
	c := WorkClassification{StudyType: "General Study", Subject: "General", DurationMinutes: 120}
	for _, rule := range studyTypeRules {
		if containsAny(lower, rule.words) {
			c.StudyType, c.DurationMinutes = rule.value, rule.mins
			break
		}
	}
	for _, rule := range subjectRules {
		if containsAny(lower, rule.words) {
			c.Subject = rule.value
			break
		}
	}
	return c
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Planner turns descriptions of work into proposed study sessions.
type Planner struct {
	classifier WorkClassifier
	now        func() time.Time
}

// NewPlanner takes an optional model-backed classifier; keyword rules are
// used when it is nil or fails.
func NewPlanner(classifier WorkClassifier) *Planner {
	return &Planner{classifier: classifier, now: time.Now}
}

func (p *Planner) classify(ctx context.Context, description string) WorkClassification {
	if p.classifier != nil {
		c, err := p.classifier.Classify(ctx, description)
		if err == nil && c.StudyType != "" && c.DurationMinutes > 0 {
			if c.Subject == "" {
				c.Subject = "General"
			}
			return c
		}
		if err != nil {
			log.Printf("planner: classifier failed, using keyword rules: %v", err)
		}
	}
	return ClassifyByKeywords(description)
}

// Suggest proposes sessions for a description. Work longer than three hours
// is split into two-hour parts on consecutive days.
func (p *Planner) Suggest(ctx context.Context, description string, prefs models.Preferences, loc *time.Location) []models.StudySuggestion {
	c := p.classify(ctx, description)

	hours := prefs.PreferredStudyHours
	if len(hours) == 0 {
		hours = defaultStudyHours
	}

	now := p.now().In(loc)
	first := time.Date(now.Year(), now.Month(), now.Day(), hours[0], 0, 0, 0, loc)
	dayOffset := 0
	if first.Before(now) {
		dayOffset = 1
	}

	desc := fmt.Sprintf("Study session for: %s", description)

	if c.DurationMinutes <= splitThresholdMinutes {
		start := time.Date(now.Year(), now.Month(), now.Day()+dayOffset, hours[0], 0, 0, 0, loc)
		return []models.StudySuggestion{{
			Title:           fmt.Sprintf("%s - %s", c.StudyType, c.Subject),
			Description:     desc,
			StartTime:       start,
			EndTime:         start.Add(time.Duration(c.DurationMinutes) * time.Minute),
			DurationMinutes: c.DurationMinutes,
			Subject:         c.Subject,
			Type:            c.StudyType,
			ConfidenceScore: 0.9,
		}}
	}

	parts := c.DurationMinutes / partMinutes
	if parts < 2 {
		parts = 2
	}
	suggestions := make([]models.StudySuggestion, 0, parts)
	for i := 0; i < parts; i++ {
		start := time.Date(now.Year(), now.Month(), now.Day()+dayOffset+i, hours[i%len(hours)], 0, 0, 0, loc)
		suggestions = append(suggestions, models.StudySuggestion{
			Title:           fmt.Sprintf("%s - %s (Part %d)", c.StudyType, c.Subject, i+1),
			Description:     desc,
			StartTime:       start,
			EndTime:         start.Add(partMinutes * time.Minute),
			DurationMinutes: partMinutes,
			Subject:         c.Subject,
			Type:            c.StudyType,
			ConfidenceScore: 0.8,
		})
	}
	return suggestions
}
