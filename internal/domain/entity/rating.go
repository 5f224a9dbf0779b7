package entity

import "fmt"

const (
	MinRating     = 1
	MaxRating     = 4
	DefaultRating = MaxRating
)

type QuestionID string

const (
	CourseMeetsExpectations QuestionID = "course_meets_expectations"
	CourseEnjoyable         QuestionID = "course_enjoyable"
	CourseOpenAssessment    QuestionID = "course_open_assessment"
	CourseSkillGrowth       QuestionID = "course_skill_growth"
	CourseMaterials         QuestionID = "course_materials"

	LecturerLecture      QuestionID = "lecturer_lecture"
	LecturerMentoring    QuestionID = "lecturer_mentoring"
	LecturerIllustration QuestionID = "lecturer_illustration"
	LecturerTechnology   QuestionID = "lecturer_technology"
	LecturerFeedback     QuestionID = "lecturer_feedback"

	FacilitiesComfort      QuestionID = "facilities_comfort"
	FacilitiesConnectivity QuestionID = "facilities_connectivity"
	FacilitiesSanitation   QuestionID = "facilities_sanitation"
)

// AllQuestions lists every rated question in settings-form order.
var AllQuestions = []QuestionID{
	CourseMeetsExpectations, CourseEnjoyable, CourseOpenAssessment, CourseSkillGrowth, CourseMaterials,
	LecturerLecture, LecturerMentoring, LecturerIllustration, LecturerTechnology, LecturerFeedback,
	FacilitiesComfort, FacilitiesConnectivity, FacilitiesSanitation,
}

const DefaultSuggestion = "Terima kasih atas ilmu yang diberikan. Semoga pembelajaran ke depannya semakin baik."

// RatingSettings is read-only once built; copies share nothing mutable.
type RatingSettings struct {
	values     map[QuestionID]int
	suggestion string
}

func NewRatingSettings(values map[QuestionID]int, suggestion string) (RatingSettings, error) {
	copied := make(map[QuestionID]int, len(AllQuestions))
	for _, q := range AllQuestions {
		copied[q] = DefaultRating
	}
	for q, v := range values {
		if !knownQuestion(q) {
			return RatingSettings{}, fmt.Errorf("unknown question %q", q)
		}
		if v < MinRating || v > MaxRating {
			return RatingSettings{}, fmt.Errorf("rating for %s must be in [%d,%d], got %d", q, MinRating, MaxRating, v)
		}
		copied[q] = v
	}
	return RatingSettings{values: copied, suggestion: suggestion}, nil
}

// UniformRatingSettings sets every question to the same value.
func UniformRatingSettings(value int, suggestion string) (RatingSettings, error) {
	values := make(map[QuestionID]int, len(AllQuestions))
	for _, q := range AllQuestions {
		values[q] = value
	}
	return NewRatingSettings(values, suggestion)
}

func DefaultRatingSettings() RatingSettings {
	s, _ := UniformRatingSettings(DefaultRating, DefaultSuggestion)
	return s
}

// Value returns the configured rating; a zero-value RatingSettings yields DefaultRating.
func (s RatingSettings) Value(q QuestionID) int {
	if v, ok := s.values[q]; ok {
		return v
	}
	return DefaultRating
}

func (s RatingSettings) Suggestion() string {
	return s.suggestion
}

func (s RatingSettings) Values() map[QuestionID]int {
	out := make(map[QuestionID]int, len(AllQuestions))
	for _, q := range AllQuestions {
		out[q] = s.Value(q)
	}
	return out
}

func knownQuestion(q QuestionID) bool {
	for _, k := range AllQuestions {
		if k == q {
			return true
		}
	}
	return false
}
