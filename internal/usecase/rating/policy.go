package rating

import (
	"strings"

	"epbm-autofill/internal/domain/entity"
)

// pageRule maps a heading substring to the questions on that page. A uniform
// page applies its single question to every rating control on it.
type pageRule struct {
	Heading   string
	Questions []entity.QuestionID
	Uniform   bool
}

var standardPages = []pageRule{
	{
		Heading: "1. Pertanyaan terkait mata kuliah",
		Questions: []entity.QuestionID{
			entity.CourseMeetsExpectations,
			entity.CourseEnjoyable,
			entity.CourseOpenAssessment,
			entity.CourseSkillGrowth,
			entity.CourseMaterials,
		},
	},
	{Heading: "2. Dosen memberikan kuliah dengan metode ceramah", Questions: []entity.QuestionID{entity.LecturerLecture}, Uniform: true},
	{Heading: "3. Dosen menyampaikan kuliah dengan menjadi mentor", Questions: []entity.QuestionID{entity.LecturerMentoring}, Uniform: true},
	{Heading: "4. Dosen memberikan contoh/ilustrasi", Questions: []entity.QuestionID{entity.LecturerIllustration}, Uniform: true},
	{Heading: "5. Dosen menfaatkan ketersediaan teknologi", Questions: []entity.QuestionID{entity.LecturerTechnology}, Uniform: true},
	{Heading: "6. Dosen memberikan umpan balik", Questions: []entity.QuestionID{entity.LecturerFeedback}, Uniform: true},
}

var facilitiesQuestions = []entity.QuestionID{
	entity.FacilitiesComfort,
	entity.FacilitiesConnectivity,
	entity.FacilitiesSanitation,
}

type Policy struct {
	settings entity.RatingSettings
}

func NewPolicy(settings entity.RatingSettings) *Policy {
	return &Policy{settings: settings}
}

// ValueFor returns the star value for the ordinal-th rating control on a page.
// The result is always within [MinRating, MaxRating].
func (p *Policy) ValueFor(category entity.Category, heading string, ordinal int) int {
	q, ok := QuestionFor(category, heading, ordinal)
	if !ok {
		return entity.DefaultRating
	}
	v := p.settings.Value(q)
	if v < entity.MinRating || v > entity.MaxRating {
		return entity.DefaultRating
	}
	return v
}

// QuestionFor resolves which configured question a control answers.
func QuestionFor(category entity.Category, heading string, ordinal int) (entity.QuestionID, bool) {
	if ordinal < 0 {
		return "", false
	}
	if category == entity.CategoryFacilities {
		if ordinal >= len(facilitiesQuestions) {
			return "", false
		}
		return facilitiesQuestions[ordinal], true
	}

	for _, rule := range standardPages {
		if !strings.Contains(heading, rule.Heading) {
			continue
		}
		if rule.Uniform {
			return rule.Questions[0], true
		}
		if ordinal >= len(rule.Questions) {
			return "", false
		}
		return rule.Questions[ordinal], true
	}
	return "", false
}
