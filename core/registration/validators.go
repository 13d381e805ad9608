package registration

import (
	"fmt"
	"strconv"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/brighttutor/brightdesk/core"
)

var (
	studentAgeTag  = "studentage"
	studentAgeText = fmt.Sprintf("age must be between %d and %d", studentAge[0], studentAge[1])

	tutorAgeTag  = "tutorage"
	tutorAgeText = fmt.Sprintf("age must be between %d and %d", tutorAge[0], tutorAge[1])

	termsTag  = "terms"
	termsText = "you must accept the terms and conditions"

	minDaysTag  = "mindays"
	minDaysText = "select at least one day"

	minGradesTag  = "mingrades"
	minGradesText = "select at least one grade"

	oneOfTag = "oneof"
)

// InitValidators registers the form validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(studentStructValidation, StudentValues{})
	validate.RegisterStructValidation(tutorStructValidation, TutorValues{})

	core.RegisterCustomTranslation(validate, translator, studentAgeTag, studentAgeText)
	core.RegisterCustomTranslation(validate, translator, tutorAgeTag, tutorAgeText)
	core.RegisterCustomTranslation(validate, translator, termsTag, termsText)
	core.RegisterCustomTranslation(validate, translator, minDaysTag, minDaysText)
	core.RegisterCustomTranslation(validate, translator, minGradesTag, minGradesText)
}

// Validate checks that every visible field holds an acceptable value.
func (f *Form) Validate(validate *validator.Validate) error {
	if f.Student != nil {
		return validate.Struct(f.Student)
	}
	return validate.Struct(f.Tutor)
}

type fieldChecker struct {
	sl      validator.StructLevel
	visible map[string]bool
}

func newFieldChecker(sl validator.StructLevel, visible []string) fieldChecker {
	fc := fieldChecker{sl: sl, visible: make(map[string]bool, len(visible))}
	for _, f := range visible {
		fc.visible[f] = true
	}
	return fc
}

func (fc fieldChecker) report(value interface{}, field, tag, param string) {
	fc.sl.ReportError(value, field, field, tag, param)
}

// required reports the visible fields left empty.
func (fc fieldChecker) required(values map[string]string) {
	for field, v := range values {
		if fc.visible[field] && v == "" {
			fc.report(v, field, "required", "")
		}
	}
}

// choices reports the visible fields holding an unknown value.
func (fc fieldChecker) choices(choices map[string][]string, values map[string]string) {
	for field, v := range values {
		opts, ok := choices[field]
		if ok && fc.visible[field] && v != "" && !contains(opts, v) {
			fc.report(v, field, oneOfTag, strings.Join(opts, " "))
		}
	}
}

func (fc fieldChecker) age(age string, bounds [2]int, tag string) {
	if age == "" {
		return // reported by the required tag
	}
	n, err := strconv.Atoi(age)
	if err != nil || n < bounds[0] || n > bounds[1] {
		fc.report(age, FieldAge, tag, "")
	}
}

// location reports the missing address parts. The country may be typed freely
// when it is not in the directory.
func (fc fieldChecker) location(p Personal) {
	country := strings.TrimSpace(p.Location.CountryInput)
	if p.Location.Country != nil {
		country = p.Location.Country.Name
	}
	fc.required(map[string]string{
		FieldCountry: country,
		FieldCity:    p.Location.City,
		FieldSubcity: p.Location.Subcity,
		FieldAddress: p.Address,
	})
}

func (fc fieldChecker) terms(accepted bool) {
	if !accepted {
		fc.report(accepted, FieldTerms, termsTag, "")
	}
}

func studentStructValidation(sl validator.StructLevel) {
	s, ok := sl.Current().Interface().(StudentValues)
	if !ok {
		return
	}
	fc := newFieldChecker(sl, s.visibleFields())

	fc.age(s.Age, studentAge, studentAgeTag)
	fc.location(s.Personal)
	fc.required(map[string]string{
		FieldProgrammingArea: s.ProgrammingArea,
		FieldLanguage:        s.Language,
		FieldGrade:           s.Grade,
		FieldCurriculum:      s.Curriculum,
		FieldExam:            s.Exam,
	})
	fc.choices(studentChoices, map[string]string{
		FieldGender:          s.Gender,
		FieldLearningOption:  s.LearningOption,
		FieldProgrammingArea: s.ProgrammingArea,
		FieldLanguage:        s.Language,
		FieldGrade:           s.Grade,
		FieldCurriculum:      s.Curriculum,
		FieldPreference:      s.Preference,
		FieldExam:            s.Exam,
		FieldStudyHours:      s.StudyHours,
	})
	fc.terms(s.Terms)
}

func tutorStructValidation(sl validator.StructLevel) {
	t, ok := sl.Current().Interface().(TutorValues)
	if !ok {
		return
	}
	fc := newFieldChecker(sl, t.visibleFields())

	fc.age(t.Age, tutorAge, tutorAgeTag)
	fc.location(t.Personal)
	fc.required(map[string]string{
		FieldProgrammingArea: t.ProgrammingArea,
		FieldLanguage:        t.Language,
	})
	if t.Degree == nil {
		fc.report(t.Degree, FieldDegreePhoto, "required", "")
	}
	if fc.visible[FieldExperienceGrade] && len(t.ExperienceGrade) == 0 {
		fc.report(t.ExperienceGrade, FieldExperienceGrade, minGradesTag, "")
	}
	if fc.visible[FieldGrade] && len(t.Grade) == 0 {
		fc.report(t.Grade, FieldGrade, minGradesTag, "")
	}
	if len(t.AvailabilityDays) == 0 {
		fc.report(t.AvailabilityDays, FieldAvailabilityDays, minDaysTag, "")
	}
	fc.choices(tutorChoices, map[string]string{
		FieldGender:                t.Gender,
		FieldDegreeLevel:           t.DegreeLevel,
		FieldCurrentStatus:         t.CurrentStatus,
		FieldHasTutoringExperience: t.HasTutoringExperience,
		FieldSpecialty:             t.Specialty,
		FieldProgrammingArea:       t.ProgrammingArea,
		FieldLanguage:              t.Language,
		FieldAvailabilityTime:      t.AvailabilityTime,
	})
	fc.terms(t.Terms)
}
