package registration

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/country"
)

var (
	errUnknownField  = "unknown field"
	errHiddenField   = "this field is not available"
	errInvalidChoice = "invalid choice"
	errNotANumber    = "this field must be a number"
	errUnknownDay    = "unknown day"
	errGradeRange    = "grade must be between 1 and 12"
	errNoCountry     = "select a country first"
	errUnknownCity   = "unknown city for the selected country"
	errNoCity        = "select a city first"
	errUnknownSub    = "unknown subcity for the selected city"
	errDegreeType    = "the degree document must be an image or a PDF"
	errEmptyUpload   = "the degree document is empty"
)

// New returns an empty form for role.
func New(role Role) (Form, error) {
	if !role.Valid() {
		return Form{}, core.NewValidationError(nil, core.FieldError{Field: "role", Error: errInvalidChoice})
	}

	now := time.Now().UTC()
	f := Form{
		ID:        uuid.New().String(),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	personal := Personal{Location: Location{PhoneCode: DefaultPhoneCode}}
	if role == RoleStudent {
		f.Student = &StudentValues{Personal: personal, StudyDays: []string{}}
	} else {
		f.Tutor = &TutorValues{Personal: personal, AvailabilityDays: []string{}, ExperienceGrade: []int{}, Grade: []int{}}
	}
	f.touch()
	return f, nil
}

func fieldError(field, msg string) error {
	return core.NewValidationError(nil, core.FieldError{Field: field, Error: msg})
}

func (f *Form) personal() *Personal {
	if f.Student != nil {
		return &f.Student.Personal
	}
	return &f.Tutor.Personal
}

func (f *Form) choices() map[string][]string {
	if f.Role == RoleStudent {
		return studentChoices
	}
	return tutorChoices
}

// touch records a change.
func (f *Form) touch() {
	f.Visible = f.VisibleFields()
	f.UpdatedAt = time.Now().UTC()
}

func (f *Form) check(field string) error {
	if f.Submitted {
		return ErrSubmitted
	}
	if !f.isVisible(field) {
		return fieldError(field, errHiddenField)
	}
	return nil
}

func (f *Form) isVisible(field string) bool {
	for _, fld := range f.VisibleFields() {
		if fld == field {
			return true
		}
	}
	return false
}

// Set sets a single-value field. Changing the learning option, or the specialty, clears the fields depending on it.
func (f *Form) Set(field, value string) error {
	ptr := f.scalar(field)
	if ptr == nil {
		if f.Submitted {
			return ErrSubmitted
		}
		return fieldError(field, errUnknownField)
	}
	if err := f.check(field); err != nil {
		return err
	}

	value = strings.TrimSpace(value)
	if field == FieldEmail {
		value = strings.ToLower(value)
	}
	if value != "" {
		if choices, ok := f.choices()[field]; ok && !contains(choices, value) {
			return fieldError(field, errInvalidChoice)
		}
		if field == FieldAge {
			if _, err := strconv.Atoi(value); err != nil {
				return fieldError(field, errNotANumber)
			}
		}
	}

	changed := *ptr != value
	*ptr = value
	if changed {
		f.resetDependents(field, value)
	}
	f.touch()
	return nil
}

// scalar returns the address of a single-value field, nil if there is none.
func (f *Form) scalar(field string) *string {
	p := f.personal()
	switch field {
	case FieldFirstName:
		return &p.FirstName
	case FieldLastName:
		return &p.LastName
	case FieldAge:
		return &p.Age
	case FieldEmail:
		return &p.Email
	case FieldPhone:
		return &p.Phone
	case FieldAddress:
		return &p.Address
	case FieldGender:
		return &p.Gender
	}

	if s := f.Student; s != nil {
		switch field {
		case FieldLearningOption:
			return &s.LearningOption
		case FieldProgrammingArea:
			return &s.ProgrammingArea
		case FieldLanguage:
			return &s.Language
		case FieldGrade:
			return &s.Grade
		case FieldCurriculum:
			return &s.Curriculum
		case FieldPreference:
			return &s.Preference
		case FieldExam:
			return &s.Exam
		case FieldStudyHours:
			return &s.StudyHours
		}
		return nil
	}

	t := f.Tutor
	switch field {
	case FieldDegreeLevel:
		return &t.DegreeLevel
	case FieldCurrentStatus:
		return &t.CurrentStatus
	case FieldHasTutoringExperience:
		return &t.HasTutoringExperience
	case FieldSpecialty:
		return &t.Specialty
	case FieldProgrammingArea:
		return &t.ProgrammingArea
	case FieldLanguage:
		return &t.Language
	case FieldAvailabilityTime:
		return &t.AvailabilityTime
	}
	return nil
}

func (f *Form) resetDependents(field, value string) {
	if s := f.Student; s != nil && field == FieldLearningOption {
		s.ProgrammingArea = ""
		s.Language = ""
		s.Preference = ""
		return
	}
	if t := f.Tutor; t != nil {
		switch field {
		case FieldSpecialty:
			t.ProgrammingArea = ""
			t.Language = ""
			t.Grade = []int{}
		case FieldHasTutoringExperience:
			if value != ExperienceYes {
				t.ExperienceGrade = []int{}
			}
		}
	}
}

func (f *Form) SetTerms(accepted bool) error {
	if err := f.check(FieldTerms); err != nil {
		return err
	}
	if f.Student != nil {
		f.Student.Terms = accepted
	} else {
		f.Tutor.Terms = accepted
	}
	f.touch()
	return nil
}

// ToggleDay adds day to the selected days, or removes it if already selected.
func (f *Form) ToggleDay(day string) error {
	field, days := FieldStudyDays, (*[]string)(nil)
	if f.Student != nil {
		days = &f.Student.StudyDays
	} else {
		field, days = FieldAvailabilityDays, &f.Tutor.AvailabilityDays
	}
	if err := f.check(field); err != nil {
		return err
	}
	if !contains(DaysOfWeek, day) {
		return fieldError(field, errUnknownDay)
	}
	*days = toggle(*days, day)
	f.touch()
	return nil
}

// ToggleGrade adds grade to the multi-select field, or removes it if already selected.
// Only tutors have multi-select grades.
func (f *Form) ToggleGrade(field string, grade int) error {
	if f.Tutor == nil || (field != FieldGrade && field != FieldExperienceGrade) {
		if f.Submitted {
			return ErrSubmitted
		}
		return fieldError(field, errUnknownField)
	}
	if err := f.check(field); err != nil {
		return err
	}
	if grade < MinGrade || grade > MaxGrade {
		return fieldError(field, errGradeRange)
	}

	if field == FieldGrade {
		f.Tutor.Grade = toggle(f.Tutor.Grade, grade)
	} else {
		f.Tutor.ExperienceGrade = toggle(f.Tutor.ExperienceGrade, grade)
	}
	f.touch()
	return nil
}

// TypeCountry records the text typed in the country field. matched is the country whose name equals
// the input, ignoring case, if any: it gets selected. Otherwise the selected country is cleared.
func (f *Form) TypeCountry(input string, matched *country.Country) error {
	if err := f.check(FieldCountry); err != nil {
		return err
	}
	loc := &f.personal().Location
	loc.CountryInput = input

	if matched != nil {
		if loc.Country == nil || loc.Country.Code != matched.Code {
			loc.City, loc.Subcity = "", ""
		}
		c := *matched
		loc.Country = &c
		loc.PhoneCode = c.PhoneCode
	} else if loc.Country != nil {
		loc.Country = nil
		loc.PhoneCode = ""
		loc.City, loc.Subcity = "", ""
	}
	f.touch()
	return nil
}

// SelectCountry selects c, fills the phone code and clears the city and subcity.
func (f *Form) SelectCountry(c country.Country) error {
	if err := f.check(FieldCountry); err != nil {
		return err
	}
	loc := &f.personal().Location
	loc.CountryInput = c.Name
	loc.Country = &c
	loc.PhoneCode = c.PhoneCode
	loc.City, loc.Subcity = "", ""
	f.touch()
	return nil
}

// SelectCity selects a city of the selected country and clears the subcity. An empty city clears it.
func (f *Form) SelectCity(city string) error {
	if err := f.check(FieldCity); err != nil {
		if f.Submitted || f.personal().Location.Country != nil {
			return err
		}
		return fieldError(FieldCity, errNoCountry)
	}
	loc := &f.personal().Location
	if city != "" && !country.HasCity(loc.Country.Code, city) {
		return fieldError(FieldCity, errUnknownCity)
	}
	loc.City = city
	loc.Subcity = ""
	f.touch()
	return nil
}

// SelectSubcity selects a subcity of the selected city. An empty subcity clears it.
func (f *Form) SelectSubcity(subcity string) error {
	if err := f.check(FieldSubcity); err != nil {
		if f.Submitted || f.personal().Location.City != "" {
			return err
		}
		return fieldError(FieldSubcity, errNoCity)
	}
	loc := &f.personal().Location
	if subcity != "" && !country.HasSubcity(loc.City, subcity) {
		return fieldError(FieldSubcity, errUnknownSub)
	}
	loc.Subcity = subcity
	f.touch()
	return nil
}

// AttachDegree attaches the tutor's degree document: an image or a PDF.
func (f *Form) AttachDegree(filename string, content []byte) error {
	if f.Tutor == nil {
		if f.Submitted {
			return ErrSubmitted
		}
		return fieldError(FieldDegreePhoto, errUnknownField)
	}
	if err := f.check(FieldDegreePhoto); err != nil {
		return err
	}
	if len(content) == 0 {
		return fieldError(FieldDegreePhoto, errEmptyUpload)
	}

	ct := http.DetectContentType(content)
	if !(strings.HasPrefix(ct, "image/") || ct == "application/pdf") {
		return fieldError(FieldDegreePhoto, errDegreeType)
	}
	f.Tutor.Degree = &Upload{
		Filename:    filename,
		ContentType: ct,
		Size:        len(content),
		content:     append([]byte(nil), content...),
	}
	f.touch()
	return nil
}

// Values returns the visible fields and their values, as submitted.
func (f *Form) Values() map[string]interface{} {
	vals := make(map[string]interface{})
	p := f.personal()
	for _, field := range f.VisibleFields() {
		switch field {
		case FieldCountry:
			if p.Location.Country != nil {
				vals[field] = p.Location.Country.Name
			} else {
				vals[field] = p.Location.CountryInput
			}
			vals["phoneCode"] = p.Location.PhoneCode
		case FieldCity:
			vals[field] = p.Location.City
		case FieldSubcity:
			vals[field] = p.Location.Subcity
		case FieldStudyDays:
			vals[field] = append([]string{}, f.Student.StudyDays...)
		case FieldAvailabilityDays:
			vals[field] = append([]string{}, f.Tutor.AvailabilityDays...)
		case FieldExperienceGrade:
			vals[field] = append([]int{}, f.Tutor.ExperienceGrade...)
		case FieldTerms:
			if f.Student != nil {
				vals[field] = f.Student.Terms
			} else {
				vals[field] = f.Tutor.Terms
			}
		case FieldDegreePhoto:
			if f.Tutor.Degree != nil {
				vals[field] = f.Tutor.Degree.Filename
			} else {
				vals[field] = ""
			}
		case FieldGrade:
			if f.Tutor != nil {
				vals[field] = append([]int{}, f.Tutor.Grade...)
			} else {
				vals[field] = f.Student.Grade
			}
		default:
			if ptr := f.scalar(field); ptr != nil {
				vals[field] = *ptr
			}
		}
	}
	return vals
}

// clone returns a deep copy of f.
func (f Form) clone() Form {
	f.Visible = append([]string(nil), f.Visible...)
	if f.Student != nil {
		s := *f.Student
		s.StudyDays = append([]string{}, s.StudyDays...)
		s.Location = cloneLocation(s.Location)
		f.Student = &s
	}
	if f.Tutor != nil {
		t := *f.Tutor
		t.AvailabilityDays = append([]string{}, t.AvailabilityDays...)
		t.ExperienceGrade = append([]int{}, t.ExperienceGrade...)
		t.Grade = append([]int{}, t.Grade...)
		t.Location = cloneLocation(t.Location)
		if t.Degree != nil {
			d := *t.Degree
			t.Degree = &d
		}
		f.Tutor = &t
	}
	return f
}

func cloneLocation(loc Location) Location {
	if loc.Country != nil {
		c := *loc.Country
		loc.Country = &c
	}
	return loc
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func toggle[T comparable](list []T, v T) []T {
	for i, x := range list {
		if x == v {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return append(list, v)
}
