package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/country"
)

var (
	ethiopia = country.Country{Name: "Ethiopia", Code: "ET", PhoneCode: "+251"}
	france   = country.Country{Name: "France", Code: "FR", PhoneCode: "+33"}
)

func newForm(t *testing.T, role Role) Form {
	f, err := New(role)
	require.NoError(t, err)
	return f
}

func fieldErr(t *testing.T, err error) core.FieldError {
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "want *core.ValidationError, got %T", err)
	require.Len(t, vErr.Fields, 1)
	return vErr.Fields[0]
}

func TestNew(t *testing.T) {
	f := newForm(t, RoleStudent)
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, DefaultPhoneCode, f.Student.Location.PhoneCode)
	assert.Nil(t, f.Tutor)
	assert.NotContains(t, f.Visible, FieldAddress)

	_, err := New("admin")
	assert.Equal(t, "role", fieldErr(t, err).Field)
}

func TestForm_ToggleDay(t *testing.T) {
	for _, role := range []Role{RoleStudent, RoleTutor} {
		t.Run(string(role), func(t *testing.T) {
			f := newForm(t, role)
			days := func() []string {
				if f.Student != nil {
					return f.Student.StudyDays
				}
				return f.Tutor.AvailabilityDays
			}

			require.NoError(t, f.ToggleDay("Monday"))
			require.NoError(t, f.ToggleDay("Friday"))
			before := append([]string(nil), days()...)

			require.NoError(t, f.ToggleDay("Wednesday"))
			assert.ElementsMatch(t, []string{"Monday", "Friday", "Wednesday"}, days())
			require.NoError(t, f.ToggleDay("Wednesday"))
			assert.ElementsMatch(t, before, days())

			assert.Error(t, f.ToggleDay("Funday"))
		})
	}
}

func TestForm_SelectCountry(t *testing.T) {
	f := newForm(t, RoleStudent)
	require.NoError(t, f.SelectCountry(ethiopia))
	assert.Contains(t, f.Visible, FieldCity)
	assert.Contains(t, f.Visible, FieldAddress)

	require.NoError(t, f.SelectCity("Addis Ababa"))
	require.NoError(t, f.SelectSubcity("Bole"))
	assert.Contains(t, f.Visible, FieldSubcity)

	require.NoError(t, f.SelectCountry(france))
	loc := f.Student.Location
	assert.Equal(t, "France", loc.CountryInput)
	assert.Equal(t, "+33", loc.PhoneCode)
	assert.Empty(t, loc.City)
	assert.Empty(t, loc.Subcity)
	assert.NotContains(t, f.Visible, FieldCity) // no known cities
	assert.Contains(t, f.Visible, FieldAddress)
}

func TestForm_SelectCity(t *testing.T) {
	f := newForm(t, RoleTutor)
	assert.Equal(t, errNoCountry, fieldErr(t, f.SelectCity("Addis Ababa")).Error)

	require.NoError(t, f.SelectCountry(ethiopia))
	assert.Equal(t, errUnknownCity, fieldErr(t, f.SelectCity("Paris")).Error)

	require.NoError(t, f.SelectCity("Hawassa"))
	assert.NotContains(t, f.Visible, FieldSubcity) // no known subcities
	assert.Equal(t, errHiddenField, fieldErr(t, f.SelectSubcity("Bole")).Error)

	require.NoError(t, f.SelectCity(""))
	assert.Equal(t, errNoCity, fieldErr(t, f.SelectSubcity("Bole")).Error)

	require.NoError(t, f.SelectCity("Dire Dawa"))
	assert.Equal(t, errUnknownSub, fieldErr(t, f.SelectSubcity("Bole")).Error)
	require.NoError(t, f.SelectSubcity("Gonfa"))

	// changing city clears the subcity
	require.NoError(t, f.SelectCity("Mekelle"))
	assert.Empty(t, f.Tutor.Location.Subcity)
}

func TestForm_TypeCountry(t *testing.T) {
	f := newForm(t, RoleStudent)

	require.NoError(t, f.TypeCountry("Eth", nil))
	assert.Nil(t, f.Student.Location.Country)
	assert.Equal(t, DefaultPhoneCode, f.Student.Location.PhoneCode) // nothing selected yet

	require.NoError(t, f.TypeCountry("ethiopia", &ethiopia))
	require.NotNil(t, f.Student.Location.Country)
	assert.Equal(t, "ET", f.Student.Location.Country.Code)
	assert.Equal(t, "+251", f.Student.Location.PhoneCode)
	require.NoError(t, f.SelectCity("Gondar"))

	require.NoError(t, f.TypeCountry("ethiopiaa", nil))
	assert.Nil(t, f.Student.Location.Country)
	assert.Empty(t, f.Student.Location.PhoneCode)
	assert.Empty(t, f.Student.Location.City)
	assert.Equal(t, "ethiopiaa", f.Student.Location.CountryInput)
	assert.NotContains(t, f.Visible, FieldAddress)
}

func TestForm_Set_learningOption(t *testing.T) {
	f := newForm(t, RoleStudent)

	// hidden fields cannot be set
	assert.Equal(t, errHiddenField, fieldErr(t, f.Set(FieldProgrammingArea, "ai")).Error)

	require.NoError(t, f.Set(FieldLearningOption, OptionProgramming))
	assert.NotContains(t, f.Visible, FieldPreference)
	require.NoError(t, f.Set(FieldProgrammingArea, "ai"))
	assert.Contains(t, f.Visible, FieldPreference)
	require.NoError(t, f.Set(FieldPreference, "group"))

	require.NoError(t, f.Set(FieldLearningOption, OptionLanguage))
	assert.Empty(t, f.Student.ProgrammingArea)
	assert.Empty(t, f.Student.Preference)
	assert.NotContains(t, f.Visible, FieldPreference)

	require.NoError(t, f.Set(FieldLanguage, "afan-oromo"))
	require.NoError(t, f.Set(FieldLearningOption, OptionSchoolGrades))
	assert.Empty(t, f.Student.Language)
	assert.Subset(t, f.Visible, []string{FieldGrade, FieldCurriculum, FieldPreference})

	require.NoError(t, f.Set(FieldLearningOption, OptionEntrancePreparation))
	assert.Subset(t, f.Visible, []string{FieldExam, FieldPreference})
	assert.NotContains(t, f.Visible, FieldGrade)
}

func TestForm_Set_specialty(t *testing.T) {
	f := newForm(t, RoleTutor)

	require.NoError(t, f.Set(FieldSpecialty, OptionSchoolGrades))
	require.NoError(t, f.ToggleGrade(FieldGrade, 3))
	require.NoError(t, f.ToggleGrade(FieldGrade, 7))
	assert.Equal(t, []int{3, 7}, f.Tutor.Grade)

	require.NoError(t, f.Set(FieldSpecialty, OptionProgramming))
	assert.Empty(t, f.Tutor.Grade)
	require.NoError(t, f.Set(FieldProgrammingArea, "webDevelopment"))

	require.NoError(t, f.Set(FieldSpecialty, OptionLanguage))
	assert.Empty(t, f.Tutor.ProgrammingArea)

	// tutors cannot prepare for entrance exams
	assert.Equal(t, errInvalidChoice, fieldErr(t, f.Set(FieldSpecialty, OptionEntrancePreparation)).Error)
}

func TestForm_Set_experience(t *testing.T) {
	f := newForm(t, RoleTutor)

	assert.Error(t, f.ToggleGrade(FieldExperienceGrade, 5))
	require.NoError(t, f.Set(FieldHasTutoringExperience, ExperienceYes))
	require.NoError(t, f.ToggleGrade(FieldExperienceGrade, 5))
	assert.Equal(t, errGradeRange, fieldErr(t, f.ToggleGrade(FieldExperienceGrade, 13)).Error)

	require.NoError(t, f.Set(FieldHasTutoringExperience, ExperienceNo))
	assert.Empty(t, f.Tutor.ExperienceGrade)
	assert.NotContains(t, f.Visible, FieldExperienceGrade)
}

func TestForm_Set_errors(t *testing.T) {
	f := newForm(t, RoleStudent)

	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{name: "unknown field", field: "nickname", value: "x", want: errUnknownField},
		{name: "tutor field", field: FieldDegreeLevel, value: "phd", want: errUnknownField},
		{name: "hidden address", field: FieldAddress, value: "Bole road", want: errHiddenField},
		{name: "bad gender", field: FieldGender, value: "other", want: errInvalidChoice},
		{name: "bad hours", field: FieldStudyHours, value: "9", want: errInvalidChoice},
		{name: "bad age", field: FieldAge, value: "twelve", want: errNotANumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := fieldErr(t, f.Set(tt.field, tt.value))
			assert.Equal(t, tt.field, fe.Field)
			assert.Equal(t, tt.want, fe.Error)
		})
	}

	require.NoError(t, f.Set(FieldEmail, "  Jane@Test.IO "))
	assert.Equal(t, "jane@test.io", f.Student.Email)
	require.NoError(t, f.Set(FieldGender, "")) // clearing is allowed
}

func TestForm_AttachDegree(t *testing.T) {
	student := newForm(t, RoleStudent)
	assert.Error(t, student.AttachDegree("degree.pdf", []byte("%PDF-1.4")))

	f := newForm(t, RoleTutor)
	assert.Equal(t, errEmptyUpload, fieldErr(t, f.AttachDegree("degree.pdf", nil)).Error)
	assert.Equal(t, errDegreeType, fieldErr(t, f.AttachDegree("degree.txt", []byte("hello there"))).Error)

	require.NoError(t, f.AttachDegree("degree.pdf", []byte("%PDF-1.4 content")))
	assert.Equal(t, "application/pdf", f.Tutor.Degree.ContentType)
	assert.Equal(t, 16, f.Tutor.Degree.Size)
	assert.Equal(t, "degree.pdf", f.Values()[FieldDegreePhoto])
}

func TestForm_Submitted(t *testing.T) {
	f := newForm(t, RoleTutor)
	f.Submitted = true

	assert.Equal(t, ErrSubmitted, f.Set(FieldFirstName, "Jane"))
	assert.Equal(t, ErrSubmitted, f.Set("nickname", "J"))
	assert.Equal(t, ErrSubmitted, f.SetTerms(true))
	assert.Equal(t, ErrSubmitted, f.ToggleDay("Monday"))
	assert.Equal(t, ErrSubmitted, f.SelectCountry(ethiopia))
	assert.Equal(t, ErrSubmitted, f.AttachDegree("d.pdf", []byte("%PDF-")))
}

func TestForm_clone(t *testing.T) {
	f := newForm(t, RoleTutor)
	require.NoError(t, f.SelectCountry(ethiopia))
	require.NoError(t, f.ToggleDay("Monday"))

	c := f.clone()
	require.NoError(t, c.ToggleDay("Tuesday"))
	c.Tutor.Location.Country.Name = "Changed"

	assert.Equal(t, []string{"Monday"}, f.Tutor.AvailabilityDays)
	assert.Equal(t, "Ethiopia", f.Tutor.Location.Country.Name)
}

func TestForm_Values(t *testing.T) {
	f := newForm(t, RoleStudent)
	require.NoError(t, f.Set(FieldFirstName, "Abebe"))
	require.NoError(t, f.Set(FieldLearningOption, OptionLanguage))
	require.NoError(t, f.TypeCountry("Eth", nil))

	vals := f.Values()
	assert.Equal(t, "Abebe", vals[FieldFirstName])
	assert.Equal(t, "Eth", vals[FieldCountry])
	assert.Equal(t, "", vals[FieldLanguage])
	assert.Equal(t, false, vals[FieldTerms])
	assert.NotContains(t, vals, FieldAddress)
	assert.NotContains(t, vals, FieldProgrammingArea)
}
