package registration

import "github.com/brighttutor/brightdesk/core/country"

// VisibleFields returns the fields the form currently shows, in display order.
func (f *Form) VisibleFields() []string {
	if f.Student != nil {
		return f.Student.visibleFields()
	}
	return f.Tutor.visibleFields()
}

func (p *Personal) visibleFields() []string {
	loc := p.Location
	fields := []string{FieldFirstName, FieldLastName, FieldAge, FieldEmail, FieldCountry, FieldPhone}
	if loc.Country != nil && len(country.Cities(loc.Country.Code)) > 0 {
		fields = append(fields, FieldCity)
	}
	if loc.City != "" && len(country.Subcities(loc.City)) > 0 {
		fields = append(fields, FieldSubcity)
	}
	if loc.City != "" || loc.Country != nil {
		fields = append(fields, FieldAddress)
	}
	return append(fields, FieldGender)
}

func (s *StudentValues) visibleFields() []string {
	fields := append(s.Personal.visibleFields(), FieldLearningOption)
	switch s.LearningOption {
	case OptionProgramming:
		fields = append(fields, FieldProgrammingArea)
		if s.ProgrammingArea != "" {
			fields = append(fields, FieldPreference)
		}
	case OptionLanguage:
		fields = append(fields, FieldLanguage)
		if s.Language != "" {
			fields = append(fields, FieldPreference)
		}
	case OptionSchoolGrades:
		fields = append(fields, FieldGrade, FieldCurriculum, FieldPreference)
	case OptionEntrancePreparation:
		fields = append(fields, FieldExam, FieldPreference)
	}
	return append(fields, FieldStudyDays, FieldStudyHours, FieldTerms)
}

func (t *TutorValues) visibleFields() []string {
	fields := append(t.Personal.visibleFields(),
		FieldDegreeLevel, FieldDegreePhoto, FieldCurrentStatus, FieldHasTutoringExperience)
	if t.HasTutoringExperience == ExperienceYes {
		fields = append(fields, FieldExperienceGrade)
	}
	fields = append(fields, FieldSpecialty)
	switch t.Specialty {
	case OptionProgramming:
		fields = append(fields, FieldProgrammingArea)
	case OptionLanguage:
		fields = append(fields, FieldLanguage)
	case OptionSchoolGrades:
		fields = append(fields, FieldGrade)
	}
	return append(fields, FieldAvailabilityDays, FieldAvailabilityTime, FieldTerms)
}
