package registration

import (
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/brighttutor/brightdesk/core/country"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
)

func (r Role) Valid() bool { return r == RoleStudent || r == RoleTutor }

// DefaultPhoneCode is preselected on new forms.
const DefaultPhoneCode = "+251"

// Field names, as sent by clients.
const (
	FieldFirstName             = "firstName"
	FieldLastName              = "lastName"
	FieldAge                   = "age"
	FieldEmail                 = "email"
	FieldCountry               = "country"
	FieldPhone                 = "phone"
	FieldCity                  = "city"
	FieldSubcity               = "subcity"
	FieldAddress               = "address"
	FieldGender                = "gender"
	FieldLearningOption        = "learningOption"
	FieldProgrammingArea       = "programmingArea"
	FieldLanguage              = "language"
	FieldGrade                 = "grade"
	FieldCurriculum            = "curriculum"
	FieldPreference            = "preference"
	FieldExam                  = "exam"
	FieldStudyDays             = "studyDays"
	FieldStudyHours            = "studyHours"
	FieldDegreeLevel           = "degreeLevel"
	FieldDegreePhoto           = "degreePhoto"
	FieldCurrentStatus         = "currentStatus"
	FieldHasTutoringExperience = "hasTutoringExperience"
	FieldExperienceGrade       = "experienceGrade"
	FieldSpecialty             = "specialty"
	FieldAvailabilityDays      = "availabilityDays"
	FieldAvailabilityTime      = "availabilityTime"
	FieldTerms                 = "terms"
)

// Choice values.
const (
	OptionProgramming         = "programming"
	OptionLanguage            = "language"
	OptionSchoolGrades        = "schoolGrades"
	OptionEntrancePreparation = "entrancePreparation"

	ExperienceYes = "yes"
	ExperienceNo  = "no"
)

var (
	DaysOfWeek = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	TimeSlots  = []string{"10-11 AM", "11-12 PM", "12-1 PM", "1-2 PM", "Anytime"}

	MinGrade, MaxGrade = 1, 12

	studentChoices = map[string][]string{
		FieldGender:          {"male", "female"},
		FieldLearningOption:  {OptionProgramming, OptionLanguage, OptionSchoolGrades, OptionEntrancePreparation},
		FieldProgrammingArea: {"ai", "webDevelopment", "appDevelopment"},
		FieldLanguage:        {"amharic", "french", "english", "afan-oromo", "chinese", "arabic"},
		FieldGrade:           numbers(MinGrade, MaxGrade),
		FieldCurriculum:      {"ethiopian", "igcse", "american", "british", "international"},
		FieldPreference:      {"individual", "group"},
		FieldExam:            {"grade_12", "asat", "toefl", "ielts"},
		FieldStudyHours:      numbers(1, 8),
	}

	tutorChoices = map[string][]string{
		FieldGender:                {"male", "female"},
		FieldDegreeLevel:           {"highschool", "associate", "bachelor", "master", "phd", "other"},
		FieldCurrentStatus:         {"student", "government", "private", "unemployed"},
		FieldHasTutoringExperience: {ExperienceYes, ExperienceNo},
		FieldSpecialty:             {OptionProgramming, OptionLanguage, OptionSchoolGrades},
		FieldProgrammingArea:       {"ai", "webDevelopment", "appDevelopment"},
		FieldLanguage:              {"amharic", "french", "english", "afan-oromo", "chinese", "arabic"},
		FieldAvailabilityTime:      TimeSlots,
	}

	// age ranges, inclusive
	studentAge = [2]int{5, 25}
	tutorAge   = [2]int{21, 70}
)

func numbers(from, to int) []string {
	nums := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		nums = append(nums, strconv.Itoa(i))
	}
	return nums
}

var (
	ErrNotFound  = errors.New("registration not found")
	ErrSubmitted = errors.New("registration already submitted")
)

// Acknowledgements shown, and emailed, once an application is submitted.
const (
	StudentAcknowledgement = "Thank you for your application. We'll contact you soon to discuss your learning plan."
	TutorAcknowledgement   = "Thank you for your application. We'll review your credentials and contact you soon."
)

// Location is the address sub-state of a form.
type Location struct {
	CountryInput string           `json:"countryInput"`
	Country      *country.Country `json:"selectedCountry"`
	PhoneCode    string           `json:"phoneCode"`
	City         string           `json:"city"`
	Subcity      string           `json:"subcity"`
}

// Personal holds the fields both roles share.
type Personal struct {
	FirstName string   `json:"firstName" validate:"required,notblank"`
	LastName  string   `json:"lastName" validate:"required,notblank"`
	Age       string   `json:"age" validate:"required"`
	Email     string   `json:"email" validate:"required,email"`
	Phone     string   `json:"phone" validate:"required"`
	Gender    string   `json:"gender" validate:"required"`
	Address   string   `json:"address"`
	Location  Location `json:"location" validate:"-"`
}

type StudentValues struct {
	Personal
	LearningOption  string   `json:"learningOption" validate:"required"`
	ProgrammingArea string   `json:"programmingArea"`
	Language        string   `json:"language"`
	Grade           string   `json:"grade"`
	Curriculum      string   `json:"curriculum"`
	Preference      string   `json:"preference"`
	Exam            string   `json:"exam"`
	StudyDays       []string `json:"studyDays"`
	StudyHours      string   `json:"studyHours" validate:"required"`
	Terms           bool     `json:"terms"`
}

type TutorValues struct {
	Personal
	DegreeLevel           string   `json:"degreeLevel" validate:"required"`
	Degree                *Upload  `json:"degreePhoto"`
	CurrentStatus         string   `json:"currentStatus" validate:"required"`
	HasTutoringExperience string   `json:"hasTutoringExperience" validate:"required"`
	ExperienceGrade       []int    `json:"experienceGrade"`
	Specialty             string   `json:"specialty" validate:"required"`
	ProgrammingArea       string   `json:"programmingArea"`
	Language              string   `json:"language"`
	Grade                 []int    `json:"grade"`
	AvailabilityDays      []string `json:"availabilityDays"`
	AvailabilityTime      string   `json:"availabilityTime" validate:"required"`
	Terms                 bool     `json:"terms"`
}

// Upload is a file attached to a form. Its content is kept in memory until submission.
type Upload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	content     []byte
}

func (u *Upload) Content() []byte { return u.content }

type Form struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Student   *StudentValues `json:"student,omitempty"`
	Tutor     *TutorValues   `json:"tutor,omitempty"`
	Visible   []string       `json:"visibleFields"`
	Submitted bool           `json:"submitted"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Acknowledgement is returned once a form is submitted.
type Acknowledgement struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Message string `json:"message"`
}
