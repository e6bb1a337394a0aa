// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Gender of a user. Immutable once the profile is created.
type Gender string

// Supported genders.
const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

// ParseGender parses the gender selection button text.
func ParseGender(text string) (Gender, error) {
	switch text {
	case "Я парень":
		return GenderMale, nil
	case "Я девушка":
		return GenderFemale, nil
	default:
		return "", fmt.Errorf("can't parse gender from %q", text)
	}
}

// Emoji returns the display emoji for the gender.
func (g Gender) Emoji() string {
	if g == GenderFemale {
		return "♀️"
	}
	return "♂️"
}

// GenderFilter restricts which gender a candidate may have.
type GenderFilter string

// Supported gender filters.
const (
	FilterFemale GenderFilter = "female"
	FilterMale   GenderFilter = "male"
	FilterAny    GenderFilter = "any"
)

// ParseGenderFilter parses the partner gender selection button text.
func ParseGenderFilter(text string) (GenderFilter, error) {
	switch text {
	case "Девушку":
		return FilterFemale, nil
	case "Парня":
		return FilterMale, nil
	case "Не важно":
		return FilterAny, nil
	default:
		return "", fmt.Errorf("can't parse gender filter from %q", text)
	}
}

// Matches reports whether a candidate gender passes the filter.
func (f GenderFilter) Matches(g Gender) bool {
	return f == FilterAny || string(f) == string(g)
}

// Grade is a school grade, 1 to 11 inclusive.
type Grade int

// GradeFromInt validates n as a school grade.
func GradeFromInt(n int) (Grade, error) {
	if n < 1 || n > 11 {
		return 0, fmt.Errorf("grade %d out of range [1, 11]", n)
	}
	return Grade(n), nil
}

// GraduationYear is the calendar year a student finishes the 11th grade.
// The school year rolls over in September: the same grade entered before
// and after September 1st maps to different graduation years.
type GraduationYear int

// GraduationYearFromGrade converts a grade to a graduation year relative to now.
func GraduationYearFromGrade(g Grade, now time.Time) GraduationYear {
	year := now.Year() + (11 - int(g))
	if now.Month() >= time.September {
		year++
	}
	return GraduationYear(year)
}

// GradeFromGraduationYear derives the current grade from a stored graduation
// year. The result drifts forward as calendar time passes, which keeps
// profiles aging without updates.
func GradeFromGraduationYear(y GraduationYear, now time.Time) Grade {
	grade := 11 - (int(y) - now.Year())
	if now.Month() >= time.September {
		grade++
	}
	return Grade(grade)
}

// Subjects is a bitset of academic subjects. Bit positions are persisted and
// must stay stable.
type Subjects int32

// Subject bits.
const (
	SubjectArt Subjects = 1 << iota
	SubjectAstronomy
	SubjectBiology
	SubjectChemistry
	SubjectChinese
	SubjectEcology
	SubjectEconomics
	SubjectEnglish
	SubjectFrench
	SubjectGeography
	SubjectGerman
	SubjectHistory
	SubjectInformatics
	SubjectItalian
	SubjectLaw
	SubjectLiterature
	SubjectMath
	SubjectPhysics
	SubjectRussian
	SubjectSafety
	SubjectSocial
	SubjectSpanish
	SubjectSport
	SubjectTechnology

	subjectsAll = Subjects(1<<24) - 1
)

// SubjectCatalog lists every subject bit in catalog order.
var SubjectCatalog = []Subjects{
	SubjectArt, SubjectAstronomy, SubjectBiology, SubjectChemistry,
	SubjectChinese, SubjectEcology, SubjectEconomics, SubjectEnglish,
	SubjectFrench, SubjectGeography, SubjectGerman, SubjectHistory,
	SubjectInformatics, SubjectItalian, SubjectLaw, SubjectLiterature,
	SubjectMath, SubjectPhysics, SubjectRussian, SubjectSafety,
	SubjectSocial, SubjectSpanish, SubjectSport, SubjectTechnology,
}

var subjectNames = map[Subjects]string{
	SubjectArt:         "Искусство 🎨",
	SubjectAstronomy:   "Астрономия 🌌",
	SubjectBiology:     "Биология 🔬",
	SubjectChemistry:   "Химия 🧪",
	SubjectChinese:     "Китайский 🇨🇳",
	SubjectEcology:     "Экология ♻️",
	SubjectEconomics:   "Экономика 💶",
	SubjectEnglish:     "Английский 🇬🇧",
	SubjectFrench:      "Французский 🇫🇷",
	SubjectGeography:   "География 🌎",
	SubjectGerman:      "Немецкий 🇩🇪",
	SubjectHistory:     "История 📰",
	SubjectInformatics: "Информатика 💻",
	SubjectItalian:     "Итальянский 🇮🇹",
	SubjectLaw:         "Право 👨‍⚖️",
	SubjectLiterature:  "Литература 📖",
	SubjectMath:        "Математика 📐",
	SubjectPhysics:     "Физика ☢️",
	SubjectRussian:     "Русский 🇷🇺",
	SubjectSafety:      "ОБЖ 🪖",
	SubjectSocial:      "Обществознание 👫",
	SubjectSpanish:     "Испанский 🇪🇸",
	SubjectSport:       "Физкультура 🏐",
	SubjectTechnology:  "Технология 🚜",
}

// SubjectsFromBits validates that bits contains only defined subject bits.
func SubjectsFromBits(bits int32) (Subjects, error) {
	if bits&^int32(subjectsAll) != 0 {
		return 0, fmt.Errorf("can't construct subjects from bits %d", bits)
	}
	return Subjects(bits), nil
}

// Name returns the label of exactly one subject bit.
func (s Subjects) Name() (string, error) {
	name, ok := subjectNames[s]
	if !ok {
		return "", fmt.Errorf("no single subject for bits %d", int32(s))
	}
	return name, nil
}

// Toggle flips one subject bit.
func (s Subjects) Toggle(bit Subjects) Subjects { return s ^ bit }

// IsEmpty reports whether no subject is selected.
func (s Subjects) IsEmpty() bool { return s == 0 }

// Contains reports whether every bit of other is set in s.
func (s Subjects) Contains(other Subjects) bool { return s&other == other }

// Intersects reports whether at least one bit is shared with other.
func (s Subjects) Intersects(other Subjects) bool { return s&other != 0 }

// String lists the selected subject labels sorted case-insensitively.
func (s Subjects) String() string {
	var names []string
	for _, bit := range SubjectCatalog {
		if s.Contains(bit) {
			name, _ := bit.Name()
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return strings.Join(names, ", ")
}

// DatingPurpose is a bitset of reasons to look for a partner.
type DatingPurpose int16

// Purpose bits.
const (
	PurposeFriendship DatingPurpose = 1 << iota
	PurposeStudies
	PurposeRelationship

	purposeAll = DatingPurpose(1<<3) - 1
)

// PurposeCatalog lists every purpose bit in catalog order.
var PurposeCatalog = []DatingPurpose{
	PurposeFriendship, PurposeStudies, PurposeRelationship,
}

var purposeNames = map[DatingPurpose]string{
	PurposeFriendship:   "Дружба 🧑‍🤝‍🧑",
	PurposeStudies:      "Учёба 📚",
	PurposeRelationship: "Отношения 💕",
}

// PurposeFromBits validates that bits contains only defined purpose bits.
func PurposeFromBits(bits int16) (DatingPurpose, error) {
	if bits&^int16(purposeAll) != 0 {
		return 0, fmt.Errorf("can't construct purpose from bits %d", bits)
	}
	return DatingPurpose(bits), nil
}

// Name returns the label of exactly one purpose bit.
func (p DatingPurpose) Name() (string, error) {
	name, ok := purposeNames[p]
	if !ok {
		return "", fmt.Errorf("no single purpose for bits %d", int16(p))
	}
	return name, nil
}

// Toggle flips one purpose bit.
func (p DatingPurpose) Toggle(bit DatingPurpose) DatingPurpose { return p ^ bit }

// IsEmpty reports whether no purpose is selected.
func (p DatingPurpose) IsEmpty() bool { return p == 0 }

// Contains reports whether every bit of other is set in p.
func (p DatingPurpose) Contains(other DatingPurpose) bool { return p&other == other }

// String lists the selected purpose labels in catalog order, not
// alphabetically. Subjects and purposes render differently on purpose.
func (p DatingPurpose) String() string {
	var names []string
	for _, bit := range PurposeCatalog {
		if p.Contains(bit) {
			name, _ := bit.Name()
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// LocationFilter controls the geographic match radius.
type LocationFilter string

// Supported location filters, from narrowest to widest.
const (
	LocationCity    LocationFilter = "city"
	LocationSubject LocationFilter = "subject"
	LocationCounty  LocationFilter = "county"
	LocationCountry LocationFilter = "country"
)

// ImageKind distinguishes photo and video attachments.
type ImageKind string

// Supported attachment kinds.
const (
	ImageKindPhoto ImageKind = "image"
	ImageKindVideo ImageKind = "video"
)

// Image is one photo or video attached to a profile.
type Image struct {
	UserID int64
	FileID string
	Kind   ImageKind
}

// MaxImages caps the number of attachments per profile.
const MaxImages = 10

// ValidateName checks the display name length in code points.
func ValidateName(text string) error {
	if n := utf8.RuneCountInString(text); n < 3 || n > 16 {
		return fmt.Errorf("name must be 3-16 characters, got %d", n)
	}
	return nil
}

// ValidateAbout checks the bio length in code points.
func ValidateAbout(text string) error {
	if n := utf8.RuneCountInString(text); n < 1 || n > 1024 {
		return fmt.Errorf("about must be 1-1024 characters, got %d", n)
	}
	return nil
}

// UserProfile is the persisted profile row. City is nil when the user chose
// not to share one; an inactive profile is kept but never recommended.
type UserProfile struct {
	ID              int64
	Name            string
	Gender          Gender
	GenderFilter    GenderFilter
	About           string
	Active          bool
	GraduationYear  GraduationYear
	GradeUpFilter   int
	GradeDownFilter int
	Subjects        Subjects
	SubjectsFilter  Subjects
	DatingPurpose   DatingPurpose
	City            *int32
	LocationFilter  LocationFilter
	LastActivity    time.Time
}

// DatingAttempt is one candidate introduction: the initiator saw the partner
// and each side reacts exactly once.
type DatingAttempt struct {
	ID                int64
	InitiatorID       int64
	PartnerID         int64
	InitiatorReaction *bool
	PartnerReaction   *bool
	InitiatorMsgID    *int
	CreatedAt         time.Time
}
