package model

import "fmt"

// UserCity wraps an optional city reference: the outer pointer tells whether
// the dialogue collected the answer at all, the inner ID is nil when the user
// explicitly chose not to share a city.
type UserCity struct {
	ID *int32
}

// MissingFieldError reports which required field stopped a draft from
// becoming a full profile.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("draft is missing required field %q", e.Field)
}

// Draft is a work-in-progress profile collected across dialogue turns.
// Every field except the chat id is optional until Finalize.
type Draft struct {
	ID              int64
	Name            *string
	Gender          *Gender
	GenderFilter    *GenderFilter
	About           *string
	Active          *bool
	Grade           *Grade
	GradeUpFilter   *int
	GradeDownFilter *int
	Subjects        *Subjects
	SubjectsFilter  *Subjects
	DatingPurpose   *DatingPurpose
	City            *UserCity
	LocationFilter  *LocationFilter
}

// NewDraft creates an empty draft for a chat.
func NewDraft(id int64) *Draft {
	return &Draft{ID: id}
}

// DraftFromProfile pre-populates a draft from a persisted profile, used by
// the single-field edit flow.
func DraftFromProfile(u *UserProfile, grade Grade) *Draft {
	active := u.Active
	return &Draft{
		ID:              u.ID,
		Name:            &u.Name,
		Gender:          &u.Gender,
		GenderFilter:    &u.GenderFilter,
		About:           &u.About,
		Active:          &active,
		Grade:           &grade,
		GradeUpFilter:   &u.GradeUpFilter,
		GradeDownFilter: &u.GradeDownFilter,
		Subjects:        &u.Subjects,
		SubjectsFilter:  &u.SubjectsFilter,
		DatingPurpose:   &u.DatingPurpose,
		City:            &UserCity{ID: u.City},
		LocationFilter:  &u.LocationFilter,
	}
}

// ProfileUpdate is a partial upsert: nil fields leave stored values
// untouched. CitySet distinguishes "city not collected" from "city cleared".
type ProfileUpdate struct {
	ID              int64
	Name            *string
	Gender          *Gender
	GenderFilter    *GenderFilter
	About           *string
	Active          *bool
	GraduationYear  *GraduationYear
	GradeUpFilter   *int
	GradeDownFilter *int
	Subjects        *Subjects
	SubjectsFilter  *Subjects
	DatingPurpose   *DatingPurpose
	City            *int32
	CitySet         bool
	LocationFilter  *LocationFilter
}

// Update converts the draft into a partial upsert without requiring any
// field to be present. The graduation year is derived from the grade
// relative to now.
func (d *Draft) Update(year *GraduationYear) *ProfileUpdate {
	u := &ProfileUpdate{
		ID:              d.ID,
		Name:            d.Name,
		Gender:          d.Gender,
		GenderFilter:    d.GenderFilter,
		About:           d.About,
		Active:          d.Active,
		GraduationYear:  year,
		GradeUpFilter:   d.GradeUpFilter,
		GradeDownFilter: d.GradeDownFilter,
		Subjects:        d.Subjects,
		SubjectsFilter:  d.SubjectsFilter,
		DatingPurpose:   d.DatingPurpose,
		LocationFilter:  d.LocationFilter,
	}
	if d.City != nil {
		u.CitySet = true
		u.City = d.City.ID
	}
	return u
}

// Finalize validates that every field required for a complete profile is
// present and returns the corresponding upsert. The dating purpose must
// contain at least one bit; location filter is required only when a city
// was shared.
func (d *Draft) Finalize(year GraduationYear) (*ProfileUpdate, error) {
	switch {
	case d.Name == nil:
		return nil, &MissingFieldError{Field: "name"}
	case d.Gender == nil:
		return nil, &MissingFieldError{Field: "gender"}
	case d.GenderFilter == nil:
		return nil, &MissingFieldError{Field: "gender_filter"}
	case d.Grade == nil:
		return nil, &MissingFieldError{Field: "grade"}
	case d.Subjects == nil:
		return nil, &MissingFieldError{Field: "subjects"}
	case d.SubjectsFilter == nil:
		return nil, &MissingFieldError{Field: "subjects_filter"}
	case d.DatingPurpose == nil || d.DatingPurpose.IsEmpty():
		return nil, &MissingFieldError{Field: "dating_purpose"}
	case d.City == nil:
		return nil, &MissingFieldError{Field: "city"}
	case d.About == nil:
		return nil, &MissingFieldError{Field: "about"}
	}
	if d.City.ID != nil && d.LocationFilter == nil {
		return nil, &MissingFieldError{Field: "location_filter"}
	}
	return d.Update(&year), nil
}
