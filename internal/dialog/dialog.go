// Package dialog models the profile-building conversation: the step a chat
// is on, the draft collected so far, and the transition table between steps.
package dialog

import "dating_bot/internal/model"

// Step names one state of the profile dialogue.
type Step int

// Dialogue steps. Start is the implicit idle state.
const (
	StepStart Step = iota
	StepSetName
	StepSetGender
	StepSetGenderFilter
	StepSetGraduationYear
	StepSetSubjects
	StepSetSubjectsFilter
	StepSetDatingPurpose
	StepSetCity
	StepSetLocationFilter
	StepSetAbout
	StepSetPhotos
	StepLikeWithMessage
	StepEdit
)

var stepNames = map[Step]string{
	StepStart:             "start",
	StepSetName:           "set_name",
	StepSetGender:         "set_gender",
	StepSetGenderFilter:   "set_gender_filter",
	StepSetGraduationYear: "set_graduation_year",
	StepSetSubjects:       "set_subjects",
	StepSetSubjectsFilter: "set_subjects_filter",
	StepSetDatingPurpose:  "set_dating_purpose",
	StepSetCity:           "set_city",
	StepSetLocationFilter: "set_location_filter",
	StepSetAbout:          "set_about",
	StepSetPhotos:         "set_photos",
	StepLikeWithMessage:   "like_with_message",
	StepEdit:              "edit",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// State is the full dialogue state of one chat.
type State struct {
	Step        Step
	Draft       *model.Draft
	CreateNew   bool
	PhotosCount int

	// FirstName is the Telegram display name, offered as a shortcut on
	// the name prompt.
	FirstName string

	// AttemptID is set only on StepLikeWithMessage.
	AttemptID int64
}

// Next returns the step that follows s.Step once its field is collected.
//
// Creation mode walks the fixed sequence; edit mode returns to Start after
// one field. Two steps ignore the mode: subjects always continue into the
// subjects filter, and a confirmed city always continues into the location
// filter (a cleared city skips it, since the filter is forced to country).
func Next(s *State) Step {
	switch s.Step {
	case StepSetSubjects:
		return StepSetSubjectsFilter
	case StepSetCity:
		if s.Draft != nil && s.Draft.City != nil && s.Draft.City.ID != nil {
			return StepSetLocationFilter
		}
	case StepSetPhotos:
		return StepStart
	}

	if !s.CreateNew {
		return StepStart
	}

	switch s.Step {
	case StepSetName:
		return StepSetGender
	case StepSetGender:
		return StepSetGenderFilter
	case StepSetGenderFilter:
		return StepSetGraduationYear
	case StepSetGraduationYear:
		return StepSetSubjects
	case StepSetSubjectsFilter:
		return StepSetDatingPurpose
	case StepSetDatingPurpose:
		return StepSetCity
	case StepSetCity, StepSetLocationFilter:
		return StepSetAbout
	case StepSetAbout:
		return StepSetPhotos
	default:
		return StepStart
	}
}
