package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"dating_bot/internal/model"
)

var ignoreActivity = cmpopts.IgnoreFields(model.UserProfile{}, "LastActivity")

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fullProfile returns a complete update for a male 2027 graduate in Moscow
// searching country-wide. Mods tweak individual fields.
func fullProfile(id int64, mods ...func(*model.ProfileUpdate)) *model.ProfileUpdate {
	name := "Тестер"
	gender := model.GenderMale
	filter := model.FilterAny
	about := "обо мне"
	active := true
	year := model.GraduationYear(2027)
	up, down := 1, 1
	subjects := model.SubjectMath
	subjectsFilter := model.Subjects(0)
	purpose := model.PurposeFriendship
	city := int32(1<<16 | 1<<8 | 1)
	location := model.LocationCountry

	u := &model.ProfileUpdate{
		ID:              id,
		Name:            &name,
		Gender:          &gender,
		GenderFilter:    &filter,
		About:           &about,
		Active:          &active,
		GraduationYear:  &year,
		GradeUpFilter:   &up,
		GradeDownFilter: &down,
		Subjects:        &subjects,
		SubjectsFilter:  &subjectsFilter,
		DatingPurpose:   &purpose,
		City:            &city,
		CitySet:         true,
		LocationFilter:  &location,
	}
	for _, mod := range mods {
		mod(u)
	}
	return u
}

func seedUser(t *testing.T, s *SQLite, upd *model.ProfileUpdate) {
	t.Helper()
	if err := s.UpsertUser(context.Background(), upd); err != nil {
		t.Fatalf("seed user %d: %v", upd.ID, err)
	}
}

func withGender(g model.Gender) func(*model.ProfileUpdate) {
	return func(u *model.ProfileUpdate) { u.Gender = &g }
}

func withGenderFilter(f model.GenderFilter) func(*model.ProfileUpdate) {
	return func(u *model.ProfileUpdate) { u.GenderFilter = &f }
}

func withYear(y model.GraduationYear) func(*model.ProfileUpdate) {
	return func(u *model.ProfileUpdate) { u.GraduationYear = &y }
}

func withSubjects(s model.Subjects) func(*model.ProfileUpdate) {
	return func(u *model.ProfileUpdate) { u.Subjects = &s }
}

func withSubjectsFilter(s model.Subjects) func(*model.ProfileUpdate) {
	return func(u *model.ProfileUpdate) { u.SubjectsFilter = &s }
}

func withCity(id int32) func(*model.ProfileUpdate) {
	return func(u *model.ProfileUpdate) { u.City = &id; u.CitySet = true }
}

func withNoCity() func(*model.ProfileUpdate) {
	return func(u *model.ProfileUpdate) { u.City = nil; u.CitySet = true }
}

func withLocationFilter(f model.LocationFilter) func(*model.ProfileUpdate) {
	return func(u *model.ProfileUpdate) { u.LocationFilter = &f }
}

func withActive(a bool) func(*model.ProfileUpdate) {
	return func(u *model.ProfileUpdate) { u.Active = &a }
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestDB(t)
	if _, err := s.GetUser(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpsertUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	upd := fullProfile(10)
	seedUser(t, s, upd)

	got, err := s.GetUser(ctx, 10)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	want := &model.UserProfile{
		ID:              10,
		Name:            *upd.Name,
		Gender:          *upd.Gender,
		GenderFilter:    *upd.GenderFilter,
		About:           *upd.About,
		Active:          true,
		GraduationYear:  *upd.GraduationYear,
		GradeUpFilter:   1,
		GradeDownFilter: 1,
		Subjects:        *upd.Subjects,
		SubjectsFilter:  *upd.SubjectsFilter,
		DatingPurpose:   *upd.DatingPurpose,
		City:            upd.City,
		LocationFilter:  *upd.LocationFilter,
	}
	if diff := cmp.Diff(want, got, ignoreActivity); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
	if got.LastActivity.IsZero() {
		t.Error("last activity not set")
	}
}

func TestUpsertUserPartialMerge(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	seedUser(t, s, fullProfile(10))

	// Only the name changes, everything else must survive.
	name := "Новое имя"
	if err := s.UpsertUser(ctx, &model.ProfileUpdate{ID: 10, Name: &name}); err != nil {
		t.Fatalf("partial upsert: %v", err)
	}

	got, err := s.GetUser(ctx, 10)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != name {
		t.Errorf("name = %q, want %q", got.Name, name)
	}
	if got.Subjects != model.SubjectMath || got.City == nil {
		t.Errorf("untouched fields lost: %+v", got)
	}
}

func TestUpsertUserCityCleared(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	seedUser(t, s, fullProfile(10))
	seedUser(t, s, &model.ProfileUpdate{ID: 10, CitySet: true})

	got, err := s.GetUser(ctx, 10)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.City != nil {
		t.Errorf("city = %v, want nil", *got.City)
	}
}

func TestUpsertUserDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	// A bare update creates the row with sane defaults.
	seedUser(t, s, &model.ProfileUpdate{ID: 10})

	got, err := s.GetUser(ctx, 10)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Active || got.GenderFilter != model.FilterAny ||
		got.LocationFilter != model.LocationCountry ||
		got.GradeUpFilter != 1 || got.GradeDownFilter != 1 {
		t.Errorf("defaults not applied: %+v", got)
	}
}

func TestImages(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if err := s.CreateImage(ctx, 1, "file-a", model.ImageKindPhoto); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateImage(ctx, 1, "file-b", model.ImageKindVideo); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateImage(ctx, 2, "file-c", model.ImageKindPhoto); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetImages(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := []model.Image{
		{UserID: 1, FileID: "file-a", Kind: model.ImageKindPhoto},
		{UserID: 1, FileID: "file-b", Kind: model.ImageKindVideo},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}

	if err := s.CleanImages(ctx, 1); err != nil {
		t.Fatalf("clean: %v", err)
	}
	got, err = s.GetImages(ctx, 1)
	if err != nil {
		t.Fatalf("get after clean: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("images not cleaned: %v", got)
	}

	// The other user's images stay.
	got, err = s.GetImages(ctx, 2)
	if err != nil || len(got) != 1 {
		t.Errorf("other user's images: %v, %v", got, err)
	}
}

func TestGetPartnerFilters(t *testing.T) {
	ctx := context.Background()
	moscow := int32(1<<16 | 1<<8 | 1)
	podolsk := int32(1<<16 | 2<<8 | 1)
	spb := int32(2<<16 | 7<<8 | 1)

	tests := []struct {
		name      string
		requester *model.ProfileUpdate
		candidate *model.ProfileUpdate
		match     bool
	}{
		{
			name:      "basic match",
			requester: fullProfile(1),
			candidate: fullProfile(2, withGender(model.GenderFemale)),
			match:     true,
		},
		{
			name:      "requester gender filter rejects",
			requester: fullProfile(1, withGenderFilter(model.FilterFemale)),
			candidate: fullProfile(2, withGender(model.GenderMale)),
			match:     false,
		},
		{
			name:      "candidate gender filter rejects",
			requester: fullProfile(1, withGender(model.GenderMale)),
			candidate: fullProfile(2, withGender(model.GenderFemale), withGenderFilter(model.FilterFemale)),
			match:     false,
		},
		{
			name:      "year window accepts one below",
			requester: fullProfile(1, withYear(2027)),
			candidate: fullProfile(2, withYear(2026)),
			match:     true,
		},
		{
			name:      "year window accepts one above",
			requester: fullProfile(1, withYear(2027)),
			candidate: fullProfile(2, withYear(2028)),
			match:     true,
		},
		{
			name:      "year window rejects two apart",
			requester: fullProfile(1, withYear(2027)),
			candidate: fullProfile(2, withYear(2029)),
			match:     false,
		},
		{
			name:      "subjects filter requires intersection",
			requester: fullProfile(1, withSubjectsFilter(model.SubjectPhysics)),
			candidate: fullProfile(2, withSubjects(model.SubjectMath)),
			match:     false,
		},
		{
			name:      "subjects filter intersects",
			requester: fullProfile(1, withSubjectsFilter(model.SubjectPhysics|model.SubjectMath)),
			candidate: fullProfile(2, withSubjects(model.SubjectMath)),
			match:     true,
		},
		{
			name:      "empty subjects filter matches anyone",
			requester: fullProfile(1, withSubjectsFilter(0)),
			candidate: fullProfile(2, withSubjects(0)),
			match:     true,
		},
		{
			name:      "city filter rejects other city",
			requester: fullProfile(1, withCity(moscow), withLocationFilter(model.LocationCity)),
			candidate: fullProfile(2, withCity(podolsk)),
			match:     false,
		},
		{
			name:      "county filter accepts same county",
			requester: fullProfile(1, withCity(moscow), withLocationFilter(model.LocationCounty)),
			candidate: fullProfile(2, withCity(podolsk)),
			match:     true,
		},
		{
			name:      "county filter rejects other county",
			requester: fullProfile(1, withCity(moscow), withLocationFilter(model.LocationCounty)),
			candidate: fullProfile(2, withCity(spb)),
			match:     false,
		},
		{
			name:      "subject filter rejects candidate without city",
			requester: fullProfile(1, withCity(moscow), withLocationFilter(model.LocationSubject)),
			candidate: fullProfile(2, withNoCity()),
			match:     false,
		},
		{
			name:      "requester without city searches everywhere",
			requester: fullProfile(1, withNoCity(), withLocationFilter(model.LocationCity)),
			candidate: fullProfile(2, withCity(spb)),
			match:     true,
		},
		{
			name:      "inactive candidate skipped",
			requester: fullProfile(1),
			candidate: fullProfile(2, withActive(false)),
			match:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestDB(t)
			seedUser(t, s, tt.requester)
			seedUser(t, s, tt.candidate)

			requester, err := s.GetUser(ctx, tt.requester.ID)
			if err != nil {
				t.Fatalf("get requester: %v", err)
			}

			attempt, partner, err := s.GetPartner(ctx, requester)
			if tt.match {
				if err != nil {
					t.Fatalf("get partner: %v", err)
				}
				if partner.ID != tt.candidate.ID {
					t.Errorf("partner = %d, want %d", partner.ID, tt.candidate.ID)
				}
				if attempt.InitiatorID != requester.ID || attempt.PartnerID != partner.ID {
					t.Errorf("attempt = %+v", attempt)
				}
				return
			}
			if !errors.Is(err, ErrNoCandidates) {
				t.Fatalf("err = %v, want ErrNoCandidates", err)
			}
		})
	}
}

func TestGetPartnerExcludesSelf(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	seedUser(t, s, fullProfile(1))
	requester, err := s.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("get requester: %v", err)
	}
	if _, _, err := s.GetPartner(ctx, requester); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("err = %v, want ErrNoCandidates", err)
	}
}

func TestGetPartnerCooldown(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	seedUser(t, s, fullProfile(1))
	seedUser(t, s, fullProfile(2))

	requester, err := s.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("get requester: %v", err)
	}

	if _, _, err := s.GetPartner(ctx, requester); err != nil {
		t.Fatalf("first pick: %v", err)
	}

	// The same candidate is hidden inside the cool-down window.
	now = now.Add(time.Hour)
	if _, _, err := s.GetPartner(ctx, requester); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("within cooldown: err = %v, want ErrNoCandidates", err)
	}

	// And reappears once it expires.
	now = now.Add(4 * time.Hour)
	if _, partner, err := s.GetPartner(ctx, requester); err != nil || partner.ID != 2 {
		t.Fatalf("after cooldown: partner=%v err=%v", partner, err)
	}
}

func TestGetPartnerCooldownBothDirections(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	seedUser(t, s, fullProfile(1))
	seedUser(t, s, fullProfile(2))

	requester, err := s.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("get requester: %v", err)
	}
	if _, _, err := s.GetPartner(ctx, requester); err != nil {
		t.Fatalf("first pick: %v", err)
	}

	// The reverse direction is hidden too: user 2 does not see user 1
	// right after being shown to them.
	other, err := s.GetUser(ctx, 2)
	if err != nil {
		t.Fatalf("get other: %v", err)
	}
	if _, _, err := s.GetPartner(ctx, other); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("reverse direction: err = %v, want ErrNoCandidates", err)
	}
}

func TestReactions(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	seedUser(t, s, fullProfile(1))
	seedUser(t, s, fullProfile(2))

	requester, err := s.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("get requester: %v", err)
	}
	attempt, _, err := s.GetPartner(ctx, requester)
	if err != nil {
		t.Fatalf("get partner: %v", err)
	}

	if err := s.SetInitiatorReaction(ctx, attempt.ID, true); err != nil {
		t.Fatalf("first reaction: %v", err)
	}

	// A second reaction must not overwrite the first.
	err = s.SetInitiatorReaction(ctx, attempt.ID, false)
	if !errors.Is(err, ErrReactionAlreadySet) {
		t.Fatalf("second reaction: err = %v, want ErrReactionAlreadySet", err)
	}

	got, err := s.GetDating(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("get dating: %v", err)
	}
	if got.InitiatorReaction == nil || !*got.InitiatorReaction {
		t.Errorf("initiator reaction = %v, want true", got.InitiatorReaction)
	}
	if got.PartnerReaction != nil {
		t.Errorf("partner reaction = %v, want nil", got.PartnerReaction)
	}

	// The partner column is guarded independently.
	if err := s.SetPartnerReaction(ctx, attempt.ID, false); err != nil {
		t.Fatalf("partner reaction: %v", err)
	}
	if err := s.SetPartnerReaction(ctx, attempt.ID, true); !errors.Is(err, ErrReactionAlreadySet) {
		t.Fatalf("second partner reaction: err = %v, want ErrReactionAlreadySet", err)
	}
}

func TestReactionOnMissingDating(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	if err := s.SetInitiatorReaction(ctx, 999, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSetDatingMsgID(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	seedUser(t, s, fullProfile(1))
	seedUser(t, s, fullProfile(2))

	requester, err := s.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("get requester: %v", err)
	}
	attempt, _, err := s.GetPartner(ctx, requester)
	if err != nil {
		t.Fatalf("get partner: %v", err)
	}

	if err := s.SetDatingMsgID(ctx, attempt.ID, 555); err != nil {
		t.Fatalf("set msg id: %v", err)
	}
	got, err := s.GetDating(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("get dating: %v", err)
	}
	if got.InitiatorMsgID == nil || *got.InitiatorMsgID != 555 {
		t.Errorf("msg id = %v, want 555", got.InitiatorMsgID)
	}
}
