package dialog

import (
	"sync"
	"testing"

	"dating_bot/internal/model"
)

func TestNextCreationSequence(t *testing.T) {
	cityID := int32(1<<16 | 1<<8 | 1)
	state := &State{
		Step:      StepSetName,
		Draft:     &model.Draft{City: &model.UserCity{ID: &cityID}},
		CreateNew: true,
	}

	want := []Step{
		StepSetGender,
		StepSetGenderFilter,
		StepSetGraduationYear,
		StepSetSubjects,
		StepSetSubjectsFilter,
		StepSetDatingPurpose,
		StepSetCity,
		StepSetLocationFilter,
		StepSetAbout,
		StepSetPhotos,
		StepStart,
	}

	for i, w := range want {
		state.Step = Next(state)
		if state.Step != w {
			t.Fatalf("transition %d: got %s, want %s", i, state.Step, w)
		}
	}
}

func TestNextCreationWithoutCity(t *testing.T) {
	// A cleared city skips the location filter step.
	state := &State{
		Step:      StepSetCity,
		Draft:     &model.Draft{City: &model.UserCity{}},
		CreateNew: true,
	}
	if got := Next(state); got != StepSetAbout {
		t.Errorf("after cleared city: got %s, want %s", got, StepSetAbout)
	}
}

func TestNextEditMode(t *testing.T) {
	cityID := int32(5)
	tests := []struct {
		name  string
		state *State
		want  Step
	}{
		{"name returns to start", &State{Step: StepSetName}, StepStart},
		{"about returns to start", &State{Step: StepSetAbout}, StepStart},
		{"photos returns to start", &State{Step: StepSetPhotos}, StepStart},
		{
			// Subjects always pull the filter in, even in edit mode.
			"subjects continues to filter",
			&State{Step: StepSetSubjects},
			StepSetSubjectsFilter,
		},
		{"subjects filter returns to start", &State{Step: StepSetSubjectsFilter}, StepStart},
		{
			// A confirmed city always continues into the location filter.
			"city continues to location filter",
			&State{Step: StepSetCity, Draft: &model.Draft{City: &model.UserCity{ID: &cityID}}},
			StepSetLocationFilter,
		},
		{
			"cleared city returns to start",
			&State{Step: StepSetCity, Draft: &model.Draft{City: &model.UserCity{}}},
			StepStart,
		},
		{"location filter returns to start", &State{Step: StepSetLocationFilter}, StepStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Next(tt.state); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStore(t *testing.T) {
	s := NewStore()

	if got := s.Get(1); got.Step != StepStart {
		t.Errorf("fresh chat step = %s, want %s", got.Step, StepStart)
	}

	s.Set(1, &State{Step: StepSetName})
	if got := s.Get(1); got.Step != StepSetName {
		t.Errorf("step = %s, want %s", got.Step, StepSetName)
	}
	if got := s.Get(2); got.Step != StepStart {
		t.Errorf("other chat affected: %s", got.Step)
	}

	s.Clear(1)
	if got := s.Get(1); got.Step != StepStart {
		t.Errorf("cleared chat step = %s, want %s", got.Step, StepStart)
	}
}

func TestStoreLockSerializesChat(t *testing.T) {
	s := NewStore()

	var mu sync.Mutex
	order := make([]int, 0, 2)

	unlock := s.Lock(1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		u := s.Lock(1)
		defer u()
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
	}()

	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	unlock()
	wg.Wait()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("order = %v, want [1 2]", order)
	}
}

func TestStoreLockParallelChats(t *testing.T) {
	s := NewStore()

	unlock := s.Lock(1)
	defer unlock()

	done := make(chan struct{})
	go func() {
		u := s.Lock(2)
		u()
		close(done)
	}()
	<-done
}
