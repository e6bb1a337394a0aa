package cities

import (
	"testing"

	"github.com/adrg/strutil/metrics"

	"dating_bot/internal/model"
)

func loadGazetteer(t *testing.T) *Gazetteer {
	t.Helper()
	g, err := Load()
	if err != nil {
		t.Fatalf("load gazetteer: %v", err)
	}
	return g
}

func TestFindCity(t *testing.T) {
	g := loadGazetteer(t)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"exact", "Москва", "Москва"},
		{"lowercase", "москва", "Москва"},
		{"with spaces", "  Казань ", "Казань"},
		{"typo", "Масква", "Москва"},
		{"latin transliteration", "Moskva", "Москва"},
		{"latin transliteration long", "Ekaterinburg", "Екатеринбург"},
		{"multi word", "нижний новгород", "Нижний Новгород"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := g.FindCity(tt.query)
			if !ok {
				t.Fatalf("FindCity(%q): no match", tt.query)
			}
			got, err := g.CityName(id)
			if err != nil {
				t.Fatalf("city name: %v", err)
			}
			if got != tt.want {
				t.Errorf("FindCity(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestFindCityDeterministic(t *testing.T) {
	g := loadGazetteer(t)

	first, ok := g.FindCity("город")
	if !ok {
		t.Skip("query below threshold")
	}
	for i := 0; i < 20; i++ {
		id, ok := g.FindCity("город")
		if !ok || id != first {
			t.Fatalf("iteration %d: got %d/%v, want %d", i, id, ok, first)
		}
	}
}

func TestFindCitySameNameTieBreak(t *testing.T) {
	// Two towns sharing one name score identically, so the smaller id must
	// win regardless of map iteration order.
	g := &Gazetteer{
		cities: map[int32]string{
			2<<16 | 5<<8 | 1: "Советск",
			1<<16 | 3<<8 | 4: "Советск",
		},
		metric: metrics.NewJaroWinkler(),
	}

	want := int32(1<<16 | 3<<8 | 4)
	for i := 0; i < 20; i++ {
		id, ok := g.FindCity("Советск")
		if !ok {
			t.Fatal("Советск not found")
		}
		if id != want {
			t.Fatalf("iteration %d: id = %d, want %d", i, id, want)
		}
	}
}

func TestCityIDEncoding(t *testing.T) {
	g := loadGazetteer(t)

	id, ok := g.FindCity("Сочи")
	if !ok {
		t.Fatal("Сочи not found")
	}

	// Южный county is 3, Краснодарский край is subject 11, Сочи is city 2.
	if want := int32(3<<16 | 11<<8 | 2); id != want {
		t.Fatalf("id = %d, want %d", id, want)
	}

	county, err := g.CountyName(id)
	if err != nil || county != "Южный" {
		t.Errorf("county = %q, %v", county, err)
	}
	subject, err := g.SubjectName(id)
	if err != nil || subject != "Краснодарский край" {
		t.Errorf("subject = %q, %v", subject, err)
	}
	formatted, err := g.FormatCity(id)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if formatted != "Южный ФО, Краснодарский край, Сочи" {
		t.Errorf("formatted = %q", formatted)
	}
}

func TestCityLookupUnknownID(t *testing.T) {
	g := loadGazetteer(t)
	if _, err := g.CityName(255<<16 | 255<<8 | 255); err == nil {
		t.Error("unknown city id resolved")
	}
	if _, err := g.FormatCity(0); err == nil {
		t.Error("zero city id formatted")
	}
}

func TestParseLocationFilter(t *testing.T) {
	g := loadGazetteer(t)

	tests := []struct {
		name    string
		text    string
		want    model.LocationFilter
		wantErr bool
	}{
		{"country", "Вся Россия", model.LocationCountry, false},
		{"county", "Центральный ФО", model.LocationCounty, false},
		{"subject", "Московская область", model.LocationSubject, false},
		{"city", "Подольск", model.LocationCity, false},
		// Москва is a city-state: as plain text it is a subject first.
		{"city-state is subject", "Москва", model.LocationSubject, false},
		{"garbage", "везде", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.ParseLocationFilter(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLocationFilter(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
