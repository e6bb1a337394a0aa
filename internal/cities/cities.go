// Package cities resolves free-text city names against a static gazetteer of
// Russian cities and parses location filter selections.
//
// A city id packs its geography into one int32: county<<16 | subject<<8 | n,
// so the county and federal subject of a stored city are recovered with bit
// shifts. The encoding is persisted and must stay stable.
package cities

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"dating_bot/internal/model"
)

//go:embed gazetteer.tsv
var gazetteerTSV []byte

// similarityThreshold is the minimum Jaro-Winkler similarity for a fuzzy
// city match.
const similarityThreshold = 0.15

// CountryLabel is the "search everywhere" button text.
const CountryLabel = "Вся Россия"

// Gazetteer is the loaded-once immutable city lookup table.
type Gazetteer struct {
	counties map[int32]string
	subjects map[int32]string
	cities   map[int32]string

	countyNames  map[string]struct{}
	subjectNames map[string]struct{}
	cityNames    map[string]struct{}

	metric *metrics.JaroWinkler
}

// Load parses the embedded gazetteer.
func Load() (*Gazetteer, error) {
	g := &Gazetteer{
		counties:     make(map[int32]string),
		subjects:     make(map[int32]string),
		cities:       make(map[int32]string),
		countyNames:  make(map[string]struct{}),
		subjectNames: make(map[string]struct{}),
		cityNames:    make(map[string]struct{}),
		metric:       metrics.NewJaroWinkler(),
	}

	scanner := bufio.NewScanner(bytes.NewReader(gazetteerTSV))
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		fields := strings.Split(raw, "\t")
		if len(fields) != 6 {
			return nil, fmt.Errorf("gazetteer line %d: want 6 fields, got %d", line, len(fields))
		}

		county, err := parseComponent(fields[0])
		if err != nil {
			return nil, fmt.Errorf("gazetteer line %d: county id: %w", line, err)
		}
		subject, err := parseComponent(fields[1])
		if err != nil {
			return nil, fmt.Errorf("gazetteer line %d: subject id: %w", line, err)
		}
		n, err := parseComponent(fields[2])
		if err != nil {
			return nil, fmt.Errorf("gazetteer line %d: city number: %w", line, err)
		}

		id := county<<16 | subject<<8 | n
		g.counties[county] = fields[3]
		g.subjects[subject] = fields[4]
		g.cities[id] = fields[5]
		g.countyNames[fields[3]] = struct{}{}
		g.subjectNames[fields[4]] = struct{}{}
		g.cityNames[fields[5]] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read gazetteer: %w", err)
	}
	if len(g.cities) == 0 {
		return nil, fmt.Errorf("gazetteer is empty")
	}
	return g, nil
}

func parseComponent(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("component %d out of range [0, 255]", v)
	}
	return int32(v), nil
}

// FindCity returns the id of the city whose name is most similar to the
// query. The best Jaro-Winkler similarity must exceed the threshold;
// similarity ties are broken by the lexicographically smaller city name,
// then by the smaller id, so resolution stays deterministic even for
// same-named towns in different subjects.
func (g *Gazetteer) FindCity(query string) (int32, bool) {
	q := normalize(query)

	var (
		bestID   int32
		bestName string
		bestSim  = -1.0
	)
	for id, name := range g.cities {
		sim := g.similarity(q, name)
		switch {
		case sim > bestSim,
			sim == bestSim && name < bestName,
			sim == bestSim && name == bestName && id < bestID:
			bestID, bestName, bestSim = id, name, sim
		}
	}
	if bestSim <= similarityThreshold {
		return 0, false
	}
	return bestID, true
}

func (g *Gazetteer) similarity(normQuery, name string) float64 {
	norm := normalize(name)
	sim := strutil.Similarity(normQuery, norm, g.metric)
	// Latin-keyboard input ("Moskva") never overlaps Cyrillic names, so
	// a transliterated comparison is taken when it scores higher.
	if translit := transliterate(norm); translit != norm {
		if s := strutil.Similarity(normQuery, translit, g.metric); s > sim {
			sim = s
		}
	}
	return sim
}

// CityName returns the display name of a city id.
func (g *Gazetteer) CityName(id int32) (string, error) {
	name, ok := g.cities[id]
	if !ok {
		return "", fmt.Errorf("city %d not found", id)
	}
	return name, nil
}

// CountyName returns the federal county name for a city id.
func (g *Gazetteer) CountyName(id int32) (string, error) {
	name, ok := g.counties[id>>16]
	if !ok {
		return "", fmt.Errorf("county of city %d not found", id)
	}
	return name, nil
}

// SubjectName returns the federal subject name for a city id.
func (g *Gazetteer) SubjectName(id int32) (string, error) {
	name, ok := g.subjects[(id>>8)&0xff]
	if !ok {
		return "", fmt.Errorf("subject of city %d not found", id)
	}
	return name, nil
}

// FormatCity renders the full "county ФО, subject, city" location line.
func (g *Gazetteer) FormatCity(id int32) (string, error) {
	county, err := g.CountyName(id)
	if err != nil {
		return "", err
	}
	subject, err := g.SubjectName(id)
	if err != nil {
		return "", err
	}
	city, err := g.CityName(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s ФО, %s, %s", county, subject, city), nil
}

// ParseLocationFilter maps a location button press to a filter. Matching is
// tried widest first: the whole-country literal, then a county name with
// the " ФО" suffix stripped, then a subject name, then a city name.
func (g *Gazetteer) ParseLocationFilter(text string) (model.LocationFilter, error) {
	if text == CountryLabel {
		return model.LocationCountry, nil
	}
	if runes := []rune(text); len(runes) > 3 {
		if _, ok := g.countyNames[string(runes[:len(runes)-3])]; ok {
			return model.LocationCounty, nil
		}
	}
	if _, ok := g.subjectNames[text]; ok {
		return model.LocationSubject, nil
	}
	if _, ok := g.cityNames[text]; ok {
		return model.LocationCity, nil
	}
	return "", fmt.Errorf("can't parse location filter from %q", text)
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "ё", "е")
}

var translitTable = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l",
	'м': "m", 'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s",
	'т': "t", 'у': "u", 'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "sch", 'ъ': "", 'ы': "y", 'ь': "", 'э': "e",
	'ю': "yu", 'я': "ya",
}

func transliterate(s string) string {
	var b strings.Builder
	for _, r := range s {
		if lat, ok := translitTable[r]; ok {
			b.WriteString(lat)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
