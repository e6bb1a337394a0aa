package bot

import (
	"fmt"
	"strings"
	"time"

	"dating_bot/internal/cities"
	"dating_bot/internal/model"
)

// FormatProfile renders a profile card. The grade is derived from the stored
// graduation year at render time, so profiles age without edits.
func FormatProfile(u *model.UserProfile, g *cities.Gazetteer, now time.Time) string {
	var b strings.Builder

	grade := model.GradeFromGraduationYear(u.GraduationYear, now)
	fmt.Fprintf(&b, "%s %s, %d класс.\n", u.Gender.Emoji(), u.Name, grade)
	fmt.Fprintf(&b, "🔎 Интересует: %s.\n", u.DatingPurpose)

	if u.Subjects.IsEmpty() {
		b.WriteString("📚 Ничего не ботает.\n")
	} else {
		fmt.Fprintf(&b, "📚 Ботает: %s.\n", u.Subjects)
	}

	location := cities.CountryLabel
	if u.City != nil {
		if formatted, err := g.FormatCity(*u.City); err == nil {
			location = formatted
		}
	}
	fmt.Fprintf(&b, "🧭 %s.\n", location)

	b.WriteString("\n")
	b.WriteString(u.About)
	return b.String()
}
