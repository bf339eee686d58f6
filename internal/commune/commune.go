// Package commune классифицирует коммуны относительно столицы (Абиджан)
// и форматирует их названия для строк счёта.
package commune

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CapitalName: каноническое название столицы в описаниях.
const CapitalName = "Abidjan"

// CapitalCommunesVersion меняется при любом изменении состава CapitalCommunes.
const CapitalCommunesVersion = "2024.1"

// capitalCommunes: закрытый список коммун агломерации Абиджана (нормализованные ключи).
// Grand-Bassam, Dabou, Jacqueville и Grand-Lahou сюда намеренно не входят.
var capitalCommunes = map[string]struct{}{
	"abidjan":     {},
	"abobo":       {},
	"adjame":      {},
	"anyama":      {},
	"attecoube":   {},
	"bingerville": {},
	"cocody":      {},
	"koumassi":    {},
	"marcory":     {},
	"plateau":     {},
	"port-bouet":  {},
	"songon":      {},
	"treichville": {},
	"yopougon":    {},
}

// CapitalCommunes возвращает копию списка коммун столицы.
func CapitalCommunes() []string {
	out := make([]string, 0, len(capitalCommunes))
	for name := range capitalCommunes {
		out = append(out, name)
	}
	return out
}

// Normalize приводит название к ключу сравнения: без регистра, диакритики и
// с единым разделителем "-" ("Port Bouët" → "port-bouet").
func Normalize(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(name))
	if err != nil {
		folded = strings.TrimSpace(name)
	}
	folded = strings.ToLower(folded)

	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
	return strings.Join(fields, "-")
}

// IsCapital сообщает, входит ли коммуна в агломерацию столицы.
func IsCapital(name string) bool {
	key := Normalize(name)
	if key == "" {
		return false
	}
	_, ok := capitalCommunes[key]
	return ok
}

// SameCity сравнивает два названия без учёта регистра и диакритики.
func SameCity(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	return na != "" && na == nb
}

// Title форматирует название по правилам французского языка ("bouaké" → "Bouaké").
func Title(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	return cases.Title(language.French).String(name)
}

// DisplayDestination форматирует город назначения: коммуны столицы показываются как "Abidjan".
func DisplayDestination(name string) string {
	if IsCapital(name) {
		return CapitalName
	}
	return Title(name)
}
