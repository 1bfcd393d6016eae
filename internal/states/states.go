// Package states holds the canonical list of Mexican states used to label
// news entries.
package states

import "strings"

// Canonical is the fixed, ordered list of state names. Matching walks it top
// to bottom, so order decides which name wins when an entity contains more
// than one of them. "CDMX" and "Ciudad de México" are both listed.
var Canonical = []string{
	"Aguascalientes", "Baja California", "Baja California Sur", "Campeche", "CDMX", "Ciudad de México",
	"Chiapas", "Chihuahua", "Coahuila", "Colima", "Durango", "Estado de México", "Guanajuato", "Guerrero",
	"Hidalgo", "Jalisco", "Michoacán", "Morelos", "Nayarit", "Nuevo León", "Oaxaca", "Puebla", "Querétaro",
	"Quintana Roo", "San Luis Potosí", "Sinaloa", "Sonora", "Tabasco", "Tamaulipas", "Tlaxcala", "Veracruz",
	"Yucatán", "Zacatecas",
}

var lowered = func() []string {
	out := make([]string, len(Canonical))
	for i, name := range Canonical {
		out[i] = strings.ToLower(name)
	}
	return out
}()

// Match returns the first canonical state whose lowercase form is contained
// in the lowercased entity text.
//
// Containment is plain substring search: "Baja California Sur" yields
// "Baja California" because that entry comes first.
func Match(entityText string) (string, bool) {
	text := strings.ToLower(entityText)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	for i, name := range lowered {
		if strings.Contains(text, name) {
			return Canonical[i], true
		}
	}
	return "", false
}

// IsCanonical reports whether name is spelled exactly as a canonical entry.
func IsCanonical(name string) bool {
	for _, c := range Canonical {
		if c == name {
			return true
		}
	}
	return false
}
