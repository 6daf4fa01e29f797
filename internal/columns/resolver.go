// Package columns maps the variable headers of dialer exports onto canonical fields.
package columns

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field is a canonical semantic column.
type Field string

const (
	FieldState     Field = "state"
	FieldSubState  Field = "sub_state"
	FieldANI       Field = "ani"
	FieldBase      Field = "base"
	FieldDuration  Field = "duration"
	FieldTimestamp Field = "timestamp"
)

type fieldAliases struct {
	field    Field
	aliases  []string
	fallback string
}

// aliasTable is evaluated in order; INICIO-family timestamps are preferred over a
// plain FECHA column, which carries no time of day.
var aliasTable = []fieldAliases{
	{FieldState, []string{"ESTADO", "STATUS", "STATE"}, "Estado"},
	{FieldSubState, []string{"SUBESTADO", "SUBESTATUS", "SUBSTATE"}, "Sub-Estado"},
	{FieldANI, []string{"ANI", "ANITELEFONO", "TELEFONO", "PHONE", "NUMEROLLAMADO", "NUMERO"}, "ANI/Teléfono"},
	{FieldBase, []string{"BASE", "NOMBREBASE", "ORIGEN"}, "Base"},
	{FieldDuration, []string{"DURACION", "DURACIONENSEGUNDOS", "SEGUNDOS", "DURATION"}, "Duración"},
	{FieldTimestamp, []string{"INICIO", "FECHAINICIO", "FECHAHORA", "LOGTIME", "FECHALLAMADA"}, "Inicio"},
}

// Ancillary columns are looked up by their literal labels.
var (
	DirectionColumns  = []string{"Dirección", "Direccion"}
	ConnectionColumns = []string{"Conexión", "Conexion"}
	EndColumns        = []string{"Fin"}
)

// Mapping holds the original column name chosen for each canonical field.
type Mapping struct {
	State     string `json:"state"`
	SubState  string `json:"sub_state"`
	ANI       string `json:"ani"`
	Base      string `json:"base"`
	Duration  string `json:"duration"`
	Timestamp string `json:"timestamp"`
}

func (m *Mapping) set(f Field, col string) {
	switch f {
	case FieldState:
		m.State = col
	case FieldSubState:
		m.SubState = col
	case FieldANI:
		m.ANI = col
	case FieldBase:
		m.Base = col
	case FieldDuration:
		m.Duration = col
	case FieldTimestamp:
		m.Timestamp = col
	}
}

// Column returns the original column name mapped to f.
func (m Mapping) Column(f Field) string {
	switch f {
	case FieldState:
		return m.State
	case FieldSubState:
		return m.SubState
	case FieldANI:
		return m.ANI
	case FieldBase:
		return m.Base
	case FieldDuration:
		return m.Duration
	case FieldTimestamp:
		return m.Timestamp
	}
	return ""
}

// Normalize trims, strips diacritics, uppercases and removes whitespace, '-' and '/'.
func Normalize(col string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, strings.TrimSpace(col))
	if err != nil {
		s = strings.TrimSpace(col)
	}
	s = strings.ToUpper(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '/' {
			return -1
		}
		return r
	}, s)
}

// Resolve picks, for every canonical field, the first alias present among cols.
// When two columns normalize to the same key the one earlier in cols wins.
// Fields with no match fall back to the default export label.
func Resolve(cols []string) Mapping {
	byKey := make(map[string]string, len(cols))
	for _, c := range cols {
		k := Normalize(c)
		if _, seen := byKey[k]; !seen {
			byKey[k] = c
		}
	}

	var m Mapping
	for _, fa := range aliasTable {
		col := fa.fallback
		for _, alias := range fa.aliases {
			if orig, ok := byKey[alias]; ok {
				col = orig
				break
			}
		}
		m.set(fa.field, col)
	}
	return m
}
