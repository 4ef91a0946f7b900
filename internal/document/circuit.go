package document

import (
	"fmt"
	"strconv"

	"github.com/quantract/certledger/pkg/canonical"
)

// Circuit is one row of a schedule of test results.
type Circuit struct {
	Ref              string         `json:"ref,omitempty"`
	Description      Field[string]  `json:"description,omitzero"`
	ProtectiveDevice Field[string]  `json:"protectiveDevice,omitzero"`
	RatingAmps       Field[float64] `json:"ratingAmps,omitzero"`
	R1R2Ohms         Field[float64] `json:"r1r2Ohms,omitzero"`
	InsulationMOhms  Field[float64] `json:"insulationMOhms,omitzero"`
	ZsOhms           Field[float64] `json:"zsOhms,omitzero"`
	RCDTripMs        Field[float64] `json:"rcdTripMs,omitzero"`
	Polarity         Field[bool]    `json:"polarity,omitzero"`
}

func (c Circuit) canonical() canonical.Value {
	return canonical.Object{}.
		Set("ref", canonical.String(c.Ref)).
		Set("description", canonStr(c.Description)).
		Set("protectiveDevice", canonStr(c.ProtectiveDevice)).
		Set("ratingAmps", canonNum(c.RatingAmps)).
		Set("r1r2Ohms", canonNum(c.R1R2Ohms)).
		Set("insulationMOhms", canonNum(c.InsulationMOhms)).
		Set("zsOhms", canonNum(c.ZsOhms)).
		Set("rcdTripMs", canonNum(c.RCDTripMs)).
		Set("polarity", canonBool(c.Polarity))
}

func (c Circuit) missing(prefix string) []string {
	var out []string
	if c.Ref == "" {
		out = append(out, prefix+".ref")
	}
	if !c.RatingAmps.IsSet() {
		out = append(out, prefix+".ratingAmps")
	}
	for name, f := range map[string]Field[float64]{
		"ratingAmps":      c.RatingAmps,
		"r1r2Ohms":        c.R1R2Ohms,
		"insulationMOhms": c.InsulationMOhms,
		"zsOhms":          c.ZsOhms,
		"rcdTripMs":       c.RCDTripMs,
	} {
		if !finite(f) {
			out = append(out, prefix+"."+name)
		}
	}
	return out
}

func canonCircuits(cs []Circuit) canonical.Value {
	if len(cs) == 0 {
		return nil
	}
	arr := make(canonical.Array, len(cs))
	for i, c := range cs {
		arr[i] = c.canonical()
	}
	return arr
}

func circuitsMissing(cs []Circuit) []string {
	var out []string
	for i, c := range cs {
		out = append(out, c.missing(fmt.Sprintf("body.circuits[%d]", i))...)
	}
	return out
}

func circuitSection(cs []Circuit) Section {
	s := Section{Heading: "Schedule of test results"}
	for _, c := range cs {
		s.Rows = append(s.Rows, Row{
			Label: c.Ref,
			Value: joinNonEmpty(
				showStr(c.Description),
				showStr(c.ProtectiveDevice),
				showUnit(c.RatingAmps, "A"),
				labelled("R1+R2", showUnit(c.R1R2Ohms, "Ω")),
				labelled("IR", showUnit(c.InsulationMOhms, "MΩ")),
				labelled("Zs", showUnit(c.ZsOhms, "Ω")),
				labelled("RCD", showUnit(c.RCDTripMs, "ms")),
				labelled("Polarity", showBool(c.Polarity)),
			),
		})
	}
	return s
}

const clearedDisplay = "N/A"

func showStr(f Field[string]) string {
	if f.IsCleared() {
		return clearedDisplay
	}
	return f.Or("")
}

func showNum(f Field[float64]) string {
	if f.IsCleared() {
		return clearedDisplay
	}
	v, ok := f.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func showUnit(f Field[float64], unit string) string {
	s := showNum(f)
	if s == "" || s == clearedDisplay {
		return s
	}
	return s + " " + unit
}

func showBool(f Field[bool]) string {
	if f.IsCleared() {
		return clearedDisplay
	}
	v, ok := f.Get()
	switch {
	case !ok:
		return ""
	case v:
		return "Pass"
	default:
		return "Fail"
	}
}

func labelled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + " " + value
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}

// row appends a label/value pair, skipping values never filled in.
func row(rows []Row, label, value string) []Row {
	if value == "" {
		return rows
	}
	return append(rows, Row{Label: label, Value: value})
}
