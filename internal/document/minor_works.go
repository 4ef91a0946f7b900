package document

import "github.com/quantract/certledger/pkg/canonical"

// MinorWorks covers a change to a single existing circuit.
type MinorWorks struct {
	DescriptionOfWork Field[string] `json:"descriptionOfWork,omitzero"`
	DateOfCompletion  Field[string] `json:"dateOfCompletion,omitzero"`
	Departures        Field[string] `json:"departures,omitzero"`
	Earthing          Field[string] `json:"earthing,omitzero"`
	Circuit           Circuit       `json:"circuit"`
	Comments          Field[string] `json:"comments,omitzero"`
}

func (*MinorWorks) Type() Type { return TypeMinorWorks }

func (m *MinorWorks) Canonical() canonical.Object {
	return canonical.Object{}.
		Set("descriptionOfWork", canonStr(m.DescriptionOfWork)).
		Set("dateOfCompletion", canonStr(m.DateOfCompletion)).
		Set("departures", canonStr(m.Departures)).
		Set("earthing", canonStr(m.Earthing)).
		Set("circuit", m.Circuit.canonical()).
		Set("comments", canonStr(m.Comments))
}

func (m *MinorWorks) missing() []string {
	var out []string
	if !m.DescriptionOfWork.IsSet() {
		out = append(out, "body.descriptionOfWork")
	}
	if !m.DateOfCompletion.IsSet() {
		out = append(out, "body.dateOfCompletion")
	}
	if !validEarthing(m.Earthing) {
		out = append(out, "body.earthing")
	}
	return append(out, m.Circuit.missing("body.circuit")...)
}

func (m *MinorWorks) Sections() []Section {
	var work []Row
	work = row(work, "Description of work", showStr(m.DescriptionOfWork))
	work = row(work, "Date of completion", showStr(m.DateOfCompletion))
	work = row(work, "Departures from BS 7671", showStr(m.Departures))
	work = row(work, "Earthing arrangement", showStr(m.Earthing))
	work = row(work, "Comments", showStr(m.Comments))

	return []Section{
		{Heading: "Details of the minor works", Rows: work},
		circuitSection([]Circuit{m.Circuit}),
	}
}
