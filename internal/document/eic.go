package document

import "github.com/quantract/certledger/pkg/canonical"

const (
	WorkNewInstallation = "new"
	WorkAddition        = "addition"
	WorkAlteration      = "alteration"
)

// EIC certifies new work: a new installation, or an addition or alteration
// to an existing one.
type EIC struct {
	DescriptionOfWork Field[string]  `json:"descriptionOfWork,omitzero"`
	ExtentOfWork      Field[string]  `json:"extentOfWork,omitzero"`
	InstallationKind  Field[string]  `json:"installationKind,omitzero"`
	DesignerName      Field[string]  `json:"designerName,omitzero"`
	InstallerName     Field[string]  `json:"installerName,omitzero"`
	Departures        Field[string]  `json:"departures,omitzero"`
	SupplyVoltage     Field[float64] `json:"supplyVoltage,omitzero"`
	MainFuseAmps      Field[float64] `json:"amps,omitzero"`
	Earthing          Field[string]  `json:"earthing,omitzero"`
	ZeOhms            Field[float64] `json:"zeOhms,omitzero"`
	NextInspectionDue Field[string]  `json:"nextInspectionDue,omitzero"`
	Circuits          []Circuit      `json:"circuits,omitempty"`
}

func (*EIC) Type() Type { return TypeEIC }

func (e *EIC) Canonical() canonical.Object {
	return canonical.Object{}.
		Set("descriptionOfWork", canonStr(e.DescriptionOfWork)).
		Set("extentOfWork", canonStr(e.ExtentOfWork)).
		Set("installationKind", canonStr(e.InstallationKind)).
		Set("designerName", canonStr(e.DesignerName)).
		Set("installerName", canonStr(e.InstallerName)).
		Set("departures", canonStr(e.Departures)).
		Set("supplyVoltage", canonNum(e.SupplyVoltage)).
		Set("amps", canonNum(e.MainFuseAmps)).
		Set("earthing", canonStr(e.Earthing)).
		Set("zeOhms", canonNum(e.ZeOhms)).
		Set("nextInspectionDue", canonStr(e.NextInspectionDue)).
		Set("circuits", canonCircuits(e.Circuits))
}

func (e *EIC) missing() []string {
	var out []string
	if !e.DescriptionOfWork.IsSet() {
		out = append(out, "body.descriptionOfWork")
	}
	switch e.InstallationKind.Or("") {
	case WorkNewInstallation, WorkAddition, WorkAlteration:
	default:
		out = append(out, "body.installationKind")
	}
	if !e.DesignerName.IsSet() {
		out = append(out, "body.designerName")
	}
	if !e.InstallerName.IsSet() {
		out = append(out, "body.installerName")
	}
	if !e.SupplyVoltage.IsSet() || !finite(e.SupplyVoltage) {
		out = append(out, "body.supplyVoltage")
	}
	if !finite(e.MainFuseAmps) {
		out = append(out, "body.amps")
	}
	if !validEarthing(e.Earthing) {
		out = append(out, "body.earthing")
	}
	if !finite(e.ZeOhms) {
		out = append(out, "body.zeOhms")
	}
	if len(e.Circuits) == 0 {
		out = append(out, "body.circuits")
	}
	return append(out, circuitsMissing(e.Circuits)...)
}

func (e *EIC) Sections() []Section {
	var work []Row
	work = row(work, "Description of work", showStr(e.DescriptionOfWork))
	work = row(work, "Extent of work", showStr(e.ExtentOfWork))
	work = row(work, "Type of work", showStr(e.InstallationKind))
	work = row(work, "Departures from BS 7671", showStr(e.Departures))

	var responsible []Row
	responsible = row(responsible, "Design", showStr(e.DesignerName))
	responsible = row(responsible, "Construction", showStr(e.InstallerName))
	responsible = row(responsible, "Next inspection due", showStr(e.NextInspectionDue))

	var supply []Row
	supply = row(supply, "Supply voltage", showUnit(e.SupplyVoltage, "V"))
	supply = row(supply, "Main fuse rating", showUnit(e.MainFuseAmps, "A"))
	supply = row(supply, "Earthing arrangement", showStr(e.Earthing))
	supply = row(supply, "External earth loop impedance Ze", showUnit(e.ZeOhms, "Ω"))

	return []Section{
		{Heading: "Details of the work", Rows: work},
		{Heading: "Responsible persons", Rows: responsible},
		{Heading: "Supply characteristics", Rows: supply},
		circuitSection(e.Circuits),
	}
}
