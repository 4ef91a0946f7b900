package document

import (
	"fmt"

	"github.com/quantract/certledger/pkg/canonical"
)

// Observation codes on a condition report.
const (
	CodeDanger      = "C1"
	CodePotential   = "C2"
	CodeImprovement = "C3"
	CodeFurther     = "FI"
)

const (
	AssessmentSatisfactory   = "satisfactory"
	AssessmentUnsatisfactory = "unsatisfactory"
)

type Observation struct {
	Item        string        `json:"item,omitempty"`
	Description string        `json:"description,omitempty"`
	Code        string        `json:"code,omitempty"`
	Location    Field[string] `json:"location,omitzero"`
}

// EICR is the periodic condition report for an existing installation.
type EICR struct {
	Purpose            Field[string]  `json:"purpose,omitzero"`
	ExtentOfInspection Field[string]  `json:"extentOfInspection,omitzero"`
	Limitations        Field[string]  `json:"limitations,omitzero"`
	SupplyVoltage      Field[float64] `json:"supplyVoltage,omitzero"`
	MainFuseAmps       Field[float64] `json:"amps,omitzero"`
	Earthing           Field[string]  `json:"earthing,omitzero"`
	ZeOhms             Field[float64] `json:"zeOhms,omitzero"`
	OverallAssessment  Field[string]  `json:"overallAssessment,omitzero"`
	NextInspectionDue  Field[string]  `json:"nextInspectionDue,omitzero"`
	Circuits           []Circuit      `json:"circuits,omitempty"`
	Observations       []Observation  `json:"observations,omitempty"`
}

func (*EICR) Type() Type { return TypeEICR }

func (e *EICR) Canonical() canonical.Object {
	var obs canonical.Value
	if len(e.Observations) > 0 {
		arr := make(canonical.Array, len(e.Observations))
		for i, o := range e.Observations {
			arr[i] = canonical.Object{}.
				Set("item", canonical.String(o.Item)).
				Set("description", canonical.String(o.Description)).
				Set("code", canonical.String(o.Code)).
				Set("location", canonStr(o.Location))
		}
		obs = arr
	}

	return canonical.Object{}.
		Set("purpose", canonStr(e.Purpose)).
		Set("extentOfInspection", canonStr(e.ExtentOfInspection)).
		Set("limitations", canonStr(e.Limitations)).
		Set("supplyVoltage", canonNum(e.SupplyVoltage)).
		Set("amps", canonNum(e.MainFuseAmps)).
		Set("earthing", canonStr(e.Earthing)).
		Set("zeOhms", canonNum(e.ZeOhms)).
		Set("overallAssessment", canonStr(e.OverallAssessment)).
		Set("nextInspectionDue", canonStr(e.NextInspectionDue)).
		Set("circuits", canonCircuits(e.Circuits)).
		Set("observations", obs)
}

func (e *EICR) missing() []string {
	var out []string
	if !e.ExtentOfInspection.IsSet() {
		out = append(out, "body.extentOfInspection")
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

	assessment, _ := e.OverallAssessment.Get()
	switch assessment {
	case AssessmentSatisfactory, AssessmentUnsatisfactory:
	default:
		out = append(out, "body.overallAssessment")
	}

	if len(e.Circuits) == 0 {
		out = append(out, "body.circuits")
	}
	out = append(out, circuitsMissing(e.Circuits)...)

	requiresAction := false
	for i, o := range e.Observations {
		prefix := fmt.Sprintf("body.observations[%d]", i)
		if o.Description == "" {
			out = append(out, prefix+".description")
		}
		switch o.Code {
		case CodeDanger, CodePotential, CodeFurther:
			requiresAction = true
		case CodeImprovement:
		default:
			out = append(out, prefix+".code")
		}
	}
	// Any C1, C2 or FI observation makes the installation unsatisfactory.
	if requiresAction && assessment == AssessmentSatisfactory {
		out = append(out, "body.overallAssessment")
	}
	return out
}

func (e *EICR) Sections() []Section {
	var details []Row
	details = row(details, "Purpose of report", showStr(e.Purpose))
	details = row(details, "Extent of inspection", showStr(e.ExtentOfInspection))
	details = row(details, "Limitations", showStr(e.Limitations))
	details = row(details, "Next inspection due", showStr(e.NextInspectionDue))

	var supply []Row
	supply = row(supply, "Supply voltage", showUnit(e.SupplyVoltage, "V"))
	supply = row(supply, "Main fuse rating", showUnit(e.MainFuseAmps, "A"))
	supply = row(supply, "Earthing arrangement", showStr(e.Earthing))
	supply = row(supply, "External earth loop impedance Ze", showUnit(e.ZeOhms, "Ω"))

	var observations []Row
	for _, o := range e.Observations {
		observations = append(observations, Row{
			Label: o.Code + " " + o.Item,
			Value: joinNonEmpty(o.Description, showStr(o.Location)),
		})
	}

	return []Section{
		{Heading: "Details of the report", Rows: details},
		{Heading: "Supply characteristics", Rows: supply},
		{Heading: "Overall assessment", Rows: row(nil, "The installation is", showStr(e.OverallAssessment))},
		{Heading: "Observations", Rows: observations},
		circuitSection(e.Circuits),
	}
}

var earthingArrangements = map[string]bool{
	"TN-S":   true,
	"TN-C-S": true,
	"TT":     true,
	"IT":     true,
}

func validEarthing(f Field[string]) bool {
	v, ok := f.Get()
	return ok && earthingArrangements[v]
}
