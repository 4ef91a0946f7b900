package document

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Readiness is the outcome of the completion check a certificate must pass
// before it can be completed or issued.
type Readiness struct {
	OK      bool     `json:"ok"`
	Missing []string `json:"missing,omitempty"`
}

var attachmentValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CheckReadiness reports every field that blocks issuance. Missing is sorted
// so repeated checks of the same draft give the same answer.
func CheckReadiness(d Draft) Readiness {
	var missing []string

	if !d.Type.Valid() {
		missing = append(missing, "type")
	}
	if d.Header.InspectorName == "" {
		missing = append(missing, "header.inspectorName")
	}
	if d.Header.InspectorRegistration == "" {
		missing = append(missing, "header.inspectorRegistration")
	}
	if d.Header.ClientName == "" {
		missing = append(missing, "header.clientName")
	}
	if d.Header.SiteAddress == "" {
		missing = append(missing, "header.siteAddress")
	}

	switch {
	case d.Body == nil:
		missing = append(missing, "body")
	case d.Body.Type() != d.Type:
		missing = append(missing, "body.type")
	default:
		missing = append(missing, d.Body.missing()...)
	}

	for i, a := range d.Attachments {
		if err := attachmentValidate.Struct(a); err != nil {
			if verrs, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range verrs {
					missing = append(missing, fmt.Sprintf("attachments[%d].%s", i, fe.Field()))
				}
				continue
			}
			missing = append(missing, fmt.Sprintf("attachments[%d]", i))
		}
	}

	sort.Strings(missing)
	missing = dedupe(missing)
	return Readiness{OK: len(missing) == 0, Missing: missing}
}

func dedupe(sorted []string) []string {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, s := range sorted[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
