package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quantract/certledger/pkg/canonical"
)

// SchemaVersion identifies the snapshot layout. Bump it only together with a
// migration story for already-issued revisions: their hashes cover the layout.
const SchemaVersion = 1

type Header struct {
	InspectorName         string `json:"inspectorName,omitempty"`
	InspectorRegistration string `json:"inspectorRegistration,omitempty"`
	ClientName            string `json:"clientName,omitempty"`
	SiteAddress           string `json:"siteAddress,omitempty"`
}

func (h Header) canonical() canonical.Value {
	return canonical.Object{}.
		Set("inspectorName", canonical.String(h.InspectorName)).
		Set("inspectorRegistration", canonical.String(h.InspectorRegistration)).
		Set("clientName", canonical.String(h.ClientName)).
		Set("siteAddress", canonical.String(h.SiteAddress))
}

// Attachment is metadata for a supporting file (photo, schedule, drawing).
// Only the checksum is bound into the record, not the bytes.
type Attachment struct {
	Name        string `json:"name,omitempty" validate:"required"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size"`
	Checksum    string `json:"checksum,omitempty" validate:"required,len=64,hexadecimal"`
}

func (a Attachment) canonical() canonical.Value {
	return canonical.Object{}.
		Set("name", canonical.String(a.Name)).
		Set("contentType", canonical.String(a.ContentType)).
		Set("size", canonical.Int(a.Size)).
		Set("checksum", canonical.String(a.Checksum))
}

// Draft is the editable state of a certificate as the readiness predicate
// and snapshot builder see it.
type Draft struct {
	Type        Type
	Header      Header
	Body        Content
	Attachments []Attachment
}

// Meta is the identity and issuance context bound into a snapshot.
type Meta struct {
	CertificateID     string
	CertificateNumber string
	CompanyID         string
	Revision          int
	IssuedAt          time.Time
}

// Snapshot is the frozen content of one revision. Its canonical encoding is
// what gets hashed, stored and served.
type Snapshot struct {
	SchemaVersion     int
	CertificateID     string
	CertificateNumber string
	CompanyID         string
	Type              Type
	Revision          int
	IssuedAt          time.Time
	Header            Header
	Body              Content
	Attachments       []Attachment
}

// NewSnapshot deep-copies d by round-tripping the body through its canonical
// form, so later edits to the draft cannot reach the snapshot.
func NewSnapshot(d Draft, meta Meta) (*Snapshot, error) {
	if d.Body == nil {
		return nil, errors.New("document: draft has no body")
	}
	if d.Body.Type() != d.Type {
		return nil, fmt.Errorf("document: body type %s does not match certificate type %s", d.Body.Type(), d.Type)
	}

	body, err := DecodeContent(d.Type, canonical.Marshal(d.Body.Canonical()))
	if err != nil {
		return nil, err
	}

	var attachments []Attachment
	if len(d.Attachments) > 0 {
		attachments = make([]Attachment, len(d.Attachments))
		copy(attachments, d.Attachments)
	}

	return &Snapshot{
		SchemaVersion:     SchemaVersion,
		CertificateID:     meta.CertificateID,
		CertificateNumber: meta.CertificateNumber,
		CompanyID:         meta.CompanyID,
		Type:              d.Type,
		Revision:          meta.Revision,
		IssuedAt:          meta.IssuedAt.UTC(),
		Header:            d.Header,
		Body:              body,
		Attachments:       attachments,
	}, nil
}

func (s *Snapshot) Canonical() canonical.Object {
	var attachments canonical.Value
	if len(s.Attachments) > 0 {
		arr := make(canonical.Array, len(s.Attachments))
		for i, a := range s.Attachments {
			arr[i] = a.canonical()
		}
		attachments = arr
	}

	var body canonical.Value
	if s.Body != nil {
		body = s.Body.Canonical()
	}

	obj := canonical.Object{}.
		Set("schemaVersion", canonical.Int(s.SchemaVersion)).
		Set("certificateId", canonical.String(s.CertificateID)).
		Set("certificateNumber", canonical.String(s.CertificateNumber)).
		Set("companyId", canonical.String(s.CompanyID)).
		Set("type", canonical.String(s.Type)).
		Set("revision", canonical.Int(s.Revision)).
		Set("header", s.Header.canonical()).
		Set("body", body).
		Set("attachments", attachments)
	if !s.IssuedAt.IsZero() {
		obj.Set("issuedAt", canonical.String(s.IssuedAt.UTC().Format(time.RFC3339Nano)))
	}
	return obj
}

// Bytes is the canonical encoding stored in the revision row.
func (s *Snapshot) Bytes() []byte {
	return canonical.Marshal(s.Canonical())
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return s.Bytes(), nil
}

type snapshotWire struct {
	SchemaVersion     int             `json:"schemaVersion"`
	CertificateID     string          `json:"certificateId"`
	CertificateNumber string          `json:"certificateNumber"`
	CompanyID         string          `json:"companyId"`
	Type              Type            `json:"type"`
	Revision          int             `json:"revision"`
	IssuedAt          string          `json:"issuedAt"`
	Header            Header          `json:"header"`
	Body              json.RawMessage `json:"body"`
	Attachments       []Attachment    `json:"attachments"`
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w snapshotWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("document: decode snapshot: %w", err)
	}

	body, err := DecodeContent(w.Type, w.Body)
	if err != nil {
		return err
	}

	var issuedAt time.Time
	if w.IssuedAt != "" {
		issuedAt, err = time.Parse(time.RFC3339Nano, w.IssuedAt)
		if err != nil {
			return fmt.Errorf("document: snapshot issuedAt: %w", err)
		}
	}

	*s = Snapshot{
		SchemaVersion:     w.SchemaVersion,
		CertificateID:     w.CertificateID,
		CertificateNumber: w.CertificateNumber,
		CompanyID:         w.CompanyID,
		Type:              w.Type,
		Revision:          w.Revision,
		IssuedAt:          issuedAt,
		Header:            w.Header,
		Body:              body,
		Attachments:       w.Attachments,
	}
	return nil
}

// ParseSnapshot decodes stored revision content.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Sections is the full rendering order: header first, then the typed body,
// then attachments.
func (s *Snapshot) Sections() []Section {
	var header []Row
	header = row(header, "Client", s.Header.ClientName)
	header = row(header, "Installation address", s.Header.SiteAddress)
	header = row(header, "Inspector", s.Header.InspectorName)
	header = row(header, "Registration", s.Header.InspectorRegistration)

	sections := []Section{{Heading: "Particulars", Rows: header}}
	if s.Body != nil {
		sections = append(sections, s.Body.Sections()...)
	}

	if len(s.Attachments) > 0 {
		att := Section{Heading: "Attachments"}
		for _, a := range s.Attachments {
			att.Rows = append(att.Rows, Row{Label: a.Name, Value: "sha256 " + a.Checksum})
		}
		sections = append(sections, att)
	}
	return sections
}
