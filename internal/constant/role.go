package constant

// CompanyRole is the caller's role inside the tenant named by the token.
type CompanyRole string

const (
	CompanyRoleAdmin CompanyRole = "admin"
	CompanyRoleStaff CompanyRole = "staff"
)

type CertificatePermission string

const (
	CertificateRead    CertificatePermission = "certificate:read"
	CertificateWrite   CertificatePermission = "certificate:write"
	CertificateIssue   CertificatePermission = "certificate:issue"
	CertificateVoid    CertificatePermission = "certificate:void"
	CertificateRevoke  CertificatePermission = "certificate:revoke"
	CertificateRestore CertificatePermission = "certificate:restore"
)
