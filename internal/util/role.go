package util

import (
	"slices"

	"github.com/quantract/certledger/internal/constant"
)

var rolePermissions = map[constant.CompanyRole][]constant.CertificatePermission{
	constant.CompanyRoleAdmin: {
		constant.CertificateRead,
		constant.CertificateWrite,
		constant.CertificateIssue,
		constant.CertificateVoid,
		constant.CertificateRevoke,
		constant.CertificateRestore,
	},
	constant.CompanyRoleStaff: {
		constant.CertificateRead,
		constant.CertificateWrite,
		constant.CertificateIssue,
		constant.CertificateVoid,
	},
}

// checks if all permissions are granted to the role.
func HasPermission(role constant.CompanyRole, permissions []constant.CertificatePermission) bool {
	for _, permission := range permissions {
		if !slices.Contains(rolePermissions[role], permission) {
			return false
		}
	}
	return true
}
