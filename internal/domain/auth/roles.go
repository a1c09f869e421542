package auth

// Role is a coarse access level.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// Permission codes checked by the HTTP layer.
const (
	PermCatalogRead    = "catalog:read"
	PermCatalogWrite   = "catalog:write"
	PermInvoiceRead    = "invoice:read"
	PermInvoiceCreate  = "invoice:create"
	PermInvoiceStatus  = "invoice:status"
	PermTailoringRead  = "tailoring:read"
	PermTailoringWrite = "tailoring:write"
	PermReportsRead    = "reports:read"
	PermCountersManage = "counters:manage"
	PermUsersManage    = "users:manage"
)

var rolePermissions = map[Role][]string{
	RoleManager: {
		PermCatalogRead, PermCatalogWrite,
		PermInvoiceRead, PermInvoiceCreate, PermInvoiceStatus,
		PermTailoringRead, PermTailoringWrite,
		PermReportsRead,
	},
	RoleStaff: {
		PermCatalogRead,
		PermInvoiceRead, PermInvoiceCreate,
		PermTailoringRead, PermTailoringWrite,
	},
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleStaff
}

// IsAdmin reports whether r bypasses permission checks.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Permissions returns the permission codes granted to r.
// Admins get every permission.
func (r Role) Permissions() []string {
	if r == RoleAdmin {
		return []string{
			PermCatalogRead, PermCatalogWrite,
			PermInvoiceRead, PermInvoiceCreate, PermInvoiceStatus,
			PermTailoringRead, PermTailoringWrite,
			PermReportsRead, PermCountersManage, PermUsersManage,
		}
	}
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
