package model

// Role codes
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// Privilege codes checked by middleware.RequirePrivilege.
const (
	PrivSaleView      = "sale:view"
	PrivSaleCreate    = "sale:create"
	PrivSaleUpdate    = "sale:update"
	PrivSaleDelete    = "sale:delete"
	PrivProductView   = "product:view"
	PrivProductCreate = "product:create"
	PrivProductUpdate = "product:update"
)

var rolePrivileges = map[string][]string{
	RoleAdmin: {
		PrivSaleView, PrivSaleCreate, PrivSaleUpdate, PrivSaleDelete,
		PrivProductView, PrivProductCreate, PrivProductUpdate,
	},
	// Cashiers ring up sales but cannot rewrite or void them.
	RoleCashier: {
		PrivSaleView, PrivSaleCreate, PrivProductView,
	},
}

// PrivilegesFor returns the privilege codes granted to a role.
func PrivilegesFor(role string) []string {
	privs := rolePrivileges[role]
	out := make([]string, len(privs))
	copy(out, privs)
	return out
}

func IsValidRole(role string) bool {
	_, ok := rolePrivileges[role]
	return ok
}
