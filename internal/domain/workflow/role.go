package workflow

// Role identifies the actor attempting a transition
type Role string

const (
	RoleOrderManager Role = "ORDER_MANAGER"
	RoleStockManager Role = "STOCK_MANAGER"
	RoleAccountant   Role = "ACCOUNTANT"
	RoleManager      Role = "MANAGER"
	RoleCEO          Role = "CEO"
	RoleAdmin        Role = "ADMIN"
)

var validRoles = map[Role]bool{
	RoleOrderManager: true,
	RoleStockManager: true,
	RoleAccountant:   true,
	RoleManager:      true,
	RoleCEO:          true,
	RoleAdmin:        true,
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is a known portal role
func (r Role) IsValid() bool {
	return validRoles[r]
}
