package models

// Operator is the authenticated back-office user acting on tickets and
// wallets. Operator accounts, sessions and role assignment live in the
// user-administration service; we only carry what the JWT asserts.
type Operator struct {
	ID   string
	Role string
}

const (
	OperatorRoleAgent = "agent"
	OperatorRoleAdmin = "admin"
)

func (o *Operator) IsAdmin() bool {
	return o.Role == OperatorRoleAdmin
}
