package enums

// CartOp names a cart mutation for change events and metrics.
type CartOp string

const (
	CartOpAdd    CartOp = "add"
	CartOpRemove CartOp = "remove"
	CartOpUpdate CartOp = "update"
	CartOpClear  CartOp = "clear"
)

// String implements fmt.Stringer.
func (c CartOp) String() string {
	return string(c)
}

// SessionEvent names a session state transition.
type SessionEvent string

const (
	SessionEventLogin    SessionEvent = "login"
	SessionEventLogout   SessionEvent = "logout"
	SessionEventRegister SessionEvent = "register"
)

// String implements fmt.Stringer.
func (s SessionEvent) String() string {
	return string(s)
}
