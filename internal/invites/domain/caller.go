package domain

// Caller is the authenticated identity an operation runs on behalf of. It is
// built once at the request boundary and handed to the service explicitly.
type Caller struct {
	UserID string
	Email  string
	Role   Role
}

// CallerFromClaims builds a Caller from the token's subject, email and the
// raw dashboard role. Anything we don't recognise is a customer, which can't
// do anything here.
func CallerFromClaims(userID, email, role string) Caller {
	r, err := ParseRole(role)
	if err != nil {
		r = RoleCustomer
	}
	return Caller{UserID: userID, Email: email, Role: r}
}
