package model

// Principal is the authenticated caller of an operation.
// The zero value is an anonymous visitor.
type Principal struct {
	UserID uint
	Email  string
	Roles  []RoleName
}

func (p Principal) IsAuthenticated() bool {
	return p.UserID != 0
}

func (p Principal) HasRole(name RoleName) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// PrincipalFromUser builds a principal from a user with preloaded roles.
func PrincipalFromUser(u *User) Principal {
	p := Principal{UserID: u.ID, Email: u.Email}
	for _, r := range u.Roles {
		p.Roles = append(p.Roles, r.Name)
	}
	return p
}
