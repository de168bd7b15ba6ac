package entities

import "strconv"

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

// OwnerID is the record identity carts and orders are kept under
func (u User) OwnerID() string {
	return strconv.Itoa(u.ID)
}
