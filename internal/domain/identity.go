package domain

// Identity: проверенный автор: результат верификации токена
type Identity struct {
	UserID      UserID
	Email       string
	DisplayName string
}

func IdentityOf(u *User) Identity {
	return Identity{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName(),
	}
}
