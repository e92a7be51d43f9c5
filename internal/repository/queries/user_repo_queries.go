package queries

const userColumns = `id, email, hashed_password, full_name, role, is_active, is_verified,
		subscription_tier, avatar_url, bio, created_at, updated_at, last_login`

const (
	QueryCreateUser = `
		INSERT INTO users (email, hashed_password, full_name, role, is_active, is_verified,
		                   subscription_tier, avatar_url, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id;
	`
	QueryGetUserByID = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1;
	`
	QueryGetUserByEmail = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1;
	`
	QueryExistsUserByEmail = `SELECT 1 FROM users WHERE email = $1;`
	QueryTouchLastLogin    = `
		UPDATE users
		SET last_login = $2, updated_at = $2
		WHERE id = $1;
	`
)
