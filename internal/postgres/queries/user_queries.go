package queries

const (
	QueryCreateUser = `
		INSERT INTO users (name, email, password_hash, profile_image, is_delivery, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`
	QueryGetUserByID = `
		SELECT id, name, email, password_hash, profile_image, is_delivery, created_at
		FROM users
		WHERE id = $1;
	`
	QueryGetUserByEmail = `
		SELECT id, name, email, password_hash, profile_image, is_delivery, created_at
		FROM users
		WHERE lower(email) = lower($1);
	`
	QueryListUsers = `
		SELECT id, name, email, password_hash, profile_image, is_delivery, created_at
		FROM users
		ORDER BY id;
	`
	QuerySetUserDelivery = `UPDATE users SET is_delivery = $2 WHERE id = $1;`
)
