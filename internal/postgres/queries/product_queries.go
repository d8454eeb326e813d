package queries

const productColumns = `id, title, description, price, category, image_url, seller_id, created_at`

const (
	QueryCreateProduct = `
		INSERT INTO products (title, description, price, category, image_url, seller_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at;
	`
	QueryGetProductByID = `SELECT ` + productColumns + ` FROM products WHERE id = $1;`

	QueryListProducts = `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1::timestamptz IS NULL
		       OR created_at < $1
		       OR (created_at = $1 AND id < $2))
		ORDER BY created_at DESC, id DESC
		LIMIT $3;
	`
	QueryListProductsBySeller = `
		SELECT ` + productColumns + `
		FROM products
		WHERE seller_id = $1
		ORDER BY created_at DESC, id DESC;
	`

	QueryAddFavorite = `
		INSERT INTO favorites (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING;
	`
	QueryRemoveFavorite = `DELETE FROM favorites WHERE user_id = $1 AND product_id = $2;`

	QueryListFavoriteProducts = `
		SELECT p.id, p.title, p.description, p.price, p.category, p.image_url, p.seller_id, p.created_at
		FROM favorites f
		JOIN products p ON p.id = f.product_id
		WHERE f.user_id = $1
		ORDER BY p.created_at DESC, p.id DESC;
	`
)
