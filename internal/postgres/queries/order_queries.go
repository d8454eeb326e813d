package queries

const orderColumns = `id, buyer_id, product_id, seller_id, delivery_id, faculty, building, classroom,
	payment_method, fee, status, created_at, updated_at`

const (
	QueryCreateOrder = `
		INSERT INTO orders (buyer_id, product_id, seller_id, faculty, building, classroom, payment_method, fee, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at;
	`
	QueryGetOrderByID = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1;`

	QueryListOrdersByBuyer = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE buyer_id = $1
		ORDER BY id DESC;
	`
	QueryListOrdersByStatus = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1
		ORDER BY id DESC;
	`
	// Compare-and-set on status; zero rows means the order moved on.
	QueryTransitionOrder = `
		UPDATE orders
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + orderColumns + `;
	`
	QueryAcceptOrder = `
		UPDATE orders
		SET status = 'accepted', delivery_id = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + orderColumns + `;
	`
	QueryOrderExists = `SELECT 1 FROM orders WHERE id = $1;`
)
