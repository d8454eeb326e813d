package queries

const chatColumns = `id, product_id, buyer_id, seller_id, kind, order_id, payment_confirmed, created_at`

const (
	QueryCreateChat = `
		INSERT INTO chats (product_id, buyer_id, seller_id, kind, order_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at;
	`
	QueryGetChatByID = `SELECT ` + chatColumns + ` FROM chats WHERE id = $1;`

	QueryFindSaleChat = `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE product_id = $1 AND buyer_id = $2 AND kind = 'sale';
	`
	QueryListChatsByUser = `
		SELECT c.id, c.product_id, c.buyer_id, c.seller_id, c.kind, c.order_id, c.payment_confirmed, c.created_at,
		       p.title, p.image_url, b.name, s.name,
		       (SELECT m.text FROM messages m
		        WHERE m.chat_id = c.id
		        ORDER BY m.created_at DESC, m.id DESC
		        LIMIT 1)
		FROM chats c
		JOIN products p ON p.id = c.product_id
		JOIN users b ON b.id = c.buyer_id
		JOIN users s ON s.id = c.seller_id
		WHERE c.buyer_id = $1 OR c.seller_id = $1
		ORDER BY c.created_at DESC, c.id DESC;
	`
	QueryConfirmChatPayment = `UPDATE chats SET payment_confirmed = TRUE WHERE id = $1;`

	QueryCreateMessage = `
		INSERT INTO messages (chat_id, author_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at;
	`
	QueryMessageHistory = `
		SELECT id, chat_id, author_id, text, created_at
		FROM messages
		WHERE chat_id = $1
		  AND ($2::timestamptz IS NULL
		       OR created_at > $2
		       OR (created_at = $2 AND id > $3))
		ORDER BY created_at ASC, id ASC
		LIMIT $4;
	`
)
