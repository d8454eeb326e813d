// Package memory is an in-process implementation of the repository
// contracts, used for local runs without Postgres and in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/repository"
)

type favKey struct {
	userID, productID int64
}

// Store holds every table behind one lock.
type Store struct {
	mu sync.RWMutex

	users     map[int64]domain.User
	products  map[int64]domain.Product
	favorites map[favKey]time.Time
	chats     map[int64]domain.Chat
	messages  map[int64][]domain.Message // chat id -> messages in insert order
	orders    map[int64]domain.Order

	seq map[string]int64
	now func() time.Time
}

func New() *Store {
	return &Store{
		users:     make(map[int64]domain.User),
		products:  make(map[int64]domain.Product),
		favorites: make(map[favKey]time.Time),
		chats:     make(map[int64]domain.Chat),
		messages:  make(map[int64][]domain.Message),
		orders:    make(map[int64]domain.Order),
		seq:       make(map[string]int64),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func (s *Store) Users() *UserRepo         { return &UserRepo{s: s} }
func (s *Store) Products() *ProductRepo   { return &ProductRepo{s: s} }
func (s *Store) Favorites() *FavoriteRepo { return &FavoriteRepo{s: s} }
func (s *Store) Chats() *ChatRepo         { return &ChatRepo{s: s} }
func (s *Store) Messages() *MessageRepo   { return &MessageRepo{s: s} }
func (s *Store) Orders() *OrderRepo       { return &OrderRepo{s: s} }

// ---- users ----

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u *domain.User) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, ex := range r.s.users {
		if strings.EqualFold(ex.Email, u.Email) {
			return 0, repository.ErrAlreadyExists
		}
	}
	cp := *u
	cp.ID = r.s.next("users")
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = r.s.now()
	}
	r.s.users[cp.ID] = cp

	return cp.ID, nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UserRepo) SetDelivery(_ context.Context, id int64, isDelivery bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsDelivery = isDelivery
	r.s.users[id] = u
	return nil
}

// ---- products ----

type ProductRepo struct{ s *Store }

func (r *ProductRepo) Create(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[p.SellerID]; !ok {
		return repository.ErrNotFound
	}
	p.ID = r.s.next("products")
	p.CreatedAt = r.s.now()
	r.s.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *ProductRepo) List(_ context.Context, limit int, cursor string) ([]domain.Product, string, error) {
	cur, err := repository.DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	r.s.mu.RLock()
	all := make([]domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		all = append(all, p)
	}
	r.s.mu.RUnlock()

	sortNewestFirst(all)

	out := make([]domain.Product, 0, limit)
	for _, p := range all {
		// newest first: only rows strictly older than the cursor
		if cur != nil && (cur.After(p.CreatedAt, p.ID) || (p.CreatedAt.Equal(cur.CreatedAt) && p.ID == cur.ID)) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}

	var next string
	if len(out) == limit && limit > 0 {
		last := out[len(out)-1]
		next, _ = repository.EncodeCursor(repository.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return out, next, nil
}

func (r *ProductRepo) ListBySeller(_ context.Context, sellerID int64) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Product, 0)
	for _, p := range r.s.products {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(ps []domain.Product) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].ID > ps[j].ID
		}
		return ps[i].CreatedAt.After(ps[j].CreatedAt)
	})
}

// ---- favorites ----

type FavoriteRepo struct{ s *Store }

func (r *FavoriteRepo) Add(_ context.Context, userID, productID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[productID]; !ok {
		return repository.ErrNotFound
	}
	k := favKey{userID, productID}
	if _, ok := r.s.favorites[k]; !ok {
		r.s.favorites[k] = r.s.now()
	}
	return nil
}

func (r *FavoriteRepo) Remove(_ context.Context, userID, productID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.favorites, favKey{userID, productID})
	return nil
}

func (r *FavoriteRepo) ListProducts(_ context.Context, userID int64) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Product, 0)
	for k := range r.s.favorites {
		if k.userID != userID {
			continue
		}
		if p, ok := r.s.products[k.productID]; ok {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ---- chats ----

type ChatRepo struct{ s *Store }

func (r *ChatRepo) Create(_ context.Context, c *domain.Chat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.createChatLocked(c)
}

func (s *Store) createChatLocked(c *domain.Chat) error {
	if c.Kind == "" {
		c.Kind = domain.ChatKindSale
	}
	if c.Kind == domain.ChatKindSale {
		for _, ex := range s.chats {
			if ex.Kind == domain.ChatKindSale && ex.ProductID == c.ProductID && ex.BuyerID == c.BuyerID {
				return repository.ErrAlreadyExists
			}
		}
	}
	c.ID = s.next("chats")
	c.CreatedAt = s.now()
	s.chats[c.ID] = *c
	return nil
}

func (r *ChatRepo) GetByID(_ context.Context, id int64) (*domain.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *ChatRepo) FindSale(_ context.Context, productID, buyerID int64) (*domain.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.chats {
		if c.Kind == domain.ChatKindSale && c.ProductID == productID && c.BuyerID == buyerID {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ChatRepo) ListByUser(_ context.Context, userID int64) ([]domain.ChatSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.ChatSummary, 0)
	for _, c := range r.s.chats {
		if !c.HasParticipant(userID) {
			continue
		}
		sum := domain.ChatSummary{
			Chat:       c,
			BuyerName:  r.s.users[c.BuyerID].Name,
			SellerName: r.s.users[c.SellerID].Name,
		}
		if p, ok := r.s.products[c.ProductID]; ok {
			sum.ProductTitle = p.Title
			sum.ProductImage = p.ImageURL
		}
		if msgs := r.s.messages[c.ID]; len(msgs) > 0 {
			last := msgs[len(msgs)-1].Text
			sum.LastMessage = &last
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ChatRepo) ConfirmPayment(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.chats[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.PaymentConfirmed = true
	r.s.chats[id] = c
	return nil
}

// ---- messages ----

type MessageRepo struct{ s *Store }

func (r *MessageRepo) Create(_ context.Context, m *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.chats[m.ChatID]; !ok {
		return repository.ErrNotFound
	}
	m.ID = r.s.next("messages")
	m.CreatedAt = r.s.now()
	r.s.messages[m.ChatID] = append(r.s.messages[m.ChatID], *m)
	return nil
}

func (r *MessageRepo) History(_ context.Context, chatID int64, cursor string, limit int) ([]domain.Message, string, error) {
	cur, err := repository.DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Message, 0, limit)
	for _, m := range r.s.messages[chatID] {
		if cur != nil && !cur.After(m.CreatedAt, m.ID) {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}

	var next string
	if len(out) == limit && limit > 0 {
		last := out[len(out)-1]
		next, _ = repository.EncodeCursor(repository.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return out, next, nil
}

// Count returns the number of stored messages in a chat.
func (r *MessageRepo) Count(chatID int64) int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.messages[chatID])
}

// ---- orders ----

type OrderRepo struct{ s *Store }

func (r *OrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[o.ProductID]; !ok {
		return repository.ErrNotFound
	}
	now := r.s.now()
	o.ID = r.s.next("orders")
	o.CreatedAt, o.UpdatedAt = now, now
	if o.Status == "" {
		o.Status = domain.OrderPending
	}
	r.s.orders[o.ID] = *o
	return nil
}

func (r *OrderRepo) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r *OrderRepo) ListByBuyer(_ context.Context, buyerID int64) ([]domain.Order, error) {
	return r.filter(func(o domain.Order) bool { return o.BuyerID == buyerID }), nil
}

func (r *OrderRepo) ListByStatus(_ context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return r.filter(func(o domain.Order) bool { return o.Status == status }), nil
}

func (r *OrderRepo) filter(keep func(domain.Order) bool) []domain.Order {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Order, 0)
	for _, o := range r.s.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *OrderRepo) Transition(_ context.Context, id int64, from, to domain.OrderStatus) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if o.Status != from {
		return nil, repository.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = r.s.now()
	r.s.orders[id] = o
	return &o, nil
}

func (r *OrderRepo) Accept(_ context.Context, id, deliveryID int64) (*domain.Order, *domain.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	if o.Status != domain.OrderPending {
		return nil, nil, repository.ErrConflict
	}

	orderID := o.ID
	chat := &domain.Chat{
		ProductID: o.ProductID,
		BuyerID:   o.BuyerID,
		SellerID:  deliveryID,
		Kind:      domain.ChatKindDelivery,
		OrderID:   &orderID,
	}
	if err := r.s.createChatLocked(chat); err != nil {
		return nil, nil, err
	}

	o.Status = domain.OrderAccepted
	o.DeliveryID = &deliveryID
	o.UpdatedAt = r.s.now()
	r.s.orders[id] = o
	return &o, chat, nil
}
