package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/repository/memory"
	"github.com/polimarket/market-service/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	store    *memory.Store
	signer   *security.JWTSigner
	auth     *AuthService
	identity *IdentityService
	products *ProductService
	chats    *ChatService
	orders   *OrderService
	blobs    *fakeBlobs
}

type fakeBlobs struct {
	keys    []string
	deleted []string
	err     error
}

func (f *fakeBlobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.keys = append(f.keys, key)
	return "https://cdn.test/" + key, nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
	return nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	signer, err := security.NewJWTSigner("test-secret", "polimarket", time.Hour, 5*time.Second)
	require.NoError(t, err)

	st := memory.New()
	blobs := &fakeBlobs{}
	return &fixture{
		store:  st,
		signer: signer,
		blobs:  blobs,
		auth: NewAuthService(st.Users(), signer, AuthConfig{
			EmailDomain:    "@espol.edu.ec",
			DeliverySecret: "clod",
			Password:       security.BcryptConfig{Cost: bcrypt.MinCost, MinLength: 6},
		}),
		identity: NewIdentityService(st.Users(), signer),
		products: NewProductService(st.Products(), st.Favorites(), st.Users(), blobs),
		chats:    NewChatService(st.Chats(), st.Messages(), st.Products()),
		orders: NewOrderService(st.Orders(), st.Products(), FeeTable{
			Default:   1.0,
			ByFaculty: map[string]float64{"FIEC": 0.5},
		}),
	}
}

func (f *fixture) register(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), name, strings.ToLower(name)+"@espol.edu.ec", "secret123")
	require.NoError(t, err)
	return u
}

func (f *fixture) product(t *testing.T, sellerID int64) *domain.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), NewProduct{Title: "Calculator", Price: 12.5, SellerID: sellerID}, nil)
	require.NoError(t, err)
	return p
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.register(t, "Ana")
	assert.NotZero(t, u.ID)

	_, err := f.auth.Register(ctx, "Ana", "ANA@espol.edu.ec", "secret123")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = f.auth.Register(ctx, "Bob", "bob@gmail.com", "secret123")
	assert.ErrorIs(t, err, domain.ErrEmailDomain)

	_, err = f.auth.Register(ctx, "Bob", "bob@espol.edu.ec", "123")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)

	token, err := f.auth.Login(ctx, "ana@espol.edu.ec", "secret123")
	require.NoError(t, err)

	id, err := f.identity.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.ID)
	assert.Equal(t, "Ana", id.Name)

	_, err = f.auth.Login(ctx, "ana@espol.edu.ec", "wrong-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "nobody@espol.edu.ec", "secret123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestIdentity_Resolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, tok := range []string{"", "   ", "garbage"} {
		_, err := f.identity.Resolve(ctx, tok)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated, tok)
	}

	// valid signature, unknown user
	tok, err := f.signer.SignAccessToken(999, time.Now())
	require.NoError(t, err)
	_, err = f.identity.Resolve(ctx, tok)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	// expired
	u := f.register(t, "Ana")
	tok, err = f.signer.SignAccessToken(u.ID, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = f.identity.Resolve(ctx, tok)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuth_BecomeDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "Ana")

	_, err := f.auth.BecomeDelivery(ctx, u.ID, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidDeliveryCode)

	got, err := f.auth.BecomeDelivery(ctx, u.ID, "clod")
	require.NoError(t, err)
	assert.True(t, got.IsDelivery)

	got, err = f.auth.BecomeDelivery(ctx, u.ID, "clod")
	require.NoError(t, err)
	assert.True(t, got.IsDelivery)
}

func TestProducts_CreateWithImageAndFavorites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.register(t, "Ana")
	buyer := f.register(t, "Bob")

	p, err := f.products.Create(ctx, NewProduct{
		Title: " Notes ", Price: 3, Category: "study", SellerID: seller.ID,
	}, &Upload{Filename: "notes.PNG", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")})
	require.NoError(t, err)
	assert.Equal(t, "Notes", p.Title)
	assert.Equal(t, domain.CategoryStudy, p.Category)
	require.NotNil(t, p.ImageURL)
	require.Len(t, f.blobs.keys, 1)
	assert.True(t, strings.HasPrefix(f.blobs.keys[0], "products/"))
	assert.True(t, strings.HasSuffix(*p.ImageURL, ".png"))

	_, err = f.products.Create(ctx, NewProduct{Title: "x", Price: 1, Category: "cars", SellerID: seller.ID}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.products.Create(ctx, NewProduct{Title: "", Price: 1, SellerID: seller.ID}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, f.products.AddFavorite(ctx, buyer.ID, p.ID))
	require.NoError(t, f.products.AddFavorite(ctx, buyer.ID, p.ID))
	favs, err := f.products.Favorites(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	assert.ErrorIs(t, f.products.AddFavorite(ctx, buyer.ID, 404), domain.ErrProductNotFound)

	require.NoError(t, f.products.RemoveFavorite(ctx, buyer.ID, p.ID))
	favs, err = f.products.Favorites(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)

	_, err = f.products.BySeller(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestProducts_ImageStorageFailure(t *testing.T) {
	f := newFixture(t)
	seller := f.register(t, "Ana")
	f.blobs.err = errors.New("bucket down")

	_, err := f.products.Create(context.Background(), NewProduct{Title: "x", Price: 1, SellerID: seller.ID},
		&Upload{Filename: "a.jpg", Body: strings.NewReader("x")})
	require.Error(t, err)

	list, _, err := f.products.List(context.Background(), 10, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProducts_FailedCreateRemovesImage(t *testing.T) {
	f := newFixture(t)

	_, err := f.products.Create(context.Background(), NewProduct{Title: "x", Price: 1, SellerID: 424242},
		&Upload{Filename: "a.jpg", ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("x")})
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	require.Len(t, f.blobs.deleted, 1)
	assert.True(t, strings.HasPrefix(f.blobs.deleted[0], "products/"))
	assert.Empty(t, f.blobs.keys, "uploaded image must not outlive the failed insert")
}

func TestChats_StartReusesSaleChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.register(t, "Ana")
	buyer := f.register(t, "Bob")
	p := f.product(t, seller.ID)

	c1, err := f.chats.Start(ctx, p.ID, buyer.ID)
	require.NoError(t, err)
	c2, err := f.chats.Start(ctx, p.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)
	assert.Equal(t, seller.ID, c1.SellerID)

	_, err = f.chats.Start(ctx, p.ID, seller.ID)
	assert.ErrorIs(t, err, domain.ErrSelfChat)
	_, err = f.chats.Start(ctx, 404, buyer.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestChats_AuthorizeAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.register(t, "Ana")
	buyer := f.register(t, "Bob")
	stranger := f.register(t, "Eve")
	c, err := f.chats.Start(ctx, f.product(t, seller.ID).ID, buyer.ID)
	require.NoError(t, err)

	_, err = f.chats.Authorize(ctx, c.ID, buyer.ID)
	assert.NoError(t, err)
	_, err = f.chats.Authorize(ctx, c.ID, seller.ID)
	assert.NoError(t, err)
	_, err = f.chats.Authorize(ctx, c.ID, stranger.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.chats.Authorize(ctx, 404, buyer.ID)
	assert.ErrorIs(t, err, domain.ErrChatNotFound)

	for _, text := range []string{"hola", "  ¿sigue disponible? ", "sí"} {
		_, err := f.chats.SaveMessage(ctx, c.ID, buyer.ID, text)
		require.NoError(t, err)
	}
	_, err = f.chats.SaveMessage(ctx, c.ID, buyer.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrMalformedMessage)

	f.chats.SetMaxMessageLength(5)
	_, err = f.chats.SaveMessage(ctx, c.ID, buyer.ID, "demasiado largo")
	assert.ErrorIs(t, err, domain.ErrMessageTooLong)

	page, next, err := f.chats.History(ctx, c.ID, seller.ID, "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "hola", page[0].Text)
	assert.Equal(t, "¿sigue disponible?", page[1].Text)
	require.NotEmpty(t, next)

	page, _, err = f.chats.History(ctx, c.ID, seller.ID, next, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "sí", page[0].Text)

	_, _, err = f.chats.History(ctx, c.ID, stranger.ID, "", 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, _, err = f.chats.History(ctx, c.ID, seller.ID, "%%%", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := f.chats.My(ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "sí", *list[0].LastMessage)
}

func TestChats_ConfirmPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.register(t, "Ana")
	buyer := f.register(t, "Bob")
	c, err := f.chats.Start(ctx, f.product(t, seller.ID).ID, buyer.ID)
	require.NoError(t, err)

	_, err = f.chats.ConfirmPayment(ctx, c.ID, buyer.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.chats.ConfirmPayment(ctx, c.ID, seller.ID)
	require.NoError(t, err)
	assert.True(t, got.PaymentConfirmed)
}

func TestOrders_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.register(t, "Ana")
	buyer := f.register(t, "Bob")
	agentUser := f.register(t, "Dan")
	_, err := f.auth.BecomeDelivery(ctx, agentUser.ID, "clod")
	require.NoError(t, err)
	agentUser, err = f.auth.GetUser(ctx, agentUser.ID)
	require.NoError(t, err)
	agent := agentUser.Identity()
	p := f.product(t, seller.ID)

	assert.Equal(t, 0.5, f.orders.Fee("fiec"))
	assert.Equal(t, 1.0, f.orders.Fee("FCNM"))

	_, err = f.orders.Create(ctx, seller.ID, NewOrder{ProductID: p.ID, Faculty: "FIEC", Building: "16A", PaymentMethod: "cash"})
	assert.ErrorIs(t, err, domain.ErrSelfOrder)
	_, err = f.orders.Create(ctx, buyer.ID, NewOrder{ProductID: p.ID, Faculty: "FIEC", Building: "16A", PaymentMethod: "card"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	o, err := f.orders.Create(ctx, buyer.ID, NewOrder{ProductID: p.ID, Faculty: "FIEC", Building: "16A", Classroom: "105", PaymentMethod: "transfer"})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.Equal(t, 0.5, o.Fee)
	assert.Equal(t, seller.ID, o.SellerID)

	_, err = f.orders.Available(ctx, buyer.Identity())
	assert.ErrorIs(t, err, domain.ErrNotDeliveryStaff)
	avail, err := f.orders.Available(ctx, agent)
	require.NoError(t, err)
	assert.Len(t, avail, 1)

	_, err = f.orders.Complete(ctx, o.ID, agent)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	accepted, chat, err := f.orders.Accept(ctx, o.ID, agent)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderAccepted, accepted.Status)
	require.NotNil(t, accepted.DeliveryID)
	assert.Equal(t, agent.ID, *accepted.DeliveryID)
	assert.Equal(t, domain.ChatKindDelivery, chat.Kind)
	assert.True(t, chat.HasParticipant(buyer.ID))
	assert.True(t, chat.HasParticipant(agent.ID))

	_, err = f.chats.Authorize(ctx, chat.ID, agent.ID)
	assert.NoError(t, err)

	_, err = f.chats.ConfirmPayment(ctx, chat.ID, agent.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "delivery agents cannot confirm payment")

	_, _, err = f.orders.Accept(ctx, o.ID, agent)
	assert.ErrorIs(t, err, domain.ErrInvalidOrderStatus)
	_, err = f.orders.Reject(ctx, o.ID, seller.Identity())
	assert.ErrorIs(t, err, domain.ErrInvalidOrderStatus)

	done, err := f.orders.Complete(ctx, o.ID, agent)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCompleted, done.Status)

	mine, err := f.orders.My(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.OrderCompleted, mine[0].Status)
}

func TestOrders_Reject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.register(t, "Ana")
	buyer := f.register(t, "Bob")
	p := f.product(t, seller.ID)

	o, err := f.orders.Create(ctx, buyer.ID, NewOrder{ProductID: p.ID, Faculty: "FCNM", Building: "7", PaymentMethod: "cash"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, o.Fee)

	_, err = f.orders.Reject(ctx, o.ID, buyer.Identity())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.orders.Reject(ctx, o.ID, seller.Identity())
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRejected, got.Status)

	_, err = f.orders.Reject(ctx, 404, seller.Identity())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
