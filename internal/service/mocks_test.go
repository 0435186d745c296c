package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/fjod/go_bookstore/internal/cache"
	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	userID = "65a1f0c2e4b0a1b2c3d4e5a0"
	bookA  = "65a1f0c2e4b0a1b2c3d4e5f6"
	bookB  = "65a1f0c2e4b0a1b2c3d4e5f7"
	bookC  = "65a1f0c2e4b0a1b2c3d4e5f8"
)

var buyer = domain.Identity{UserID: userID, Role: domain.RoleUser}

type mockCartRepository struct {
	m         sync.Mutex
	carts     map[string][]domain.CartItem
	err       error
	getCalls  int
	replaced  int
	casReject bool
	afterRead func()
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[string][]domain.CartItem{userID: {}}}
}

func (m *mockCartRepository) GetCart(ctx context.Context, id string) ([]domain.CartItem, error) {
	m.m.Lock()
	m.getCalls++
	if m.err != nil {
		m.m.Unlock()
		return nil, m.err
	}
	items, ok := m.carts[id]
	snapshot := append([]domain.CartItem(nil), items...)
	hook := m.afterRead
	m.m.Unlock()

	if hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return snapshot, nil
}

// blockFirstRead makes the next GetCart pause after reading until release
// is closed. read is closed once that snapshot has been taken.
func (m *mockCartRepository) blockFirstRead() (read, release chan struct{}) {
	read = make(chan struct{})
	release = make(chan struct{})
	var fired atomic.Bool
	m.m.Lock()
	m.afterRead = func() {
		if fired.CompareAndSwap(false, true) {
			close(read)
			<-release
		}
	}
	m.m.Unlock()
	return read, release
}

func (m *mockCartRepository) AddItem(_ context.Context, id, productID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	items, ok := m.carts[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			return nil
		}
	}
	m.carts[id] = append(items, domain.CartItem{ProductID: productID, Quantity: quantity})
	return nil
}

func (m *mockCartRepository) UpdateItemQuantity(_ context.Context, id, productID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	items := m.carts[id]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockCartRepository) RemoveItem(_ context.Context, id, productID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	items, ok := m.carts[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	m.carts[id] = kept
	return nil
}

func (m *mockCartRepository) ClearCart(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.carts[id]; !ok {
		return repository.ErrUserNotFound
	}
	m.carts[id] = []domain.CartItem{}
	return nil
}

func (m *mockCartRepository) ReplaceCartIfUnchanged(_ context.Context, id string, _, next []domain.CartItem) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.casReject {
		return false, nil
	}
	m.replaced++
	m.carts[id] = append([]domain.CartItem(nil), next...)
	return true, nil
}

func (m *mockCartRepository) cart(id string) []domain.CartItem {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]domain.CartItem(nil), m.carts[id]...)
}

type mockCache struct {
	m       sync.Mutex
	items   map[string][]domain.CartItem
	err     error
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{items: map[string][]domain.CartItem{}}
}

func (m *mockCache) Get(_ context.Context, id string) ([]domain.CartItem, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	items, ok := m.items[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return items, nil
}

func (m *mockCache) Set(_ context.Context, id string, items []domain.CartItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.items[id] = items
	return m.err
}

func (m *mockCache) Delete(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.deletes++
	delete(m.items, id)
	return m.err
}

func (m *mockCache) put(id string, items []domain.CartItem) {
	m.m.Lock()
	defer m.m.Unlock()
	m.items[id] = items
}

type mockCatalog struct {
	books map[string]domain.Book
	err   error
	calls int
}

func newMockCatalog(books ...domain.Book) *mockCatalog {
	c := &mockCatalog{books: map[string]domain.Book{}}
	for _, b := range books {
		c.books[b.ID.Hex()] = b
	}
	return c
}

func (m *mockCatalog) FindByIDs(_ context.Context, ids []string) ([]domain.Book, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var found []domain.Book
	for _, id := range ids {
		if b, ok := m.books[id]; ok {
			found = append(found, b)
		}
	}
	return found, nil
}

func testBook(id, title string, price float64) domain.Book {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		panic(err)
	}
	return domain.Book{ID: oid, Title: title, Author: "Author of " + title, Price: price, CoverImage: "https://img/" + id}
}

type mockUserRepository struct {
	m         sync.Mutex
	users     map[string]*domain.User
	err       error
	purchases map[string]map[string]bool
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:     map[string]*domain.User{},
		purchases: map[string]map[string]bool{},
	}
}

func (m *mockUserRepository) seed(u domain.User) *domain.User {
	m.m.Lock()
	defer m.m.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users[u.ID.Hex()] = &u
	return &u
}

func (m *mockUserRepository) CreateUser(_ context.Context, user *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	user.ID = primitive.NewObjectID()
	stored := *user
	m.users[user.ID.Hex()] = &stored
	return nil
}

func (m *mockUserRepository) GetUser(_ context.Context, id string) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) ListUsers(context.Context) ([]domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.User
	for _, u := range m.users {
		copied := *u
		copied.PasswordHash = ""
		out = append(out, copied)
	}
	return out, nil
}

func (m *mockUserRepository) SetBlocked(_ context.Context, id string, blocked bool) error {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsBlocked = blocked
	return nil
}

func (m *mockUserRepository) SetRole(_ context.Context, email string, role domain.Role) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u.Role = role
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (m *mockUserRepository) UpdateProfile(_ context.Context, id string, p domain.Profile) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.Name, u.Address, u.Phone = p.Name, p.Address, p.Phone
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) AddPurchase(_ context.Context, id, bookID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	if m.purchases[id][bookID] {
		return repository.ErrAlreadyPurchased
	}
	if m.purchases[id] == nil {
		m.purchases[id] = map[string]bool{}
	}
	m.purchases[id][bookID] = true
	return nil
}

func (m *mockUserRepository) HasPurchased(_ context.Context, id, bookID string) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.users[id]; !ok {
		return false, repository.ErrUserNotFound
	}
	return m.purchases[id][bookID], nil
}

func (m *mockUserRepository) CountUsers(context.Context) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	return int64(len(m.users)), m.err
}

type mockBookRepository struct {
	m     sync.Mutex
	books map[string]*domain.Book
	views map[string]int
	sold  map[string]int
	err   error
}

func newMockBookRepository(books ...domain.Book) *mockBookRepository {
	r := &mockBookRepository{
		books: map[string]*domain.Book{},
		views: map[string]int{},
		sold:  map[string]int{},
	}
	for i := range books {
		b := books[i]
		r.books[b.ID.Hex()] = &b
	}
	return r
}

func (m *mockBookRepository) FindByIDs(_ context.Context, ids []string) ([]domain.Book, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []domain.Book
	for _, id := range ids {
		if b, ok := m.books[id]; ok {
			out = append(out, *b)
		}
	}
	return out, m.err
}

func (m *mockBookRepository) GetBook(_ context.Context, id string) (*domain.Book, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	b, ok := m.books[id]
	if !ok {
		return nil, repository.ErrBookNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockBookRepository) ListBooks(_ context.Context, tag string) ([]domain.Book, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []domain.Book
	for _, b := range m.books {
		if tag == "" || contains(b.Tags, tag) {
			out = append(out, *b)
		}
	}
	return out, m.err
}

func (m *mockBookRepository) RankBooks(_ context.Context, by repository.RankField, limit int64) ([]domain.Book, error) {
	m.m.Lock()
	defer m.m.Unlock()
	counter := m.sold
	if by == repository.RankByViews {
		counter = m.views
	}
	out := make([]domain.Book, 0, len(m.books))
	for _, b := range m.books {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return counter[out[i].ID.Hex()] > counter[out[j].ID.Hex()]
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, m.err
}

func (m *mockBookRepository) CreateBook(_ context.Context, book *domain.Book) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	book.ID = primitive.NewObjectID()
	if book.Genre == "" {
		book.Genre = domain.DefaultGenre
	}
	copied := *book
	m.books[book.ID.Hex()] = &copied
	return nil
}

func (m *mockBookRepository) UpdateBook(_ context.Context, id string, book *domain.Book) (*domain.Book, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.books[id]; !ok {
		return nil, repository.ErrBookNotFound
	}
	updated := *book
	updated.ID, _ = primitive.ObjectIDFromHex(id)
	m.books[id] = &updated
	return &updated, nil
}

func (m *mockBookRepository) DeleteBook(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.books[id]; !ok {
		return repository.ErrBookNotFound
	}
	delete(m.books, id)
	return nil
}

func (m *mockBookRepository) IncrementViews(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.views[id]++
	return nil
}

func (m *mockBookRepository) IncrementSold(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.sold[id]++
	return nil
}

func (m *mockBookRepository) CountBooks(context.Context) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	return int64(len(m.books)), m.err
}

func (m *mockBookRepository) CountByTag(_ context.Context, tag string) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var n int64
	for _, b := range m.books {
		if contains(b.Tags, tag) {
			n++
		}
	}
	return n, m.err
}

type mockCollectionRepository struct {
	collections map[string]*domain.Collection
}

func newMockCollectionRepository(cs ...domain.Collection) *mockCollectionRepository {
	r := &mockCollectionRepository{collections: map[string]*domain.Collection{}}
	for i := range cs {
		c := cs[i]
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		r.collections[c.ID.Hex()] = &c
	}
	return r
}

func (m *mockCollectionRepository) ListCollections(context.Context) ([]domain.Collection, error) {
	var out []domain.Collection
	for _, c := range m.collections {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCollectionRepository) GetCollection(_ context.Context, id string) (*domain.Collection, error) {
	c, ok := m.collections[id]
	if !ok {
		return nil, repository.ErrCollectionNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockCollectionRepository) CreateCollection(_ context.Context, c *domain.Collection) error {
	c.ID = primitive.NewObjectID()
	copied := *c
	m.collections[c.ID.Hex()] = &copied
	return nil
}

func (m *mockCollectionRepository) UpdateCollection(_ context.Context, id string, c *domain.Collection) (*domain.Collection, error) {
	if _, ok := m.collections[id]; !ok {
		return nil, repository.ErrCollectionNotFound
	}
	updated := *c
	updated.ID, _ = primitive.ObjectIDFromHex(id)
	m.collections[id] = &updated
	return &updated, nil
}

func (m *mockCollectionRepository) DeleteCollection(_ context.Context, id string) error {
	if _, ok := m.collections[id]; !ok {
		return repository.ErrCollectionNotFound
	}
	delete(m.collections, id)
	return nil
}

func (m *mockCollectionRepository) CountCollections(context.Context) (int64, error) {
	return int64(len(m.collections)), nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
