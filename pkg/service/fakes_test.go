package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/foodhub/pkg/cart"
	"github.com/example/foodhub/pkg/coupon"
	"github.com/example/foodhub/pkg/events"
	"github.com/example/foodhub/pkg/models"
	"github.com/example/foodhub/pkg/order"
	"github.com/example/foodhub/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memCarts struct {
	mu      sync.Mutex
	carts   map[string]*cart.Cart
	saves   int
	saveErr error
}

func newMemCarts() *memCarts { return &memCarts{carts: map[string]*cart.Cart{}} }

func (m *memCarts) Get(_ context.Context, userID string) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[userID]; ok {
		return c.Clone(), nil
	}
	return cart.New(userID), nil
}

func (m *memCarts) Save(_ context.Context, c *cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(c)
}

func (m *memCarts) saveLocked(c *cart.Cart) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	stored, ok := m.carts[c.UserID]
	if ok && stored.Version != c.Version || !ok && c.Version != 0 {
		return repository.ErrConflict
	}
	c.Version++
	m.carts[c.UserID] = c.Clone()
	m.saves++
	return nil
}

func (m *memCarts) stored(userID string) *cart.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carts[userID]
}

type memCatalog struct {
	mu          sync.Mutex
	restaurants map[primitive.ObjectID]*models.Restaurant
	food        map[primitive.ObjectID]*models.FoodItem
	foodReads   int
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		restaurants: map[primitive.ObjectID]*models.Restaurant{},
		food:        map[primitive.ObjectID]*models.FoodItem{},
	}
}

func (m *memCatalog) addRestaurant(r *models.Restaurant) *models.Restaurant {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	m.restaurants[r.ID] = r
	return r
}

func (m *memCatalog) addFood(f *models.FoodItem) *models.FoodItem {
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	m.food[f.ID] = f
	return f
}

func (m *memCatalog) GetRestaurant(_ context.Context, id primitive.ObjectID) (*models.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.restaurants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memCatalog) GetFoodItem(_ context.Context, id primitive.ObjectID) (*models.FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.foodReads++
	f, ok := m.food[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memCatalog) CreateRestaurant(_ context.Context, r *models.Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addRestaurant(r)
	return nil
}

func (m *memCatalog) ListRestaurants(context.Context, models.RestaurantFilter) ([]*models.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Restaurant{}
	for _, r := range m.restaurants {
		out = append(out, r)
	}
	return out, nil
}

func (m *memCatalog) UpdateRestaurant(_ context.Context, r *models.Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.restaurants[r.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *r
	m.restaurants[r.ID] = &cp
	return nil
}

func (m *memCatalog) DeleteRestaurant(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.restaurants[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.restaurants, id)
	return nil
}

func (m *memCatalog) SetRestaurantRating(_ context.Context, id primitive.ObjectID, s models.RatingSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.restaurants[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Rating, r.TotalRatings = s.Average, s.Count
	return nil
}

func (m *memCatalog) CreateFoodItem(_ context.Context, f *models.FoodItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addFood(f)
	return nil
}

func (m *memCatalog) ListFoodItems(_ context.Context, f models.FoodFilter) ([]*models.FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.FoodItem{}
	for _, item := range m.food {
		if !f.RestaurantID.IsZero() && item.RestaurantID != f.RestaurantID {
			continue
		}
		if f.Available != nil && item.IsAvailable != *f.Available {
			continue
		}
		cp := *item
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memCatalog) UpdateFoodItem(_ context.Context, f *models.FoodItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.food[f.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *f
	m.food[f.ID] = &cp
	return nil
}

func (m *memCatalog) DeleteFoodItem(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.food[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.food, id)
	return nil
}

func (m *memCatalog) SetFoodRating(_ context.Context, id primitive.ObjectID, s models.RatingSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.food[id]
	if !ok {
		return repository.ErrNotFound
	}
	f.Rating, f.TotalRatings = s.Average, s.Count
	return nil
}

type memCoupons struct {
	mu      sync.Mutex
	coupons map[primitive.ObjectID]*coupon.Coupon
}

func newMemCoupons(cs ...*coupon.Coupon) *memCoupons {
	m := &memCoupons{coupons: map[primitive.ObjectID]*coupon.Coupon{}}
	for _, c := range cs {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		m.coupons[c.ID] = c
	}
	return m
}

func (m *memCoupons) Create(_ context.Context, c *coupon.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.coupons {
		if existing.Code == c.Code {
			return repository.ErrDuplicate
		}
	}
	c.ID = primitive.NewObjectID()
	cp := *c
	m.coupons[c.ID] = &cp
	return nil
}

func (m *memCoupons) Get(_ context.Context, id primitive.ObjectID) (*coupon.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCoupons) GetByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.coupons {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memCoupons) List(_ context.Context, active *bool) ([]*coupon.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*coupon.Coupon{}
	for _, c := range m.coupons {
		if active == nil || c.IsActive == *active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCoupons) ListAvailable(_ context.Context, now time.Time) ([]*coupon.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*coupon.Coupon{}
	for _, c := range m.coupons {
		if c.Check(now, c.MinOrderAmount) == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCoupons) Update(_ context.Context, c *coupon.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.coupons[c.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range m.coupons {
		if id != c.ID && existing.Code == c.Code {
			return repository.ErrDuplicate
		}
	}
	cp := *c
	m.coupons[c.ID] = &cp
	return nil
}

func (m *memCoupons) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.coupons[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.coupons, id)
	return nil
}

// memOrders commits an order, the coupon use and the cleared cart together,
// the way the Mongo transaction does.
type memOrders struct {
	mu       sync.Mutex
	orders   map[primitive.ObjectID]*order.Order
	carts    *memCarts
	coupons  *memCoupons
	placeErr error
	stats    *repository.OrderStats
}

func newMemOrders(carts *memCarts, coupons *memCoupons) *memOrders {
	return &memOrders{orders: map[primitive.ObjectID]*order.Order{}, carts: carts, coupons: coupons}
}

func (m *memOrders) PlaceOrder(_ context.Context, o *order.Order, cleared *cart.Cart, couponID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.placeErr != nil {
		return m.placeErr
	}

	m.carts.mu.Lock()
	defer m.carts.mu.Unlock()
	if stored, ok := m.carts.carts[cleared.UserID]; ok && stored.Version != cleared.Version {
		return repository.ErrConflict
	}

	if !couponID.IsZero() {
		m.coupons.mu.Lock()
		c := m.coupons.coupons[couponID]
		if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
			m.coupons.mu.Unlock()
			return repository.ErrCouponExhausted
		}
		c.UsedCount++
		m.coupons.mu.Unlock()
	}

	if err := m.carts.saveLocked(cleared); err != nil {
		return err
	}
	o.ID = primitive.NewObjectID()
	m.orders[o.ID] = o
	return nil
}

func (m *memOrders) Get(_ context.Context, id primitive.ObjectID) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	cp.StatusHistory = append([]order.HistoryEntry(nil), o.StatusHistory...)
	return &cp, nil
}

func (m *memOrders) SaveProgress(_ context.Context, o *order.Order, prev int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if len(stored.StatusHistory) != prev {
		return repository.ErrConflict
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrders) ListByUser(_ context.Context, userID string) ([]*order.Order, error) {
	return m.filter(func(o *order.Order) bool { return o.UserID == userID }), nil
}

func (m *memOrders) ListByDeliveryPartner(_ context.Context, partnerID string) ([]*order.Order, error) {
	return m.filter(func(o *order.Order) bool { return o.DeliveryPartnerID == partnerID }), nil
}

func (m *memOrders) List(_ context.Context, f repository.OrderFilter) ([]*order.Order, error) {
	return m.filter(func(o *order.Order) bool { return f.Status == "" || o.Status == f.Status }), nil
}

func (m *memOrders) Stats(context.Context) (*repository.OrderStats, error) {
	cp := *m.stats
	return &cp, nil
}

func (m *memOrders) filter(keep func(o *order.Order) bool) []*order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*order.Order{}
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	err     error
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (c *memCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	data, ok := c.entries[key]
	if !ok {
		return repository.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memCache) SetJSON(_ context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
	next  uint
}

func newMemUsers(us ...*models.User) *memUsers {
	m := &memUsers{users: map[string]*models.User{}}
	for _, u := range us {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) Get(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	cp.Addresses = append([]models.Address(nil), u.Addresses...)
	return &cp, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	var id string
	for _, u := range m.users {
		if u.Email == email {
			id = u.ID
		}
	}
	m.mu.Unlock()
	if id == "" {
		return nil, repository.ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *memUsers) UpdateProfile(_ context.Context, id string, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		u.Name = v.(string)
	}
	if v, ok := updates["phone"]; ok {
		u.Phone = v.(string)
	}
	if v, ok := updates["password_hash"]; ok {
		u.PasswordHash = v.(string)
	}
	return nil
}

func (m *memUsers) SetPasswordHash(ctx context.Context, id, hash string) error {
	return m.UpdateProfile(ctx, id, map[string]interface{}{"password_hash": hash})
}

func (m *memUsers) AddAddress(_ context.Context, a *models.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[a.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	if a.IsDefault {
		for i := range u.Addresses {
			u.Addresses[i].IsDefault = false
		}
	}
	m.next++
	a.ID = m.next
	u.Addresses = append(u.Addresses, *a)
	return nil
}

func (m *memUsers) UpdateAddress(_ context.Context, a *models.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[a.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range u.Addresses {
		if a.IsDefault {
			u.Addresses[i].IsDefault = false
		}
		if u.Addresses[i].ID == a.ID {
			u.Addresses[i] = *a
		}
	}
	return nil
}

func (m *memUsers) DeleteAddress(_ context.Context, userID string, addressID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, a := range u.Addresses {
		if a.ID == addressID {
			u.Addresses = append(u.Addresses[:i], u.Addresses[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memUsers) List(_ context.Context, role models.Role) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.users {
		if role == "" || u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

type memReviews struct {
	mu      sync.Mutex
	reviews map[primitive.ObjectID]*models.Review
}

func newMemReviews() *memReviews {
	return &memReviews{reviews: map[primitive.ObjectID]*models.Review{}}
}

func (m *memReviews) Create(_ context.Context, rv *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reviews {
		if existing.UserID == rv.UserID && existing.TargetType == rv.TargetType && existing.TargetID == rv.TargetID {
			return repository.ErrDuplicate
		}
	}
	rv.ID = primitive.NewObjectID()
	cp := *rv
	m.reviews[rv.ID] = &cp
	return nil
}

func (m *memReviews) Get(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rv, ok := m.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rv
	return &cp, nil
}

func (m *memReviews) List(_ context.Context, f models.ReviewFilter) ([]*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Review{}
	for _, rv := range m.reviews {
		if f.UserID != "" && rv.UserID != f.UserID {
			continue
		}
		if !f.TargetID.IsZero() && rv.TargetID != f.TargetID {
			continue
		}
		out = append(out, rv)
	}
	return out, nil
}

func (m *memReviews) Update(_ context.Context, rv *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[rv.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *rv
	m.reviews[rv.ID] = &cp
	return nil
}

func (m *memReviews) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.reviews, id)
	return nil
}

func (m *memReviews) Summary(_ context.Context, target models.ReviewTarget, id primitive.ObjectID) (models.RatingSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum, n int
	for _, rv := range m.reviews {
		if rv.TargetType == target && rv.TargetID == id {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return models.RatingSummary{}, nil
	}
	return models.RatingSummary{Average: float64(sum) / float64(n), Count: n}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (n *recordingNotifier) Notify(ev events.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) types() []events.Type {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]events.Type, len(n.events))
	for i, ev := range n.events {
		out[i] = ev.Type
	}
	return out
}

type memAudit struct {
	mu      sync.Mutex
	entries []*repository.AuditLog
	err     error
}

func (a *memAudit) CreateAuditLog(_ context.Context, log *repository.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, log)
	return nil
}

func (a *memAudit) AuditTrail(_ context.Context, service, entityID string, limit int64) ([]*repository.AuditLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := []*repository.AuditLog{}
	for _, e := range a.entries {
		if e.Service == service && e.EntityID == entityID {
			out = append(out, e)
		}
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(actor models.Actor) (string, error) {
	return "token-" + actor.ID, nil
}

func (fakeTokens) IssueRefresh(actor models.Actor) (string, error) {
	return "refresh-" + actor.ID, nil
}

func (fakeTokens) ParseRefresh(raw string) (models.Actor, error) {
	id, ok := strings.CutPrefix(raw, "refresh-")
	if !ok {
		return models.Actor{}, errors.New("bad refresh token")
	}
	return models.Actor{ID: id}, nil
}
