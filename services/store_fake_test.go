package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/models"
	"github.com/LeeRude11/delivery/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memDB is an in-memory stand-in for the Postgres schema. It mirrors the
// constraints and hooks the services rely on: partial unique contacts for
// registered users, line amount bounds and total_cost maintenance.
type memDB struct {
	mu     sync.Mutex
	users  map[uuid.UUID]models.User
	menu   map[uuid.UUID]models.MenuItem
	orders map[uuid.UUID]models.OrderInfo
	lines  []models.OrderContents
	pages  []models.InfoPage
}

func newMemStore() *memStore {
	return &memStore{db: &memDB{
		users:  map[uuid.UUID]models.User{},
		menu:   map[uuid.UUID]models.MenuItem{},
		orders: map[uuid.UUID]models.OrderInfo{},
	}}
}

type memStore struct {
	db *memDB
}

func (s *memStore) Users() repository.UserRepository   { return memUsers{s.db} }
func (s *memStore) Menu() repository.MenuRepository    { return memMenu{s.db} }
func (s *memStore) Orders() repository.OrderRepository { return memOrders{s.db} }
func (s *memStore) Info() repository.InfoRepository    { return memInfo{s.db} }

// Transaction restores a snapshot when fn fails.
func (s *memStore) Transaction(_ context.Context, fn func(tx repository.Store) error) error {
	snap := s.db.snapshot()
	if err := fn(s); err != nil {
		s.db.restore(snap)
		return err
	}
	return nil
}

func (db *memDB) snapshot() *memDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := &memDB{
		users:  map[uuid.UUID]models.User{},
		menu:   map[uuid.UUID]models.MenuItem{},
		orders: map[uuid.UUID]models.OrderInfo{},
		lines:  append([]models.OrderContents(nil), db.lines...),
		pages:  append([]models.InfoPage(nil), db.pages...),
	}
	for k, v := range db.users {
		cp.users[k] = v
	}
	for k, v := range db.menu {
		cp.menu[k] = v
	}
	for k, v := range db.orders {
		cp.orders[k] = v
	}
	return cp
}

func (db *memDB) restore(snap *memDB) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users, db.menu, db.orders = snap.users, snap.menu, snap.orders
	db.lines, db.pages = snap.lines, snap.pages
}

// helpers used by the tests

func (s *memStore) addItem(name string, price int, available, special bool) models.MenuItem {
	item := models.MenuItem{ID: uuid.New(), Name: name, Price: price, Available: available, Special: special}
	s.db.mu.Lock()
	s.db.menu[item.ID] = item
	s.db.mu.Unlock()
	return item
}

func (s *memStore) setAvailable(id uuid.UUID, available bool) {
	s.db.mu.Lock()
	item := s.db.menu[id]
	item.Available = available
	s.db.menu[id] = item
	s.db.mu.Unlock()
}

func (s *memStore) counts() (users, orders, lines int) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.users), len(s.db.orders), len(s.db.lines)
}

// users

type memUsers struct{ db *memDB }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.checkUnique(u); err != nil {
		return err
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	r.db.users[u.ID] = *u
	return nil
}

func (r memUsers) Update(_ context.Context, u *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.checkUnique(u); err != nil {
		return err
	}
	r.db.users[u.ID] = *u
	return nil
}

func (db *memDB) checkUnique(u *models.User) error {
	if u.IsGuest {
		return nil
	}
	for id, other := range db.users {
		if id == u.ID || other.IsGuest {
			continue
		}
		if other.PhoneNumber == u.PhoneNumber {
			return apperrors.ErrDuplicatePhone
		}
		if u.Email != nil && other.Email != nil && *u.Email == *other.Email {
			return apperrors.ErrDuplicateEmail
		}
	}
	return nil
}

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r memUsers) FindRegisteredByContact(_ context.Context, phone, email string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.IsGuest {
			continue
		}
		if (phone != "" && u.PhoneNumber == phone) || (email != "" && u.EmailValue() == email) {
			found := u
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memUsers) PhoneTaken(_ context.Context, phone string, exclude uuid.UUID) (bool, error) {
	return r.taken(func(u models.User) bool { return u.PhoneNumber == phone }, exclude), nil
}

func (r memUsers) EmailTaken(_ context.Context, email string, exclude uuid.UUID) (bool, error) {
	return r.taken(func(u models.User) bool { return u.EmailValue() == email }, exclude), nil
}

func (r memUsers) taken(match func(models.User) bool, exclude uuid.UUID) bool {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, u := range r.db.users {
		if id != exclude && !u.IsGuest && match(u) {
			return true
		}
	}
	return false
}

// menu

type memMenu struct{ db *memDB }

func (r memMenu) list(match func(models.MenuItem) bool) []models.MenuItem {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var items []models.MenuItem
	for _, item := range r.db.menu {
		if match(item) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

func (r memMenu) ListAvailable(context.Context) ([]models.MenuItem, error) {
	return r.list(func(i models.MenuItem) bool { return i.Available }), nil
}

func (r memMenu) ListSpecials(context.Context) ([]models.MenuItem, error) {
	return r.list(func(i models.MenuItem) bool { return i.Available && i.Special }), nil
}

func (r memMenu) FindAvailable(_ context.Context, id uuid.UUID) (*models.MenuItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	item, ok := r.db.menu[id]
	if !ok || !item.Available {
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}

func (r memMenu) FindAvailableByIDs(_ context.Context, ids []uuid.UUID) ([]models.MenuItem, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return r.list(func(i models.MenuItem) bool { return i.Available && want[i.ID] }), nil
}

func (r memMenu) FindByID(_ context.Context, id uuid.UUID) (*models.MenuItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	item, ok := r.db.menu[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}

func (r memMenu) Create(_ context.Context, item *models.MenuItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.menu {
		if other.Name == item.Name {
			return apperrors.Field("name", "Menu item with this name already exists.")
		}
	}
	item.ID = uuid.New()
	r.db.menu[item.ID] = *item
	return nil
}

func (r memMenu) Update(_ context.Context, item *models.MenuItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.menu[item.ID] = *item
	return nil
}

func (r memMenu) SetAvailability(_ context.Context, ids []uuid.UUID, available bool) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, id := range ids {
		if item, ok := r.db.menu[id]; ok {
			item.Available = available
			r.db.menu[id] = item
			n++
		}
	}
	return n, nil
}

// orders

type memOrders struct{ db *memDB }

func (r memOrders) Create(_ context.Context, o *models.OrderInfo) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o.ID = uuid.New()
	if o.Ordered.IsZero() {
		o.Ordered = time.Now()
	}
	header := *o
	header.Contents = nil
	r.db.orders[o.ID] = header
	return nil
}

func (r memOrders) AddLine(_ context.Context, line *models.OrderContents) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := models.ValidateAmount(line.Amount); err != nil {
		return err
	}
	line.ID = uuid.New()
	line.Cost = line.Amount * r.db.menu[line.MenuItemID].Price
	stored := *line
	stored.MenuItem = nil
	r.db.lines = append(r.db.lines, stored)
	r.db.recompute(line.OrderID)
	return nil
}

func (r memOrders) FindLine(_ context.Context, orderID, lineID uuid.UUID) (*models.OrderContents, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, l := range r.db.lines {
		if l.ID == lineID && l.OrderID == orderID {
			item := r.db.menu[l.MenuItemID]
			l.MenuItem = &item
			return &l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memOrders) UpdateLine(_ context.Context, line *models.OrderContents) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := models.ValidateAmount(line.Amount); err != nil {
		return err
	}
	line.Cost = line.Amount * r.db.menu[line.MenuItemID].Price
	for i, l := range r.db.lines {
		if l.ID == line.ID {
			stored := *line
			stored.MenuItem = nil
			r.db.lines[i] = stored
		}
	}
	r.db.recompute(line.OrderID)
	return nil
}

func (r memOrders) DeleteLine(_ context.Context, line *models.OrderContents) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.lines[:0]
	for _, l := range r.db.lines {
		if l.ID != line.ID {
			kept = append(kept, l)
		}
	}
	r.db.lines = kept
	r.db.recompute(line.OrderID)
	return nil
}

func (db *memDB) recompute(orderID uuid.UUID) {
	total := 0
	for _, l := range db.lines {
		if l.OrderID == orderID {
			total += l.Cost
		}
	}
	o := db.orders[orderID]
	o.TotalCost = total
	db.orders[orderID] = o
}

func (db *memDB) loadOrder(o models.OrderInfo) models.OrderInfo {
	o.Contents = nil
	for _, l := range db.lines {
		if l.OrderID == o.ID {
			item := db.menu[l.MenuItemID]
			l.MenuItem = &item
			o.Contents = append(o.Contents, l)
		}
	}
	return o
}

func (r memOrders) FindByID(_ context.Context, id uuid.UUID) (*models.OrderInfo, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	o = r.db.loadOrder(o)
	return &o, nil
}

func (r memOrders) FindForUpdate(_ context.Context, id uuid.UUID) (*models.OrderInfo, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &o, nil
}

func (r memOrders) all(match func(models.OrderInfo) bool) []models.OrderInfo {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.OrderInfo
	for _, o := range r.db.orders {
		if match(o) {
			out = append(out, r.db.loadOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordered.After(out[j].Ordered) })
	return out
}

func (r memOrders) ListByUser(_ context.Context, userID uuid.UUID) ([]models.OrderInfo, error) {
	return r.all(func(o models.OrderInfo) bool { return o.UserID == userID }), nil
}

func (r memOrders) ListAll(_ context.Context, page, limit int) ([]models.OrderInfo, int64, error) {
	out := r.all(func(models.OrderInfo) bool { return true })
	total := int64(len(out))
	start := (page - 1) * limit
	if start > len(out) {
		start = len(out)
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r memOrders) SaveProgress(_ context.Context, o *models.OrderInfo) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored := r.db.orders[o.ID]
	stored.Cooked, stored.Delivered = o.Cooked, o.Delivered
	r.db.orders[o.ID] = stored
	return nil
}

// info pages

type memInfo struct{ db *memDB }

func (r memInfo) Create(_ context.Context, p *models.InfoPage) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.pages {
		if other.ViewName == p.ViewName || other.Title == p.Title {
			return apperrors.Field("view_name", "Info page with this view name or title already exists.")
		}
	}
	p.ID = uuid.New()
	r.db.pages = append(r.db.pages, *p)
	return nil
}

func (r memInfo) List(context.Context) ([]models.InfoPage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]models.InfoPage(nil), r.db.pages...), nil
}

func (r memInfo) FindByViewName(_ context.Context, viewName string) (*models.InfoPage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.pages {
		if p.ViewName == viewName {
			found := p
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
