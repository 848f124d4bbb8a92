package apiv1

import (
	"strings"
	"sync"
	"time"

	"github.com/apiarium/apiary/storage/model"
)

// The fakes below implement the storage interfaces on plain maps, so the
// handler and gate behavior can be tested without a database.

type fakeUsers struct {
	mu        sync.Mutex
	seq       uint
	users     map[uint]*model.User
	passwords map[uint]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users:     make(map[uint]*model.User),
		passwords: make(map[uint]string),
	}
}

func (f *fakeUsers) CountAdmins() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, u := range f.users {
		if u.Role == model.RoleAdmin {
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) List() ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		c := *u
		c.PasswordHash = ""
		users = append(users, c)
	}
	return users, nil
}

// Get matches usernames case-insensitively, like MySQL's default
// collation does on the username column.
func (f *fakeUsers) Get(username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			c := *u
			return &c, nil
		}
	}
	return nil, model.NotFoundErrorFmt("user '%s' not found", username)
}

func (f *fakeUsers) GetByID(id uint) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, model.NotFoundErrorFmt("user %d not found", id)
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) Create(username, password string, role model.Role) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return nil, model.AlreadyExistsErrorFmt("user '%s' already exists", username)
		}
	}
	f.seq++
	u := &model.User{
		ID:           f.seq,
		Username:     username,
		PasswordHash: "fake:" + password,
		Role:         role,
	}
	f.users[u.ID] = u
	f.passwords[u.ID] = password
	c := *u
	return &c, nil
}

func (f *fakeUsers) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return model.NotFoundErrorFmt("user %d not found", id)
	}
	delete(f.users, id)
	delete(f.passwords, id)
	return nil
}

func (f *fakeUsers) UpdateRole(id uint, role model.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.NotFoundErrorFmt("user %d not found", id)
	}
	u.Role = role
	return nil
}

func (f *fakeUsers) SetPassword(id uint, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.NotFoundErrorFmt("user %d not found", id)
	}
	u.PasswordHash = "fake:" + password
	f.passwords[id] = password
	return nil
}

func (f *fakeUsers) SetRoleAndPassword(id uint, role model.Role, password string) error {
	if err := f.UpdateRole(id, role); err != nil {
		return err
	}
	return f.SetPassword(id, password)
}

func (f *fakeUsers) ClearCredential(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.NotFoundErrorFmt("user %d not found", id)
	}
	u.PasswordHash = ""
	delete(f.passwords, id)
	return nil
}

func (f *fakeUsers) VerifyPassword(id uint, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.NotFoundErrorFmt("user %d not found", id)
	}
	if u.PasswordHash == "" {
		return model.ErrNoCredential
	}
	if f.passwords[id] != password {
		return model.ErrBadPassword
	}
	return nil
}

func (f *fakeUsers) TouchLastLogin(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.NotFoundErrorFmt("user %d not found", id)
	}
	now := time.Now()
	u.LastLogin = &now
	return nil
}

type fakeHives struct {
	mu    sync.Mutex
	seq   uint
	hives map[uint]*model.Hive
}

func newFakeHives() *fakeHives {
	return &fakeHives{hives: make(map[uint]*model.Hive)}
}

func (f *fakeHives) Get(id uint) (*model.Hive, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hives[id]
	if !ok {
		return nil, model.NotFoundErrorFmt("hive %d not found", id)
	}
	c := *h
	return &c, nil
}

func (f *fakeHives) Create(number string, inactive bool) (*model.Hive, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	h := &model.Hive{ID: f.seq, Number: number, Inactive: inactive}
	f.hives[h.ID] = h
	c := *h
	return &c, nil
}

func (f *fakeHives) Update(id uint, number string, inactive bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hives[id]
	if !ok {
		return model.NotFoundErrorFmt("hive %d not found", id)
	}
	h.Number = number
	h.Inactive = inactive
	return nil
}

type fakeQueens struct {
	mu     sync.Mutex
	seq    uint
	queens map[uint]*model.Queen
}

func newFakeQueens() *fakeQueens {
	return &fakeQueens{queens: make(map[uint]*model.Queen)}
}

func (f *fakeQueens) Get(id uint) (*model.Queen, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queens[id]
	if !ok {
		return nil, model.NotFoundErrorFmt("queen %d not found", id)
	}
	c := *q
	return &c, nil
}

func (f *fakeQueens) ListWithPlacement() ([]model.QueenPlacement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	queens := make([]model.QueenPlacement, 0, len(f.queens))
	for _, q := range f.queens {
		queens = append(queens, model.QueenPlacement{Queen: *q})
	}
	return queens, nil
}

func (f *fakeQueens) Options() ([]model.QueenOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	options := make([]model.QueenOption, 0, len(f.queens))
	for _, q := range f.queens {
		options = append(
			options, model.QueenOption{
				ID:        q.ID,
				TagNumber: q.TagNumber,
				BirthYear: q.BirthYear,
				Marked:    q.Marked,
				Breed:     q.Breed,
			},
		)
	}
	return options, nil
}

func (f *fakeQueens) Create(q model.Queen) (*model.Queen, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	q.ID = f.seq
	f.queens[q.ID] = &q
	c := q
	return &c, nil
}

func (f *fakeQueens) Update(id uint, q model.Queen) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.queens[id]; !ok {
		return model.NotFoundErrorFmt("queen %d not found", id)
	}
	q.ID = id
	f.queens[id] = &q
	return nil
}

func (f *fakeQueens) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.queens[id]; !ok {
		return model.NotFoundErrorFmt("queen %d not found", id)
	}
	delete(f.queens, id)
	return nil
}

type fakeVisits struct {
	mu     sync.Mutex
	seq    uint
	visits map[uint]*model.Visit
}

func newFakeVisits() *fakeVisits {
	return &fakeVisits{visits: make(map[uint]*model.Visit)}
}

func (f *fakeVisits) Get(id uint) (*model.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.visits[id]
	if !ok {
		return nil, model.NotFoundErrorFmt("visit %d not found", id)
	}
	c := *v
	return &c, nil
}

func (f *fakeVisits) ListByHive(hiveID uint, limit int) ([]model.VisitDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	visits := make([]model.VisitDetail, 0)
	for _, v := range f.visits {
		if v.HiveID == hiveID && len(visits) < limit {
			visits = append(visits, model.VisitDetail{Visit: *v})
		}
	}
	return visits, nil
}

func (f *fakeVisits) LastForHive(hiveID uint) (*model.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last *model.Visit
	for _, v := range f.visits {
		if v.HiveID != hiveID {
			continue
		}
		if last == nil || v.Date > last.Date || (v.Date == last.Date && v.ID > last.ID) {
			last = v
		}
	}
	if last == nil {
		return nil, nil
	}
	c := *last
	return &c, nil
}

func (f *fakeVisits) LocationSummary() ([]model.LocationSummary, error) {
	return nil, nil
}

func (f *fakeVisits) HivesByLocation(location string) ([]model.HiveStatus, error) {
	return []model.HiveStatus{}, nil
}

func (f *fakeVisits) Create(v model.Visit) (*model.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	v.ID = f.seq
	f.visits[v.ID] = &v
	c := v
	return &c, nil
}

func (f *fakeVisits) Update(id uint, v model.Visit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.visits[id]
	if !ok {
		return model.NotFoundErrorFmt("visit %d not found", id)
	}
	v.ID = id
	v.HiveID = old.HiveID
	f.visits[id] = &v
	return nil
}

func (f *fakeVisits) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.visits[id]; !ok {
		return model.NotFoundErrorFmt("visit %d not found", id)
	}
	delete(f.visits, id)
	return nil
}

// fakeTracker counts failures in memory.
type fakeTracker struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{counts: make(map[string]int)}
}

func (f *fakeTracker) RecordFailure(username string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[username]++
	return f.counts[username]
}

func (f *fakeTracker) Clear(username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.counts, username)
	return nil
}
