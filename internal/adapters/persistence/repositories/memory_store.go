package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/core/services"
	"bilet-lending/internal/pkg/keylock"
)

// MemoryStore is an in-process Store. Row locks are per-entity mutexes held
// for the whole unit of work; mu only guards the maps for the duration of a
// single read or write.
//
// Isolation is read uncommitted: a unit of work writes straight into the
// shared maps and undoes its writes on rollback, so reads made outside
// Atomic (GetCopy, ListOpenLoans) can observe writes that are later rolled
// back. Decisions are only made under the row locks, which serialize writers
// on the same entity. Use GormStore where dirty reads matter.
type MemoryStore struct {
	mu    sync.RWMutex
	locks *keylock.KeyLock
	seq   map[string]uint

	users         map[uint]domain.User
	tokens        map[uint]domain.RefreshToken
	authors       map[uint]domain.Author
	genres        map[uint]domain.Genre
	groups        map[uint]domain.BookGroup
	copies        map[int64]domain.BookCopy
	loans         map[uint]domain.Loan
	requests      map[uint]domain.RenewRequest
	events        map[uint]domain.Event
	notifications map[uint]domain.Notification
}

var _ services.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locks:         keylock.New(),
		seq:           make(map[string]uint),
		users:         make(map[uint]domain.User),
		tokens:        make(map[uint]domain.RefreshToken),
		authors:       make(map[uint]domain.Author),
		genres:        make(map[uint]domain.Genre),
		groups:        make(map[uint]domain.BookGroup),
		copies:        make(map[int64]domain.BookCopy),
		loans:         make(map[uint]domain.Loan),
		requests:      make(map[uint]domain.RenewRequest),
		events:        make(map[uint]domain.Event),
		notifications: make(map[uint]domain.Notification),
	}
}

// nextID must be called with mu held
func (s *MemoryStore) nextID(table string) uint {
	s.seq[table]++
	return s.seq[table]
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ============================================================
// Unit of work
// ============================================================

type memTx struct {
	s    *MemoryStore
	held map[string]func()
	undo []func()
}

var _ services.Tx = (*memTx)(nil)

// Atomic runs fn with row locks released and, on error, writes undone when fn returns
func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx services.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	tx := &memTx{s: s, held: make(map[string]func())}
	defer tx.release()
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			panic(r)
		}
	}()

	if err = fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (t *memTx) lock(key string) {
	if _, ok := t.held[key]; ok {
		return
	}
	t.held[key] = t.s.locks.Lock(key)
}

func (t *memTx) release() {
	for key, unlock := range t.held {
		unlock()
		delete(t.held, key)
	}
}

func (t *memTx) rollback() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) LockCopy(id int64) (*domain.BookCopy, error) {
	t.lock(fmt.Sprintf("copy:%d", id))
	return t.s.GetCopy(context.Background(), id)
}

func (t *memTx) LockLoan(id uint) (*domain.Loan, error) {
	t.lock(fmt.Sprintf("loan:%d", id))
	return t.GetLoan(id)
}

func (t *memTx) LockRenewRequest(id uint) (*domain.RenewRequest, error) {
	t.lock(fmt.Sprintf("renew:%d", id))
	return t.s.GetRenewRequest(context.Background(), id)
}

func (t *memTx) LockEvent(id uint) (*domain.Event, error) {
	t.lock(fmt.Sprintf("event:%d", id))
	return t.s.GetEvent(context.Background(), id)
}

func (t *memTx) GetUser(id uint) (*domain.User, error) {
	return t.s.GetUserByID(context.Background(), id)
}

func (t *memTx) GetBookGroup(id uint) (*domain.BookGroup, error) {
	return t.s.GetBookGroup(context.Background(), id)
}

func (t *memTx) GetLoan(id uint) (*domain.Loan, error) {
	return t.s.GetLoan(context.Background(), id)
}

func (t *memTx) LatestOpenLoan(copyID int64) (*domain.Loan, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	var latest *domain.Loan
	for _, l := range t.s.loans {
		if l.CopyID != copyID || !l.IsOpen() {
			continue
		}
		if latest == nil || l.IssuedAt.After(latest.IssuedAt) ||
			(l.IssuedAt.Equal(latest.IssuedAt) && l.ID > latest.ID) {
			l := l
			latest = &l
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (t *memTx) CreateLoan(loan *domain.Loan) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if _, ok := t.s.copies[loan.CopyID]; !ok {
		return domain.ErrNotFound
	}
	loan.ID = t.s.nextID("loans")
	t.s.loans[loan.ID] = *loan
	id := loan.ID
	t.undo = append(t.undo, func() { delete(t.s.loans, id) })
	return nil
}

func (t *memTx) UpdateLoanReturn(loan *domain.Loan) error {
	return t.updateLoan(loan.ID, func(l *domain.Loan) {
		l.ReturnedAt = loan.ReturnedAt
		l.ReturnCondition = loan.ReturnCondition
		l.Status = loan.Status
	})
}

func (t *memTx) UpdateLoanRenewal(loan *domain.Loan) error {
	return t.updateLoan(loan.ID, func(l *domain.Loan) {
		l.DueAt = loan.DueAt
		l.RenewCount = loan.RenewCount
		l.Status = loan.Status
	})
}

func (t *memTx) updateLoan(id uint, apply func(l *domain.Loan)) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	prev, ok := t.s.loans[id]
	if !ok {
		return domain.ErrNotFound
	}
	next := prev
	apply(&next)
	t.s.loans[id] = next
	t.undo = append(t.undo, func() { t.s.loans[id] = prev })
	return nil
}

func (t *memTx) UpdateCopyStatus(id int64, status domain.CopyStatus) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	prev, ok := t.s.copies[id]
	if !ok {
		return domain.ErrNotFound
	}
	next := prev
	next.Status = status
	t.s.copies[id] = next
	t.undo = append(t.undo, func() { t.s.copies[id] = prev })
	return nil
}

func (t *memTx) CreateRenewRequest(req *domain.RenewRequest) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if _, ok := t.s.loans[req.LoanID]; !ok {
		return domain.ErrNotFound
	}
	req.ID = t.s.nextID("renew_requests")
	t.s.requests[req.ID] = *req
	id := req.ID
	t.undo = append(t.undo, func() { delete(t.s.requests, id) })
	return nil
}

func (t *memTx) UpdateRenewRequestStatus(id uint, status domain.RenewStatus) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	prev, ok := t.s.requests[id]
	if !ok {
		return domain.ErrNotFound
	}
	next := prev
	next.Status = status
	t.s.requests[id] = next
	t.undo = append(t.undo, func() { t.s.requests[id] = prev })
	return nil
}

func (t *memTx) IsParticipant(eventID, userID uint) (bool, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	e, ok := t.s.events[eventID]
	if !ok {
		return false, domain.ErrNotFound
	}
	return e.Participants.Contains(userID), nil
}

func (t *memTx) CountParticipants(eventID uint) (int, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	e, ok := t.s.events[eventID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return e.Participants.Len(), nil
}

func (t *memTx) AddParticipant(eventID, userID uint) error {
	return t.updateParticipants(eventID, func(set domain.IDSet) { set.Add(userID) })
}

func (t *memTx) RemoveParticipant(eventID, userID uint) error {
	return t.updateParticipants(eventID, func(set domain.IDSet) { set.Remove(userID) })
}

func (t *memTx) updateParticipants(eventID uint, apply func(set domain.IDSet)) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	prev, ok := t.s.events[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	next := prev
	next.Participants = prev.Participants.Clone()
	apply(next.Participants)
	t.s.events[eventID] = next
	t.undo = append(t.undo, func() { t.s.events[eventID] = prev })
	return nil
}

// ============================================================
// Users
// ============================================================

func (s *MemoryStore) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username || u.TicketNumber == user.TicketNumber || u.ContractNumber == user.ContractNumber {
			return domain.ErrDuplicateEntry
		}
		if user.Phone != nil && u.Phone != nil && *u.Phone == *user.Phone {
			return domain.ErrDuplicateEntry
		}
	}
	user.ID = s.nextID("users")
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id uint) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *MemoryStore) ListUsers(ctx context.Context, offset, limit int) ([]*domain.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		u := u
		all = append(all, &u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, offset, limit), int64(len(all)), nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// ============================================================
// Catalog
// ============================================================

func (s *MemoryStore) CreateAuthor(ctx context.Context, a *domain.Author) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.nextID("authors")
	s.authors[a.ID] = *a
	return nil
}

func (s *MemoryStore) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Author, 0, len(s.authors))
	for _, a := range s.authors {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateGenre(ctx context.Context, g *domain.Genre) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g.ID = s.nextID("genres")
	s.genres[g.ID] = *g
	return nil
}

func (s *MemoryStore) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Genre, 0, len(s.genres))
	for _, g := range s.genres {
		g := g
		out = append(out, &g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateBookGroup(ctx context.Context, g *domain.BookGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ISBN != nil {
		for _, existing := range s.groups {
			if existing.ISBN != nil && *existing.ISBN == *g.ISBN {
				return domain.ErrDuplicateEntry
			}
		}
	}
	for id := range g.AuthorIDs {
		if _, ok := s.authors[id]; !ok {
			return fmt.Errorf("%w: author %d", domain.ErrNotFound, id)
		}
	}
	for id := range g.GenreIDs {
		if _, ok := s.genres[id]; !ok {
			return fmt.Errorf("%w: genre %d", domain.ErrNotFound, id)
		}
	}

	g.ID = s.nextID("book_groups")
	stored := *g
	stored.AuthorIDs = g.AuthorIDs.Clone()
	stored.GenreIDs = g.GenreIDs.Clone()
	s.groups[g.ID] = stored
	return nil
}

func (s *MemoryStore) GetBookGroup(ctx context.Context, id uint) (*domain.BookGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	g.AuthorIDs = g.AuthorIDs.Clone()
	g.GenreIDs = g.GenreIDs.Clone()
	return &g, nil
}

func (s *MemoryStore) ListBookGroups(ctx context.Context, offset, limit int) ([]*domain.BookGroup, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.BookGroup, 0, len(s.groups))
	for _, g := range s.groups {
		g := g
		g.AuthorIDs = g.AuthorIDs.Clone()
		g.GenreIDs = g.GenreIDs.Clone()
		all = append(all, &g)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, offset, limit), int64(len(all)), nil
}

func (s *MemoryStore) CreateCopy(ctx context.Context, c *domain.BookCopy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[c.BookGroupID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := s.copies[c.ID]; ok {
		return domain.ErrDuplicateEntry
	}
	s.copies[c.ID] = *c
	return nil
}

func (s *MemoryStore) GetCopy(ctx context.Context, id int64) (*domain.BookCopy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.copies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) ListCopies(ctx context.Context, bookGroupID uint) ([]*domain.BookCopy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.BookCopy, 0)
	for _, c := range s.copies {
		if c.BookGroupID == bookGroupID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpdateCopyCondition(ctx context.Context, id int64, condition string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.copies[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Condition = condition
	s.copies[id] = c
	return nil
}

// ============================================================
// Inventory
// ============================================================

func (s *MemoryStore) CountCopies(ctx context.Context, bookGroupID uint, status domain.CopyStatus) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, c := range s.copies {
		if c.BookGroupID == bookGroupID && (status == "" || c.Status == status) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) TopBookGroupsByLoans(ctx context.Context, limit int) ([]domain.BookIssueCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issues := make(map[uint]int64, len(s.groups))
	for _, l := range s.loans {
		if c, ok := s.copies[l.CopyID]; ok {
			issues[c.BookGroupID]++
		}
	}

	out := make([]domain.BookIssueCount, 0, len(s.groups))
	for id, g := range s.groups {
		out = append(out, domain.BookIssueCount{BookGroupID: id, Title: g.Title, Issues: issues[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Issues != out[j].Issues {
			return out[i].Issues > out[j].Issues
		}
		return out[i].BookGroupID < out[j].BookGroupID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ============================================================
// Loans & renew requests
// ============================================================

func (s *MemoryStore) GetLoan(ctx context.Context, id uint) (*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.loans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

func (s *MemoryStore) ListLoansByReader(ctx context.Context, readerID uint, returned bool) ([]*domain.Loan, error) {
	return s.filterLoans(func(l *domain.Loan) bool {
		return l.ReaderID == readerID && (l.ReturnedAt != nil) == returned
	}), nil
}

func (s *MemoryStore) ListOpenLoans(ctx context.Context) ([]*domain.Loan, error) {
	return s.filterLoans(func(l *domain.Loan) bool { return l.IsOpen() }), nil
}

func (s *MemoryStore) ListOpenLoansDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Loan, error) {
	return s.filterLoans(func(l *domain.Loan) bool {
		return l.IsOpen() && !l.DueAt.Before(from) && l.DueAt.Before(to)
	}), nil
}

func (s *MemoryStore) filterLoans(keep func(l *domain.Loan) bool) []*domain.Loan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Loan, 0)
	for _, l := range s.loans {
		l := l
		if keep(&l) {
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].IssuedAt.After(out[j].IssuedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// UpdateLoanStatus only touches loans that are still open
func (s *MemoryStore) UpdateLoanStatus(ctx context.Context, id uint, status domain.LoanStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.loans[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !l.IsOpen() {
		return nil
	}
	l.Status = status
	s.loans[id] = l
	return nil
}

func (s *MemoryStore) GetRenewRequest(ctx context.Context, id uint) (*domain.RenewRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) ListRenewRequests(ctx context.Context, status domain.RenewStatus) ([]*domain.RenewRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.RenewRequest, 0)
	for _, r := range s.requests {
		if status == "" || r.Status == status {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ============================================================
// Events
// ============================================================

func (s *MemoryStore) CreateEvent(ctx context.Context, e *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.nextID("events")
	stored := *e
	if stored.Participants == nil {
		stored.Participants = domain.NewIDSet()
	} else {
		stored.Participants = e.Participants.Clone()
	}
	s.events[e.ID] = stored
	return nil
}

func (s *MemoryStore) GetEvent(ctx context.Context, id uint) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.Participants = e.Participants.Clone()
	return &e, nil
}

func (s *MemoryStore) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Event, 0, len(s.events))
	for _, e := range s.events {
		e := e
		e.Participants = e.Participants.Clone()
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ============================================================
// Refresh tokens
// ============================================================

func (s *MemoryStore) CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tokens {
		if t.TokenHash == token.TokenHash {
			return domain.ErrDuplicateEntry
		}
	}
	token.ID = s.nextID("refresh_tokens")
	s.tokens[token.ID] = *token
	return nil
}

func (s *MemoryStore) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tokens {
		if t.TokenHash == tokenHash {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *MemoryStore) RevokeRefreshToken(ctx context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[id]
	if !ok || t.IsRevoked() {
		return domain.ErrNotFound
	}
	t.RevokedAt = &at
	s.tokens[id] = t
	return nil
}

func (s *MemoryStore) RevokeUserRefreshTokens(ctx context.Context, userID uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.tokens {
		if t.UserID == userID && !t.IsRevoked() {
			t.RevokedAt = &at
			s.tokens[id] = t
		}
	}
	return nil
}

func (s *MemoryStore) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, t := range s.tokens {
		if t.ExpiresAt.Before(before) {
			delete(s.tokens, id)
			n++
		}
	}
	return n, nil
}

// ============================================================
// Notifications
// ============================================================

func (s *MemoryStore) CreateNotification(ctx context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = s.nextID("notifications")
	s.notifications[n.ID] = *n
	return nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, userID uint) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID == userID {
			n := n
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *MemoryStore) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return domain.ErrNotFound
	}
	n.Read = true
	s.notifications[id] = n
	return nil
}

// page slices all by offset/limit; limit <= 0 means no limit
func page[T any](all []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
