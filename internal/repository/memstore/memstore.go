// Package memstore is an in-memory implementation of the repository
// interfaces. Each Store owns its maps and id counters, so tests get isolated
// instances and DB_DRIVER=memory gets a process-local one.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"foodshare/internal/models"
	"foodshare/internal/repository"
)

type db struct {
	mu     sync.RWMutex
	closed bool
	now    func() time.Time

	users        map[uint]models.User
	listings     map[uint]models.FoodListing
	messages     map[uint]models.Message
	transactions map[uint]models.Transaction
	reviews      map[uint]models.Review

	nextUser, nextListing, nextMessage, nextTransaction, nextReview uint
}

// Option configures a memory store.
type Option func(*db)

// WithClock overrides the creation-time source.
func WithClock(now func() time.Time) Option {
	return func(d *db) { d.now = now }
}

// New returns an empty in-memory Store.
func New(opts ...Option) *repository.Store {
	d := &db{
		now:          time.Now,
		users:        map[uint]models.User{},
		listings:     map[uint]models.FoodListing{},
		messages:     map[uint]models.Message{},
		transactions: map[uint]models.Transaction{},
		reviews:      map[uint]models.Review{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return repository.NewStore(
		&userRepo{d}, &listingRepo{d}, &messageRepo{d}, &transactionRepo{d}, &reviewRepo{d}, d,
	)
}

func (d *db) Ping(context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return repository.ErrStoreClosed
	}
	return nil
}

func (d *db) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// check reports store-level failures the way a relational backend would.
// Callers hold d.mu.
func (d *db) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return models.NewInternalError(err)
	}
	if d.closed {
		return models.NewInternalError(repository.ErrStoreClosed)
	}
	return nil
}

func (d *db) stamp() time.Time {
	return d.now().UTC()
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUser(u models.User) models.User {
	u.Latitude = cloneFloat(u.Latitude)
	u.Longitude = cloneFloat(u.Longitude)
	u.Bio = cloneString(u.Bio)
	u.Avatar = cloneString(u.Avatar)
	return u
}

func cloneListing(l models.FoodListing) models.FoodListing {
	if l.ImageURLs != nil {
		l.ImageURLs = append([]string(nil), l.ImageURLs...)
	}
	l.Price = cloneFloat(l.Price)
	l.PortionSize = cloneString(l.PortionSize)
	l.Ingredients = cloneString(l.Ingredients)
	l.Allergens = cloneString(l.Allergens)
	l.Latitude = cloneFloat(l.Latitude)
	l.Longitude = cloneFloat(l.Longitude)
	l.IsExpired = false
	return l
}

func cloneReview(r models.Review) models.Review {
	r.Comment = cloneString(r.Comment)
	return r
}

// newestFirst orders by creation time descending, then id descending.
func newestFirst(ai, bi uint, at, bt time.Time) bool {
	if at.Equal(bt) {
		return ai > bi
	}
	return at.After(bt)
}

type userRepo struct{ *db }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx); err != nil {
		return err
	}

	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return models.NewValidationError("Username or email already taken")
		}
	}

	r.nextUser++
	user.ID = r.nextUser
	user.CreatedAt = r.stamp()
	r.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	u, ok := r.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	out := cloneUser(u)
	return &out, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, func(u models.User) bool { return u.Username == username })
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, func(u models.User) bool { return u.Email == email })
}

func (r *userRepo) findOne(ctx context.Context, match func(models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	for _, u := range r.users {
		if match(u) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *userRepo) Update(ctx context.Context, id uint, patch models.UserPatch) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	u, ok := r.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	if patch.Email != nil {
		for otherID, other := range r.users {
			if otherID != id && other.Email == *patch.Email {
				return nil, models.NewValidationError("Email already taken")
			}
		}
	}

	patch.Apply(&u)
	r.users[id] = cloneUser(u)
	out := cloneUser(u)
	return &out, nil
}

func (r *userRepo) Delete(ctx context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx); err != nil {
		return false, err
	}

	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

func (r *userRepo) List(ctx context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type listingRepo struct{ *db }

func (r *listingRepo) Create(ctx context.Context, listing *models.FoodListing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx); err != nil {
		return err
	}

	r.nextListing++
	listing.ID = r.nextListing
	listing.CreatedAt = r.stamp()
	listing.IsAvailable = true
	listing.NormalizePrice()
	r.listings[listing.ID] = cloneListing(*listing)
	return nil
}

func (r *listingRepo) GetByID(ctx context.Context, id uint) (*models.FoodListing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	l, ok := r.listings[id]
	if !ok {
		return nil, models.NewNotFoundError("Listing", id)
	}
	out := cloneListing(l)
	return &out, nil
}

func (r *listingRepo) List(ctx context.Context, filter models.ListingFilter) ([]models.FoodListing, error) {
	return r.collect(ctx, func(l models.FoodListing) bool { return filter.Matches(&l) })
}

func (r *listingRepo) ListByOwner(ctx context.Context, userID uint) ([]models.FoodListing, error) {
	return r.collect(ctx, func(l models.FoodListing) bool { return l.UserID == userID })
}

func (r *listingRepo) collect(ctx context.Context, keep func(models.FoodListing) bool) ([]models.FoodListing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	out := make([]models.FoodListing, 0)
	for _, l := range r.listings {
		if keep(l) {
			out = append(out, cloneListing(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out, nil
}

func (r *listingRepo) Update(ctx context.Context, id uint, patch models.ListingPatch) (*models.FoodListing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	l, ok := r.listings[id]
	if !ok {
		return nil, models.NewNotFoundError("Listing", id)
	}
	patch.Apply(&l)
	r.listings[id] = cloneListing(l)
	out := cloneListing(l)
	return &out, nil
}

func (r *listingRepo) Delete(ctx context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx); err != nil {
		return false, err
	}

	if _, ok := r.listings[id]; !ok {
		return false, nil
	}
	delete(r.listings, id)
	return true, nil
}

func (r *listingRepo) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.FoodListing, error) {
	candidates, err := r.collect(ctx, func(l models.FoodListing) bool {
		return l.IsAvailable && l.HasCoordinates()
	})
	if err != nil {
		return nil, err
	}
	return repository.FilterNearby(candidates, lat, lng, radiusKm), nil
}

type messageRepo struct{ *db }

func (r *messageRepo) Create(ctx context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx); err != nil {
		return err
	}

	r.nextMessage++
	msg.ID = r.nextMessage
	msg.CreatedAt = r.stamp()
	msg.IsRead = false
	r.messages[msg.ID] = *msg
	return nil
}

func (r *messageRepo) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	m, ok := r.messages[id]
	if !ok {
		return nil, models.NewNotFoundError("Message", id)
	}
	return &m, nil
}

func (r *messageRepo) ListForUser(ctx context.Context, userID uint) ([]models.Message, error) {
	out, err := r.collect(ctx, func(m models.Message) bool { return m.Involves(userID) })
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out, nil
}

func (r *messageRepo) Conversation(ctx context.Context, a, b uint) ([]models.Message, error) {
	out, err := r.collect(ctx, func(m models.Message) bool { return m.Between(a, b) })
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *messageRepo) collect(ctx context.Context, keep func(models.Message) bool) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	out := make([]models.Message, 0)
	for _, m := range r.messages {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *messageRepo) MarkRead(ctx context.Context, id uint) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	m, ok := r.messages[id]
	if !ok {
		return nil, models.NewNotFoundError("Message", id)
	}
	m.IsRead = true
	r.messages[id] = m
	return &m, nil
}

type transactionRepo struct{ *db }

func (r *transactionRepo) Create(ctx context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx); err != nil {
		return err
	}

	if tx.Status == "" {
		tx.Status = models.TransactionStatusPending
	}
	r.nextTransaction++
	tx.ID = r.nextTransaction
	tx.CreatedAt = r.stamp()
	r.transactions[tx.ID] = *tx
	return nil
}

func (r *transactionRepo) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	tx, ok := r.transactions[id]
	if !ok {
		return nil, models.NewNotFoundError("Transaction", id)
	}
	return &tx, nil
}

func (r *transactionRepo) ListForUser(ctx context.Context, userID uint) ([]models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	out := make([]models.Transaction, 0)
	for _, tx := range r.transactions {
		if tx.IsParticipant(userID) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out, nil
}

func (r *transactionRepo) Update(ctx context.Context, id uint, patch models.TransactionPatch) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	tx, ok := r.transactions[id]
	if !ok {
		return nil, models.NewNotFoundError("Transaction", id)
	}
	patch.Apply(&tx)
	r.transactions[id] = tx
	return &tx, nil
}

type reviewRepo struct{ *db }

func (r *reviewRepo) Create(ctx context.Context, review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx); err != nil {
		return err
	}

	r.nextReview++
	review.ID = r.nextReview
	review.CreatedAt = r.stamp()
	r.reviews[review.ID] = cloneReview(*review)
	return nil
}

func (r *reviewRepo) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	rv, ok := r.reviews[id]
	if !ok {
		return nil, models.NewNotFoundError("Review", id)
	}
	out := cloneReview(rv)
	return &out, nil
}

func (r *reviewRepo) ListByReceiver(ctx context.Context, userID uint) ([]models.Review, error) {
	return r.collect(ctx, func(rv models.Review) bool { return rv.ReceiverID == userID })
}

func (r *reviewRepo) ListByListing(ctx context.Context, listingID uint) ([]models.Review, error) {
	return r.collect(ctx, func(rv models.Review) bool { return rv.ListingID == listingID })
}

func (r *reviewRepo) collect(ctx context.Context, keep func(models.Review) bool) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	out := make([]models.Review, 0)
	for _, rv := range r.reviews {
		if keep(rv) {
			out = append(out, cloneReview(rv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out, nil
}
