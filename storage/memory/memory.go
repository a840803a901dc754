// Package memory is an in-process storage.IStorage used by tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"rentalhub/pkg/models"
	"rentalhub/storage"
)

type favoriteKey struct {
	identityID string
	listingID  string
}

type state struct {
	identities    map[string]*models.Identity
	profiles      map[string]*models.RenterProfile
	listings      map[string]*models.Listing
	notifications map[string]*models.Notification
	favorites     map[favoriteKey]*models.Favorite
}

func newState() *state {
	return &state{
		identities:    map[string]*models.Identity{},
		profiles:      map[string]*models.RenterProfile{},
		listings:      map[string]*models.Listing{},
		notifications: map[string]*models.Notification{},
		favorites:     map[favoriteKey]*models.Favorite{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.identities {
		c.identities[k] = copyIdentity(v)
	}
	for k, v := range s.profiles {
		c.profiles[k] = copyProfile(v)
	}
	for k, v := range s.listings {
		l := *v
		c.listings[k] = &l
	}
	for k, v := range s.notifications {
		n := *v
		c.notifications[k] = &n
	}
	for k, v := range s.favorites {
		f := *v
		c.favorites[k] = &f
	}
	return c
}

type Store struct {
	mu    *sync.Mutex
	// gate is held exclusively by a transaction and shared by calls made
	// outside one, so a rollback never discards someone else's write.
	gate  *sync.RWMutex
	data  **state
	inTx  bool
	now   func() time.Time
	seq   *int64
	fails map[string]error
}

func New() *Store {
	data := newState()
	var seq int64
	return &Store{
		mu:    &sync.Mutex{},
		gate:  &sync.RWMutex{},
		data:  &data,
		now:   time.Now,
		seq:   &seq,
		fails: map[string]error{},
	}
}

// FailNext makes the next call of op ("Profile.SetLicenseVerified" and so on)
// return err without touching state.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[op] = err
}

func (s *Store) Close() {}

// WithTx runs fn with exclusive access and restores the pre-transaction
// snapshot when fn fails. fn must only use the tx it is given; calling the
// outer store from inside fn blocks.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.IStorage) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	s.gate.Lock()
	defer s.gate.Unlock()

	s.mu.Lock()
	snapshot := (*s.data).clone()
	s.mu.Unlock()

	restore := func() {
		s.mu.Lock()
		*s.data = snapshot
		s.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
		if err != nil {
			restore()
		}
	}()

	tx := *s
	tx.inTx = true
	err = fn(&tx)
	return err
}

func (s *Store) Identity() storage.IIdentityStorage         { return identityRepo{s} }
func (s *Store) Profile() storage.IProfileStorage           { return profileRepo{s} }
func (s *Store) Listing() storage.IListingStorage           { return listingRepo{s} }
func (s *Store) Notification() storage.INotificationStorage { return notificationRepo{s} }
func (s *Store) Favorite() storage.IFavoriteStorage         { return favoriteRepo{s} }

// enter acquires the store for one call unless a failure was injected for op.
// Every successful enter is paired with leave.
func (s *Store) enter(op string) error {
	if !s.inTx {
		s.gate.RLock()
	}
	s.mu.Lock()
	if err, ok := s.fails[op]; ok {
		delete(s.fails, op)
		s.leave()
		return err
	}
	return nil
}

func (s *Store) leave() {
	s.mu.Unlock()
	if !s.inTx {
		s.gate.RUnlock()
	}
}

func (s *Store) state() *state {
	return *s.data
}

// tick returns a strictly increasing timestamp so ordering by creation is stable.
func (s *Store) tick() time.Time {
	*s.seq++
	return s.now().Add(time.Duration(*s.seq) * time.Nanosecond)
}

func copyIdentity(in *models.Identity) *models.Identity {
	out := *in
	if in.PendingOTP != nil {
		otp := *in.PendingOTP
		out.PendingOTP = &otp
	}
	return &out
}

func copyProfile(in *models.RenterProfile) *models.RenterProfile {
	out := *in
	if in.LicenseExpiry != nil {
		expiry := *in.LicenseExpiry
		out.LicenseExpiry = &expiry
	}
	if in.ReviewedAt != nil {
		reviewed := *in.ReviewedAt
		out.ReviewedAt = &reviewed
	}
	return &out
}

func sortByCreated[T any](items []T, created func(T) time.Time, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return created(items[i]).After(created(items[j]))
		}
		return created(items[i]).Before(created(items[j]))
	})
}
