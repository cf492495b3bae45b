package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/qrlink/qrlink-go/internal/domain"
)

// --- In-memory fakes for the storage ports ---

type fakeOptionStore struct {
	mu        sync.Mutex
	options   []domain.ProfileOption
	insertErr error
	deleteErr error
	flagsErr  error
}

func (f *fakeOptionStore) ListOptions(_ context.Context, ownerID string) ([]domain.ProfileOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []domain.ProfileOption{}
	for _, opt := range f.options {
		if opt.OwnerID == ownerID {
			out = append(out, opt)
		}
	}
	return out, nil
}

func (f *fakeOptionStore) GetOption(_ context.Context, ownerID, optionID string) (*domain.ProfileOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, opt := range f.options {
		if opt.ID == optionID && opt.OwnerID == ownerID {
			o := opt
			return &o, nil
		}
	}
	return nil, nil
}

func (f *fakeOptionStore) InsertOption(_ context.Context, opt *domain.ProfileOption) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.options = append(f.options, *opt)
	return nil
}

func (f *fakeOptionStore) DeleteOption(_ context.Context, ownerID, optionID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.options[:0]
	for _, opt := range f.options {
		if !(opt.ID == optionID && opt.OwnerID == ownerID) {
			kept = append(kept, opt)
		}
	}
	f.options = kept
	return nil
}

func (f *fakeOptionStore) SetActiveFlags(_ context.Context, ownerID, optionID string) error {
	if f.flagsErr != nil {
		return f.flagsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.options {
		if f.options[i].OwnerID == ownerID {
			f.options[i].IsActive = f.options[i].ID == optionID
		}
	}
	return nil
}

func (f *fakeOptionStore) ClearActiveFlags(_ context.Context, ownerID string) error {
	if f.flagsErr != nil {
		return f.flagsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.options {
		if f.options[i].OwnerID == ownerID {
			f.options[i].IsActive = false
		}
	}
	return nil
}

type fakeMappingStore struct {
	mu         sync.Mutex
	records    map[string]domain.MappingRecord
	getCalls   int
	getErr     error
	replaceErr error
	deleteErr  error
}

func newFakeMappingStore() *fakeMappingStore {
	return &fakeMappingStore{records: make(map[string]domain.MappingRecord)}
}

func (f *fakeMappingStore) GetMapping(_ context.Context, qrID string) (*domain.MappingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[qrID]
	if !ok {
		return nil, nil
	}
	r := rec
	return &r, nil
}

func (f *fakeMappingStore) ReplaceMapping(_ context.Context, rec *domain.MappingRecord) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.records, rec.QRID)
	f.records[rec.QRID] = *rec
	return nil
}

func (f *fakeMappingStore) DeleteMapping(_ context.Context, qrID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.records, qrID)
	return nil
}

type storedUser struct {
	user         domain.User
	passwordHash string
}

type fakeIdentityStore struct {
	mu     sync.Mutex
	users  map[string]storedUser // keyed by email
	tokens map[string]domain.RefreshToken
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{
		users:  make(map[string]storedUser),
		tokens: make(map[string]domain.RefreshToken),
	}
}

func (f *fakeIdentityStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	su, ok := f.users[email]
	if !ok {
		return nil, nil
	}
	u := su.user
	return &u, nil
}

func (f *fakeIdentityStore) GetUserByID(_ context.Context, userID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, su := range f.users {
		if su.user.ID == userID {
			u := su.user
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeIdentityStore) CreateUser(_ context.Context, user *domain.User, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.users[user.Email] = storedUser{user: *user, passwordHash: passwordHash}
	return nil
}

func (f *fakeIdentityStore) GetPasswordHash(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, su := range f.users {
		if su.user.ID == userID {
			return su.passwordHash, nil
		}
	}
	return "", &domain.ErrNotFound{Resource: "user", ID: userID}
}

func (f *fakeIdentityStore) StoreRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tokens[tokenHash] = domain.RefreshToken{
		ID:        tokenHash,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (f *fakeIdentityStore) GetRefreshToken(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tok, ok := f.tokens[tokenHash]
	if !ok || tok.Revoked {
		return nil, nil
	}
	t := tok
	return &t, nil
}

func (f *fakeIdentityStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if tok, ok := f.tokens[tokenHash]; ok {
		tok.Revoked = true
		f.tokens[tokenHash] = tok
	}
	return nil
}

func (f *fakeIdentityStore) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for hash, tok := range f.tokens {
		if tok.UserID == userID {
			tok.Revoked = true
			f.tokens[hash] = tok
		}
	}
	return nil
}
