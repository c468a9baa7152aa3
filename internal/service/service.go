// Package service holds the mockup review business logic: the mockup
// store, the version archive, the comment ledger and the versioning
// coordinator. Persistence is reached through the repository interfaces
// declared here.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/mockshare/internal/idgen"
	"github.com/atinyakov/mockshare/internal/models"
)

// MockupRepository defines the persistence operations on live mockups.
type MockupRepository interface {
	// Create inserts a new mockup, returning models.ErrDuplicateID on an id collision.
	Create(ctx context.Context, m *models.Mockup) error
	// Get returns a mockup or models.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Mockup, error)
	// List returns summaries of every mockup.
	List(ctx context.Context) ([]models.MockupSummary, error)
	// Update edits the live content and optionally the password digest.
	Update(ctx context.Context, id string, u models.MockupUpdate) error
	// IncrementViews atomically adds one view and returns the new count.
	IncrementViews(ctx context.Context, id string) (int64, error)
	// Delete removes the mockup and all its comments and snapshots.
	Delete(ctx context.Context, id string) error
}

// VersionRepository defines the persistence operations on version snapshots.
type VersionRepository interface {
	// Cut archives the current version and advances the counter atomically.
	Cut(ctx context.Context, mockupID, snapshotID string, now time.Time) (*models.VersionSnapshot, error)
	// Get returns one archived snapshot or models.ErrNotFound.
	Get(ctx context.Context, mockupID string, version int) (*models.VersionSnapshot, error)
	// List returns archived versions in ascending order.
	List(ctx context.Context, mockupID string) ([]models.VersionSummary, error)
	// Delete removes an archived version, refusing the live one.
	Delete(ctx context.Context, mockupID string, version int) error
}

// CommentRepository defines the persistence operations on the live ledger.
type CommentRepository interface {
	// Add binds the comment to the current version and inserts it.
	Add(ctx context.Context, c *models.Comment) error
	// List returns the ledger entries of one version in creation order.
	List(ctx context.Context, mockupID string, version int) ([]models.Comment, error)
	// Get returns one comment with its author token or models.ErrNotFound.
	Get(ctx context.Context, mockupID, id string) (*models.Comment, error)
	// UpdateBody replaces the text of a comment.
	UpdateBody(ctx context.Context, mockupID, id, body string) error
	// SetResolved sets or clears the resolved flag.
	SetResolved(ctx context.Context, mockupID, id string, resolved bool) error
	// Delete removes one comment or returns models.ErrNotFound.
	Delete(ctx context.Context, mockupID, id string) error
	// DeleteAll clears the ledger of a mockup and returns the count removed.
	DeleteAll(ctx context.Context, mockupID string) (int64, error)
}

// SnapshotCache holds immutable snapshots keyed by mockup and version.
// Cache failures never fail a request.
type SnapshotCache interface {
	// Get reports a cached snapshot; ok is false on a miss.
	Get(ctx context.Context, mockupID string, version int) (snap *models.VersionSnapshot, ok bool, err error)
	// Set stores a snapshot under its mockup and version.
	Set(ctx context.Context, snap *models.VersionSnapshot) error
	// Invalidate drops one cached version.
	Invalidate(ctx context.Context, mockupID string, version int) error
	// InvalidateMockup drops every cached version of a mockup.
	InvalidateMockup(ctx context.Context, mockupID string) error
}

// PasswordGate hashes and verifies mockup passwords.
type PasswordGate interface {
	// Hash returns the one-way digest of plaintext.
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches digest.
	Verify(plaintext, digest string) bool
}

// Repositories bundles the persistence layer.
type Repositories struct {
	Mockups  MockupRepository
	Versions VersionRepository
	Comments CommentRepository
}

// Options configures the services. Zero values get sensible defaults
// except Gate, which is required.
type Options struct {
	Gate   PasswordGate
	IDs    idgen.Set
	Cache  SnapshotCache
	Logger *zap.Logger
	Now    func() time.Time
}

// Services is the full set of business services sharing one per-mockup
// lock table.
type Services struct {
	Mockups     *MockupService
	Versions    *VersionService
	Coordinator *Coordinator
	Comments    *CommentService
}

// New wires the services together.
func New(repos Repositories, opts Options) *Services {
	if opts.IDs.Mockup == nil || opts.IDs.Comment == nil || opts.IDs.Snapshot == nil {
		opts.IDs = idgen.DefaultSet()
	}
	if opts.Cache == nil {
		opts.Cache = nopCache{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	locks := newKeyedMutex()
	versions := &VersionService{
		mockups:  repos.Mockups,
		versions: repos.Versions,
		cache:    opts.Cache,
		locks:    locks,
		log:      opts.Logger,
	}
	return &Services{
		Mockups: &MockupService{
			repo:    repos.Mockups,
			archive: versions,
			gate:    opts.Gate,
			newID:   opts.IDs.Mockup,
			cache:   opts.Cache,
			locks:   locks,
			now:     opts.Now,
			log:     opts.Logger,
		},
		Versions: versions,
		Coordinator: &Coordinator{
			versions: repos.Versions,
			cache:    opts.Cache,
			newID:    opts.IDs.Snapshot,
			locks:    locks,
			now:      opts.Now,
			log:      opts.Logger,
		},
		Comments: &CommentService{
			repo:     repos.Comments,
			mockups:  repos.Mockups,
			archive:  versions,
			newID:    opts.IDs.Comment,
			newToken: idgen.NanoID(authorTokenLength),
			locks:    locks,
			now:      opts.Now,
			log:      opts.Logger,
		},
	}
}

// storageErr classifies err: domain errors pass through, anything else
// becomes a retryable models.StorageError.
func storageErr(op string, err error) error {
	return models.NewStorageError(op, err)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string, int) (*models.VersionSnapshot, bool, error) {
	return nil, false, nil
}
func (nopCache) Set(context.Context, *models.VersionSnapshot) error { return nil }
func (nopCache) Invalidate(context.Context, string, int) error      { return nil }
func (nopCache) InvalidateMockup(context.Context, string) error     { return nil }
