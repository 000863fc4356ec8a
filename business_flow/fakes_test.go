package businessflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/repository"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory Repository[T, F] keyed by id. Rows are copied on the
// way in and out so callers only see changes they persist.
type memRepo[T any, F any] struct {
	mu     sync.Mutex
	rows   map[uint]*T
	nextID uint
	idOf   func(*T) uint
	setID  func(*T, uint)
	match  func(*T, F) bool
	unique func(existing, candidate *T) string
	err    error
}

func newMemRepo[T any, F any](idOf func(*T) uint, setID func(*T, uint), match func(*T, F) bool) *memRepo[T, F] {
	return &memRepo[T, F]{rows: map[uint]*T{}, idOf: idOf, setID: setID, match: match}
}

func (r *memRepo[T, F]) ByID(ctx context.Context, id uint) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (r *memRepo[T, F]) ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*T, 0)
	for _, row := range r.rows {
		if r.match(row, filter) {
			cp := *row
			out = append(out, &cp)
		}
	}
	// newest first, which is what every caller asks for
	sort.Slice(out, func(i, j int) bool { return r.idOf(out[i]) > r.idOf(out[j]) })
	if offset > 0 {
		if offset >= len(out) {
			return []*T{}, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo[T, F]) checkUnique(candidate *T) error {
	if r.unique == nil {
		return nil
	}
	for id, row := range r.rows {
		if id == r.idOf(candidate) {
			continue
		}
		if field := r.unique(row, candidate); field != "" {
			return &repository.DuplicateKeyError{Field: field}
		}
	}
	return nil
}

func (r *memRepo[T, F]) Save(ctx context.Context, entity *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if err := r.checkUnique(entity); err != nil {
		return err
	}
	r.nextID++
	r.setID(entity, r.nextID)
	cp := *entity
	r.rows[r.nextID] = &cp
	return nil
}

func (r *memRepo[T, F]) Update(ctx context.Context, entity *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if err := r.checkUnique(entity); err != nil {
		return err
	}
	cp := *entity
	r.rows[r.idOf(entity)] = &cp
	return nil
}

func (r *memRepo[T, F]) Delete(ctx context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.rows[id]
	delete(r.rows, id)
	return ok, nil
}

func (r *memRepo[T, F]) Count(ctx context.Context, filter F) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *memRepo[T, F]) Exists(ctx context.Context, filter F) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

// put stores row as is, keeping its id
func (r *memRepo[T, F]) put(row *T) *T {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.idOf(row)
	if id == 0 {
		r.nextID++
		id = r.nextID
		r.setID(row, id)
	} else if id > r.nextID {
		r.nextID = id
	}
	cp := *row
	r.rows[id] = &cp
	return row
}

// get returns the stored row without copying
func (r *memRepo[T, F]) get(id uint) *T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

func (r *memRepo[T, F]) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func eqPtr[V comparable](want *V, got V) bool {
	return want == nil || *want == got
}

func eqOptPtr[V comparable](want *V, got *V) bool {
	if want == nil {
		return true
	}
	return got != nil && *got == *want
}

// ---- accounts ----

type fakeAccountRepo struct {
	*memRepo[models.Account, models.AccountFilter]
	backfillErr error
}

var _ repository.AccountRepository = (*fakeAccountRepo)(nil)

func newFakeAccountRepo() *fakeAccountRepo {
	r := newMemRepo(
		func(a *models.Account) uint { return a.ID },
		func(a *models.Account, id uint) { a.ID = id },
		func(a *models.Account, f models.AccountFilter) bool {
			return eqPtr(f.ID, a.ID) &&
				(len(f.IDs) == 0 || slices.Contains(f.IDs, a.ID)) &&
				eqPtr(f.Email, a.Email) &&
				eqPtr(f.Contact, a.Contact) &&
				eqPtr(f.Role, a.Role) &&
				eqPtr(f.Status, a.Status) &&
				eqOptPtr(f.FranchiseID, a.FranchiseID)
		},
	)
	r.unique = func(existing, candidate *models.Account) string {
		switch {
		case existing.Email == candidate.Email:
			return "email"
		case existing.Contact == candidate.Contact:
			return "contact"
		}
		return ""
	}
	return &fakeAccountRepo{memRepo: r}
}

func (r *fakeAccountRepo) Save(ctx context.Context, a *models.Account) error {
	// mirror the model hook
	if a.Role == models.RoleAgent {
		a.Status = models.AccountStatusInactive
	}
	if a.Status == "" {
		a.Status = models.AccountStatusActive
	}
	return r.memRepo.Save(ctx, a)
}

func (r *fakeAccountRepo) ByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	f := models.AccountFilter{Contact: &identifier}
	if strings.Contains(identifier, "@") {
		email := strings.ToLower(identifier)
		f = models.AccountFilter{Email: &email}
	}
	rows, err := r.ByFilter(ctx, f, "", 1, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *fakeAccountRepo) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	rows, err := r.ByFilter(ctx, models.AccountFilter{Email: &email}, "", 1, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *fakeAccountRepo) ByIDWithFranchise(ctx context.Context, id uint) (*models.Account, error) {
	return r.ByID(ctx, id)
}

func (r *fakeAccountRepo) SetFranchiseIfMissing(ctx context.Context, accountID, franchiseID uint) error {
	if r.backfillErr != nil {
		return r.backfillErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.rows[accountID]; ok && a.FranchiseID == nil {
		a.FranchiseID = &franchiseID
	}
	return nil
}

func (r *fakeAccountRepo) UpdatePassword(ctx context.Context, accountID uint, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.rows[accountID]; ok {
		a.PasswordHash = passwordHash
	}
	return nil
}

func (r *fakeAccountRepo) SetResetOTP(ctx context.Context, accountID uint, otpHash *string, expiresAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.rows[accountID]; ok {
		a.OTPHash = otpHash
		a.OTPExpiresAt = expiresAt
		a.OTPAttempts = 0
	}
	return nil
}

func (r *fakeAccountRepo) RecordOTPFailure(ctx context.Context, accountID uint, maxAttempts int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[accountID]
	if !ok || a.OTPHash == nil {
		return false, nil
	}
	a.OTPAttempts++
	if a.OTPAttempts >= maxAttempts {
		a.OTPHash = nil
		a.OTPExpiresAt = nil
		return true, nil
	}
	return false, nil
}

func (r *fakeAccountRepo) ToggleStatus(ctx context.Context, accountID uint, role string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[accountID]
	if !ok || a.Role != role {
		return nil, nil
	}
	if a.Status == models.AccountStatusActive {
		a.Status = models.AccountStatusInactive
	} else {
		a.Status = models.AccountStatusActive
	}
	cp := *a
	return &cp, nil
}

// ---- franchises ----

type fakeFranchiseRepo struct {
	*memRepo[models.Franchise, models.FranchiseFilter]
}

var _ repository.FranchiseRepository = (*fakeFranchiseRepo)(nil)

func newFakeFranchiseRepo() *fakeFranchiseRepo {
	r := newMemRepo(
		func(f *models.Franchise) uint { return f.ID },
		func(f *models.Franchise, id uint) { f.ID = id },
		func(fr *models.Franchise, f models.FranchiseFilter) bool {
			return eqPtr(f.ID, fr.ID) &&
				eqOptPtr(f.AccountID, fr.AccountID) &&
				eqPtr(f.Email, fr.Email) &&
				eqPtr(f.Status, fr.Status) &&
				eqPtr(f.City, fr.City)
		},
	)
	r.unique = func(existing, candidate *models.Franchise) string {
		if existing.Email == candidate.Email {
			return "email"
		}
		return ""
	}
	return &fakeFranchiseRepo{memRepo: r}
}

func (r *fakeFranchiseRepo) Save(ctx context.Context, f *models.Franchise) error {
	if f.Status == "" {
		f.Status = models.FranchiseStatusPending
	}
	if f.AgentIDs == nil {
		f.AgentIDs = pq.Int64Array{}
	}
	return r.memRepo.Save(ctx, f)
}

func (r *fakeFranchiseRepo) ByEmail(ctx context.Context, email string) (*models.Franchise, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	rows, err := r.ByFilter(ctx, models.FranchiseFilter{Email: &email}, "", 1, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *fakeFranchiseRepo) ByIDWithAccount(ctx context.Context, id uint) (*models.Franchise, error) {
	return r.ByID(ctx, id)
}

func (r *fakeFranchiseRepo) ToggleStatus(ctx context.Context, id uint) (*models.Franchise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	if f.Status == models.FranchiseStatusApproved {
		f.Status = models.FranchiseStatusPending
	} else {
		f.Status = models.FranchiseStatusApproved
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFranchiseRepo) AddAgent(ctx context.Context, franchiseID, agentID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.rows[franchiseID]
	if !ok {
		return errors.New("franchise missing")
	}
	if !f.HasAgent(agentID) {
		f.AgentIDs = append(f.AgentIDs, int64(agentID))
	}
	return nil
}

func (r *fakeFranchiseRepo) RemoveAgent(ctx context.Context, franchiseID, agentID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.rows[franchiseID]; ok {
		f.AgentIDs = slices.DeleteFunc(f.AgentIDs, func(id int64) bool { return id == int64(agentID) })
	}
	return nil
}

func (r *fakeFranchiseRepo) RemoveAgentEverywhere(ctx context.Context, agentID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.rows {
		f.AgentIDs = slices.DeleteFunc(f.AgentIDs, func(id int64) bool { return id == int64(agentID) })
	}
	return nil
}

// ---- properties ----

type fakePropertyRepo struct {
	*memRepo[models.Property, models.PropertyFilter]
}

var _ repository.PropertyRepository = (*fakePropertyRepo)(nil)

func newFakePropertyRepo() *fakePropertyRepo {
	return &fakePropertyRepo{memRepo: newMemRepo(
		func(p *models.Property) uint { return p.ID },
		func(p *models.Property, id uint) { p.ID = id },
		func(p *models.Property, f models.PropertyFilter) bool {
			return eqPtr(f.ID, p.ID) &&
				eqPtr(f.Category, p.Category) &&
				eqPtr(f.SellingType, p.SellingType) &&
				eqPtr(f.Status, p.Status) &&
				eqOptPtr(f.AgentID, p.AgentID) &&
				eqOptPtr(f.FranchiseID, p.FranchiseID) &&
				eqOptPtr(f.DistrictID, p.DistrictID) &&
				eqOptPtr(f.AreaID, p.AreaID) &&
				(f.MinPrice == nil || p.Price >= *f.MinPrice) &&
				(f.MaxPrice == nil || p.Price <= *f.MaxPrice) &&
				(f.Search == nil || strings.Contains(strings.ToLower(p.Title), strings.ToLower(*f.Search)))
		},
	)}
}

func (r *fakePropertyRepo) ByIDWithRelations(ctx context.Context, id uint) (*models.Property, error) {
	return r.ByID(ctx, id)
}

// ---- enquiries and requirements ----

type fakeEnquiryRepo struct {
	*memRepo[models.Enquiry, models.EnquiryFilter]
}

var _ repository.EnquiryRepository = (*fakeEnquiryRepo)(nil)

func newFakeEnquiryRepo() *fakeEnquiryRepo {
	return &fakeEnquiryRepo{memRepo: newMemRepo(
		func(e *models.Enquiry) uint { return e.ID },
		func(e *models.Enquiry, id uint) { e.ID = id },
		func(e *models.Enquiry, f models.EnquiryFilter) bool {
			return eqPtr(f.ID, e.ID) && eqOptPtr(f.AccountID, e.AccountID) && eqPtr(f.Status, e.Status)
		},
	)}
}

func (r *fakeEnquiryRepo) UpdateStatus(ctx context.Context, id uint, status string) (*models.Enquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	e.Status = status
	cp := *e
	return &cp, nil
}

type fakeRequirementRepo struct {
	*memRepo[models.Requirement, models.RequirementFilter]
}

func newFakeRequirementRepo() *fakeRequirementRepo {
	return &fakeRequirementRepo{memRepo: newMemRepo(
		func(r *models.Requirement) uint { return r.ID },
		func(r *models.Requirement, id uint) { r.ID = id },
		func(r *models.Requirement, f models.RequirementFilter) bool {
			return eqPtr(f.ID, r.ID) && eqPtr(f.Phone, r.Phone)
		},
	)}
}

// ---- notifications ----

type fakeNotificationRepo struct {
	*memRepo[models.Notification, models.NotificationFilter]
}

var _ repository.NotificationRepository = (*fakeNotificationRepo)(nil)

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{memRepo: newMemRepo(
		func(n *models.Notification) uint { return n.ID },
		func(n *models.Notification, id uint) { n.ID = id },
		func(n *models.Notification, f models.NotificationFilter) bool {
			if f.RecipientID != nil {
				addressed := n.RecipientID != nil && *n.RecipientID == *f.RecipientID
				if !addressed && !(f.IncludeBroadcast && n.Broadcast) {
					return false
				}
			}
			return eqPtr(f.ID, n.ID) && eqOptPtr(f.SenderID, n.SenderID)
		},
	)}
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.rows[id]; ok {
		n.IsRead = true
	}
	return nil
}

// ---- districts, areas, stream ----

type fakeDistrictRepo struct {
	*memRepo[models.District, models.DistrictFilter]
}

var _ repository.DistrictRepository = (*fakeDistrictRepo)(nil)

func newFakeDistrictRepo() *fakeDistrictRepo {
	r := newMemRepo(
		func(d *models.District) uint { return d.ID },
		func(d *models.District, id uint) { d.ID = id },
		func(d *models.District, f models.DistrictFilter) bool {
			return eqPtr(f.ID, d.ID) && eqPtr(f.Name, d.Name)
		},
	)
	r.unique = func(existing, candidate *models.District) string {
		if existing.Name == candidate.Name {
			return "name"
		}
		return ""
	}
	return &fakeDistrictRepo{memRepo: r}
}

func (r *fakeDistrictRepo) ByName(ctx context.Context, name string) (*models.District, error) {
	rows, err := r.ByFilter(ctx, models.DistrictFilter{Name: &name}, "", 1, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

type fakeAreaRepo struct {
	*memRepo[models.Area, models.AreaFilter]
	districts *fakeDistrictRepo
}

var _ repository.AreaRepository = (*fakeAreaRepo)(nil)

func newFakeAreaRepo(districts *fakeDistrictRepo) *fakeAreaRepo {
	r := newMemRepo(
		func(a *models.Area) uint { return a.ID },
		func(a *models.Area, id uint) { a.ID = id },
		func(a *models.Area, f models.AreaFilter) bool {
			return eqPtr(f.ID, a.ID) && eqPtr(f.Name, a.Name) && eqOptPtr(f.DistrictID, a.DistrictID)
		},
	)
	r.unique = func(existing, candidate *models.Area) string {
		if existing.Name == candidate.Name && eqOptPtr(existing.DistrictID, candidate.DistrictID) {
			return "name"
		}
		return ""
	}
	return &fakeAreaRepo{memRepo: r, districts: districts}
}

func (r *fakeAreaRepo) ByIDWithDistrict(ctx context.Context, id uint) (*models.Area, error) {
	area, err := r.ByID(ctx, id)
	if err != nil || area == nil {
		return area, err
	}
	if area.DistrictID != nil {
		area.District, _ = r.districts.ByID(ctx, *area.DistrictID)
	}
	return area, nil
}

func (r *fakeAreaRepo) ByNameAndDistrict(ctx context.Context, name string, districtID uint) (*models.Area, error) {
	rows, err := r.ByFilter(ctx, models.AreaFilter{Name: &name, DistrictID: &districtID}, "", 1, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

type fakeStreamRepo struct {
	mu      sync.Mutex
	current *models.Stream
	reads   int
}

func (r *fakeStreamRepo) Current(ctx context.Context) (*models.Stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.current == nil {
		return nil, nil
	}
	cp := *r.current
	return &cp, nil
}

func (r *fakeStreamRepo) Upsert(ctx context.Context, youtubeURL string, isActive bool) (*models.Stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		r.current = &models.Stream{ID: 1, Slot: models.StreamSlot}
	}
	r.current.YoutubeURL = youtubeURL
	r.current.IsActive = isActive
	cp := *r.current
	return &cp, nil
}

func (r *fakeStreamRepo) DeleteCurrent(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existed := r.current != nil
	r.current = nil
	return existed, nil
}

// ---- audit ----

type fakeAuditRepo struct {
	*memRepo[models.AuditLog, models.AuditLogFilter]
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{memRepo: newMemRepo(
		func(a *models.AuditLog) uint { return a.ID },
		func(a *models.AuditLog, id uint) { a.ID = id },
		func(a *models.AuditLog, f models.AuditLogFilter) bool {
			return eqOptPtr(f.AccountID, a.AccountID) && eqPtr(f.Action, a.Action)
		},
	)}
}

func (r *fakeAuditRepo) actions() []string {
	rows, _ := r.ByFilter(context.Background(), models.AuditLogFilter{}, "", 0, 0)
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Action)
	}
	return out
}

// ---- collaborators ----

// fakeTx runs fn directly; failTx makes every transaction fail before fn runs
type fakeTx struct {
	calls  int
	failTx error
}

func (t *fakeTx) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	t.calls++
	if t.failTx != nil {
		return t.failTx
	}
	return fn(ctx)
}

type fakeUploader struct {
	mu      sync.Mutex
	fail    bool
	uploads []string
}

func (u *fakeUploader) Upload(ctx context.Context, localPath, folder, resourceType string) (*services.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail {
		return nil, errors.New("upload backend down")
	}
	u.uploads = append(u.uploads, localPath)
	name := filepath.Base(localPath)
	return &services.UploadResult{URL: "https://cdn.test/" + resourceType + "/" + name, PublicID: folder + "/" + name}, nil
}

type sentEmail struct {
	to, subject, body string
}

type fakeEmailProvider struct {
	mu   sync.Mutex
	fail bool
	sent []sentEmail
}

func (p *fakeEmailProvider) SendEmail(ctx context.Context, email, subject, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("smtp down")
	}
	p.sent = append(p.sent, sentEmail{to: email, subject: subject, body: message})
	return nil
}

func (p *fakeEmailProvider) last() sentEmail {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sent) == 0 {
		return sentEmail{}
	}
	return p.sent[len(p.sent)-1]
}

type fakeCaptcha struct {
	ok       bool
	verified []string
}

func (c *fakeCaptcha) GenerateRotate(ctx context.Context) (*services.RotateChallenge, error) {
	return &services.RotateChallenge{ID: "challenge"}, nil
}

func (c *fakeCaptcha) VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool {
	c.verified = append(c.verified, challengeID)
	return c.ok
}

func newTestTokenService(t *testing.T) services.TokenService {
	t.Helper()
	ts, err := services.NewTokenService(time.Hour, "property-guru", "", false, "", "", "test-secret-key-that-is-long-enough")
	require.NoError(t, err)
	return ts
}

// tempUpload writes a throwaway file the way the handlers stage uploads
func tempUpload(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("data"), 0o600))
	return p
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }
