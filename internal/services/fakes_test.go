package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"scholarhub/internal/events"
	"scholarhub/internal/models"
	"scholarhub/internal/repositories"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func page[T any](items []T, params models.PaginationParams) *models.PaginatedResponse[T] {
	params.Normalize()
	total := len(items)
	start := params.Offset
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}
	return &models.PaginatedResponse[T]{
		Data: items[start:end],
		Pagination: models.PaginationMeta{
			CurrentPage:  params.Offset/params.Limit + 1,
			TotalItems:   int64(total),
			ItemsPerPage: params.Limit,
			HasNext:      end < total,
			HasPrev:      start > 0,
		},
	}
}

// ===============================
// TRANSACTOR & SEQUENCE
// ===============================

type fakeTx struct {
	calls int
}

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeSequence struct {
	mu     sync.Mutex
	values map[string]int64
	err    error
}

func newFakeSequence() *fakeSequence {
	return &fakeSequence{values: map[string]int64{}}
}

func (f *fakeSequence) Next(ctx context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.values[name]++
	return f.values[name], nil
}

func (f *fakeSequence) Current(ctx context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name], f.err
}

// ===============================
// EVENT BUS
// ===============================

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) error {
	return b.PublishAsync(ctx, event)
}

func (b *recordingBus) PublishAsync(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.EventHandler) error        { return nil }
func (b *recordingBus) SubscribePattern(string, events.EventHandler) error { return nil }
func (b *recordingBus) Unsubscribe(string, events.EventHandler) error      { return nil }
func (b *recordingBus) Start(context.Context) error                        { return nil }
func (b *recordingBus) Stop(context.Context) error                         { return nil }
func (b *recordingBus) Health() error                                      { return nil }
func (b *recordingBus) Stats() *events.EventBusStats                       { return &events.EventBusStats{} }

func (b *recordingBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.published))
	for _, e := range b.published {
		out = append(out, e.GetEventType())
	}
	return out
}

// ===============================
// USERS
// ===============================

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[int64]*models.User
	staff map[int64]*models.StaffProfile
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[int64]*models.User{}, staff: map[int64]*models.StaffProfile{}}
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return fmt.Errorf("failed to create user: %w", repositories.ErrDuplicate)
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) SetActive(ctx context.Context, id int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (f *fakeUsers) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (f *fakeUsers) List(ctx context.Context, role models.Role, params models.PaginationParams) (*models.PaginatedResponse[*models.User], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.byID {
		if role == "" || u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, params), nil
}

// staffRepo adapts the staff map to StaffRepository.
type staffRepo struct{ *fakeUsers }

func (s staffRepo) Create(ctx context.Context, p *models.StaffProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.staff[p.UserID] = &cp
	return nil
}

func (s staffRepo) GetByUserID(ctx context.Context, userID int64) (*models.StaffProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.staff[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s staffRepo) UpdatePermissions(ctx context.Context, userID int64, perms models.StaffPermissions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.staff[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Permissions = perms
	return nil
}

// ===============================
// APPLICANTS
// ===============================

type fakeApplicants struct {
	mu   sync.Mutex
	byID map[int64]*models.Applicant
	docs *fakeDocuments
}

func newFakeApplicants() *fakeApplicants {
	return &fakeApplicants{byID: map[int64]*models.Applicant{}}
}

func (f *fakeApplicants) Create(ctx context.Context, a *models.Applicant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.UserID == a.UserID {
			return fmt.Errorf("failed to create applicant: %w", repositories.ErrDuplicate)
		}
	}
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeApplicants) withCount(a *models.Applicant) *models.Applicant {
	cp := *a
	if f.docs != nil {
		cp.DocumentCount, _ = f.docs.CountByApplicant(context.Background(), a.ID)
	}
	return &cp
}

func (f *fakeApplicants) GetByID(ctx context.Context, id int64) (*models.Applicant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return f.withCount(a), nil
}

func (f *fakeApplicants) GetByUserID(ctx context.Context, userID int64) (*models.Applicant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.UserID == userID {
			return f.withCount(a), nil
		}
	}
	return nil, nil
}

func (f *fakeApplicants) Update(ctx context.Context, a *models.Applicant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[a.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeApplicants) UpdateCompletion(ctx context.Context, id int64, completion int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	a.ProfileCompletion = completion
	return nil
}

// ===============================
// LISTINGS
// ===============================

type fakeListings struct {
	mu           sync.Mutex
	jobs         map[int64]*models.Job
	scholarships map[int64]*models.Scholarship
	now          func() time.Time
}

func newFakeListings() *fakeListings {
	return &fakeListings{
		jobs:         map[int64]*models.Job{},
		scholarships: map[int64]*models.Scholarship{},
		now:          fixedClock,
	}
}

func (f *fakeListings) CreateJob(ctx context.Context, j *models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *j
	f.jobs[j.ID] = &cp
	return nil
}

func (f *fakeListings) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	j.Normalize(f.now())
	cp := *j
	return &cp, nil
}

func (f *fakeListings) UpdateJob(ctx context.Context, j *models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[j.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *j
	f.jobs[j.ID] = &cp
	return nil
}

func (f *fakeListings) DeleteJob(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.jobs, id)
	return nil
}

func matchesListing(l *models.Listing, filter repositories.ListingFilter, now time.Time) bool {
	if filter.Status != "" && l.Status != filter.Status {
		return false
	}
	if filter.OpenOnly && l.Status == models.ListingDraft {
		return false
	}
	if filter.CreatedBy != nil && l.CreatedBy != *filter.CreatedBy {
		return false
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(filter.Search)) {
		return false
	}
	return true
}

func (f *fakeListings) ListJobs(ctx context.Context, filter repositories.ListingFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Job], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Job
	for _, j := range f.jobs {
		if matchesListing(&j.Listing, filter, f.now()) {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return page(out, params), nil
}

func (f *fakeListings) CreateScholarship(ctx context.Context, s *models.Scholarship) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.scholarships[s.ID] = &cp
	return nil
}

func (f *fakeListings) GetScholarship(ctx context.Context, id int64) (*models.Scholarship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scholarships[id]
	if !ok {
		return nil, nil
	}
	s.Normalize(f.now())
	cp := *s
	return &cp, nil
}

func (f *fakeListings) UpdateScholarship(ctx context.Context, s *models.Scholarship) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.scholarships[s.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *s
	f.scholarships[s.ID] = &cp
	return nil
}

func (f *fakeListings) DeleteScholarship(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.scholarships[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.scholarships, id)
	return nil
}

func (f *fakeListings) ListScholarships(ctx context.Context, filter repositories.ListingFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Scholarship], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Scholarship
	for _, s := range f.scholarships {
		if matchesListing(&s.Listing, filter, f.now()) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return page(out, params), nil
}

func (f *fakeListings) listing(ref models.ListingRef) *models.Listing {
	switch ref.Kind {
	case models.ListingJob:
		if j, ok := f.jobs[ref.ID]; ok {
			return &j.Listing
		}
	case models.ListingScholarship:
		if s, ok := f.scholarships[ref.ID]; ok {
			return &s.Listing
		}
	}
	return nil
}

func (f *fakeListings) GetListing(ctx context.Context, ref models.ListingRef) (*models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.listing(ref)
	if l == nil {
		return nil, nil
	}
	l.Normalize(f.now())
	cp := *l
	return &cp, nil
}

func (f *fakeListings) IncrementApplicationCount(ctx context.Context, ref models.ListingRef, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.listing(ref)
	if l == nil {
		return repositories.ErrNotFound
	}
	l.ApplicationCount += delta
	return nil
}

func (f *fakeListings) addJob(id int64, status models.ListingStatus, deadline time.Time) *models.Job {
	j := &models.Job{
		Listing: models.Listing{
			ID: id, Kind: models.ListingJob, Title: fmt.Sprintf("Job %d", id), Description: "desc",
			Status: status, Deadline: deadline, CreatedBy: 1, CreatedAt: testNow, UpdatedAt: testNow,
		},
		Company: "Acme",
	}
	f.jobs[id] = j
	return j
}

func (f *fakeListings) addScholarship(id int64, status models.ListingStatus, deadline time.Time) *models.Scholarship {
	s := &models.Scholarship{
		Listing: models.Listing{
			ID: id, Kind: models.ListingScholarship, Title: fmt.Sprintf("Scholarship %d", id), Description: "desc",
			Status: status, Deadline: deadline, CreatedBy: 1, CreatedAt: testNow, UpdatedAt: testNow,
		},
		Program: "MSc", University: "Uni",
	}
	f.scholarships[id] = s
	return s
}

// ===============================
// APPLICATIONS
// ===============================

type fakeApplications struct {
	mu         sync.Mutex
	byID       map[int64]*models.Application
	applicants *fakeApplicants
	failCreate error
	// afterLoad runs once a copy has been handed out, standing in for a
	// concurrent writer.
	afterLoad func(id int64)
}

func newFakeApplications(applicants *fakeApplicants) *fakeApplications {
	return &fakeApplications{byID: map[int64]*models.Application{}, applicants: applicants}
}

func cloneApplication(a *models.Application) *models.Application {
	cp := *a
	cp.Data = models.ApplicationData{}
	for name, section := range a.Data {
		s := map[string]any{}
		for k, v := range section {
			s[k] = v
		}
		cp.Data[name] = s
	}
	cp.ReviewNotes = append([]models.ReviewNote{}, a.ReviewNotes...)
	return &cp
}

func (f *fakeApplications) Create(ctx context.Context, a *models.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	for _, existing := range f.byID {
		if existing.ApplicantID == a.ApplicantID && existing.Target == a.Target {
			return fmt.Errorf("failed to create application: %w", repositories.ErrDuplicate)
		}
	}
	f.byID[a.ID] = cloneApplication(a)
	return nil
}

func (f *fakeApplications) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	f.mu.Lock()
	a, ok := f.byID[id]
	if !ok {
		f.mu.Unlock()
		return nil, nil
	}
	out := cloneApplication(a)
	f.mu.Unlock()

	if applicant, _ := f.applicants.GetByID(ctx, out.ApplicantID); applicant != nil {
		out.ApplicantUserID = applicant.UserID
	}
	if f.afterLoad != nil {
		f.afterLoad(id)
	}
	return out, nil
}

// stored returns the persisted copy, bypassing the load hook.
func (f *fakeApplications) stored(id int64) *models.Application {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneApplication(f.byID[id])
}

// writeSection commits a section straight to storage.
func (f *fakeApplications) writeSection(id int64, section string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.byID[id]
	if a.Data == nil {
		a.Data = models.ApplicationData{}
	}
	a.Data[section] = map[string]any{"filled": true}
	a.Progress = models.ComputeProgress(a.Data)
}

func (f *fakeApplications) ExistsForTarget(ctx context.Context, applicantID int64, target models.ListingRef) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.ApplicantID == applicantID && a.Target == target {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeApplications) update(a *models.Application, apply func(stored *models.Application)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[a.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	apply(stored)
	stored.UpdatedAt = a.UpdatedAt
	return nil
}

func (f *fakeApplications) UpdateContent(ctx context.Context, a *models.Application) error {
	return f.update(a, func(s *models.Application) {
		s.Data = cloneApplication(a).Data
		s.Progress = a.Progress
		s.CurrentStep = a.CurrentStep
	})
}

func (f *fakeApplications) UpdateStatus(ctx context.Context, a *models.Application) error {
	return f.update(a, func(s *models.Application) {
		s.Status = a.Status
		s.SubmissionDate = a.SubmissionDate
	})
}

func (f *fakeApplications) Reset(ctx context.Context, a *models.Application) error {
	return f.update(a, func(s *models.Application) {
		s.Status = a.Status
		s.Progress = a.Progress
		s.CurrentStep = a.CurrentStep
		s.SubmissionDate = a.SubmissionDate
		s.Data = cloneApplication(a).Data
	})
}

func (f *fakeApplications) UpdateInterview(ctx context.Context, a *models.Application) error {
	return f.update(a, func(s *models.Application) { s.Interview = a.Interview })
}

func (f *fakeApplications) UpdatePayment(ctx context.Context, a *models.Application) error {
	return f.update(a, func(s *models.Application) { s.Payment = a.Payment })
}

func (f *fakeApplications) AddReviewNote(ctx context.Context, applicationID int64, note *models.ReviewNote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[applicationID]
	if !ok {
		return repositories.ErrNotFound
	}
	note.Seq = len(stored.ReviewNotes) + 1
	stored.ReviewNotes = append(stored.ReviewNotes, *note)
	return nil
}

func (f *fakeApplications) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeApplications) ListByApplicant(ctx context.Context, applicantID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Application], error) {
	return f.List(ctx, models.ApplicationFilter{ApplicantID: &applicantID}, params)
}

func (f *fakeApplications) List(ctx context.Context, filter models.ApplicationFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Application], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Application
	for _, a := range f.byID {
		if filter.ApplicantID != nil && a.ApplicantID != *filter.ApplicantID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Kind != "" && a.Target.Kind != filter.Kind {
			continue
		}
		out = append(out, cloneApplication(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, params), nil
}

func (f *fakeApplications) Stats(ctx context.Context, filter models.ApplicationFilter) (*models.ApplicationStats, error) {
	all, _ := f.List(ctx, filter, models.PaginationParams{Limit: 100})
	stats := &models.ApplicationStats{ByStatus: map[models.ApplicationStatus]int64{}}
	for _, a := range all.Data {
		stats.Total++
		stats.ByStatus[a.Status]++
	}
	return stats, nil
}

// ===============================
// DOCUMENTS & ADS
// ===============================

type fakeDocuments struct {
	mu         sync.Mutex
	byID       map[int64]*models.Document
	failCreate error
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{byID: map[int64]*models.Document{}}
}

func (f *fakeDocuments) Create(ctx context.Context, d *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	cp := *d
	f.byID[d.ID] = &cp
	return nil
}

func (f *fakeDocuments) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocuments) ListByApplicant(ctx context.Context, applicantID int64, applicationID *int64) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Document, 0)
	for _, d := range f.byID {
		if d.ApplicantID != applicantID {
			continue
		}
		if applicationID != nil && (d.ApplicationID == nil || *d.ApplicationID != *applicationID) {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeDocuments) CountByApplicant(ctx context.Context, applicantID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, d := range f.byID {
		if d.ApplicantID == applicantID {
			n++
		}
	}
	return n, nil
}

func (f *fakeDocuments) UpdateVerification(ctx context.Context, d *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[d.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.IsVerified = d.IsVerified
	stored.VerifiedBy = d.VerifiedBy
	stored.VerifiedAt = d.VerifiedAt
	return nil
}

func (f *fakeDocuments) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeAds struct {
	mu             sync.Mutex
	byID           map[int64]*models.Ad
	now            func() time.Time
	impressionsErr error
}

func newFakeAds() *fakeAds {
	return &fakeAds{byID: map[int64]*models.Ad{}, now: fixedClock}
}

func (f *fakeAds) Create(ctx context.Context, ad *models.Ad) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *ad
	f.byID[ad.ID] = &cp
	return nil
}

func (f *fakeAds) GetByID(ctx context.Context, id int64) (*models.Ad, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ad, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *ad
	return &cp, nil
}

func (f *fakeAds) Update(ctx context.Context, ad *models.Ad) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[ad.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *ad
	f.byID[ad.ID] = &cp
	return nil
}

func (f *fakeAds) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeAds) List(ctx context.Context, filter repositories.AdFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Ad], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Ad
	for _, ad := range f.byID {
		if filter.Placement != "" && ad.Placement != filter.Placement {
			continue
		}
		if filter.LiveOnly && !ad.IsLive(f.now()) {
			continue
		}
		cp := *ad
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, params), nil
}

func (f *fakeAds) IncrementClicks(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ad, ok := f.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	ad.Clicks++
	return nil
}

func (f *fakeAds) IncrementImpressions(ctx context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.impressionsErr != nil {
		return f.impressionsErr
	}
	for _, id := range ids {
		if ad, ok := f.byID[id]; ok {
			ad.Impressions++
		}
	}
	return nil
}

var errBackend = errors.New("backend unavailable")

// ===============================
// PRINCIPALS
// ===============================

func applicantPrincipal(userID int64) *models.Principal {
	return &models.Principal{UserID: userID, Role: models.RoleApplicant}
}

func staffPrincipal(userID int64, perms ...string) *models.Principal {
	p := &models.Principal{UserID: userID, Role: models.RoleStaff, Permissions: models.StaffPermissions{}}
	for _, name := range perms {
		p.Permissions[name] = true
	}
	return p
}

func adminPrincipal(userID int64) *models.Principal {
	return &models.Principal{UserID: userID, Role: models.RoleAdmin}
}
