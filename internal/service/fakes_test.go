package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/internal/repository"
	"github.com/noah-isme/academy-inventory-api/pkg/jobs"
	"github.com/noah-isme/academy-inventory-api/pkg/storage"
)

type fakeAudit struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (f *fakeAudit) Record(ctx context.Context, entry models.AuditEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeStats struct {
	calls int
}

func (f *fakeStats) InvalidateStats(ctx context.Context) {
	f.calls++
}

type fakeQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *fakeQueue) TryEnqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type memUserRepo struct {
	users     map[string]*models.User
	createErr error
}

func newMemUserRepo(users ...models.User) *memUserRepo {
	repo := &memUserRepo{users: make(map[string]*models.User)}
	for i := range users {
		u := users[i]
		repo.users[u.ID] = &u
	}
	return repo
}

func (m *memUserRepo) List(ctx context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *memUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *memUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

type memInstructorRepo struct {
	instructors map[string]*models.Instructor
	referenced  map[string]bool
	renamed     [2]string
}

func newMemInstructorRepo(instructors ...models.Instructor) *memInstructorRepo {
	repo := &memInstructorRepo{instructors: make(map[string]*models.Instructor), referenced: make(map[string]bool)}
	for i := range instructors {
		inst := instructors[i]
		repo.instructors[inst.ID] = &inst
	}
	return repo
}

func (m *memInstructorRepo) List(ctx context.Context) ([]models.Instructor, error) {
	out := make([]models.Instructor, 0, len(m.instructors))
	for _, i := range m.instructors {
		out = append(out, *i)
	}
	return out, nil
}

func (m *memInstructorRepo) ActiveNames(ctx context.Context) ([]string, error) {
	var names []string
	for _, i := range m.instructors {
		if i.Active {
			names = append(names, i.Name)
		}
	}
	return names, nil
}

func (m *memInstructorRepo) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	if i, ok := m.instructors[id]; ok {
		copy := *i
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memInstructorRepo) FindByEmail(ctx context.Context, email string) (*models.Instructor, error) {
	for _, i := range m.instructors {
		if strings.EqualFold(i.Email, email) {
			copy := *i
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memInstructorRepo) FindByName(ctx context.Context, name string) (*models.Instructor, error) {
	for _, i := range m.instructors {
		if i.Name == name {
			copy := *i
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memInstructorRepo) NameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	for _, i := range m.instructors {
		if i.ID != exceptID && strings.EqualFold(i.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memInstructorRepo) Create(ctx context.Context, instructor *models.Instructor) error {
	copy := *instructor
	m.instructors[instructor.ID] = &copy
	return nil
}

func (m *memInstructorRepo) Update(ctx context.Context, instructor *models.Instructor, previousName string) error {
	copy := *instructor
	m.instructors[instructor.ID] = &copy
	if previousName != instructor.Name {
		m.renamed = [2]string{previousName, instructor.Name}
	}
	return nil
}

func (m *memInstructorRepo) IsReferenced(ctx context.Context, name string) (bool, error) {
	return m.referenced[name], nil
}

func (m *memInstructorRepo) Delete(ctx context.Context, id string) error {
	delete(m.instructors, id)
	return nil
}

// memInventory backs goods and assignments so stock moves can be asserted end to end.
type memInventory struct {
	goods       map[string]*models.Good
	assignments map[string]*models.Assignment
	actas       []models.Acta
	outbox      []models.Notification
	referenced  map[string]bool

	createErr error
}

func newMemInventory(goods ...models.Good) *memInventory {
	inv := &memInventory{
		goods:       make(map[string]*models.Good),
		assignments: make(map[string]*models.Assignment),
		referenced:  make(map[string]bool),
	}
	for i := range goods {
		g := goods[i]
		inv.goods[g.ID] = &g
	}
	return inv
}

func (m *memInventory) List(ctx context.Context, filter models.GoodFilter) ([]models.Good, error) {
	var out []models.Good
	for _, g := range m.goods {
		if filter.CategoryID != "" && g.CategoryID != filter.CategoryID {
			continue
		}
		out = append(out, *g)
	}
	return out, nil
}

func (m *memInventory) FindByID(ctx context.Context, id string) (*models.Good, error) {
	if g, ok := m.goods[id]; ok {
		copy := *g
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memInventory) FindByIDs(ctx context.Context, ids []string) (map[string]models.Good, error) {
	out := make(map[string]models.Good)
	for _, id := range ids {
		if g, ok := m.goods[id]; ok {
			out[id] = *g
		}
	}
	return out, nil
}

func (m *memInventory) Create(ctx context.Context, good *models.Good) error {
	copy := *good
	m.goods[good.ID] = &copy
	return nil
}

func (m *memInventory) Update(ctx context.Context, good *models.Good, delta int) error {
	stored, ok := m.goods[good.ID]
	if !ok || stored.AvailableQuantity+delta < 0 {
		return sql.ErrNoRows
	}
	copy := *good
	copy.AvailableQuantity = stored.AvailableQuantity + delta
	m.goods[good.ID] = &copy
	good.AvailableQuantity = copy.AvailableQuantity
	return nil
}

func (m *memInventory) IsReferenced(ctx context.Context, id string) (bool, error) {
	return m.referenced[id], nil
}

func (m *memInventory) Delete(ctx context.Context, id string) error {
	delete(m.goods, id)
	return nil
}

// assignmentStore adapts memInventory to the assignment repository contract.
type assignmentStore struct {
	inv *memInventory
}

func (a assignmentStore) Create(ctx context.Context, na *models.NewAssignment) error {
	m := a.inv
	if m.createErr != nil {
		return m.createErr
	}
	for _, d := range na.Decrements {
		g, ok := m.goods[d.GoodID]
		if !ok || g.AvailableQuantity < d.Quantity {
			return &repository.StockConflictError{GoodID: d.GoodID}
		}
	}
	for _, d := range na.Decrements {
		g := m.goods[d.GoodID]
		g.AvailableQuantity -= d.Quantity
		if g.AvailableQuantity == 0 && g.Status == models.GoodStatusAvailable {
			g.Status = models.GoodStatusAssigned
		}
	}
	assignment := na.Assignment
	assignment.Details = na.Details
	m.assignments[assignment.ID] = &assignment
	m.actas = append(m.actas, na.Acta)
	if na.Notification != nil {
		m.outbox = append(m.outbox, *na.Notification)
	}
	return nil
}

func (a assignmentStore) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	out := make([]models.Assignment, 0)
	for _, as := range a.inv.assignments {
		if filter.InstructorName != "" && as.InstructorName != filter.InstructorName {
			continue
		}
		if filter.Discipline != "" && as.Discipline != filter.Discipline {
			continue
		}
		out = append(out, *as)
	}
	return out, nil
}

func (a assignmentStore) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	if as, ok := a.inv.assignments[id]; ok {
		copy := *as
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (a assignmentStore) FindByIDs(ctx context.Context, ids []string) (map[string]models.Assignment, error) {
	out := make(map[string]models.Assignment)
	for _, id := range ids {
		if as, ok := a.inv.assignments[id]; ok {
			out[id] = *as
		}
	}
	return out, nil
}

func (a assignmentStore) MarkReceived(ctx context.Context, id string, at time.Time) error {
	as, ok := a.inv.assignments[id]
	if !ok || as.Status != models.AssignmentStatusActive {
		return sql.ErrNoRows
	}
	as.Status = models.AssignmentStatusReceived
	as.ConfirmedAt = &at
	return nil
}

func (a assignmentStore) SetSignedReceipt(ctx context.Context, id, filename string) error {
	as, ok := a.inv.assignments[id]
	if !ok {
		return sql.ErrNoRows
	}
	as.SignedReceiptUploaded = true
	as.SignedReceiptFile = &filename
	return nil
}

func filepathGlob(store *storage.LocalStorage, pattern string) ([]string, error) {
	return filepath.Glob(filepath.Join(filepath.Dir(store.Path("x")), pattern))
}
