// Package students owns the cached student list and every write against the
// students API: create, edit, delete, fee toggle and the monthly fee rollover.
// Writes are never applied locally; a successful write re-fetches the list.
package students

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/hallboard/internal/backend"
	"github.com/Spok95/hallboard/internal/banner"
	"github.com/Spok95/hallboard/internal/ctxutil"
	"github.com/Spok95/hallboard/internal/fees"
	"github.com/Spok95/hallboard/internal/models"
	"github.com/Spok95/hallboard/internal/observability"
)

var (
	ErrNotFound = errors.New("student not found")
	ErrNoEntry  = errors.New("no fee entry for the selected month")
)

const (
	msgCreated     = "New student created successfully!"
	msgUpdated     = "Student details updated successfully!"
	msgSaveFailed  = "Failed to create/update student. Please try again."
	msgDeleted     = "Student deleted."
	msgDeleteFail  = "Failed to delete student. Please try again."
	msgFeeFailed   = "Failed to update fee status. Please try again."
	msgRolloverErr = "Failed to set fees. Please try again."
)

type Service struct {
	c     *backend.Client
	board *banner.Board
	log   *zap.Logger

	mu     sync.RWMutex
	list   []models.Student
	loaded bool
	// fetch generations: started counts issued GETs, applied is the newest stored
	started uint64
	applied uint64
}

func NewService(c *backend.Client, board *banner.Board, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if board == nil {
		board = banner.NewBoard(5 * time.Second)
	}
	return &Service{c: c, board: board, log: log.Named("students")}
}

// Refresh replaces the cached list. On failure the previous list is kept. A fetch
// that was overtaken by a later one is discarded, so the cache never goes back
// to a list older than one already stored.
func (s *Service) Refresh(ctx context.Context) ([]models.Student, error) {
	s.mu.Lock()
	s.started++
	gen := s.started
	s.mu.Unlock()

	var out []models.Student
	if err := s.c.Get(ctx, "/api/students/all", &out); err != nil {
		s.log.Warn("fetch students failed, keeping previous list", append(ctxutil.Fields(ctx), zap.Error(err))...)
		observability.CaptureSystemErr(err)
		return s.List(), err
	}
	if err := ctx.Err(); err != nil {
		return s.List(), err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen < s.applied {
		s.log.Debug("discarding overtaken student fetch", zap.Uint64("gen", gen), zap.Uint64("applied", s.applied))
		return clone(s.list), nil
	}
	s.list = out
	s.loaded = true
	s.applied = gen
	return clone(out), nil
}

// List returns a copy of the cached list.
func (s *Service) List() []models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.list)
}

func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Ensure fetches the list once if nothing has been loaded yet.
func (s *Service) Ensure(ctx context.Context) ([]models.Student, error) {
	if s.Loaded() {
		return s.List(), nil
	}
	return s.Refresh(ctx)
}

// Find returns the cached student holding sitNo; the first match wins.
func (s *Service) Find(sitNo int) (models.Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.list {
		if st.SitNo == sitNo {
			st.Ledger = st.Ledger.Clone()
			return st, true
		}
	}
	return models.Student{}, false
}

// Create validates against the cached list; nothing is sent when a field fails.
func (s *Service) Create(ctx context.Context, f Form) (models.Student, error) {
	f, err := Validate(f, s.List())
	if err != nil {
		return models.Student{}, err
	}
	st := NewStudent(f)
	if err := s.c.Post(ctx, "/api/students/create", st, nil); err != nil {
		s.writeFailed(ctx, "create student", st.SitNo, msgSaveFailed, err)
		return models.Student{}, err
	}
	s.board.Success(msgCreated)
	s.refreshAfterWrite(ctx)
	return st, nil
}

// Update edits the student at sitNo. sitNo is immutable, so the form's own sitNo is
// ignored. Only sel's ledger entry changes: its paid flag follows f.Paid and every
// other month is kept as is.
func (s *Service) Update(ctx context.Context, sitNo int, f Form, sel fees.Selection) (models.Student, error) {
	cur, ok := s.Find(sitNo)
	if !ok {
		return models.Student{}, ErrNotFound
	}
	f.SitNo = sitNo
	f, err := Validate(f, nil)
	if err != nil {
		return models.Student{}, err
	}

	st := models.Student{
		SitNo:   sitNo,
		Name:    f.Name,
		Gender:  f.Gender,
		Mobile:  f.Mobile,
		Email:   f.Email,
		Address: f.Address,
		Fees:    *f.Fees,
		Date:    f.Date,
		Ledger:  cur.Ledger.Clone(),
	}
	if t, ok := models.ParseDate(f.Date); ok {
		st.Date = t.Format("2006-01-02")
	}
	st.Ledger.SetPaid(sel.Year, sel.Month, f.Paid, f.seedValue())

	if err := s.c.Put(ctx, "/api/students/update/"+strconv.Itoa(sitNo), st, nil); err != nil {
		s.writeFailed(ctx, "update student", sitNo, msgSaveFailed, err)
		return models.Student{}, err
	}
	s.board.Success(msgUpdated)
	s.refreshAfterWrite(ctx)
	return st, nil
}

func (s *Service) Delete(ctx context.Context, sitNo int) error {
	if err := s.c.Delete(ctx, "/api/students/delete/"+strconv.Itoa(sitNo), nil); err != nil {
		s.writeFailed(ctx, "delete student", sitNo, msgDeleteFail, err)
		return err
	}
	s.board.Success(msgDeleted)
	s.refreshAfterWrite(ctx)
	return nil
}

// FeeUpdate is the body of PUT /api/students/update-fee/:sitNo.
type FeeUpdate struct {
	Year  string          `json:"year"`
	Month models.Month    `json:"month"`
	Fees  models.FeeEntry `json:"fees"`
}

// ToggleFee flips paid on sel's existing entry, keeping its value and its stored
// month key. A month with no entry cannot be toggled.
func (s *Service) ToggleFee(ctx context.Context, sitNo int, sel fees.Selection) (models.FeeEntry, error) {
	st, ok := s.Find(sitNo)
	if !ok {
		return models.FeeEntry{}, ErrNotFound
	}
	key, ok := st.Ledger.Key(sel.Year, sel.Month)
	if !ok {
		return models.FeeEntry{}, ErrNoEntry
	}
	e, _ := st.Ledger.Entry(sel.Year, key)
	if e.Paid > 0 {
		e.Paid = 0
	} else {
		e.Paid = 1
	}
	// the backend matches on the key it stored, not on our spelling
	body := FeeUpdate{Year: sel.Year, Month: key, Fees: e}
	if err := s.c.Put(ctx, "/api/students/update-fee/"+strconv.Itoa(sitNo), body, nil); err != nil {
		s.writeFailed(ctx, "update fee", sitNo, msgFeeFailed, err)
		return models.FeeEntry{}, err
	}
	s.refreshAfterWrite(ctx)
	return e, nil
}

// CopyFeesNextMonth asks the backend to carry every ledger from the month before
// target into target, unpaid. One call covers all students.
func (s *Service) CopyFeesNextMonth(ctx context.Context, target fees.Selection) (fees.CopyRequest, error) {
	req, err := fees.RolloverRequest(target)
	if err != nil {
		return fees.CopyRequest{}, err
	}
	if err := s.c.Post(ctx, "/api/students/copy-fees-next-month", req, nil); err != nil {
		s.log.Error("copy fees failed",
			append(ctxutil.Fields(ctx), zap.String("to", target.Month.Title()+" "+target.Year), zap.Error(err))...)
		observability.CaptureSystemErr(err)
		s.board.Error(msgRolloverErr)
		return fees.CopyRequest{}, err
	}
	s.board.Success(fmt.Sprintf("Successfully copied fees to %s %s for all students.", target.Month.Title(), target.Year))
	s.refreshAfterWrite(ctx)
	return req, nil
}

func (s *Service) writeFailed(ctx context.Context, op string, sitNo int, msg string, err error) {
	s.log.Error(op+" failed", append(ctxutil.Fields(ctx), zap.Int("sit_no", sitNo), zap.Error(err))...)
	observability.CaptureSystemErr(err)
	s.board.Error(msg)
}

// refreshAfterWrite re-fetches the list; a failure here leaves the old list and
// does not undo the write.
func (s *Service) refreshAfterWrite(ctx context.Context) {
	_, _ = s.Refresh(ctx)
}

// FilterByName keeps students whose name contains q, ignoring case.
func FilterByName(list []models.Student, q string) []models.Student {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return list
	}
	out := make([]models.Student, 0, len(list))
	for _, st := range list {
		if strings.Contains(strings.ToLower(st.Name), q) {
			out = append(out, st)
		}
	}
	return out
}

// SortBySitNo orders a copy of list by seat number.
func SortBySitNo(list []models.Student) []models.Student {
	out := clone(list)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SitNo < out[j].SitNo })
	return out
}

func clone(list []models.Student) []models.Student {
	out := make([]models.Student, len(list))
	for i, st := range list {
		st.Ledger = st.Ledger.Clone()
		out[i] = st
	}
	return out
}

func fmtYear(y int) string { return fmt.Sprintf("%04d", y) }
