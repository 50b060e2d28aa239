package students

import (
	"strings"

	"github.com/Spok95/hallboard/internal/forms"
	"github.com/Spok95/hallboard/internal/models"
)

// Form is the add/edit student payload. Fees is a pointer so "missing" differs from 0.
type Form struct {
	SitNo   int      `json:"sitNo"`
	Name    string   `json:"name"`
	Gender  string   `json:"gender"`
	Mobile  string   `json:"mobile"`
	Email   string   `json:"email"`
	Address string   `json:"address"`
	Fees    *float64 `json:"fees"`
	Date    string   `json:"date"`
	// Paid is the edit-only paid/unpaid toggle for the selected month.
	Paid bool `json:"paid"`
}

// FormOf fills a form from an existing record, date as yyyy-mm-dd.
func FormOf(s models.Student) Form {
	fee := s.Fees
	return Form{
		SitNo:   s.SitNo,
		Name:    s.Name,
		Gender:  s.Gender,
		Mobile:  s.Mobile,
		Email:   s.Email,
		Address: s.Address,
		Fees:    &fee,
		Date:    s.FormDate(),
	}
}

func (f *Form) trim() {
	f.Name = strings.TrimSpace(f.Name)
	f.Gender = strings.TrimSpace(f.Gender)
	f.Mobile = strings.TrimSpace(f.Mobile)
	f.Email = strings.TrimSpace(f.Email)
	f.Address = strings.TrimSpace(f.Address)
	f.Date = strings.TrimSpace(f.Date)
}

// Validate reports every failing field at once. On create, existing is the current
// list and a sitNo already in it is rejected; on edit pass nil.
func Validate(f Form, existing []models.Student) (Form, error) {
	f.trim()
	errs := forms.Errors{}

	if f.Name == "" {
		errs.Add("name", "Name is mandatory.")
	}
	switch {
	case f.SitNo == 0:
		errs.Add("sitNo", "Sit Number is mandatory.")
	case !models.ValidSitNo(f.SitNo):
		errs.Add("sitNo", "Sit Number must be between 1 and 100.")
	default:
		for _, s := range existing {
			if s.SitNo == f.SitNo {
				errs.Add("sitNo", "Sit Number is already taken.")
				break
			}
		}
	}
	switch {
	case f.Gender == "":
		errs.Add("gender", "Gender is mandatory.")
	case strings.EqualFold(f.Gender, models.GenderMale):
		f.Gender = models.GenderMale
	case strings.EqualFold(f.Gender, models.GenderFemale):
		f.Gender = models.GenderFemale
	default:
		errs.Add("gender", "Gender must be Male or Female.")
	}
	if f.Mobile == "" {
		errs.Add("mobile", "Mobile is mandatory.")
	}
	if f.Email == "" {
		errs.Add("email", "Email is mandatory.")
	}
	if f.Address == "" {
		errs.Add("address", "Address is mandatory.")
	}
	switch {
	case f.Fees == nil:
		errs.Add("fees", "Fees is mandatory.")
	case *f.Fees < 0:
		errs.Add("fees", "Fees must not be negative.")
	}
	if f.Date == "" {
		errs.Add("date", "Admission Date is mandatory.")
	} else if _, ok := models.ParseDate(f.Date); !ok {
		errs.Add("date", "Admission Date is invalid.")
	}
	return f, errs.Err()
}

// seedValue is the ledger value a new month gets: 1 when the student owes fees.
func (f Form) seedValue() float64 {
	if f.Fees != nil && *f.Fees > 0 {
		return 1
	}
	return 0
}

// NewStudent builds the record to create from a validated form. The ledger holds
// one unpaid entry at the admission month.
func NewStudent(f Form) models.Student {
	s := models.Student{
		SitNo:   f.SitNo,
		Name:    f.Name,
		Gender:  f.Gender,
		Mobile:  f.Mobile,
		Email:   f.Email,
		Address: f.Address,
		Date:    f.Date,
	}
	if f.Fees != nil {
		s.Fees = *f.Fees
	}
	if t, ok := models.ParseDate(f.Date); ok {
		s.Ledger.Set(fmtYear(t.Year()), models.MonthOf(t), models.FeeEntry{Value: f.seedValue()})
		s.Date = t.Format("2006-01-02")
	}
	return s
}
