// Package seed loads reference data (skills, work areas, people and
// working hours) from a YAML fixture into the database.
package seed

import (
	"fmt"
	"io"
	"strings"
	"time"

	"fieldservice_backend/internal/appointments/domain"
	"fieldservice_backend/platform/phone"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// namespace makes generated IDs stable across runs, so re-seeding updates
// rows instead of duplicating them.
var namespace = uuid.MustParse("6f0e3c1a-54d4-4a8e-9a55-1c1f3b0d7e21")

type SkillDef struct {
	Name        string  `yaml:"name"`
	Category    string  `yaml:"category"`
	Description *string `yaml:"description"`
}

type WorkAreaDef struct {
	Name     string   `yaml:"name"`
	City     string   `yaml:"city"`
	State    string   `yaml:"state"`
	ZipCodes []string `yaml:"zip_codes"`
}

type PersonDef struct {
	ID        *uuid.UUID `yaml:"id"`
	Email     string     `yaml:"email"`
	FirstName string     `yaml:"first_name"`
	LastName  string     `yaml:"last_name"`
	Phone     string     `yaml:"phone"`
}

type HoursDef struct {
	Day           int    `yaml:"day"`
	Start         string `yaml:"start"`
	End           string `yaml:"end"`
	Available     *bool  `yaml:"available"`
	EffectiveDate string `yaml:"effective_date"`
}

type TechnicianDef struct {
	PersonDef  `yaml:",inline"`
	EmployeeID string     `yaml:"employee_id"`
	HourlyRate *float64   `yaml:"hourly_rate"`
	Active     *bool      `yaml:"active"`
	Skills     []string   `yaml:"skills"`
	WorkAreas  []string   `yaml:"work_areas"`
	Hours      []HoursDef `yaml:"hours"`
}

// Fixture is the root of a seed file.
type Fixture struct {
	Region      string          `yaml:"region"`
	Skills      []SkillDef      `yaml:"skills"`
	WorkAreas   []WorkAreaDef   `yaml:"work_areas"`
	Customers   []PersonDef     `yaml:"customers"`
	Technicians []TechnicianDef `yaml:"technicians"`
}

// Load decodes and validates a fixture. Unknown keys are rejected.
func Load(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if f.Region == "" {
		f.Region = "US"
	}
	if err := f.normalize(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) normalize() error {
	skills := make(map[string]struct{}, len(f.Skills))
	for _, s := range f.Skills {
		if s.Name == "" {
			return fmt.Errorf("skill without name")
		}
		if !domain.ServiceType(s.Category).Valid() {
			return fmt.Errorf("skill %q: unknown category %q", s.Name, s.Category)
		}
		skills[s.Name] = struct{}{}
	}

	areas := make(map[string]struct{}, len(f.WorkAreas))
	for _, a := range f.WorkAreas {
		if a.Name == "" || len(a.ZipCodes) == 0 {
			return fmt.Errorf("work area %q needs a name and zip codes", a.Name)
		}
		areas[a.Name] = struct{}{}
	}

	for i := range f.Customers {
		if err := f.normalizePerson(&f.Customers[i]); err != nil {
			return fmt.Errorf("customer %q: %w", f.Customers[i].Email, err)
		}
	}

	for i := range f.Technicians {
		t := &f.Technicians[i]
		if err := f.normalizePerson(&t.PersonDef); err != nil {
			return fmt.Errorf("technician %q: %w", t.Email, err)
		}
		if t.EmployeeID == "" {
			return fmt.Errorf("technician %q: employee_id is required", t.Email)
		}
		for _, name := range t.Skills {
			if _, ok := skills[name]; !ok {
				return fmt.Errorf("technician %q: unknown skill %q", t.Email, name)
			}
		}
		for _, name := range t.WorkAreas {
			if _, ok := areas[name]; !ok {
				return fmt.Errorf("technician %q: unknown work area %q", t.Email, name)
			}
		}
		for _, h := range t.Hours {
			if _, err := h.toDomain(uuid.Nil); err != nil {
				return fmt.Errorf("technician %q: %w", t.Email, err)
			}
		}
	}
	return nil
}

func (f *Fixture) normalizePerson(p *PersonDef) error {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Email == "" {
		return fmt.Errorf("email is required")
	}
	if p.Phone != "" {
		normalized := phone.NormalizeE164(p.Phone, f.Region)
		if !phone.IsE164(normalized) {
			return fmt.Errorf("invalid phone number %q", p.Phone)
		}
		p.Phone = normalized
	}
	return nil
}

func (h HoursDef) toDomain(technicianID uuid.UUID) (domain.WorkingHours, error) {
	wh := domain.WorkingHours{
		TechnicianID: technicianID,
		DayOfWeek:    h.Day,
		StartTime:    h.Start,
		EndTime:      h.End,
		IsAvailable:  h.Available == nil || *h.Available,
	}
	if h.EffectiveDate == "" {
		wh.EffectiveDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	} else {
		date, err := time.Parse(domain.DateLayout, h.EffectiveDate)
		if err != nil {
			return wh, fmt.Errorf("effective_date %q: %w", h.EffectiveDate, err)
		}
		wh.EffectiveDate = date
	}
	if err := wh.Validate(); err != nil {
		return wh, err
	}
	wh.ID = stableID("hours", technicianID.String(), fmt.Sprint(h.Day), wh.EffectiveDate.Format(domain.DateLayout))
	return wh, nil
}

func stableID(parts ...string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(strings.Join(parts, ":")))
}

func (p PersonDef) id(kind string) uuid.UUID {
	if p.ID != nil {
		return *p.ID
	}
	return stableID(kind, p.Email)
}
