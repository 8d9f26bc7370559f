// Package seed loads a demo cohort and an admin account into an empty
// deployment. Re-running it skips records that already exist.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/studentpulse-backend/internal/engine"
	"github.com/yungbote/studentpulse-backend/internal/platform/apierr"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
	"github.com/yungbote/studentpulse-backend/internal/services"
)

//go:embed demo_cohort.yaml
var DemoCohort []byte

type Account struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type StudentEntry struct {
	Name                 string                 `yaml:"name"`
	Email                string                 `yaml:"email"`
	Password             string                 `yaml:"password"`
	Major                string                 `yaml:"major"`
	EnrollmentYear       int                    `yaml:"enrollment_year"`
	Metrics              engine.PartialFeatures `yaml:"metrics"`
	SocioAcademicFactors map[string]any         `yaml:"socio_academic_factors"`
}

type File struct {
	Admin    *Account       `yaml:"admin"`
	Students []StudentEntry `yaml:"students"`
}

type Result struct {
	AdminCreated    bool
	StudentsCreated int
	StudentsSkipped int
	AccountsCreated int
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, s := range f.Students {
		if s.Name == "" || s.Email == "" {
			return nil, fmt.Errorf("seed student %d: name and email are required", i)
		}
	}
	return &f, nil
}

type Seeder struct {
	log      *logger.Logger
	auth     services.AuthService
	students services.StudentService
}

func NewSeeder(log *logger.Logger, auth services.AuthService, students services.StudentService) *Seeder {
	return &Seeder{log: log.With("component", "Seeder"), auth: auth, students: students}
}

// Apply runs with a context that carries no caller, so service access
// checks treat it as trusted.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Result, error) {
	res := &Result{}
	if f.Admin != nil && f.Admin.Email != "" {
		_, created, err := s.auth.EnsureAdmin(ctx, f.Admin.Name, f.Admin.Email, f.Admin.Password)
		if err != nil {
			return res, fmt.Errorf("seed admin: %w", err)
		}
		res.AdminCreated = created
	}

	for _, entry := range f.Students {
		var userID *uuid.UUID
		if entry.Password != "" {
			u, err := s.auth.Register(ctx, services.RegisterInput{
				Name:     entry.Name,
				Email:    entry.Email,
				Password: entry.Password,
				Role:     "student",
			})
			switch {
			case err == nil:
				res.AccountsCreated++
				userID = &u.ID
			case apierr.IsConflict(err):
			default:
				return res, fmt.Errorf("seed account %s: %w", entry.Email, err)
			}
		}

		in := services.StudentInput{
			UserID:               userID,
			Name:                 &entry.Name,
			Email:                &entry.Email,
			Major:                &entry.Major,
			Metrics:              entry.Metrics,
			SocioAcademicFactors: entry.SocioAcademicFactors,
		}
		if entry.EnrollmentYear != 0 {
			year := entry.EnrollmentYear
			in.EnrollmentYear = &year
		}
		if _, err := s.students.Create(ctx, in); err != nil {
			if apierr.IsConflict(err) {
				res.StudentsSkipped++
				continue
			}
			return res, fmt.Errorf("seed student %s: %w", entry.Email, err)
		}
		res.StudentsCreated++
	}
	s.log.Info("Seed applied",
		"admin_created", res.AdminCreated,
		"students_created", res.StudentsCreated,
		"students_skipped", res.StudentsSkipped,
		"accounts_created", res.AccountsCreated,
	)
	return res, nil
}
