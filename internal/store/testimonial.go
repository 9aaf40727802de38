package store

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
)

// Testimonial is one third-party endorsement. Testimonials are append-only.
type Testimonial struct {
	Name    string `json:"name" validate:"required"`
	Role    string `json:"role" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type TestimonialStore struct {
	fs       afero.Fs
	path     string
	validate *validator.Validate
}

func NewTestimonialStore(fs afero.Fs, path string) *TestimonialStore {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &TestimonialStore{fs: fs, path: path, validate: v}
}

// Path returns the backing file location.
func (s *TestimonialStore) Path() string { return s.path }

// Load returns every stored testimonial, oldest first. A missing file is an
// empty collection.
func (s *TestimonialStore) Load() ([]Testimonial, error) {
	var list []Testimonial
	if _, err := readJSON(s.fs, s.path, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []Testimonial{}
	}
	return list, nil
}

// Append validates t and, if every field is set, rewrites the backing file
// with t added to the end. An invalid t leaves the file untouched.
func (s *TestimonialStore) Append(t Testimonial) error {
	if err := s.Validate(t); err != nil {
		return err
	}
	list, err := s.Load()
	if err != nil {
		return err
	}
	list = append(list, t)
	return writeJSON(s.fs, s.path, list)
}

// Validate reports which of t's fields are empty as a *ValidationError.
func (s *TestimonialStore) Validate(t Testimonial) error {
	err := s.validate.Struct(t)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate testimonial: %w", err)
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, fe.Field())
	}
	return ve
}
