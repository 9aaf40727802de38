package store_test

import (
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogermuhire/portfolio/internal/store"
)

func newTestimonials(t *testing.T) (*store.TestimonialStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return store.NewTestimonialStore(fs, "testimonials.json"), fs
}

func TestTestimonialLoadMissingFileIsEmpty(t *testing.T) {
	s, _ := newTestimonials(t)

	list, err := s.Load()
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestTestimonialAppendValid(t *testing.T) {
	s, _ := newTestimonials(t)
	alice := store.Testimonial{Name: "Alice", Role: "Mentor", Message: "Great work"}

	require.NoError(t, s.Append(alice))

	list, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []store.Testimonial{alice}, list)
}

func TestTestimonialAppendRejectsEmptyFields(t *testing.T) {
	cases := map[string]struct {
		in      store.Testimonial
		missing []string
	}{
		"name":    {store.Testimonial{Role: "Mentor", Message: "Great work"}, []string{"name"}},
		"role":    {store.Testimonial{Name: "Alice", Message: "Great work"}, []string{"role"}},
		"message": {store.Testimonial{Name: "Alice", Role: "Mentor"}, []string{"message"}},
		"all":     {store.Testimonial{}, []string{"name", "role", "message"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s, fs := newTestimonials(t)

			err := s.Append(tc.in)
			var verr *store.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.missing, verr.Fields)

			list, err := s.Load()
			require.NoError(t, err)
			assert.Empty(t, list)

			exists, err := afero.Exists(fs, "testimonials.json")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestTestimonialInvalidAppendKeepsExisting(t *testing.T) {
	s, _ := newTestimonials(t)
	require.NoError(t, s.Append(store.Testimonial{Name: "Bob", Role: "Classmate", Message: "Solid"}))

	err := s.Append(store.Testimonial{Name: "", Role: "Mentor", Message: "Great work"})
	assert.Error(t, err)

	list, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTestimonialAppendPreservesOrder(t *testing.T) {
	s, _ := newTestimonials(t)
	var want []store.Testimonial
	for i := 0; i < 5; i++ {
		tm := store.Testimonial{
			Name:    fmt.Sprintf("person %d", i),
			Role:    "Classmate",
			Message: "same message",
		}
		want = append(want, tm)
		require.NoError(t, s.Append(tm))
	}

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTestimonialAppendKeepsDuplicates(t *testing.T) {
	s, _ := newTestimonials(t)
	tm := store.Testimonial{Name: "Alice", Role: "Mentor", Message: "Great work"}
	require.NoError(t, s.Append(tm))
	require.NoError(t, s.Append(tm))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestTestimonialLoadMalformedFails(t *testing.T) {
	s, fs := newTestimonials(t)
	require.NoError(t, afero.WriteFile(fs, "testimonials.json", []byte(`{"name":`), 0o644))

	_, err := s.Load()
	assert.ErrorIs(t, err, store.ErrMalformed)

	err = s.Append(store.Testimonial{Name: "Alice", Role: "Mentor", Message: "Great work"})
	assert.ErrorIs(t, err, store.ErrMalformed)
}

func TestTestimonialWireFormat(t *testing.T) {
	s, fs := newTestimonials(t)
	require.NoError(t, s.Append(store.Testimonial{Name: "A", Role: "B", Message: "C"}))

	b, err := afero.ReadFile(fs, "testimonials.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"A","role":"B","message":"C"}]`, string(b))
}
