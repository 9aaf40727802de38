package store_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogermuhire/portfolio/internal/store"
)

func TestProfileLoadMissingFileReturnsDefault(t *testing.T) {
	s := store.NewProfileStore(afero.NewMemMapFs(), "user_data.json")

	p, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, store.Profile{
		Name:       "Clement M.",
		Location:   "Musanze, Rwanda",
		ProfilePic: "default.jpeg",
		AboutMe:    "I am a passionate AI look forward engineer!",
	}, p)
}

func TestProfileSaveLoadRoundTrip(t *testing.T) {
	cases := map[string]store.Profile{
		"empty": {},
		"plain": {Name: "Roger", Location: "Kigali", ProfilePic: "me.png", AboutMe: "hi"},
		"json special": {
			Name:       `quote " and backslash \`,
			Location:   "{\"nested\": [1, 2]}",
			ProfilePic: "pic\u0000.jpg",
			AboutMe:    "line one\nline two\t<b>&amp;</b> ünïcødé",
		},
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			s := store.NewProfileStore(afero.NewMemMapFs(), "user_data.json")
			require.NoError(t, s.Save(want))

			got, err := s.Load()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestProfileLoadMalformedFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "user_data.json", []byte("{not json"), 0o644))

	_, err := store.NewProfileStore(fs, "user_data.json").Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrMalformed)
}

func TestProfileLoadEmptyFileIsMalformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "user_data.json", nil, 0o644))

	_, err := store.NewProfileStore(fs, "user_data.json").Load()
	assert.ErrorIs(t, err, store.ErrMalformed)
}

func TestProfileSaveWritesWireFormat(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := store.NewProfileStore(fs, "user_data.json")
	require.NoError(t, s.Save(store.Profile{Name: "A", Location: "B", ProfilePic: "c.png", AboutMe: "d"}))

	b, err := afero.ReadFile(fs, "user_data.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"A","location":"B","profile_pic":"c.png","about_me":"d"}`, string(b))
}

func TestProfileSaveReadOnlyFsFails(t *testing.T) {
	s := store.NewProfileStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "user_data.json")
	assert.Error(t, s.Save(store.DefaultProfile()))
}

func TestProfileUpdateRewritesWholeRecord(t *testing.T) {
	s := store.NewProfileStore(afero.NewMemMapFs(), "user_data.json")

	updated, err := s.Update(func(p *store.Profile) { p.Location = "Huye" })
	require.NoError(t, err)

	want := store.DefaultProfile()
	want.Location = "Huye"
	assert.Equal(t, want, updated)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestProfileUpdateMalformedLeavesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "user_data.json", []byte("[1,"), 0o644))

	_, err := store.NewProfileStore(fs, "user_data.json").Update(func(p *store.Profile) { p.Name = "x" })
	assert.ErrorIs(t, err, store.ErrMalformed)

	b, err := afero.ReadFile(fs, "user_data.json")
	require.NoError(t, err)
	assert.Equal(t, "[1,", string(b))
}
