package store

import (
	"github.com/spf13/afero"
)

const DefaultImage = "default.jpeg"

// Profile is the single editable record describing the portfolio owner.
type Profile struct {
	Name       string `json:"name"`
	Location   string `json:"location"`
	ProfilePic string `json:"profile_pic"`
	AboutMe    string `json:"about_me"`
}

// DefaultProfile is what Load returns before anything has been saved.
func DefaultProfile() Profile {
	return Profile{
		Name:       "Clement M.",
		Location:   "Musanze, Rwanda",
		ProfilePic: DefaultImage,
		AboutMe:    "I am a passionate AI look forward engineer!",
	}
}

type ProfileStore struct {
	fs   afero.Fs
	path string
}

func NewProfileStore(fs afero.Fs, path string) *ProfileStore {
	return &ProfileStore{fs: fs, path: path}
}

// Path returns the backing file location.
func (s *ProfileStore) Path() string { return s.path }

// Load reads the profile, falling back to DefaultProfile when the file is
// missing. A file that exists but does not parse is an ErrMalformed error.
func (s *ProfileStore) Load() (Profile, error) {
	var p Profile
	found, err := readJSON(s.fs, s.path, &p)
	if err != nil {
		return Profile{}, err
	}
	if !found {
		return DefaultProfile(), nil
	}
	return p, nil
}

// Save overwrites the backing file with p.
func (s *ProfileStore) Save(p Profile) error {
	return writeJSON(s.fs, s.path, p)
}

// Update loads the full record, applies fn and writes the full record back.
func (s *ProfileStore) Update(fn func(*Profile)) (Profile, error) {
	p, err := s.Load()
	if err != nil {
		return Profile{}, err
	}
	fn(&p)
	if err := s.Save(p); err != nil {
		return Profile{}, err
	}
	return p, nil
}
