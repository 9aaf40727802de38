package main

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/rogermuhire/portfolio/internal/store"
)

const (
	resumeName = "resume.pdf"
	resumeMIME = "application/pdf"
)

var allowedPictureExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// uploadProfilePicture stores the image under its own base name in the data
// directory and points the profile at it.
func (s *server) uploadProfilePicture(c *gin.Context) {
	next := "/"
	if c.PostForm("next") == "/settings" {
		next = "/settings"
	}

	fh, err := c.FormFile("picture")
	if err != nil {
		s.uploadError(c, http.StatusBadRequest, "Choose a jpg or png file to upload.")
		return
	}
	maxBytes := s.cfg.Storage.MaxUploadBytes
	if fh.Size > maxBytes {
		s.uploadError(c, http.StatusRequestEntityTooLarge, "That picture is too large.")
		return
	}

	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(fh.Filename, "\\", "/")))
	if !allowedPictureExt[strings.ToLower(filepath.Ext(name))] {
		s.uploadError(c, http.StatusBadRequest, "Only jpg and png pictures are accepted.")
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.uploadError(c, http.StatusBadRequest, "Could not read the uploaded file.")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		s.uploadError(c, http.StatusBadRequest, "Could not read the uploaded file.")
		return
	}
	if int64(len(data)) > maxBytes {
		s.uploadError(c, http.StatusRequestEntityTooLarge, "That picture is too large.")
		return
	}
	if mt := mimetype.Detect(data); !mt.Is("image/jpeg") && !mt.Is("image/png") {
		s.uploadError(c, http.StatusUnsupportedMediaType, "Only jpg and png pictures are accepted.")
		return
	}

	if err := afero.WriteFile(s.fs, s.cfg.Storage.Resolve(name), data, 0o644); err != nil {
		_ = c.Error(err)
		s.uploadError(c, http.StatusInternalServerError, "Could not save the picture.")
		return
	}
	if _, err := s.profiles.Update(func(p *store.Profile) { p.ProfilePic = name }); err != nil {
		s.fail(c, err)
		return
	}

	s.metrics.ProfileUpdates.WithLabelValues("picture").Inc()
	s.requestLog(c).Infow("Profile picture uploaded", "file", name, "bytes", len(data))
	c.Redirect(http.StatusSeeOther, next)
}

func (s *server) uploadError(c *gin.Context, status int, msg string) {
	c.HTML(status, "error.html", gin.H{"error": msg})
}

// profilePicture serves the current picture, or the default image when the
// referenced file is gone.
func (s *server) profilePicture(c *gin.Context) {
	profile, err := s.profiles.Load()
	if err != nil {
		s.fail(c, err)
		return
	}

	storage := s.cfg.Storage
	data, err := afero.ReadFile(s.fs, storage.Resolve(filepath.Base(profile.ProfilePic)))
	if errors.Is(err, os.ErrNotExist) {
		data, err = afero.ReadFile(s.fs, storage.Resolve(storage.DefaultImage))
	}
	if err != nil {
		s.serveFileError(c, err)
		return
	}
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}

// resume serves the resume document byte for byte as a download.
func (s *server) resume(c *gin.Context) {
	data, err := afero.ReadFile(s.fs, s.cfg.Storage.Resolve(s.cfg.Storage.ResumeFile))
	if err != nil {
		s.serveFileError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+resumeName+`"`)
	c.Data(http.StatusOK, resumeMIME, data)
}

// image serves project screenshots from the images directory.
func (s *server) image(c *gin.Context) {
	name := filepath.Base(c.Param("name"))
	data, err := afero.ReadFile(s.fs, s.cfg.Storage.Resolve(filepath.Join("images", name)))
	if err != nil {
		s.serveFileError(c, err)
		return
	}
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}

func (s *server) serveFileError(c *gin.Context, err error) {
	if errors.Is(err, os.ErrNotExist) {
		c.Status(http.StatusNotFound)
		return
	}
	_ = c.Error(err)
	c.Status(http.StatusInternalServerError)
}
