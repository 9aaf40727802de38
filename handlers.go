package main

import (
	"context"
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/rogermuhire/portfolio/internal/contact"
	"github.com/rogermuhire/portfolio/internal/store"
)

// page loads the profile and renders a full page with the shared layout data.
func (s *server) page(c *gin.Context, name, title, page string, extra gin.H) {
	profile, err := s.profiles.Load()
	if err != nil {
		s.fail(c, err)
		return
	}
	data := gin.H{
		"title":   title,
		"page":    page,
		"profile": profile,
		"catalog": s.catalog,
	}
	for k, v := range extra {
		data[k] = v
	}
	c.HTML(http.StatusOK, name, data)
}

// fail renders a store error. Malformed files are not recoverable per request.
func (s *server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	msg := "Failed to read portfolio data"
	if errors.Is(err, store.ErrMalformed) {
		msg = "Portfolio data file is corrupted"
	}
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{"error": msg})
}

// validText reports whether every submitted value is valid UTF-8. The JSON
// encoder would otherwise replace invalid bytes with U+FFFD on save.
func validText(values ...string) bool {
	for _, v := range values {
		if !utf8.ValidString(v) {
			return false
		}
	}
	return true
}

func (s *server) rejectText(c *gin.Context) {
	c.HTML(http.StatusBadRequest, "failure.html", gin.H{"error": "The form contains text that is not valid UTF-8."})
}

func (s *server) home(c *gin.Context) {
	s.page(c, "home.html", "Home", "home", nil)
}

func (s *server) projects(c *gin.Context) {
	s.page(c, "projects.html", "Projects", "projects", nil)
}

func (s *server) skills(c *gin.Context) {
	s.page(c, "skills.html", "Skills", "skills", gin.H{
		"skills": s.catalog.SkillLevels(c.GetQuery),
	})
}

func (s *server) timeline(c *gin.Context) {
	s.page(c, "timeline.html", "Timeline", "timeline", nil)
}

func (s *server) settings(c *gin.Context) {
	s.page(c, "settings.html", "Settings", "settings", nil)
}

func (s *server) contactForm(c *gin.Context) {
	s.page(c, "contact.html", "Contact", "contact", nil)
}

func (s *server) listTestimonials(c *gin.Context) {
	testimonials, err := s.testimonials.Load()
	if err != nil {
		s.fail(c, err)
		return
	}
	s.page(c, "testimonials.html", "Testimonials", "testimonials", gin.H{
		"testimonials": testimonials,
	})
}

func (s *server) saveAbout(c *gin.Context) {
	about := c.PostForm("about_me")
	if !validText(about) {
		s.rejectText(c)
		return
	}
	_, err := s.profiles.Update(func(p *store.Profile) {
		p.AboutMe = about
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.ProfileUpdates.WithLabelValues("about").Inc()
	c.HTML(http.StatusOK, "success.html", gin.H{"message": "About me saved."})
}

type settingsForm struct {
	Name     string `form:"name"`
	Location string `form:"location"`
	AboutMe  string `form:"about_me"`
}

func (s *server) saveSettings(c *gin.Context) {
	var form settingsForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "failure.html", gin.H{"error": "Could not read the submitted form."})
		return
	}
	if !validText(form.Name, form.Location, form.AboutMe) {
		s.rejectText(c)
		return
	}
	_, err := s.profiles.Update(func(p *store.Profile) {
		p.Name = form.Name
		p.Location = form.Location
		p.AboutMe = form.AboutMe
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.ProfileUpdates.WithLabelValues("settings").Inc()
	s.requestLog(c).Infow("Profile settings saved")
	c.HTML(http.StatusOK, "success.html", gin.H{"message": "Changes saved successfully!"})
}

type testimonialForm struct {
	Name    string `form:"name"`
	Role    string `form:"role"`
	Message string `form:"message"`
}

func (s *server) submitTestimonial(c *gin.Context) {
	var form testimonialForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "failure.html", gin.H{"error": "Could not read the submitted form."})
		return
	}
	if !validText(form.Name, form.Role, form.Message) {
		s.rejectText(c)
		return
	}

	err := s.testimonials.Append(store.Testimonial{
		Name:    form.Name,
		Role:    form.Role,
		Message: form.Message,
	})
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		s.metrics.Testimonials.WithLabelValues("rejected").Inc()
		c.HTML(http.StatusUnprocessableEntity, "failure.html", gin.H{
			"error":  "Please fill out all fields.",
			"fields": verr.Fields,
		})
	case err != nil:
		s.metrics.Testimonials.WithLabelValues("error").Inc()
		s.fail(c, err)
	default:
		s.metrics.Testimonials.WithLabelValues("accepted").Inc()
		s.requestLog(c).Infow("Testimonial added", "role", form.Role)
		c.HTML(http.StatusOK, "success.html", gin.H{"message": "Thank you for your testimonial!"})
	}
}

func (s *server) sendContact(c *gin.Context) {
	var sub contact.Submission
	if err := c.ShouldBind(&sub); err != nil {
		c.HTML(http.StatusBadRequest, "failure.html", gin.H{"error": "Could not read the submitted form."})
		return
	}
	if !validText(sub.Name, sub.Email, sub.Message) {
		s.rejectText(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()
	err := s.mailer.Send(ctx, sub)
	s.recordContact(sub, err)

	if err != nil {
		s.metrics.ContactEmails.WithLabelValues("failed").Inc()
		s.requestLog(c).WithError(err).Errorw("Error sending contact email")
		c.HTML(http.StatusBadGateway, "failure.html", gin.H{"error": "Error: " + err.Error()})
		return
	}
	s.metrics.ContactEmails.WithLabelValues("sent").Inc()
	s.requestLog(c).Infow("Contact email sent")
	c.HTML(http.StatusOK, "success.html", gin.H{"message": "Message sent successfully!"})
}
