package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rogermuhire/portfolio/internal/config"
	"github.com/rogermuhire/portfolio/internal/contact"
	"github.com/rogermuhire/portfolio/internal/content"
	"github.com/rogermuhire/portfolio/internal/logger"
	"github.com/rogermuhire/portfolio/internal/store"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "portfolio",
		Short:        "Personal portfolio web server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a portfolio.yaml config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the portfolio web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load the profile and testimonial files and report their state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, configPath)
		},
	})
	return root
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer log.Sync()

	gin.SetMode(cfg.Server.Mode)

	catalog, err := content.Default()
	if err != nil {
		return err
	}

	db, err := openDB(cfg.DB.Path)
	if err != nil {
		log.WithError(err).Errorw("Failed to open analytics database")
		return err
	}
	defer db.Close()

	srv, err := newServer(serverDeps{
		cfg:     cfg,
		log:     log,
		fs:      afero.NewOsFs(),
		mailer:  contact.NewMailer(cfg.Mail, log),
		catalog: catalog,
		db:      db,
	})
	if err != nil {
		return err
	}

	// A corrupt backing file stops the process before it starts serving.
	profile, err := srv.profiles.Load()
	if err != nil {
		log.WithError(err).Errorw("Cannot load profile", "path", srv.profiles.Path())
		return err
	}
	testimonials, err := srv.testimonials.Load()
	if err != nil {
		log.WithError(err).Errorw("Cannot load testimonials", "path", srv.testimonials.Path())
		return err
	}
	if _, err := srv.cleanupOldVisitorData(); err != nil {
		log.WithError(err).Warnw("Visitor cleanup failed")
	}

	log.Infow("Portfolio starting",
		"addr", cfg.Addr(),
		"owner", profile.Name,
		"testimonials", len(testimonials),
		"mail_relay", cfg.Mail.Addr(),
	)
	if cfg.Admin.DefaultUsername() {
		log.Warnw("Using default admin username. Set ADMIN_USERNAME environment variable.")
	}
	if cfg.Admin.DefaultPassword() {
		log.Warnw("Using default admin password. Set ADMIN_PASSWORD environment variable.")
	}
	log.Infow("Admin access available", "path", "/admin/login")
	return srv.routes().Run(cfg.Addr())
}

func runCheck(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	fs := afero.NewOsFs()
	profiles := store.NewProfileStore(fs, cfg.Storage.Resolve(cfg.Storage.ProfileFile))
	testimonials := store.NewTestimonialStore(fs, cfg.Storage.Resolve(cfg.Storage.TestimonialsFile))

	profile, err := profiles.Load()
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	list, err := testimonials.Load()
	if err != nil {
		return fmt.Errorf("testimonials: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "profile      %s: %s (%s), picture %s\n", profiles.Path(), profile.Name, profile.Location, profile.ProfilePic)
	fmt.Fprintf(out, "testimonials %s: %d stored\n", testimonials.Path(), len(list))
	return nil
}
