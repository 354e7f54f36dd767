package main

import (
	"context"
	"fmt"

	"github.com/bilgisen/s13core/internal/auth"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/spf13/cobra"
)

const (
	ccLicense = "Creative Commons Attribution Share-Alike License"
	ccLink    = "https://creativecommons.org/licenses/by-sa/4.0/legalcode"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "** Applying migrations, if any.")
			a, err := open(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "** Database is up to date.")
			return nil
		},
	}
}

type userOptions struct {
	username string
	email    string
	password string
}

func (o *userOptions) flags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.username, "username", "", "administrator username")
	cmd.Flags().StringVar(&o.email, "email", "", "administrator email address")
	cmd.Flags().StringVar(&o.password, "password", "", "administrator password (prompted when empty)")
}

// create asks for whatever the flags left out and stores the account.
func (o *userOptions) create(ctx context.Context, p *prompter, users *auth.Service) (*models.User, error) {
	username, err := p.value(o.username, "Username", true)
	if err != nil {
		return nil, err
	}
	email, err := p.value(o.email, "Email address", false)
	if err != nil {
		return nil, err
	}
	password := o.password
	if password == "" {
		if password, err = p.ask("Password", true); err != nil {
			return nil, err
		}
		again, err := p.ask("Password (again)", true)
		if err != nil {
			return nil, err
		}
		if again != password {
			return nil, auth.ErrPasswordMismatch
		}
	}

	u := &models.User{Username: username, Email: email, IsStaff: true}
	if err := users.Create(ctx, u, password); err != nil {
		return nil, err
	}
	return u, nil
}

func (c *cli) createUserCmd() *cobra.Command {
	opts := &userOptions{}
	cmd := &cobra.Command{
		Use:   "createuser",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := opts.create(cmd.Context(), newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), a.users)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "** User %s created.\n", u.Username)
			return nil
		},
	}
	opts.flags(cmd)
	return cmd
}

type setupOptions struct {
	userOptions
	title           string
	description     string
	keywords        string
	copyright       string
	creativeCommons bool
}

func (c *cli) setupCmd() *cobra.Command {
	opts := &setupOptions{}
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Set up a new website",
		Long: `Set up a new S13Core website: apply migrations, create the main
administrator account and the initial website settings.

Values not given as flags are asked for interactively.

Examples:
  s13core setup
  s13core setup --username admin --password secret --title "My Site" \
    --copyright "(c) 2024 Me" --creative-commons=true`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return opts.run(cmd, a)
		},
	}
	opts.flags(cmd)
	cmd.Flags().StringVar(&opts.title, "title", "", "website title")
	cmd.Flags().StringVar(&opts.description, "description", "", "website description")
	cmd.Flags().StringVar(&opts.keywords, "keywords", "", "website keywords")
	cmd.Flags().StringVar(&opts.copyright, "copyright", "", "copyright statement")
	cmd.Flags().BoolVar(&opts.creativeCommons, "creative-commons", false, "license the content under CC BY-SA")
	return cmd
}

func (o *setupOptions) run(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()
	p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

	fmt.Fprintln(cmd.OutOrStdout(), "** Applying migrations, if any.")
	fmt.Fprintln(cmd.OutOrStdout(), "** Creating the main superuser account.")
	admin, err := o.create(ctx, p, a.users)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "** Collecting initial settings values.")
	title, err := p.value(o.title, "Website Title", true)
	if err != nil {
		return err
	}
	description, err := p.value(o.description, "Description", false)
	if err != nil {
		return err
	}
	keywords, err := p.value(o.keywords, "Keywords", false)
	if err != nil {
		return err
	}
	statement, err := p.value(o.copyright, "Copyright Statement", true)
	if err != nil {
		return err
	}
	cc := o.creativeCommons
	if !cmd.Flags().Changed("creative-commons") {
		if cc, err = p.yes("Use Creative Commons?"); err != nil {
			return err
		}
	}

	copyright := &models.CopyrightInfo{Statement: statement}
	if cc {
		copyright.License, copyright.Link = ccLicense, ccLink
	}
	if err := a.settings.SaveCopyright(ctx, copyright); err != nil {
		return err
	}
	contact := &models.ContactInfo{ContactName: "Website Administrator", Email: admin.Email}
	if err := a.settings.SaveContact(ctx, contact); err != nil {
		return err
	}

	st := models.NewSetting()
	st.Name = "Initial Settings"
	st.IsActive = true
	st.Title = title
	st.Description = description
	st.Keywords = keywords
	st.CopyrightID = &copyright.ID
	st.ContactIDs = []int64{contact.ID}
	st.CSS = `<link rel="stylesheet" href="/static/css/default.css" />`
	if err := a.settings.Save(ctx, st); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "** Website %q is ready. Start it with \"s13core serve\".\n", title)
	return nil
}
