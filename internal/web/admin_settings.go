package web

import (
	"context"
	"strconv"

	"github.com/bilgisen/s13core/internal/models"
	"github.com/gofiber/fiber/v2"
)

// pointers adapts repositories returning value slices.
func pointers[T any](items []T, err error) ([]*T, error) {
	if err != nil {
		return nil, err
	}
	out := make([]*T, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func (h *Handlers) settingResource() *resource[*models.Setting] {
	return &resource[*models.Setting]{
		Name:        "Settings",
		Plural:      "Website Settings List",
		Description: "View and select website settings for editing or create new settings.",
		Path:        "/s13admin/settings/",
		Nav:         "settings",
		Columns:     []string{"Name", "Website Title", "Active", "Last Edit"},
		List: func(ctx context.Context, _ string) ([]*models.Setting, error) {
			return h.settings.List(ctx)
		},
		Get: h.settings.Get,
		New: func(*fiber.Ctx) (*models.Setting, error) {
			return models.NewSetting(), nil
		},
		Fields: h.settingFields,
		Save: func(c *fiber.Ctx, st *models.Setting) error {
			return h.settings.Save(c.UserContext(), st)
		},
		Delete: h.settings.Delete,
		Row: func(st *models.Setting) Row {
			return Row{ID: st.ID, URL: "/s13admin/settings/" + strconv.FormatInt(st.ID, 10) + "/update/",
				Cells: []string{st.Name, st.Title, yesNo(st.IsActive), st.DateEdit.Format(models.DateFormat)}}
		},
	}
}

func (h *Handlers) settingFields(ctx context.Context, st *models.Setting) ([]*Field, error) {
	copyrights, err := h.settings.Copyrights(ctx)
	if err != nil {
		return nil, err
	}
	disclaimers, err := h.settings.Disclaimers(ctx)
	if err != nil {
		return nil, err
	}
	contacts, err := h.settings.Contacts(ctx)
	if err != nil {
		return nil, err
	}

	return []*Field{
		textField("name", "Name", &st.Name).required(),
		boolField("is_active", "Active", &st.IsActive).help("Activating these settings deactivates the others."),
		textField("title", "Website Title", &st.Title).required(),
		areaField("description", "Description", &st.Description),
		textField("keywords", "Keywords", &st.Keywords),
		boolField("append_keywords", "Append Keywords", &st.AppendKeywords).help("Append these keywords to every article's keywords."),
		choiceField("nohome_content_type", "No Homepage Content", &st.NohomeContentType, models.NohomeChoices),
		intField("nohome_content_items", "No Homepage Items", &st.NohomeContentItems),
		intField("keywords_search_items", "Search Results Per Page", &st.KeywordsSearchItems),
		textField("nohome_title", "No Homepage Title", &st.NohomeTitle),
		codeField("nohome_custom", "No Homepage Custom HTML", &st.NohomeCustom),
		codeField("css", "CSS", &st.CSS),
		codeField("js", "JavaScript", &st.JS),
		refField("copyright", "Copyright", &st.CopyrightID, idChoices(copyrights,
			func(c models.CopyrightInfo) int64 { return c.ID }, func(c models.CopyrightInfo) string { return c.Statement })),
		refField("disclaimer", "Disclaimer", &st.DisclaimerID, idChoices(disclaimers,
			func(d models.Disclaimer) int64 { return d.ID }, func(d models.Disclaimer) string { return d.Title })),
		multiField("contacts", "Contacts", &st.ContactIDs, idChoices(contacts,
			func(c models.ContactInfo) int64 { return c.ID }, func(c models.ContactInfo) string { return c.ContactName })),
	}, nil
}

func (h *Handlers) contactResource() *resource[*models.ContactInfo] {
	return &resource[*models.ContactInfo]{
		Name:        "Contact information",
		Plural:      "Website Contact Information List",
		Description: "View and select website contact information for editing.",
		Path:        "/s13admin/settings/contact-info/",
		Nav:         "settings",
		Columns:     []string{"Name", "Email", "Phone", "Weight"},
		List: func(ctx context.Context, _ string) ([]*models.ContactInfo, error) {
			return pointers(h.settings.Contacts(ctx))
		},
		Get: h.settings.GetContact,
		New: func(*fiber.Ctx) (*models.ContactInfo, error) {
			return models.NewContactInfo(), nil
		},
		Fields: func(_ context.Context, ci *models.ContactInfo) ([]*Field, error) {
			return []*Field{
				textField("contact_name", "Contact Name", &ci.ContactName).required(),
				codeField("address", "Address", &ci.Address).help("May use template actions, e.g. {{.Site.Title}}."),
				textField("email", "Email", &ci.Email).as(inputEmail),
				textField("phone", "Phone", &ci.Phone),
				intField("weight", "Weight", &ci.Weight),
			}, nil
		},
		Save: func(c *fiber.Ctx, ci *models.ContactInfo) error {
			return h.settings.SaveContact(c.UserContext(), ci)
		},
		Delete: h.settings.DeleteContact,
		Row: func(ci *models.ContactInfo) Row {
			return Row{ID: ci.ID, URL: "/s13admin/settings/contact-info/" + strconv.FormatInt(ci.ID, 10) + "/update/",
				Cells: []string{ci.ContactName, ci.Email, ci.Phone, strconv.Itoa(ci.Weight)}}
		},
	}
}

func (h *Handlers) copyrightResource() *resource[*models.CopyrightInfo] {
	return &resource[*models.CopyrightInfo]{
		Name:        "Copyright information",
		Plural:      "Website Copyright Information List",
		Description: "View and select website copyright information for editing.",
		Path:        "/s13admin/settings/copyright-info/",
		Nav:         "settings",
		Columns:     []string{"Statement", "License"},
		List: func(ctx context.Context, _ string) ([]*models.CopyrightInfo, error) {
			return pointers(h.settings.Copyrights(ctx))
		},
		Get: h.settings.GetCopyright,
		New: func(*fiber.Ctx) (*models.CopyrightInfo, error) {
			return &models.CopyrightInfo{}, nil
		},
		Fields: func(_ context.Context, ci *models.CopyrightInfo) ([]*Field, error) {
			return []*Field{
				areaField("statement", "Statement", &ci.Statement).required(),
				textField("license", "License", &ci.License),
				textField("link", "Link", &ci.Link).as(inputURL),
			}, nil
		},
		Save: func(c *fiber.Ctx, ci *models.CopyrightInfo) error {
			return h.settings.SaveCopyright(c.UserContext(), ci)
		},
		Delete: h.settings.DeleteCopyright,
		Row: func(ci *models.CopyrightInfo) Row {
			return Row{ID: ci.ID, URL: "/s13admin/settings/copyright-info/" + strconv.FormatInt(ci.ID, 10) + "/update/",
				Cells: []string{ci.Statement, ci.License}}
		},
	}
}

func (h *Handlers) disclaimerResource() *resource[*models.Disclaimer] {
	return &resource[*models.Disclaimer]{
		Name:        "Disclaimer",
		Plural:      "Website Disclaimer List",
		Description: "View and select website disclaimer for editing.",
		Path:        "/s13admin/settings/disclaimers/",
		Nav:         "settings",
		Columns:     []string{"Title"},
		List: func(ctx context.Context, _ string) ([]*models.Disclaimer, error) {
			return pointers(h.settings.Disclaimers(ctx))
		},
		Get: h.settings.GetDisclaimer,
		New: func(*fiber.Ctx) (*models.Disclaimer, error) {
			return models.NewDisclaimer(), nil
		},
		Fields: func(_ context.Context, d *models.Disclaimer) ([]*Field, error) {
			return []*Field{
				textField("title", "Title", &d.Title).required(),
				codeField("body", "Body", &d.Body),
			}, nil
		},
		Save: func(c *fiber.Ctx, d *models.Disclaimer) error {
			return h.settings.SaveDisclaimer(c.UserContext(), d)
		},
		Delete: h.settings.DeleteDisclaimer,
		Row: func(d *models.Disclaimer) Row {
			return Row{ID: d.ID, URL: "/s13admin/settings/disclaimers/" + strconv.FormatInt(d.ID, 10) + "/update/",
				Cells: []string{d.Title}}
		},
	}
}
