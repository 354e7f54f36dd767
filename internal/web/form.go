package web

import (
	"strconv"
	"strings"
	"time"

	"github.com/bilgisen/s13core/internal/middleware"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/gofiber/fiber/v2"
)

// Input types understood by the "field" admin partial.
const (
	inputText     = "text"
	inputTextarea = "textarea"
	inputCode     = "code"
	inputNumber   = "number"
	inputCheckbox = "checkbox"
	inputSelect   = "select"
	inputMulti    = "multiselect"
	inputDateTime = "datetime-local"
	inputFile     = "file"
	inputEmail    = "email"
	inputURL      = "url"
)

const dateTimeInput = "2006-01-02T15:04"

// Field describes one form input and how a submitted value is stored.
type Field struct {
	Name     string
	Label    string
	Type     string
	Help     string
	Required bool
	Choices  []models.Choice
	Value    string
	Checked  bool
	Selected map[string]bool

	// rule is the validator tag each submitted value must pass before it
	// is stored. "required" is added for required fields.
	rule     string
	set      func(string)
	setMulti func([]string)
}

func textField(name, label string, dst *string) *Field {
	return &Field{Name: name, Label: label, Type: inputText, Value: *dst,
		set: func(v string) { *dst = strings.TrimSpace(v) }}
}

func areaField(name, label string, dst *string) *Field {
	return &Field{Name: name, Label: label, Type: inputTextarea, Value: *dst,
		set: func(v string) { *dst = strings.ReplaceAll(v, "\r\n", "\n") }}
}

func codeField(name, label string, dst *string) *Field {
	f := areaField(name, label, dst)
	f.Type = inputCode
	return f
}

func intField(name, label string, dst *int) *Field {
	return &Field{Name: name, Label: label, Type: inputNumber, Value: strconv.Itoa(*dst), Required: true,
		rule: "number,max=9",
		set:  func(v string) { *dst, _ = strconv.Atoi(v) }}
}

func boolField(name, label string, dst *bool) *Field {
	return &Field{Name: name, Label: label, Type: inputCheckbox, Checked: *dst,
		set: func(v string) { *dst = v != "" && v != "off" && v != "false" }}
}

func choiceField(name, label string, dst *string, choices []models.Choice) *Field {
	return &Field{Name: name, Label: label, Type: inputSelect, Value: *dst, Choices: choices, Required: true,
		rule: oneOf(choices),
		set:  func(v string) { *dst = v }}
}

// refField selects an optional foreign key. The empty choice clears it.
func refField(name, label string, dst **int64, choices []models.Choice) *Field {
	value := ""
	if *dst != nil {
		value = strconv.FormatInt(**dst, 10)
	}
	all := append([]models.Choice{{Value: "", Label: "---------"}}, choices...)
	return &Field{Name: name, Label: label, Type: inputSelect, Value: value, Choices: all,
		rule: oneOf(choices),
		set: func(v string) {
			if v == "" {
				*dst = nil
				return
			}
			id, _ := strconv.ParseInt(v, 10, 64)
			*dst = &id
		}}
}

func multiField(name, label string, dst *[]int64, choices []models.Choice) *Field {
	selected := map[string]bool{}
	for _, id := range *dst {
		selected[strconv.FormatInt(id, 10)] = true
	}
	return &Field{Name: name, Label: label, Type: inputMulti, Choices: choices, Selected: selected,
		rule: oneOf(choices),
		setMulti: func(vs []string) {
			ids := make([]int64, 0, len(vs))
			for _, v := range vs {
				id, _ := strconv.ParseInt(v, 10, 64)
				ids = append(ids, id)
			}
			*dst = ids
		}}
}

// oneOf builds a validator oneof tag accepting the choice values.
func oneOf(choices []models.Choice) string {
	vals := make([]string, 0, len(choices))
	for _, c := range choices {
		if c.Value == "" {
			continue
		}
		v := strings.NewReplacer(",", "0x2C", "|", "0x7C", "'", "").Replace(c.Value)
		if strings.ContainsAny(v, " \t") {
			v = "'" + v + "'"
		}
		vals = append(vals, v)
	}
	return "oneof=" + strings.Join(vals, " ")
}

func dateField(name, label string, dst *time.Time) *Field {
	value := ""
	if !dst.IsZero() {
		value = dst.Local().Format(dateTimeInput)
	}
	return &Field{Name: name, Label: label, Type: inputDateTime, Value: value,
		rule: "datetime=" + dateTimeInput,
		set: func(v string) {
			if v == "" {
				*dst = time.Time{}
				return
			}
			*dst, _ = time.ParseInLocation(dateTimeInput, v, time.Local)
		}}
}

func (f *Field) required() *Field {
	f.Required = true
	return f
}

func (f *Field) help(text string) *Field {
	f.Help = text
	return f
}

func (f *Field) as(typ string) *Field {
	f.Type = typ
	return f
}

// max limits the length of the submitted text.
func (f *Field) max(n int) *Field {
	if f.rule != "" {
		f.rule += ","
	}
	f.rule += "max=" + strconv.Itoa(n)
	return f
}

// tag is the full validator tag for one submitted value.
func (f *Field) tag() string {
	switch {
	case f.Required && f.Type != inputCheckbox && f.setMulti == nil:
		if f.rule == "" {
			return "required"
		}
		return "required," + f.rule
	case f.rule != "":
		return "omitempty," + f.rule
	}
	return ""
}

// bind checks the submitted values with v and copies them into the
// fields' destinations. Each failure is reported as "message: field" and
// leaves its destination untouched.
func bind(c *fiber.Ctx, v *middleware.Validator, fields []*Field) []string {
	var errs []string
	for _, f := range fields {
		tag := f.tag()
		switch {
		case f.Type == inputFile:
			continue
		case f.setMulti != nil:
			var vs []string
			for _, val := range c.Request().PostArgs().PeekMulti(f.Name) {
				vs = append(vs, string(val))
			}
			if form, ferr := c.MultipartForm(); ferr == nil && len(vs) == 0 {
				vs = form.Value[f.Name]
			}
			var bad []string
			for _, val := range vs {
				if tag != "" {
					bad = append(bad, v.Var(f.Name, val, tag)...)
				}
			}
			if len(bad) > 0 {
				errs = append(errs, bad...)
				continue
			}
			f.setMulti(vs)
		case f.set != nil:
			val := c.FormValue(f.Name)
			if f.Type != inputTextarea && f.Type != inputCode {
				val = strings.TrimSpace(val)
			}
			if tag != "" {
				check := val
				if f.Type == inputTextarea || f.Type == inputCode {
					check = strings.TrimSpace(val)
				}
				if bad := v.Var(f.Name, check, tag); len(bad) > 0 {
					errs = append(errs, bad...)
					continue
				}
			}
			f.set(val)
		}
	}
	return errs
}

func idChoices[T any](items []T, id func(T) int64, label func(T) string) []models.Choice {
	out := make([]models.Choice, 0, len(items))
	for _, it := range items {
		out = append(out, models.Choice{Value: strconv.FormatInt(id(it), 10), Label: label(it)})
	}
	return out
}

func stringChoices(values []string) []models.Choice {
	out := make([]models.Choice, 0, len(values))
	for _, v := range values {
		out = append(out, models.Choice{Value: v, Label: v})
	}
	return out
}

func (f *Field) optional() *Field {
	f.Required = false
	return f
}
