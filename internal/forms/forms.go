// Package forms holds the multi-step form definitions shared by the
// storefront and the back office, plus the wizard that walks them.
package forms

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Values is keyed by field name; list fields carry several values.
type Values map[string][]string

func (v Values) Get(key string) string {
	if vs := v[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func (v Values) Set(key string, values ...string) {
	v[key] = values
}

func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Trimmed returns a copy with surrounding whitespace removed from every value.
// Services trim before validating so that what is checked is what gets parsed.
func (v Values) Trimmed() Values {
	out := make(Values, len(v))
	for k, vs := range v {
		t := make([]string, len(vs))
		for i, s := range vs {
			t[i] = strings.TrimSpace(s)
		}
		out[k] = t
	}
	return out
}

type FieldErrors map[string]string

type Field struct {
	Name       string
	Label      string
	Required   bool
	MinLen     int
	MaxLen     int
	Pattern    *regexp.Regexp
	PatternMsg string
	// Mask is the input filter: a value that does not match is refused
	// before it reaches the form state.
	Mask     *regexp.Regexp
	OneOf    []string
	Multi    bool
	Distinct bool
	Check    func(value string) string
}

type Step struct {
	Title  string
	Fields []Field
	Check  func(Values) FieldErrors
}

type Form struct {
	Name  string
	Steps []Step
}

type ValidationError struct {
	Form   string
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", e.Form, strings.Join(parts, "; "))
}

func (f *Form) TotalSteps() int { return len(f.Steps) }

func (f *Form) Field(name string) (Field, bool) {
	for _, s := range f.Steps {
		for _, fl := range s.Fields {
			if fl.Name == name {
				return fl, true
			}
		}
	}
	return Field{}, false
}

// ValidateStep checks the fields of step n (1-based).
func (f *Form) ValidateStep(n int, v Values) FieldErrors {
	errs := FieldErrors{}
	if n < 1 || n > len(f.Steps) {
		return errs
	}
	step := f.Steps[n-1]
	for _, fl := range step.Fields {
		if msg := fl.validate(v[fl.Name]); msg != "" {
			errs[fl.Name] = msg
		}
	}
	if step.Check != nil {
		for k, msg := range step.Check(v) {
			if _, taken := errs[k]; !taken {
				errs[k] = msg
			}
		}
	}
	return errs
}

// Validate runs every step and returns a *ValidationError or nil.
func (f *Form) Validate(v Values) error {
	all := FieldErrors{}
	for i := range f.Steps {
		for k, msg := range f.ValidateStep(i+1, v) {
			all[k] = msg
		}
	}
	if len(all) == 0 {
		return nil
	}
	return &ValidationError{Form: f.Name, Fields: all}
}

// Optional returns a copy where no field is required. Used for partial updates.
func (f *Form) Optional() *Form {
	out := &Form{Name: f.Name, Steps: make([]Step, len(f.Steps))}
	for i, s := range f.Steps {
		fields := make([]Field, len(s.Fields))
		for j, fl := range s.Fields {
			fl.Required = false
			fields[j] = fl
		}
		out.Steps[i] = Step{Title: s.Title, Fields: fields, Check: s.Check}
	}
	return out
}

func (fl Field) label() string {
	if fl.Label != "" {
		return fl.Label
	}
	return fl.Name
}

func (fl Field) validate(values []string) string {
	present := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			present = append(present, s)
		}
	}

	if len(present) == 0 {
		if fl.Required {
			if fl.Multi {
				return fmt.Sprintf("at least one %s is required", fl.label())
			}
			return fmt.Sprintf("%s is required", fl.label())
		}
		return ""
	}
	if !fl.Multi && len(present) > 1 {
		present = present[:1]
	}

	seen := make(map[string]struct{}, len(present))
	for _, s := range present {
		if msg := fl.validateOne(s); msg != "" {
			return msg
		}
		if fl.Distinct {
			key := strings.ToLower(s)
			if _, dup := seen[key]; dup {
				return fmt.Sprintf("duplicate %s %q", fl.label(), s)
			}
			seen[key] = struct{}{}
		}
	}
	return ""
}

func (fl Field) validateOne(s string) string {
	if fl.Mask != nil && !fl.Mask.MatchString(s) {
		return fmt.Sprintf("%s contains invalid characters", fl.label())
	}
	n := utf8.RuneCountInString(s)
	if fl.MinLen > 0 && n < fl.MinLen {
		return fmt.Sprintf("%s must be at least %d characters", fl.label(), fl.MinLen)
	}
	if fl.MaxLen > 0 && n > fl.MaxLen {
		return fmt.Sprintf("%s must be at most %d characters", fl.label(), fl.MaxLen)
	}
	if fl.Pattern != nil && !fl.Pattern.MatchString(s) {
		if fl.PatternMsg != "" {
			return fl.PatternMsg
		}
		return fmt.Sprintf("%s has an invalid format", fl.label())
	}
	if len(fl.OneOf) > 0 && !containsFold(fl.OneOf, s) {
		return fmt.Sprintf("%s must be one of: %s", fl.label(), strings.Join(fl.OneOf, ", "))
	}
	if fl.Check != nil {
		return fl.Check(s)
	}
	return ""
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
