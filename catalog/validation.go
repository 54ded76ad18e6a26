package catalog

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	isbnPattern     = regexp.MustCompile(`^(?:\d{9}X|\d{10}|(978|979)\d{10})$`)
	coverURLPattern = regexp.MustCompile(`^(https?://)?([a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}(/\S*)?$`)
	draftValidator  = newDraftValidator()
)

// draftRules carries the validation rules of the add-book form.
type draftRules struct {
	Title    string `validate:"required,min=3"`
	Author   string `validate:"required,min=3"`
	ISBN     string `validate:"required,isbn_code"`
	CoverURL string `validate:"required,cover_url"`
}

func newDraftValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("isbn_code", func(fl validator.FieldLevel) bool {
		return isbnPattern.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("cover_url", func(fl validator.FieldLevel) bool {
		return coverURLPattern.MatchString(fl.Field().String())
	})

	return v
}

// Normalized returns a copy with surrounding whitespace removed and the status defaulted to AVAILABLE.
func (d Draft) Normalized() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Author = strings.TrimSpace(d.Author)
	d.ISBN = strings.TrimSpace(d.ISBN)
	d.CoverURL = strings.TrimSpace(d.CoverURL)

	if !d.Status.IsValid() {
		d.Status = StatusAvailable
	}

	return d
}

// ValidateDraft checks d against the add-book rules: title and author of at least three characters,
// an ISBN-10 or ISBN-13 without separators, and a cover URL. Failures wrap ErrValidation and
// the validator.ValidationErrors describing the offending fields.
func ValidateDraft(d Draft) error {
	d = d.Normalized()

	err := draftValidator.Struct(draftRules{
		Title:    d.Title,
		Author:   d.Author,
		ISBN:     d.ISBN,
		CoverURL: d.CoverURL,
	})
	if err != nil {
		return errors.Join(ErrValidation, err)
	}

	return nil
}

// InvalidFields lists the fields a ValidateDraft error complains about.
func InvalidFields(err error) []string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	fields := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		fields = append(fields, fieldErr.Field())
	}

	return fields
}
