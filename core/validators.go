package core

import (
	"reflect"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

// Identity document types accepted for guardians and students.
const (
	DocNationalID = "national_id"
	DocForeignID  = "foreign_id"
	DocPassport   = "passport"
)

var (
	DocumentTypes = []string{DocNationalID, DocForeignID, DocPassport}

	// custom validation tags & texts
	docTypeTag  = "doctype"
	docTypeText = "invalid document type (expected one of: " + strings.Join(DocumentTypes, ", ") + ")"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(docTypeTag, docTypeValidation)
	RegisterCustomTranslation(validate, translator, docTypeTag, docTypeText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ValidateStruct validates s and converts validator errors into a *ValidationError
// keyed by the JSON path of each field (eg: "guardian.first_name").
func ValidateStruct(validate *validator.Validate, translator ut.Translator, s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "validating struct")
	}
	flds := make([]FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		flds = append(flds, FieldError{Field: FieldPath(vErr), Error: vErr.Translate(translator)})
	}
	return NewValidationError(nil, flds...)
}

// FieldPath returns the namespace of a field error without its root struct name.
func FieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Custom Global Validators

func docTypeValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, dt := range DocumentTypes {
		if val == dt {
			return true
		}
	}
	return false
}
