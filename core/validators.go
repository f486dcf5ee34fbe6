package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	personNameTag   = "personname"
	personNameText  = "full name must contain only letters, spaces, hyphens or apostrophes"
	personNameRegex = regexp.MustCompile(`^[A-Za-zÀ-ÖØ-öø-ÿ' \-]+$`)

	clientNameTag   = "clientname"
	clientNameText  = "full name must be alphabetical"
	clientNameRegex = regexp.MustCompile(`^[A-Za-zÀ-ÖØ-öø-ÿ\- ]+$`)

	collabEmailTag   = "collabemail"
	collabEmailText  = "invalid email address format"
	collabEmailRegex = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

	clientEmailTag   = "clientemail"
	clientEmailText  = "invalid email address format"
	clientEmailRegex = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

	frPhoneTag           = "frphone"
	frPhoneText          = "invalid phone number (expected 0X XX XX XX XX or +33X XX XX XX XX)"
	frPhoneNational      = regexp.MustCompile(`^0[1-9](?:[ .-]?\d{2}){4}$`)
	frPhoneInternational = regexp.MustCompile(`^\+33[1-9](?:[ .-]?\d{2}){4}$`)

	amountTag  = "amount"
	amountText = "amount must be a positive number with at most 2 decimals"

	dateTag  = "date"
	dateText = "invalid date (expected DD-MM-YYYY)"

	dateTimeTag  = "datetime_fr"
	dateTimeText = "invalid date (expected DD-MM-YYYY HH:MM)"

	requiredTag  = "required"
	requiredText = "this field is required"

	numericTag  = "number"
	numericText = "must be a positive whole number"
)

func init() {
	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	Validate = validator.New()
	InitValidators(Validate, Translator)
}

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
	registerRegexValidation(validate, translator, personNameTag, personNameText, personNameRegex)
	registerRegexValidation(validate, translator, clientNameTag, clientNameText, clientNameRegex)
	registerRegexValidation(validate, translator, collabEmailTag, collabEmailText, collabEmailRegex)
	registerRegexValidation(validate, translator, clientEmailTag, clientEmailText, clientEmailRegex)

	_ = validate.RegisterValidation(frPhoneTag, frPhoneValidation)
	RegisterCustomTranslation(validate, translator, frPhoneTag, frPhoneText)

	_ = validate.RegisterValidation(amountTag, amountValidation)
	RegisterCustomTranslation(validate, translator, amountTag, amountText)

	_ = validate.RegisterValidation(dateTag, dateValidation)
	RegisterCustomTranslation(validate, translator, dateTag, dateText)

	_ = validate.RegisterValidation(dateTimeTag, dateTimeValidation)
	RegisterCustomTranslation(validate, translator, dateTimeTag, dateTimeText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, numericTag, numericText, true)
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

func registerRegexValidation(validate *validator.Validate, translator ut.Translator, tag, text string, re *regexp.Regexp) {
	_ = validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	RegisterCustomTranslation(validate, translator, tag, text)
}

// Custom Global Validators

// frPhoneValidation accepts french national and international numbers, spaces ignored.
func frPhoneValidation(fl validator.FieldLevel) bool {
	phone := CleanPhone(fl.Field().String())
	return frPhoneNational.MatchString(phone) || frPhoneInternational.MatchString(phone)
}

func amountValidation(fl validator.FieldLevel) bool {
	_, err := ParseAmount(fl.Field().String())
	return err == nil
}

func dateValidation(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}

func dateTimeValidation(fl validator.FieldLevel) bool {
	_, err := ParseDateTime(fl.Field().String())
	return err == nil
}

// ValidateVar validates a single raw value against tag and returns a translated error.
func ValidateVar(field, value, tag string) error {
	if err := Validate.Var(value, tag); err != nil {
		if vErrs, ok := err.(validator.ValidationErrors); ok && len(vErrs) > 0 {
			msg := vErrs[0].Translate(Translator)
			return &ValidationError{
				Err:    errors.New(msg),
				Fields: []FieldError{{Field: field, Error: msg}},
			}
		}
		return err
	}
	return nil
}
