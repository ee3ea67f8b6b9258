package errors

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
)

// Field messages follow the client's Accept-Language. English is the
// default; the quoting site sends es-MX.
var (
	supportedLocales = []string{"en", "es"}
	localeMatcher    = language.NewMatcher([]language.Tag{language.English, language.Spanish})
	translations     = newTranslations()
)

const (
	msgValidationFailed = "validation_failed"
	msgUnknownTag       = "unknown_tag"
)

var messageCatalog = []struct {
	key    string
	en, es string
}{
	{msgValidationFailed, "Validation failed for one or more fields", "Uno o más campos no son válidos"},
	{msgUnknownTag, "Validation failed for tag: {0}", "Falló la validación: {0}"},
	{"required", "This field is required", "Este campo es obligatorio"},
	{"email", "Must be a valid email address", "Debe ser un correo electrónico válido"},
	{"phone", "Must be a valid phone number", "Debe ser un número de teléfono válido"},
	{"min", "Value is too short or small (minimum: {0})", "El valor es demasiado corto o pequeño (mínimo: {0})"},
	{"max", "Value is too long or large (maximum: {0})", "El valor es demasiado largo o grande (máximo: {0})"},
	{"len", "Must have length of {0}", "Debe tener una longitud de {0}"},
	{"gt", "Must be greater than {0}", "Debe ser mayor que {0}"},
	{"gte", "Must be greater than or equal to {0}", "Debe ser mayor o igual que {0}"},
	{"lt", "Must be less than {0}", "Debe ser menor que {0}"},
	{"lte", "Must be less than or equal to {0}", "Debe ser menor o igual que {0}"},
	{"oneof", "Must be one of: {0}", "Debe ser uno de: {0}"},
	{"uuid", "Must be a valid UUID", "Debe ser un UUID válido"},
}

// tagKeys folds validator tags that share a message.
var tagKeys = map[string]string{
	"required_if":   "required",
	"required_with": "required",
	"e164":          "phone",
}

// withParam lists the messages that take the tag parameter.
var withParam = map[string]bool{
	"min": true, "max": true, "len": true, "gt": true, "gte": true,
	"lt": true, "lte": true, "oneof": true,
}

func newTranslations() *ut.UniversalTranslator {
	english := en.New()
	uni := ut.New(english, english, es.New())

	for _, m := range messageCatalog {
		for locale, text := range map[string]string{"en": m.en, "es": m.es} {
			trans, _ := uni.GetTranslator(locale)
			if err := trans.Add(m.key, text, false); err != nil {
				panic("errors: bad message " + m.key + ": " + err.Error())
			}
		}
	}
	return uni
}

// Translator picks the message locale for the request.
func Translator(c *gin.Context) ut.Translator {
	locale := supportedLocales[0]
	if c != nil && c.Request != nil {
		if tags, _, err := language.ParseAcceptLanguage(c.GetHeader("Accept-Language")); err == nil && len(tags) > 0 {
			if _, idx, conf := localeMatcher.Match(tags...); conf != language.No {
				locale = supportedLocales[idx]
			}
		}
	}
	trans, _ := translations.GetTranslator(locale)
	return trans
}

func translate(trans ut.Translator, key string, params ...string) string {
	s, err := trans.T(key, params...)
	if err != nil {
		return key
	}
	return s
}

// FormatValidationError renders a binding failure in the translator's locale.
func FormatValidationError(trans ut.Translator, fe validator.FieldError) string {
	key := fe.Tag()
	if folded, ok := tagKeys[key]; ok {
		key = folded
	}

	var params []string
	if withParam[key] {
		params = []string{fe.Param()}
	}
	s, err := trans.T(key, params...)
	if err != nil {
		return translate(trans, msgUnknownTag, fe.Tag())
	}
	return s
}
