package leads

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geo"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// Channel is the path a lead was created through. Each channel requires a
// different set of fields.
type Channel string

const (
	// ChannelPublic is the anonymous quoting form.
	ChannelPublic Channel = "public"
	// ChannelManual is staff data entry; acquisition source is mandatory.
	ChannelManual Channel = "manual"
	// ChannelDraft saves an unfinished quote before contact details exist.
	ChannelDraft Channel = "draft"
)

// Submission is the input for creating a lead.
type Submission struct {
	Email           *string            `json:"email"`
	ManualUnitPrice *float64           `json:"manualUnitPrice"`
	Vertices        []geo.LatLng       `json:"vertices"`
	Name            string             `json:"name"`
	Phone           string             `json:"phone"`
	Address         string             `json:"address"`
	City            string             `json:"city"`
	State           string             `json:"state"`
	PostalCode      string             `json:"postalCode"`
	MapReference    string             `json:"mapReference"`
	ProductID       string             `json:"productId"`
	PricingMode     models.PricingMode `json:"pricingMode"`
	Source          string             `json:"source"`
	Notes           string             `json:"notes"`
	Area            float64            `json:"area"`
	LogisticsCost   float64            `json:"logisticsCost"`
	InvoiceRequired bool               `json:"invoiceRequired"`
}

type contactRules struct {
	Email   *string `json:"email" validate:"omitempty,email"`
	Name    string  `json:"name" validate:"required,max=120"`
	Phone   string  `json:"phone" validate:"required,phone"`
	Address string  `json:"address" validate:"required,max=255"`
	City    string  `json:"city" validate:"required"`
}

type quoteRules struct {
	ManualUnitPrice *float64           `json:"manualUnitPrice" validate:"omitempty,gt=0"`
	ProductID       string             `json:"productId" validate:"required"`
	PricingMode     models.PricingMode `json:"pricingMode" validate:"omitempty,oneof=cash financed"`
	Area            float64            `json:"area" validate:"gt=0"`
	LogisticsCost   float64            `json:"logisticsCost" validate:"gte=0"`
}

type manualRules struct {
	State  string `json:"state" validate:"required"`
	Source string `json:"source" validate:"required,max=60"`
}

type draftRules struct {
	Email           *string            `json:"email" validate:"omitempty,email"`
	ManualUnitPrice *float64           `json:"manualUnitPrice" validate:"omitempty,gt=0"`
	Phone           string             `json:"phone" validate:"omitempty,phone"`
	PricingMode     models.PricingMode `json:"pricingMode" validate:"omitempty,oneof=cash financed"`
	Area            float64            `json:"area" validate:"gte=0"`
	LogisticsCost   float64            `json:"logisticsCost" validate:"gte=0"`
}

var phonePattern = regexp.MustCompile(`^\+?[0-9()\-\s.]{10,20}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !phonePattern.MatchString(s) {
			return false
		}
		digits := 0
		for _, r := range s {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		return digits >= 10 && digits <= 15
	})
	return v
}

// ValidateSubmission checks the fields the channel requires.
func ValidateSubmission(ch Channel, sub Submission) error {
	switch ch {
	case ChannelDraft:
		return check(draftRules{
			Email:           sub.Email,
			ManualUnitPrice: sub.ManualUnitPrice,
			Phone:           sub.Phone,
			PricingMode:     sub.PricingMode,
			Area:            sub.Area,
			LogisticsCost:   sub.LogisticsCost,
		})
	case ChannelPublic, ChannelManual:
	default:
		return NewValidationError("channel", "Must be one of: public manual draft")
	}

	rules := []interface{}{
		contactRules{Email: sub.Email, Name: sub.Name, Phone: sub.Phone, Address: sub.Address, City: sub.City},
		quoteRules{
			ManualUnitPrice: sub.ManualUnitPrice,
			ProductID:       sub.ProductID,
			PricingMode:     sub.PricingMode,
			Area:            sub.Area,
			LogisticsCost:   sub.LogisticsCost,
		},
	}
	if ch == ChannelManual {
		rules = append(rules, manualRules{State: sub.State, Source: sub.Source})
	}
	return check(rules...)
}

// ValidateContact checks that a lead carries everything a submitted
// (non-draft) lead needs: contact details, location, product and area.
func ValidateContact(l models.Lead) error {
	return check(
		contactRules{Email: l.Email, Name: l.Name, Phone: l.Phone, Address: l.Address, City: l.City},
		quoteRules{
			ManualUnitPrice: l.ManualUnitPrice,
			ProductID:       l.ProductID,
			PricingMode:     l.PricingMode,
			Area:            l.Area,
			LogisticsCost:   l.LogisticsCost,
		},
	)
}

func check(rules ...interface{}) error {
	fields := make(map[string]string)
	for _, r := range rules {
		err := validate.Struct(r)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "phone":
		return "Must be a valid phone number"
	case "max":
		return "Value is too long (maximum: " + fe.Param() + ")"
	case "gt":
		return "Must be greater than " + fe.Param()
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	default:
		return "Validation failed for tag: " + fe.Tag()
	}
}
