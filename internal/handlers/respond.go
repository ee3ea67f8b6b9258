package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/errors"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geo"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geocoding"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/leads"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/pricing"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/services"
)

// Binding errors report the JSON field name the client sent.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				if name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]; name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	}
}

// bindJSON decodes the request body into req and writes a 400 response when
// it is malformed or fails its binding tags.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid request body", map[string]interface{}{
			"reason": err.Error(),
		})
		return false
	}
	return true
}

// bindQueryError writes the 400 response for a failed query binding.
func bindQueryError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, "Invalid query parameters", nil)
}

// respondError maps a domain error onto the API error envelope. fallback is
// the message used for remote and unexpected failures.
func respondError(c *gin.Context, err error, fallback string) {
	var verr *leads.ValidationError
	switch {
	case errors.As(err, &verr):
		apierrors.ValidationFields(c, verr.Fields)

	case errors.Is(err, leads.ErrForbidden),
		errors.Is(err, services.ErrInvalidPassphrase),
		errors.Is(err, services.ErrInvalidPurgeToken):
		apierrors.Forbidden(c, err.Error())

	case errors.Is(err, leads.ErrNotFound):
		apierrors.NotFound(c, "Lead not found")
	case errors.Is(err, pricing.ErrProductNotFound):
		apierrors.NotFound(c, "Product is not offered in this city")
	case errors.Is(err, geocoding.ErrNotFound):
		apierrors.NotFound(c, "No address matched the search")

	case errors.Is(err, leads.ErrConflict):
		apierrors.Conflict(c, "Lead was modified by someone else, reload and try again")
	case errors.Is(err, services.ErrPurgeInProgress):
		apierrors.Conflict(c, err.Error())

	case errors.Is(err, pricing.ErrInvalidArea):
		apierrors.ValidationFields(c, map[string]string{"area": "Must be greater than 0"})
	case errors.Is(err, pricing.ErrInvalidOverride):
		apierrors.ValidationFields(c, map[string]string{"manualUnitPrice": "Must be greater than 0"})
	case errors.Is(err, geo.ErrInvalidCoordinates),
		errors.Is(err, geocoding.ErrEmptyQuery):
		apierrors.BadRequest(c, err.Error(), nil)

	case errors.Is(err, geocoding.ErrUnavailable),
		errors.Is(err, services.ErrPurgeDisabled):
		apierrors.ServiceUnavailable(c, err.Error())

	case errors.Is(err, leads.ErrRemote):
		apierrors.RemoteFailure(c, fallback, err)
	default:
		apierrors.InternalServerError(c, fallback, err)
	}
}
