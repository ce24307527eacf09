package httpservice

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yourorg/csv-marshal-kit/pkg/errors"
)

var validate = validator.New()

func init() {
	// Numbers in untyped payloads stay json.Number so large integers are
	// rendered exactly instead of through float64.
	binding.EnableDecoderUseNumber = true
}

// ValidateJSON binds the JSON request body into req and validates it.
// On failure it writes a VALIDATION_ERROR response and returns false.
func ValidateJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		HandleError(c, errors.NewValidationError("Invalid JSON: "+err.Error()))
		return false
	}

	if err := validate.Struct(req); err != nil {
		HandleError(c, errors.NewValidationError("Validation failed: "+err.Error()))
		return false
	}

	return true
}

// HandleError writes err as a JSON error response. The status comes from
// the AppError in err's chain; anything else is an internal error.
func HandleError(c *gin.Context, err error) {
	appErr := errors.FromError(err)
	body := gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = errors.ToHTTPStatus(appErr.Code)
	}
	c.AbortWithStatusJSON(status, body)
}

// SuccessResponse sends a success response.
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"data": data,
	})
}

// CreatedResponse sends a created response.
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"data": data,
	})
}
