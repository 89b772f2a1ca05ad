package response

import "github.com/gin-gonic/gin"

const (
	CodeOK = 0

	CodeBadRequest                 = 40000
	CodeUsernameExists             = 40001
	CodeEmailExists                = 40002
	CodePasswordMismatch           = 40003
	CodeInactiveUser               = 40004
	CodeNoOrganization             = 40005
	CodeUnsupportedFileType        = 40006
	CodeFileTooLarge               = 40007
	CodeConfirmationRequired       = 40008
	CodeOrganizationNameMismatch   = 40009
	CodeUnauthorized               = 40100
	CodeInvalidCredentials         = 40101
	CodeForbidden                  = 40300
	CodeNotFound                   = 40400
	CodeOrganizationNotFound       = 40401
	CodeDocumentNotFound           = 40402
	CodeConflict                   = 40900
	CodeDocumentExists             = 40901
	CodeOrganizationExists         = 40902
	CodeAlreadyInOrganization      = 40903
	CodeIngestionInProgress        = 40904
	CodeInternalServer             = 50000
	CodeUpstream                   = 50001
	CodeEmbeddingDimensionMismatch = 50002
	CodeExtraction                 = 50003
)

type APIResponse struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	Status(c, 200, data)
}

// Status writes a successful envelope with a non-200 status such as 201 or 202.
func Status(c *gin.Context, httpStatus int, data interface{}) {
	c.JSON(httpStatus, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:      code,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
	})
}

// RequestIDKey is where the request id middleware stores the id on the gin context.
const RequestIDKey = "request_id"
