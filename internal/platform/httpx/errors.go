package httpx

import (
	"errors"
	"net/http"

	"github.com/artha-erp/artha-erp/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. Domain errors
// carry a stable code; anything without one is treated as an internal failure and
// its message is withheld from the caller.
func RespondError(w http.ResponseWriter, err error) {
	var de *shared.Error
	if !errors.As(err, &de) {
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	status := http.StatusBadRequest
	title := "Validation Failed"
	switch de.Code {
	case shared.CodeNotFound:
		status, title = http.StatusNotFound, "Not Found"
	case shared.CodeDuplicate:
		status, title = http.StatusConflict, "Duplicate"
	case shared.CodeReferentialIntegrity:
		status, title = http.StatusConflict, "Dependents Exist"
	case shared.CodeInsufficientStock:
		status, title = http.StatusUnprocessableEntity, "Insufficient Stock"
	case shared.CodeImbalancedEntry:
		status, title = http.StatusUnprocessableEntity, "Imbalanced Entry"
	case shared.CodeMissingAccountMapping:
		status, title = http.StatusUnprocessableEntity, "Missing Account Mapping"
	case shared.CodeUnauthorized:
		status, title = http.StatusUnauthorized, "Unauthorized"
	}

	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: de.Message,
		Code:   string(de.Code),
		Fields: de.Fields,
	})
}
