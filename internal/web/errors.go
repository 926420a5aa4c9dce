package web

// errors.go maps technical errors to user-facing messages with stable codes.
// Users quote the code to support staff; staff correlate it with the logged
// technical error via the request ID.

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"error"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error substrings (case-insensitive) to user
// messages. First match wins, so specific patterns come before general ones.
var errorPatterns = []errorPattern{
	// Roster file errors (FILE001-FILE006)
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a roster file with at least one data row",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "Only .csv and .xlsx roster files are supported",
			Action:  "Export your roster as CSV or Excel and try again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "The file is not a valid CSV",
			Action:  "Ensure the file is comma-separated with consistent quoting",
			Code:    "FILE003",
		},
	},
	{
		pattern: "invalid xlsx",
		msg: UserMessage{
			Message: "The Excel workbook could not be read",
			Action:  "Re-save the file as .xlsx and try again",
			Code:    "FILE004",
		},
	},
	{
		pattern: "missing required columns",
		msg: UserMessage{
			Message: "The roster is missing required columns",
			Action:  "Download the template and match its column headers",
			Code:    "FILE005",
		},
	},
	{
		pattern: "no data rows",
		msg: UserMessage{
			Message: "No employee rows were found after the header",
			Action:  "Add at least one employee row below the header",
			Code:    "FILE006",
		},
	},

	// Photo archive errors (ZIP001-ZIP002)
	{
		pattern: "open archive",
		msg: UserMessage{
			Message: "The photo archive could not be opened",
			Action:  "Upload an uncorrupted .zip file",
			Code:    "ZIP001",
		},
	},
	{
		pattern: "no image files",
		msg: UserMessage{
			Message: "The archive contains no photos",
			Action:  "Include .jpg, .png, .webp or .gif files named by employee ID",
			Code:    "ZIP002",
		},
	},

	// Batch state errors (BATCH001-BATCH003)
	{
		pattern: "no roster loaded",
		msg: UserMessage{
			Message: "No roster has been loaded yet",
			Action:  "Upload a roster file first",
			Code:    "BATCH001",
		},
	},
	{
		pattern: "no photo archive loaded",
		msg: UserMessage{
			Message: "No photo archive has been loaded yet",
			Action:  "Upload a photo archive first",
			Code:    "BATCH002",
		},
	},
	{
		pattern: "not found",
		msg: UserMessage{
			Message: "Employee not found in the current batch",
			Action:  "Refresh the batch view and try again",
			Code:    "BATCH003",
		},
	},

	// Edit validation (EDIT001)
	{
		pattern: "already exists",
		msg: UserMessage{
			Message: "Another employee already uses this ID",
			Action:  "Choose a unique employee ID",
			Code:    "EDIT001",
		},
	},

	// Request plumbing (REQ001-REQ003)
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The uploaded file is too large",
			Action:  "Reduce the file size and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose a file to upload",
			Code:    "REQ002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Try again with a smaller file",
			Code:    "REQ003",
		},
	},
}

// defaultMessage is the fallback when no pattern matches. Support staff check
// the logs for the original error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// mapError converts a technical error to a user-friendly message.
func mapError(err error) UserMessage {
	if err == nil {
		return defaultMessage
	}
	lower := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(lower, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// respondError logs the technical error and writes the mapped user message.
// Field-level validation details are safe to show, so the mapped message is
// supplemented with the raw error text for 4xx responses.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := mapError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	if statusCode >= 400 && statusCode < 500 && userMsg.Code == "ERR000" {
		// Validation messages are produced by our own validators and
		// carry no internals; show them verbatim.
		userMsg.Message = err.Error()
	}

	writeJSON(w, statusCode, userMsg)
}
