package validate

import (
	"fmt"
	"regexp"

	"github.com/AdwayB/dtqs/pkg/types"
)

// safeValue matches strings limited to word characters, whitespace and a
// small punctuation set. Markup, quotes and control characters are
// rejected wholesale rather than escaped.
var safeValue = regexp.MustCompile(`^[\w\s.,@!?\-]+$`)

// requiredStrings lists, per task type, the payload fields that must be
// present, be strings, and pass the safeValue check. Field order fixes
// which violation is reported when several fields are bad.
var requiredStrings = map[string][]string{
	types.TaskTypeEmail: {"from", "to", "subject", "content"},
	types.TaskTypeImage: {"img_src"},
	types.TaskTypeVideo: {"vid_src"},
}

// requiredPresent lists fields that only need to exist; any value passes.
var requiredPresent = map[string][]string{
	types.TaskTypeImage: {"resize_factor"},
	types.TaskTypeVideo: {"resize_factor"},
}

// Error is a payload rejection. Its message is exactly what submitters
// see in the HTTP response body.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

func errorf(format string, args ...any) *Error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

// Payload checks a submission payload against the schema for its task
// type. A nil return means the payload is safe to persist and enqueue.
func Payload(taskType string, payload map[string]any) error {
	stringFields, ok := requiredStrings[taskType]
	if !ok {
		return errorf("Unsupported task type")
	}

	for _, field := range stringFields {
		val, present := payload[field]
		if !present {
			return errorf("Missing field '%s'", field)
		}
		s, isString := val.(string)
		if !isString || !safeValue.MatchString(s) {
			return errorf("Invalid or unsafe value for field '%s'", field)
		}
	}

	for _, field := range requiredPresent[taskType] {
		if _, present := payload[field]; !present {
			return errorf("Missing field '%s'", field)
		}
	}
	return nil
}
