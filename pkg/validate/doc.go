/*
Package validate rejects malformed or unsafe task payloads at the API
boundary.

Validation runs once, at submission. Workers trust what they consume
from the queue, so everything that keeps bad input out of the system
happens here, before the task row exists.

# Rules

Each task type fixes a payload schema:

	email   from, to, subject, content  (strings, charset-checked)
	image   img_src (string, charset-checked), resize_factor (present)
	video   vid_src (string, charset-checked), resize_factor (present)

String fields must match:

	^[\w\s.,@!?\-]+$

Word characters, whitespace and a small punctuation set. Markup, quotes,
slashes and control characters are rejected wholesale rather than
escaped. Fields are checked in declaration order, so the first bad field
is the one reported.

# Error Messages

The returned *Error carries exactly the message submitters see:

	Unsupported task type
	Missing field '<name>'
	Invalid or unsafe value for field '<name>'

# Usage

	if err := validate.Payload(req.TaskType, req.Payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

# Integration Points

  - pkg/api: the only caller, inside POST /submit
  - pkg/types: the task type tags the schemas are keyed by
*/
package validate
