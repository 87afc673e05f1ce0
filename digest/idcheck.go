package digest

import (
	"fmt"
	"net/http"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
)

const (
	maxIDLength    = 255
	maxLabelLength = 48
)

// idDenylist holds the printable ASCII characters an id may not contain.
var idDenylist = map[rune]bool{
	'"': true, '\'': true, '<': true, '>': true,
	'\\': true, '^': true, '`': true, '|': true,
}

// labelDenylist is stricter: labels are shown in device UIs and list
// output, so shell- and pattern-significant characters are also out.
var labelDenylist = map[rune]bool{
	'"': true, '\'': true, '<': true, '>': true,
	'\\': true, '^': true, '`': true, '|': true,
	'#': true, '&': true, '*': true, '?': true,
	'[': true, ']': true,
}

// CheckID validates a declaration id: required, at most 255 characters,
// printable ASCII outside the denylist.
func CheckID(id string) error {
	if id == "" {
		return &adcerrors.RequestError{
			Status:  http.StatusBadRequest,
			Message: "declaration id is required",
		}
	}
	if len(id) > maxIDLength {
		return &adcerrors.RequestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("declaration id exceeds %d characters", maxIDLength),
		}
	}
	for _, r := range id {
		if r < 0x20 || r > 0x7e || idDenylist[r] {
			return &adcerrors.RequestError{
				Status:  http.StatusBadRequest,
				Message: fmt.Sprintf("declaration id contains invalid character %q", r),
			}
		}
	}
	return nil
}

// CheckLabel validates an optional declaration label: at most 48
// characters, printable ASCII outside the label denylist.
func CheckLabel(label string) error {
	if label == "" {
		return nil
	}
	if len(label) > maxLabelLength {
		return &adcerrors.RequestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("declaration label exceeds %d characters", maxLabelLength),
		}
	}
	for _, r := range label {
		if r < 0x20 || r > 0x7e || labelDenylist[r] {
			return &adcerrors.RequestError{
				Status:  http.StatusBadRequest,
				Message: fmt.Sprintf("declaration label contains invalid character %q", r),
			}
		}
	}
	return nil
}
