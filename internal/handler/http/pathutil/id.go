package pathutil

import (
	"errors"
	"strconv"
)

// ErrInvalidID is returned when an entry ID taken from the request is invalid.
var ErrInvalidID = errors.New("invalid id")

// ParseID parses a decimal entry ID, typically taken from the compose form's
// "id" query parameter. Anything that is not a positive integer yields
// ErrInvalidID.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
