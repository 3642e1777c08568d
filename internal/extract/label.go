package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/law-makers/ferryroutes/pkg/models"
)

const (
	citySeparator = "|"
	nameSeparator = " - "
)

// Label is the normalized form of an origin option label.
type Label struct {
	City string
	Code string
	Name string
}

// ParseLabel splits "<city>|<code> - <name>" into its trimmed parts.
//
// The label must contain exactly one "|" and exactly one " - " after it, and
// every part must be non-empty once trimmed. Anything else is malformed input;
// no field is ever defaulted.
func ParseLabel(label string) (Label, error) {
	if n := strings.Count(label, citySeparator); n != 1 {
		return Label{}, malformedLabel(label, "expected exactly one %q, found %d", citySeparator, n)
	}
	city, rest, _ := strings.Cut(label, citySeparator)

	if n := strings.Count(rest, nameSeparator); n != 1 {
		return Label{}, malformedLabel(label, "expected exactly one %q after %q, found %d", nameSeparator, citySeparator, n)
	}
	code, name, _ := strings.Cut(rest, nameSeparator)

	l := Label{
		City: strings.TrimSpace(city),
		Code: strings.TrimSpace(code),
		Name: strings.TrimSpace(name),
	}
	switch {
	case l.City == "":
		return Label{}, malformedLabel(label, "empty city")
	case l.Code == "":
		return Label{}, malformedLabel(label, "empty code")
	case l.Name == "":
		return Label{}, malformedLabel(label, "empty name")
	}
	return l, nil
}

// ParseOriginID coerces an option value to the site's integer identifier.
func ParseOriginID(value string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, NewExtractError(ErrCodeMalformedInput, "origin value is not an integer", ErrMalformedValue).
			WithDetail("value", value)
	}
	return id, nil
}

// ParseOrigin builds a record for opt with an empty destination list.
func ParseOrigin(opt models.OriginOption) (models.DestinationRecord, error) {
	id, err := ParseOriginID(opt.Value)
	if err != nil {
		return models.DestinationRecord{}, err
	}
	l, err := ParseLabel(opt.Label)
	if err != nil {
		var ee *ExtractError
		if errors.As(err, &ee) {
			ee.WithDetail("value", opt.Value)
		}
		return models.DestinationRecord{}, err
	}
	return models.DestinationRecord{
		Name: l.Name,
		Code: l.Code,
		City: l.City,
		ID:   id,
	}, nil
}

func malformedLabel(label, format string, args ...interface{}) *ExtractError {
	return NewExtractError(ErrCodeMalformedInput, fmt.Sprintf(format, args...), ErrMalformedLabel).
		WithDetail("label", label)
}
