package pdu

import (
	"fmt"
	"strconv"
	"strings"
)

// ResolveOutlet converts a selector (numeric index or display name) into
// the matching outlet from a status snapshot.
//
// Names are matched case-insensitively against the full name. When more
// than one outlet carries the requested name the match is ambiguous and
// the caller must retry with the numeric index.
func ResolveOutlet(selector string, outlets []Outlet) (Outlet, error) {
	if num, err := strconv.Atoi(selector); err == nil {
		for _, o := range outlets {
			if o.Index == num {
				return o, nil
			}
		}
		return Outlet{}, NewSelectorNotFoundError(fmt.Sprintf("outlet number %d not present", num))
	}

	var matches []Outlet
	for _, o := range outlets {
		if strings.EqualFold(o.Name, selector) {
			matches = append(matches, o)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return Outlet{}, NewSelectorNotFoundError(fmt.Sprintf("no outlet named %q found", selector))
	default:
		indices := make([]string, len(matches))
		for i, m := range matches {
			indices[i] = strconv.Itoa(m.Index)
		}
		return Outlet{}, NewAmbiguousSelectorError(fmt.Sprintf(
			"multiple outlets named %q, specify the number instead (matches: %s)",
			selector, strings.Join(indices, ", ")))
	}
}
