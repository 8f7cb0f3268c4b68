package internal

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// All assumptions about the device's DOM and XML structure live in this
// file. A firmware revision with a different page layout should only
// require changes here.

// Outlet checkboxes on control_outlet.htm are named outlet0, outlet1, ...
// The "select all" checkbox is named outlet_check_all and must be skipped.
var outletCheckboxRx = regexp.MustCompile(`^outlet(\d+)$`)

// ParseOutletNames extracts outlet names from the control page HTML.
//
// The device renders one table row per outlet with a checkbox named
// "outletN"; the display name is the text of the first cell in that row.
// Returns a mapping of outlet number to name.
func ParseOutletNames(content string) (map[int]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	names := make(map[int]string)
	var parseErr error

	doc.Find(`input[type="checkbox"]`).Each(func(i int, cb *goquery.Selection) {
		name, _ := cb.Attr("name")
		match := outletCheckboxRx.FindStringSubmatch(name)
		if match == nil {
			return // outlet_check_all and friends
		}

		num, err := strconv.Atoi(match[1])
		if err != nil {
			return
		}

		row := cb.Closest("tr")
		cell := row.Find("td").First()
		if row.Length() == 0 || cell.Length() == 0 {
			if parseErr == nil {
				parseErr = fmt.Errorf("outlet %d checkbox has no enclosing table row", num)
			}
			return
		}

		names[num] = strings.TrimSpace(cell.Text())
	})

	if parseErr != nil {
		return nil, parseErr
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no outlet rows recognized in control page")
	}

	return names, nil
}

// ParseOutletStates extracts on/off states from the status XML document.
//
// The device reports one element per outlet named outletStatN with "on"
// or "off" text. Returns a mapping of outlet number to on/off.
func ParseOutletStates(content string) (map[int]bool, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))
	states := make(map[int]bool)

	var current = -1
	for {
		tok, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to parse status XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			current = -1
			if numStr, ok := strings.CutPrefix(t.Name.Local, "outletStat"); ok {
				num, err := strconv.Atoi(numStr)
				if err != nil {
					return nil, fmt.Errorf("unrecognized status element %q", t.Name.Local)
				}
				current = num
			}
		case xml.CharData:
			if current < 0 {
				continue
			}
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			switch strings.ToLower(text) {
			case "on":
				states[current] = true
			case "off":
				states[current] = false
			default:
				return nil, fmt.Errorf("unrecognized state %q for outlet %d", text, current)
			}
			current = -1
		}
	}

	if len(states) == 0 {
		return nil, fmt.Errorf("no outlet states found in status document")
	}

	return states, nil
}
