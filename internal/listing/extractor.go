package listing

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"housefinder/server/internal/models"
)

// PageModelMarker identifies the script block holding the embedded property data
const PageModelMarker = "window.PAGE_MODEL"

// districtPattern matches a UK postcode district such as "GL5" or "SW1A"
var districtPattern = regexp.MustCompile(`\b([A-Za-z][A-Za-z]?[0-9][0-9]?[A-Za-z]?)\b`)

var skippedTextParents = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

type pageModel struct {
	PropertyData struct {
		Location struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		} `json:"location"`
		Text struct {
			Description *string `json:"description"`
		} `json:"text"`
	} `json:"propertyData"`
}

// Extract builds a PropertyRecord from a listing page. Missing pieces leave the
// corresponding fields empty; it never fails.
func Extract(body []byte) *models.PropertyRecord {
	record := &models.PropertyRecord{
		Images:    []string{},
		HasGarage: bytes.Contains(bytes.ToLower(body), []byte("garage")),
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return record
	}

	if model := findPageModel(doc); model != nil {
		loc := model.PropertyData.Location
		if loc.Longitude != nil && loc.Latitude != nil {
			record.Coordinates = &models.Coordinates{
				Longitude: *loc.Longitude,
				Latitude:  *loc.Latitude,
			}
		}
		if desc := model.PropertyData.Text.Description; desc != nil && strings.TrimSpace(*desc) != "" {
			record.Description = desc
		}
	}

	doc.Find(`meta[property="og:image"]`).Each(func(_ int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok && strings.TrimSpace(content) != "" {
			record.Images = append(record.Images, strings.TrimSpace(content))
		}
	})

	if src, ok := doc.Find(`img[alt="Floorplan"]`).First().Attr("src"); ok && src != "" {
		record.Floorplan = &src
	}

	record.Address = findAddress(doc)

	return record
}

// findPageModel decodes the JSON assigned in the marked script block
func findPageModel(doc *goquery.Document) *pageModel {
	var model *pageModel

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, PageModelMarker)
		if idx < 0 {
			return true
		}

		assignment := text[idx+len(PageModelMarker):]
		eq := strings.Index(assignment, "=")
		if eq < 0 {
			return true
		}

		var decoded pageModel
		decoder := json.NewDecoder(strings.NewReader(assignment[eq+1:]))
		if err := decoder.Decode(&decoded); err != nil {
			return true
		}

		model = &decoded
		return false
	})

	return model
}

// findAddress is a best-effort heuristic: the listing heading when it looks
// like an address, otherwise the first text node containing something shaped
// like a postcode district.
func findAddress(doc *goquery.Document) *string {
	if heading := strings.TrimSpace(doc.Find("h1").First().Text()); heading != "" && districtPattern.MatchString(heading) {
		return &heading
	}

	var address *string
	doc.Find("body, body *").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if skippedTextParents[goquery.NodeName(s)] {
			return true
		}

		found := false
		s.Contents().EachWithBreak(func(_ int, c *goquery.Selection) bool {
			if goquery.NodeName(c) != "#text" {
				return true
			}
			text := strings.TrimSpace(c.Text())
			if text != "" && districtPattern.MatchString(text) {
				address = &text
				found = true
				return false
			}
			return true
		})
		return !found
	})

	return address
}
