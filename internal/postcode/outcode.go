package postcode

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"housefinder/server/internal/cache"
)

const (
	cacheNamespace = "outcode"

	// inwardPadding completes a bare outcode into a syntactically full postcode
	inwardPadding = "2QZ"
)

// fullPostcodePattern is the formal UK postcode format without the separating space
var fullPostcodePattern = regexp.MustCompile(`(?i)^(GIR0AA|(([A-Z][0-9]{1,2})|([A-Z][A-HJ-Y][0-9]{1,2})|([A-Z][0-9][A-Z])|([A-Z][A-HJ-Y][0-9]?[A-Z]))[0-9][A-Z]{2})$`)

// Deriver extracts an outcode from a free-text address
type Deriver struct {
	memo *cache.Memo[*string]
}

func NewDeriver(logger *logrus.Logger, store cache.Store) *Deriver {
	return &Deriver{
		memo: cache.NewMemo[*string](store, cacheNamespace, logger),
	}
}

// DeriveOutcode memoizes DeriveOutcode by address
func (d *Deriver) DeriveOutcode(address string) *string {
	return d.memo.Do(address, func() (*string, bool) {
		return DeriveOutcode(address), true
	})
}

// DeriveOutcode returns the outcode when the last comma-separated part of the
// address is a three character outcode, e.g. "Summer Street, Stroud, GL5".
func DeriveOutcode(address string) *string {
	parts := strings.Split(address, ",")
	token := strings.TrimSpace(parts[len(parts)-1])
	if len([]rune(token)) != 3 {
		return nil
	}

	if !fullPostcodePattern.MatchString(token + inwardPadding) {
		return nil
	}

	outcode := strings.ToUpper(token)
	return &outcode
}

// Normalize upper-cases a postcode and collapses internal whitespace
func Normalize(postcode string) string {
	return strings.ToUpper(strings.Join(strings.Fields(postcode), " "))
}
