package loginlink

import "regexp"

// The support-ticket wire format is not a well-formed URL path, so the
// two fields are extracted independently by pattern match:
//
//	zay://zayapi/supportticket/id?=JH13BNK/key?=872977ndokn928ndo93bdbla1ab
var (
	ticketIDPattern = regexp.MustCompile(`id\?=([A-Z0-9]{7})`)
	linkKeyPattern  = regexp.MustCompile(`key\?=([a-z0-9]{27})`)
)

// ParseLink extracts the ticket ID and link key from a support-ticket
// deep link. Both fields must match; a link with only one valid field
// is treated as malformed rather than partially trusted.
func ParseLink(rawURL string) (ticketID, linkKey string, err error) {
	ticketMatch := ticketIDPattern.FindStringSubmatch(rawURL)
	keyMatch := linkKeyPattern.FindStringSubmatch(rawURL)
	if ticketMatch == nil || keyMatch == nil {
		return "", "", ErrMalformedLink
	}
	return ticketMatch[1], keyMatch[1], nil
}
