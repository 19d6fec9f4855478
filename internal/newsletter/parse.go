package newsletter

import (
	"fmt"
	"regexp"
	"strings"
)

// The generation model is instructed to answer in exactly two tagged
// sections. SUBJECT: captures text up to the next newline; BODY: captures
// everything remaining. Both markers are matched case-insensitively.
var (
	subjectRe = regexp.MustCompile(`(?i)SUBJECT:[ \t]*(.*)`)
	bodyRe    = regexp.MustCompile(`(?is)BODY:\s*\n?(.*)`)
)

// ParseOutput extracts the subject line and HTML body from raw generation
// output. Absence of either marker is a hard parse failure; no fallback
// content is synthesized.
func ParseOutput(raw string) (subject, body string, err error) {
	sm := subjectRe.FindStringSubmatch(raw)
	if sm == nil {
		return "", "", fmt.Errorf("newsletter: output missing SUBJECT: marker")
	}
	bm := bodyRe.FindStringSubmatch(raw)
	if bm == nil {
		return "", "", fmt.Errorf("newsletter: output missing BODY: marker")
	}

	subject = strings.TrimSpace(sm[1])
	body = strings.TrimSpace(bm[1])
	if subject == "" {
		return "", "", fmt.Errorf("newsletter: SUBJECT: marker present but empty")
	}
	if body == "" {
		return "", "", fmt.Errorf("newsletter: BODY: marker present but empty")
	}
	return subject, body, nil
}
