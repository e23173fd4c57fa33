package coffee

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tjansson60/slackrandomcoffee/internal/domain"
)

var (
	// memberTokenRe matches either rendering of a member identifier: the
	// notifying mention form "<@U123ABC>" or the silent display form "@name".
	memberTokenRe = regexp.MustCompile(`<@[A-Z0-9]+>|@[\w.-]+`)

	// pairLineRe matches one numbered body line of an announcement.
	pairLineRe = regexp.MustCompile(`^\s*\d+\.\s+(.+?) and (.+?)\s*$`)
)

// ExtractHistory scans a window of channel message texts and recovers the
// pairing batches from past announcements, one batch per announcement.
//
// A message counts as an announcement when it contains both the marker phrase
// and at least one member-shaped token. This doubles as bot-authorship
// detection and can misfire on user-authored lookalikes; that is a documented
// limitation of the text round-trip, not something this function hardens
// against. Announcements with a malformed body line are logged and skipped
// rather than failing the run. No announcements found means no history, which
// is an empty result, not an error.
func ExtractHistory(texts []string) domain.History {
	var history domain.History
	for _, text := range texts {
		if !strings.Contains(text, Marker) || !memberTokenRe.MatchString(text) {
			continue
		}

		batch, err := parseAnnouncement(text)
		if err != nil {
			log.Warn().Err(err).Msg("skipping malformed announcement")
			continue
		}
		history = append(history, batch)
	}
	return history
}

// parseAnnouncement parses one announcement back into a batch. The first line
// (header) and last line (footer) are discarded; every line in between must be
// a numbered pair line.
func parseAnnouncement(text string) (domain.Batch, error) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("coffee.parseAnnouncement: %d lines, want header, pairs and footer", len(lines))
	}

	batch := make(domain.Batch, 0, len(lines)-2)
	for _, line := range lines[1 : len(lines)-1] {
		m := pairLineRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("coffee.parseAnnouncement: malformed pair line %q", line)
		}
		batch = append(batch, domain.Pair{First: m[1], Second: m[2]})
	}
	return batch, nil
}
