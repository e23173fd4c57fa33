package coffee

import (
	"fmt"
	"strings"

	"github.com/tjansson60/slackrandomcoffee/internal/domain"
)

// Marker is the fixed phrase opening every announcement. ExtractHistory uses
// it to recognize the bot's own past messages, so formatter and extractor are
// coupled through this exact text.
const Marker = "This weeks random coffees are:"

const footer = "If there are an uneven number of members one person will have two conversations"

// FormatMessage renders a batch as the channel announcement: a header line
// with the marker phrase, one numbered line per pair, and a fixed explanatory
// footer. ok is false for an empty batch, signalling there is nothing to post.
func FormatMessage(batch domain.Batch) (message string, ok bool) {
	if len(batch) == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString(Marker + "\n")
	for i, p := range batch {
		fmt.Fprintf(&b, " %d. %s and %s\n", i+1, p.First, p.Second)
	}
	b.WriteString(footer)

	return b.String(), true
}
