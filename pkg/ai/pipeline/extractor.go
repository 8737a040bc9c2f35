package pipeline

import "strings"

// Drafting responses carry two delimited regions: a conversational
// reply and, optionally, a full contract document. The tags are fixed
// by the drafting prompt.
const (
	replyOpen  = "<reply>"
	replyClose = "</reply>"
	docOpen    = "<document>"
	docClose   = "</document>"
)

const (
	stateScanning = iota
	stateInReply
	stateInDocument
)

// extractor incrementally splits a streamed drafting response into its
// reply and document regions. Feed returns the reply text that became
// safe to forward with this delta; document content is never returned
// incrementally, only collected. The whole raw response is retained for
// the no-region fallback.
//
// Each delta is scanned once: the extractor keeps only the shortest
// tail that could still be the start of a tag, so cost stays linear in
// the response length no matter how the stream is chunked.
type extractor struct {
	state   int
	pending string

	raw   strings.Builder
	reply strings.Builder
	doc   strings.Builder

	replyFound bool
	docFound   bool
}

func newExtractor() *extractor {
	return &extractor{}
}

// Feed consumes one stream delta and returns reply content that can be
// streamed to the user immediately.
func (e *extractor) Feed(delta string) string {
	if delta == "" {
		return ""
	}
	e.raw.WriteString(delta)
	e.pending += delta

	var out strings.Builder
	for {
		switch e.state {
		case stateScanning:
			if !e.scanForOpenTag() {
				return out.String()
			}
		case stateInReply:
			safe, closed := e.consumeRegion(replyClose, &e.reply)
			out.WriteString(safe)
			if !closed {
				return out.String()
			}
			e.state = stateScanning
		case stateInDocument:
			_, closed := e.consumeRegion(docClose, &e.doc)
			if !closed {
				return out.String()
			}
			e.state = stateScanning
		}
	}
}

// scanForOpenTag looks for the next region opening. Text before a tag
// is outside any region and is dropped from pending (raw keeps it).
// Reports whether a region was entered.
func (e *extractor) scanForOpenTag() bool {
	ri := strings.Index(e.pending, replyOpen)
	di := strings.Index(e.pending, docOpen)

	switch {
	case ri >= 0 && (di < 0 || ri < di):
		e.pending = e.pending[ri+len(replyOpen):]
		e.state = stateInReply
		e.replyFound = true
		return true
	case di >= 0:
		e.pending = e.pending[di+len(docOpen):]
		e.state = stateInDocument
		e.docFound = true
		return true
	}

	// No tag yet: keep only a tail that could still become one.
	keep := partialTagSuffix(e.pending, replyOpen)
	if k := partialTagSuffix(e.pending, docOpen); k > keep {
		keep = k
	}
	e.pending = e.pending[len(e.pending)-keep:]
	return false
}

// consumeRegion moves region content from pending into sink up to the
// closing tag, or as far as is safely not part of one. Reports the
// content moved this pass and whether the region closed.
func (e *extractor) consumeRegion(closeTag string, sink *strings.Builder) (string, bool) {
	if i := strings.Index(e.pending, closeTag); i >= 0 {
		content := e.pending[:i]
		sink.WriteString(content)
		e.pending = e.pending[i+len(closeTag):]
		return content, true
	}

	hold := partialTagSuffix(e.pending, closeTag)
	content := e.pending[:len(e.pending)-hold]
	sink.WriteString(content)
	e.pending = e.pending[len(e.pending)-hold:]
	return content, false
}

// Finish flushes state after the stream ends and returns any reply
// content that was still held back. An unterminated region keeps its
// accumulated content; an unterminated document stays a document.
func (e *extractor) Finish() string {
	rest := e.pending
	e.pending = ""
	switch e.state {
	case stateInReply:
		e.reply.WriteString(rest)
		return rest
	case stateInDocument:
		e.doc.WriteString(rest)
	}
	return ""
}

func (e *extractor) Reply() string {
	return strings.TrimSpace(e.reply.String())
}

// Document returns the extracted contract body and whether one was
// actually produced.
func (e *extractor) Document() (string, bool) {
	body := strings.TrimSpace(e.doc.String())
	if !e.docFound || body == "" {
		return "", false
	}
	return body, true
}

func (e *extractor) Raw() string {
	return e.raw.String()
}

// TagsSeen reports whether the response used the region protocol at
// all. When false the whole raw response is conversational text.
func (e *extractor) TagsSeen() bool {
	return e.replyFound || e.docFound
}

// partialTagSuffix returns the length of the longest suffix of s that
// is a proper prefix of tag, i.e. bytes that cannot be released yet
// because the next delta might complete the tag.
func partialTagSuffix(s, tag string) int {
	max := len(tag) - 1
	if max > len(s) {
		max = len(s)
	}
	for k := max; k > 0; k-- {
		if s[len(s)-k:] == tag[:k] {
			return k
		}
	}
	return 0
}
