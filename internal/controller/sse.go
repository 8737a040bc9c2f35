package controller

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/berserker-glitch/9anonai-be-sub000/pkg/ai/pipeline"
)

// setStreamHeaders marks the response as a server-sent event stream.
// X-Accel-Buffering stops nginx from buffering the whole stream.
func setStreamHeaders(ctx *fiber.Ctx) {
	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")
}

// streamEvents writes each event as one `data: <json>` frame, flushed
// immediately. A write or flush failure means the client is gone; the
// caller's deferred cancel stops the pipeline and the service keeps
// draining the channel, so returning early leaks nothing.
func streamEvents(w *bufio.Writer, events <-chan pipeline.StreamEvent) {
	for event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}
