// Realtime stream handler.
//
// This file exposes GET /realtime/stream, the push channel delivering the
// named engagement events over Server-Sent Events. Each connected client is
// one hub subscriber; a client that stops reading has events dropped by the
// hub rather than blocking the publishers.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/astree/pulse/internal/http/middleware"
	"github.com/astree/pulse/internal/realtime"
)

// StreamSource is the subscribe side of the realtime hub consumed by the
// stream handler. *realtime.Hub satisfies it.
type StreamSource interface {
	Subscribe(topics ...string) *realtime.Subscription
	Unsubscribe(sub *realtime.Subscription)
}

// streamKeepAlive is the interval between SSE comment lines that keep
// intermediaries from timing out an idle stream.
const streamKeepAlive = 30 * time.Second

// Stream godoc
// @ID          realtimeStream
// @Summary     Subscribe to the realtime event stream
// @Description Server-Sent Events carrying presence.changed, reaction.* for the requested subjects, and the caller's notification.new events.
// @Tags        Realtime
// @Produce     text/event-stream
// @Param       X-User-ID  header  string  false "User ID (demo header)"       example(user123)
// @Param       subjects   query   string  false "Comma-separated subject ids" example(post-1,post-2)
// @Success     200  {string}  string  "event stream"
// @Router      /realtime/stream [get]
func (h *Handlers) Stream(c *gin.Context) {
	flusher, canFlush := c.Writer.(http.Flusher)
	if !canFlush {
		fail(c, http.StatusInternalServerError, ErrCodeStreamUnsupported, "streaming unsupported by this connection")
		return
	}

	topics := []string{realtime.TopicPresence, realtime.TopicUser(userID(c))}
	if raw := c.Query("subjects"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				topics = append(topics, realtime.TopicSubject(s))
			}
		}
	}

	sub := h.stream.Subscribe(topics...)
	defer h.stream.Unsubscribe(sub)

	// The stream outlives the server's WriteTimeout; clear the deadline for
	// this response only.
	rc := http.NewResponseController(c.Writer)
	_ = rc.SetWriteDeadline(time.Time{})

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	lg := middleware.LoggerFrom(c)
	lg.Debug().Strs("topics", topics).Msg("stream subscribed")

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()
		case evt, open := <-sub.C:
			if !open {
				return
			}
			data, err := json.Marshal(evt.Data)
			if err != nil {
				lg.Warn().Err(err).Str("event", evt.Name).Msg("drop unencodable event")
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", evt.Name, data)
			flusher.Flush()
		}
	}
}
