package telephony

import (
	"context"
	"net/http"

	"bookline/internal/flow"
	"bookline/pkg/logger"

	"github.com/gin-gonic/gin"
)

const contentTypeXML = "application/xml"

// TurnRunner runs one conversation turn.
type TurnRunner interface {
	HandleTurn(ctx context.Context, in flow.TurnInput) (flow.Reply, error)
}

// WebhookHandler converts a voice webhook into a turn, delegates to the
// flow engine, and writes TwiML. Every response is HTTP 200 with a
// well-formed document; a broken webhook must never leave the caller in
// silence or trigger provider-side retries.
type WebhookHandler struct {
	Engine TurnRunner
	Render *Renderer
}

func (h WebhookHandler) HandleVoiceTurn(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Engine == nil || h.Render == nil {
		log.Error("webhook handler not configured")
		c.Header("Content-Type", contentTypeXML)
		c.String(http.StatusOK, fallbackDocument)
		return
	}

	form, err := ParseVoiceTurn(c.Request)
	if err != nil || form.CallSid == "" {
		log.Warn("voice webhook parse failed", "err", err)
		c.Header("Content-Type", contentTypeXML)
		c.String(http.StatusOK, fallbackDocument)
		return
	}

	reply, err := h.Engine.HandleTurn(c.Request.Context(), form.TurnInput())
	if err != nil {
		// The engine still returns a speakable reply on failure.
		log.Error("conversation turn failed", "call_sid", form.CallSid, "err", err)
	}
	if reply.Say == "" {
		c.Header("Content-Type", contentTypeXML)
		c.String(http.StatusOK, fallbackDocument)
		return
	}

	doc := h.Render.Prompt(reply.Say)
	if reply.Terminal {
		doc = h.Render.Goodbye(reply.Say)
	}
	c.Header("Content-Type", contentTypeXML)
	c.String(http.StatusOK, doc)
}
