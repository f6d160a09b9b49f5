package telephony

import (
	"bytes"
	"encoding/xml"
	"log/slog"
)

// Minimal TwiML builder for the voice adapter boundary. It intentionally
// avoids any provider SDK dependency; only the verbs the conversation
// needs are modeled.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName       xml.Name  `xml:"Gather"`
	Input         string    `xml:"input,attr"`
	Action        string    `xml:"action,attr,omitempty"`
	Method        string    `xml:"method,attr,omitempty"`
	Language      string    `xml:"language,attr,omitempty"`
	SpeechTimeout string    `xml:"speechTimeout,attr,omitempty"`
	Timeout       int       `xml:"timeout,attr,omitempty"`
	Say           *twimlSay `xml:"Say,omitempty"`
}

type twimlRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// fallbackDocument is served whenever rendering fails. It must stay a
// plain literal so it can never itself fail to render.
const fallbackDocument = xml.Header + `<Response>
  <Say>Sorry, something went wrong. Please call back in a moment. Goodbye!</Say>
  <Hangup></Hangup>
</Response>`

const noInputText = "Sorry, I didn't hear anything."

// Renderer builds the two TwiML shapes the conversation uses: a prompt
// that gathers the next turn, and a goodbye that hangs up.
type Renderer struct {
	voice         string
	language      string
	action        string
	gatherTimeout int
	log           *slog.Logger
}

func NewRenderer(voice, language, action string, gatherTimeoutSec int, log *slog.Logger) *Renderer {
	if gatherTimeoutSec <= 0 {
		gatherTimeoutSec = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{
		voice:         voice,
		language:      language,
		action:        action,
		gatherTimeout: gatherTimeoutSec,
		log:           log,
	}
}

// Prompt speaks say and gathers the caller's next speech or keypad
// input. A silent caller falls through to a short notice and a redirect
// back to the collect endpoint, which the engine counts as a miss.
func (r *Renderer) Prompt(say string) string {
	return r.render(twimlResponse{Verbs: []any{
		twimlGather{
			Input:         "speech dtmf",
			Action:        r.action,
			Method:        "POST",
			Language:      r.language,
			SpeechTimeout: "auto",
			Timeout:       r.gatherTimeout,
			Say:           &twimlSay{Voice: r.voice, Language: r.language, Text: say},
		},
		twimlSay{Voice: r.voice, Language: r.language, Text: noInputText},
		twimlRedirect{Method: "POST", URL: r.action},
	}})
}

// Goodbye speaks say and ends the call.
func (r *Renderer) Goodbye(say string) string {
	return r.render(twimlResponse{Verbs: []any{
		twimlSay{Voice: r.voice, Language: r.language, Text: say},
		twimlHangup{},
	}})
}

func (r *Renderer) render(doc twimlResponse) string {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		r.log.Error("twiml render failed, serving fallback", "err", err)
		return fallbackDocument
	}
	if err := enc.Flush(); err != nil {
		r.log.Error("twiml flush failed, serving fallback", "err", err)
		return fallbackDocument
	}
	return buf.String()
}
