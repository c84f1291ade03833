package handlers

import (
	"bytes"
	"errors"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"github.com/phishsim/backend/internal/botcheck"
	"github.com/phishsim/backend/internal/models"
	"github.com/phishsim/backend/internal/services"
	"go.uber.org/zap"
)

// interstitialTmpl is the challenge page: a script confirms the click in
// the background and then redirects, with a plain link for no-script
// clients. Only a JavaScript-executing client completes the loop.
var interstitialTmpl = template.Must(template.New("interstitial").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Redirecting</title></head>
<body>
<p>Taking you to your document&hellip;</p>
<p><a href="{{.Destination}}">Continue</a></p>
<script>
fetch("/t/{{.Token}}/confirm", {method: "POST", keepalive: true}).catch(function () {});
setTimeout(function () { window.location.replace("{{.Destination}}"); }, 400);
</script>
</body>
</html>
`))

type TrackHandler struct {
	trackService *services.TrackService
	log          *zap.Logger
}

func NewTrackHandler(trackService *services.TrackService, log *zap.Logger) *TrackHandler {
	return &TrackHandler{trackService: trackService, log: log}
}

func requestMeta(c *fiber.Ctx) botcheck.RequestMeta {
	purpose := c.Get("Sec-Purpose")
	if purpose == "" {
		purpose = c.Get("Purpose")
	}
	if purpose == "" {
		purpose = c.Get("X-Purpose")
	}
	return botcheck.RequestMeta{
		Method:         c.Method(),
		UserAgent:      c.Get("User-Agent"),
		AcceptLanguage: c.Get("Accept-Language"),
		Purpose:        purpose,
		SecFetchSite:   c.Get("Sec-Fetch-Site"),
		IP:             c.IP(),
	}
}

// HandleToken serves GET (and HEAD) /t/:token.
func (h *TrackHandler) HandleToken(c *fiber.Ctx) error {
	token := c.Params("token")

	outcome, err := h.trackService.HandleClick(c.Context(), token, requestMeta(c))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("not found")
		}
		// Even an unexpected fault must not strand the visitor on an error
		// page; without a campaign there is nowhere to send them though.
		h.log.Error("click handling failed", zap.String("token", token), zap.Error(err))
		return c.Status(fiber.StatusNotFound).SendString("not found")
	}

	if outcome.Mode == botcheck.ModeDirect {
		return c.Redirect(outcome.DestinationURL, fiber.StatusFound)
	}

	var buf bytes.Buffer
	if err := interstitialTmpl.Execute(&buf, map[string]string{
		"Token":       outcome.Token,
		"Destination": outcome.DestinationURL,
	}); err != nil {
		h.log.Error("interstitial render failed", zap.Error(err))
		return c.Redirect(outcome.DestinationURL, fiber.StatusFound)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

// ConfirmToken serves POST /t/:token/confirm, fired by the interstitial's
// script.
func (h *TrackHandler) ConfirmToken(c *fiber.Ctx) error {
	token := c.Params("token")

	if err := h.trackService.ConfirmClick(c.Context(), token, requestMeta(c)); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		h.log.Error("click confirmation failed", zap.String("token", token), zap.Error(err))
	}

	return c.SendStatus(fiber.StatusNoContent)
}
