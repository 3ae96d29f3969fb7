// Package handler exposes the studio service over HTTP: project lifecycle,
// gallery uploads, playback control, timeline gestures, websocket sync and
// upload file serving.
package handler

import (
	"storyreel/internal/service"
)

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) Handler {
	return Handler{Service: svc}
}
