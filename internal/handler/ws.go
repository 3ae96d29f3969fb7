package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"storyreel/internal/dto"
	"storyreel/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The service binds to localhost; the browser front-end is the only
	// expected peer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// playbackMessage is one inbound websocket frame from the player.
type playbackMessage struct {
	Type string  `json:"type"`
	Time float64 `json:"time"`
}

// SessionWS keeps the playback clock in sync with the client's audio
// element. Every handled frame is answered with the resolved playback view
// so the client can render the active segment and image without polling.
func (h Handler) SessionWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.GetLogger().Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Initial state so the client renders before the first tick.
	if err := conn.WriteJSON(h.Service.Playback()); err != nil {
		return
	}

	for {
		var msg playbackMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.GetLogger().Warn("websocket read error", zap.Error(err))
			}
			return
		}

		if view, handled := h.applyPlaybackMessage(msg); handled {
			if err := conn.WriteJSON(view); err != nil {
				return
			}
		}
	}
}

func (h Handler) applyPlaybackMessage(msg playbackMessage) (dto.PlaybackData, bool) {
	switch msg.Type {
	case "time":
		h.Service.UpdateTime(msg.Time)
	case "seek":
		h.Service.Seek(msg.Time)
	case "play":
		h.Service.Play()
	case "pause":
		h.Service.Pause()
	case "ended":
		h.Service.FinishPlayback()
	default:
		log.GetLogger().Warn("unknown playback message type", zap.String("type", msg.Type))
		return dto.PlaybackData{}, false
	}
	return h.Service.Playback(), true
}
