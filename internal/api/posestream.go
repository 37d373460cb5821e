package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MrWong99/podium/internal/observe"
	"github.com/MrWong99/podium/internal/pose"
)

// poseReadLimit bounds one inbound frame message.
const poseReadLimit = 1 << 20

// Pose stream message types.
const (
	msgFrame   = "frame"
	msgFinish  = "finish"
	msgMetrics = "metrics"
	msgFinal   = "final"
	msgError   = "error"
)

// poseInbound is a client message. An empty Type means "frame".
type poseInbound struct {
	Type string `json:"type,omitempty"`
	pose.Frame
}

type poseOutbound struct {
	Type    string        `json:"type"`
	Metrics *pose.Metrics `json:"metrics,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// handlePoseStream upgrades to a websocket and scores body language live.
// The server answers every [pose.PublishEvery] frames with smoothed
// metrics. A finish message returns the final metrics and closes the
// stream. A stream that drops without finishing is discarded.
func (s *Server) handlePoseStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		observe.Logger(r.Context()).Warn("pose stream upgrade failed", "err", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(poseReadLimit)

	ctx := r.Context()
	s.metrics.ActivePoseStreams.Add(ctx, 1)
	defer s.metrics.ActivePoseStreams.Add(context.WithoutCancel(ctx), -1)

	sess := pose.NewSession()
	for {
		var msg poseInbound
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			var closeErr websocket.CloseError
			if !errors.As(err, &closeErr) && ctx.Err() == nil {
				observe.Logger(ctx).Debug("pose stream read failed", "err", err)
			}
			return
		}

		switch msg.Type {
		case "", msgFrame:
			m, publish := sess.Push(msg.Frame)
			if !publish {
				continue
			}
			if err := wsjson.Write(ctx, conn, poseOutbound{Type: msgMetrics, Metrics: &m}); err != nil {
				return
			}
		case msgFinish:
			out := poseOutbound{Type: msgFinal}
			if m, ok := sess.Final(); ok {
				out.Metrics = &m
			}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				return
			}
			conn.Close(websocket.StatusNormalClosure, "finished")
			return
		default:
			if err := wsjson.Write(ctx, conn, poseOutbound{Type: msgError, Error: "unknown message type " + msg.Type}); err != nil {
				return
			}
		}
	}
}
