package api_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MrWong99/podium/internal/pose"
)

// wsURL converts an httptest server HTTP URL to a WebSocket URL.
func wsURL(f *fixture) string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/api/pose-stream"
}

func dialPose(t *testing.T, f *fixture, c *http.Client) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	u, _ := url.Parse(f.srv.URL)
	hdr := http.Header{}
	for _, ck := range c.Jar.Cookies(u) {
		hdr.Set("Authorization", "Bearer "+ck.Value)
	}
	conn, _, err := websocket.Dial(ctx, wsURL(f), &websocket.DialOptions{HTTPHeader: hdr})
	if err != nil {
		t.Fatalf("dial pose stream: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

type poseMessage struct {
	Type    string        `json:"type"`
	Metrics *pose.Metrics `json:"metrics"`
	Error   string        `json:"error"`
}

func readPose(t *testing.T, conn *websocket.Conn) poseMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var msg poseMessage
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read pose message: %v", err)
	}
	return msg
}

func sendPose(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, v); err != nil {
		t.Fatalf("write pose message: %v", err)
	}
}

// standingFrame is a level, centred speaker on a 640x480 canvas.
func standingFrame() map[string]any {
	kp := func(name string, x, y float64) map[string]any {
		return map[string]any{"name": name, "x": x, "y": y, "score": 0.9}
	}
	keypoints := []map[string]any{
		kp(pose.Nose, 320, 100),
		kp(pose.LeftShoulder, 270, 180),
		kp(pose.RightShoulder, 370, 180),
		kp(pose.LeftHip, 285, 320),
		kp(pose.RightHip, 355, 320),
		kp(pose.LeftWrist, 250, 300),
		kp(pose.RightWrist, 390, 300),
	}
	for _, name := range []string{
		pose.LeftEye, pose.RightEye, pose.LeftEar, pose.RightEar,
		pose.LeftElbow, pose.RightElbow, pose.LeftKnee, pose.RightKnee,
		pose.LeftAnkle, pose.RightAnkle,
	} {
		keypoints = append(keypoints, kp(name, 320, 240))
	}
	return map[string]any{
		"type":      "frame",
		"width":     640,
		"height":    480,
		"keypoints": keypoints,
	}
}

func TestPoseStream_PublishesAndFinishes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.signedIn(t, "pose@example.com")
	conn := dialPose(t, f, c)

	for range pose.PublishEvery {
		sendPose(t, conn, standingFrame())
	}
	update := readPose(t, conn)
	if update.Type != "metrics" || update.Metrics == nil {
		t.Fatalf("update = %+v, want metrics", update)
	}
	if update.Metrics.Samples != pose.PublishEvery {
		t.Errorf("samples = %d, want %d", update.Metrics.Samples, pose.PublishEvery)
	}
	if update.Metrics.Posture < 80 {
		t.Errorf("posture = %d for an upright speaker", update.Metrics.Posture)
	}

	sendPose(t, conn, standingFrame())
	sendPose(t, conn, map[string]string{"type": "finish"})
	final := readPose(t, conn)
	if final.Type != "final" || final.Metrics == nil {
		t.Fatalf("final = %+v", final)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, _, err := conn.Read(ctx); websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		t.Errorf("close status = %v, want normal closure", websocket.CloseStatus(err))
	}
}

func TestPoseStream_FinishWithoutFrames(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.signedIn(t, "quiet@example.com")
	conn := dialPose(t, f, c)

	sendPose(t, conn, map[string]string{"type": "finish"})
	final := readPose(t, conn)
	if final.Type != "final" || final.Metrics != nil {
		t.Errorf("final = %+v, want no metrics", final)
	}
}

func TestPoseStream_UnknownMessage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.signedIn(t, "odd@example.com")
	conn := dialPose(t, f, c)

	sendPose(t, conn, map[string]string{"type": "dance"})
	if msg := readPose(t, conn); msg.Type != "error" || msg.Error == "" {
		t.Errorf("msg = %+v, want error", msg)
	}
}

func TestPoseStream_RequiresAuth(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, wsURL(f), nil)
	if err == nil {
		t.Fatal("expected dial to fail without credentials")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("response = %v, want 401", resp)
	}
}
