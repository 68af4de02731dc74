package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"soundlab/internal/daemon"
	"soundlab/internal/ipc"
	"soundlab/internal/logging"
	"soundlab/internal/mixer"
	"soundlab/internal/playback"
	"soundlab/internal/render"
	"soundlab/internal/renderqueue"
	"soundlab/internal/session"
	"soundlab/internal/testsupport"
	"soundlab/internal/timeline"
)

// newClient wires a daemon, IPC server, and connected client over a
// throwaway socket. The daemon services are not started; the RPC surface
// talks to the store directly.
func newClient(t *testing.T) (*ipc.Client, *session.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := render.NewDirSource(cfg.Paths.AssetDir)
	worker := renderqueue.NewWorker(cfg, store, source, logging.NewNop())
	player := playback.NewPlayer(source, cfg.Audio.SampleRate, cfg.Audio.Channels)
	mix := mixer.New(cfg, player, logging.NewNop())

	d, err := daemon.New(cfg, store, worker, mix, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}

	socket := filepath.Join(t.TempDir(), "soundlabd.sock")
	srv, err := ipc.NewServer(context.Background(), socket, d, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	srv.Serve()

	client, err := ipc.Dial(socket)
	if err != nil {
		srv.Close()
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = client.Close() })
	return client, store
}

func TestStatusOverIPC(t *testing.T) {
	client, _ := newClient(t)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Running || status.WorkerRunning {
		t.Fatalf("status = %+v, want idle daemon", status)
	}
	if status.SessionDBPath == "" || status.LockPath == "" {
		t.Fatalf("status missing paths: %+v", status)
	}
}

func TestSessionRoundTripOverIPC(t *testing.T) {
	client, store := newClient(t)
	ctx := context.Background()

	state := testsupport.NewState(
		testsupport.NewClip("a", timeline.LaneMusic, 0, 4),
		testsupport.NewClip("b", timeline.LaneVoice, 2, 3),
	)
	state.Group(timeline.LaneVoice).Muted = true
	sess, err := store.SaveSession(ctx, "night theme", state, []timeline.Lane{timeline.LaneSFX})
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	list, err := client.SessionList()
	if err != nil {
		t.Fatalf("SessionList failed: %v", err)
	}
	if len(list.Sessions) != 1 {
		t.Fatalf("sessions = %+v, want 1", list.Sessions)
	}
	summary := list.Sessions[0]
	if summary.ID != sess.ID || summary.Name != "night theme" || summary.Clips != 2 || summary.Duration != 5 {
		t.Fatalf("summary = %+v", summary)
	}

	detail, err := client.SessionDescribe(sess.ID)
	if err != nil {
		t.Fatalf("SessionDescribe failed: %v", err)
	}
	if detail.Duration != 5 || len(detail.Lanes) != 4 {
		t.Fatalf("detail = %+v", detail)
	}
	for _, lane := range detail.Lanes {
		switch lane.Lane {
		case "voice":
			if lane.Clips != 1 || !lane.Muted {
				t.Fatalf("voice lane = %+v", lane)
			}
		case "sfx":
			if !lane.Collapsed {
				t.Fatalf("sfx lane = %+v, want collapsed", lane)
			}
		}
	}

	if _, err := client.SessionDescribe(0); err == nil {
		t.Fatal("zero session id must be rejected")
	}

	deleted, err := client.SessionDelete(sess.ID)
	if err != nil || !deleted.Deleted {
		t.Fatalf("SessionDelete = %+v, %v", deleted, err)
	}
	if _, err := client.SessionDescribe(sess.ID); err == nil {
		t.Fatal("describing a deleted session must fail")
	}
}

func TestRenderJobsOverIPC(t *testing.T) {
	client, store := newClient(t)
	ctx := context.Background()

	sess, err := store.SaveSession(ctx, "demo", testsupport.NewState(), nil)
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	// Unset rate and channels fall back to the configured audio settings.
	started, err := client.RenderStart(ipc.RenderStartRequest{SessionID: sess.ID, SoloLanes: []string{"music"}})
	if err != nil {
		t.Fatalf("RenderStart failed: %v", err)
	}
	if started.Job.Status != string(session.JobPending) {
		t.Fatalf("job = %+v, want pending", started.Job)
	}

	if _, err := client.RenderStart(ipc.RenderStartRequest{SessionID: sess.ID, SoloLanes: []string{"drums"}}); err == nil {
		t.Fatal("unknown solo lane must be rejected")
	} else if !strings.Contains(err.Error(), "drums") {
		t.Fatalf("error = %v, want lane name", err)
	}
	if _, err := client.RenderStart(ipc.RenderStartRequest{SessionID: 9999}); err == nil {
		t.Fatal("missing session must be rejected")
	}

	list, err := client.RenderList([]string{"pending"})
	if err != nil {
		t.Fatalf("RenderList failed: %v", err)
	}
	if len(list.Jobs) != 1 || list.Jobs[0].ID != started.Job.ID {
		t.Fatalf("jobs = %+v", list.Jobs)
	}

	described, err := client.RenderDescribe(started.Job.ID)
	if err != nil {
		t.Fatalf("RenderDescribe failed: %v", err)
	}
	if described.Job.SessionID != sess.ID {
		t.Fatalf("described job = %+v", described.Job)
	}
	if _, err := client.RenderDescribe(""); err == nil {
		t.Fatal("blank job id must be rejected")
	}
}
