package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"soundlab/internal/daemon"
	"soundlab/internal/logging"
	"soundlab/internal/session"
	"soundlab/internal/timeline"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Soundlab", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("ipc server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.log().Info("daemon started via ipc",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via ipc",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status, err := s.daemon.Status(s.ctx)
	if err != nil {
		return err
	}
	resp.Running = status.Running
	resp.WorkerRunning = status.WorkerRunning
	resp.SessionDBPath = status.SessionDBPath
	resp.LockPath = status.LockFilePath
	resp.JobStats = status.JobStats
	return nil
}

func (s *service) SessionList(_ SessionListRequest, resp *SessionListResponse) error {
	sessions, err := s.daemon.Store().ListSessions(s.ctx)
	if err != nil {
		return err
	}
	resp.Sessions = make([]SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		resp.Sessions = append(resp.Sessions, SessionSummary{
			ID:        sess.ID,
			Name:      sess.Name,
			Clips:     sess.State.ClipCount(),
			Duration:  sess.State.Duration(),
			UpdatedAt: sess.UpdatedAt,
		})
	}
	return nil
}

func (s *service) SessionDescribe(req SessionDescribeRequest, resp *SessionDescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid session id %d", req.ID)
	}
	sess, err := s.daemon.Store().GetSession(s.ctx, req.ID)
	if err != nil {
		return err
	}

	collapsed := make(map[timeline.Lane]struct{}, len(sess.CollapsedLanes))
	for _, lane := range sess.CollapsedLanes {
		collapsed[lane] = struct{}{}
	}

	resp.ID = sess.ID
	resp.Name = sess.Name
	resp.Duration = sess.State.Duration()
	resp.CreatedAt = sess.CreatedAt
	resp.UpdatedAt = sess.UpdatedAt
	resp.Lanes = make([]LaneSummary, 0, len(sess.State.Lanes))
	for _, group := range sess.State.Lanes {
		_, isCollapsed := collapsed[group.Lane]
		resp.Lanes = append(resp.Lanes, LaneSummary{
			Lane:      string(group.Lane),
			Clips:     len(group.Clips),
			Muted:     group.Muted,
			Collapsed: isCollapsed,
		})
	}
	return nil
}

func (s *service) SessionDelete(req SessionDeleteRequest, resp *SessionDeleteResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid session id %d", req.ID)
	}
	if err := s.daemon.Store().DeleteSession(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Deleted = true
	s.log().Info("session deleted via ipc",
		logging.String(logging.FieldEventType, "session_delete"),
		logging.Int64(logging.FieldSessionID, req.ID))
	return nil
}

func (s *service) RenderStart(req RenderStartRequest, resp *RenderStartResponse) error {
	if req.SessionID <= 0 {
		return fmt.Errorf("invalid session id %d", req.SessionID)
	}
	cfg := s.daemon.Config()
	sampleRate := req.SampleRate
	if sampleRate == 0 {
		sampleRate = cfg.Audio.SampleRate
	}
	channels := req.Channels
	if channels == 0 {
		channels = cfg.Audio.Channels
	}

	solo := make([]timeline.Lane, 0, len(req.SoloLanes))
	for _, value := range req.SoloLanes {
		lane, ok := timeline.ParseLane(value)
		if !ok {
			return fmt.Errorf("unknown lane %q", value)
		}
		solo = append(solo, lane)
	}

	if _, err := s.daemon.Store().GetSession(s.ctx, req.SessionID); err != nil {
		return err
	}
	job, err := s.daemon.Store().NewRenderJob(s.ctx, req.SessionID, sampleRate, channels, solo)
	if err != nil {
		return err
	}
	resp.Job = toRenderJob(job)
	s.log().Info("render queued via ipc",
		logging.String(logging.FieldEventType, "render_start"),
		logging.Int64(logging.FieldSessionID, req.SessionID),
		logging.String(logging.FieldJobID, job.ID))
	return nil
}

func (s *service) RenderList(req RenderListRequest, resp *RenderListResponse) error {
	statuses := make([]session.JobStatus, 0, len(req.Statuses))
	for _, value := range req.Statuses {
		status := session.JobStatus(value)
		if !session.ValidJobStatus(status) {
			continue
		}
		statuses = append(statuses, status)
	}
	jobs, err := s.daemon.Store().ListRenderJobs(s.ctx, statuses...)
	if err != nil {
		return err
	}
	resp.Jobs = make([]RenderJob, 0, len(jobs))
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, toRenderJob(job))
	}
	return nil
}

func (s *service) RenderDescribe(req RenderDescribeRequest, resp *RenderDescribeResponse) error {
	if req.ID == "" {
		return errors.New("render describe requires a job id")
	}
	job, err := s.daemon.Store().GetRenderJob(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Job = toRenderJob(job)
	return nil
}

func toRenderJob(job *session.RenderJob) RenderJob {
	return RenderJob{
		ID:              job.ID,
		SessionID:       job.SessionID,
		Status:          string(job.Status),
		ProgressPercent: job.ProgressPercent,
		ProgressMessage: job.ProgressMessage,
		OutputPath:      job.OutputPath,
		ErrorMessage:    job.ErrorMessage,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
}
