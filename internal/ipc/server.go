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
	"time"

	"log/slog"

	"streampay/internal/api"
	"streampay/internal/daemon"
	"streampay/internal/ledger"
	"streampay/internal/logging"
	"streampay/internal/logs"
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

// NewServer configures the IPC server at the given socket path. The shutdown
// callback is invoked when a client requests daemon termination.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, shutdown func(), logger *slog.Logger) (*Server, error) {
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
	srv := &service{daemon: d, streams: d.Streams(), shutdown: shutdown, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("StreamPay", srv); err != nil {
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
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
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
				s.logger.Warn("accept failed", logging.Error(err))
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
			logging.Error(err))
	}
}

type service struct {
	daemon   *daemon.Daemon
	streams  *api.StreamService
	shutdown func()
	logger   *slog.Logger
	ctx      context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

// wireError flattens ledger errors so their kind survives net/rpc's
// string-only error channel.
func wireError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(ledger.EncodeError(err))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Environment = status.Environment
	resp.LedgerDBPath = status.LedgerDBPath
	resp.LockPath = status.LockFilePath
	resp.NextStreamID = status.NextStreamID
	resp.Stats = status.Stats
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	s.log().Info("daemon shutdown requested via IPC")
	resp.Stopping = s.shutdown != nil
	if s.shutdown != nil {
		// Run async so the response reaches the client before the
		// process begins tearing down the socket.
		go s.shutdown()
	}
	return nil
}

func (s *service) StreamCreate(req StreamCreateRequest, resp *StreamCreateResponse) error {
	view, err := s.streams.Create(s.ctx, api.CreateStreamRequest{
		Sender:    req.Sender,
		Recipient: req.Recipient,
		FlowRate:  req.FlowRate,
		Deposit:   req.Deposit,
	})
	if err != nil {
		return wireError(err)
	}
	resp.Stream = *view
	return nil
}

func (s *service) StreamClose(req StreamCloseRequest, resp *StreamCloseResponse) error {
	settlement, err := s.streams.Close(s.ctx, req.ID, api.CloseStreamRequest{Caller: req.Caller})
	if err != nil {
		return wireError(err)
	}
	resp.Settlement = *settlement
	return nil
}

func (s *service) StreamDescribe(req StreamDescribeRequest, resp *StreamDescribeResponse) error {
	view, err := s.streams.Describe(s.ctx, req.ID)
	if err != nil {
		return wireError(err)
	}
	resp.Stream = *view
	return nil
}

func (s *service) StreamList(req StreamListRequest, resp *StreamListResponse) error {
	streams, err := s.streams.List(s.ctx, req.ActiveOnly)
	if err != nil {
		return wireError(err)
	}
	resp.Streams = streams
	return nil
}

func (s *service) NextStreamID(_ NextStreamIDRequest, resp *NextStreamIDResponse) error {
	next, err := s.streams.NextID(s.ctx)
	if err != nil {
		return wireError(err)
	}
	resp.NextStreamID = next
	return nil
}

func (s *service) TransferList(req TransferListRequest, resp *TransferListResponse) error {
	transfers, err := s.streams.Transfers(s.ctx, req.StreamID)
	if err != nil {
		return wireError(err)
	}
	resp.Transfers = transfers
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	result, err := logs.Tail(s.ctx, s.daemon.LogFilePath(), logs.Options{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return wireError(err)
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}
