package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"tabledb/src/auth"
	"tabledb/src/directors"
	"tabledb/src/helpers"
	"tabledb/src/models"
	"tabledb/src/settings"

	"go.uber.org/zap"
)

// errAuthRequired is sent to clients that issue commands before auth.
var errAuthRequired = fmt.Errorf("%w: authenticate first", auth.ErrInvalidCredentials)

// Server is the TCP front end. Each line a client sends is one JSON request;
// each line it receives is one JSON response.
type Server struct {
	Host              string
	Port              int
	Listener          net.Listener
	AuthEnabled       bool
	Version           string
	ActiveConnections map[string]*Connection
	mu                sync.Mutex
	running           bool
	wg                sync.WaitGroup
	databaseService   *directors.DatabaseService
	users             *auth.UserStore
	logger            *zap.SugaredLogger
}

// Connection represents an active client connection
type Connection struct {
	ID         string
	Conn       net.Conn
	Reader     *bufio.Reader
	Writer     *bufio.Writer
	User       string
	Authorized bool
	LastActive time.Time
	Logger     *zap.SugaredLogger
}

// NewServer builds a server around an existing service and credential store.
// users may be nil when authentication is disabled.
func NewServer(config *settings.Arguments, service *directors.DatabaseService, users *auth.UserStore, logger *zap.SugaredLogger) *Server {
	return &Server{
		Host:              config.Host,
		Port:              config.Port,
		AuthEnabled:       config.AuthEnabled,
		Version:           config.Version,
		ActiveConnections: make(map[string]*Connection),
		databaseService:   service,
		users:             users,
		logger:            logger,
	}
}

// Start begins listening for incoming connections
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("error starting server on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.Listener = listener
	s.running = true
	s.mu.Unlock()

	s.logger.Infow("Server listening", "addr", listener.Addr().String(), "auth", s.AuthEnabled)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptConnections(listener)
	}()

	return nil
}

// Addr returns the listening address once Start has succeeded.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Listener == nil {
		return nil
	}
	return s.Listener.Addr()
}

// Stop closes the listener and every open connection, then waits for the
// connection handlers to return.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false

	var err error
	if s.Listener != nil {
		err = s.Listener.Close()
	}
	for _, conn := range s.ActiveConnections {
		conn.Conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()

	s.logger.Info("Server shutdown complete")
	return err
}

func (s *Server) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// acceptConnections handles incoming connection requests
func (s *Server) acceptConnections(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if !s.isRunning() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Errorw("Error accepting connection", "error", err)
			continue
		}

		s.logger.Infow("New connection received", "remoteAddr", conn.RemoteAddr().String())

		connection := s.register(conn)
		if connection == nil {
			conn.Close()
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(connection)
		}()
	}
}

// register records a new connection. It returns nil if the server is
// already stopping.
func (s *Server) register(conn net.Conn) *Connection {
	connID := helpers.GenerateUUID()
	connection := &Connection{
		ID:         connID,
		Conn:       conn,
		Reader:     bufio.NewReader(conn),
		Writer:     bufio.NewWriter(conn),
		Authorized: !s.AuthEnabled, // If auth is disabled, connection is automatically authorized
		LastActive: time.Now(),
		Logger:     s.logger.With("connID", connID, "remoteAddr", conn.RemoteAddr().String()),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.ActiveConnections[connID] = connection
	return connection
}

// handleConnection processes a single client connection
func (s *Server) handleConnection(connection *Connection) {
	logger := connection.Logger

	defer func() {
		connection.Conn.Close()
		s.mu.Lock()
		delete(s.ActiveConnections, connection.ID)
		s.mu.Unlock()
		logger.Info("Connection closed")
	}()

	welcome := &models.Response{
		RequestID: connection.ID,
		Status:    models.StatusSuccess,
		Message:   fmt.Sprintf("tabledb %s ready", s.Version),
	}
	if err := s.send(connection, welcome); err != nil {
		logger.Warnw("Error sending welcome", "error", err)
		return
	}

	for {
		line, err := connection.Reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			connection.LastActive = time.Now()
			logger.Debugw("Received line", "bytes", len(line))

			if sendErr := s.send(connection, s.processLine(connection, line)); sendErr != nil {
				logger.Warnw("Error sending response", "error", sendErr)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && s.isRunning() {
				logger.Warnw("Error reading from client", "error", err)
			}
			return
		}
	}
}

// processLine decodes and executes one request line.
func (s *Server) processLine(connection *Connection, line string) *models.Response {
	var request models.Request
	if err := json.Unmarshal([]byte(line), &request); err != nil {
		return directors.ErrorResponse(helpers.GenerateUUID(), fmt.Errorf("%w: %v", directors.ErrBadRequest, err))
	}

	if strings.EqualFold(request.Command, models.CmdAuth) {
		return s.authenticate(connection, request)
	}
	if !connection.Authorized {
		return directors.ErrorResponse(helpers.GenerateUUID(), errAuthRequired)
	}

	response, err := directors.CommandDirector(s.databaseService, request, connection.Logger)
	if err != nil {
		return directors.ErrorResponse(helpers.GenerateUUID(), err)
	}
	return response
}

func (s *Server) authenticate(connection *Connection, request models.Request) *models.Response {
	requestID := helpers.GenerateUUID()

	if s.AuthEnabled {
		if s.users == nil {
			return directors.ErrorResponse(requestID, auth.ErrInvalidCredentials)
		}
		user, err := s.users.VerifyCredentials(request.Username, request.Password)
		if err != nil {
			connection.Logger.Warnw("Authentication failed", "user", request.Username)
			return directors.ErrorResponse(requestID, err)
		}
		connection.User = user.Username
		connection.Authorized = true
		connection.Logger = connection.Logger.With("user", user.Username)
		connection.Logger.Infow("Client authenticated")
	}

	return &models.Response{
		RequestID: requestID,
		Status:    models.StatusSuccess,
		Message:   "Authentication successful",
	}
}

// send writes one response line. A response that cannot be encoded is
// replaced by an error response.
func (s *Server) send(connection *Connection, response *models.Response) error {
	data, err := json.Marshal(response)
	if err != nil {
		connection.Logger.Errorw("Error encoding response", "error", err)
		data, err = json.Marshal(directors.ErrorResponse(response.RequestID, fmt.Errorf("error encoding result: %w", err)))
		if err != nil {
			return err
		}
	}

	if _, err := connection.Writer.Write(append(data, '\n')); err != nil {
		return err
	}
	return connection.Writer.Flush()
}
