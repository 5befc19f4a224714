// Package session drives one synchronization between the host and a
// device: resolve the address to advertise, wait for the device, merge
// the project, then push the status file and notify the device.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/devsync/internal/platform"
	"github.com/sdejongh/devsync/pkg/compare"
	"github.com/sdejongh/devsync/pkg/history"
	"github.com/sdejongh/devsync/pkg/link"
	"github.com/sdejongh/devsync/pkg/logging"
	"github.com/sdejongh/devsync/pkg/merge"
	"github.com/sdejongh/devsync/pkg/metrics"
	"github.com/sdejongh/devsync/pkg/models"
	"github.com/sdejongh/devsync/pkg/netaddr"
	"github.com/sdejongh/devsync/pkg/output"
)

// State is the phase of a session
type State string

const (
	StateIdle             State = "idle"
	StateResolvingAddress State = "resolving_address"
	StateAwaitingPeer     State = "awaiting_peer"
	StateMerging          State = "merging"
	StateFinalizing       State = "finalizing"
	StateCompleted        State = "completed"
	StateFailed           State = "failed"
)

// MessageCompleted is written to the sink after a successful session
const MessageCompleted = "Sync completed successfully"

// AddressResolver picks the address advertised to the device
type AddressResolver interface {
	Resolve(ctx context.Context) (*netaddr.ResolvedAddress, error)
}

// Config holds the collaborators of a session
type Config struct {
	Project Project
	// Local is the host repository root
	Local link.Link

	Resolver  AddressResolver
	Presenter Presenter
	Peer      PeerWaiter

	// Retry resolves timed-out transfers (nil aborts)
	Retry  merge.RetryFunc
	Skip   []string
	Policy compare.Policy
	Locks  *merge.ProjectLocks

	Sink    output.Sink
	Metrics *metrics.Collector
	// History, when set, records the outcome of the session
	History *history.Store
	Logger  logging.Logger

	// OnState, when set, observes every state change
	OnState func(State)
}

// Session is a single synchronization attempt. Run it once.
type Session struct {
	cfg    Config
	id     string
	logger logging.Logger

	mu      sync.RWMutex
	state   State
	address *netaddr.ResolvedAddress
	report  *models.MergeReport
	failure *Failure
}

// New creates an idle session
func New(cfg Config) (*Session, error) {
	if cfg.Local == nil {
		return nil, errors.New("local link is required")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("address resolver is required")
	}
	if cfg.Peer == nil {
		return nil, errors.New("peer waiter is required")
	}
	if cfg.Sink == nil {
		cfg.Sink = output.NullSink{}
	}
	if cfg.Locks == nil {
		cfg.Locks = merge.DefaultLocks()
	}

	id := uuid.NewString()
	return &Session{
		cfg: cfg,
		id:  id,
		logger: logging.OrNull(cfg.Logger).WithFields(logging.Fields{
			"component":  "session",
			"session_id": id,
			"project":    cfg.Project.Name,
		}),
		state: StateIdle,
	}, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// State returns the current phase; safe to call from any goroutine
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Report returns the merge report, once merging has run
func (s *Session) Report() *models.MergeReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Address returns the advertised address, once resolved
func (s *Session) Address() *netaddr.ResolvedAddress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

// Failure returns the error that failed the session, if any
func (s *Session) Failure() *Failure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failure
}

func (s *Session) setState(ctx context.Context, st State) {
	s.mu.Lock()
	prev := s.state
	s.state = st
	s.mu.Unlock()

	s.logger.Debug(ctx, "state changed", logging.Fields{"from": string(prev), "to": string(st)})
	if s.cfg.OnState != nil {
		s.cfg.OnState(st)
	}
}

// Run performs the session. The returned report is non-nil once merging
// started. Errors are *Failure values; a sample project fails with
// ErrSampleProject before any network activity and leaves the session
// idle.
func (s *Session) Run(ctx context.Context) (*models.MergeReport, error) {
	if s.State() != StateIdle {
		return nil, errors.New("session already ran")
	}

	if s.cfg.Project.IsSample() {
		f := failure(ErrSampleProject)
		s.mu.Lock()
		s.failure = f
		s.mu.Unlock()
		s.cfg.Sink.WriteError(f.Message())
		return nil, f
	}

	started := time.Now()
	report, err := s.run(ctx)
	s.record(ctx, started, report, err)
	return report, err
}

func (s *Session) run(ctx context.Context) (*models.MergeReport, error) {
	// Refuse before advertising anything if the project is already being merged
	if name, err := platform.CleanRelative(s.cfg.Project.Name); err == nil && s.cfg.Locks.Held(name) {
		return nil, s.fail(ctx, merge.ErrMergeInProgress, true)
	}

	s.setState(ctx, StateResolvingAddress)
	addr, err := s.cfg.Resolver.Resolve(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, true)
	}
	s.mu.Lock()
	s.address = addr
	s.mu.Unlock()

	if s.cfg.Presenter != nil {
		if err := s.cfg.Presenter.PresentAddress(ctx, addr); err != nil {
			s.logger.Warn(ctx, "failed to present address", logging.Fields{"error": err.Error()})
		}
	}

	s.setState(ctx, StateAwaitingPeer)
	peer, err := s.cfg.Peer.WaitForPeer(ctx, addr)
	if err != nil {
		return nil, s.fail(ctx, err, true)
	}
	s.logger.Info(ctx, "device connected", logging.Fields{"device": peer.Addr, "host_address": addr.String()})

	s.setState(ctx, StateMerging)
	merger, err := merge.New(merge.Config{
		Project: s.cfg.Project.Name,
		Peer:    peer.Addr,
		Local:   s.cfg.Local,
		Remote:  peer.Link,
		Policy:  s.cfg.Policy,
		Retry:   s.cfg.Retry,
		Sink:    s.cfg.Sink,
		Metrics: s.cfg.Metrics,
		Logger:  s.cfg.Logger,
		Locks:   s.cfg.Locks,
	})
	if err != nil {
		return nil, s.fail(ctx, err, true)
	}

	report, err := merger.Merge(ctx, s.cfg.Skip)
	s.mu.Lock()
	s.report = report
	s.mu.Unlock()
	if err != nil {
		// The merger already reported transfer failures to the sink
		return report, s.fail(ctx, err, report == nil)
	}

	if !report.Status.Succeeded() {
		return report, s.fail(ctx, fmt.Errorf("merge ended with status %s", report.Status), true)
	}

	s.setState(ctx, StateFinalizing)
	if s.finalize(ctx, peer.Link) {
		s.cfg.Sink.WriteMessage(MessageCompleted)
	}
	s.setState(ctx, StateCompleted)
	return report, nil
}

// fail moves the session to failed and surfaces the message once
func (s *Session) fail(ctx context.Context, err error, surface bool) *Failure {
	f := failure(err)
	s.mu.Lock()
	s.failure = f
	s.mu.Unlock()

	s.logger.Error(ctx, "session failed", err, logging.Fields{"category": string(f.Category)})
	if surface {
		s.cfg.Sink.WriteError(f.Message())
	}
	s.setState(ctx, StateFailed)
	return f
}

// finalize writes the status file on both sides and notifies the device.
// Every step is attempted; it reports whether all of them succeeded.
func (s *Session) finalize(ctx context.Context, peer link.Link) bool {
	ok := true
	step := func(what string, err error) {
		if err == nil {
			return
		}
		ok = false
		s.logger.Error(ctx, "finalize step failed", err, logging.Fields{"step": what})
		s.cfg.Sink.WriteError(fmt.Sprintf("Could not %s: %s", what, link.Classify(err).Message()))
	}

	project := s.cfg.Project
	files, err := s.cfg.Local.ListFiles(ctx, project.Name)
	if err != nil {
		// Without a listing the status would be empty; keep both existing copies
		step("read the local project", err)
	} else {
		// Both copies share a modification time so the next merge leaves them alone
		content := []byte(project.renderStatus(files))
		modTime := time.Now().Truncate(time.Second)

		if err := s.cfg.Local.PutFile(ctx, project.StatusPath(), content, modTime); err != nil {
			step("write the local status file", err)
		} else {
			step("send the status file to the device", peer.PutFile(ctx, project.StatusPath(), content, modTime))
		}
	}
	step("notify the device", peer.SendNotification(ctx, link.EventSyncCompleted))

	return ok
}

func (s *Session) record(ctx context.Context, started time.Time, report *models.MergeReport, err error) {
	if s.cfg.History == nil {
		return
	}

	e := history.Entry{
		ID:        s.id,
		Project:   s.cfg.Project.Name,
		StartTime: started,
		EndTime:   time.Now(),
		State:     string(s.State()),
	}
	if addr := s.Address(); addr != nil {
		e.Address = addr.String()
	}
	if report != nil {
		e.Peer = report.Peer
		e.FromReport(report)
	}
	var f *Failure
	if errors.As(err, &f) {
		e.Category = string(f.Category)
		e.Message = f.Message()
	}

	if err := s.cfg.History.Record(e); err != nil {
		s.logger.Warn(ctx, "failed to record session history", logging.Fields{"error": err.Error()})
	}
}
