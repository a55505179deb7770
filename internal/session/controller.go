package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alanbriolat/audio-downloader"
	"github.com/alanbriolat/audio-downloader/generic"
	"github.com/alanbriolat/audio-downloader/internal/blob"
	"github.com/alanbriolat/audio-downloader/internal/gateway"
	"github.com/alanbriolat/audio-downloader/internal/lpc"
	"github.com/alanbriolat/audio-downloader/internal/pubsub"
	"github.com/alanbriolat/audio-downloader/internal/sync_"
)

type Gateway interface {
	FetchDownload(ctx context.Context, req audio_downloader.DownloadRequest) (*http.Response, error)
	OpenProgressStream(ctx context.Context, req audio_downloader.DownloadRequest) *gateway.ProgressStream
}

var _ Gateway = &gateway.Client{}

// A Saver delivers a blob to the user under filename, returning where it ended up.
type Saver interface {
	Save(ctx context.Context, b *blob.Blob, filename string) (string, error)
}

var _ Saver = (*blob.DirSaver)(nil)

// A Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

type Config struct {
	// Backend base address, used when Gateway is nil.
	BackendURL string
	Gateway    Gateway
	// Directory files are saved to, used when Saver is nil.
	SaveDir string
	Saver   Saver
	// If nil, the controller creates (and closes) its own store.
	Store *blob.Store
	// Asked before starting an attempt for a URL no known host matches. If nil, the attempt continues.
	Confirmer Confirmer
	// If nil, no host check is made.
	Hosts           *audio_downloader.HostRegistry
	History         History
	DefaultFilename string
	ReleaseDelay    time.Duration
}

var DefaultConfig = Config{
	BackendURL:      audio_downloader.DefaultBackendURL,
	SaveDir:         ".",
	Hosts:           &audio_downloader.DefaultHostRegistry,
	History:         NilHistory{},
	DefaultFilename: audio_downloader.DefaultFilename,
	ReleaseDelay:    audio_downloader.DefaultReleaseDelay,
}

type updateCommand = *lpc.Command[func(*State) error, State]

// Controller owns the state of one download session and runs at most one attempt at a time. All changes to State
// happen on a single goroutine; attempt I/O runs on the caller's goroutine and posts updates to it.
type Controller struct {
	config    Config
	gateway   Gateway
	saver     Saver
	store     *blob.Store
	ownsStore bool

	ctx       context.Context
	ctxCancel context.CancelFunc
	log       *zap.SugaredLogger

	commands chan updateCommand
	done     chan struct{}
	events   pubsub.Publisher[Event]
	state    State

	releases  *sync_.Mutexed[generic.Set[*pendingRelease]]
	closeOnce sync.Once
}

func New(ctx context.Context, config Config) (*Controller, error) {
	c := &Controller{
		config:   config,
		gateway:  config.Gateway,
		saver:    config.Saver,
		store:    config.Store,
		log:      zap.S().Named("session"),
		commands: make(chan updateCommand),
		done:     make(chan struct{}),
		events:   pubsub.NewPublisher[Event](),
		state:    InitialState(),
		releases: sync_.NewMutexed(generic.NewSet[*pendingRelease]()),
	}
	if c.gateway == nil {
		c.gateway = gateway.New(config.BackendURL)
	}
	if c.saver == nil {
		c.saver = blob.NewDirSaver(config.SaveDir)
	}
	if c.store == nil {
		store, err := blob.NewStore()
		if err != nil {
			return nil, fmt.Errorf("failed to create blob store: %w", err)
		}
		c.store = store
		c.ownsStore = true
	}
	if c.config.History == nil {
		c.config.History = NilHistory{}
	}
	if c.config.DefaultFilename == "" {
		c.config.DefaultFilename = audio_downloader.DefaultFilename
	}
	c.ctx, c.ctxCancel = context.WithCancel(ctx)
	go c.run()
	return c, nil
}

// Subscribe to all events from this session. The subscription is closed when the session is closed. Events are
// queued without limit, so a subscriber that falls behind never holds up the session.
func (c *Controller) Subscribe() (pubsub.ReceiverCloser[Event], error) {
	return c.subscribe(nil)
}

// SubscribeLog is like Subscribe, but only delivers LogAppended events.
func (c *Controller) SubscribeLog() (pubsub.ReceiverCloser[Event], error) {
	return c.subscribe(func(e Event) bool {
		_, ok := e.(LogAppended)
		return ok
	})
}

func (c *Controller) subscribe(accept func(Event) bool) (pubsub.ReceiverCloser[Event], error) {
	q := pubsub.NewQueue[Event]()
	if err := c.events.AddSubscriber(pubsub.NewFilteredSender[Event](q, accept), true); err != nil {
		return nil, err
	}
	return q, nil
}

// State returns a snapshot of the current session state.
func (c *Controller) State() (State, error) {
	return c.update(nil)
}

// ClearLog resets the session to its initial state. Not allowed while an attempt is active.
func (c *Controller) ClearLog() error {
	_, err := c.update(func(s *State) error {
		if s.IsActive {
			return ErrActive
		}
		epoch := s.logEpoch
		*s = InitialState()
		s.logEpoch = epoch + 1
		return nil
	})
	return err
}

// Close releases any blobs still waiting for their release timer, stops the session loop and closes all
// subscriptions.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.log.Debug("closing session")
		c.flushReleases()
		c.ctxCancel()
		<-c.done
		c.events.Close()
		if c.ownsStore {
			if err := c.store.Close(); err != nil {
				c.log.Warnf("failed to close blob store: %v", err)
			}
		}
	})
}

func (c *Controller) appendLog(severity Severity, format string, args ...interface{}) {
	_, _ = c.update(func(s *State) error {
		s.appendLog(severity, format, args...)
		return nil
	})
}
