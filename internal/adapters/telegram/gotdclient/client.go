// Package gotdclient реализует chat.Client поверх gotd (MTProto).
// Клиент держит одно соединение: Connect поднимает client.Run в фоне и ждёт готовности,
// Disconnect гасит его ровно один раз. Все ошибки наружу проходят через classify.
package gotdclient

import (
	"context"
	"strings"
	"sync"
	"time"

	"telegram-messenger/internal/domain/chat"
	"telegram-messenger/internal/infra/storage"
	"telegram-messenger/internal/infra/telegram/peersmgr"
	"telegram-messenger/internal/infra/telegram/session"
	"telegram-messenger/internal/support/version"

	"github.com/go-faster/errors"
	boltstor "github.com/gotd/contrib/bbolt"
	"github.com/gotd/contrib/middleware/floodwait"
	"github.com/gotd/contrib/middleware/ratelimit"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/telegram/message"
	tgupdates "github.com/gotd/td/telegram/updates"
	"github.com/gotd/td/tg"
	"go.etcd.io/bbolt"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options — параметры подключения.
type Options struct {
	APIID   int
	APIHash string

	SessionFile    string
	PeersCacheFile string
	StateFile      string

	// ThrottleRPS ограничивает исходящие RPC; burst = 2*rate.
	ThrottleRPS int
	// FloodWaitMaxRetries — автоповторы FLOOD_WAIT для служебных запросов.
	// Отправка сообщений в них не участвует.
	FloodWaitMaxRetries int
	TestDC              bool

	Logger *zap.Logger
}

// Client — реализация chat.Client.
type Client struct {
	log     *zap.Logger
	client  *telegram.Client
	api     *tg.Client
	sender  *message.Sender
	waiter  *floodwait.Waiter
	peers   *peersmgr.Service
	handler *lazyUpdateHandler
	stateDB *bbolt.DB
	state   tgupdates.StateStorage

	authMu sync.Mutex
	code   pendingCode

	mu         sync.Mutex
	monitoring bool
	cancel     context.CancelFunc
	done       chan error
	closeOnce  sync.Once
	closeErr   error
}

var _ chat.Client = (*Client)(nil)

// lazyUpdateHandler позволяет подменять обработчик апдейтов после создания клиента:
// telegram.Options требует его раньше, чем готовы менеджеры пиров и апдейтов.
type lazyUpdateHandler struct {
	mu      sync.RWMutex
	handler telegram.UpdateHandler
}

func (h *lazyUpdateHandler) Handle(ctx context.Context, u tg.UpdatesClass) error {
	h.mu.RLock()
	handler := h.handler
	h.mu.RUnlock()
	if handler == nil {
		return nil
	}
	return handler.Handle(ctx, u)
}

func (h *lazyUpdateHandler) set(handler telegram.UpdateHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

// nopUpdates — обработчик вне режима мониторинга: апдейты нужны только ради сущностей.
var nopUpdates = telegram.UpdateHandlerFunc(func(context.Context, tg.UpdatesClass) error { return nil })

const (
	defaultDeviceModel = "telegram-messenger"
	dbOpenTimeout      = time.Second
)

// New собирает клиент и открывает локальные хранилища. Сеть не трогает.
func New(opts Options) (*Client, error) {
	if opts.APIID <= 0 || strings.TrimSpace(opts.APIHash) == "" {
		return nil, errors.New("gotdclient: api id and hash are required")
	}
	if opts.ThrottleRPS <= 0 {
		return nil, errors.Errorf("gotdclient: invalid throttle rps %d", opts.ThrottleRPS)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	c := &Client{
		log:     log,
		handler: &lazyUpdateHandler{},
	}
	c.waiter = floodwait.NewWaiter().
		WithMaxRetries(opts.FloodWaitMaxRetries).
		WithCallback(func(_ context.Context, wait floodwait.FloodWait) {
			log.Warn("FloodWait on service request, waiting", zap.Duration("wait", wait.Duration))
		})

	options := telegram.Options{
		SessionStorage: &session.FileStorage{
			Path:    opts.SessionFile,
			OnStore: func() { log.Debug("session stored", zap.String("path", opts.SessionFile)) },
		},
		UpdateHandler: c.handler,
		Middlewares: []telegram.Middleware{
			bypassFor{inner: c.waiter, skip: isSendRequest},
			ratelimit.New(rate.Limit(opts.ThrottleRPS), opts.ThrottleRPS*2),
		},
		Logger: log.Named("mtproto").WithOptions(zap.IncreaseLevel(zap.WarnLevel)),
		Device: telegram.DeviceConfig{
			DeviceModel: defaultDeviceModel,
			AppVersion:  version.Version,
		},
	}
	if opts.TestDC {
		options.DCList = dcs.Test()
	}

	c.client = telegram.NewClient(opts.APIID, opts.APIHash, options)
	c.api = c.client.API()
	c.sender = message.NewSender(c.api)

	peersSvc, err := peersmgr.New(c.api, opts.PeersCacheFile)
	if err != nil {
		return nil, errors.Wrap(err, "init peers cache")
	}
	c.peers = peersSvc
	c.handler.set(peersSvc.UpdateHook(nopUpdates))

	if err := storage.EnsureDir(opts.StateFile); err != nil {
		_ = peersSvc.Close()
		return nil, errors.Wrap(err, "ensure state dir")
	}
	stateDB, err := bbolt.Open(opts.StateFile, storage.PrivateFilePerm, &bbolt.Options{Timeout: dbOpenTimeout})
	if err != nil {
		_ = peersSvc.Close()
		return nil, errors.Wrap(err, "open updates state")
	}
	c.stateDB = stateDB
	c.state = boltstor.NewStateStorage(stateDB)

	return c, nil
}

// Connect поднимает соединение и возвращается, когда клиент готов к RPC.
// Повторный Connect на том же клиенте не поддерживается.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return chat.Other(errors.New("already connected"))
	}
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	c.cancel, c.done = cancel, done
	c.mu.Unlock()

	ready := make(chan struct{})
	go func() {
		done <- c.waiter.Run(runCtx, func(ctx context.Context) error {
			return c.client.Run(ctx, func(ctx context.Context) error {
				close(ready)
				<-ctx.Done()
				return ctx.Err()
			})
		})
	}()

	select {
	case <-ready:
	case err := <-done:
		done <- err
		return classify(errors.Wrap(err, "connect"))
	case <-ctx.Done():
		cancel()
		done <- <-done
		return ctx.Err()
	}

	if err := c.peers.LoadFromStorage(ctx); err != nil {
		c.log.Warn("Failed to load peers cache", zap.Error(err))
	}
	c.log.Info("Connected to Telegram")
	return nil
}

// Disconnect останавливает соединение и закрывает хранилища. Идемпотентен.
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		cancel, done := c.cancel, c.done
		c.mu.Unlock()

		var err error
		if cancel != nil {
			cancel()
			if runErr := <-done; runErr != nil && !errors.Is(runErr, context.Canceled) {
				err = multierr.Append(err, errors.Wrap(runErr, "client run"))
			}
		}
		if closeErr := c.peers.Close(); closeErr != nil {
			err = multierr.Append(err, errors.Wrap(closeErr, "close peers cache"))
		}
		if closeErr := c.stateDB.Close(); closeErr != nil {
			err = multierr.Append(err, errors.Wrap(closeErr, "close updates state"))
		}
		c.closeErr = err
		c.log.Info("Disconnected")
	})
	return c.closeErr
}

func (c *Client) Self(ctx context.Context) (chat.Self, error) {
	u, err := c.client.Self(ctx)
	if err != nil {
		return chat.Self{}, classify(errors.Wrap(err, "get self"))
	}
	return chat.Self{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Username: u.Username}, nil
}
