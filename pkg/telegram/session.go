package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"atg_autocomment/models"
	"atg_autocomment/pkg/storage"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/updates"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

var errStoppedEarly = errors.New("клиент остановлен до готовности")

// State — состояние клиентской сессии аккаунта.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateAuthorizing   State = "authorizing"
	StateConnected     State = "connected"
	StateRunning       State = "running"
	StateStopped       State = "stopped"
)

// SessionInfo — снимок состояния сессии для журнала и эндпоинта статуса.
type SessionInfo struct {
	Phone    string   `json:"phone"`
	State    State    `json:"state"`
	Channels []string `json:"channels"`
}

// Options — общие параметры для сессий всех аккаунтов.
type Options struct {
	SessionDir string
	// DB включает хранение сессий и журнала комментариев в Postgres.
	DB         *storage.DB
	ReplyDelay time.Duration
	// Ввод кода и пароля при первой авторизации.
	Input  io.Reader
	Output io.Writer
	Logger *zap.Logger
}

// Session — одно подключение к Telegram от имени аккаунта.
type Session struct {
	acc  models.Account
	opts Options
	log  *zap.Logger
	auth *TerminalAuth

	mu     sync.RWMutex
	state  State
	cancel context.CancelFunc
	err    error

	started  bool
	done     chan struct{}
	stopOnce sync.Once
}

func NewSession(acc models.Account, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Session{
		acc:   acc,
		opts:  opts,
		log:   log.Named("session").With(zap.String("phone", acc.Phone)),
		auth:  NewTerminalAuth(acc.Phone, opts.Input, opts.Output),
		state: StateUninitialized,
		done:  make(chan struct{}),
	}
}

// Start подключает аккаунт и возвращает управление, когда авторизация пройдена
// и обработчики зарегистрированы. Дальше клиент работает в фоне до Stop или отмены ctx.
// При ошибке сессия уже остановлена.
func (s *Session) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.started = true
	s.mu.Unlock()

	dispatcher := tg.NewUpdateDispatcher()
	gaps := updates.New(updates.Config{
		Handler: dispatcher,
		Logger:  s.log.Named("gaps"),
	})

	store, err := s.sessionStorage()
	if err != nil {
		close(s.done)
		s.Stop()
		return err
	}
	client, err := NewClient(s.acc, store, gaps, s.log.Named("client"))
	if err != nil {
		close(s.done)
		s.Stop()
		return err
	}

	ready := make(chan error, 1)
	go func() {
		defer close(s.done)
		err := client.Run(ctx, func(ctx context.Context) error {
			return s.run(ctx, client, dispatcher, gaps, ready)
		})
		// Ошибка после Stop или прерывания — штатное завершение.
		if err != nil && ctx.Err() == nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
		s.setState(StateStopped)
		if err == nil {
			err = errStoppedEarly
		}
		// Если до готовности не дошли, Start ждёт именно эту ошибку.
		select {
		case ready <- fmt.Errorf("клиент %s: %w", s.acc.Phone, err):
		default:
		}
	}()

	select {
	case err := <-ready:
		if err != nil {
			s.Stop()
			return err
		}
		return nil
	case <-ctx.Done():
		s.Stop()
		return ctx.Err()
	}
}

func (s *Session) run(ctx context.Context, client *telegram.Client, dispatcher tg.UpdateDispatcher, gaps *updates.Manager, ready chan<- error) error {
	s.setState(StateAuthorizing)
	s.log.Info("авторизация")
	flow := auth.NewFlow(s.auth, auth.SendCodeOptions{})
	if err := client.Auth().IfNecessary(ctx, flow); err != nil {
		return fmt.Errorf("авторизация: %w", err)
	}

	self, err := client.Self(ctx)
	if err != nil {
		return fmt.Errorf("получение аккаунта: %w", err)
	}
	s.setState(StateConnected)
	s.log.Info("клиент подключён", zap.Int64("user_id", self.ID))

	api := client.API()
	router := NewRouter(s.acc.Channels)
	ResolveChannels(ctx, api, router, s.log)

	var store CommentStore
	if s.opts.DB != nil {
		store = s.opts.DB
	}
	commenter := NewCommenter(NewDiscussionSender(api), store, s.acc.Phone, s.opts.ReplyDelay, s.log.Named("commenter"))
	RegisterHandlers(dispatcher, router, commenter, s.log)
	s.log.Info("обработчики каналов зарегистрированы", zap.Strings("channels", router.Handles()))

	s.setState(StateRunning)
	ready <- nil

	return gaps.Run(ctx, api, self.ID, updates.AuthOptions{})
}

func (s *Session) sessionStorage() (session.Storage, error) {
	if s.opts.DB == nil {
		if err := os.MkdirAll(s.opts.SessionDir, 0o700); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}
	return SessionStorage(s.opts.SessionDir, s.opts.DB, s.acc.Phone), nil
}

// Stop останавливает клиента и ждёт его завершения. Повторные вызовы ничего не делают.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.mu.RLock()
		cancel, started := s.cancel, s.started
		s.mu.RUnlock()

		if cancel != nil {
			cancel()
		}
		if started {
			<-s.done
		}
		s.setState(StateStopped)
		s.log.Info("клиент остановлен")
	})
}

// Err возвращает ошибку, с которой клиент завершился сам, без Stop.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Done закрывается, когда клиент завершил работу.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	channels := make([]string, 0, len(s.acc.Channels))
	for _, ch := range s.acc.Channels {
		channels = append(channels, NormalizeUsername(ch.Username))
	}
	return SessionInfo{Phone: s.acc.Phone, State: s.state, Channels: channels}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return
	}
	s.state = state
	s.log.Debug("состояние сессии", zap.String("state", string(state)))
}
