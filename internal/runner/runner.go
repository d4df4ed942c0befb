package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"atg_autocomment/models"
	"atg_autocomment/pkg/telegram"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoClients — ни один аккаунт не удалось запустить.
var ErrNoClients = errors.New("no clients were initialized successfully")

// Client — запущенная сессия аккаунта. Реализуется *telegram.Session.
type Client interface {
	Start(ctx context.Context) error
	Stop()
	Done() <-chan struct{}
	// Err — ошибка, с которой клиент завершился сам.
	Err() error
	Info() telegram.SessionInfo
}

// Factory создаёт клиента для аккаунта.
type Factory func(acc models.Account) Client

// Runner запускает клиентов всех аккаунтов и держит их до прерывания.
type Runner struct {
	factory Factory
	log     *zap.Logger
	out     io.Writer

	mu      sync.RWMutex
	clients []Client
}

// New создаёт Runner. В out печатаются строки состояния для оператора.
func New(factory Factory, log *zap.Logger, out io.Writer) *Runner {
	return &Runner{factory: factory, log: log.Named("runner"), out: out}
}

// Run поднимает аккаунты по очереди, чтобы запросы кода авторизации не перемешивались,
// затем ждёт, пока все клиенты завершатся или ctx будет отменён.
// В конце каждый запущенный клиент останавливается ровно один раз.
func (r *Runner) Run(ctx context.Context, accounts []models.Account) error {
	for _, acc := range r.mergeAccounts(accounts) {
		if ctx.Err() != nil {
			break
		}
		log := r.log.With(zap.String("phone", acc.Phone))
		log.Info("инициализация клиента")

		c := r.factory(acc)
		if err := c.Start(ctx); err != nil {
			log.Error("не удалось инициализировать клиента", zap.Error(err))
			continue
		}
		log.Info("клиент подключён и готов к работе")

		r.mu.Lock()
		r.clients = append(r.clients, c)
		r.mu.Unlock()
	}

	started := r.started()
	if len(started) == 0 {
		r.log.Error("ни один клиент не инициализирован")
		return ErrNoClients
	}

	r.log.Info("бот запущен", zap.Int("clients", len(started)))
	fmt.Fprintf(r.out, "Bot is running with %d clients. Press Ctrl+C to stop.\n", len(started))

	var g errgroup.Group
	for _, c := range started {
		g.Go(func() error {
			<-c.Done()
			if err := c.Err(); err != nil {
				return fmt.Errorf("клиент %s: %w", c.Info().Phone, err)
			}
			return nil
		})
	}
	result := make(chan error, 1)
	go func() { result <- g.Wait() }()

	select {
	case <-ctx.Done():
		r.log.Info("завершение работы ботов")
	case err := <-result:
		r.log.Info("все клиенты завершили работу")
		result <- err
	}

	for _, c := range started {
		c.Stop()
	}
	if err := <-result; err != nil {
		r.log.Error("клиент завершился с ошибкой", zap.Error(err))
	}
	r.log.Info("боты остановлены")
	fmt.Fprintln(r.out, "Bot has been stopped.")
	return nil
}

// mergeAccounts склеивает записи с одинаковым телефоном: на номер приходится одна сессия,
// каналы повторных записей добавляются к первой.
func (r *Runner) mergeAccounts(accounts []models.Account) []models.Account {
	index := make(map[string]int, len(accounts))
	out := make([]models.Account, 0, len(accounts))
	for _, acc := range accounts {
		i, ok := index[acc.Phone]
		if !ok {
			index[acc.Phone] = len(out)
			acc.Channels = append([]models.Channel(nil), acc.Channels...)
			out = append(out, acc)
			continue
		}
		r.log.Warn("повторная запись аккаунта, каналы добавлены к первой", zap.String("phone", acc.Phone))
		out[i].Channels = append(out[i].Channels, acc.Channels...)
	}
	return out
}

// Sessions возвращает состояние запущенных клиентов.
func (r *Runner) Sessions() []telegram.SessionInfo {
	started := r.started()
	out := make([]telegram.SessionInfo, 0, len(started))
	for _, c := range started {
		out = append(out, c.Info())
	}
	return out
}

func (r *Runner) started() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Client(nil), r.clients...)
}
