package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"atg_autocomment/models"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"
)

// fakeSender запоминает отправки и по очереди возвращает заданные ошибки.
type fakeSender struct {
	mu     sync.Mutex
	sent   []sentComment
	errs   []error
	events *[]string
}

type sentComment struct {
	post Post
	text string
}

func (s *fakeSender) Send(ctx context.Context, post Post, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentComment{post: post, text: text})
	if s.events != nil {
		*s.events = append(*s.events, "send")
	}
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeStore struct {
	mu       sync.Mutex
	comments []models.CommentRecord
	floods   []time.Time
}

func (s *fakeStore) SaveComment(ctx context.Context, rec models.CommentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append(s.comments, rec)
	return nil
}

func (s *fakeStore) MarkFloodWait(ctx context.Context, phone string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.floods = append(s.floods, until)
	return nil
}

// newTestCommenter создаёт Commenter, у которого ожидания только записываются.
func newTestCommenter(sender Sender, store CommentStore, delay time.Duration, events *[]string) (*Commenter, *[]time.Duration) {
	var waits []time.Duration
	c := NewCommenter(sender, store, "+79990000001", delay, zap.NewNop())
	c.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		if events != nil {
			*events = append(*events, "wait "+d.String())
		}
		return ctx.Err()
	}
	return c, &waits
}

var testChannel = models.Channel{Username: "@news", Comment: "Первый!"}

// TestCommenter_Sends проверяет задержку перед отправкой и запись в журнал.
func TestCommenter_Sends(t *testing.T) {
	sender := &fakeSender{}
	store := &fakeStore{}
	c, waits := newTestCommenter(sender, store, 2*time.Second, nil)

	post := Post{Handle: "news", Channel: &tg.Channel{ID: 42}, MsgID: 7}
	if err := c.Handle(context.Background(), post, testChannel); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if sender.count() != 1 || sender.sent[0].text != "Первый!" || sender.sent[0].post.MsgID != 7 {
		t.Fatalf("ожидался один комментарий к посту 7: %+v", sender.sent)
	}
	if len(*waits) != 1 || (*waits)[0] != 2*time.Second {
		t.Fatalf("ожидалась задержка 2s перед отправкой, получено %v", *waits)
	}
	if len(store.comments) != 1 || store.comments[0].ChannelID != 42 || store.comments[0].Channel != "news" {
		t.Fatalf("неверная запись журнала: %+v", store.comments)
	}
}

// TestCommenter_FloodWait проверяет паузу на время FLOOD_WAIT без повтора отправки.
func TestCommenter_FloodWait(t *testing.T) {
	var events []string
	sender := &fakeSender{errs: []error{tgerr.New(420, "FLOOD_WAIT_7")}, events: &events}
	store := &fakeStore{}
	c, _ := newTestCommenter(sender, store, 0, &events)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	post := Post{Handle: "news", Channel: &tg.Channel{ID: 42}, MsgID: 7}
	if err := c.Handle(context.Background(), post, testChannel); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if err := c.Handle(context.Background(), Post{Handle: "news", Channel: &tg.Channel{ID: 42}, MsgID: 8}, testChannel); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	want := []string{"wait 0s", "send", "wait 7s", "wait 0s", "send"}
	if len(events) != len(want) {
		t.Fatalf("ожидались события %v, получено %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("ожидались события %v, получено %v", want, events)
		}
	}
	if sender.count() != 2 || sender.sent[1].post.MsgID != 8 {
		t.Fatalf("пост 7 не должен отправляться повторно: %+v", sender.sent)
	}
	if len(store.floods) != 1 || !store.floods[0].Equal(now.Add(7*time.Second)) {
		t.Fatalf("неверная отметка флуд-бана: %v", store.floods)
	}
	if len(store.comments) != 1 || store.comments[0].PostID != 8 {
		t.Fatalf("в журнал должен попасть только пост 8: %+v", store.comments)
	}
}

// TestCommenter_FloodWaitBlocksConcurrentSend проверяет, что пока идёт пауза,
// параллельное событие того же аккаунта не отправляется.
func TestCommenter_FloodWaitBlocksConcurrentSend(t *testing.T) {
	sender := &fakeSender{errs: []error{tgerr.New(420, "FLOOD_WAIT_30")}}
	c := NewCommenter(sender, nil, "+79990000001", 0, zap.NewNop())

	entered := make(chan struct{})
	release := make(chan struct{})
	c.wait = func(ctx context.Context, d time.Duration) error {
		if d == 30*time.Second {
			close(entered)
			<-release
		}
		return nil
	}

	first := make(chan error, 1)
	go func() { first <- c.Handle(context.Background(), Post{MsgID: 1}, testChannel) }()
	<-entered

	second := make(chan error, 1)
	go func() { second <- c.Handle(context.Background(), Post{MsgID: 2}, testChannel) }()

	time.Sleep(50 * time.Millisecond)
	if n := sender.count(); n != 1 {
		t.Fatalf("во время паузы отправок быть не должно, получено %d", n)
	}

	close(release)
	if err := <-first; err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if n := sender.count(); n != 2 {
		t.Fatalf("после паузы ожидалась вторая отправка, получено %d", n)
	}
}

// TestCommenter_FloodWaitRealDelay проверяет реальное ожидание не меньше D.
func TestCommenter_FloodWaitRealDelay(t *testing.T) {
	sender := &fakeSender{errs: []error{tgerr.New(420, "FLOOD_WAIT_1")}}
	c := NewCommenter(sender, nil, "+79990000001", 0, zap.NewNop())

	start := time.Now()
	if err := c.Handle(context.Background(), Post{MsgID: 1}, testChannel); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if err := c.Handle(context.Background(), Post{MsgID: 2}, testChannel); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Fatalf("вторая отправка прошла раньше окончания паузы: %s", elapsed)
	}
}

// TestCommenter_SendError проверяет, что прочие ошибки логируются и событие отбрасывается.
func TestCommenter_SendError(t *testing.T) {
	sender := &fakeSender{errs: []error{errors.New("CHAT_WRITE_FORBIDDEN")}}
	store := &fakeStore{}
	c, waits := newTestCommenter(sender, store, time.Second, nil)

	if err := c.Handle(context.Background(), Post{MsgID: 1}, testChannel); err != nil {
		t.Fatalf("ошибка отправки не должна выходить наружу: %v", err)
	}
	if sender.count() != 1 {
		t.Fatalf("повторов быть не должно, получено %d отправок", sender.count())
	}
	if len(*waits) != 1 {
		t.Fatalf("после ошибки не должно быть ожиданий, получено %v", *waits)
	}
	if len(store.comments) != 0 || len(store.floods) != 0 {
		t.Fatalf("в журнал ничего не должно попасть")
	}
}

// TestCommenter_Cancelled проверяет, что отмена во время задержки прерывает отправку.
func TestCommenter_Cancelled(t *testing.T) {
	sender := &fakeSender{}
	c := NewCommenter(sender, nil, "+79990000001", time.Hour, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Handle(ctx, Post{MsgID: 1}, testChannel); !errors.Is(err, context.Canceled) {
		t.Fatalf("ожидалась context.Canceled, получено %v", err)
	}
	if sender.count() != 0 {
		t.Fatalf("после отмены отправок быть не должно")
	}
}
