package telegram

import (
	"sort"
	"strings"
	"sync"

	"atg_autocomment/models"

	"github.com/gotd/td/tg"
)

// NormalizeUsername убирает ведущий "@" из имени канала. Остальное сравнивается как есть.
func NormalizeUsername(handle string) string {
	return strings.TrimPrefix(handle, "@")
}

// Router сопоставляет каналы из обновлений с каналами аккаунта.
type Router struct {
	mu       sync.RWMutex
	byHandle map[string]models.Channel
	byID     map[int64]models.Channel
	peers    map[int64]*tg.Channel
}

// NewRouter строит маршруты по каналам одного аккаунта.
// При повторе имени побеждает первая запись, как и при обходе списка по порядку.
func NewRouter(channels []models.Channel) *Router {
	r := &Router{
		byHandle: make(map[string]models.Channel, len(channels)),
		byID:     make(map[int64]models.Channel),
		peers:    make(map[int64]*tg.Channel),
	}
	for _, ch := range channels {
		key := NormalizeUsername(ch.Username)
		if _, ok := r.byHandle[key]; ok {
			continue
		}
		r.byHandle[key] = ch
	}
	return r
}

// Match ищет канал по имени.
func (r *Router) Match(handle string) (models.Channel, bool) {
	if handle == "" {
		return models.Channel{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.byHandle[NormalizeUsername(handle)]
	return ch, ok
}

// Bind запоминает разрешённый канал Telegram для настроенного имени,
// чтобы узнавать его и в обновлениях без сведений о канале.
func (r *Router) Bind(handle string, peer *tg.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.byHandle[NormalizeUsername(handle)]
	if !ok || peer == nil {
		return
	}
	r.byID[peer.ID] = ch
	r.peers[peer.ID] = peer
}

// Lookup находит настроенный канал по каналу из обновления.
// Сначала сравниваются имена канала (основное и дополнительные), затем ID из Bind.
// У min-канала access hash непригоден, поэтому при наличии берётся канал из Bind.
func (r *Router) Lookup(channelID int64, peer *tg.Channel) (models.Channel, *tg.Channel, bool) {
	if peer != nil {
		ch, ok := r.Match(peer.Username)
		for _, u := range peer.Usernames {
			if ok {
				break
			}
			ch, ok = r.Match(u.Username)
		}
		if ok {
			return ch, r.usablePeer(channelID, peer), true
		}
	}

	r.mu.RLock()
	ch, ok := r.byID[channelID]
	r.mu.RUnlock()
	if !ok {
		return models.Channel{}, nil, false
	}
	return ch, r.usablePeer(channelID, peer), true
}

// usablePeer возвращает канал, с которым можно отправлять запросы.
func (r *Router) usablePeer(channelID int64, peer *tg.Channel) *tg.Channel {
	if peer != nil && !peer.Min {
		return peer
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if bound, ok := r.peers[channelID]; ok {
		return bound
	}
	return peer
}

// Handles возвращает имена настроенных каналов.
func (r *Router) Handles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byHandle))
	for h := range r.byHandle {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
