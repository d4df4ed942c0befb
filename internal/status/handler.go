package status

import (
	"net/http"

	"atg_autocomment/pkg/telegram"

	"github.com/gin-gonic/gin"
)

// Provider отдаёт состояние сессий. Реализуется *runner.Runner.
type Provider interface {
	Sessions() []telegram.SessionInfo
}

type Handler struct {
	provider Provider
}

func NewHandler(p Provider) *Handler {
	return &Handler{provider: p}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Sessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.provider.Sessions()})
}

// Session отдаёт одну сессию по номеру телефона.
func (h *Handler) Session(c *gin.Context) {
	phone := c.Param("phone")
	for _, s := range h.provider.Sessions() {
		if s.Phone == phone {
			c.JSON(http.StatusOK, s)
			return
		}
	}
	respondError(c, http.StatusNotFound, "session not found")
}

// respondError отвечает ошибкой в едином формате и прекращает обработку запроса.
func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
