package models

// Config описывает содержимое config.json.
type Config struct {
	Accounts []Account `json:"accounts"`
}

// Account — аккаунт Telegram, от имени которого оставляются комментарии.
// Идентифицируется номером телефона.
type Account struct {
	Phone    string    `json:"phone"`
	ApiID    int       `json:"api_id"`
	ApiHash  string    `json:"api_hash"`
	Channels []Channel `json:"channels"`
	Proxy    *Proxy    `json:"proxy,omitempty"`
}

// Channel — канал, за которым следит аккаунт, и текст комментария к новым постам.
type Channel struct {
	Username string `json:"username"`
	Comment  string `json:"comment"`
}
