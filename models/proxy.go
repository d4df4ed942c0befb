package models

// Proxy задаёт SOCKS5-прокси, через который аккаунт подключается к Telegram.
type Proxy struct {
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Login    string `json:"login"`
	Password string `json:"password"`
}
