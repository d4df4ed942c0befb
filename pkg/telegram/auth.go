package telegram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// ErrSignUpNotSupported — номер не зарегистрирован в Telegram.
var ErrSignUpNotSupported = errors.New("регистрация новых аккаунтов не поддерживается")

// TerminalAuth реализует auth.UserAuthenticator: код и пароль двухэтапной проверки
// запрашиваются у оператора через in/out.
type TerminalAuth struct {
	phone string
	out   io.Writer

	mu sync.Mutex
	in *bufio.Reader
}

func NewTerminalAuth(phone string, in io.Reader, out io.Writer) *TerminalAuth {
	return &TerminalAuth{phone: phone, in: bufio.NewReader(in), out: out}
}

func (a *TerminalAuth) Phone(ctx context.Context) (string, error) {
	return a.phone, nil
}

func (a *TerminalAuth) Code(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
	return a.ask(ctx, fmt.Sprintf("Enter the code for %s: ", a.phone))
}

func (a *TerminalAuth) Password(ctx context.Context) (string, error) {
	return a.ask(ctx, fmt.Sprintf("Two-step verification required for %s. Enter your password: ", a.phone))
}

func (a *TerminalAuth) AcceptTermsOfService(ctx context.Context, tos tg.HelpTermsOfService) error {
	return nil
}

func (a *TerminalAuth) SignUp(ctx context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, ErrSignUpNotSupported
}

func (a *TerminalAuth) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := io.WriteString(a.out, prompt); err != nil {
		return "", err
	}
	line, err := a.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	if line == "" {
		return "", fmt.Errorf("пустой ввод")
	}
	return line, nil
}
