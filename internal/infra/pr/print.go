// Package pr — консольный ввод-вывод клиента. После Init строки читаются через readline
// с отменяемым stdin, а печать идёт в его буферы, чтобы логи не рвали строку приглашения.
// До Init используется обычный stdin/stdout.
package pr

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/kr/pretty"
	"golang.org/x/term"
)

// ErrInterrupted — ввод прерван Ctrl+C.
var ErrInterrupted = errors.New("input interrupted")

var (
	mu sync.Mutex
	rl *readline.Instance

	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr

	cancelableIn io.Closer
	plainIn      *bufio.Reader
)

// Init поднимает readline поверх отменяемого stdin и переключает вывод на него.
func Init() error {
	cs := readline.NewCancelableStdin(os.Stdin)
	inst, err := readline.NewEx(&readline.Config{
		Stdin:           cs,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		_ = cs.Close()
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	rl = inst
	cancelableIn = cs
	out = inst.Stdout()
	errOut = inst.Stderr()
	return nil
}

// Close освобождает readline и возвращает вывод на stdout/stderr.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if rl != nil {
		_ = rl.Close()
		rl = nil
	}
	cancelableIn = nil
	out, errOut = os.Stdout, os.Stderr
}

// InterruptReadline закрывает stdin: ожидающий ReadLine получает io.EOF.
func InterruptReadline() {
	mu.Lock()
	c := cancelableIn
	mu.Unlock()
	if c != nil {
		_ = c.Close()
	}
}

// Interactive сообщает, подключён ли stdin к терминалу.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func instance() *readline.Instance {
	mu.Lock()
	defer mu.Unlock()
	return rl
}

// ReadLine печатает prompt и возвращает введённую строку без пробелов по краям.
// Ctrl+C даёт ErrInterrupted, закрытый stdin — io.EOF.
func ReadLine(prompt string) (string, error) {
	inst := instance()
	if inst == nil {
		return readPlain(prompt)
	}
	inst.SetPrompt(prompt)
	line, err := inst.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}
	return strings.TrimSpace(line), err
}

func readPlain(prompt string) (string, error) {
	mu.Lock()
	if plainIn == nil {
		plainIn = bufio.NewReader(os.Stdin)
	}
	in := plainIn
	mu.Unlock()

	Print(prompt)
	line, err := in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadPassword читает строку без эха. Вне терминала читает обычную строку.
func ReadPassword(prompt string) (string, error) {
	if inst := instance(); inst != nil {
		b, err := inst.ReadPassword(prompt)
		if errors.Is(err, readline.ErrInterrupt) {
			return "", ErrInterrupted
		}
		return string(b), err
	}
	if !Interactive() {
		return readPlain(prompt)
	}
	Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	Println()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Stdout — текущий writer вывода; записи в него потокобезопасны после Init.
func Stdout() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

func Stderr() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return errOut
}

// SetOutput подменяет writer'ы. Нужен тестам консольных команд.
func SetOutput(stdout, stderr io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out, errOut = stdout, stderr
}

func Print(a ...any)                 { fmt.Fprint(Stdout(), a...) }
func Println(a ...any)               { fmt.Fprintln(Stdout(), a...) }
func Printf(format string, a ...any) { fmt.Fprintf(Stdout(), format, a...) }

func ErrPrintln(a ...any)               { fmt.Fprintln(Stderr(), a...) }
func ErrPrintf(format string, a ...any) { fmt.Fprintf(Stderr(), format, a...) }

// Pf возвращает pretty-представление значения (kr/pretty) для отладочных дампов.
func Pf(v any) string {
	return fmt.Sprintf("%# v", pretty.Formatter(v))
}
