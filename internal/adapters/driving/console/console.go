package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/custodia-labs/handbook/internal/core/ports/driving"
	"github.com/custodia-labs/handbook/internal/logger"
)

// ErrMissingSearchService is returned when the console has nothing to query.
var ErrMissingSearchService = errors.New("console: search service is required")

// DefaultPrompt is printed before each query.
const DefaultPrompt = "\nQuery> "

const clearSequence = "\033[H\033[2J"

// Console reads queries line by line and prints ranked passages.
type Console struct {
	search    driving.SearchService
	presenter Presenter
	in        io.Reader
	out       io.Writer
	info      SessionInfo
	prompt    string
	now       func() time.Time
}

// Option configures a Console.
type Option func(*Console)

// WithSessionInfo sets the banner details.
func WithSessionInfo(info SessionInfo) Option {
	return func(c *Console) {
		c.info = info
	}
}

// WithPrompt replaces the query prompt.
func WithPrompt(prompt string) Option {
	return func(c *Console) {
		c.prompt = prompt
	}
}

// New creates a console reading from in and writing prompts to out.
func New(search driving.SearchService, presenter Presenter, in io.Reader, out io.Writer, opts ...Option) (*Console, error) {
	if search == nil {
		return nil, ErrMissingSearchService
	}
	if presenter == nil {
		presenter = NewPlainPresenter(out)
	}
	c := &Console{
		search:    search,
		presenter: presenter,
		in:        in,
		out:       out,
		prompt:    DefaultPrompt,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run loops until EOF, an exit command or ctx cancellation.
// Search failures are reported and the loop continues.
func (c *Console) Run(ctx context.Context) error {
	c.presenter.Header(c.info)

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if ctx.Err() != nil {
			break
		}
		fmt.Fprint(c.out, c.prompt)
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "exit", "quit", ":q":
			c.presenter.Bye()
			return nil
		case "help":
			c.presenter.Help()
			continue
		case "clear":
			fmt.Fprint(c.out, clearSequence)
			c.presenter.Header(c.info)
			continue
		}

		c.query(ctx, line)
	}

	c.presenter.Bye()
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("console: read input: %w", err)
	}
	return nil
}

func (c *Console) query(ctx context.Context, q string) {
	started := c.now()
	results, err := c.search.Search(ctx, q, c.search.Defaults())
	elapsed := c.now().Sub(started)
	if err != nil {
		logger.Debug("console: search %q failed: %v", q, err)
		c.presenter.Error(err)
		return
	}
	if len(results) == 0 {
		c.presenter.NoResults()
		return
	}
	c.presenter.Results(results, elapsed)
}
