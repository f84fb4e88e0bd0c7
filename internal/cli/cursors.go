package cli

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/odvcencio/furry-live/config"
	"github.com/odvcencio/furry-live/cursors"
	"github.com/odvcencio/furry-live/instant"
	"github.com/odvcencio/furry-live/internal/term"
	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/reactor/memory"
	"github.com/odvcencio/furry-live/state"
)

// CursorsOptions holds flags for the cursors command.
type CursorsOptions struct {
	*RootOptions
	Bots int
	Tick time.Duration
	Seed uint64
}

// NewCursorsCommand creates the cursors command.
func NewCursorsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CursorsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cursors",
		Short: "Share a cursor space with simulated peers in the terminal",
		Long: `Open a terminal cursor space. Moving the mouse publishes your cursor; the
simulated peers wander and publish theirs through the same room. Press q or
Esc to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCursors(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Bots, "bots", 3, "number of simulated peers")
	cmd.Flags().DurationVar(&opts.Tick, "tick", 120*time.Millisecond, "how often simulated peers move")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "random seed for simulated peers")

	return cmd
}

func runCursors(opts *CursorsOptions, cmd *cobra.Command) error {
	if opts.Bots < 0 {
		return NewExitError(ExitCommandError, "--bots must not be negative")
	}
	screen, err := tcell.NewScreen()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open terminal", err)
	}

	var demo *cursorDemo
	app := term.NewApp(term.Config{
		Screen:   screen,
		TickRate: opts.Tick,
		Update: func(a *term.App, msg term.Message) bool {
			return demo.update(a, msg)
		},
		Render: func(c *term.Canvas) {
			demo.render(c)
		},
	})
	demo, err = newCursorDemo(opts.Config, opts.Logger(), app.Scheduler(), opts.Bots, opts.Seed)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start demo", err)
	}
	defer demo.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		return WrapExitError(ExitFailure, "terminal loop failed", err)
	}
	return nil
}

var cursorColors = []string{"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4", "#46f0f0"}

type cursorDemo struct {
	cfg    config.Config
	logger *slog.Logger
	hub    *memory.Hub
	local  *demoPeer
	bots   []*demoPeer
	rng    *rand.Rand
	width  int
	height int
}

type demoPeer struct {
	name    string
	color   string
	scope   *state.Scope
	client  *instant.Client
	cursors *cursors.Handle
	x, y    float64
	placed  bool
}

func newCursorDemo(cfg config.Config, logger *slog.Logger, dispatcher reactive.Scheduler, bots int, seed uint64) (*cursorDemo, error) {
	d := &cursorDemo{
		cfg:    cfg,
		logger: logger,
		hub:    memory.NewHub(memory.WithLogger(logger)),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		width:  80,
		height: 24,
	}
	local, err := d.newPeer("you", cursorColors[0], dispatcher)
	if err != nil {
		return nil, err
	}
	d.local = local
	for i := range bots {
		bot, err := d.newPeer(fmt.Sprintf("peer-%d", i+1), cursorColors[(i+1)%len(cursorColors)], dispatcher)
		if err != nil {
			d.close()
			return nil, err
		}
		bot.x = d.rng.Float64() * float64(d.width)
		bot.y = 1 + d.rng.Float64()*float64(d.height-1)
		d.bots = append(d.bots, bot)
	}
	return d, nil
}

func (d *cursorDemo) newPeer(name, color string, dispatcher reactive.Scheduler) (*demoPeer, error) {
	rt := state.NewRuntime()
	scope := state.NewScope()
	client, err := instant.New(
		d.hub.Client(memory.WithPeerID(name)),
		rt.Capabilities(scope),
		instant.WithConfig(d.cfg),
		instant.WithLogger(d.logger.With(slog.String("peer", name))),
		instant.WithDispatcher(dispatcher),
	)
	if err != nil {
		scope.Dispose()
		return nil, err
	}
	room := client.Room(reactive.Literal(d.cfg.RoomType), reactive.Literal(d.cfg.RoomID))
	return &demoPeer{
		name:    name,
		color:   color,
		scope:   scope,
		client:  client,
		cursors: client.UseCursors(room, reactive.Literal(cursors.Options{UserCursorColor: color})),
	}, nil
}

func (d *cursorDemo) close() {
	for _, p := range append(d.bots, d.local) {
		if p == nil {
			continue
		}
		p.client.Close()
		p.scope.Dispose()
	}
}

func (d *cursorDemo) bounds() *cursors.Rect {
	return &cursors.Rect{Width: float64(d.width), Height: float64(d.height)}
}

func (d *cursorDemo) update(a *term.App, msg term.Message) bool {
	switch m := msg.(type) {
	case term.KeyMsg:
		if m.Key == term.KeyEscape || m.Key == term.KeyCtrlC || (m.Key == term.KeyRune && m.Rune == 'q') {
			if a != nil {
				a.Quit()
			}
		}
		return false
	case term.ResizeMsg:
		d.width, d.height = m.Width, m.Height
		return true
	case term.MouseMsg:
		d.local.x, d.local.y, d.local.placed = float64(m.X), float64(m.Y), true
		d.local.cursors.OnPointerMove(cursors.PointerEvent{ClientX: d.local.x, ClientY: d.local.y, Bounds: d.bounds()})
		return true
	case term.LeaveMsg:
		d.local.placed = false
		d.local.cursors.OnPointerLeave(cursors.PointerEvent{})
		return true
	case term.TickMsg:
		for _, bot := range d.bots {
			bot.x = min(max(bot.x+d.rng.Float64()*6-3, 0), float64(d.width-1))
			bot.y = min(max(bot.y+d.rng.Float64()*2-1, 1), float64(d.height-1))
			bot.cursors.OnPointerMove(cursors.PointerEvent{ClientX: bot.x, ClientY: bot.y, Bounds: d.bounds()})
		}
		return len(d.bots) > 0
	}
	return false
}

func (d *cursorDemo) render(c *term.Canvas) {
	w, h := c.Size()
	c.Clear()

	peers := d.local.cursors.Cursors()
	header := fmt.Sprintf(" %s/%s  %d peers  q to quit", d.cfg.RoomType, d.cfg.RoomID, len(peers))
	c.SetString(0, 0, term.Truncate(header, w), tcell.StyleDefault.Reverse(true))

	for _, pc := range peers {
		col := int(pc.Cursor.XPercent / 100 * float64(w))
		row := int(pc.Cursor.YPercent / 100 * float64(h))
		drawCursor(c, col, row, '▲', pc.PeerID, pc.Cursor.Color)
	}
	if d.local.placed {
		drawCursor(c, int(d.local.x), int(d.local.y), '●', d.local.name, d.local.color)
	}
}

func drawCursor(c *term.Canvas, col, row int, marker rune, label, color string) {
	w, _ := c.Size()
	style := tcell.StyleDefault
	if color != "" {
		style = style.Foreground(tcell.GetColor(color))
	}
	c.Set(col, row, marker, style)
	c.SetString(col+1, row, term.Truncate(label, min(12, w-col-1)), style)
}
