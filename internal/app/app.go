//go:build ebiten

package app

import (
	"errors"

	"lifesync/internal/engine"
	"lifesync/internal/logging"
	"lifesync/internal/render"
	"lifesync/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const hudWidth = 180

var keyActions = []struct {
	key    ebiten.Key
	action Action
}{
	{ebiten.KeySpace, ActionTogglePlay},
	{ebiten.KeyN, ActionStep},
	{ebiten.KeyC, ActionClear},
	{ebiten.KeyR, ActionRandomize},
}

// Game adapts an engine to the ebiten.Game interface.
type Game struct {
	cfg     Config
	eng     *engine.Engine
	sub     *engine.Subscription
	canvas  *render.Canvas
	painter *render.GridPainter
	hud     *ui.HUD
	brush   *Brush
	logger  *logging.Logger
}

// New constructs a Game driving a fresh engine.
func New(cfg Config, logger *logging.Logger) (*Game, error) {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = logger
	eng := engine.New(opts)
	if cfg.Random {
		eng.Randomize()
	}

	canvas := render.NewCanvas(cfg.Width, cfg.Height)
	g := &Game{
		cfg:     cfg,
		eng:     eng,
		canvas:  canvas,
		painter: render.NewGridPainter(cfg.Width, cfg.Height),
		hud:     ui.NewHUD(hudWidth),
		brush:   NewBrush(eng),
		logger:  logging.OrDiscard(logger).With("component", "viewer"),
	}
	g.sub = eng.Watch(canvas.ApplySnapshot, canvas.ApplyDelta)
	return g, nil
}

// Close stops autoplay and detaches the canvas.
func (g *Game) Close() {
	g.sub.Cancel()
	g.eng.Close()
}

// Update handles keyboard and mouse input.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	for _, ka := range keyActions {
		if inpututil.IsKeyJustPressed(ka.key) {
			if err := Apply(g.eng, ka.action, g.cfg.Interval); err != nil {
				g.logger.Warn("action failed", "action", ka.action, "error", err)
			}
		}
	}

	g.handleMouse()
	g.hud.Update(ui.StatusLines(g.eng.Snapshot(), g.eng.AutoplayInterval()))
	return nil
}

func (g *Game) handleMouse() {
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.brush.Release()
		return
	}
	mx, my := ebiten.CursorPosition()
	x, y, ok := CellAt(mx, my, g.cfg.Scale, g.cfg.Width, g.cfg.Height)
	if !ok {
		return
	}
	var err error
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		err = g.brush.Press(x, y)
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		err = g.brush.Drag(x, y)
	}
	// Edits are refused while playing; the HUD already says so.
	if err != nil && !errors.Is(err, engine.ErrInvalidWhilePlaying) {
		g.logger.Warn("edit failed", "x", x, "y", y, "error", err)
	}
}

// Draw renders the grid and the status panel.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.canvas, g.cfg.Scale)
	g.hud.Draw(screen, g.cfg.Width*g.cfg.Scale, g.cfg.Height*g.cfg.Scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Width*g.cfg.Scale + g.hud.Width(), g.cfg.Height * g.cfg.Scale
}
