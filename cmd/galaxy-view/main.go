package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"math"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/zeusync/galaxy/internal/config"
	"github.com/zeusync/galaxy/internal/core/observability/log"
	"github.com/zeusync/galaxy/internal/core/system"
	"github.com/zeusync/galaxy/internal/injector"
)

const (
	screenWidth  = 1280
	screenHeight = 800
	panStep      = 20.0
)

var (
	background = color.RGBA{5, 5, 15, 255}
	hudColor   = color.RGBA{200, 200, 220, 220}
)

type Game struct {
	galaxy *system.Galaxy
	cfg    *config.Config
	logger log.Log

	paused        bool
	stepsPerFrame int
	scale         float64
	offsetX       float64
	offsetY       float64
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyK) {
		g.scale *= 1.25
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyJ) {
		g.scale /= 1.25
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.offsetX += panStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.offsetX -= panStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.offsetY += panStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.offsetY -= panStep
	}

	steps := g.stepsPerFrame
	if g.paused {
		steps = 0
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			steps = 1
		}
	}
	for i := 0; i < steps; i++ {
		if err := g.galaxy.Step(context.Background(), g.cfg.Simulation.DeltaTime); err != nil {
			g.logger.Error("Step failed", log.Error(err))
			return err
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	for _, s := range g.galaxy.Snapshots() {
		x, y := g.toScreen(s.Position.Xv, s.Position.Yv)
		r := math.Max(1, s.Radius*g.scale)
		vector.DrawFilledCircle(screen, float32(x), float32(y), float32(r), s.Color.RGBA(), true)
	}

	st := g.galaxy.Stats()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("Step: %d  Time: %.3f  Bodies: %d  Merges: %d\nPaused: %v",
		st.Steps, st.Time, st.Bodies, st.Merges, g.paused))
	text.Draw(screen, fmt.Sprintf("E = %.6g  (K %.6g, U %.6g)", st.Kinetic+st.Potential, st.Kinetic, st.Potential),
		basicfont.Face7x13, 8, screenHeight-26, hudColor)
	text.Draw(screen, "P pause  N step  +/- zoom  arrows pan",
		basicfont.Face7x13, 8, screenHeight-10, hudColor)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return screenWidth, screenHeight
}

// toScreen maps simulation coordinates to pixels with +y pointing up.
func (g *Game) toScreen(x, y float64) (float64, float64) {
	return screenWidth/2 + g.offsetX + x*g.scale, screenHeight/2 + g.offsetY - y*g.scale
}

func main() {
	configPath := flag.String("config", "galaxy.yaml", "path to the YAML configuration")
	scale := flag.Float64("scale", 10, "pixels per simulation unit")
	stepsPerFrame := flag.Int("steps-per-frame", 1, "simulation steps per rendered frame")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "galaxy-view:", err)
		os.Exit(1)
	}
	galaxy, err := injector.InitializeGalaxy(cfg)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "galaxy-view:", err)
		os.Exit(1)
	}

	game := &Game{
		galaxy:        galaxy,
		cfg:           cfg,
		logger:        log.Provide(),
		stepsPerFrame: max(1, *stepsPerFrame),
		scale:         *scale,
	}
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Galaxy")
	if err = ebiten.RunGame(game); err != nil {
		game.logger.Fatal("Viewer stopped", log.Error(err))
	}
}
