package viewer

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/midgard-terrain/internal/asset"
	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/splat"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Terrain.RebuildInterval = 5 * time.Millisecond
	cfg.Terrain.FetchTimeout = time.Second
	cfg.Terrain.OutputScale = 1
	cfg.Textures.Dir = t.TempDir()
	cfg.Output.Dir = t.TempDir()
	cfg.Simulator.Ticks = 20000
	cfg.Simulator.TickInterval = time.Millisecond
	return cfg
}

func writeTexture(t *testing.T, dir, name string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	f, err := os.Create(filepath.Join(dir, name+".png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestNewSimulator(t *testing.T) {
	cfg := config.Default().Simulator

	cfg.TextureIDs = []string{"", "63338ede-0037-c4fd-855b-015d77112fc8"}
	sim, err := NewSimulator(cfg, 42)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	if sim.Params.TextureIDs[0] != (asset.TextureID{}) {
		t.Error("empty id should stay unset")
	}
	if sim.Params.TextureIDs[1] != splat.DefaultTextureIDs[1] {
		t.Errorf("TextureIDs[1] = %v", sim.Params.TextureIDs[1])
	}

	cfg.TextureIDs = []string{"not-a-uuid"}
	if _, err := NewSimulator(cfg, 42); err == nil {
		t.Error("expected error for malformed texture id")
	}

	cfg.TextureIDs = make([]string, splat.LayerCount+1)
	if _, err := NewSimulator(cfg, 42); err == nil {
		t.Error("expected error for too many texture ids")
	}
}

func TestSimulatorPatchOrder(t *testing.T) {
	sim, err := NewSimulator(config.Default().Simulator, 7)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[int]bool)
	for _, idx := range sim.order {
		if idx < 0 || idx >= patchCount || seen[idx] {
			t.Fatalf("order is not a permutation: %d", idx)
		}
		seen[idx] = true
	}
	if len(seen) != patchCount {
		t.Fatalf("order covers %d patches, want %d", len(seen), patchCount)
	}

	hf := terrain.NewHeightField()
	for idx := 0; idx < patchCount; idx++ {
		if err := hf.SetPatch(idx, sim.Patch(idx)); err != nil {
			t.Fatal(err)
		}
	}
	grid, _ := hf.Snapshot()
	for _, p := range [][2]int{{0, 0}, {17, 3}, {200, 255}, {255, 128}} {
		if got, want := grid.At(p[0], p[1]), sim.Height(p[0], p[1]); got != want {
			t.Errorf("cell %v = %v, want %v", p, got, want)
		}
		if sim.Height(p[0], p[1]) < 0 {
			t.Errorf("negative height at %v", p)
		}
	}
}

func TestRunExportsComposite(t *testing.T) {
	cfg := testConfig(t)
	writeTexture(t, cfg.Textures.Dir, splat.DefaultTextureIDs[0].String(), color.RGBA{R: 200, A: 255})

	v, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer v.Close()

	if err := v.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v.Exported == "" {
		t.Fatal("nothing exported")
	}

	f, err := os.Open(v.Exported)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if got := img.Bounds().Dx(); got != terrain.RegionSize {
		t.Errorf("export width = %d, want %d", got, terrain.RegionSize)
	}

	r := v.Regions().Current()
	if rebuilds, composites := r.Stats(); rebuilds == 0 || composites == 0 {
		t.Errorf("rebuilds=%d composites=%d", rebuilds, composites)
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Terrain.RebuildInterval = time.Hour

	v, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer v.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := v.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v.Exported != "" {
		t.Errorf("exported %s without a texture", v.Exported)
	}
}
