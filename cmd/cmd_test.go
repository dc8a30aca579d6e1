package cmd

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/lepinkainen/timelapse/config"
	"github.com/lepinkainen/timelapse/timelapse"
	"github.com/lepinkainen/timelapse/types"
)

func writeTestPNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func testContext(t *testing.T) *types.AppContext {
	t.Helper()
	cfg := config.Default()
	return &types.AppContext{Version: "test", Config: &cfg, Logger: zaptest.NewLogger(t)}
}

func TestCreateCmd_RunParams(t *testing.T) {
	cfg := config.Default()
	cfg.Output.FrameRate = 30
	cfg.Output.Size = timelapse.Size720p

	tests := []struct {
		name       string
		cmd        CreateCmd
		wantFPS    int
		wantPreset timelapse.SizePreset
		wantErr    bool
	}{
		{"Config defaults", CreateCmd{}, 30, timelapse.Size720p, false},
		{"FPS flag overrides", CreateCmd{FPS: 12}, 12, timelapse.Size720p, false},
		{"Size flag overrides", CreateCmd{Size: "4k"}, 30, timelapse.Size4K, false},
		{"Unknown size", CreateCmd{Size: "8k"}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fps, preset, err := tt.cmd.runParams(&cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if fps != tt.wantFPS {
				t.Errorf("Expected fps %d, got %d", tt.wantFPS, fps)
			}
			if preset != tt.wantPreset {
				t.Errorf("Expected preset %v, got %v", tt.wantPreset, preset)
			}
		})
	}
}

func TestCreateCmd_Prepare(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "b.png"), 4, 4, color.White)
	writeTestPNG(t, filepath.Join(dir, "a.png"), 4, 4, color.Black)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)

	app := testContext(t).Resolve()
	cmd := &CreateCmd{Paths: []string{dir}, Output: filepath.Join(dir, "out")}

	runCfg, err := cmd.prepare(app)
	if err != nil {
		t.Fatalf("prepare() error: %v", err)
	}
	if len(runCfg.Sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(runCfg.Sources))
	}
	if filepath.Base(runCfg.Sources[0].Path) != "a.png" {
		t.Errorf("Expected sources sorted, first is %s", runCfg.Sources[0].Path)
	}
	if filepath.Ext(runCfg.OutputPath) != ".mp4" {
		t.Errorf("Expected .mp4 to be appended, got %s", runCfg.OutputPath)
	}
	if runCfg.FrameRate != timelapse.DefaultFrameRate {
		t.Errorf("Expected default frame rate, got %d", runCfg.FrameRate)
	}
}

func TestCreateCmd_PrepareErrors(t *testing.T) {
	dir := t.TempDir()
	empty := t.TempDir()
	img := filepath.Join(dir, "a.png")
	writeTestPNG(t, img, 4, 4, color.White)
	existing := filepath.Join(dir, "exists.mp4")
	_ = os.WriteFile(existing, []byte("old"), 0644)

	app := testContext(t).Resolve()

	t.Run("Empty directory", func(t *testing.T) {
		cmd := &CreateCmd{Paths: []string{empty}, Output: filepath.Join(dir, "x.mp4")}
		_, err := cmd.prepare(app)
		if !errors.Is(err, timelapse.ErrNoInput) {
			t.Errorf("Expected ErrNoInput, got %v", err)
		}
	})

	t.Run("Missing path", func(t *testing.T) {
		cmd := &CreateCmd{Paths: []string{filepath.Join(dir, "missing.png")}, Output: filepath.Join(dir, "x.mp4")}
		if _, err := cmd.prepare(app); err == nil {
			t.Error("Expected error for a missing path")
		}
	})

	t.Run("Frame rate out of range", func(t *testing.T) {
		cmd := &CreateCmd{Paths: []string{img}, Output: filepath.Join(dir, "x.mp4"), FPS: 120}
		_, err := cmd.prepare(app)
		var ie *timelapse.InputError
		if !errors.As(err, &ie) {
			t.Errorf("Expected InputError, got %v", err)
		}
	})

	t.Run("Existing output", func(t *testing.T) {
		cmd := &CreateCmd{Paths: []string{img}, Output: existing}
		_, err := cmd.prepare(app)
		if err == nil || !strings.Contains(err.Error(), "--force") {
			t.Errorf("Expected refusal mentioning --force, got %v", err)
		}
	})

	t.Run("Existing output with force", func(t *testing.T) {
		cmd := &CreateCmd{Paths: []string{img}, Output: existing, Force: true}
		if _, err := cmd.prepare(app); err != nil {
			t.Errorf("Expected --force to allow overwriting, got %v", err)
		}
	})
}

func TestCreateCmd_Run(t *testing.T) {
	if exec.Command("ffmpeg", "-version").Run() != nil {
		t.Skip("ffmpeg not available")
	}

	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "img_0001.png"), 32, 24, color.White)
	_ = os.WriteFile(filepath.Join(dir, "img_0002.png"), []byte("not an image"), 0644)
	writeTestPNG(t, filepath.Join(dir, "img_0003.png"), 32, 24, color.Black)

	var out bytes.Buffer
	output := filepath.Join(dir, "movie.mp4")
	cmd := &CreateCmd{Paths: []string{dir}, Output: output, FPS: 10, NoTUI: true, stdout: &out}

	if err := cmd.Run(testContext(t)); err != nil {
		t.Fatalf("Run() error: %v\n%s", err, out.String())
	}

	fi, err := os.Stat(output)
	if err != nil {
		t.Fatalf("Expected output video: %v", err)
	}
	if fi.Size() == 0 {
		t.Error("Expected a non-empty output video")
	}
	if !strings.Contains(out.String(), "img_0002.png") {
		t.Errorf("Expected the skipped image to be reported, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), timelapse.StatusSuccess) {
		t.Errorf("Expected success status, got:\n%s", out.String())
	}
}

func TestCreateCmd_RunFirstImageUnreadable(t *testing.T) {
	if exec.Command("ffmpeg", "-version").Run() != nil {
		t.Skip("ffmpeg not available")
	}

	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "img_0001.png"), []byte("garbage"), 0644)
	writeTestPNG(t, filepath.Join(dir, "img_0002.png"), 8, 8, color.White)

	var out bytes.Buffer
	cmd := &CreateCmd{Paths: []string{dir}, Output: filepath.Join(dir, "movie.mp4"), NoTUI: true, stdout: &out}

	err := cmd.Run(testContext(t))
	if err == nil {
		t.Fatal("Expected the run to fail")
	}
	var de *timelapse.DecodeError
	if !errors.As(err, &de) {
		t.Errorf("Expected a DecodeError in the chain, got %v", err)
	}
	if !strings.Contains(out.String(), timelapse.StatusFailure) {
		t.Errorf("Expected failure status, got:\n%s", out.String())
	}
}

func TestInspectCmd_WorkerCount(t *testing.T) {
	local := []string{"/tmp/a.png"}
	network := []string{"/mnt/nas/a.png"}

	tests := []struct {
		name        string
		flag        int
		configured  int
		paths       []string
		want        int
		wantNetwork bool
	}{
		{"Flag wins", 3, 2, network, 3, false},
		{"Configured value", 0, 2, local, 2, false},
		{"Local default", 0, 0, local, runtime.NumCPU(), false},
		{"Network default", 0, 0, network, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &InspectCmd{Workers: tt.flag}
			got, isNetwork := cmd.workerCount(tt.configured, tt.paths)
			if got != tt.want {
				t.Errorf("Expected %d workers, got %d", tt.want, got)
			}
			if isNetwork != tt.wantNetwork {
				t.Errorf("Expected network=%v, got %v", tt.wantNetwork, isNetwork)
			}
		})
	}
}

func TestInspectCmd_Run(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "img_0001.png"), 16, 16, color.White)
	writeTestPNG(t, filepath.Join(dir, "img_0002.png"), 16, 16, color.White)
	_ = os.WriteFile(filepath.Join(dir, "img_0003.png"), []byte("broken"), 0644)

	var out bytes.Buffer
	cmd := &InspectCmd{Paths: []string{dir}, Workers: 2, stdout: &out}
	if err := cmd.Run(testContext(t)); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	text := out.String()
	for _, want := range []string{"img_0001.png", "img_0003.png", "unreadable", "3 images"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func TestInspectCmd_RunEmpty(t *testing.T) {
	cmd := &InspectCmd{Paths: []string{t.TempDir()}, stdout: &bytes.Buffer{}}
	if err := cmd.Run(testContext(t)); !errors.Is(err, timelapse.ErrNoInput) {
		t.Errorf("Expected ErrNoInput, got %v", err)
	}
}

func TestCheckCmd_MissingRequiredTool(t *testing.T) {
	app := testContext(t)
	app.Config.Tools.FFmpeg = "no-such-ffmpeg-binary"
	app.Config.Tools.DCRaw = "no-such-dcraw-binary"

	var out bytes.Buffer
	cmd := &CheckCmd{stdout: &out}
	if err := cmd.Run(app); err == nil {
		t.Error("Expected error when ffmpeg is missing")
	}
	if !strings.Contains(out.String(), "raw images only") {
		t.Errorf("Expected dcraw to be reported as optional, got:\n%s", out.String())
	}
}

func TestCheckCmd_OptionalToolMissing(t *testing.T) {
	if exec.Command("ffmpeg", "-version").Run() != nil {
		t.Skip("ffmpeg not available")
	}
	app := testContext(t)
	app.Config.Tools.DCRaw = "no-such-dcraw-binary"

	cmd := &CheckCmd{stdout: &bytes.Buffer{}}
	if err := cmd.Run(app); err != nil {
		t.Errorf("Expected a missing raw converter not to fail the check, got %v", err)
	}
}

func TestConfigCmd_Print(t *testing.T) {
	var out bytes.Buffer
	cmd := &ConfigCmd{stdout: &out}
	if err := cmd.Run(testContext(t)); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	for _, want := range []string{"[output]", "frame_rate = 24", "[tools]", "ffmpeg"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected printed config to contain %q, got:\n%s", want, out.String())
		}
	}
}

func TestConfigCmd_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cmd := &ConfigCmd{Write: path, stdout: &bytes.Buffer{}}
	if err := cmd.Run(testContext(t)); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Failed to load written config: %v", err)
	}
	if !exists {
		t.Error("Expected written config to exist")
	}
	if cfg.Output.FrameRate != timelapse.DefaultFrameRate {
		t.Errorf("Expected default frame rate, got %d", cfg.Output.FrameRate)
	}

	if err := cmd.Run(testContext(t)); err == nil {
		t.Error("Expected refusal to overwrite an existing config")
	}
}
