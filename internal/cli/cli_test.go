package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/roboco-io/mdimg/internal/config"
	"github.com/roboco-io/mdimg/internal/dialog"
	"github.com/roboco-io/mdimg/internal/ir"
)

const testID = "0123456789abcdef0123456789abcdef"

func TestSetVersion(t *testing.T) {
	oldVersion := version
	defer func() { version = oldVersion }()

	SetVersion("1.2.3")
	if version != "1.2.3" {
		t.Errorf("expected version '1.2.3', got '%s'", version)
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "mdimg" {
		t.Errorf("expected Use 'mdimg', got '%s'", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	for _, flag := range []string{"config", "log-level"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("expected persistent flag '%s' to exist", flag)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	if versionCmd.Use != "version" {
		t.Errorf("expected Use 'version', got '%s'", versionCmd.Use)
	}

	if versionCmd.Short == "" {
		t.Error("expected Short description to be set")
	}
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		name  string
		use   string
		got   string
		flags []string
	}{
		{
			name:  "resize",
			use:   "resize <file>",
			got:   resizeCmd.Use,
			flags: []string{"line", "col", "to", "percent", "width", "height", "alt", "title", "style", "interactive", "resources", "dry-run", "output", "write", "quiet"},
		},
		{
			name:  "detect",
			use:   "detect <file>",
			got:   detectCmd.Use,
			flags: []string{"line", "col", "measure", "resources", "output", "pretty"},
		},
		{
			name:  "size",
			use:   "size [<id|url>]",
			got:   sizeCmd.Use,
			flags: []string{"resources", "payload"},
		},
		{
			name:  "export",
			use:   "export <id|url>",
			got:   exportCmd.Use,
			flags: []string{"resources", "output"},
		},
	}

	lookup := map[string]func(string) bool{
		"resize": func(f string) bool { return resizeCmd.Flags().Lookup(f) != nil },
		"detect": func(f string) bool { return detectCmd.Flags().Lookup(f) != nil },
		"size":   func(f string) bool { return sizeCmd.Flags().Lookup(f) != nil },
		"export": func(f string) bool { return exportCmd.Flags().Lookup(f) != nil },
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.use {
				t.Errorf("expected Use '%s', got '%s'", tc.use, tc.got)
			}
			for _, flag := range tc.flags {
				if !lookup[tc.name](flag) {
					t.Errorf("expected flag '%s' to exist", flag)
				}
			}
		})
	}
}

func TestConfigCommand(t *testing.T) {
	if configCmd.Use != "config" {
		t.Errorf("expected Use 'config', got '%s'", configCmd.Use)
	}

	// Check subcommands exist
	subcommands := []string{"show", "init", "set", "path"}
	for _, name := range subcommands {
		found := false
		for _, cmd := range configCmd.Commands() {
			if cmd.Use == name || cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand '%s' to exist", name)
		}
	}
}

func TestContains(t *testing.T) {
	slice := []string{"a", "b", "c"}

	if !contains(slice, "a") {
		t.Error("expected contains(slice, 'a') to be true")
	}

	if !contains(slice, "c") {
		t.Error("expected contains(slice, 'c') to be true")
	}

	if contains(slice, "d") {
		t.Error("expected contains(slice, 'd') to be false")
	}

	if contains([]string{}, "a") {
		t.Error("expected contains(empty, 'a') to be false")
	}
}

func TestCheckFormatStatus(t *testing.T) {
	for _, f := range formats {
		t.Run(f.Name, func(t *testing.T) {
			if got := checkFormatStatus(f); got != "✓ 지원" {
				t.Errorf("expected '✓ 지원', got '%s'", got)
			}
		})
	}

	unknown := formatInfo{Name: "xcf", Sample: []byte("gimp xcf")}
	if got := checkFormatStatus(unknown); got != "✗ 미지원" {
		t.Errorf("expected '✗ 미지원', got '%s'", got)
	}
}

func TestCursorPosition(t *testing.T) {
	tests := []struct {
		line, col int
		want      ir.Position
		wantErr   bool
	}{
		{line: 1, col: 1, want: ir.Position{Line: 0, Ch: 0}},
		{line: 3, col: 10, want: ir.Position{Line: 2, Ch: 9}},
		{line: 0, col: 1, wantErr: true},
		{line: 1, col: 0, wantErr: true},
	}

	for _, tc := range tests {
		got, err := cursorPosition(tc.line, tc.col)
		if tc.wantErr {
			if err == nil {
				t.Errorf("cursorPosition(%d, %d): expected error", tc.line, tc.col)
			}
			continue
		}
		if err != nil {
			t.Errorf("cursorPosition(%d, %d): unexpected error: %v", tc.line, tc.col, err)
			continue
		}
		if got != tc.want {
			t.Errorf("cursorPosition(%d, %d) = %+v, want %+v", tc.line, tc.col, got, tc.want)
		}
	}
}

func TestResourceDir(t *testing.T) {
	cfg := config.DefaultConfig()
	configured := config.DefaultConfig()
	configured.Resources.Dir = "/data/resources"

	tests := []struct {
		name    string
		flag    string
		docPath string
		cfg     *config.Config
		want    string
	}{
		{"flag wins", "/tmp/res", "notes/a.md", configured, "/tmp/res"},
		{"configured", "", "notes/a.md", configured, "/data/resources"},
		{"next to document", "", filepath.Join("notes", "a.md"), cfg, filepath.Join("notes", DefaultResourceDirName)},
		{"no document", "", "", cfg, DefaultResourceDirName},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := resourceDir(tc.flag, tc.docPath, tc.cfg); got != tc.want {
				t.Errorf("expected '%s', got '%s'", tc.want, got)
			}
		})
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		arg  string
		want ir.ImageReference
	}{
		{testID, ir.ImageReference{Source: testID, SourceKind: ir.SourceResource}},
		{":/" + testID, ir.ImageReference{Source: testID, SourceKind: ir.SourceResource}},
		{"https://example.com/a.png", ir.ImageReference{Source: "https://example.com/a.png", SourceKind: ir.SourceExternal}},
		{"0123", ir.ImageReference{Source: "0123", SourceKind: ir.SourceExternal}},
	}

	for _, tc := range tests {
		t.Run(tc.arg, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, parseSource(tc.arg)); diff != "" {
				t.Errorf("parseSource mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResizeOptionsChoice(t *testing.T) {
	alt := "New alt"
	empty := ""
	req := dialog.Request{
		Ref: ir.ImageReference{
			Kind:       ir.SyntaxMarkdown,
			Source:     testID,
			SourceKind: ir.SourceResource,
			AltText:    "Alt",
			Title:      "Title",
		},
		Dimensions:        ir.PixelDimensions{Width: 800, Height: 600},
		DefaultMode:       ir.ModePercentage,
		DefaultPercentage: 75,
	}
	absReq := req
	absReq.DefaultMode = ir.ModeAbsolute

	tests := []struct {
		name    string
		opts    resizeOptions
		req     dialog.Request
		want    ir.ResizeChoice
		wantErr bool
	}{
		{
			name: "default percentage",
			opts: resizeOptions{to: "html"},
			req:  req,
			want: ir.ResizeChoice{TargetKind: ir.SyntaxHTML, AltText: "Alt", Title: "Title", Mode: ir.ModePercentage, Percentage: 75},
		},
		{
			name: "default absolute keeps original",
			opts: resizeOptions{to: "html"},
			req:  absReq,
			want: ir.ResizeChoice{TargetKind: ir.SyntaxHTML, AltText: "Alt", Title: "Title", Mode: ir.ModeAbsolute},
		},
		{
			name: "percent flag",
			opts: resizeOptions{to: "html", percent: 50},
			req:  absReq,
			want: ir.ResizeChoice{TargetKind: ir.SyntaxHTML, AltText: "Alt", Title: "Title", Mode: ir.ModePercentage, Percentage: 50},
		},
		{
			name: "width wins over percent",
			opts: resizeOptions{to: "html", percent: 50, width: 400},
			req:  req,
			want: ir.ResizeChoice{TargetKind: ir.SyntaxHTML, AltText: "Alt", Title: "Title", Mode: ir.ModeAbsolute, Width: 400},
		},
		{
			name: "alt and title override",
			opts: resizeOptions{to: "md", alt: &alt, title: &empty},
			req:  req,
			want: ir.ResizeChoice{TargetKind: ir.SyntaxMarkdown, AltText: "New alt", Mode: ir.ModePercentage, Percentage: 75},
		},
		{
			name:    "unknown syntax",
			opts:    resizeOptions{to: "bbcode"},
			req:     req,
			wantErr: true,
		},
		{
			name:    "negative size",
			opts:    resizeOptions{to: "html", height: -1},
			req:     req,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.opts.choice(tc.req)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("choice mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// writeFixture creates a note referencing an 800x600 resource and returns
// the note path and a config path inside the same temp dir.
func writeFixture(t *testing.T, note string) (string, string) {
	t.Helper()
	dir := t.TempDir()

	resDir := filepath.Join(dir, DefaultResourceDirName)
	if err := os.MkdirAll(resDir, 0755); err != nil {
		t.Fatalf("failed to create resource dir: %v", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 800, 600))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	if err := os.WriteFile(filepath.Join(resDir, testID+".png"), buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write resource: %v", err)
	}

	notePath := filepath.Join(dir, "note.md")
	if err := os.WriteFile(notePath, []byte(note), 0644); err != nil {
		t.Fatalf("failed to write note: %v", err)
	}
	return notePath, filepath.Join(dir, "config.yaml")
}

// resetFlags restores the package-level flag variables between runs.
func resetFlags() {
	rootConfigPath, rootLogLevel = "", ""
	resizeLine, resizeCol, resizeTo = 1, 1, "html"
	resizePercent, resizeWidth, resizeHeight = 0, 0, 0
	resizeAlt, resizeTitle, resizeStyle, resizeResources, resizeOutput = "", "", "", "", ""
	resizeInteractive, resizeDryRun, resizeInPlace, resizeQuiet = false, false, false, false
	detectLine, detectCol, detectMeasure, detectResources, detectOutput, detectPrettyPrint = 1, 1, false, "", "", true
	sizeResources, sizePayload = "", ""
	for _, name := range []string{"alt", "title"} {
		resizeCmd.Flags().Lookup(name).Changed = false
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestResizeCommand(t *testing.T) {
	note, cfgPath := writeFixture(t, "Intro\n![Alt](:/"+testID+")\n")

	out, _, err := execute(t, "resize", note, "--line", "2", "--col", "3", "--percent", "50", "--config", cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Intro\n<img src=\":/" + testID + "\" alt=\"Alt\" width=\"400\" height=\"300\" />\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestResizeCommand_InPlace(t *testing.T) {
	note, cfgPath := writeFixture(t, "![Alt](:/"+testID+")")

	_, stderr, err := execute(t, "resize", note, "--width", "200", "--style", "width", "-w", "--config", cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(note)
	if err != nil {
		t.Fatalf("failed to read note: %v", err)
	}
	if want := `<img src=":/` + testID + `" alt="Alt" width="200" />`; string(data) != want {
		t.Errorf("got %q, want %q", string(data), want)
	}
	if !strings.Contains(stderr, "변경 완료") {
		t.Errorf("expected completion message, got %q", stderr)
	}
}

func TestResizeCommand_NoImage(t *testing.T) {
	note, cfgPath := writeFixture(t, "no images here\n")

	out, stderr, err := execute(t, "resize", note, "--config", cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("expected no output, got %q", out)
	}
	if !strings.Contains(stderr, "No image found at cursor position") {
		t.Errorf("expected notice, got %q", stderr)
	}
}

func TestDetectCommand(t *testing.T) {
	note, cfgPath := writeFixture(t, "![Alt](:/"+testID+" \"Title\")")

	out, _, err := execute(t, "detect", note, "--col", "2", "--measure", "--config", cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got detectResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if got.Reference.Source != testID || got.Reference.Title != "Title" {
		t.Errorf("unexpected reference %+v", got.Reference)
	}
	if got.Dimensions == nil || *got.Dimensions != (ir.PixelDimensions{Width: 800, Height: 600}) {
		t.Errorf("unexpected dimensions %v", got.Dimensions)
	}
	if got.Strategy != "file" || got.Fallback {
		t.Errorf("unexpected strategy %q fallback %v", got.Strategy, got.Fallback)
	}
}

func TestSizeCommand_Fallback(t *testing.T) {
	_, cfgPath := writeFixture(t, "")

	out, stderr, err := execute(t, "size", "ffffffffffffffffffffffffffffffff", "--resources", t.TempDir(), "--config", cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "400x300\n" {
		t.Errorf("got %q, want %q", out, "400x300\n")
	}
	if !strings.Contains(stderr, "경고") {
		t.Errorf("expected warning, got %q", stderr)
	}
}

func TestConfigSetAndShow(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")

	if _, _, err := execute(t, "config", "set", "resize.html_style", "width", "--config", cfgPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := config.NewLoaderWithPath(cfgPath).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if loaded.Resize.HTMLStyle != "width" {
		t.Errorf("expected html_style 'width', got '%s'", loaded.Resize.HTMLStyle)
	}

	if _, _, err := execute(t, "config", "set", "resize.html_style", "height", "--config", cfgPath); err == nil {
		t.Error("expected error for invalid value")
	}
	if _, _, err := execute(t, "config", "set", "unknown.key", "x", "--config", cfgPath); err == nil {
		t.Error("expected error for unknown key")
	}

	out, _, err := execute(t, "config", "show", "--config", cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, cfgPath) || !strings.Contains(out, "html_style: width") {
		t.Errorf("unexpected show output:\n%s", out)
	}
}
