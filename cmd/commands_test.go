package cmd

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeJPEG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < 16; i++ {
		img.Set(i, i, color.RGBA{R: 200, A: 255})
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
}

// testConfig writes a config file so the user's own config is never read.
func testConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metaclean.toml")
	content := "log_level = \"error\"\n" + extra
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func cleanedFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "\\[CLEANED\\]*"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

func TestCleanCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Summer Trip.jpg")
	writeJPEG(t, src)
	cfg := testConfig(t, "")

	out, err := runCommand(t, "clean", "--config", cfg, src)
	if err != nil {
		t.Fatalf("clean failed: %v\n%s", err, out)
	}

	got := cleanedFiles(t, dir)
	if len(got) != 1 || !strings.HasSuffix(got[0], "_Summer_Trip.jpg") {
		t.Fatalf("unexpected outputs %v", got)
	}
	if !strings.Contains(out, got[0]) {
		t.Errorf("output does not name the cleaned file:\n%s", out)
	}
}

func TestCleanCommand_OutDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	writeJPEG(t, src)
	outDir := filepath.Join(dir, "out")

	if out, err := runCommand(t, "clean", "--config", testConfig(t, ""), "--out-dir", outDir, src); err != nil {
		t.Fatalf("clean failed: %v\n%s", err, out)
	}
	if got := cleanedFiles(t, outDir); len(got) != 1 {
		t.Errorf("Expected one file in %s, got %v", outDir, got)
	}
	if got := cleanedFiles(t, dir); len(got) != 0 {
		t.Errorf("nothing should be written beside the source, got %v", got)
	}
	outDirFlag = ""
}

func TestCleanCommand_UnsupportedFails(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.txt")
	os.WriteFile(src, []byte("hello\n"), 0644)

	out, err := runCommand(t, "clean", "--config", testConfig(t, ""), src)
	if err == nil {
		t.Fatal("Expected an error for an unsupported file")
	}
	if !strings.Contains(out, "Unsupported") {
		t.Errorf("missing user message:\n%s", out)
	}
	if got := cleanedFiles(t, dir); len(got) != 0 {
		t.Errorf("unexpected outputs %v", got)
	}
}

func TestSweepCommand(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, filepath.Join(dir, "one.jpg"))
	os.MkdirAll(filepath.Join(dir, "nested"), 0755)
	writeJPEG(t, filepath.Join(dir, "nested", "two.jpeg"))
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("skip me\n"), 0644)
	cfg := testConfig(t, "")

	out, err := runCommand(t, "sweep", "--config", cfg, "--dry-run", dir)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if !strings.Contains(out, "Found 2 media files") {
		t.Errorf("unexpected dry run output:\n%s", out)
	}
	if got := cleanedFiles(t, dir); len(got) != 0 {
		t.Errorf("dry run wrote files: %v", got)
	}

	out, err = runCommand(t, "sweep", "--config", cfg, "--dry-run=false", dir)
	if err != nil {
		t.Fatalf("sweep failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Cleaned 2 of 2 files") {
		t.Errorf("unexpected output:\n%s", out)
	}

	// outputs from the first sweep are not picked up again
	out, err = runCommand(t, "sweep", "--config", cfg, "--dry-run", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Found 2 media files") {
		t.Errorf("cleaned files were rescanned:\n%s", out)
	}
	dryRunFlag = false
}

func TestSweepCommand_NotAFolder(t *testing.T) {
	if _, err := runCommand(t, "sweep", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected an error for a missing folder")
	}
}

func TestDetectCommand(t *testing.T) {
	dir := t.TempDir()
	disguised := filepath.Join(dir, "image.txt")
	writeJPEG(t, disguised)
	clip := filepath.Join(dir, "clip.mkv")
	os.WriteFile(clip, []byte("no signature"), 0644)

	out, err := runCommand(t, "detect", "--config", testConfig(t, ""), disguised, clip)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header and 2 rows:\n%s", out)
	}
	if !strings.Contains(lines[1], "image") || !strings.Contains(lines[1], "image/jpeg") || !strings.Contains(lines[1], "content") {
		t.Errorf("bad row for disguised image: %s", lines[1])
	}
	if !strings.Contains(lines[2], "video") || !strings.Contains(lines[2], "extension") {
		t.Errorf("bad row for clip: %s", lines[2])
	}
}

func TestInspectCommand_CleanFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "plain.jpg")
	writeJPEG(t, src)

	out, err := runCommand(t, "inspect", src)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "no metadata tags found") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestDoctorCommand_MissingTool(t *testing.T) {
	cfg := testConfig(t, "tool_name = \"metaclean-no-such-tool\"\ntool_dir = \""+filepath.ToSlash(t.TempDir())+"\"\n")

	out, err := runCommand(t, "doctor", "--config", cfg)
	if err == nil {
		t.Fatal("Expected doctor to fail without the tool")
	}
	if !strings.Contains(out, "unavailable") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
