package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const swinIRManifest = `
params:
  conv_first.weight: [60, 3, 3, 3]
  layers.0.residual_group.blocks.0.norm1.weight: [60]
  layers.1.residual_group.blocks.0.norm1.weight: [60]
  upsample.0.weight: [27, 60, 3, 3]
`

const hatManifest = `
conv_first.weight: [180, 3, 3, 3]
layers.0.residual_group.blocks.0.norm1.weight: [180]
layers.0.residual_group.blocks.0.conv_block.cab.0.weight: [60, 180, 3, 3]
`

// setup isolates config lookup and writes manifests into a temp dir.
func setup(t *testing.T, files map[string]string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ARCHID_CONFIG", "")

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI("version")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "archid "+version+"\n", out)
}

func TestRun_Usage(t *testing.T) {
	code, out, _ := runCLI()
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "Commands:")

	code, _, errOut := runCLI("convert")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, `unknown command "convert"`)
}

func TestRun_Rules(t *testing.T) {
	code, out, _ := runCLI("rules")
	assert.Equal(t, exitOK, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 13)
	assert.Contains(t, lines[0], "srvgg-compact")
	assert.Contains(t, lines[3], "hat")
	assert.Contains(t, lines[5], "swinir")
	assert.Contains(t, lines[12], "fallback")
	assert.Contains(t, lines[12], "ESRGAN")
}

func TestRun_DetectText(t *testing.T) {
	dir := setup(t, map[string]string{"swinir.yaml": swinIRManifest})

	code, out, _ := runCLI("detect", filepath.Join(dir, "swinir.yaml"))
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "SwinIR (pixelshuffledirect)")
	assert.Contains(t, out, "scale x3")
	assert.Contains(t, out, "rule swinir")
	assert.Contains(t, out, "unwrapped params")
}

func TestRun_DetectJSON(t *testing.T) {
	dir := setup(t, map[string]string{
		"swinir.yaml":  swinIRManifest,
		"unknown.yaml": "foo.weight: [1]\n",
	})

	code, out, _ := runCLI("detect", "--json",
		filepath.Join(dir, "swinir.yaml"),
		filepath.Join(dir, "unknown.yaml"),
		filepath.Join(dir, "model.pt"))
	assert.Equal(t, exitFailure, code)

	var reports []report
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var r report
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		reports = append(reports, r)
	}
	require.Len(t, reports, 3)

	assert.Equal(t, "SwinIR", reports[0].Arch)
	assert.Equal(t, 3, reports[0].Scale)
	assert.Equal(t, 2, reports[0].Blocks)
	assert.Empty(t, reports[0].Error)

	assert.Equal(t, "fallback_failed", reports[1].Kind)
	assert.Contains(t, reports[1].Error, "unsupported model")

	assert.Contains(t, reports[2].Error, "unsupported checkpoint format")
	assert.Empty(t, reports[2].Kind)
}

func TestRun_DetectShadowedRules(t *testing.T) {
	dir := setup(t, map[string]string{"hat.yaml": hatManifest, "swinir.yaml": swinIRManifest})

	code, out, _ := runCLI("detect", "--json", filepath.Join(dir, "hat.yaml"), filepath.Join(dir, "swinir.yaml"))
	assert.Equal(t, exitOK, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var hat, swinir report
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &hat))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &swinir))
	assert.Equal(t, "HAT", hat.Arch)
	assert.Equal(t, []string{"swinir"}, hat.Shadowed)
	assert.Empty(t, swinir.Shadowed)

	code, out, _ = runCLI("detect", filepath.Join(dir, "hat.yaml"))
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "rule hat, shadows swinir")
}

func TestRun_DetectHints(t *testing.T) {
	dir := setup(t, map[string]string{"renamed.json": `{"toRGB.0.weights": [3, 512, 1, 1]}`})
	path := filepath.Join(dir, "renamed.json")

	code, out, _ := runCLI("detect", "--json", path)
	assert.Equal(t, exitFailure, code)
	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Contains(t, r.Hints, "toRGB.0.weight")

	code, out, _ = runCLI("detect", "--json", "--no-hints", path)
	assert.Equal(t, exitFailure, code)
	r = report{}
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Empty(t, r.Hints)
	assert.NotContains(t, r.Error, "similar signature keys")
}

func TestRun_DetectEnvFormat(t *testing.T) {
	dir := setup(t, map[string]string{"swinir.yaml": swinIRManifest})
	t.Setenv("ARCHID_OUTPUT_FORMAT", "json")

	code, out, _ := runCLI("detect", filepath.Join(dir, "swinir.yaml"))
	assert.Equal(t, exitOK, code)
	assert.True(t, json.Valid([]byte(out)))
}

func TestRun_DetectDebugLog(t *testing.T) {
	dir := setup(t, map[string]string{"swinir.yaml": swinIRManifest})
	t.Setenv("ARCHID_LOG_LEVEL", "debug")
	t.Setenv("ARCHID_LOG_FORMAT", "json")

	code, _, errOut := runCLI("detect", filepath.Join(dir, "swinir.yaml"))
	assert.Equal(t, exitOK, code)
	assert.Contains(t, errOut, `"run_id"`)
	assert.Contains(t, errOut, `"rule":"swinir"`)
}

func TestRun_DetectUsageErrors(t *testing.T) {
	setup(t, nil)

	code, _, errOut := runCLI("detect")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "no files given")

	code, _, _ = runCLI("detect", "--bogus", "x.yaml")
	assert.Equal(t, exitUsage, code)
}

func TestRun_Config(t *testing.T) {
	setup(t, nil)
	t.Setenv("ARCHID_OUTPUT_HINTS", "false")

	code, out, _ := runCLI("config")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "[log]")
	assert.Contains(t, out, `level = "warn"`)
	assert.Contains(t, out, "hints = false")
}
