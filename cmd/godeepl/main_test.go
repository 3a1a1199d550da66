package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZaguanLabs/godeepl"
	"github.com/ZaguanLabs/godeepl/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeRecorder struct{ closed int }

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

// execute runs the CLI against a MockProvider.
func execute(t *testing.T, stdin string, args ...string) (string, *provider.MockProvider, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	mock := provider.NewMockProvider()
	a.newProvider = func(*app) (godeepl.Provider, io.Closer, error) {
		return mock, &closeRecorder{}, nil
	}

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), mock, err
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"version"}, strings.NewReader(""), &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "godeepl "+godeepl.Version)
}

func TestRun_VersionFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--version"}, strings.NewReader(""), &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), godeepl.Version)
}

func TestTranslate_Args(t *testing.T) {
	out, mock, err := execute(t, "", "translate", "--to", "de", "Hello")

	require.NoError(t, err)
	assert.Equal(t, "Hallo\n", out)

	req := mock.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "DE", req.TargetLang)
	assert.Equal(t, godeepl.AutoLang, req.SourceLang)
}

func TestTranslate_Stdin(t *testing.T) {
	out, _, err := execute(t, "World\n", "translate", "-t", "de", "-f", "en")

	require.NoError(t, err)
	assert.Equal(t, "Welt\n", out)
}

func TestTranslate_JSON(t *testing.T) {
	out, _, err := execute(t, "", "translate", "--to", "de", "--json", "How are you?")
	require.NoError(t, err)

	var res godeepl.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 200, res.Code)
	assert.Equal(t, "Wie geht es dir?", res.Data)
	assert.Equal(t, []string{"Wie geht es Ihnen?", "Wie geht's?"}, res.Alternatives)
	assert.Equal(t, "EN", res.SourceLang)
	assert.Equal(t, "DE", res.TargetLang)
	assert.Contains(t, out, `"source_lang"`)
}

func TestTranslate_MissingTarget(t *testing.T) {
	_, mock, err := execute(t, "", "translate", "Hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_lang")
	assert.Equal(t, 0, mock.CallCount())
}

func TestTranslate_NoText(t *testing.T) {
	_, _, err := execute(t, "  \n", "translate", "--to", "de")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text")
}

func TestTranslate_TargetFromEnv(t *testing.T) {
	t.Setenv("GODEEPL_TO", "fr")

	_, mock, err := execute(t, "", "translate", "Hello")

	require.NoError(t, err)
	assert.Equal(t, "FR", mock.LastRequest().TargetLang)
}

func TestTranslate_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "godeepl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("to: ja\nfrom: en\n"), 0o600))

	_, mock, err := execute(t, "", "translate", "--config", path, "Hello")

	require.NoError(t, err)
	req := mock.LastRequest()
	assert.Equal(t, "JA", req.TargetLang)
	assert.Equal(t, "EN", req.SourceLang)
}

func TestTranslate_UnknownBackend(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"translate", "--backend", "carrier-pigeon", "--to", "de", "Hello"},
		strings.NewReader(""), &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestBatch_Table(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texts.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hello\n\nWorld\n"), 0o600))

	out, mock, err := execute(t, "", "batch", "--to", "de", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Hallo")
	assert.Contains(t, out, "Welt")
	assert.Contains(t, out, "2/2 ok")
	assert.Equal(t, 2, mock.CallCount())
}

func TestBatch_JSONFromStdin(t *testing.T) {
	out, _, err := execute(t, "Hello\nWorld\nHello\n", "batch", "--to", "de", "--json", "--concurrency", "2", "-")
	require.NoError(t, err)

	var batch godeepl.BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	assert.Equal(t, 3, batch.TotalCount)
	assert.Equal(t, 3, batch.SuccessCount)
	assert.Equal(t, "Mock", batch.Method)
	require.Len(t, batch.Results, 3)
	assert.Equal(t, "Welt", batch.Results[1].TranslatedText)
}

func TestBatch_TagHandling(t *testing.T) {
	_, mock, err := execute(t, "<b>Hello</b>\n", "batch", "-", "--to", "de", "--tag-handling", "html")

	require.NoError(t, err)
	require.NotNil(t, mock.LastRequest())
	assert.Equal(t, godeepl.TagHandlingHTML, mock.LastRequest().TagHandling)
}

func TestBatch_TagHandlingFromEnv(t *testing.T) {
	t.Setenv("GODEEPL_TAG_HANDLING", "xml")

	_, mock, err := execute(t, "Hello\n", "batch", "-", "--to", "de")

	require.NoError(t, err)
	assert.Equal(t, godeepl.TagHandlingXML, mock.LastRequest().TagHandling)
}

func TestBatch_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n  \n"), 0o600))

	_, _, err := execute(t, "", "batch", "--to", "de", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text")
}

func TestLanguages_JSON(t *testing.T) {
	out, _, err := execute(t, "", "languages", "--json")
	require.NoError(t, err)

	var langs []languageInfo
	require.NoError(t, json.Unmarshal([]byte(out), &langs))
	assert.Len(t, langs, len(godeepl.SupportedLanguages()))
	assert.Contains(t, langs, languageInfo{Code: "DE", Name: "German"})
}

func TestLanguages_Table(t *testing.T) {
	out, _, err := execute(t, "", "languages")

	require.NoError(t, err)
	assert.Contains(t, out, "ZH-HANT")
	assert.Contains(t, out, "Japanese")
}

func TestCache_RequiresRedis(t *testing.T) {
	_, _, err := execute(t, "", "cache", "export", filepath.Join(t.TempDir(), "out.json"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--redis-url")
}

func TestTranslator_ReleasesBackend(t *testing.T) {
	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	closer := &closeRecorder{}
	a.newProvider = func(*app) (godeepl.Provider, io.Closer, error) {
		return provider.NewMockProvider(), closer, nil
	}

	tr, release, err := a.translator(context.Background())
	require.NoError(t, err)
	require.NotNil(t, tr)

	release()
	assert.Equal(t, 1, closer.closed)
}
