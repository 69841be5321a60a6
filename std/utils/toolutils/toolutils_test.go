package toolutils_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/kaidokert/fsfw-sub000/std/utils/toolutils"
	"github.com/stretchr/testify/require"
)

func TestReadYaml(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cfg.yml")
	require.NoError(t, os.WriteFile(file, []byte("name: probe\ncount: 3\n"), 0644))

	var cfg struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	require.NoError(t, toolutils.ReadYaml(&cfg, file))
	require.Equal(t, "probe", cfg.Name)
	require.Equal(t, 3, cfg.Count)

	require.NoError(t, os.WriteFile(file, []byte("name: probe\nbogus: 1\n"), 0644))
	require.Error(t, toolutils.ReadYaml(&cfg, file))
	require.Error(t, toolutils.ReadYaml(&cfg, filepath.Join(dir, "missing.yml")))
}

func TestStatusPrinter(t *testing.T) {
	buf := &bytes.Buffer{}
	p := toolutils.StatusPrinter{File: buf, Padding: 6}
	p.Print("key", 12)
	p.Print("toolongkey", "x")
	require.Equal(t, "   key=12\ntoolongkey=x\n", buf.String())
}
