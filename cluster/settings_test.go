package cluster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ldsec/dnn-inference/mpc/distributed"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadConfig(t *testing.T) {
	c, err := ReadConfig(writeConfig(t, `{
		"data_file": "mnist.json",
		"batch_size": 8,
		"pred_batch_num": 2,
		"predict_file": "pred.txt",
		"model_file_machine": "R",
		"latency": "lan"
	}`))
	require.NoError(t, err)
	require.Equal(t, 8, c.BatchSize)
	require.Equal(t, distributed.PartyR, c.ModelFileMachine)
	require.Equal(t, "max", c.Pooling)
	require.Equal(t, "pipe", c.Link)
	nw, err := c.Network()
	require.NoError(t, err)
	require.Equal(t, distributed.Lan, *nw)

	link, err := c.OpenLink()
	require.NoError(t, err)
	require.NoError(t, link.Close())

	c.Link = "tcp"
	link, err = c.OpenLink()
	require.NoError(t, err)
	require.NoError(t, link.Close())
}

func TestReadConfigErrors(t *testing.T) {
	for name, content := range map[string]string{
		"Syntax":    `{"batch_size":`,
		"NoBatches": `{"data_file":"d","predict_file":"p","batch_size":8}`,
		"NoFiles":   `{"batch_size":8,"pred_batch_num":1}`,
		"Owner":     `{"data_file":"d","predict_file":"p","batch_size":8,"pred_batch_num":1,"model_file_machine":"M"}`,
		"Link":      `{"data_file":"d","predict_file":"p","batch_size":8,"pred_batch_num":1,"link":"udp"}`,
		"Latency":   `{"data_file":"d","predict_file":"p","batch_size":8,"pred_batch_num":1,"latency":"wan"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadConfig(writeConfig(t, content))
			require.Error(t, err)
		})
	}
	_, err := ReadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
