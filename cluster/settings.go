//Contains configuration variables for prediction runs
package cluster

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/ldsec/dnn-inference/mpc/distributed"
	"google.golang.org/grpc/benchmark/latency"
)

type Config struct {
	DataFile     string `json:"data_file"`
	BatchSize    int    `json:"batch_size"`
	PredBatchNum int    `json:"pred_batch_num"`
	PredictFile  string `json:"predict_file"`
	OutProb      bool   `json:"out_prob"`
	//revealed predictions and saved weights are reconstructed at this party
	ModelFileMachine string `json:"model_file_machine"`
	LoadModelFile    string `json:"load_model_file,omitempty"`
	SaveModelFile    string `json:"save_model_file,omitempty"`
	Pooling          string `json:"pooling,omitempty"`
	Normalizer       string `json:"normalizer,omitempty"`
	Seed             string `json:"seed,omitempty"`
	//"pipe" or "tcp"
	Link string `json:"link,omitempty"`
	Addr string `json:"addr,omitempty"`
	//tcp only: simulated link, e.g. "lan" or "local"
	Latency string `json:"latency,omitempty"`
	Eval    bool   `json:"eval,omitempty"`
}

func ReadConfig(path string) (*Config, error) {
	jsonFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer jsonFile.Close()
	byteValue, err := ioutil.ReadAll(jsonFile)
	if err != nil {
		return nil, err
	}
	c := &Config{Pooling: "max", Link: "pipe", Addr: "127.0.0.1:0", ModelFileMachine: distributed.PartyL}
	if err := json.Unmarshal(byteValue, c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, c.Validate()
}

func (c *Config) Validate() error {
	if c.BatchSize <= 0 || c.PredBatchNum <= 0 {
		return fmt.Errorf("batch_size and pred_batch_num must be positive, got %d and %d", c.BatchSize, c.PredBatchNum)
	}
	if c.DataFile == "" || c.PredictFile == "" {
		return fmt.Errorf("data_file and predict_file are required")
	}
	if _, err := distributed.Other(c.ModelFileMachine); err != nil {
		return fmt.Errorf("model_file_machine: %w", err)
	}
	if c.Link != "pipe" && c.Link != "tcp" {
		return fmt.Errorf("unknown link %q", c.Link)
	}
	if _, err := c.Network(); err != nil {
		return err
	}
	return nil
}

//Network is the simulated link to wrap tcp connections in, nil for none
func (c *Config) Network() (*latency.Network, error) {
	switch c.Latency {
	case "":
		return nil, nil
	case "lan":
		return &distributed.Lan, nil
	case "local":
		return &distributed.Local, nil
	}
	return nil, fmt.Errorf("unknown latency %q", c.Latency)
}

//OpenLink opens the channel between the two parties
func (c *Config) OpenLink() (distributed.Link, error) {
	if c.Link == "tcp" {
		nw, err := c.Network()
		if err != nil {
			return nil, err
		}
		start := time.Now()
		link, err := distributed.NewTCPLink(c.Addr, nw)
		if err != nil {
			return nil, err
		}
		fmt.Printf("[*] Tcp link on %s up in %v\n", c.Addr, time.Since(start))
		return link, nil
	}
	return distributed.NewPipeLink(), nil
}
