package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/ldsec/dnn-inference/mpc/cluster"
	"github.com/ldsec/dnn-inference/mpc/data"
	"github.com/ldsec/dnn-inference/mpc/layers"
	"github.com/ldsec/dnn-inference/mpc/nn"
	"github.com/ldsec/dnn-inference/mpc/shareUtils"
	"github.com/ldsec/dnn-inference/mpc/utils"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the run configuration")
	flag.Parse()

	conf, err := cluster.ReadConfig(*configPath)
	utils.ThrowErr(err)

	link, err := conf.OpenLink()
	utils.ThrowErr(err)
	var seed []byte
	if conf.Seed != "" {
		seed = []byte(conf.Seed)
	}
	sess, err := shareUtils.NewSession(shareUtils.Config{Seed: seed, Link: link})
	utils.ThrowErr(err)
	defer sess.Close()

	dataSn, err := data.LoadData(conf.DataFile)
	utils.ThrowErr(err)
	utils.ThrowErr(dataSn.Init(conf.BatchSize))
	fmt.Printf("[*] Loaded %d examples, %d batches of %d\n", len(dataSn.Y), dataSn.NumBatches, conf.BatchSize)

	netConf := nn.DefaultConfig()
	netConf.Pooling = conf.Pooling
	netConf.Normalizer = layers.Normalizer(conf.Normalizer)
	start := time.Now()
	model, err := nn.NewNetworkB(sess, netConf, nil, nil)
	utils.ThrowErr(err)
	fmt.Printf("[*] Network of %d layers built in %v\n", model.GetNumOfLayers(), time.Since(start))

	if conf.LoadModelFile != "" {
		utils.ThrowErr(model.LoadModel(sess, conf.LoadModelFile))
		fmt.Printf("[*] Weights loaded from %s\n", conf.LoadModelFile)
	}

	feeder := &data.Feeder{Data: dataSn, Sess: sess, Shape: netConf.InputShape}
	start = time.Now()
	utils.ThrowErr(model.PredictToFile(sess, feeder, conf.PredictFile, conf.PredBatchNum, conf.ModelFileMachine, conf.OutProb))
	fmt.Printf("[*] %d batches written to %s in %v\n", conf.PredBatchNum, conf.PredictFile, time.Since(start))

	if conf.Eval {
		utils.ThrowErr(dataSn.Init(conf.BatchSize))
		stats, err := nn.EvalAccuracy(sess, model, feeder, conf.PredBatchNum, conf.ModelFileMachine)
		utils.ThrowErr(err)
		stats.PrintResult()
	}

	if conf.SaveModelFile != "" {
		utils.ThrowErr(model.SaveModel(sess, conf.SaveModelFile, conf.ModelFileMachine))
		fmt.Printf("[*] Weights saved to %s\n", conf.SaveModelFile)
	}
}
