package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"math"
	"os"

	"github.com/ldsec/dnn-inference/mpc/plainUtils"
	"github.com/ldsec/dnn-inference/mpc/shareUtils"
)

var ErrNoBatch = errors.New("No more complete batches")

//Data is a dataset of flattened examples X with integer labels Y
type Data struct {
	X            [][]float64 `json:"X"`
	Y            []int       `json:"Y"`
	BatchSize    int
	NumBatches   int
	CurrentBatch int
}

func LoadData(path string) (*Data, error) {
	jsonFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer jsonFile.Close()
	byteValue, err := ioutil.ReadAll(jsonFile)
	if err != nil {
		return nil, err
	}
	var res Data
	if err := json.Unmarshal(byteValue, &res); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(res.X) != len(res.Y) {
		return nil, fmt.Errorf("%s: %d examples for %d labels", path, len(res.X), len(res.Y))
	}
	return &res, nil
}

func (data *Data) Init(batchSize int) error {
	if batchSize <= 0 {
		return fmt.Errorf("batch size %d", batchSize)
	}
	data.BatchSize = batchSize
	totData := len(data.Y)
	data.NumBatches = int(math.Floor(float64(totData) / float64(batchSize)))
	data.CurrentBatch = 0
	return nil
}

func (data *Data) Batch() ([][]float64, []int, error) {
	if data.CurrentBatch < data.NumBatches {
		i := data.CurrentBatch * data.BatchSize
		j := (data.CurrentBatch + 1) * data.BatchSize
		Xbatch := data.X[i:j]
		Y := data.Y[i:j]
		data.CurrentBatch += 1
		return Xbatch, Y, nil
	}
	//last batch is incomplete
	return nil, nil, ErrNoBatch
}

//Feeder secret-shares the batches of a dataset, reshaping each example to Shape
type Feeder struct {
	Data  *Data
	Sess  *shareUtils.Session
	Shape []int
}

func (f *Feeder) Next() (*shareUtils.SharedPair, error) {
	x, _, err := f.NextWithLabels()
	return x, err
}

//NextWithLabels also returns the plaintext labels, for scoring the predictions
func (f *Feeder) NextWithLabels() (*shareUtils.SharedPair, []int, error) {
	X, Y, err := f.Data.Batch()
	if err != nil {
		return nil, nil, err
	}
	size := plainUtils.Size(f.Shape)
	flat := make([]float64, 0, len(X)*size)
	for i, x := range X {
		if len(x) != size {
			return nil, nil, fmt.Errorf("example %d has %d values, want %d: %w", i, len(x), size, plainUtils.ErrSize)
		}
		flat = append(flat, x...)
	}
	t, err := plainUtils.NewTensor(append([]int{len(X)}, f.Shape...), flat)
	if err != nil {
		return nil, nil, err
	}
	return f.Sess.Share(t), Y, nil
}

//OneHot encodes labels as [len(labels), classes]
func OneHot(labels []int, classes int) (*plainUtils.Tensor, error) {
	t := plainUtils.Zeros([]int{len(labels), classes})
	for i, y := range labels {
		if y < 0 || y >= classes {
			return nil, fmt.Errorf("label %d out of %d classes", y, classes)
		}
		t.Data[i*classes+y] = 1
	}
	return t, nil
}
