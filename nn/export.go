package nn

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ldsec/dnn-inference/mpc/distributed"
	"github.com/ldsec/dnn-inference/mpc/shareUtils"
	"github.com/ldsec/dnn-inference/mpc/utils"
)

//BatchSource yields secret-shared feature batches in order
type BatchSource interface {
	Next() (*shareUtils.SharedPair, error)
}

//LabeledSource also yields the plaintext labels of each batch
type LabeledSource interface {
	NextWithLabels() (*shareUtils.SharedPair, []int, error)
}

type Predictor interface {
	Predict(sess *shareUtils.Session, x *shareUtils.SharedPair, outProb bool) (*shareUtils.SharedPair, error)
}

//Exporter runs BatchNum predictions and appends them, revealed at Owner, to the text file at Path:
//one line per example, values comma separated, batches in order
type Exporter struct {
	Path     string
	BatchNum int
	Owner    string
	OutProb  bool
}

func (e *Exporter) Export(sess *shareUtils.Session, model Predictor, src BatchSource) (err error) {
	if e.BatchNum <= 0 {
		return fmt.Errorf("batch count %d", e.BatchNum)
	}
	if _, err := distributed.Other(e.Owner); err != nil {
		return err
	}
	f, err := os.Create(e.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)

	if err := sess.RandomInit(); err != nil {
		return err
	}
	for b := 0; b < e.BatchNum; b++ {
		start := time.Now()
		x, err := src.Next()
		if err != nil {
			return fmt.Errorf("batch %d: %w", b, err)
		}
		y, err := model.Predict(sess, x, e.OutProb)
		if err != nil {
			return fmt.Errorf("batch %d: %w", b, err)
		}
		records, err := sess.RevealToStrings(y, e.Owner)
		if err != nil {
			return fmt.Errorf("batch %d: %w", b, err)
		}
		if _, err := w.WriteString(strings.Join(records, "\n") + "\n"); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("[*] Batch %d/%d: %d predictions in %v\n", b+1, e.BatchNum, len(records), time.Since(start))
	}
	return nil
}

//PredictToFile exports batchNum batches of src predictions to path, revealed at owner
func (nb *NetworkB) PredictToFile(sess *shareUtils.Session, src BatchSource, path string, batchNum int, owner string, outProb bool) error {
	e := &Exporter{Path: path, BatchNum: batchNum, Owner: owner, OutProb: outProb}
	return e.Export(sess, nb, src)
}

//EvalAccuracy predicts batchNum batches of src and scores the argmax against the labels, revealing at owner
func EvalAccuracy(sess *shareUtils.Session, model Predictor, src LabeledSource, batchNum int, owner string) (utils.Stats, error) {
	var stats utils.Stats
	if batchNum <= 0 {
		return stats, errors.New("no batches to evaluate")
	}
	for b := 0; b < batchNum; b++ {
		start := time.Now()
		x, labels, err := src.NextWithLabels()
		if err != nil {
			return stats, fmt.Errorf("batch %d: %w", b, err)
		}
		y, err := model.Predict(sess, x, true)
		if err != nil {
			return stats, fmt.Errorf("batch %d: %w", b, err)
		}
		res, err := sess.Reveal(y, owner)
		if err != nil {
			return stats, fmt.Errorf("batch %d: %w", b, err)
		}
		result := make([][]float64, res.Rows())
		for i := range result {
			result[i] = res.Row(i)
		}
		corrects, accuracy, _ := utils.Predict(labels, res.Cols(), result)
		stats.Batch = len(labels)
		stats.Accumulate(utils.Stats{Corrects: corrects, Accuracy: accuracy, Time: time.Since(start).Milliseconds()})
	}
	return stats, nil
}
