package utils

import (
	"fmt"
)

type Stats struct {
	Iters    int
	Batch    int
	Corrects int
	Accuracy float64
	Time     int64
}

func NewStats(batch int) Stats {
	return Stats{Batch: batch}
}

func (s *Stats) Accumulate(other Stats) {
	s.Iters++
	s.Corrects += other.Corrects
	s.Accuracy += other.Accuracy
	s.Time += other.Time
}

func (s *Stats) PrintResult() {
	fmt.Println("---------------------------------------------------------------------------------")
	fmt.Println("[!] Results: ")
	if s.Iters == 0 {
		fmt.Println("No batches evaluated")
		return
	}
	fmt.Printf("Accuracy: %f\n", s.Accuracy/float64(s.Iters))
	fmt.Printf("Corrects / tot: %d / %d \n", s.Corrects, s.Iters*s.Batch)
	fmt.Printf("Avg Time for Eval: %f ms\n", float64(s.Time)/float64(s.Iters))
}

//Returns number of correct values, accuracy and predicted values
func Predict(Y []int, labels int, result [][]float64) (int, float64, []int) {
	batchSize := len(Y)
	predictions := make([]int, batchSize)
	corrects := 0
	for i := 0; i < batchSize; i++ {
		maxIdx := 0
		maxConfidence := result[i][0]
		for j := 1; j < labels; j++ {
			confidence := result[i][j]
			if confidence > maxConfidence {
				maxConfidence = confidence
				maxIdx = j
			}
		}
		predictions[i] = maxIdx
		if predictions[i] == Y[i] {
			corrects += 1
		}
	}
	accuracy := float64(corrects) / float64(batchSize)
	return corrects, accuracy, predictions
}
