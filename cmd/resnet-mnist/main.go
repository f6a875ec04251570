// Command resnet-mnist trains a pre-activation residual network on the
// MNIST handwritten digit dataset.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/lucko515/residual-network/internal/autodiff"
	"github.com/lucko515/residual-network/internal/backend/cpu"
	"github.com/lucko515/residual-network/internal/mnist"
	"github.com/lucko515/residual-network/internal/model"
	"github.com/lucko515/residual-network/internal/nn"
	"github.com/lucko515/residual-network/internal/optim"
	"github.com/lucko515/residual-network/internal/tensor"
	"github.com/lucko515/residual-network/internal/trainer"
)

type backendT = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func main() {
	dataDir := flag.String("data", "./data", "directory containing the MNIST IDX files")
	synthetic := flag.Bool("synthetic", false, "train on generated data instead of MNIST files")
	maxSamples := flag.Int("samples", 0, "max training samples to load (0 = all)")
	units := flag.Int("units", 3, "residual units per stage (depth = 6*units+2)")
	epochs := flag.Int("epochs", 10, "training epochs")
	batchSize := flag.Int("batch", 128, "mini-batch size")
	lr := flag.Float64("lr", 0.001, "learning rate")
	optimizer := flag.String("optimizer", "adam", "optimizer: adam or sgd")
	momentum := flag.Float64("momentum", 0.9, "SGD momentum")
	seed := flag.Int64("seed", 42, "random seed for shuffling and synthetic data")
	logEvery := flag.Int("log-every", 0, "batches between progress lines (0 = per epoch only)")
	flag.Parse()

	backend := autodiff.New(cpu.New())

	train, test, err := loadData(*dataDir, *synthetic, *maxSamples, *seed)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "MNIST files not found in %s\n", *dataDir)
			fmt.Fprintln(os.Stderr, "Download train-images-idx3-ubyte, train-labels-idx1-ubyte,")
			fmt.Fprintln(os.Stderr, "t10k-images-idx3-ubyte and t10k-labels-idx1-ubyte from")
			fmt.Fprintln(os.Stderr, "http://yann.lecun.com/exdb/mnist/ and gunzip them there,")
			fmt.Fprintln(os.Stderr, "or run with -synthetic.")
			os.Exit(1)
		}
		log.Fatalf("loading data: %v", err)
	}
	fmt.Printf("train: %d samples, test: %d samples\n", train.Len(), test.Len())

	net := model.NewResNet(*units, 10, backend)
	fmt.Printf("ResNet-%d: %d residual units, %d parameters\n",
		net.Depth(), net.NumUnits(), net.CountParameters())

	opt, err := buildOptimizer(*optimizer, net.Parameters(), float32(*lr), float32(*momentum))
	if err != nil {
		log.Fatal(err)
	}

	tr := trainer.New[backendT](net, opt, backend, *seed)
	result := tr.Fit(train, test, trainer.Config{
		Epochs:    *epochs,
		BatchSize: *batchSize,
		LogEvery:  *logEvery,
	})

	testLoss, testAcc := tr.Evaluate(test, *batchSize)
	fmt.Printf("\nfinal test loss %.4f, accuracy %.2f%%\n", testLoss, testAcc*100)
	fmt.Printf("epoch time %.1fs ± %.1fs\n", result.MeanEpochSec, result.StdEpochSec)
}

// loadData returns train and test datasets, either from IDX files or
// generated.
func loadData(dataDir string, synthetic bool, maxSamples int, seed int64) (*mnist.Dataset, *mnist.Dataset, error) {
	if synthetic {
		n := maxSamples
		if n == 0 {
			n = 2000
		}
		ds := mnist.Synthetic(n, seed)
		ds.Shuffle(rand.New(rand.NewSource(seed)))
		train, test := ds.Split(0.9)
		return train, test, nil
	}

	train, err := mnist.Load(dataDir, true, maxSamples)
	if err != nil {
		return nil, nil, err
	}
	test, err := mnist.Load(dataDir, false, 0)
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// buildOptimizer constructs the optimizer named by the -optimizer flag.
func buildOptimizer(name string, params []*nn.Parameter[backendT], lr, momentum float32) (optim.Optimizer, error) {
	raws := make([]*tensor.RawTensor, len(params))
	for i, p := range params {
		raws[i] = p.Raw()
	}

	switch name {
	case "adam":
		cfg := optim.DefaultAdamConfig()
		cfg.LR = lr
		return optim.NewAdam(raws, cfg), nil
	case "sgd":
		return optim.NewSGD(raws, lr, momentum), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q (want adam or sgd)", name)
	}
}
